package spoiler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"veilbot/pkg/veil"
)

// ErrSpoilerNotFound marks a reveal target that cannot be reconstructed from
// the cache or the archive. Every reconstruction failure resolves to this
// sentinel; reveal handlers must not surface anything else to viewers.
var ErrSpoilerNotFound = errors.New("spoiler: record not found")

// reconstruct resolves the record behind one front-door message.
//
// Cache hit returns immediately. Otherwise at most two fetches run: the
// front-door message for its archive pointer, then the archive message for
// the record. Nothing durable is written; the only side effect is one cache
// insert on success.
func (m *Module) reconstruct(
	ctx context.Context,
	origin veil.OutboundTarget,
	frontDoorID string,
) (SpoilerRecord, error) {
	key := cacheKey(origin.Conversation.ID, frontDoorID)
	if record, ok := m.cache.get(key); ok {
		return record, nil
	}

	frontDoor, err := m.dispatcher.FetchMessage(ctx, veil.FetchMessageRequest{
		Target:    origin,
		MessageID: frontDoorID,
	})
	if err != nil {
		return SpoilerRecord{}, fmt.Errorf("%w: fetch front door %s: %w", ErrSpoilerNotFound, frontDoorID, err)
	}
	if frontDoor.Card == nil {
		return SpoilerRecord{}, fmt.Errorf("%w: message %s carries no card", ErrSpoilerNotFound, frontDoorID)
	}

	pointer, err := strconv.ParseInt(frontDoor.Card.Footer, 10, 64)
	if err != nil {
		return SpoilerRecord{}, fmt.Errorf(
			"%w: front door %s pointer %q: %w",
			ErrSpoilerNotFound,
			frontDoorID,
			frontDoor.Card.Footer,
			err,
		)
	}

	archiveTarget := m.cfg.archiveTarget()
	archiveTarget.Sink = origin.Sink
	archived, err := m.dispatcher.FetchMessage(ctx, veil.FetchMessageRequest{
		Target:    archiveTarget,
		MessageID: strconv.FormatInt(pointer, 10),
	})
	if err != nil {
		return SpoilerRecord{}, fmt.Errorf("%w: fetch archive %d: %w", ErrSpoilerNotFound, pointer, err)
	}

	record, err := decodeArchive(archived)
	if err != nil {
		return SpoilerRecord{}, fmt.Errorf("%w: %w", ErrSpoilerNotFound, err)
	}

	m.cache.put(key, record)

	return record, nil
}
