package telegram

import (
	"context"
	"fmt"
	"time"

	"veilbot/pkg/veil"
)

// Decoder converts Telegram update DTOs into neutral veil events.
type Decoder interface {
	// Decode maps one adapter update into a validated neutral event envelope.
	Decode(ctx context.Context, update Update) (*veil.Event, error)
}

// DefaultDecoder provides default Telegram-to-veil mappings.
type DefaultDecoder struct{}

// NewDefaultDecoder creates a default decoder.
func NewDefaultDecoder() DefaultDecoder {
	return DefaultDecoder{}
}

// Decode converts a Telegram update into a neutral event.
func (d DefaultDecoder) Decode(_ context.Context, update Update) (*veil.Event, error) {
	event := newBaseEvent(update)

	switch update.Type {
	case UpdateTypeMessage:
		event.Kind = veil.EventKindMessageCreated
		message, err := decodeMessage(update.Message)
		if err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		event.Message = message
	case UpdateTypeEdit:
		event.Kind = veil.EventKindMessageEdited
		mutation, err := decodeEdit(update.Edit)
		if err != nil {
			return nil, fmt.Errorf("decode edit: %w", err)
		}
		event.Mutation = mutation
	case UpdateTypeDelete:
		event.Kind = veil.EventKindMessageRetracted
		mutation, err := decodeDelete(update.Delete)
		if err != nil {
			return nil, fmt.Errorf("decode delete: %w", err)
		}
		event.Mutation = mutation
	case UpdateTypeReactionAdd, UpdateTypeReactionRemove:
		event.Kind = mapReactionKind(update.Type)
		reaction, err := decodeReaction(update.Type, update.Reaction)
		if err != nil {
			return nil, fmt.Errorf("decode reaction: %w", err)
		}
		event.Reaction = reaction
	case UpdateTypeControl:
		event.Kind = veil.EventKindControlPressed
		control, err := decodeControl(update.Control)
		if err != nil {
			return nil, fmt.Errorf("decode control: %w", err)
		}
		event.Control = control
	default:
		return nil, fmt.Errorf("decode update %s: unsupported type", update.Type)
	}

	if err := event.Validate(); err != nil {
		return nil, fmt.Errorf("decode update %s: %w", update.Type, err)
	}

	return event, nil
}

// newBaseEvent builds the shared envelope fields used by all update mappings.
func newBaseEvent(update Update) *veil.Event {
	occurredAt := update.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	return &veil.Event{
		ID:         update.ID,
		OccurredAt: occurredAt,
		Platform:   veil.PlatformTelegram,
		Conversation: veil.Conversation{
			ID:    update.Chat.ID,
			Type:  update.Chat.Type,
			Title: update.Chat.Title,
		},
		Actor: veil.Actor{
			ID:          update.Actor.ID,
			Username:    update.Actor.Username,
			DisplayName: update.Actor.DisplayName,
			IsBot:       update.Actor.IsBot,
		},
		Metadata: update.Metadata,
	}
}

// decodeMessage maps Telegram message payload into neutral message content.
func decodeMessage(payload *MessagePayload) (*veil.Message, error) {
	if payload == nil {
		return nil, fmt.Errorf("missing message payload")
	}

	return &veil.Message{
		ID:        payload.ID,
		ThreadID:  payload.ThreadID,
		ReplyToID: payload.ReplyToID,
		Text:      payload.Text,
		Entities:  payload.Entities,
		Media:     mapMedia(payload.Media),
	}, nil
}

// decodeEdit maps Telegram edit payload into mutation semantics.
func decodeEdit(payload *EditPayload) (*veil.Mutation, error) {
	if payload == nil {
		return nil, fmt.Errorf("missing edit payload")
	}

	return &veil.Mutation{
		Type:            veil.MutationTypeEdit,
		TargetMessageID: payload.MessageID,
		Before:          mapSnapshot(payload.Before),
		After:           mapSnapshot(payload.After),
		Reason:          payload.Reason,
	}, nil
}

// decodeDelete maps Telegram delete payload into retraction mutation semantics.
func decodeDelete(payload *DeletePayload) (*veil.Mutation, error) {
	if payload == nil {
		return nil, fmt.Errorf("missing delete payload")
	}

	return &veil.Mutation{
		Type:            veil.MutationTypeRetraction,
		TargetMessageID: payload.MessageID,
		Reason:          payload.Reason,
	}, nil
}

// decodeReaction maps reaction add/remove payload into neutral reaction metadata.
func decodeReaction(updateType UpdateType, payload *ReactionPayload) (*veil.Reaction, error) {
	if payload == nil {
		return nil, fmt.Errorf("missing reaction payload")
	}

	action := veil.ReactionActionAdd
	if updateType == UpdateTypeReactionRemove {
		action = veil.ReactionActionRemove
	}

	return &veil.Reaction{
		MessageID: payload.MessageID,
		Emoji:     payload.Emoji,
		EmojiID:   payload.EmojiID,
		Action:    action,
	}, nil
}

// decodeControl maps inline button presses into neutral control metadata.
func decodeControl(payload *ControlPayload) (*veil.ControlPress, error) {
	if payload == nil {
		return nil, fmt.Errorf("missing control payload")
	}

	return &veil.ControlPress{
		MessageID: payload.MessageID,
		ControlID: payload.ControlID,
		QueryID:   payload.QueryID,
	}, nil
}

// mapReactionKind derives neutral kind from Telegram reaction update type.
func mapReactionKind(updateType UpdateType) veil.EventKind {
	if updateType == UpdateTypeReactionRemove {
		return veil.EventKindReactionRemoved
	}

	return veil.EventKindReactionAdded
}

// mapMedia converts media descriptors into neutral attachment metadata.
func mapMedia(media []MediaPayload) []veil.MediaAttachment {
	if len(media) == 0 {
		return nil
	}

	mapped := make([]veil.MediaAttachment, 0, len(media))
	for _, item := range media {
		mapped = append(mapped, veil.MediaAttachment{
			ID:        item.ID,
			Type:      item.Type,
			MIMEType:  item.MIMEType,
			FileName:  item.FileName,
			SizeBytes: item.SizeBytes,
			Caption:   item.Caption,
			URI:       item.URI,
			Preview:   mapPreview(item.Preview),
		})
	}

	return mapped
}

// mapPreview converts optional preview metadata.
func mapPreview(preview *MediaPreviewPayload) *veil.MediaPreview {
	if preview == nil {
		return nil
	}

	return &veil.MediaPreview{
		MIMEType: preview.MIMEType,
		Bytes:    preview.Bytes,
		Width:    preview.Width,
		Height:   preview.Height,
		Duration: preview.Duration,
	}
}

// mapSnapshot converts immutable message snapshots for mutation payloads.
func mapSnapshot(snapshot *SnapshotPayload) *veil.MessageSnapshot {
	if snapshot == nil {
		return nil
	}

	return &veil.MessageSnapshot{
		Text:  snapshot.Text,
		Media: mapMedia(snapshot.Media),
	}
}
