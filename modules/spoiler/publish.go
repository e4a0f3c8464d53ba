package spoiler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"veilbot/pkg/veil"
)

const (
	// maxArchiveBytes caps the cumulative archived attachment content.
	maxArchiveBytes = 25 * 1024 * 1024
	// maxTitleRunes caps the spoiler title length.
	maxTitleRunes = 100
)

// allowedExtensions lists the attachment filename extensions a spoiler may
// carry. The policy gates on names, before any content transfer.
var allowedExtensions = map[string]struct{}{
	"png":  {},
	"jpg":  {},
	"jpeg": {},
	"webm": {},
	"gif":  {},
	"mp4":  {},
	"txt":  {},
}

// UnsupportedAttachmentError reports a candidate attachment outside the
// allowed extension policy. The whole publish is rejected.
type UnsupportedAttachmentError struct {
	FileName string
}

func (e *UnsupportedAttachmentError) Error() string {
	return fmt.Sprintf("spoiler: unsupported attachment %q", e.FileName)
}

// ArchiveWriteError reports a failed archive write. The origin message is
// left untouched when this is returned.
type ArchiveWriteError struct {
	Cause error
}

func (e *ArchiveWriteError) Error() string {
	return fmt.Sprintf("spoiler: archive write failed: %v", e.Cause)
}

func (e *ArchiveWriteError) Unwrap() error {
	return e.Cause
}

// PublishRequest carries one validated spoiler publication.
type PublishRequest struct {
	// Author is the publishing actor.
	Author veil.Actor
	// Origin is the conversation holding the source message.
	Origin veil.Conversation
	// OriginMessageID is the source message replaced by the front door.
	OriginMessageID string
	// Sink routes outbound operations for this publication.
	Sink *veil.SinkRef
	// Title is the visible spoiler title.
	Title string
	// Text is the hidden text body, possibly empty.
	Text string
	// Candidates lists the source message attachments to archive.
	Candidates []veil.MediaAttachment
}

// publish runs the full pipeline: policy check, bounded content fetch,
// archive write, origin delete, front-door post, cache insert.
//
// Returns the archive pointer and the published record.
func (m *Module) publish(ctx context.Context, request PublishRequest) (int64, SpoilerRecord, error) {
	record, err := m.buildRecord(request)
	if err != nil {
		return 0, SpoilerRecord{}, err
	}

	uploads, kept, err := m.fetchCandidates(ctx, request.Candidates)
	if err != nil {
		return 0, SpoilerRecord{}, err
	}
	record.Attachments = kept

	originTarget := veil.OutboundTarget{Conversation: request.Origin, Sink: request.Sink}
	archiveTarget := m.cfg.archiveTarget()
	archiveTarget.Sink = request.Sink

	archived, err := m.dispatcher.SendMessage(ctx, veil.SendMessageRequest{
		Target: archiveTarget,
		Card:   encodeArchive(record),
		Files:  uploads,
		Silent: true,
	})
	if err != nil {
		return 0, SpoilerRecord{}, &ArchiveWriteError{Cause: err}
	}
	pointer, err := strconv.ParseInt(archived.ID, 10, 64)
	if err != nil {
		return 0, SpoilerRecord{}, &ArchiveWriteError{
			Cause: fmt.Errorf("archive message id %q is not numeric: %w", archived.ID, err),
		}
	}

	// The archive write is confirmed; the delete/front-door window must not be
	// torn by a disconnecting caller.
	detached := context.WithoutCancel(ctx)
	m.sleep(detached, m.cfg.PublishDelay)

	if err := m.dispatcher.DeleteMessage(detached, veil.DeleteMessageRequest{
		Target:    originTarget,
		MessageID: request.OriginMessageID,
		Revoke:    true,
	}); err != nil {
		m.logger.WarnContext(detached, "spoiler origin delete failed",
			"conversation", request.Origin.ID,
			"message", request.OriginMessageID,
			"error", err,
		)
	}

	frontDoor, err := m.dispatcher.SendMessage(detached, veil.SendMessageRequest{
		Target:  originTarget,
		Card:    encodeFrontDoor(record, authorDisplayName(request.Author), pointer),
		Control: &veil.ControlSpec{ID: revealControlID, Label: revealControlLabel},
	})
	if err != nil {
		return 0, SpoilerRecord{}, fmt.Errorf("spoiler front-door post: %w", err)
	}

	m.cache.put(cacheKey(request.Origin.ID, frontDoor.ID), record)

	return pointer, record, nil
}

func (m *Module) buildRecord(request PublishRequest) (SpoilerRecord, error) {
	authorID, err := strconv.ParseInt(request.Author.ID, 10, 64)
	if err != nil {
		return SpoilerRecord{}, fmt.Errorf("spoiler publish: parse author id %q: %w", request.Author.ID, err)
	}
	originID, err := strconv.ParseInt(request.Origin.ID, 10, 64)
	if err != nil {
		return SpoilerRecord{}, fmt.Errorf("spoiler publish: parse origin id %q: %w", request.Origin.ID, err)
	}

	for _, candidate := range request.Candidates {
		if _, allowed := allowedExtensions[fileExtension(candidate.FileName)]; !allowed {
			return SpoilerRecord{}, &UnsupportedAttachmentError{FileName: candidate.FileName}
		}
	}

	return SpoilerRecord{
		AuthorID:        authorID,
		OriginChannelID: originID,
		Title:           request.Title,
		Text:            request.Text,
	}, nil
}

// fetchCandidates downloads candidate content under the cumulative byte
// budget. A candidate that would exceed the remaining budget is skipped, not
// truncated; the walk stops early once the budget is exhausted.
func (m *Module) fetchCandidates(
	ctx context.Context,
	candidates []veil.MediaAttachment,
) ([]veil.FileUpload, []Attachment, error) {
	remaining := int64(maxArchiveBytes)
	var uploads []veil.FileUpload
	var kept []Attachment

	for _, candidate := range candidates {
		if remaining <= 0 {
			break
		}
		if candidate.SizeBytes > remaining {
			m.logger.WarnContext(ctx, "spoiler attachment skipped over budget",
				"file", candidate.FileName,
				"size", candidate.SizeBytes,
				"remaining", remaining,
			)

			continue
		}

		content, err := m.fetcher.FetchMedia(ctx, veil.FetchMediaRequest{
			URI:      candidate.URI,
			MaxBytes: remaining,
		})
		if errors.Is(err, veil.ErrMediaTooLarge) {
			m.logger.WarnContext(ctx, "spoiler attachment skipped over budget",
				"file", candidate.FileName,
				"remaining", remaining,
			)

			continue
		}
		if err != nil {
			return nil, nil, fmt.Errorf("spoiler fetch attachment %s: %w", candidate.FileName, err)
		}

		remaining -= int64(len(content.Bytes))
		uploads = append(uploads, veil.FileUpload{
			FileName: candidate.FileName,
			MIMEType: content.MIMEType,
			Bytes:    content.Bytes,
		})
		kept = append(kept, Attachment{
			FileName:  candidate.FileName,
			URI:       candidate.URI,
			SizeBytes: int64(len(content.Bytes)),
		})
	}

	return uploads, kept, nil
}

func authorDisplayName(author veil.Actor) string {
	if author.DisplayName != "" {
		return author.DisplayName
	}
	if author.Username != "" {
		return author.Username
	}

	return author.ID
}
