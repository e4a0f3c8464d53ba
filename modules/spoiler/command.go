package spoiler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"veilbot/pkg/veil"
)

const (
	commandName = "spoiler"

	usageNotice    = "Usage: /spoiler <title> | <hidden text> — attachments on the command message are hidden too."
	titleLenNotice = "Spoiler title is too long (up to 100 characters)."
	archiveNotice  = "Could not archive the spoiler. Your message was left untouched."
)

// handleCommand serves /spoiler publications.
func (m *Module) handleCommand(ctx context.Context, event *veil.Event) error {
	if event == nil || event.Command == nil || event.Command.Name != commandName {
		return nil
	}
	if event.Message == nil || event.Message.ID == "" {
		return nil
	}
	if event.Actor.IsBot {
		return nil
	}

	target, err := veil.OutboundTargetFromEvent(event)
	if err != nil {
		return fmt.Errorf("spoiler command target: %w", err)
	}

	title, text := parseSpoilerArgs(event.Command.Value)
	if title == "" {
		return m.notify(ctx, target, event.Message.ID, usageNotice)
	}
	if utf8.RuneCountInString(title) > maxTitleRunes {
		return m.notify(ctx, target, event.Message.ID, titleLenNotice)
	}

	request := PublishRequest{
		Author:          event.Actor,
		Origin:          event.Conversation,
		OriginMessageID: event.Message.ID,
		Sink:            target.Sink,
		Title:           title,
		Text:            text,
		Candidates:      event.Message.Media,
	}

	_, _, err = m.publish(ctx, request)
	var unsupported *UnsupportedAttachmentError
	if errors.As(err, &unsupported) {
		notice := fmt.Sprintf(
			"Attachment %q is not allowed. Allowed types: png, jpg, jpeg, webm, gif, mp4, txt.",
			unsupported.FileName,
		)

		return m.notify(ctx, target, event.Message.ID, notice)
	}
	var archiveFailed *ArchiveWriteError
	if errors.As(err, &archiveFailed) {
		if notifyErr := m.notify(ctx, target, event.Message.ID, archiveNotice); notifyErr != nil {
			m.logger.WarnContext(ctx, "spoiler failure notice undeliverable", "error", notifyErr)
		}

		return fmt.Errorf("spoiler publish: %w", err)
	}
	if err != nil {
		return fmt.Errorf("spoiler publish: %w", err)
	}

	return nil
}

// parseSpoilerArgs splits "<title> | <text>" on the first pipe. Without a
// pipe the whole argument is the title and the hidden text is empty.
func parseSpoilerArgs(value string) (title, text string) {
	title, text, found := strings.Cut(value, "|")
	title = strings.TrimSpace(title)
	if !found {
		return title, ""
	}

	return title, strings.TrimSpace(text)
}

func (m *Module) notify(ctx context.Context, target veil.OutboundTarget, replyToID, text string) error {
	_, err := m.dispatcher.SendMessage(ctx, veil.SendMessageRequest{
		Target:           target,
		Text:             text,
		ReplyToMessageID: replyToID,
	})
	if err != nil {
		return fmt.Errorf("spoiler notice: %w", err)
	}

	return nil
}
