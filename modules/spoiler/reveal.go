package spoiler

import (
	"context"
	"errors"
	"strings"

	"veilbot/pkg/veil"
)

const (
	// revealControlID is fixed so presses stay routable across restarts.
	revealControlID    = "spoiler:reveal"
	revealControlLabel = "Reveal Spoiler"

	missNotice     = "Could not find this message in storage."
	deliveryNotice = "Could not deliver the spoiler privately. Start a chat with the bot first."
)

// handleControl serves the button reveal path. Presses are never rate
// limited; a miss answers the press with a storage notice.
func (m *Module) handleControl(ctx context.Context, event *veil.Event) error {
	if event == nil || event.Control == nil {
		return nil
	}
	if event.Control.ControlID != revealControlID {
		return nil
	}

	sink := sinkFromEvent(event)
	origin := veil.OutboundTarget{Conversation: event.Conversation, Sink: sink}

	record, err := m.reconstruct(ctx, origin, event.Control.MessageID)
	if err != nil {
		if !errors.Is(err, ErrSpoilerNotFound) {
			return err
		}
		m.logger.WarnContext(ctx, "spoiler reveal miss",
			"conversation", event.Conversation.ID,
			"message", event.Control.MessageID,
			"error", err,
		)

		return m.answerControl(ctx, sink, event.Control.QueryID, missNotice, true)
	}

	if err := m.deliverReveal(ctx, sink, event.Actor.ID, record); err != nil {
		m.logger.WarnContext(ctx, "spoiler private delivery failed",
			"actor", event.Actor.ID,
			"error", err,
		)

		return m.answerControl(ctx, sink, event.Control.QueryID, deliveryNotice, true)
	}

	return m.answerControl(ctx, sink, event.Control.QueryID, "", false)
}

// handleReaction serves the marker-emoji reveal path. Bot actors are ignored,
// denials and misses are silent, and reveals are rate limited per
// (message, actor).
func (m *Module) handleReaction(ctx context.Context, event *veil.Event) error {
	if event == nil || event.Reaction == nil {
		return nil
	}
	if event.Reaction.Action != veil.ReactionActionAdd {
		return nil
	}
	if event.Actor.IsBot {
		return nil
	}
	if event.Reaction.Emoji != m.cfg.MarkerEmoji {
		return nil
	}
	if !m.limiter.allow(event.Conversation.ID, event.Reaction.MessageID, event.Actor.ID) {
		return nil
	}

	sink := sinkFromEvent(event)
	origin := veil.OutboundTarget{Conversation: event.Conversation, Sink: sink}

	record, err := m.reconstruct(ctx, origin, event.Reaction.MessageID)
	if err != nil {
		if !errors.Is(err, ErrSpoilerNotFound) {
			return err
		}

		return nil
	}

	if err := m.deliverReveal(ctx, sink, event.Actor.ID, record); err != nil {
		m.logger.WarnContext(ctx, "spoiler private delivery failed",
			"actor", event.Actor.ID,
			"error", err,
		)
	}

	return nil
}

// deliverReveal sends the rendered record to one actor privately. Archived
// attachments are re-sent by platform reference, never re-downloaded.
func (m *Module) deliverReveal(ctx context.Context, sink *veil.SinkRef, actorID string, record SpoilerRecord) error {
	card, files := renderReveal(record)

	_, err := m.dispatcher.SendDirect(ctx, veil.SendDirectRequest{
		Sink:    sink,
		ActorID: actorID,
		Card:    card,
		Files:   files,
	})

	return err
}

// renderReveal builds the private reveal content: the first attachment rides
// along as the preview, the rest are listed by filename.
func renderReveal(record SpoilerRecord) (*veil.Card, []veil.FileUpload) {
	card := &veil.Card{
		Headline: displayTitle(record),
		Body:     record.Text,
	}

	if len(record.Attachments) > 1 {
		names := make([]string, 0, len(record.Attachments)-1)
		for _, attachment := range record.Attachments[1:] {
			names = append(names, attachment.FileName)
		}
		extra := "Also attached: " + strings.Join(names, ", ")
		if card.Body != "" {
			card.Body += "\n\n"
		}
		card.Body += extra
	}

	var files []veil.FileUpload
	if len(record.Attachments) > 0 {
		primary := record.Attachments[0]
		files = []veil.FileUpload{{
			FileName: primary.FileName,
			Ref:      primary.URI,
		}}
	}

	return card, files
}

func (m *Module) answerControl(ctx context.Context, sink *veil.SinkRef, queryID, text string, alert bool) error {
	if queryID == "" {
		return nil
	}

	return m.dispatcher.AnswerControl(ctx, veil.AnswerControlRequest{
		Sink:      sink,
		QueryID:   queryID,
		Text:      text,
		ShowAlert: alert,
	})
}

func sinkFromEvent(event *veil.Event) *veil.SinkRef {
	platform := event.Source.Platform
	if platform == "" {
		platform = event.Platform
	}
	if platform == "" && event.Source.ID == "" {
		return nil
	}

	return &veil.SinkRef{Platform: platform, ID: event.Source.ID}
}
