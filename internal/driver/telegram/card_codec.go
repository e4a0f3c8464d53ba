package telegram

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"veilbot/pkg/veil"
)

const (
	cardAttributionMarker = "— "
	cardFooterMarker      = "· "
)

// renderCard flattens a card into Telegram message text plus styling entities.
//
// The produced layout is parsed back by parseCardText, so both sides must stay
// in lockstep: headline, optional body, then marker-prefixed attribution and
// footer lines separated by blank lines.
func renderCard(card *veil.Card) (string, []veil.TextEntity, error) {
	if err := card.Validate(); err != nil {
		return "", nil, fmt.Errorf("render card: %w", err)
	}

	var builder strings.Builder
	builder.WriteString(card.Headline)
	if card.Body != "" {
		builder.WriteString("\n\n")
		builder.WriteString(card.Body)
	}
	if card.AttributedTo != "" {
		builder.WriteString("\n\n")
		builder.WriteString(cardAttributionMarker)
		builder.WriteString(card.AttributedTo)
	}
	if card.Footer != "" {
		builder.WriteString("\n")
		builder.WriteString(cardFooterMarker)
		builder.WriteString(card.Footer)
	}

	entities := []veil.TextEntity{
		{
			Type:   veil.TextEntityTypeBold,
			Offset: 0,
			Length: utf8.RuneCountInString(card.Headline),
		},
	}

	return builder.String(), entities, nil
}

// parseCardText reconstructs a card from rendered layout text.
//
// Returns nil when the text does not match the rendered card shape; plain
// messages are passed through untouched.
func parseCardText(text string) *veil.Card {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	lines := strings.Split(trimmed, "\n")
	card := &veil.Card{}
	bodyLines := make([]string, 0, len(lines))
	for index, line := range lines {
		switch {
		case index == 0:
			card.Headline = line
		case strings.HasPrefix(line, cardAttributionMarker) && card.AttributedTo == "":
			card.AttributedTo = strings.TrimPrefix(line, cardAttributionMarker)
		case strings.HasPrefix(line, cardFooterMarker) && card.Footer == "":
			card.Footer = strings.TrimPrefix(line, cardFooterMarker)
		default:
			bodyLines = append(bodyLines, line)
		}
	}
	card.Body = strings.TrimSpace(strings.Join(bodyLines, "\n"))

	if card.Headline == "" {
		return nil
	}
	// A card round trip always carries attribution or footer; anything else is
	// an ordinary message.
	if card.AttributedTo == "" && card.Footer == "" {
		return nil
	}

	return card
}
