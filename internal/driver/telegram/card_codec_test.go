package telegram

import (
	"testing"

	"veilbot/pkg/veil"

	"github.com/google/go-cmp/cmp"
)

func TestCardRenderParseRoundTrip(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		card veil.Card
	}{
		{
			name: "headline and attribution",
			card: veil.Card{
				Headline:     "Launch Plans",
				AttributedTo: "alice",
			},
		},
		{
			name: "all fields",
			card: veil.Card{
				Headline:     "Launch Plans Spoiler",
				Body:         "first line\nsecond line",
				AttributedTo: "alice",
				Footer:       "archived 2026-08-23",
			},
		},
		{
			name: "headline and footer only",
			card: veil.Card{
				Headline: "Quarterly Numbers",
				Footer:   "internal",
			},
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			text, entities, err := renderCard(&testCase.card)
			if err != nil {
				t.Fatalf("render card failed: %v", err)
			}
			if len(entities) != 1 || entities[0].Type != veil.TextEntityTypeBold {
				t.Fatalf("entities = %+v, want single bold headline", entities)
			}

			parsed := parseCardText(text)
			if parsed == nil {
				t.Fatal("expected parsed card")
			}
			if diff := cmp.Diff(&testCase.card, parsed); diff != "" {
				t.Fatalf("card round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRenderCardRejectsMissingHeadline(t *testing.T) {
	t.Parallel()

	if _, _, err := renderCard(&veil.Card{Body: "no headline"}); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestParseCardTextPassesThroughPlainMessages(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
	}{
		{name: "empty", text: ""},
		{name: "single line", text: "just chatting"},
		{name: "multi line without markers", text: "hello\nworld"},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			if card := parseCardText(testCase.text); card != nil {
				t.Fatalf("card = %+v, want nil for plain text", card)
			}
		})
	}
}
