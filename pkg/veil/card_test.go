package veil

import "testing"

func TestCardValidate(t *testing.T) {
	t.Parallel()

	valid := &Card{
		Headline:     "Launch Plans Spoiler",
		Body:         "hidden text",
		AttributedTo: "12345",
		Footer:       "67890",
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("validate failed: %v", err)
	}

	missingHeadline := &Card{Body: "body"}
	if err := missingHeadline.Validate(); err == nil {
		t.Fatal("expected error for missing headline")
	}

	var nilCard *Card
	if err := nilCard.Validate(); err == nil {
		t.Fatal("expected error for nil card")
	}
}

func TestCardClone(t *testing.T) {
	t.Parallel()

	original := &Card{Headline: "h", Body: "b", AttributedTo: "a", Footer: "f"}
	cloned := original.Clone()
	if cloned == original {
		t.Fatal("clone returned same pointer")
	}
	cloned.Body = "changed"
	if original.Body != "b" {
		t.Fatal("clone mutation leaked into original")
	}

	var nilCard *Card
	if nilCard.Clone() != nil {
		t.Fatal("nil clone should be nil")
	}
}
