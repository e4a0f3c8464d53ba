package veil

import (
	"testing"
	"time"
)

func TestParseCommandCandidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		text        string
		wantMatched bool
		wantName    string
		wantMention string
		wantValue   string
	}{
		{
			name:        "command with mention and argument text",
			text:        " /Spoiler@MyBot secret title | secret text ",
			wantMatched: true,
			wantName:    "spoiler",
			wantMention: "MyBot",
			wantValue:   "secret title | secret text",
		},
		{
			name:        "bare command",
			text:        "/help",
			wantMatched: true,
			wantName:    "help",
		},
		{
			name:        "argument separated by newline",
			text:        "/spoiler\ntitle here",
			wantMatched: true,
			wantName:    "spoiler",
			wantValue:   "title here",
		},
		{
			name:        "non command text",
			text:        "hello",
			wantMatched: false,
		},
		{
			name:        "missing command name",
			text:        "/",
			wantMatched: false,
		},
		{
			name:        "slash mid-text is not a command",
			text:        "see /etc for details",
			wantMatched: false,
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			candidate, matched := ParseCommandCandidate(testCase.text)
			if matched != testCase.wantMatched {
				t.Fatalf("matched = %v, want %v", matched, testCase.wantMatched)
			}
			if !matched {
				return
			}

			if candidate.Name != testCase.wantName {
				t.Fatalf("name = %q, want %q", candidate.Name, testCase.wantName)
			}
			if candidate.Mention != testCase.wantMention {
				t.Fatalf("mention = %q, want %q", candidate.Mention, testCase.wantMention)
			}
			if candidate.Value != testCase.wantValue {
				t.Fatalf("value = %q, want %q", candidate.Value, testCase.wantValue)
			}
			if candidate.RawInput != testCase.text {
				t.Fatalf("raw input = %q, want %q", candidate.RawInput, testCase.text)
			}
		})
	}
}

func TestBindCommand(t *testing.T) {
	t.Parallel()

	candidate, matched := ParseCommandCandidate("/spoiler title | text")
	if !matched {
		t.Fatal("expected command candidate match")
	}

	invocation := BindCommand(candidate, "evt-source", EventKindMessageCreated)
	if invocation.Name != "spoiler" {
		t.Fatalf("name = %q, want spoiler", invocation.Name)
	}
	if invocation.Value != "title | text" {
		t.Fatalf("value = %q, want %q", invocation.Value, "title | text")
	}
	if invocation.SourceEventID != "evt-source" {
		t.Fatalf("source event id = %q, want evt-source", invocation.SourceEventID)
	}
	if invocation.SourceEventKind != EventKindMessageCreated {
		t.Fatalf("source event kind = %q, want %q", invocation.SourceEventKind, EventKindMessageCreated)
	}
	if invocation.RawInput != "/spoiler title | text" {
		t.Fatalf("raw input = %q", invocation.RawInput)
	}
}

func TestCommandSpecValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		spec    CommandSpec
		wantErr bool
	}{
		{
			name: "valid spec",
			spec: CommandSpec{Name: "spoiler", Description: "hide content"},
		},
		{
			name:    "missing name",
			spec:    CommandSpec{Description: "x"},
			wantErr: true,
		},
		{
			name:    "slash prefix rejected",
			spec:    CommandSpec{Name: "/spoiler"},
			wantErr: true,
		},
		{
			name:    "whitespace rejected",
			spec:    CommandSpec{Name: "spoiler now"},
			wantErr: true,
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			err := testCase.spec.Validate()
			if (err != nil) != testCase.wantErr {
				t.Fatalf("validate error = %v, want error %v", err, testCase.wantErr)
			}
		})
	}
}

func TestCommandReceivedEventValidate(t *testing.T) {
	t.Parallel()

	base := &Event{
		ID:         "evt-command",
		Kind:       EventKindCommandReceived,
		OccurredAt: time.Unix(10, 0).UTC(),
		Platform:   PlatformTelegram,
		Conversation: Conversation{
			ID:   "chat-1",
			Type: ConversationTypeGroup,
		},
		Actor: Actor{ID: "actor-1"},
		Message: &Message{
			ID:   "msg-1",
			Text: "/spoiler",
		},
		Command: &CommandInvocation{
			Name:            "spoiler",
			SourceEventID:   "evt-source",
			SourceEventKind: EventKindMessageCreated,
			RawInput:        "/spoiler",
		},
	}

	if err := base.Validate(); err != nil {
		t.Fatalf("validate command event failed: %v", err)
	}

	invalid := *base
	invalid.Command = nil
	if err := invalid.Validate(); err == nil {
		t.Fatal("expected invalid command event to fail validation")
	}
}
