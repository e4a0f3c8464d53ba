package veil

import (
	"errors"
	"testing"
	"time"
)

func validMessageEvent() *Event {
	return &Event{
		ID:         "evt-1",
		Kind:       EventKindMessageCreated,
		OccurredAt: time.Unix(10, 0).UTC(),
		Platform:   PlatformTelegram,
		Source:     EventSource{Platform: PlatformTelegram, ID: "tg-main"},
		Conversation: Conversation{
			ID:   "chat-1",
			Type: ConversationTypeGroup,
		},
		Actor: Actor{ID: "actor-1", DisplayName: "Alice"},
		Message: &Message{
			ID:   "msg-1",
			Text: "hello",
		},
	}
}

func TestEventValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(event *Event)
		wantErr bool
	}{
		{
			name:   "valid message event",
			mutate: func(event *Event) {},
		},
		{
			name:    "missing id",
			mutate:  func(event *Event) { event.ID = "" },
			wantErr: true,
		},
		{
			name:    "missing kind",
			mutate:  func(event *Event) { event.Kind = "" },
			wantErr: true,
		},
		{
			name:    "missing occurred at",
			mutate:  func(event *Event) { event.OccurredAt = time.Time{} },
			wantErr: true,
		},
		{
			name:    "missing conversation id",
			mutate:  func(event *Event) { event.Conversation.ID = "" },
			wantErr: true,
		},
		{
			name:    "message event without message payload",
			mutate:  func(event *Event) { event.Message = nil },
			wantErr: true,
		},
		{
			name: "edit event without mutation payload",
			mutate: func(event *Event) {
				event.Kind = EventKindMessageEdited
				event.Mutation = nil
			},
			wantErr: true,
		},
		{
			name: "reaction event with payload",
			mutate: func(event *Event) {
				event.Kind = EventKindReactionAdded
				event.Message = nil
				event.Reaction = &Reaction{MessageID: "msg-1", Emoji: "🙈", Action: ReactionActionAdd}
			},
		},
		{
			name: "control event without control id",
			mutate: func(event *Event) {
				event.Kind = EventKindControlPressed
				event.Message = nil
				event.Control = &ControlPress{MessageID: "msg-1", QueryID: "q-1"}
			},
			wantErr: true,
		},
		{
			name: "control event with control id",
			mutate: func(event *Event) {
				event.Kind = EventKindControlPressed
				event.Message = nil
				event.Control = &ControlPress{MessageID: "msg-1", ControlID: "spoiler:reveal", QueryID: "q-1"}
			},
		},
		{
			name: "unsupported kind",
			mutate: func(event *Event) {
				event.Kind = "member.joined"
			},
			wantErr: true,
		},
	}

	for _, testCase := range tests {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			event := validMessageEvent()
			testCase.mutate(event)

			err := event.Validate()
			if (err != nil) != testCase.wantErr {
				t.Fatalf("validate error = %v, want error %v", err, testCase.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidEvent) {
				t.Fatalf("error %v does not wrap ErrInvalidEvent", err)
			}
		})
	}
}

func TestEventValidateNil(t *testing.T) {
	t.Parallel()

	var event *Event
	if err := event.Validate(); !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("nil event validate = %v, want ErrInvalidEvent", err)
	}
}
