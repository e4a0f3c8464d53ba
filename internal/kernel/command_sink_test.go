package kernel

import (
	"context"
	"strings"
	"testing"
	"time"

	"veilbot/pkg/veil"
)

func TestCommandDerivingSinkPublishesSourceAndDerivedCreatedEvent(t *testing.T) {
	t.Parallel()

	bus := NewEventBus(8, 1, time.Second, nil)
	t.Cleanup(func() {
		_ = bus.Close(context.Background())
	})

	received := make(chan *veil.Event, 2)
	_, err := bus.Subscribe(
		context.Background(),
		veil.InterestSet{},
		veil.SubscriptionSpec{Name: "all-events", Buffer: 4, Workers: 1},
		func(_ context.Context, event *veil.Event) error {
			received <- event
			return nil
		},
	)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	sink := &commandDerivingSink{
		base: bus,
		lookupCommand: func(name string) (veil.CommandSpec, bool) {
			if name == "spoiler" {
				return veil.CommandSpec{Name: "spoiler"}, true
			}
			return veil.CommandSpec{}, false
		},
	}

	source := newSourceCreatedEvent("evt-1", "msg-1", "/spoiler launch plans | secret", "")
	if err := sink.Publish(context.Background(), source); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	first := waitEvent(t, received)
	second := waitEvent(t, received)

	if first.Kind != veil.EventKindMessageCreated {
		t.Fatalf("first kind = %s, want %s", first.Kind, veil.EventKindMessageCreated)
	}
	if second.Kind != veil.EventKindCommandReceived {
		t.Fatalf("second kind = %s, want %s", second.Kind, veil.EventKindCommandReceived)
	}
	if second.ID != "evt-1#command" {
		t.Fatalf("derived id = %q, want evt-1#command", second.ID)
	}
	if second.Command == nil {
		t.Fatal("expected command payload")
	}
	if second.Command.Name != "spoiler" {
		t.Fatalf("command name = %q, want spoiler", second.Command.Name)
	}
	if second.Command.Value != "launch plans | secret" {
		t.Fatalf("command value = %q", second.Command.Value)
	}
	if second.Command.SourceEventID != source.ID {
		t.Fatalf("source event id = %q, want %q", second.Command.SourceEventID, source.ID)
	}
}

func TestCommandDerivingSinkPublishesDerivedEditedCommandEvent(t *testing.T) {
	t.Parallel()

	bus := NewEventBus(8, 1, time.Second, nil)
	t.Cleanup(func() {
		_ = bus.Close(context.Background())
	})

	received := make(chan *veil.Event, 1)
	_, err := bus.Subscribe(
		context.Background(),
		veil.InterestSet{Kinds: []veil.EventKind{veil.EventKindCommandReceived}},
		veil.SubscriptionSpec{Name: "command-events", Buffer: 2, Workers: 1},
		func(_ context.Context, event *veil.Event) error {
			received <- event
			return nil
		},
	)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	sink := &commandDerivingSink{
		base: bus,
		lookupCommand: func(name string) (veil.CommandSpec, bool) {
			if name == "help" {
				return veil.CommandSpec{Name: "help"}, true
			}
			return veil.CommandSpec{}, false
		},
	}

	source := newSourceEditedEvent("evt-2", "msg-9", "/help")
	if err := sink.Publish(context.Background(), source); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	commandEvent := waitEvent(t, received)
	if commandEvent.Command == nil {
		t.Fatal("expected command payload")
	}
	if commandEvent.Command.Name != "help" {
		t.Fatalf("command name = %q, want help", commandEvent.Command.Name)
	}
	if commandEvent.Command.SourceEventKind != veil.EventKindMessageEdited {
		t.Fatalf("source event kind = %q, want %q", commandEvent.Command.SourceEventKind, veil.EventKindMessageEdited)
	}
	if commandEvent.Message == nil || commandEvent.Message.ID != "msg-9" {
		t.Fatalf("message = %+v, want id msg-9", commandEvent.Message)
	}
}

func TestCommandDerivingSinkUnregisteredCommandPublishesOnlySourceEvent(t *testing.T) {
	t.Parallel()

	bus := NewEventBus(8, 1, time.Second, nil)
	t.Cleanup(func() {
		_ = bus.Close(context.Background())
	})

	commandEvents := make(chan *veil.Event, 1)
	_, err := bus.Subscribe(
		context.Background(),
		veil.InterestSet{Kinds: []veil.EventKind{veil.EventKindCommandReceived}},
		veil.SubscriptionSpec{Name: "command-events", Buffer: 1, Workers: 1},
		func(_ context.Context, event *veil.Event) error {
			commandEvents <- event
			return nil
		},
	)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	sink := &commandDerivingSink{
		base: bus,
		lookupCommand: func(string) (veil.CommandSpec, bool) {
			return veil.CommandSpec{}, false
		},
	}

	if err := sink.Publish(context.Background(), newSourceCreatedEvent("evt-3", "msg-3", "/unknown", "")); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case event := <-commandEvents:
		t.Fatalf("unexpected command event: %+v", event)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestCommandDerivingSinkIgnoresOrdinaryText(t *testing.T) {
	t.Parallel()

	bus := NewEventBus(8, 1, time.Second, nil)
	t.Cleanup(func() {
		_ = bus.Close(context.Background())
	})

	commandEvents := make(chan *veil.Event, 1)
	_, err := bus.Subscribe(
		context.Background(),
		veil.InterestSet{Kinds: []veil.EventKind{veil.EventKindCommandReceived}},
		veil.SubscriptionSpec{Name: "command-events", Buffer: 1, Workers: 1},
		func(_ context.Context, event *veil.Event) error {
			commandEvents <- event
			return nil
		},
	)
	if err != nil {
		t.Fatalf("subscribe failed: %v", err)
	}

	sink := &commandDerivingSink{
		base: bus,
		lookupCommand: func(string) (veil.CommandSpec, bool) {
			return veil.CommandSpec{Name: "spoiler"}, true
		},
	}

	if err := sink.Publish(context.Background(), newSourceCreatedEvent("evt-5", "msg-5", "just chatting", "")); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	select {
	case event := <-commandEvents:
		t.Fatalf("unexpected command event: %+v", event)
	case <-time.After(300 * time.Millisecond):
	}
}

func TestKernelRegisterModuleRejectsDuplicateCommandAcrossModules(t *testing.T) {
	t.Parallel()

	kernelRuntime := New()
	moduleA := &stubModule{
		name: "command-a",
		spec: veil.ModuleSpec{
			Commands: []veil.CommandSpec{
				{Name: "spoiler"},
			},
		},
	}
	moduleB := &stubModule{
		name: "command-b",
		spec: veil.ModuleSpec{
			Commands: []veil.CommandSpec{
				{Name: "spoiler"},
			},
		},
	}

	if err := kernelRuntime.RegisterModule(context.Background(), moduleA); err != nil {
		t.Fatalf("register module A failed: %v", err)
	}
	err := kernelRuntime.RegisterModule(context.Background(), moduleB)
	if err == nil {
		t.Fatal("expected duplicate command registration to fail")
	}
	if !strings.Contains(err.Error(), "already registered by module") {
		t.Fatalf("error = %v, want duplicate registration error", err)
	}
}

func waitEvent(t *testing.T, events <-chan *veil.Event) *veil.Event {
	t.Helper()

	select {
	case event := <-events:
		return event
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for event")
		return nil
	}
}

func newSourceCreatedEvent(id string, messageID string, text string, replyToID string) *veil.Event {
	return &veil.Event{
		ID:         id,
		Kind:       veil.EventKindMessageCreated,
		OccurredAt: time.Unix(10, 0).UTC(),
		Platform:   veil.PlatformTelegram,
		Conversation: veil.Conversation{
			ID:   "chat-1",
			Type: veil.ConversationTypeGroup,
		},
		Actor: veil.Actor{ID: "actor-1"},
		Message: &veil.Message{
			ID:        messageID,
			ReplyToID: replyToID,
			Text:      text,
		},
	}
}

func newSourceEditedEvent(id string, targetMessageID string, text string) *veil.Event {
	return &veil.Event{
		ID:         id,
		Kind:       veil.EventKindMessageEdited,
		OccurredAt: time.Unix(10, 0).UTC(),
		Platform:   veil.PlatformTelegram,
		Conversation: veil.Conversation{
			ID:   "chat-1",
			Type: veil.ConversationTypeGroup,
		},
		Actor: veil.Actor{ID: "actor-1"},
		Mutation: &veil.Mutation{
			Type:            veil.MutationTypeEdit,
			TargetMessageID: targetMessageID,
			After: &veil.MessageSnapshot{
				Text: text,
			},
		},
	}
}
