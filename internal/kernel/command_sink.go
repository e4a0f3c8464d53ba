package kernel

import (
	"context"
	"fmt"
	"strings"

	"veilbot/pkg/veil"
)

type commandRegistration struct {
	moduleName string
	spec       veil.CommandSpec
}

// registerModuleCommands validates and registers module-owned command specs.
func (k *Kernel) registerModuleCommands(
	_ context.Context,
	moduleName string,
	commands []veil.CommandSpec,
) error {
	if len(commands) == 0 {
		return nil
	}

	normalized := make([]veil.CommandSpec, 0, len(commands))
	seenInModule := make(map[string]struct{}, len(commands))
	for index, command := range commands {
		if err := command.Validate(); err != nil {
			return fmt.Errorf("register command[%d] for module %s: %w", index, moduleName, err)
		}

		command.Name = commandRegistryKey(command.Name)
		if _, exists := seenInModule[command.Name]; exists {
			return fmt.Errorf("register command /%s for module %s: duplicate declaration", command.Name, moduleName)
		}
		seenInModule[command.Name] = struct{}{}
		normalized = append(normalized, command)
	}

	k.mu.Lock()
	defer k.mu.Unlock()
	for _, command := range normalized {
		existing, exists := k.commands[command.Name]
		if exists {
			return fmt.Errorf(
				"register command /%s for module %s: already registered by module %s",
				command.Name,
				moduleName,
				existing.moduleName,
			)
		}
	}
	for _, command := range normalized {
		k.commands[command.Name] = commandRegistration{
			moduleName: moduleName,
			spec:       command,
		}
	}

	return nil
}

// unregisterModuleCommands removes every command owned by one module.
func (k *Kernel) unregisterModuleCommands(moduleName string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	for key, registration := range k.commands {
		if registration.moduleName == moduleName {
			delete(k.commands, key)
		}
	}
}

// lookupCommand resolves one command spec by normalized name.
func (k *Kernel) lookupCommand(name string) (veil.CommandSpec, bool) {
	key := commandRegistryKey(name)

	k.mu.RLock()
	registration, exists := k.commands[key]
	k.mu.RUnlock()
	if !exists {
		return veil.CommandSpec{}, false
	}

	return registration.spec, true
}

// newDriverEventSink creates the source-event sink wrapped with command derivation.
func (k *Kernel) newDriverEventSink() veil.EventSink {
	return &commandDerivingSink{
		base:          k.bus,
		lookupCommand: k.lookupCommand,
	}
}

// commandDerivingSink publishes source events and derives command events.
//
// Derivation happens at the driver boundary so every module observes the same
// command.received stream regardless of which driver produced the message.
type commandDerivingSink struct {
	base          veil.EventSink
	lookupCommand func(name string) (veil.CommandSpec, bool)
}

// Publish forwards one source event and conditionally derives one command event.
func (s *commandDerivingSink) Publish(ctx context.Context, event *veil.Event) error {
	if event == nil {
		return fmt.Errorf("publish command deriving sink: nil event")
	}
	if s.base == nil {
		return fmt.Errorf("publish command deriving sink: nil base sink")
	}

	if err := s.base.Publish(ctx, event); err != nil {
		return fmt.Errorf("publish source event %s: %w", event.Kind, err)
	}

	if !isCommandDerivableEventKind(event.Kind) {
		return nil
	}

	commandText, commandMessage, ok := commandContextFromEvent(event)
	if !ok {
		return nil
	}
	candidate, matched := veil.ParseCommandCandidate(commandText)
	if !matched {
		return nil
	}

	if _, registered := s.lookupCommand(candidate.Name); !registered {
		return nil
	}

	invocation := veil.BindCommand(candidate, event.ID, event.Kind)
	commandEvent := derivedCommandEvent(event, commandMessage, invocation)
	if err := s.base.Publish(ctx, commandEvent); err != nil {
		return fmt.Errorf("publish derived command %s: %w", invocation.Name, err)
	}

	return nil
}

func isCommandDerivableEventKind(kind veil.EventKind) bool {
	return kind == veil.EventKindMessageCreated || kind == veil.EventKindMessageEdited
}

func commandContextFromEvent(event *veil.Event) (text string, message veil.Message, ok bool) {
	if event == nil {
		return "", veil.Message{}, false
	}

	switch event.Kind {
	case veil.EventKindMessageCreated:
		if event.Message == nil {
			return "", veil.Message{}, false
		}
		return event.Message.Text, cloneMessage(*event.Message), true
	case veil.EventKindMessageEdited:
		if event.Mutation == nil || event.Mutation.After == nil || event.Mutation.TargetMessageID == "" {
			return "", veil.Message{}, false
		}
		return event.Mutation.After.Text, veil.Message{
			ID:       event.Mutation.TargetMessageID,
			Text:     event.Mutation.After.Text,
			Entities: append([]veil.TextEntity(nil), event.Mutation.After.Entities...),
			Media:    cloneMedia(event.Mutation.After.Media),
		}, true
	default:
		return "", veil.Message{}, false
	}
}

func derivedCommandEvent(
	sourceEvent *veil.Event,
	message veil.Message,
	invocation *veil.CommandInvocation,
) *veil.Event {
	return &veil.Event{
		ID:         sourceEvent.ID + "#command",
		Kind:       veil.EventKindCommandReceived,
		OccurredAt: sourceEvent.OccurredAt,
		Platform:   sourceEvent.Platform,
		Source:     sourceEvent.Source,
		Conversation: veil.Conversation{
			ID:    sourceEvent.Conversation.ID,
			Type:  sourceEvent.Conversation.Type,
			Title: sourceEvent.Conversation.Title,
		},
		Actor: veil.Actor{
			ID:          sourceEvent.Actor.ID,
			Username:    sourceEvent.Actor.Username,
			DisplayName: sourceEvent.Actor.DisplayName,
			IsBot:       sourceEvent.Actor.IsBot,
		},
		Message:  &message,
		Command:  invocation,
		Metadata: cloneStringMap(sourceEvent.Metadata),
	}
}

func commandRegistryKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func cloneMessage(message veil.Message) veil.Message {
	cloned := message
	if len(message.Entities) > 0 {
		cloned.Entities = append([]veil.TextEntity(nil), message.Entities...)
	}
	if len(message.Media) > 0 {
		cloned.Media = cloneMedia(message.Media)
	}
	if message.Card != nil {
		cloned.Card = message.Card.Clone()
	}

	return cloned
}

func cloneMedia(media []veil.MediaAttachment) []veil.MediaAttachment {
	if len(media) == 0 {
		return nil
	}

	cloned := make([]veil.MediaAttachment, 0, len(media))
	for _, item := range media {
		copyItem := item
		if item.Preview != nil {
			preview := *item.Preview
			if len(item.Preview.Bytes) > 0 {
				preview.Bytes = append([]byte(nil), item.Preview.Bytes...)
			}
			copyItem.Preview = &preview
		}
		cloned = append(cloned, copyItem)
	}

	return cloned
}

func cloneStringMap(metadata map[string]string) map[string]string {
	if len(metadata) == 0 {
		return nil
	}

	cloned := make(map[string]string, len(metadata))
	for key, value := range metadata {
		cloned[key] = value
	}

	return cloned
}
