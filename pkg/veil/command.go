package veil

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// CommandSpec declares one slash command owned by a module.
type CommandSpec struct {
	// Name is the command name without the leading slash.
	Name string
	// Description is the short help text shown in command listings.
	Description string
}

// Validate checks command declaration fields.
func (s CommandSpec) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: missing command name", ErrInvalidEvent)
	}
	if strings.HasPrefix(s.Name, "/") {
		return fmt.Errorf("%w: command name %q must not include slash prefix", ErrInvalidEvent, s.Name)
	}
	if strings.ContainsAny(s.Name, " \t\n") {
		return fmt.Errorf("%w: command name %q contains whitespace", ErrInvalidEvent, s.Name)
	}

	return nil
}

// CommandInvocation is the bound command payload carried by command.received
// events.
type CommandInvocation struct {
	// Name is the normalized command name without the leading slash.
	Name string
	// Mention is the bot mention suffix when the command was addressed explicitly.
	Mention string
	// Value is the trimmed free-form argument text after the command token.
	Value string
	// SourceEventID identifies the message event the command was derived from.
	SourceEventID string
	// SourceEventKind identifies the kind of the source message event.
	SourceEventKind EventKind
	// RawInput is the original message text the command was parsed from.
	RawInput string
}

// CommandCandidate is an unvalidated parse result before catalog lookup.
type CommandCandidate struct {
	// Name is the lowercased command name without the leading slash.
	Name string
	// Mention is the @mention suffix attached to the command token, if any.
	Mention string
	// Value is the trimmed argument text after the command token.
	Value string
	// RawInput is the original text the candidate was parsed from.
	RawInput string
}

// ParseCommandCandidate extracts a slash-command candidate from message text.
//
// The second return reports whether text looks like a command at all; a false
// result means the text is ordinary message content.
func ParseCommandCandidate(text string) (CommandCandidate, bool) {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "/") {
		return CommandCandidate{}, false
	}

	token := trimmed
	value := ""
	if cut := strings.IndexFunc(trimmed, isCommandSpace); cut >= 0 {
		token = trimmed[:cut]
		value = strings.TrimSpace(trimmed[cut:])
	}

	name := strings.TrimPrefix(token, "/")
	mention := ""
	if at := strings.IndexByte(name, '@'); at >= 0 {
		mention = name[at+1:]
		name = name[:at]
	}
	if name == "" || utf8.RuneCountInString(name) > 64 {
		return CommandCandidate{}, false
	}

	return CommandCandidate{
		Name:     strings.ToLower(name),
		Mention:  mention,
		Value:    value,
		RawInput: text,
	}, true
}

// BindCommand converts a parsed candidate into the invocation payload attached
// to the derived command event.
func BindCommand(candidate CommandCandidate, sourceEventID string, sourceKind EventKind) *CommandInvocation {
	return &CommandInvocation{
		Name:            candidate.Name,
		Mention:         candidate.Mention,
		Value:           candidate.Value,
		SourceEventID:   sourceEventID,
		SourceEventKind: sourceKind,
		RawInput:        candidate.RawInput,
	}
}

func isCommandSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
