package veil

// Capability declares one unit of module processing intent.
//
// The kernel uses declared capabilities to validate subscriptions: a module may
// only subscribe within the interest envelope its capabilities declare.
type Capability struct {
	// Name is a stable capability identifier, unique within a module.
	Name string
	// Description is a short human-readable summary.
	Description string
	// Interest bounds which events this capability may consume.
	Interest InterestSet
	// RequiredServices lists service registry names this capability depends on.
	// Registration fails when a required service is missing.
	RequiredServices []string
}

// InterestSet filters events by envelope and payload properties.
//
// Empty slice fields match everything; boolean requirements are additive.
type InterestSet struct {
	// Kinds restricts matching to the listed event kinds.
	Kinds []EventKind
	// MediaTypes requires message payloads carrying at least one listed media type.
	MediaTypes []MediaType
	// Sources restricts matching to events from the listed driver instances.
	Sources []EventSource
	// CommandNames restricts command events to the listed command names.
	CommandNames []string
	// RequireCommand requires a derived command payload.
	RequireCommand bool
	// RequireMutation requires an edit/retraction payload.
	RequireMutation bool
	// RequireReaction requires a reaction payload.
	RequireReaction bool
	// RequireControl requires an interactive control press payload.
	RequireControl bool
}

// Matches reports whether an event satisfies every constraint in the set.
func (s InterestSet) Matches(event *Event) bool {
	if event == nil {
		return false
	}
	if len(s.Kinds) > 0 && !containsEventKind(s.Kinds, event.Kind) {
		return false
	}
	if len(s.Sources) > 0 && !containsEventSource(s.Sources, event.Source) {
		return false
	}
	if len(s.MediaTypes) > 0 {
		if event.Message == nil || !messageCarriesMediaType(event.Message, s.MediaTypes) {
			return false
		}
	}
	if s.RequireCommand && event.Command == nil {
		return false
	}
	if len(s.CommandNames) > 0 {
		if event.Command == nil || !containsString(s.CommandNames, event.Command.Name) {
			return false
		}
	}
	if s.RequireMutation && event.Mutation == nil {
		return false
	}
	if s.RequireReaction && event.Reaction == nil {
		return false
	}
	if s.RequireControl && event.Control == nil {
		return false
	}

	return true
}

// Allows reports whether a requested subscription interest stays inside this
// declared interest envelope. Requested constraints must be at least as narrow
// as the declared ones.
func (s InterestSet) Allows(requested InterestSet) bool {
	if len(s.Kinds) > 0 && !isEventKindSubset(requested.Kinds, s.Kinds) {
		return false
	}
	if len(s.Sources) > 0 && !isEventSourceSubset(requested.Sources, s.Sources) {
		return false
	}
	if len(s.MediaTypes) > 0 && !isMediaTypeSubset(requested.MediaTypes, s.MediaTypes) {
		return false
	}
	if len(s.CommandNames) > 0 && !isStringSubset(requested.CommandNames, s.CommandNames) {
		return false
	}
	if s.RequireCommand && !requested.RequireCommand {
		return false
	}
	if s.RequireMutation && !requested.RequireMutation {
		return false
	}
	if s.RequireReaction && !requested.RequireReaction {
		return false
	}
	if s.RequireControl && !requested.RequireControl {
		return false
	}

	return true
}

func containsEventKind(kinds []EventKind, kind EventKind) bool {
	for _, candidate := range kinds {
		if candidate == kind {
			return true
		}
	}

	return false
}

func containsEventSource(sources []EventSource, source EventSource) bool {
	for _, candidate := range sources {
		if candidate.Platform != "" && candidate.Platform != source.Platform {
			continue
		}
		if candidate.ID != "" && candidate.ID != source.ID {
			continue
		}

		return true
	}

	return false
}

func containsString(values []string, value string) bool {
	for _, candidate := range values {
		if candidate == value {
			return true
		}
	}

	return false
}

func messageCarriesMediaType(message *Message, types []MediaType) bool {
	for _, attachment := range message.Media {
		for _, mediaType := range types {
			if attachment.Type == mediaType {
				return true
			}
		}
	}

	return false
}

func isEventKindSubset(requested, declared []EventKind) bool {
	if len(requested) == 0 {
		return false
	}
	for _, kind := range requested {
		if !containsEventKind(declared, kind) {
			return false
		}
	}

	return true
}

func isEventSourceSubset(requested, declared []EventSource) bool {
	if len(requested) == 0 {
		return false
	}
	for _, source := range requested {
		if !containsEventSource(declared, source) {
			return false
		}
	}

	return true
}

func isMediaTypeSubset(requested, declared []MediaType) bool {
	if len(requested) == 0 {
		return false
	}
	for _, mediaType := range requested {
		found := false
		for _, candidate := range declared {
			if candidate == mediaType {
				found = true

				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

func isStringSubset(requested, declared []string) bool {
	if len(requested) == 0 {
		return false
	}
	for _, value := range requested {
		if !containsString(declared, value) {
			return false
		}
	}

	return true
}
