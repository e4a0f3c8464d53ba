package veil

import "fmt"

// Card is a structured note with fixed semantic slots.
//
// Drivers render cards into whatever their platform supports and parse the same
// layout back when fetching, so a card survives a write/fetch round trip. The
// slot layout is the persisted archive format and must stay backward compatible.
type Card struct {
	// Headline is the short title slot.
	Headline string
	// Body is the optional long-form text slot.
	Body string
	// AttributedTo is the attribution slot. Depending on the producing codec this
	// holds either a display identity or a stringified numeric identifier.
	AttributedTo string
	// Footer is the optional trailing slot, used for stringified pointers and
	// identifiers that must survive reconstruction.
	Footer string
}

// Validate checks the slots required for a renderable card.
func (c *Card) Validate() error {
	if c == nil {
		return fmt.Errorf("%w: nil card", ErrInvalidOutboundRequest)
	}
	if c.Headline == "" {
		return fmt.Errorf("%w: missing card headline", ErrInvalidOutboundRequest)
	}

	return nil
}

// Clone returns an independent copy of the card.
func (c *Card) Clone() *Card {
	if c == nil {
		return nil
	}
	cloned := *c

	return &cloned
}
