// Package spoiler hides message content behind a reveal control.
//
// Published spoilers are archived as structured cards in a dedicated archive
// conversation, replaced in the origin conversation by a hidden front-door
// post, and reconstructed on demand when a viewer presses the reveal control
// or reacts with the marker emoji.
package spoiler
