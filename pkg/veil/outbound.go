package veil

import (
	"context"
	"fmt"
)

// ServiceOutboundDispatcher is the canonical service registry key for outbound messaging.
const ServiceOutboundDispatcher = "veil.outbound_dispatcher"

// ServiceSinkCatalog is the canonical service registry key for sink lookup.
const ServiceSinkCatalog = "veil.sink_catalog"

// SinkRef identifies one configured outbound sink adapter.
type SinkRef struct {
	// Platform identifies the destination platform.
	Platform Platform
	// ID is the configured sink instance name.
	ID string
}

// OutboundDispatcher sends neutral outbound operations to sink adapters.
//
// Implementations enforce platform-specific constraints while preserving these
// protocol-level request semantics. Every operation that touches the network is
// a suspension point; callers must not hold in-process locks across a call.
type OutboundDispatcher interface {
	// SendMessage publishes a new outbound message to a destination conversation.
	SendMessage(ctx context.Context, request SendMessageRequest) (*OutboundMessage, error)
	// DeleteMessage removes an existing message by ID.
	DeleteMessage(ctx context.Context, request DeleteMessageRequest) error
	// FetchMessage retrieves an existing message by ID, including its media list
	// and parsed card when the message renders one.
	FetchMessage(ctx context.Context, request FetchMessageRequest) (*Message, error)
	// SendDirect delivers a private message to one actor outside any shared
	// conversation.
	SendDirect(ctx context.Context, request SendDirectRequest) (*OutboundMessage, error)
	// AnswerControl acknowledges an interactive control press, optionally with a
	// short private notice to the presser.
	AnswerControl(ctx context.Context, request AnswerControlRequest) error
}

// SinkCatalog lists active sink identities for dynamic module selection.
type SinkCatalog interface {
	// ListSinks returns all active sink identities.
	ListSinks(ctx context.Context) ([]SinkRef, error)
	// ListSinksByPlatform returns active sink identities for one platform.
	ListSinksByPlatform(ctx context.Context, platform Platform) ([]SinkRef, error)
}

// OutboundTarget identifies where an outbound operation should be delivered.
type OutboundTarget struct {
	// Conversation identifies the destination conversation.
	Conversation Conversation
	// Sink optionally overrides runtime-configured sink routing for this operation.
	Sink *SinkRef
}

// Validate checks target identity fields used for outbound routing.
func (t OutboundTarget) Validate() error {
	if t.Conversation.ID == "" {
		return fmt.Errorf("%w: missing conversation id", ErrInvalidOutboundRequest)
	}
	if t.Conversation.Type == "" {
		return fmt.Errorf("%w: missing conversation type", ErrInvalidOutboundRequest)
	}
	if t.Sink != nil {
		if t.Sink.Platform == "" && t.Sink.ID == "" {
			return fmt.Errorf("%w: missing sink identity", ErrInvalidOutboundRequest)
		}
	}

	return nil
}

// OutboundTargetFromEvent derives a destination target from an inbound event.
func OutboundTargetFromEvent(event *Event) (OutboundTarget, error) {
	if event == nil {
		return OutboundTarget{}, fmt.Errorf("%w: nil event", ErrInvalidOutboundRequest)
	}
	sourcePlatform := event.Source.Platform
	if sourcePlatform == "" {
		sourcePlatform = event.Platform
	}
	target := OutboundTarget{
		Conversation: event.Conversation,
	}
	if sourcePlatform != "" || event.Source.ID != "" {
		target.Sink = &SinkRef{
			Platform: sourcePlatform,
			ID:       event.Source.ID,
		}
	}
	if err := target.Validate(); err != nil {
		return OutboundTarget{}, fmt.Errorf("derive target from event %s: %w", event.Kind, err)
	}

	return target, nil
}

// OutboundMessage identifies a message successfully emitted by the dispatcher.
type OutboundMessage struct {
	// ID is the destination-platform message identifier.
	ID string
	// Target is the destination where this message was delivered.
	Target OutboundTarget
}

// FileUpload describes one attachment to transfer with an outbound message.
//
// Exactly one content source is used: Bytes uploads raw content, Ref re-sends
// an existing platform document by its attachment URI without re-transfer.
type FileUpload struct {
	// FileName is the attachment filename presented to recipients.
	FileName string
	// MIMEType is the attachment content type when known.
	MIMEType string
	// Bytes is raw file content to upload.
	Bytes []byte
	// Ref is a platform attachment URI to re-send by reference.
	Ref string
}

// Validate checks upload content coherence.
func (f FileUpload) Validate() error {
	if f.FileName == "" && f.Ref == "" {
		return fmt.Errorf("%w: missing file name", ErrInvalidOutboundRequest)
	}
	if len(f.Bytes) == 0 && f.Ref == "" {
		return fmt.Errorf("%w: file %s has no content source", ErrInvalidOutboundRequest, f.FileName)
	}
	if len(f.Bytes) > 0 && f.Ref != "" {
		return fmt.Errorf("%w: file %s declares both bytes and ref", ErrInvalidOutboundRequest, f.FileName)
	}

	return nil
}

// ControlSpec declares one persistent interactive control attached to a message.
type ControlSpec struct {
	// ID is the stable control identifier echoed back on press events. It must
	// not depend on process state so controls keep working across restarts.
	ID string
	// Label is the control caption presented to viewers.
	Label string
}

// Validate checks control declaration fields.
func (c ControlSpec) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("%w: missing control id", ErrInvalidOutboundRequest)
	}
	if c.Label == "" {
		return fmt.Errorf("%w: missing control label", ErrInvalidOutboundRequest)
	}

	return nil
}

// SendMessageRequest describes a new outbound message.
//
// Content is either plain Text (optionally decorated with Entities) or a Card
// rendered by the destination driver. Files ride along as platform attachments.
type SendMessageRequest struct {
	// Target identifies where the message should be sent.
	Target OutboundTarget
	// Text is the plain message body when no card is used.
	Text string
	// Entities decorates Text with semantic formatting ranges.
	Entities []TextEntity
	// Card is the structured-note payload rendered by the driver.
	Card *Card
	// Files lists attachments to transfer with the message.
	Files []FileUpload
	// Control optionally attaches one persistent interactive control.
	Control *ControlSpec
	// ReplyToMessageID optionally links this message as a reply.
	ReplyToMessageID string
	// DisableLinkPreview disables link previews when supported by the platform.
	DisableLinkPreview bool
	// Silent suppresses destination-side notifications when supported.
	Silent bool
}

// Validate checks the request envelope before dispatch.
func (r SendMessageRequest) Validate() error {
	if err := r.Target.Validate(); err != nil {
		return fmt.Errorf("validate send message target: %w", err)
	}
	if r.Text == "" && r.Card == nil && len(r.Files) == 0 {
		return fmt.Errorf("%w: missing message content", ErrInvalidOutboundRequest)
	}
	if r.Text != "" && r.Card != nil {
		return fmt.Errorf("%w: text and card are mutually exclusive", ErrInvalidOutboundRequest)
	}
	if r.Card != nil {
		if err := r.Card.Validate(); err != nil {
			return fmt.Errorf("validate send message card: %w", err)
		}
	}
	if err := ValidateTextEntities(r.Text, r.Entities); err != nil {
		return fmt.Errorf("%w: validate send message entities: %w", ErrInvalidOutboundRequest, err)
	}
	for index, file := range r.Files {
		if err := file.Validate(); err != nil {
			return fmt.Errorf("validate send message file[%d]: %w", index, err)
		}
	}
	if r.Control != nil {
		if err := r.Control.Validate(); err != nil {
			return fmt.Errorf("validate send message control: %w", err)
		}
	}

	return nil
}

// DeleteMessageRequest describes message deletion behavior.
type DeleteMessageRequest struct {
	// Target identifies where the message exists.
	Target OutboundTarget
	// MessageID identifies which message should be deleted.
	MessageID string
	// Revoke requests deletion for all participants when supported.
	Revoke bool
}

// Validate checks the request envelope before dispatch.
func (r DeleteMessageRequest) Validate() error {
	if err := r.Target.Validate(); err != nil {
		return fmt.Errorf("validate delete message target: %w", err)
	}
	if r.MessageID == "" {
		return fmt.Errorf("%w: missing message id", ErrInvalidOutboundRequest)
	}

	return nil
}

// FetchMessageRequest describes a read of one existing message by ID.
type FetchMessageRequest struct {
	// Target identifies where the message exists.
	Target OutboundTarget
	// MessageID identifies which message should be fetched.
	MessageID string
}

// Validate checks the request envelope before dispatch.
func (r FetchMessageRequest) Validate() error {
	if err := r.Target.Validate(); err != nil {
		return fmt.Errorf("validate fetch message target: %w", err)
	}
	if r.MessageID == "" {
		return fmt.Errorf("%w: missing message id", ErrInvalidOutboundRequest)
	}

	return nil
}

// SendDirectRequest describes a private delivery to one actor.
type SendDirectRequest struct {
	// Sink optionally overrides runtime-configured sink routing for this operation.
	Sink *SinkRef
	// ActorID identifies the recipient on the destination platform.
	ActorID string
	// Text is the plain message body when no card is used.
	Text string
	// Entities decorates Text with semantic formatting ranges.
	Entities []TextEntity
	// Card is the structured-note payload rendered by the driver.
	Card *Card
	// Files lists attachments to transfer with the message.
	Files []FileUpload
	// Silent suppresses destination-side notifications when supported.
	Silent bool
}

// Validate checks the request envelope before dispatch.
func (r SendDirectRequest) Validate() error {
	if r.ActorID == "" {
		return fmt.Errorf("%w: missing actor id", ErrInvalidOutboundRequest)
	}
	if r.Sink != nil && r.Sink.Platform == "" && r.Sink.ID == "" {
		return fmt.Errorf("%w: missing sink identity", ErrInvalidOutboundRequest)
	}
	if r.Text == "" && r.Card == nil && len(r.Files) == 0 {
		return fmt.Errorf("%w: missing message content", ErrInvalidOutboundRequest)
	}
	if r.Text != "" && r.Card != nil {
		return fmt.Errorf("%w: text and card are mutually exclusive", ErrInvalidOutboundRequest)
	}
	if r.Card != nil {
		if err := r.Card.Validate(); err != nil {
			return fmt.Errorf("validate send direct card: %w", err)
		}
	}
	if err := ValidateTextEntities(r.Text, r.Entities); err != nil {
		return fmt.Errorf("%w: validate send direct entities: %w", ErrInvalidOutboundRequest, err)
	}
	for index, file := range r.Files {
		if err := file.Validate(); err != nil {
			return fmt.Errorf("validate send direct file[%d]: %w", index, err)
		}
	}

	return nil
}

// AnswerControlRequest describes acknowledging one interactive control press.
type AnswerControlRequest struct {
	// Sink optionally overrides runtime-configured sink routing for this operation.
	Sink *SinkRef
	// QueryID is the platform press token from the triggering control event.
	QueryID string
	// Text is an optional short private notice shown to the presser.
	Text string
	// ShowAlert requests a modal presentation for Text when supported.
	ShowAlert bool
}

// Validate checks the request envelope before dispatch.
func (r AnswerControlRequest) Validate() error {
	if r.QueryID == "" {
		return fmt.Errorf("%w: missing control query id", ErrInvalidOutboundRequest)
	}
	if r.Sink != nil && r.Sink.Platform == "" && r.Sink.ID == "" {
		return fmt.Errorf("%w: missing sink identity", ErrInvalidOutboundRequest)
	}

	return nil
}
