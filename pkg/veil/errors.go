package veil

import "errors"

var (
	// ErrInvalidEvent indicates that an event does not satisfy protocol invariants.
	ErrInvalidEvent = errors.New("veil: invalid event")
	// ErrInvalidOutboundRequest indicates that an outbound request fails validation.
	ErrInvalidOutboundRequest = errors.New("veil: invalid outbound request")
	// ErrInvalidSubscription indicates that a subscription configuration is invalid.
	ErrInvalidSubscription = errors.New("veil: invalid subscription")
	// ErrSubscriptionClosed indicates that a subscription is no longer active.
	ErrSubscriptionClosed = errors.New("veil: subscription closed")
	// ErrEventDropped indicates a non-blocking backpressure drop.
	ErrEventDropped = errors.New("veil: event dropped due to backpressure")
	// ErrServiceAlreadyRegistered indicates duplicate service registration.
	ErrServiceAlreadyRegistered = errors.New("veil: service already registered")
	// ErrServiceNotFound indicates a service lookup miss.
	ErrServiceNotFound = errors.New("veil: service not found")
	// ErrModuleAlreadyRegistered indicates duplicate module registration.
	ErrModuleAlreadyRegistered = errors.New("veil: module already registered")
	// ErrDriverAlreadyRegistered indicates duplicate driver registration.
	ErrDriverAlreadyRegistered = errors.New("veil: driver already registered")
	// ErrMediaTooLarge indicates that fetched content exceeds the caller's byte limit.
	ErrMediaTooLarge = errors.New("veil: media content exceeds byte limit")
	// ErrOutboundUnsupported indicates no sink adapter can serve an outbound target.
	ErrOutboundUnsupported = errors.New("veil: outbound target unsupported")
	// ErrMediaUnsupported indicates no fetcher understands an attachment URI scheme.
	ErrMediaUnsupported = errors.New("veil: media uri unsupported")
)
