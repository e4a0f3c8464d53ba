package veil

import "context"

// EventHandler processes a single neutral event.
type EventHandler func(ctx context.Context, event *Event) error

// EventSink accepts neutral events for dispatching into the kernel.
type EventSink interface {
	// Publish submits an event to downstream subscribers.
	Publish(ctx context.Context, event *Event) error
}

// ModuleRuntime provides kernel facilities to modules during registration.
type ModuleRuntime interface {
	// Services exposes the service registry for dependency lookup.
	Services() ServiceRegistry
	// Subscribe registers an asynchronous event handler owned by the module.
	Subscribe(ctx context.Context, interest InterestSet, spec SubscriptionSpec, handler EventHandler) (Subscription, error)
}

// ModuleHandler binds one declared capability to one subscribed handler.
type ModuleHandler struct {
	// Capability declares what this handler processes and requires.
	Capability Capability
	// Subscription configures queueing behavior for this handler.
	Subscription SubscriptionSpec
	// Handler is the event processing function.
	Handler EventHandler
}

// ModuleSpec is the declarative module definition consumed by the kernel.
type ModuleSpec struct {
	// Handlers lists capability-bound event handlers wired at registration.
	Handlers []ModuleHandler
	// Commands lists command registrations owned by this module.
	Commands []CommandSpec
	// AdditionalCapabilities lists capabilities without a declarative handler,
	// used by modules that subscribe imperatively inside OnRegister.
	AdditionalCapabilities []Capability
}

// Capabilities returns all capabilities declared by this spec.
func (s ModuleSpec) Capabilities() []Capability {
	capabilities := make([]Capability, 0, len(s.Handlers)+len(s.AdditionalCapabilities))
	for _, handler := range s.Handlers {
		capabilities = append(capabilities, handler.Capability)
	}
	capabilities = append(capabilities, s.AdditionalCapabilities...)

	return capabilities
}

// Module is a lifecycle-aware plugin contract.
//
// Modules must be deterministic and concurrency-safe because handlers can run
// on multiple workers.
type Module interface {
	// Name returns a stable module identifier.
	Name() string
	// Spec returns declarative processing, dependency, and command metadata.
	Spec() ModuleSpec
	// OnStart is called when the kernel begins runtime execution.
	OnStart(ctx context.Context) error
	// OnShutdown is called during orderly shutdown.
	OnShutdown(ctx context.Context) error
}

// ModuleRegistrar is an optional module extension invoked once at registration,
// before declarative handlers are wired.
type ModuleRegistrar interface {
	// OnRegister resolves dependencies and performs imperative subscriptions.
	OnRegister(ctx context.Context, runtime ModuleRuntime) error
}

// Driver adapts external platforms into neutral events.
//
// Drivers own transport/session concerns and must publish only veil.Event.
type Driver interface {
	// Name returns a stable driver identifier.
	Name() string
	// Start starts consuming external updates and publishing neutral events.
	// It should return only after context cancellation or fatal error.
	Start(ctx context.Context, sink EventSink) error
	// Shutdown stops external resources that are not tied to Start context alone.
	Shutdown(ctx context.Context) error
}
