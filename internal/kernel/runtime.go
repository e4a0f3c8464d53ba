package kernel

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"veilbot/pkg/veil"
)

// moduleRecord stores module metadata and subscriptions managed by the kernel.
type moduleRecord struct {
	name          string
	module        veil.Module
	capabilities  []veil.Capability
	subscriptions []veil.Subscription
	subMu         sync.Mutex
}

// addSubscription tracks subscriptions so module shutdown can close them deterministically.
func (m *moduleRecord) addSubscription(subscription veil.Subscription) {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.subscriptions = append(m.subscriptions, subscription)
}

// closeSubscriptions closes all tracked subscriptions and aggregates close errors.
// It clears the internal slice first to make repeated shutdown paths idempotent.
func (m *moduleRecord) closeSubscriptions(ctx context.Context) error {
	m.subMu.Lock()
	subscriptions := append([]veil.Subscription(nil), m.subscriptions...)
	m.subscriptions = nil
	m.subMu.Unlock()

	var closeErr error
	for _, subscription := range subscriptions {
		if err := subscription.Close(ctx); err != nil {
			closeErr = errors.Join(closeErr, fmt.Errorf("close subscription %s: %w", subscription.Name(), err))
		}
	}

	return closeErr
}

// moduleRuntime is the kernel-owned implementation of veil.ModuleRuntime.
type moduleRuntime struct {
	moduleName    string
	serviceLookup veil.ServiceRegistry
	bus           veil.EventBus
	record        *moduleRecord
	defaultSink   *veil.SinkRef
}

// Services returns the kernel service registry visible to the module.
func (r *moduleRuntime) Services() veil.ServiceRegistry {
	return moduleServiceRegistry{
		base:        r.serviceLookup,
		defaultSink: cloneSinkRef(r.defaultSink),
	}
}

// Subscribe registers a module-owned subscription after capability checks.
func (r *moduleRuntime) Subscribe(
	ctx context.Context,
	interest veil.InterestSet,
	spec veil.SubscriptionSpec,
	handler veil.EventHandler,
) (veil.Subscription, error) {
	if spec.Name == "" {
		spec.Name = fmt.Sprintf("%s-subscription", r.moduleName)
	}
	if err := assertSubscriptionAllowed(r.record.capabilities, spec.Name, interest); err != nil {
		return nil, fmt.Errorf("module %s subscribe %s: %w", r.moduleName, spec.Name, err)
	}

	subscription, err := r.bus.Subscribe(ctx, interest, spec, handler)
	if err != nil {
		return nil, fmt.Errorf("module %s subscribe %s: %w", r.moduleName, spec.Name, err)
	}

	r.record.addSubscription(subscription)

	return subscription, nil
}

// assertSubscriptionAllowed enforces capability negotiation at registration time.
// A module can only subscribe to interests covered by at least one declared capability.
func assertSubscriptionAllowed(capabilities []veil.Capability, subscriptionName string, interest veil.InterestSet) error {
	if len(capabilities) == 0 {
		return fmt.Errorf("subscription %s requires at least one declared capability", subscriptionName)
	}

	for _, capability := range capabilities {
		if capability.Interest.Allows(interest) {
			return nil
		}
	}

	return fmt.Errorf("subscription does not match declared module capabilities")
}

// moduleServiceRegistry injects module default sink routing into resolved
// outbound dispatchers so modules do not hard-code sink identities.
type moduleServiceRegistry struct {
	base        veil.ServiceRegistry
	defaultSink *veil.SinkRef
}

func (r moduleServiceRegistry) Register(name string, service any) error {
	if err := r.base.Register(name, service); err != nil {
		return fmt.Errorf("register service %s: %w", name, err)
	}

	return nil
}

func (r moduleServiceRegistry) Resolve(name string) (any, error) {
	service, err := r.base.Resolve(name)
	if err != nil {
		return nil, fmt.Errorf("resolve service %s: %w", name, err)
	}
	if name != veil.ServiceOutboundDispatcher {
		return service, nil
	}
	dispatcher, ok := service.(veil.OutboundDispatcher)
	if !ok {
		return nil, fmt.Errorf("resolve service %s: type assertion failed", name)
	}

	return moduleOutboundDispatcher{
		base:        dispatcher,
		defaultSink: cloneSinkRef(r.defaultSink),
	}, nil
}

type moduleOutboundDispatcher struct {
	base        veil.OutboundDispatcher
	defaultSink *veil.SinkRef
}

func (d moduleOutboundDispatcher) SendMessage(
	ctx context.Context,
	request veil.SendMessageRequest,
) (*veil.OutboundMessage, error) {
	request.Target = withDefaultSink(request.Target, d.defaultSink)
	message, err := d.base.SendMessage(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("send message with module sink routing: %w", err)
	}

	return message, nil
}

func (d moduleOutboundDispatcher) DeleteMessage(ctx context.Context, request veil.DeleteMessageRequest) error {
	request.Target = withDefaultSink(request.Target, d.defaultSink)
	if err := d.base.DeleteMessage(ctx, request); err != nil {
		return fmt.Errorf("delete message with module sink routing: %w", err)
	}

	return nil
}

func (d moduleOutboundDispatcher) FetchMessage(
	ctx context.Context,
	request veil.FetchMessageRequest,
) (*veil.Message, error) {
	request.Target = withDefaultSink(request.Target, d.defaultSink)
	message, err := d.base.FetchMessage(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("fetch message with module sink routing: %w", err)
	}

	return message, nil
}

func (d moduleOutboundDispatcher) SendDirect(
	ctx context.Context,
	request veil.SendDirectRequest,
) (*veil.OutboundMessage, error) {
	if request.Sink == nil {
		request.Sink = cloneSinkRef(d.defaultSink)
	}
	message, err := d.base.SendDirect(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("send direct with module sink routing: %w", err)
	}

	return message, nil
}

func (d moduleOutboundDispatcher) AnswerControl(ctx context.Context, request veil.AnswerControlRequest) error {
	if request.Sink == nil {
		request.Sink = cloneSinkRef(d.defaultSink)
	}
	if err := d.base.AnswerControl(ctx, request); err != nil {
		return fmt.Errorf("answer control with module sink routing: %w", err)
	}

	return nil
}

func withDefaultSink(target veil.OutboundTarget, defaultSink *veil.SinkRef) veil.OutboundTarget {
	if target.Sink != nil || defaultSink == nil {
		return target
	}

	target.Sink = cloneSinkRef(defaultSink)

	return target
}

func cloneSinkRef(sink *veil.SinkRef) *veil.SinkRef {
	if sink == nil {
		return nil
	}
	cloned := *sink

	return &cloned
}
