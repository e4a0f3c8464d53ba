package spoiler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"veilbot/pkg/veil"
)

// Module provides spoiler publication and reveal behavior.
type Module struct {
	cfg Config

	dispatcher veil.OutboundDispatcher
	fetcher    veil.MediaFetcher
	logger     *slog.Logger

	cache   *lookupCache
	limiter *revealLimiter
	sleep   func(ctx context.Context, d time.Duration)
}

// Option mutates one spoiler module construction input.
type Option func(*Module)

// withClock injects the limiter time source.
func withClock(now func() time.Time) Option {
	return func(m *Module) {
		m.limiter = newRevealLimiter(m.cfg.RevealCooldown, now)
	}
}

// withSleep injects the publish-delay sleep.
func withSleep(sleep func(ctx context.Context, d time.Duration)) Option {
	return func(m *Module) {
		m.sleep = sleep
	}
}

// New creates one spoiler module instance.
func New(cfg Config, options ...Option) (*Module, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new spoiler module: %w", err)
	}

	cache, err := newLookupCache()
	if err != nil {
		return nil, fmt.Errorf("new spoiler module: %w", err)
	}

	module := &Module{
		cfg:     cfg,
		logger:  slog.Default(),
		cache:   cache,
		limiter: newRevealLimiter(cfg.RevealCooldown, time.Now),
		sleep:   sleepContext,
	}
	for _, option := range options {
		option(module)
	}

	return module, nil
}

// Name returns the stable module identifier.
func (m *Module) Name() string {
	return "spoiler"
}

// Spec declares spoiler processing capabilities and the publish command.
func (m *Module) Spec() veil.ModuleSpec {
	return veil.ModuleSpec{
		Handlers: []veil.ModuleHandler{
			{
				Capability: veil.Capability{
					Name:        "spoiler-publish",
					Description: "archives and hides content behind a reveal control",
					Interest: veil.InterestSet{
						Kinds:          []veil.EventKind{veil.EventKindCommandReceived},
						CommandNames:   []string{commandName},
						RequireCommand: true,
					},
					RequiredServices: []string{
						veil.ServiceOutboundDispatcher,
						veil.ServiceMediaFetcher,
						veil.ServiceLogger,
					},
				},
				Subscription: veil.NewDefaultSubscriptionSpec("spoiler-commands"),
				Handler:      m.handleCommand,
			},
			{
				Capability: veil.Capability{
					Name:        "spoiler-reveal-button",
					Description: "serves reveal control presses",
					Interest: veil.InterestSet{
						Kinds:          []veil.EventKind{veil.EventKindControlPressed},
						RequireControl: true,
					},
					RequiredServices: []string{
						veil.ServiceOutboundDispatcher,
						veil.ServiceLogger,
					},
				},
				Subscription: veil.NewDefaultSubscriptionSpec("spoiler-controls"),
				Handler:      m.handleControl,
			},
			{
				Capability: veil.Capability{
					Name:        "spoiler-reveal-reaction",
					Description: "serves marker-emoji reveal reactions",
					Interest: veil.InterestSet{
						Kinds:           []veil.EventKind{veil.EventKindReactionAdded},
						RequireReaction: true,
					},
					RequiredServices: []string{
						veil.ServiceOutboundDispatcher,
						veil.ServiceLogger,
					},
				},
				Subscription: veil.NewDefaultSubscriptionSpec("spoiler-reactions"),
				Handler:      m.handleReaction,
			},
		},
		Commands: []veil.CommandSpec{
			{
				Name:        commandName,
				Description: "hide text and attachments behind a reveal button",
			},
		},
	}
}

// OnRegister resolves module dependencies.
func (m *Module) OnRegister(_ context.Context, runtime veil.ModuleRuntime) error {
	dispatcher, err := veil.ResolveAs[veil.OutboundDispatcher](
		runtime.Services(),
		veil.ServiceOutboundDispatcher,
	)
	if err != nil {
		return fmt.Errorf("spoiler resolve outbound dispatcher: %w", err)
	}

	fetcher, err := veil.ResolveAs[veil.MediaFetcher](
		runtime.Services(),
		veil.ServiceMediaFetcher,
	)
	if err != nil {
		return fmt.Errorf("spoiler resolve media fetcher: %w", err)
	}

	logger, err := veil.ResolveAs[*slog.Logger](runtime.Services(), veil.ServiceLogger)
	if err != nil {
		return fmt.Errorf("spoiler resolve logger: %w", err)
	}

	m.dispatcher = dispatcher
	m.fetcher = fetcher
	m.logger = logger.With("module", m.Name())

	return nil
}

// OnStart starts the module lifecycle.
func (m *Module) OnStart(_ context.Context) error {
	return nil
}

// OnShutdown stops the module lifecycle.
func (m *Module) OnShutdown(_ context.Context) error {
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}

	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

var (
	_ veil.Module          = (*Module)(nil)
	_ veil.ModuleRegistrar = (*Module)(nil)
)
