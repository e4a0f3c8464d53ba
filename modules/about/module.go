// Package about reports bot identity and uptime for /about.
package about

import (
	"context"
	"fmt"
	"strings"
	"time"

	"veilbot/pkg/veil"
)

const aboutCommandName = "about"

// Module replies with identity and uptime text for /about commands.
type Module struct {
	botName    string
	version    string
	dispatcher veil.OutboundDispatcher

	clock     func() time.Time
	startedAt time.Time
}

// Option mutates one about module construction input.
type Option func(*Module)

// withClock injects the uptime time source.
func withClock(now func() time.Time) Option {
	return func(m *Module) {
		m.clock = now
	}
}

// New creates an about module for the given bot identity.
func New(botName, version string, options ...Option) *Module {
	module := &Module{
		botName: strings.TrimSpace(botName),
		version: strings.TrimSpace(version),
		clock:   time.Now,
	}
	if module.botName == "" {
		module.botName = "veilbot"
	}
	if module.version == "" {
		module.version = "dev"
	}
	for _, option := range options {
		option(module)
	}

	return module
}

// Name returns the stable module identifier.
func (m *Module) Name() string {
	return "about"
}

// Spec declares interest in about command events.
func (m *Module) Spec() veil.ModuleSpec {
	return veil.ModuleSpec{
		Handlers: []veil.ModuleHandler{
			{
				Capability: veil.Capability{
					Name:        "about-command-handler",
					Description: "reports bot identity and uptime for /about",
					Interest: veil.InterestSet{
						Kinds:          []veil.EventKind{veil.EventKindCommandReceived},
						RequireCommand: true,
						CommandNames:   []string{aboutCommandName},
					},
					RequiredServices: []string{veil.ServiceOutboundDispatcher},
				},
				Subscription: veil.NewDefaultSubscriptionSpec("about-commands"),
				Handler:      m.handleCommand,
			},
		},
		Commands: []veil.CommandSpec{
			{
				Name:        aboutCommandName,
				Description: "show bot identity and uptime",
			},
		},
	}
}

// OnRegister resolves outbound dependencies required by this module.
func (m *Module) OnRegister(_ context.Context, runtime veil.ModuleRuntime) error {
	dispatcher, err := veil.ResolveAs[veil.OutboundDispatcher](
		runtime.Services(),
		veil.ServiceOutboundDispatcher,
	)
	if err != nil {
		return fmt.Errorf("about resolve outbound dispatcher: %w", err)
	}

	m.dispatcher = dispatcher

	return nil
}

// OnStart marks the uptime baseline.
func (m *Module) OnStart(_ context.Context) error {
	m.startedAt = m.clock()

	return nil
}

// OnShutdown stops the module lifecycle.
func (m *Module) OnShutdown(_ context.Context) error {
	return nil
}

func (m *Module) handleCommand(ctx context.Context, event *veil.Event) error {
	if event == nil || event.Command == nil || event.Message == nil {
		return nil
	}
	if event.Kind != veil.EventKindCommandReceived {
		return nil
	}
	if event.Command.Name != aboutCommandName {
		return nil
	}
	if m.dispatcher == nil {
		return fmt.Errorf("about handle command: outbound dispatcher not configured")
	}

	target, err := veil.OutboundTargetFromEvent(event)
	if err != nil {
		return fmt.Errorf("about derive outbound target: %w", err)
	}
	_, err = m.dispatcher.SendMessage(ctx, veil.SendMessageRequest{
		Target:           target,
		Text:             m.renderAbout(),
		ReplyToMessageID: event.Message.ID,
	})
	if err != nil {
		return fmt.Errorf("about send message: %w", err)
	}

	return nil
}

func (m *Module) renderAbout() string {
	uptime := "not started"
	if !m.startedAt.IsZero() {
		uptime = formatUptime(m.clock().Sub(m.startedAt))
	}

	return fmt.Sprintf("%s %s\nuptime: %s", m.botName, m.version, uptime)
}

// formatUptime renders a coarse human-readable duration.
func formatUptime(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)

	days := d / (24 * time.Hour)
	d -= days * 24 * time.Hour
	hours := d / time.Hour
	d -= hours * time.Hour
	minutes := d / time.Minute
	seconds := d - minutes*time.Minute

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	case hours > 0:
		return fmt.Sprintf("%dh %dm", hours, minutes)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds/time.Second)
	default:
		return fmt.Sprintf("%ds", seconds/time.Second)
	}
}

var (
	_ veil.Module          = (*Module)(nil)
	_ veil.ModuleRegistrar = (*Module)(nil)
)
