package kernel

import (
	"context"
	"fmt"
	"sort"

	"veilbot/pkg/veil"
)

// kernelCommandCatalog exposes kernel command registrations through ServiceRegistry.
type kernelCommandCatalog struct {
	kernel *Kernel
}

// ListCommands returns all registered command entries sorted by command then module.
func (c *kernelCommandCatalog) ListCommands(ctx context.Context) ([]veil.RegisteredCommand, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("list commands: %w", err)
	}
	if c == nil || c.kernel == nil {
		return nil, fmt.Errorf("list commands: nil catalog")
	}

	c.kernel.mu.RLock()
	commands := make([]veil.RegisteredCommand, 0, len(c.kernel.commands))
	for _, registration := range c.kernel.commands {
		commands = append(commands, veil.RegisteredCommand{
			ModuleName: registration.moduleName,
			Command:    registration.spec,
		})
	}
	c.kernel.mu.RUnlock()

	sort.Slice(commands, func(i, j int) bool {
		if commands[i].Command.Name == commands[j].Command.Name {
			return commands[i].ModuleName < commands[j].ModuleName
		}
		return commands[i].Command.Name < commands[j].Command.Name
	})

	return commands, nil
}

var _ veil.CommandCatalog = (*kernelCommandCatalog)(nil)
