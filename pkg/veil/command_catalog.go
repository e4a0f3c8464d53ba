package veil

import "context"

// ServiceCommandCatalog is the canonical service registry key for command lookup.
const ServiceCommandCatalog = "veil.command_catalog"

// RegisteredCommand pairs a command declaration with its owning module.
type RegisteredCommand struct {
	// ModuleName is the owning module name.
	ModuleName string
	// Command is the declared command.
	Command CommandSpec
}

// CommandCatalog lists commands registered by all modules, typically for help
// rendering and command derivation.
type CommandCatalog interface {
	// ListCommands returns registered commands sorted by name.
	ListCommands(ctx context.Context) ([]RegisteredCommand, error)
}
