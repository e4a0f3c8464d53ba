package veil

import "fmt"

// ServiceLogger is the canonical service registry key for the process logger.
const ServiceLogger = "veil.logger"

// ServiceRegistry provides named dependency lookup for modules and drivers.
type ServiceRegistry interface {
	// Register binds a service instance under a unique name.
	Register(name string, service any) error
	// Resolve returns the service registered under name.
	Resolve(name string) (any, error)
}

// ResolveAs resolves a named service and asserts its concrete or interface type.
func ResolveAs[T any](registry ServiceRegistry, name string) (T, error) {
	var zero T
	if registry == nil {
		return zero, fmt.Errorf("resolve service %q: nil registry", name)
	}

	service, err := registry.Resolve(name)
	if err != nil {
		return zero, fmt.Errorf("resolve service %q: %w", name, err)
	}

	typed, ok := service.(T)
	if !ok {
		return zero, fmt.Errorf("resolve service %q: unexpected type %T", name, service)
	}

	return typed, nil
}
