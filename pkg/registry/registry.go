// Package registry maps action type tags to capability factories.
package registry

import (
	"fmt"
	"log/slog"

	"github.com/driftmail/automata/pkg/protocol"
)

// Registry is a pure lookup table from action type to capability factory.
// The wait and condition action types are handled by the runtime itself and
// are never registered here.
type Registry struct {
	logger    *slog.Logger
	factories map[string]protocol.CapabilityFactory
}

func NewRegistry(logger *slog.Logger) *Registry {
	return &Registry{
		logger:    logger.With("module", "registry"),
		factories: make(map[string]protocol.CapabilityFactory),
	}
}

// Register adds a capability factory, replacing any previous registration for
// the same action type.
func (r *Registry) Register(factory protocol.CapabilityFactory) {
	r.factories[factory.ID()] = factory
	r.logger.Debug("Registered capability", "action_type", factory.ID())
}

// Create builds the capability for an action type from its config. Config is
// validated here, at the registry boundary, keeping type checks out of the
// step loop.
func (r *Registry) Create(actionType string, config map[string]any) (protocol.Capability, error) {
	factory, ok := r.factories[actionType]
	if !ok {
		return nil, fmt.Errorf("action type '%s' not registered", actionType)
	}

	return factory.Create(config)
}

// Registered reports whether the action type has a factory.
func (r *Registry) Registered(actionType string) bool {
	_, ok := r.factories[actionType]

	return ok
}

// HealthCheck reports registry readiness for the API health endpoint.
func (r *Registry) HealthCheck() (string, bool) {
	if len(r.factories) == 0 {
		return "No capabilities registered", false
	}

	return fmt.Sprintf("%d capabilities registered", len(r.factories)), true
}
