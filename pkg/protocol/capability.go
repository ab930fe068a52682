// Package protocol defines the contracts between the workflow runtime and the
// side-effecting capabilities it dispatches to.
package protocol

import "context"

// Capability is one external side-effecting operation invoked by an action
// type. Implementations must be safe to retry; the runtime re-invokes Execute
// on capability errors until the retry policy is exhausted.
type Capability interface {
	// Execute performs the side effect for the contact and returns a short
	// human-readable summary for the execution log.
	Execute(ctx context.Context, contactID string) (string, error)
}

// CapabilityFactory builds a capability from an action's config map,
// validating it in the process. Validation failures surface at execution time
// as configuration errors on that step, not as caller-fatal errors.
type CapabilityFactory interface {
	// ID returns the action type tag the factory serves.
	ID() string

	Create(config map[string]any) (Capability, error)
}
