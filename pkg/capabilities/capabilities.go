// Package capabilities hosts the side-effecting implementations behind the
// workflow action types. Each subpackage provides one capability plus its
// factory; the shared helper here maps raw action configs into typed,
// validated config structs.
package capabilities

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// DecodeConfig decodes a raw action config map into a typed config struct and
// validates it. Factories call this at creation time so misconfiguration
// surfaces before any side effect runs.
func DecodeConfig(config map[string]any, out any) error {
	raw, err := json.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode action config: %w", err)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode action config: %w", err)
	}

	if err := validate.Struct(out); err != nil {
		return fmt.Errorf("invalid action config: %w", err)
	}

	return nil
}
