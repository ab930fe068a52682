// Package contactfield implements the update_contact capability.
package contactfield

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/driftmail/automata/pkg/capabilities"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/driftmail/automata/pkg/protocol"
)

// Config is the typed form of an update_contact action config. Built-in
// attributes (email, first_name, last_name) are updated in place; any other
// field name lands in the custom field map.
type Config struct {
	Field string `json:"field" validate:"required"`
	Value any    `json:"value"`
}

type Capability struct {
	contacts persistence.ContactRepository
	config   Config
	logger   *slog.Logger
}

func (c *Capability) Execute(ctx context.Context, contactID string) (string, error) {
	contact, err := c.contacts.ByID(ctx, contactID)
	if err != nil {
		return "", fmt.Errorf("failed to load contact %s: %w", contactID, err)
	}

	switch c.config.Field {
	case "email":
		contact.Email = fmt.Sprintf("%v", c.config.Value)
	case "first_name":
		contact.FirstName = fmt.Sprintf("%v", c.config.Value)
	case "last_name":
		contact.LastName = fmt.Sprintf("%v", c.config.Value)
	default:
		if contact.Fields == nil {
			contact.Fields = make(map[string]any)
		}

		contact.Fields[c.config.Field] = c.config.Value
	}

	if err := c.contacts.Save(ctx, contact); err != nil {
		return "", fmt.Errorf("failed to save contact %s: %w", contactID, err)
	}

	c.logger.InfoContext(ctx, "Contact field updated",
		"contact_id", contactID,
		"field", c.config.Field)

	return fmt.Sprintf("set %s", c.config.Field), nil
}

type Factory struct {
	contacts persistence.ContactRepository
	logger   *slog.Logger
}

func NewFactory(contacts persistence.ContactRepository, logger *slog.Logger) *Factory {
	return &Factory{contacts: contacts, logger: logger.With("module", "update_contact")}
}

func (f *Factory) ID() string {
	return "update_contact"
}

func (f *Factory) Create(config map[string]any) (protocol.Capability, error) {
	var cfg Config
	if err := capabilities.DecodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	return &Capability{contacts: f.contacts, config: cfg, logger: f.logger}, nil
}
