// Package lists implements the add_to_list and remove_from_list capabilities.
package lists

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/driftmail/automata/pkg/capabilities"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/driftmail/automata/pkg/protocol"
)

// Config is the typed form of an add_to_list or remove_from_list action
// config.
type Config struct {
	ListID string `json:"list_id" validate:"required"`
}

type addCapability struct {
	contacts persistence.ContactRepository
	config   Config
	logger   *slog.Logger
}

func (c *addCapability) Execute(ctx context.Context, contactID string) (string, error) {
	contact, err := c.contacts.ByID(ctx, contactID)
	if err != nil {
		return "", fmt.Errorf("failed to load contact %s: %w", contactID, err)
	}

	if contact.OnList(c.config.ListID) {
		return fmt.Sprintf("already on list %s", c.config.ListID), nil
	}

	contact.Lists = append(contact.Lists, c.config.ListID)

	if err := c.contacts.Save(ctx, contact); err != nil {
		return "", fmt.Errorf("failed to save contact %s: %w", contactID, err)
	}

	c.logger.InfoContext(ctx, "Contact added to list", "contact_id", contactID, "list_id", c.config.ListID)

	return fmt.Sprintf("added to list %s", c.config.ListID), nil
}

type removeCapability struct {
	contacts persistence.ContactRepository
	config   Config
	logger   *slog.Logger
}

func (c *removeCapability) Execute(ctx context.Context, contactID string) (string, error) {
	contact, err := c.contacts.ByID(ctx, contactID)
	if err != nil {
		return "", fmt.Errorf("failed to load contact %s: %w", contactID, err)
	}

	if !contact.OnList(c.config.ListID) {
		return fmt.Sprintf("not on list %s", c.config.ListID), nil
	}

	kept := contact.Lists[:0]

	for _, list := range contact.Lists {
		if list != c.config.ListID {
			kept = append(kept, list)
		}
	}

	contact.Lists = kept

	if err := c.contacts.Save(ctx, contact); err != nil {
		return "", fmt.Errorf("failed to save contact %s: %w", contactID, err)
	}

	c.logger.InfoContext(ctx, "Contact removed from list", "contact_id", contactID, "list_id", c.config.ListID)

	return fmt.Sprintf("removed from list %s", c.config.ListID), nil
}

// AddFactory creates add_to_list capabilities.
type AddFactory struct {
	contacts persistence.ContactRepository
	logger   *slog.Logger
}

func NewAddFactory(contacts persistence.ContactRepository, logger *slog.Logger) *AddFactory {
	return &AddFactory{contacts: contacts, logger: logger.With("module", "add_to_list")}
}

func (f *AddFactory) ID() string {
	return "add_to_list"
}

func (f *AddFactory) Create(config map[string]any) (protocol.Capability, error) {
	var cfg Config
	if err := capabilities.DecodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	return &addCapability{contacts: f.contacts, config: cfg, logger: f.logger}, nil
}

// RemoveFactory creates remove_from_list capabilities.
type RemoveFactory struct {
	contacts persistence.ContactRepository
	logger   *slog.Logger
}

func NewRemoveFactory(contacts persistence.ContactRepository, logger *slog.Logger) *RemoveFactory {
	return &RemoveFactory{contacts: contacts, logger: logger.With("module", "remove_from_list")}
}

func (f *RemoveFactory) ID() string {
	return "remove_from_list"
}

func (f *RemoveFactory) Create(config map[string]any) (protocol.Capability, error) {
	var cfg Config
	if err := capabilities.DecodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	return &removeCapability{contacts: f.contacts, config: cfg, logger: f.logger}, nil
}
