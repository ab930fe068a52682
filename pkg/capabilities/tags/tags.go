// Package tags implements the add_tag and remove_tag capabilities.
package tags

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/driftmail/automata/pkg/capabilities"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/driftmail/automata/pkg/protocol"
)

// Config is the typed form of an add_tag or remove_tag action config.
type Config struct {
	Tag string `json:"tag" validate:"required"`
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

	if contact.HasTag(c.config.Tag) {
		return fmt.Sprintf("tag %s already present", c.config.Tag), nil
	}

	contact.Tags = append(contact.Tags, c.config.Tag)

	if err := c.contacts.Save(ctx, contact); err != nil {
		return "", fmt.Errorf("failed to save contact %s: %w", contactID, err)
	}

	c.logger.InfoContext(ctx, "Tag added", "contact_id", contactID, "tag", c.config.Tag)

	return fmt.Sprintf("added tag %s", c.config.Tag), nil
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

	if !contact.HasTag(c.config.Tag) {
		return fmt.Sprintf("tag %s not present", c.config.Tag), nil
	}

	kept := contact.Tags[:0]

	for _, tag := range contact.Tags {
		if tag != c.config.Tag {
			kept = append(kept, tag)
		}
	}

	contact.Tags = kept

	if err := c.contacts.Save(ctx, contact); err != nil {
		return "", fmt.Errorf("failed to save contact %s: %w", contactID, err)
	}

	c.logger.InfoContext(ctx, "Tag removed", "contact_id", contactID, "tag", c.config.Tag)

	return fmt.Sprintf("removed tag %s", c.config.Tag), nil
}

// AddFactory creates add_tag capabilities.
type AddFactory struct {
	contacts persistence.ContactRepository
	logger   *slog.Logger
}

func NewAddFactory(contacts persistence.ContactRepository, logger *slog.Logger) *AddFactory {
	return &AddFactory{contacts: contacts, logger: logger.With("module", "add_tag")}
}

func (f *AddFactory) ID() string {
	return "add_tag"
}

func (f *AddFactory) Create(config map[string]any) (protocol.Capability, error) {
	var cfg Config
	if err := capabilities.DecodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	return &addCapability{contacts: f.contacts, config: cfg, logger: f.logger}, nil
}

// RemoveFactory creates remove_tag capabilities.
type RemoveFactory struct {
	contacts persistence.ContactRepository
	logger   *slog.Logger
}

func NewRemoveFactory(contacts persistence.ContactRepository, logger *slog.Logger) *RemoveFactory {
	return &RemoveFactory{contacts: contacts, logger: logger.With("module", "remove_tag")}
}

func (f *RemoveFactory) ID() string {
	return "remove_tag"
}

func (f *RemoveFactory) Create(config map[string]any) (protocol.Capability, error) {
	var cfg Config
	if err := capabilities.DecodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	return &removeCapability{contacts: f.contacts, config: cfg, logger: f.logger}, nil
}
