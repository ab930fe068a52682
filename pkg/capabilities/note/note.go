// Package note implements the create_note capability.
package note

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/driftmail/automata/pkg/capabilities"
	"github.com/driftmail/automata/pkg/protocol"
)

// NoteStore records notes against a contact's timeline in the surrounding CRM.
type NoteStore interface {
	Add(ctx context.Context, contactID, body string) error
}

// Config is the typed form of a create_note action config.
type Config struct {
	Body string `json:"body" validate:"required"`
}

type Capability struct {
	store  NoteStore
	config Config
	logger *slog.Logger
}

func (c *Capability) Execute(ctx context.Context, contactID string) (string, error) {
	if err := c.store.Add(ctx, contactID, c.config.Body); err != nil {
		return "", fmt.Errorf("failed to create note for contact %s: %w", contactID, err)
	}

	c.logger.InfoContext(ctx, "Note created", "contact_id", contactID)

	return "created note", nil
}

type Factory struct {
	store  NoteStore
	logger *slog.Logger
}

func NewFactory(store NoteStore, logger *slog.Logger) *Factory {
	return &Factory{store: store, logger: logger.With("module", "create_note")}
}

func (f *Factory) ID() string {
	return "create_note"
}

func (f *Factory) Create(config map[string]any) (protocol.Capability, error) {
	var cfg Config
	if err := capabilities.DecodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	return &Capability{store: f.store, config: cfg, logger: f.logger}, nil
}

// LogNoteStore logs notes instead of persisting them. It backs development
// and test setups where no CRM is configured.
type LogNoteStore struct {
	logger *slog.Logger
}

func NewLogNoteStore(logger *slog.Logger) *LogNoteStore {
	return &LogNoteStore{logger: logger.With("module", "log_note_store")}
}

func (s *LogNoteStore) Add(ctx context.Context, contactID, body string) error {
	s.logger.InfoContext(ctx, "Would create note", "contact_id", contactID, "body", body)

	return nil
}
