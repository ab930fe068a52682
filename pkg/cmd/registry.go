// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"log/slog"

	"github.com/driftmail/automata/pkg/capabilities/contactfield"
	"github.com/driftmail/automata/pkg/capabilities/course"
	"github.com/driftmail/automata/pkg/capabilities/lists"
	"github.com/driftmail/automata/pkg/capabilities/note"
	"github.com/driftmail/automata/pkg/capabilities/sendemail"
	"github.com/driftmail/automata/pkg/capabilities/tags"
	"github.com/driftmail/automata/pkg/capabilities/webhook"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/driftmail/automata/pkg/registry"
)

// NewRegistry builds the capability registry with every native action type.
// Email delivery, course enrollment and note storage fall back to their
// log/recording development implementations until real providers are wired
// in deployment-specific builds.
func NewRegistry(logger *slog.Logger, contacts persistence.ContactRepository) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.Register(sendemail.NewFactory(sendemail.NewLogMailer(logger), contacts, logger))
	reg.Register(tags.NewAddFactory(contacts, logger))
	reg.Register(tags.NewRemoveFactory(contacts, logger))
	reg.Register(lists.NewAddFactory(contacts, logger))
	reg.Register(lists.NewRemoveFactory(contacts, logger))
	reg.Register(course.NewFactory(course.NewRecordingEnroller(contacts), logger))
	reg.Register(webhook.NewFactory(logger))
	reg.Register(contactfield.NewFactory(contacts, logger))
	reg.Register(note.NewFactory(note.NewLogNoteStore(logger), logger))

	return reg
}
