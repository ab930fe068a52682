// Package course implements the enroll_course capability.
package course

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/driftmail/automata/pkg/capabilities"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/driftmail/automata/pkg/protocol"
)

// Enroller grants a contact access to a course. The production implementation
// lives in the course platform; RecordingEnroller backs everything else.
type Enroller interface {
	Enroll(ctx context.Context, contactID, courseID string) error
}

// Config is the typed form of an enroll_course action config.
type Config struct {
	CourseID string `json:"course_id" validate:"required"`
}

type Capability struct {
	enroller Enroller
	config   Config
	logger   *slog.Logger
}

func (c *Capability) Execute(ctx context.Context, contactID string) (string, error) {
	if err := c.enroller.Enroll(ctx, contactID, c.config.CourseID); err != nil {
		return "", fmt.Errorf("failed to enroll contact %s in course %s: %w", contactID, c.config.CourseID, err)
	}

	c.logger.InfoContext(ctx, "Contact enrolled in course",
		"contact_id", contactID,
		"course_id", c.config.CourseID)

	return fmt.Sprintf("enrolled in course %s", c.config.CourseID), nil
}

type Factory struct {
	enroller Enroller
	logger   *slog.Logger
}

func NewFactory(enroller Enroller, logger *slog.Logger) *Factory {
	return &Factory{enroller: enroller, logger: logger.With("module", "enroll_course")}
}

func (f *Factory) ID() string {
	return "enroll_course"
}

func (f *Factory) Create(config map[string]any) (protocol.Capability, error) {
	var cfg Config
	if err := capabilities.DecodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	return &Capability{enroller: f.enroller, config: cfg, logger: f.logger}, nil
}

// RecordingEnroller records enrollments on the contact itself. Idempotent; a
// second enrollment in the same course is a no-op.
type RecordingEnroller struct {
	contacts persistence.ContactRepository
}

func NewRecordingEnroller(contacts persistence.ContactRepository) *RecordingEnroller {
	return &RecordingEnroller{contacts: contacts}
}

func (e *RecordingEnroller) Enroll(ctx context.Context, contactID, courseID string) error {
	contact, err := e.contacts.ByID(ctx, contactID)
	if err != nil {
		return fmt.Errorf("failed to load contact %s: %w", contactID, err)
	}

	for _, enrolled := range contact.Courses {
		if enrolled == courseID {
			return nil
		}
	}

	contact.Courses = append(contact.Courses, courseID)

	return e.contacts.Save(ctx, contact)
}
