// Package sendemail delivers a templated email to the enrolled contact.
package sendemail

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/driftmail/automata/pkg/capabilities"
	"github.com/driftmail/automata/pkg/persistence"
	"github.com/driftmail/automata/pkg/protocol"
)

// Mailer is the outbound email delivery service.
type Mailer interface {
	Send(ctx context.Context, to, templateID, subject string, data map[string]any) error
}

// Config is the typed form of a send_email action config.
type Config struct {
	TemplateID string `json:"template_id" validate:"required"`
	Subject    string `json:"subject"`
}

type Capability struct {
	mailer   Mailer
	contacts persistence.ContactRepository
	config   Config
	logger   *slog.Logger
}

func (c *Capability) Execute(ctx context.Context, contactID string) (string, error) {
	contact, err := c.contacts.ByID(ctx, contactID)
	if err != nil {
		return "", fmt.Errorf("failed to load contact %s: %w", contactID, err)
	}

	err = c.mailer.Send(ctx, contact.Email, c.config.TemplateID, c.config.Subject, contact.Snapshot())
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}

	c.logger.InfoContext(ctx, "Email sent",
		"contact_id", contactID,
		"template_id", c.config.TemplateID)

	return fmt.Sprintf("sent email template %s to %s", c.config.TemplateID, contact.Email), nil
}

type Factory struct {
	mailer   Mailer
	contacts persistence.ContactRepository
	logger   *slog.Logger
}

func NewFactory(mailer Mailer, contacts persistence.ContactRepository, logger *slog.Logger) *Factory {
	return &Factory{
		mailer:   mailer,
		contacts: contacts,
		logger:   logger.With("module", "send_email"),
	}
}

func (f *Factory) ID() string {
	return "send_email"
}

func (f *Factory) Create(config map[string]any) (protocol.Capability, error) {
	var cfg Config
	if err := capabilities.DecodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	return &Capability{
		mailer:   f.mailer,
		contacts: f.contacts,
		config:   cfg,
		logger:   f.logger,
	}, nil
}

// LogMailer logs email deliveries instead of sending them. It backs
// development and test setups where no delivery provider is configured.
type LogMailer struct {
	logger *slog.Logger
}

func NewLogMailer(logger *slog.Logger) *LogMailer {
	return &LogMailer{logger: logger.With("module", "log_mailer")}
}

func (m *LogMailer) Send(ctx context.Context, to, templateID, subject string, _ map[string]any) error {
	m.logger.InfoContext(ctx, "Would send email",
		"to", to,
		"template_id", templateID,
		"subject", subject)

	return nil
}
