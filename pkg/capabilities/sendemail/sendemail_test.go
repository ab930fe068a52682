package sendemail

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/driftmail/automata/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingMailer struct {
	to         string
	templateID string
	subject    string
	err        error
}

func (m *capturingMailer) Send(_ context.Context, to, templateID, subject string, _ map[string]any) error {
	m.to = to
	m.templateID = templateID
	m.subject = subject

	return m.err
}

func TestSendEmail(t *testing.T) {
	contact := testutil.CreateTestContact()
	repo := testutil.NewInMemoryContactRepository(contact)
	mailer := &capturingMailer{}
	factory := NewFactory(mailer, repo, slog.Default())

	capability, err := factory.Create(map[string]any{
		"template_id": "welcome-01",
		"subject":     "Welcome!",
	})
	require.NoError(t, err)

	summary, err := capability.Execute(context.Background(), contact.ID)
	require.NoError(t, err)

	assert.Equal(t, "sent email template welcome-01 to jane@example.com", summary)
	assert.Equal(t, "jane@example.com", mailer.to)
	assert.Equal(t, "welcome-01", mailer.templateID)
	assert.Equal(t, "Welcome!", mailer.subject)
}

func TestSendEmailDeliveryFailure(t *testing.T) {
	contact := testutil.CreateTestContact()
	repo := testutil.NewInMemoryContactRepository(contact)
	mailer := &capturingMailer{err: errors.New("smtp unavailable")}
	factory := NewFactory(mailer, repo, slog.Default())

	capability, err := factory.Create(map[string]any{"template_id": "welcome-01"})
	require.NoError(t, err)

	_, err = capability.Execute(context.Background(), contact.ID)
	require.ErrorContains(t, err, "smtp unavailable")
}

func TestCreateRequiresTemplateID(t *testing.T) {
	factory := NewFactory(&capturingMailer{}, testutil.NewInMemoryContactRepository(), slog.Default())

	_, err := factory.Create(map[string]any{"subject": "no template"})
	require.Error(t, err)
}
