package note

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingStore struct {
	contactID string
	body      string
}

func (s *capturingStore) Add(_ context.Context, contactID, body string) error {
	s.contactID = contactID
	s.body = body

	return nil
}

func TestCreateNote(t *testing.T) {
	store := &capturingStore{}
	factory := NewFactory(store, slog.Default())

	capability, err := factory.Create(map[string]any{"body": "reached onboarding step"})
	require.NoError(t, err)

	summary, err := capability.Execute(context.Background(), "contact-1")
	require.NoError(t, err)

	assert.Equal(t, "created note", summary)
	assert.Equal(t, "contact-1", store.contactID)
	assert.Equal(t, "reached onboarding step", store.body)
}

func TestCreateRequiresBody(t *testing.T) {
	factory := NewFactory(&capturingStore{}, slog.Default())

	_, err := factory.Create(map[string]any{})
	require.Error(t, err)
}
