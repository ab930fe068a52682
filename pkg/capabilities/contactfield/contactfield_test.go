package contactfield

import (
	"context"
	"log/slog"
	"testing"

	"github.com/driftmail/automata/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateBuiltinAttribute(t *testing.T) {
	contact := testutil.CreateTestContact()
	repo := testutil.NewInMemoryContactRepository(contact)
	factory := NewFactory(repo, slog.Default())

	capability, err := factory.Create(map[string]any{"field": "first_name", "value": "Janet"})
	require.NoError(t, err)

	_, err = capability.Execute(context.Background(), contact.ID)
	require.NoError(t, err)

	stored, err := repo.ByID(context.Background(), contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "Janet", stored.FirstName)
}

func TestUpdateCustomField(t *testing.T) {
	contact := testutil.CreateTestContact()
	repo := testutil.NewInMemoryContactRepository(contact)
	factory := NewFactory(repo, slog.Default())

	capability, err := factory.Create(map[string]any{"field": "plan", "value": "pro"})
	require.NoError(t, err)

	_, err = capability.Execute(context.Background(), contact.ID)
	require.NoError(t, err)

	stored, err := repo.ByID(context.Background(), contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "pro", stored.Fields["plan"])
}

func TestCreateRequiresField(t *testing.T) {
	factory := NewFactory(testutil.NewInMemoryContactRepository(), slog.Default())

	_, err := factory.Create(map[string]any{"value": "pro"})
	require.Error(t, err)
}
