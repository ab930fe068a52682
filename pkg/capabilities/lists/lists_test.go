package lists

import (
	"context"
	"log/slog"
	"testing"

	"github.com/driftmail/automata/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddToList(t *testing.T) {
	contact := testutil.CreateTestContact()
	repo := testutil.NewInMemoryContactRepository(contact)
	factory := NewAddFactory(repo, slog.Default())

	capability, err := factory.Create(map[string]any{"list_id": "newsletter"})
	require.NoError(t, err)

	summary, err := capability.Execute(context.Background(), contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "added to list newsletter", summary)

	stored, err := repo.ByID(context.Background(), contact.ID)
	require.NoError(t, err)
	assert.True(t, stored.OnList("newsletter"))
}

func TestRemoveFromList(t *testing.T) {
	contact := testutil.CreateTestContact()
	contact.Lists = []string{"newsletter", "launch"}
	repo := testutil.NewInMemoryContactRepository(contact)
	factory := NewRemoveFactory(repo, slog.Default())

	capability, err := factory.Create(map[string]any{"list_id": "launch"})
	require.NoError(t, err)

	_, err = capability.Execute(context.Background(), contact.ID)
	require.NoError(t, err)

	stored, err := repo.ByID(context.Background(), contact.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"newsletter"}, stored.Lists)
}

func TestCreateRequiresListID(t *testing.T) {
	factory := NewAddFactory(testutil.NewInMemoryContactRepository(), slog.Default())

	_, err := factory.Create(map[string]any{"list_id": ""})
	require.Error(t, err)
}
