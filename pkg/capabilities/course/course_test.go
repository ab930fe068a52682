package course

import (
	"context"
	"log/slog"
	"testing"

	"github.com/driftmail/automata/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollCourse(t *testing.T) {
	contact := testutil.CreateTestContact()
	repo := testutil.NewInMemoryContactRepository(contact)
	factory := NewFactory(NewRecordingEnroller(repo), slog.Default())

	capability, err := factory.Create(map[string]any{"course_id": "go-101"})
	require.NoError(t, err)

	summary, err := capability.Execute(context.Background(), contact.ID)
	require.NoError(t, err)
	assert.Equal(t, "enrolled in course go-101", summary)

	// A retry of the same step must not double-enroll.
	_, err = capability.Execute(context.Background(), contact.ID)
	require.NoError(t, err)

	stored, err := repo.ByID(context.Background(), contact.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"go-101"}, stored.Courses)
}

func TestCreateRequiresCourseID(t *testing.T) {
	factory := NewFactory(NewRecordingEnroller(testutil.NewInMemoryContactRepository()), slog.Default())

	_, err := factory.Create(map[string]any{})
	require.Error(t, err)
}
