package webhook

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookDelivery(t *testing.T) {
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "secret", r.Header.Get("X-Api-Key"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	factory := NewFactory(slog.Default())
	capability, err := factory.Create(map[string]any{
		"url":     server.URL,
		"headers": map[string]any{"X-Api-Key": "secret"},
		"payload": map[string]any{"event": "step_reached"},
	})
	require.NoError(t, err)

	summary, err := capability.Execute(context.Background(), "contact-1")
	require.NoError(t, err)

	assert.Contains(t, summary, "returned 200")
	assert.Equal(t, "contact-1", received["contact_id"])
	assert.Equal(t, "step_reached", received["event"])
}

func TestWebhookErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	factory := NewFactory(slog.Default())
	capability, err := factory.Create(map[string]any{"url": server.URL})
	require.NoError(t, err)

	_, err = capability.Execute(context.Background(), "contact-1")
	require.ErrorIs(t, err, ErrWebhookStatus)
}

func TestCreateRejectsInvalidConfig(t *testing.T) {
	factory := NewFactory(slog.Default())

	_, err := factory.Create(map[string]any{"url": "not a url"})
	require.Error(t, err)

	_, err = factory.Create(map[string]any{"url": "https://example.com", "method": "TRACE"})
	require.Error(t, err)
}
