package registry

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/driftmail/automata/pkg/protocol"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCapability struct {
	summary string
}

func (c *stubCapability) Execute(_ context.Context, _ string) (string, error) {
	return c.summary, nil
}

type stubFactory struct {
	id  string
	err error
}

func (f *stubFactory) ID() string { return f.id }

func (f *stubFactory) Create(config map[string]any) (protocol.Capability, error) {
	if f.err != nil {
		return nil, f.err
	}

	summary, _ := config["summary"].(string)

	return &stubCapability{summary: summary}, nil
}

func newTestRegistry() *Registry {
	return NewRegistry(slog.New(slog.NewTextHandler(os.Stdout, nil)))
}

func TestRegistry_CreateRegisteredCapability(t *testing.T) {
	reg := newTestRegistry()
	reg.Register(&stubFactory{id: "add_tag"})

	capability, err := reg.Create("add_tag", map[string]any{"summary": "tagged"})
	require.NoError(t, err)

	summary, err := capability.Execute(context.Background(), "contact-1")
	require.NoError(t, err)
	assert.Equal(t, "tagged", summary)
}

func TestRegistry_CreateUnknownType(t *testing.T) {
	reg := newTestRegistry()

	_, err := reg.Create("launch_rocket", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not registered")
}

func TestRegistry_CreatePropagatesConfigErrors(t *testing.T) {
	reg := newTestRegistry()
	configErr := errors.New("missing template")
	reg.Register(&stubFactory{id: "send_email", err: configErr})

	_, err := reg.Create("send_email", nil)
	assert.ErrorIs(t, err, configErr)
}

func TestRegistry_HealthCheck(t *testing.T) {
	reg := newTestRegistry()

	_, ok := reg.HealthCheck()
	assert.False(t, ok)

	reg.Register(&stubFactory{id: "add_tag"})

	msg, ok := reg.HealthCheck()
	assert.True(t, ok)
	assert.Contains(t, msg, "1 capabilities")
}
