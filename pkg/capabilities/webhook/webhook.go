// Package webhook implements the webhook capability, notifying an external
// URL about the contact reaching this step.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/driftmail/automata/pkg/capabilities"
	"github.com/driftmail/automata/pkg/protocol"
)

const defaultTimeoutSeconds = 30

// ErrWebhookStatus is returned when the remote endpoint answers with a
// non-2xx status.
var ErrWebhookStatus = errors.New("webhook endpoint returned error status")

// Config is the typed form of a webhook action config.
type Config struct {
	URL     string            `json:"url"     validate:"required,url"`
	Method  string            `json:"method"  validate:"omitempty,oneof=GET POST PUT PATCH DELETE"`
	Headers map[string]string `json:"headers"`
	Payload map[string]any    `json:"payload"`
}

type Capability struct {
	client *http.Client
	config Config
	logger *slog.Logger
}

func (c *Capability) Execute(ctx context.Context, contactID string) (string, error) {
	method := c.config.Method
	if method == "" {
		method = http.MethodPost
	}

	body := map[string]any{
		"contact_id": contactID,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range c.config.Payload {
		body[k] = v
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.config.URL, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for key, value := range c.config.Headers {
		req.Header.Set(key, value)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("webhook request failed: %w", err)
	}

	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: %d from %s", ErrWebhookStatus, resp.StatusCode, c.config.URL)
	}

	c.logger.InfoContext(ctx, "Webhook delivered",
		"contact_id", contactID,
		"url", c.config.URL,
		"status_code", resp.StatusCode)

	return fmt.Sprintf("%s %s returned %d", method, c.config.URL, resp.StatusCode), nil
}

type Factory struct {
	client *http.Client
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	return &Factory{
		client: &http.Client{Timeout: defaultTimeoutSeconds * time.Second},
		logger: logger.With("module", "webhook"),
	}
}

func (f *Factory) ID() string {
	return "webhook"
}

func (f *Factory) Create(config map[string]any) (protocol.Capability, error) {
	var cfg Config
	if err := capabilities.DecodeConfig(config, &cfg); err != nil {
		return nil, err
	}

	cfg.Method = strings.ToUpper(cfg.Method)

	return &Capability{client: f.client, config: cfg, logger: f.logger}, nil
}
