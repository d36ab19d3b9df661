package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-wallet-bridge/core"
)

const KindWebhook = "webhook"

const defaultWebhookTimeout = 30 * time.Second

// Remote replies are drained but never delivered, the limit only bounds the
// read before closing.
const webhookReplyDrainLimit int64 = 64 << 10

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Webhook splits the bus across a process boundary. Events named in the
// forward set are POSTed to the remote endpoint as {"event","payload"} JSON;
// everything else fans out to local subscribers. The receiving side of the
// remote channel calls Dispatch when the peer posts an event back.
type Webhook struct {
	endpoint string
	client   HTTPDoer
	headers  map[string]string
	forward  map[string]bool
	secret   string
	local    *Loopback
}

type WebhookOption func(*Webhook)

func WithWebhookClient(client HTTPDoer) WebhookOption {
	return func(w *Webhook) {
		if client != nil {
			w.client = client
		}
	}
}

func WithWebhookHeaders(headers map[string]string) WebhookOption {
	return func(w *Webhook) {
		for key, value := range headers {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			w.headers[key] = strings.TrimSpace(value)
		}
	}
}

// WithForwardedEvents restricts which events cross to the remote endpoint.
// Without it every emitted event is forwarded.
func WithForwardedEvents(events ...string) WebhookOption {
	return func(w *Webhook) {
		for _, event := range events {
			event = strings.TrimSpace(event)
			if event == "" {
				continue
			}
			w.forward[event] = true
		}
	}
}

// WithWebhookSecret signs each delivery; the peer verifies it against the
// same shared secret.
func WithWebhookSecret(secret string) WebhookOption {
	return func(w *Webhook) {
		w.secret = strings.TrimSpace(secret)
	}
}

func NewWebhook(endpoint string, opts ...WebhookOption) (*Webhook, error) {
	endpoint = strings.TrimSpace(endpoint)
	parsed, err := url.Parse(endpoint)
	if err != nil {
		return nil, transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: invalid webhook endpoint",
			http.StatusBadRequest,
			map[string]any{"kind": KindWebhook, "endpoint": endpoint},
		)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, transportError(
			"transport: webhook endpoint must be http or https",
			goerrors.CategoryBadInput,
			http.StatusBadRequest,
			map[string]any{"kind": KindWebhook, "endpoint": endpoint},
		)
	}

	webhook := &Webhook{
		endpoint: parsed.String(),
		client:   &http.Client{Timeout: defaultWebhookTimeout},
		headers:  map[string]string{},
		forward:  map[string]bool{},
		local:    NewLoopback(),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(webhook)
	}
	return webhook, nil
}

func (w *Webhook) Emit(ctx context.Context, event string, payload []byte) error {
	if w == nil {
		return transportError(
			"transport: webhook is not configured",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			map[string]any{"kind": KindWebhook},
		)
	}
	if len(w.forward) > 0 && !w.forward[event] {
		return w.local.Emit(ctx, event, payload)
	}
	return w.post(ctx, event, payload)
}

func (w *Webhook) Subscribe(event string, handler func(ctx context.Context, payload []byte)) (core.DetachFunc, error) {
	if w == nil {
		return nil, transportError(
			"transport: webhook is not configured",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			map[string]any{"kind": KindWebhook},
		)
	}
	return w.local.Subscribe(event, handler)
}

// Dispatch hands an event received from the remote peer to local
// subscribers. The host's inbound HTTP handler is the expected caller.
func (w *Webhook) Dispatch(ctx context.Context, event string, payload []byte) error {
	if w == nil {
		return transportError(
			"transport: webhook is not configured",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			map[string]any{"kind": KindWebhook},
		)
	}
	return w.local.Emit(ctx, event, payload)
}

func (w *Webhook) post(ctx context.Context, event string, payload []byte) error {
	if ctx == nil {
		ctx = context.Background()
	}
	body, err := json.Marshal(webhookMessage{Event: event, Payload: normalizePayload(payload)})
	if err != nil {
		return transportWrapError(
			err,
			goerrors.CategoryInternal,
			"transport: encode webhook message",
			http.StatusInternalServerError,
			map[string]any{"kind": KindWebhook, "event": event},
		)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.endpoint, bytes.NewReader(body))
	if err != nil {
		return transportWrapError(
			err,
			goerrors.CategoryBadInput,
			"transport: create webhook request",
			http.StatusBadRequest,
			map[string]any{"kind": KindWebhook, "event": event},
		)
	}
	req.Header.Set("Content-Type", "application/json")
	for key, value := range w.headers {
		req.Header.Set(key, value)
	}
	if w.secret != "" {
		req.Header.Set(SignatureHeader, SignPayload(w.secret, body))
	}

	res, err := w.client.Do(req)
	if err != nil {
		return transportWrapError(
			err,
			goerrors.CategoryExternal,
			"transport: deliver webhook event",
			http.StatusBadGateway,
			map[string]any{"kind": KindWebhook, "event": event, "endpoint": w.endpoint},
		)
	}
	defer res.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(res.Body, webhookReplyDrainLimit))

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return transportError(
			fmt.Sprintf("transport: webhook endpoint answered %d", res.StatusCode),
			goerrors.CategoryExternal,
			http.StatusBadGateway,
			map[string]any{
				"kind":        KindWebhook,
				"event":       event,
				"endpoint":    w.endpoint,
				"status_code": res.StatusCode,
			},
		)
	}
	return nil
}

// buildWebhookFromConfig backs the registry factory for the webhook kind.
// Recognized keys: endpoint (string, required), forward_events (string
// list), headers (string map), secret (string).
func buildWebhookFromConfig(config map[string]any) (core.Transport, error) {
	endpoint, _ := config["endpoint"].(string)
	opts := []WebhookOption{}

	if secret, ok := config["secret"].(string); ok {
		opts = append(opts, WithWebhookSecret(secret))
	}

	switch events := config["forward_events"].(type) {
	case []string:
		opts = append(opts, WithForwardedEvents(events...))
	case []any:
		names := make([]string, 0, len(events))
		for _, event := range events {
			names = append(names, fmt.Sprint(event))
		}
		opts = append(opts, WithForwardedEvents(names...))
	}

	switch headers := config["headers"].(type) {
	case map[string]string:
		opts = append(opts, WithWebhookHeaders(headers))
	case map[string]any:
		flat := make(map[string]string, len(headers))
		for key, value := range headers {
			flat[key] = fmt.Sprint(value)
		}
		opts = append(opts, WithWebhookHeaders(flat))
	}

	return NewWebhook(endpoint, opts...)
}

type webhookMessage struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// normalizePayload keeps JSON payloads verbatim and quotes anything else so
// the wire message stays valid JSON.
func normalizePayload(payload []byte) json.RawMessage {
	if len(payload) == 0 {
		return nil
	}
	if json.Valid(payload) {
		return json.RawMessage(payload)
	}
	quoted, err := json.Marshal(string(payload))
	if err != nil {
		return nil
	}
	return json.RawMessage(quoted)
}

var _ core.Transport = (*Webhook)(nil)
