package transport

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
)

// DeliveryHeader lets the sending side tag each delivery with a stable id so
// redeliveries can be acknowledged without dispatching twice.
const DeliveryHeader = "X-Bridge-Delivery"

const (
	defaultReceiverMaxBody int64 = 1 << 20
	defaultDeliveryWindow        = 10 * time.Minute
)

// Dispatcher is the inbound half of a split bus: something that can hand a
// received event to local subscribers. *Webhook satisfies it.
type Dispatcher interface {
	Dispatch(ctx context.Context, event string, payload []byte) error
}

// Receiver terminates the peer's webhook deliveries: verify the signature,
// drop redeliveries inside the window, and dispatch the event onto the bus.
// It serves plain HTTP; mount it wherever the host routes the hook path.
type Receiver struct {
	bus     Dispatcher
	secret  string
	maxBody int64
	accept  map[string]bool
	seen    *deliveryLog
}

type ReceiverOption func(*Receiver)

// WithReceiverSecret requires a valid signature on every delivery.
func WithReceiverSecret(secret string) ReceiverOption {
	return func(r *Receiver) {
		r.secret = strings.TrimSpace(secret)
	}
}

func WithReceiverMaxBody(limit int64) ReceiverOption {
	return func(r *Receiver) {
		if limit > 0 {
			r.maxBody = limit
		}
	}
}

// WithAcceptedEvents restricts which events the peer may inject. Without it
// every well-formed delivery dispatches.
func WithAcceptedEvents(events ...string) ReceiverOption {
	return func(r *Receiver) {
		for _, event := range events {
			event = strings.TrimSpace(event)
			if event == "" {
				continue
			}
			r.accept[event] = true
		}
	}
}

// WithDeliveryWindow sets how long a delivery id is remembered for dedupe.
func WithDeliveryWindow(window time.Duration) ReceiverOption {
	return func(r *Receiver) {
		if window > 0 {
			r.seen.window = window
		}
	}
}

func NewReceiver(bus Dispatcher, opts ...ReceiverOption) (*Receiver, error) {
	if bus == nil {
		return nil, transportError(
			"transport: receiver bus is required",
			goerrors.CategoryInternal,
			http.StatusInternalServerError,
			nil,
		)
	}
	receiver := &Receiver{
		bus:     bus,
		maxBody: defaultReceiverMaxBody,
		accept:  map[string]bool{},
		seen:    newDeliveryLog(defaultDeliveryWindow),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(receiver)
	}
	return receiver, nil
}

func (rc *Receiver) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, rc.maxBody+1))
	if err != nil {
		http.Error(w, "read delivery body", http.StatusBadRequest)
		return
	}
	if int64(len(body)) > rc.maxBody {
		http.Error(w, "delivery body too large", http.StatusRequestEntityTooLarge)
		return
	}

	if rc.secret != "" {
		if err := VerifySignature(rc.secret, r.Header.Get(SignatureHeader), body); err != nil {
			http.Error(w, "signature verification failed", http.StatusUnauthorized)
			return
		}
	}

	var msg webhookMessage
	if err := json.Unmarshal(body, &msg); err != nil {
		http.Error(w, "malformed delivery", http.StatusBadRequest)
		return
	}
	event := strings.TrimSpace(msg.Event)
	if event == "" {
		http.Error(w, "event name is required", http.StatusBadRequest)
		return
	}
	if len(rc.accept) > 0 && !rc.accept[event] {
		http.Error(w, "unknown event", http.StatusNotFound)
		return
	}

	if delivery := strings.TrimSpace(r.Header.Get(DeliveryHeader)); delivery != "" {
		if !rc.seen.remember(delivery) {
			writeReceiverAck(w, http.StatusOK, true)
			return
		}
	}

	if err := rc.bus.Dispatch(r.Context(), event, []byte(msg.Payload)); err != nil {
		http.Error(w, "event dispatch failed", http.StatusBadGateway)
		return
	}
	writeReceiverAck(w, http.StatusAccepted, false)
}

func writeReceiverAck(w http.ResponseWriter, status int, deduped bool) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	ack := map[string]any{"accepted": true}
	if deduped {
		ack["deduped"] = true
	}
	_ = json.NewEncoder(w).Encode(ack)
}

// deliveryLog remembers delivery ids for one window. Expired entries are
// evicted on insert.
type deliveryLog struct {
	mu      sync.Mutex
	window  time.Duration
	entries map[string]time.Time
	now     func() time.Time
}

func newDeliveryLog(window time.Duration) *deliveryLog {
	return &deliveryLog{
		window:  window,
		entries: map[string]time.Time{},
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

// remember reports whether the id is new inside the window, recording it
// when it is.
func (l *deliveryLog) remember(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for key, seenAt := range l.entries {
		if now.Sub(seenAt) >= l.window {
			delete(l.entries, key)
		}
	}
	if seenAt, ok := l.entries[id]; ok && now.Sub(seenAt) < l.window {
		return false
	}
	l.entries[id] = now
	return true
}
