package devkit

import (
	"context"
	"sync"

	"github.com/goliatone/go-wallet-bridge/core"
)

// EmittedEvent is one event captured from the outbound channel.
type EmittedEvent struct {
	Event   string
	Payload []byte
}

// CaptureTransport is an in-memory transport. Inbound events are delivered
// synchronously to subscribed handlers, outbound emits are recorded for
// inspection. Emit and Subscribe can be scripted to fail.
type CaptureTransport struct {
	mu           sync.Mutex
	handlers     map[string]map[int]func(ctx context.Context, payload []byte)
	nextHandler  int
	emitted      []EmittedEvent
	emitErr      error
	subscribeErr error
}

func NewCaptureTransport() *CaptureTransport {
	return &CaptureTransport{
		handlers: map[string]map[int]func(ctx context.Context, payload []byte){},
	}
}

// FailEmitsWith makes every following Emit return err. Pass nil to restore
// normal behavior.
func (t *CaptureTransport) FailEmitsWith(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.emitErr = err
}

// FailSubscribeWith makes every following Subscribe return err.
func (t *CaptureTransport) FailSubscribeWith(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribeErr = err
}

func (t *CaptureTransport) Emit(_ context.Context, event string, payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.emitErr != nil {
		return t.emitErr
	}
	t.emitted = append(t.emitted, EmittedEvent{
		Event:   event,
		Payload: append([]byte(nil), payload...),
	})
	return nil
}

func (t *CaptureTransport) Subscribe(event string, handler func(ctx context.Context, payload []byte)) (core.DetachFunc, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.subscribeErr != nil {
		return nil, t.subscribeErr
	}

	if t.handlers[event] == nil {
		t.handlers[event] = map[int]func(ctx context.Context, payload []byte){}
	}
	id := t.nextHandler
	t.nextHandler++
	t.handlers[event][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			t.mu.Lock()
			defer t.mu.Unlock()
			delete(t.handlers[event], id)
		})
	}, nil
}

// Deliver fans one inbound event out to current subscribers, synchronously.
func (t *CaptureTransport) Deliver(ctx context.Context, event string, payload []byte) {
	t.mu.Lock()
	handlers := make([]func(ctx context.Context, payload []byte), 0, len(t.handlers[event]))
	for _, handler := range t.handlers[event] {
		handlers = append(handlers, handler)
	}
	t.mu.Unlock()

	for _, handler := range handlers {
		handler(ctx, append([]byte(nil), payload...))
	}
}

// Emitted returns a copy of every captured outbound event in order.
func (t *CaptureTransport) Emitted() []EmittedEvent {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]EmittedEvent, 0, len(t.emitted))
	for _, event := range t.emitted {
		out = append(out, EmittedEvent{
			Event:   event.Event,
			Payload: append([]byte(nil), event.Payload...),
		})
	}
	return out
}

// EmittedFor filters captured events by name.
func (t *CaptureTransport) EmittedFor(event string) []EmittedEvent {
	out := []EmittedEvent{}
	for _, captured := range t.Emitted() {
		if captured.Event == event {
			out = append(out, captured)
		}
	}
	return out
}

// ActiveSubscriptions counts attached handlers across all events.
func (t *CaptureTransport) ActiveSubscriptions() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for _, handlers := range t.handlers {
		count += len(handlers)
	}
	return count
}

var _ core.Transport = (*CaptureTransport)(nil)
