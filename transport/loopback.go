package transport

import (
	"context"
	"sync"

	"github.com/goliatone/go-wallet-bridge/core"
)

// Loopback is the in-process event bus. Emit delivers synchronously to the
// handlers subscribed at that moment; events with no subscribers are dropped
// without error, matching the best-effort contract of the outbound channel.
type Loopback struct {
	mu       sync.RWMutex
	handlers map[string]map[int]func(ctx context.Context, payload []byte)
	next     int
}

func NewLoopback() *Loopback {
	return &Loopback{
		handlers: map[string]map[int]func(ctx context.Context, payload []byte){},
	}
}

func (l *Loopback) Emit(ctx context.Context, event string, payload []byte) error {
	l.mu.RLock()
	handlers := make([]func(ctx context.Context, payload []byte), 0, len(l.handlers[event]))
	for _, handler := range l.handlers[event] {
		handlers = append(handlers, handler)
	}
	l.mu.RUnlock()

	for _, handler := range handlers {
		handler(ctx, append([]byte(nil), payload...))
	}
	return nil
}

func (l *Loopback) Subscribe(event string, handler func(ctx context.Context, payload []byte)) (core.DetachFunc, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.handlers[event] == nil {
		l.handlers[event] = map[int]func(ctx context.Context, payload []byte){}
	}
	id := l.next
	l.next++
	l.handlers[event][id] = handler

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			delete(l.handlers[event], id)
		})
	}, nil
}

var _ core.Transport = (*Loopback)(nil)
