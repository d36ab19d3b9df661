package transport

import (
	"context"
	"testing"
)

func TestLoopback_DeliversToSubscribers(t *testing.T) {
	bus := NewLoopback()

	received := make([][]byte, 0, 2)
	if _, err := bus.Subscribe(EventHTTPRequest, func(_ context.Context, payload []byte) {
		received = append(received, payload)
	}); err != nil {
		t.Fatalf("expected subscribe to succeed, got %v", err)
	}

	if err := bus.Emit(context.Background(), EventHTTPRequest, []byte(`{"request_id":1}`)); err != nil {
		t.Fatalf("expected emit to succeed, got %v", err)
	}
	if err := bus.Emit(context.Background(), EventTSResponse, []byte(`{"request_id":1}`)); err != nil {
		t.Fatalf("expected emit on other event to succeed, got %v", err)
	}

	if len(received) != 1 {
		t.Fatalf("expected one delivery on subscribed event, got %d", len(received))
	}
	if string(received[0]) != `{"request_id":1}` {
		t.Fatalf("expected payload passthrough, got %s", received[0])
	}
}

func TestLoopback_DetachStopsDelivery(t *testing.T) {
	bus := NewLoopback()

	delivered := 0
	detach, err := bus.Subscribe(EventHTTPRequest, func(context.Context, []byte) {
		delivered++
	})
	if err != nil {
		t.Fatalf("expected subscribe to succeed, got %v", err)
	}

	if err := bus.Emit(context.Background(), EventHTTPRequest, nil); err != nil {
		t.Fatalf("expected emit to succeed, got %v", err)
	}

	detach()
	detach()

	if err := bus.Emit(context.Background(), EventHTTPRequest, nil); err != nil {
		t.Fatalf("expected emit after detach to succeed, got %v", err)
	}

	if delivered != 1 {
		t.Fatalf("expected exactly one delivery before detach, got %d", delivered)
	}
}

func TestLoopback_IndependentSubscribersBothDeliver(t *testing.T) {
	bus := NewLoopback()

	first := 0
	second := 0
	if _, err := bus.Subscribe(EventTSResponse, func(context.Context, []byte) { first++ }); err != nil {
		t.Fatalf("expected subscribe to succeed, got %v", err)
	}
	if _, err := bus.Subscribe(EventTSResponse, func(context.Context, []byte) { second++ }); err != nil {
		t.Fatalf("expected subscribe to succeed, got %v", err)
	}

	if err := bus.Emit(context.Background(), EventTSResponse, []byte(`{}`)); err != nil {
		t.Fatalf("expected emit to succeed, got %v", err)
	}

	if first != 1 || second != 1 {
		t.Fatalf("expected both subscribers delivered once, got %d and %d", first, second)
	}
}
