package httpingress

import (
	"testing"
	"time"

	"github.com/goliatone/go-wallet-bridge/envelope"
)

func TestPendingMap_ResolveDeliversOnce(t *testing.T) {
	pending := NewPendingMap()
	base := time.Unix(1_700_000_000, 0).UTC()
	waiter := pending.Register(9, base)

	if !pending.Resolve(9, envelope.Response{RequestID: 9, Status: 200, Body: "ok"}) {
		t.Fatalf("expected resolve to find the entry")
	}
	resp, ok := <-waiter
	if !ok {
		t.Fatalf("expected a delivered response")
	}
	if resp.Status != 200 || resp.Body != "ok" {
		t.Fatalf("expected the resolved response, got %+v", resp)
	}

	if pending.Resolve(9, envelope.Response{RequestID: 9}) {
		t.Fatalf("expected a duplicate resolve to miss")
	}
	if got := pending.Len(); got != 0 {
		t.Fatalf("expected an empty map, got %d", got)
	}
}

func TestPendingMap_AbandonClosesChannel(t *testing.T) {
	pending := NewPendingMap()
	waiter := pending.Register(4, time.Unix(1_700_000_000, 0).UTC())

	pending.Abandon(4)
	if _, ok := <-waiter; ok {
		t.Fatalf("expected the waiter channel to close without a value")
	}

	pending.Abandon(4)
	if got := pending.Len(); got != 0 {
		t.Fatalf("expected an empty map, got %d", got)
	}
}

func TestPendingMap_SweepExpiresOldEntries(t *testing.T) {
	pending := NewPendingMap()
	base := time.Unix(1_700_000_000, 0).UTC()
	old := pending.Register(1, base)
	fresh := pending.Register(2, base.Add(30*time.Second))

	if swept := pending.Sweep(base.Add(10 * time.Second)); swept != 1 {
		t.Fatalf("expected 1 swept entry, got %d", swept)
	}
	if _, ok := <-old; ok {
		t.Fatalf("expected the old waiter to be abandoned")
	}
	if !pending.Resolve(2, envelope.Response{RequestID: 2, Status: 200}) {
		t.Fatalf("expected the fresh entry to survive the sweep")
	}
	if resp := <-fresh; resp.Status != 200 {
		t.Fatalf("expected the fresh waiter to resolve, got %+v", resp)
	}
}

func TestPendingMap_CloseAbandonsAll(t *testing.T) {
	pending := NewPendingMap()
	base := time.Unix(1_700_000_000, 0).UTC()
	first := pending.Register(1, base)
	second := pending.Register(2, base)

	pending.Close()

	if _, ok := <-first; ok {
		t.Fatalf("expected the first waiter to be abandoned")
	}
	if _, ok := <-second; ok {
		t.Fatalf("expected the second waiter to be abandoned")
	}
	if got := pending.Len(); got != 0 {
		t.Fatalf("expected an empty map, got %d", got)
	}
}
