package httpingress

import (
	"sync"
	"time"

	"github.com/goliatone/go-wallet-bridge/envelope"
)

type pendingEntry struct {
	ch        chan envelope.Response
	createdAt time.Time
}

// PendingMap correlates allocated request ids with the HTTP handlers waiting
// on them. Each waiter owns one buffered channel, and an entry leaves the map
// exactly once: resolved with a response, abandoned by its handler, or
// expired by a sweep.
type PendingMap struct {
	mu      sync.Mutex
	entries map[int64]pendingEntry
}

func NewPendingMap() *PendingMap {
	return &PendingMap{entries: map[int64]pendingEntry{}}
}

// Register creates the waiter channel for id. The channel yields the
// correlated response, or closes without a value when the entry is abandoned
// or swept.
func (p *PendingMap) Register(id int64, at time.Time) <-chan envelope.Response {
	ch := make(chan envelope.Response, 1)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries[id] = pendingEntry{ch: ch, createdAt: at}
	return ch
}

// Resolve delivers resp to the waiter for id and removes the entry. Returns
// false when no entry exists; late and duplicate responses land here.
func (p *PendingMap) Resolve(id int64, resp envelope.Response) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[id]
	if !ok {
		return false
	}
	delete(p.entries, id)
	entry.ch <- resp
	return true
}

// Abandon drops the entry for id and closes its channel. No-op for unknown
// ids.
func (p *PendingMap) Abandon(id int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	entry, ok := p.entries[id]
	if !ok {
		return
	}
	delete(p.entries, id)
	close(entry.ch)
}

// Sweep abandons every entry registered before cutoff and reports how many.
func (p *PendingMap) Sweep(cutoff time.Time) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	swept := 0
	for id, entry := range p.entries {
		if entry.createdAt.Before(cutoff) {
			delete(p.entries, id)
			close(entry.ch)
			swept++
		}
	}
	return swept
}

// Close abandons every entry. Used at server shutdown so no handler waits
// forever.
func (p *PendingMap) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, entry := range p.entries {
		delete(p.entries, id)
		close(entry.ch)
	}
}

func (p *PendingMap) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}
