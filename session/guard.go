// Package session tracks bridge activation epochs. Deferred work records the
// token current at enqueue time and short-circuits when a newer activation
// has superseded it.
package session

import (
	"sync"

	"github.com/goliatone/go-wallet-bridge/core"
)

// Guard owns the activation counter and the transport detach hook for the
// currently attached listener. At most one listener is attached at a time.
type Guard struct {
	mu     sync.Mutex
	token  uint64
	detach core.DetachFunc
}

// NewGuard returns a guard with no active session. The first Activate call
// yields token 1.
func NewGuard() *Guard {
	return &Guard{}
}

// Activate detaches any previous listener, advances the session token, and
// runs attach with the new token to install the next listener. The token
// advances even when attach fails so work queued against the torn-down
// session cannot run.
func (g *Guard) Activate(attach func(token uint64) (core.DetachFunc, error)) (uint64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.detachLocked()
	g.token++

	detach, err := attach(g.token)
	if err != nil {
		return g.token, err
	}
	g.detach = detach
	return g.token, nil
}

// Deactivate detaches the current listener and invalidates outstanding
// tokens without starting a new session. Work already admitted observes the
// mismatch and short-circuits instead of touching a torn-down capability.
func (g *Guard) Deactivate() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.detach == nil {
		return
	}
	g.detachLocked()
	g.token++
}

func (g *Guard) detachLocked() {
	if g.detach == nil {
		return
	}
	g.detach()
	g.detach = nil
}

// Current returns the live session token.
func (g *Guard) Current() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.token
}

// Valid reports whether a recorded token still matches the live session.
func (g *Guard) Valid(token uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return token == g.token && token != 0
}

// Active reports whether a transport listener is currently attached.
func (g *Guard) Active() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.detach != nil
}
