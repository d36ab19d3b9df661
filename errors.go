package bridge

import (
	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-wallet-bridge/core"
)

// queueFullError is the synchronous admission rejection. The caller never
// blocks on a full queue.
func queueFullError() error {
	return goerrors.New("admission queue is full", goerrors.CategoryRateLimit).
		WithCode(429).
		WithTextCode(core.BridgeErrorQueueFull)
}

// supersededError answers work admitted under a session token that is no
// longer current when the task runs.
func supersededError() error {
	return goerrors.New("wallet session superseded before execution", goerrors.CategoryConflict).
		WithCode(409).
		WithTextCode(core.BridgeErrorSessionSuperseded)
}
