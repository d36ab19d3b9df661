// Package devkit provides in-memory fakes for exercising the bridge without
// a real wallet or transport. Tests and downstream consumers script wallet
// behavior per operation and inspect everything the bridge emitted.
package devkit

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/goliatone/go-wallet-bridge/wallet"
)

// WalletCall is one recorded capability invocation.
type WalletCall struct {
	Operation  string
	Args       json.RawMessage
	Originator string
}

// WalletHandler scripts a single operation.
type WalletHandler func(ctx context.Context, args json.RawMessage, originator string) (any, error)

// ScriptedWallet implements the full capability surface. Unscripted
// operations answer a canned success payload so tests only script what they
// assert on.
type ScriptedWallet struct {
	mu       sync.Mutex
	handlers map[string]WalletHandler
	results  map[string]any
	errs     map[string]error
	calls    []WalletCall
}

func NewScriptedWallet() *ScriptedWallet {
	return &ScriptedWallet{
		handlers: map[string]WalletHandler{},
		results:  map[string]any{},
		errs:     map[string]error{},
	}
}

// Script installs a handler for one operation, replacing any scripted result
// or error for it.
func (w *ScriptedWallet) Script(operation string, handler WalletHandler) *ScriptedWallet {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers[operation] = handler
	return w
}

// Return makes an operation answer the given result.
func (w *ScriptedWallet) Return(operation string, result any) *ScriptedWallet {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.results[operation] = result
	return w
}

// Fail makes an operation return the given error.
func (w *ScriptedWallet) Fail(operation string, err error) *ScriptedWallet {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.errs[operation] = err
	return w
}

// Calls returns a copy of every recorded invocation in order.
func (w *ScriptedWallet) Calls() []WalletCall {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	out := make([]WalletCall, 0, len(w.calls))
	for _, call := range w.calls {
		out = append(out, WalletCall{
			Operation:  call.Operation,
			Args:       append(json.RawMessage(nil), call.Args...),
			Originator: call.Originator,
		})
	}
	return out
}

// CallCount returns how many invocations hit the given operation.
func (w *ScriptedWallet) CallCount(operation string) int {
	w.mu.Lock()
	defer w.mu.Unlock()

	count := 0
	for _, call := range w.calls {
		if call.Operation == operation {
			count++
		}
	}
	return count
}

func (w *ScriptedWallet) invoke(ctx context.Context, operation string, args json.RawMessage, originator string) (any, error) {
	w.mu.Lock()
	w.calls = append(w.calls, WalletCall{
		Operation:  operation,
		Args:       append(json.RawMessage(nil), args...),
		Originator: originator,
	})
	handler := w.handlers[operation]
	err := w.errs[operation]
	result, scripted := w.results[operation]
	w.mu.Unlock()

	if handler != nil {
		return handler(ctx, args, originator)
	}
	if err != nil {
		return nil, err
	}
	if scripted {
		return result, nil
	}
	return map[string]any{"ok": true}, nil
}

func (w *ScriptedWallet) CreateAction(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "createAction", args, originator)
}

func (w *ScriptedWallet) SignAction(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "signAction", args, originator)
}

func (w *ScriptedWallet) AbortAction(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "abortAction", args, originator)
}

func (w *ScriptedWallet) ListActions(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "listActions", args, originator)
}

func (w *ScriptedWallet) InternalizeAction(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "internalizeAction", args, originator)
}

func (w *ScriptedWallet) ListOutputs(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "listOutputs", args, originator)
}

func (w *ScriptedWallet) RelinquishOutput(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "relinquishOutput", args, originator)
}

func (w *ScriptedWallet) GetPublicKey(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "getPublicKey", args, originator)
}

func (w *ScriptedWallet) RevealCounterpartyKeyLinkage(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "revealCounterpartyKeyLinkage", args, originator)
}

func (w *ScriptedWallet) RevealSpecificKeyLinkage(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "revealSpecificKeyLinkage", args, originator)
}

func (w *ScriptedWallet) Encrypt(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "encrypt", args, originator)
}

func (w *ScriptedWallet) Decrypt(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "decrypt", args, originator)
}

func (w *ScriptedWallet) CreateHmac(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "createHmac", args, originator)
}

func (w *ScriptedWallet) VerifyHmac(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "verifyHmac", args, originator)
}

func (w *ScriptedWallet) CreateSignature(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "createSignature", args, originator)
}

func (w *ScriptedWallet) VerifySignature(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "verifySignature", args, originator)
}

func (w *ScriptedWallet) AcquireCertificate(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "acquireCertificate", args, originator)
}

func (w *ScriptedWallet) ListCertificates(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "listCertificates", args, originator)
}

func (w *ScriptedWallet) ProveCertificate(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "proveCertificate", args, originator)
}

func (w *ScriptedWallet) RelinquishCertificate(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "relinquishCertificate", args, originator)
}

func (w *ScriptedWallet) DiscoverByIdentityKey(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "discoverByIdentityKey", args, originator)
}

func (w *ScriptedWallet) DiscoverByAttributes(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "discoverByAttributes", args, originator)
}

func (w *ScriptedWallet) IsAuthenticated(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "isAuthenticated", args, originator)
}

func (w *ScriptedWallet) WaitForAuthentication(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "waitForAuthentication", args, originator)
}

func (w *ScriptedWallet) GetHeight(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "getHeight", args, originator)
}

func (w *ScriptedWallet) GetHeaderForHeight(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "getHeaderForHeight", args, originator)
}

func (w *ScriptedWallet) GetNetwork(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "getNetwork", args, originator)
}

func (w *ScriptedWallet) GetVersion(ctx context.Context, args json.RawMessage, originator string) (any, error) {
	return w.invoke(ctx, "getVersion", args, originator)
}

var _ wallet.Interface = (*ScriptedWallet)(nil)
