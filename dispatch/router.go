// Package dispatch routes parsed requests against the wallet capability
// surface. The routing table is closed: every entry binds one path to one
// capability method, and unknown paths answer 404 without touching the
// capability. Dispatch never lets a failure escape as anything but a
// response envelope.
package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-wallet-bridge/core"
	"github.com/goliatone/go-wallet-bridge/envelope"
	"github.com/goliatone/go-wallet-bridge/wallet"
)

// Method is one bound capability operation.
type Method func(ctx context.Context, args json.RawMessage, originator string) (any, error)

// Option configures a Router.
type Option func(*Router)

// WithLogger sets the logger used for capability failures.
func WithLogger(logger core.Logger) Option {
	return func(r *Router) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Router dispatches requests to a fixed capability. Build one per attached
// wallet session.
type Router struct {
	routes map[string]Method
	logger core.Logger
}

// NewRouter binds the routing table to capability.
func NewRouter(capability wallet.Interface, opts ...Option) *Router {
	router := &Router{
		routes: map[string]Method{
			"/createAction":                 capability.CreateAction,
			"/signAction":                   capability.SignAction,
			"/abortAction":                  capability.AbortAction,
			"/listActions":                  capability.ListActions,
			"/internalizeAction":            capability.InternalizeAction,
			"/listOutputs":                  capability.ListOutputs,
			"/relinquishOutput":             capability.RelinquishOutput,
			"/getPublicKey":                 capability.GetPublicKey,
			"/revealCounterpartyKeyLinkage": capability.RevealCounterpartyKeyLinkage,
			"/revealSpecificKeyLinkage":     capability.RevealSpecificKeyLinkage,
			"/encrypt":                      capability.Encrypt,
			"/decrypt":                      capability.Decrypt,
			"/createHmac":                   capability.CreateHmac,
			"/verifyHmac":                   capability.VerifyHmac,
			"/createSignature":              capability.CreateSignature,
			"/verifySignature":              capability.VerifySignature,
			"/acquireCertificate":           capability.AcquireCertificate,
			"/listCertificates":             capability.ListCertificates,
			"/proveCertificate":             capability.ProveCertificate,
			"/relinquishCertificate":        capability.RelinquishCertificate,
			"/discoverByIdentityKey":        capability.DiscoverByIdentityKey,
			"/discoverByAttributes":         capability.DiscoverByAttributes,
			"/isAuthenticated":              capability.IsAuthenticated,
			"/waitForAuthentication":        capability.WaitForAuthentication,
			"/getHeight":                    capability.GetHeight,
			"/getHeaderForHeight":           capability.GetHeaderForHeight,
			"/getNetwork":                   capability.GetNetwork,
			"/getVersion":                   capability.GetVersion,
		},
		logger: glog.Ensure(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(router)
		}
	}
	return router
}

// Operations lists every routed path, sorted.
func (r *Router) Operations() []string {
	paths := make([]string, 0, len(r.routes))
	for path := range r.routes {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Routed reports whether path resolves to a capability method.
func (r *Router) Routed(path string) bool {
	_, ok := r.routes[NormalizePath(path)]
	return ok
}

// Dispatch resolves one request to a response envelope. It answers 404 for
// unrouted paths, 400 for undecodable argument bodies, and normalizes
// capability failures so the status is 400 unless the capability classified
// the failure as internal.
func (r *Router) Dispatch(ctx context.Context, req envelope.Request, originator string) envelope.Response {
	path := NormalizePath(req.Path)
	method, ok := r.routes[path]
	if !ok {
		return r.rejection(req, unknownOperationError(path))
	}

	args, err := decodeArgs(req.Body)
	if err != nil {
		return r.rejection(req, err)
	}

	result, err := r.invoke(ctx, method, args, originator)
	if err != nil {
		return r.capabilityFailure(req, path, originator, err)
	}

	body, err := json.Marshal(result)
	if err != nil {
		r.logger.Error("wallet result serialization failed",
			"operation", path,
			"origin", originator,
			"error", err.Error(),
		)
		return r.rejection(req, serializationError(path))
	}

	return envelope.Response{
		RequestID: req.RequestID,
		Status:    200,
		Body:      string(body),
	}
}

func (r *Router) invoke(ctx context.Context, method Method, args json.RawMessage, originator string) (result any, err error) {
	defer func() {
		if recovered := recover(); recovered != nil {
			err = goerrors.New(fmt.Sprintf("wallet capability panicked: %v", recovered), goerrors.CategoryInternal).
				WithCode(500).
				WithTextCode(core.BridgeErrorInternal)
		}
	}()
	return method(ctx, args, originator)
}

// rejection renders a router-origin error. These always carry an explicit
// status and text code.
func (r *Router) rejection(req envelope.Request, err error) envelope.Response {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		richErr = core.BridgeErrorMapper(err)
	}
	return envelope.Response{
		RequestID: req.RequestID,
		Status:    richErr.Code,
		Body:      envelope.ErrorBody(richErr.Message, richErr.TextCode),
	}
}

// capabilityFailure renders a capability error. The body is structured when
// the capability supplied a machine-readable code, otherwise the plain
// message. The status stays 400 unless the failure is internal.
func (r *Router) capabilityFailure(req envelope.Request, path, originator string, err error) envelope.Response {
	r.logger.Error("wallet operation failed",
		"operation", path,
		"origin", originator,
		"error", err.Error(),
	)

	status := 400
	body := err.Error()

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		if richErr.Category == goerrors.CategoryInternal || richErr.Code >= 500 {
			status = 500
		}
		if strings.TrimSpace(richErr.TextCode) != "" {
			body = envelope.ErrorBody(richErr.Message, richErr.TextCode)
		}
	}

	return envelope.Response{
		RequestID: req.RequestID,
		Status:    status,
		Body:      body,
	}
}

func decodeArgs(body string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return nil, nil
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, invalidArgumentsError()
	}
	return json.RawMessage(trimmed), nil
}

// NormalizePath strips query and fragment so routing sees the bare path.
func NormalizePath(path string) string {
	trimmed := strings.TrimSpace(path)
	if index := strings.IndexAny(trimmed, "?#"); index >= 0 {
		trimmed = trimmed[:index]
	}
	return trimmed
}
