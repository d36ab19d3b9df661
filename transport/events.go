// Package transport carries bridge events between the ingress surface and
// the wallet session. Implementations are registered by kind; the loopback
// bus is the default for single-process deployments.
package transport

// Event names on the bridge channel. Inbound requests arrive on
// EventHTTPRequest, correlated replies leave on EventTSResponse.
const (
	EventHTTPRequest = "http-request"
	EventTSResponse  = "ts-response"
)

// KindLoopback is the in-process bus registered by default.
const KindLoopback = "loopback"
