// Package wallet declares the capability surface the bridge dispatches
// against. The set of operations is closed: the dispatcher routes only to
// methods declared here, and anything else answers 404 upstream.
package wallet

import (
	"context"
	"encoding/json"
)

// Interface is one wallet capability. Arguments stay raw JSON so
// implementations decide how much of the payload to decode, and results may
// be any JSON-serializable value. The originator is the canonical origin of
// the calling application and is the identity implementations authorize
// against.
type Interface interface {
	// Action lifecycle.
	CreateAction(ctx context.Context, args json.RawMessage, originator string) (any, error)
	SignAction(ctx context.Context, args json.RawMessage, originator string) (any, error)
	AbortAction(ctx context.Context, args json.RawMessage, originator string) (any, error)
	ListActions(ctx context.Context, args json.RawMessage, originator string) (any, error)
	InternalizeAction(ctx context.Context, args json.RawMessage, originator string) (any, error)

	// Output management.
	ListOutputs(ctx context.Context, args json.RawMessage, originator string) (any, error)
	RelinquishOutput(ctx context.Context, args json.RawMessage, originator string) (any, error)

	// Keys and crypto.
	GetPublicKey(ctx context.Context, args json.RawMessage, originator string) (any, error)
	RevealCounterpartyKeyLinkage(ctx context.Context, args json.RawMessage, originator string) (any, error)
	RevealSpecificKeyLinkage(ctx context.Context, args json.RawMessage, originator string) (any, error)
	Encrypt(ctx context.Context, args json.RawMessage, originator string) (any, error)
	Decrypt(ctx context.Context, args json.RawMessage, originator string) (any, error)
	CreateHmac(ctx context.Context, args json.RawMessage, originator string) (any, error)
	VerifyHmac(ctx context.Context, args json.RawMessage, originator string) (any, error)
	CreateSignature(ctx context.Context, args json.RawMessage, originator string) (any, error)
	VerifySignature(ctx context.Context, args json.RawMessage, originator string) (any, error)

	// Certificate lifecycle.
	AcquireCertificate(ctx context.Context, args json.RawMessage, originator string) (any, error)
	ListCertificates(ctx context.Context, args json.RawMessage, originator string) (any, error)
	ProveCertificate(ctx context.Context, args json.RawMessage, originator string) (any, error)
	RelinquishCertificate(ctx context.Context, args json.RawMessage, originator string) (any, error)

	// Identity discovery.
	DiscoverByIdentityKey(ctx context.Context, args json.RawMessage, originator string) (any, error)
	DiscoverByAttributes(ctx context.Context, args json.RawMessage, originator string) (any, error)

	// Authentication state.
	IsAuthenticated(ctx context.Context, args json.RawMessage, originator string) (any, error)
	WaitForAuthentication(ctx context.Context, args json.RawMessage, originator string) (any, error)

	// Chain queries.
	GetHeight(ctx context.Context, args json.RawMessage, originator string) (any, error)
	GetHeaderForHeight(ctx context.Context, args json.RawMessage, originator string) (any, error)
	GetNetwork(ctx context.Context, args json.RawMessage, originator string) (any, error)
	GetVersion(ctx context.Context, args json.RawMessage, originator string) (any, error)
}
