package command

import (
	"strings"

	"github.com/goliatone/go-wallet-bridge/core"
	"github.com/goliatone/go-wallet-bridge/wallet"
)

const (
	TypeActivateSession   = "bridge.command.session.activate"
	TypeDeactivateSession = "bridge.command.session.deactivate"
	TypeSubmitRequest     = "bridge.command.request.submit"
	TypeFetchManifest     = "bridge.command.manifest.fetch"
	TypeSetOriginStatus   = "bridge.command.origin.set_status"
)

type ActivateSessionMessage struct {
	Capability wallet.Interface
}

func (ActivateSessionMessage) Type() string { return TypeActivateSession }

func (m ActivateSessionMessage) Validate() error {
	if m.Capability == nil {
		return commandValidationError("capability", "wallet capability is required")
	}
	return nil
}

type DeactivateSessionMessage struct{}

func (DeactivateSessionMessage) Type() string { return TypeDeactivateSession }

func (DeactivateSessionMessage) Validate() error { return nil }

// SubmitRequestMessage injects a raw inbound payload, bypassing the HTTP
// ingress. Native shells and loopback tests use it to feed the bridge
// directly.
type SubmitRequestMessage struct {
	Payload []byte
}

func (SubmitRequestMessage) Type() string { return TypeSubmitRequest }

func (m SubmitRequestMessage) Validate() error {
	if len(m.Payload) == 0 {
		return commandValidationError("payload", "payload is required")
	}
	return nil
}

type FetchManifestMessage struct {
	URL string
}

func (FetchManifestMessage) Type() string { return TypeFetchManifest }

func (m FetchManifestMessage) Validate() error {
	if strings.TrimSpace(m.URL) == "" {
		return commandValidationError("url", "manifest url is required")
	}
	return nil
}

type SetOriginStatusMessage struct {
	Origin string
	Status core.OriginStatus
}

func (SetOriginStatusMessage) Type() string { return TypeSetOriginStatus }

func (m SetOriginStatusMessage) Validate() error {
	if strings.TrimSpace(m.Origin) == "" {
		return commandValidationError("origin", "origin is required")
	}
	switch m.Status {
	case core.OriginStatusActive, core.OriginStatusBlocked:
		return nil
	default:
		return commandValidationError("status", "status must be active or blocked")
	}
}
