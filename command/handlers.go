package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-wallet-bridge/core"
	"github.com/goliatone/go-wallet-bridge/manifest"
	"github.com/goliatone/go-wallet-bridge/wallet"
)

// SessionService is the slice of the bridge facade the session commands
// need.
type SessionService interface {
	Activate(ctx context.Context, capability wallet.Interface) (uint64, error)
	Deactivate(ctx context.Context)
}

type RequestInjector interface {
	HandleRaw(ctx context.Context, raw []byte)
}

type ManifestFetcher interface {
	Fetch(ctx context.Context, rawURL string) (manifest.Result, error)
}

type OriginAdministrator interface {
	SetStatus(ctx context.Context, origin string, status core.OriginStatus) error
}

// ActivationResult is stored on the go-command result collector when a
// session activates.
type ActivationResult struct {
	SessionToken uint64
}

type ActivateSessionCommand struct {
	service SessionService
}

func NewActivateSessionCommand(service SessionService) *ActivateSessionCommand {
	return &ActivateSessionCommand{service: service}
}

func (c *ActivateSessionCommand) Execute(ctx context.Context, msg ActivateSessionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: session service is required")
	}
	token, err := c.service.Activate(ctx, msg.Capability)
	if err != nil {
		return err
	}
	storeResult(ctx, ActivationResult{SessionToken: token})
	return nil
}

type DeactivateSessionCommand struct {
	service SessionService
}

func NewDeactivateSessionCommand(service SessionService) *DeactivateSessionCommand {
	return &DeactivateSessionCommand{service: service}
}

func (c *DeactivateSessionCommand) Execute(ctx context.Context, _ DeactivateSessionMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: session service is required")
	}
	c.service.Deactivate(ctx)
	return nil
}

// SubmitRequestCommand accepts the payload into the relay. Outcomes travel
// on the response event stream, not the command result: a malformed payload
// still "succeeds" here and answers with an error envelope on the bus.
type SubmitRequestCommand struct {
	injector RequestInjector
}

func NewSubmitRequestCommand(injector RequestInjector) *SubmitRequestCommand {
	return &SubmitRequestCommand{injector: injector}
}

func (c *SubmitRequestCommand) Execute(ctx context.Context, msg SubmitRequestMessage) error {
	if c == nil || c.injector == nil {
		return commandDependencyError("command: request injector is required")
	}
	c.injector.HandleRaw(ctx, msg.Payload)
	return nil
}

type FetchManifestCommand struct {
	fetcher ManifestFetcher
}

func NewFetchManifestCommand(fetcher ManifestFetcher) *FetchManifestCommand {
	return &FetchManifestCommand{fetcher: fetcher}
}

func (c *FetchManifestCommand) Execute(ctx context.Context, msg FetchManifestMessage) error {
	if c == nil || c.fetcher == nil {
		return commandDependencyError("command: manifest fetcher is required")
	}
	out, err := c.fetcher.Fetch(ctx, msg.URL)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type SetOriginStatusCommand struct {
	origins OriginAdministrator
}

func NewSetOriginStatusCommand(origins OriginAdministrator) *SetOriginStatusCommand {
	return &SetOriginStatusCommand{origins: origins}
}

func (c *SetOriginStatusCommand) Execute(ctx context.Context, msg SetOriginStatusMessage) error {
	if c == nil || c.origins == nil {
		return commandDependencyError("command: origin directory is required")
	}
	return c.origins.SetStatus(ctx, msg.Origin, msg.Status)
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
