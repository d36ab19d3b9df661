package bridge

import (
	"context"
	"fmt"
	"reflect"

	bridgecommand "github.com/goliatone/go-wallet-bridge/command"
	"github.com/goliatone/go-wallet-bridge/core"
	"github.com/goliatone/go-wallet-bridge/manifest"
	bridgequery "github.com/goliatone/go-wallet-bridge/query"
	"github.com/goliatone/go-wallet-bridge/wallet"
)

// ControlSurface is the slice of the Bridge the command/query wrappers
// operate on. *Bridge satisfies it.
type ControlSurface interface {
	Activate(ctx context.Context, capability wallet.Interface) (uint64, error)
	Deactivate(ctx context.Context)
	HandleRaw(ctx context.Context, raw []byte)
	Config() core.Config
	Snapshot() core.BridgeStats
	CallLog() core.CallLogReader
	Origins() core.OriginDirectory
}

type Commands struct {
	ActivateSession   *bridgecommand.ActivateSessionCommand
	DeactivateSession *bridgecommand.DeactivateSessionCommand
	SubmitRequest     *bridgecommand.SubmitRequestCommand
	FetchManifest     *bridgecommand.FetchManifestCommand
	SetOriginStatus   *bridgecommand.SetOriginStatusCommand
}

type Queries struct {
	Stats       *bridgequery.StatsQuery
	ListCallLog *bridgequery.ListCallLogQuery
	ListOrigins *bridgequery.ListOriginsQuery
	GetOrigin   *bridgequery.GetOriginQuery
}

// Facade bundles the message-driven control surface around one bridge.
type Facade struct {
	surface  ControlSurface
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	fetcher       bridgecommand.ManifestFetcher
	callLogReader bridgequery.CallLogReader
	origins       core.OriginDirectory
	stores        any
}

// WithManifestFetcher overrides the fetcher behind the manifest command.
func WithManifestFetcher(fetcher bridgecommand.ManifestFetcher) FacadeOption {
	return func(options *facadeOptions) {
		options.fetcher = fetcher
	}
}

// WithFacadeCallLogReader overrides the reader behind the call log query.
func WithFacadeCallLogReader(reader bridgequery.CallLogReader) FacadeOption {
	return func(options *facadeOptions) {
		options.callLogReader = reader
	}
}

// WithFacadeOriginDirectory overrides the directory behind the origin
// command and queries.
func WithFacadeOriginDirectory(directory core.OriginDirectory) FacadeOption {
	return func(options *facadeOptions) {
		options.origins = directory
	}
}

// WithStores supplies a repository factory the facade may mine for readers
// the surface does not expose, via its CallLog() and Origins() methods.
func WithStores(factory any) FacadeOption {
	return func(options *facadeOptions) {
		options.stores = factory
	}
}

func NewFacade(surface ControlSurface, opts ...FacadeOption) (*Facade, error) {
	if surface == nil {
		return nil, fmt.Errorf("bridge: control surface is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	fetcher := cfg.fetcher
	if fetcher == nil {
		fetcher = manifest.New(surface.Config().Manifest)
	}

	callLog := cfg.callLogReader
	if callLog == nil {
		if reader := surface.CallLog(); reader != nil {
			callLog = reader
		}
	}
	if callLog == nil {
		callLog = resolveCallLogReader(cfg.stores)
	}

	origins := cfg.origins
	if origins == nil {
		origins = surface.Origins()
	}
	if origins == nil {
		origins = resolveOriginDirectory(cfg.stores)
	}

	facade := &Facade{surface: surface}
	facade.commands = Commands{
		ActivateSession:   bridgecommand.NewActivateSessionCommand(surface),
		DeactivateSession: bridgecommand.NewDeactivateSessionCommand(surface),
		SubmitRequest:     bridgecommand.NewSubmitRequestCommand(surface),
		FetchManifest:     bridgecommand.NewFetchManifestCommand(fetcher),
		SetOriginStatus:   bridgecommand.NewSetOriginStatusCommand(origins),
	}
	facade.queries = Queries{
		Stats:       bridgequery.NewStatsQuery(surface),
		ListCallLog: bridgequery.NewListCallLogQuery(callLog),
		ListOrigins: bridgequery.NewListOriginsQuery(origins),
		GetOrigin:   bridgequery.NewGetOriginQuery(origins),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Surface() ControlSurface {
	if f == nil {
		return nil
	}
	return f.surface
}

func resolveCallLogReader(factory any) bridgequery.CallLogReader {
	candidate, ok := reflectZeroArgMethod(factory, "CallLog")
	if !ok {
		return nil
	}
	reader, ok := candidate.(bridgequery.CallLogReader)
	if !ok {
		return nil
	}
	return reader
}

func resolveOriginDirectory(factory any) core.OriginDirectory {
	candidate, ok := reflectZeroArgMethod(factory, "Origins")
	if !ok {
		return nil
	}
	directory, ok := candidate.(core.OriginDirectory)
	if !ok {
		return nil
	}
	return directory
}

// reflectZeroArgMethod calls a zero-argument single-result method by name,
// tolerating nil receivers and panicking accessors.
func reflectZeroArgMethod(target any, name string) (any, bool) {
	if target == nil {
		return nil, false
	}
	value := reflect.ValueOf(target)
	if !value.IsValid() {
		return nil, false
	}
	if value.Kind() == reflect.Ptr && value.IsNil() {
		return nil, false
	}
	method := value.MethodByName(name)
	if !method.IsValid() || method.Type().NumIn() != 0 || method.Type().NumOut() != 1 {
		return nil, false
	}

	results, ok := safeReflectCall(method)
	if !ok || len(results) != 1 {
		return nil, false
	}
	candidate := results[0]
	if !candidate.IsValid() {
		return nil, false
	}
	if candidate.Kind() == reflect.Ptr && candidate.IsNil() {
		return nil, false
	}
	return candidate.Interface(), true
}

func safeReflectCall(method reflect.Value) (_ []reflect.Value, ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return method.Call(nil), true
}
