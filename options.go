package bridge

import (
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-wallet-bridge/core"
	"github.com/goliatone/go-wallet-bridge/transport"
)

// ErrorMapper normalizes arbitrary errors into the bridge envelope.
type ErrorMapper func(err error) *goerrors.Error

type bridgeBuilder struct {
	runtimeConfig   core.Config
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	metricsRecorder core.MetricsRecorder
	errorMapper     ErrorMapper
	configProvider  core.ConfigProvider
	optionsResolver core.OptionsResolver
	transport       core.Transport
	callSink        core.CallSink
	originDirectory core.OriginDirectory
	callLogReader   core.CallLogReader
	now             func() time.Time
}

// Option configures a Bridge at construction time.
type Option func(*bridgeBuilder)

func WithLogger(logger core.Logger) Option {
	return func(b *bridgeBuilder) {
		b.logger = logger
	}
}

func WithLoggerProvider(provider core.LoggerProvider) Option {
	return func(b *bridgeBuilder) {
		b.loggerProvider = provider
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) Option {
	return func(b *bridgeBuilder) {
		b.metricsRecorder = recorder
	}
}

func WithErrorMapper(mapper ErrorMapper) Option {
	return func(b *bridgeBuilder) {
		b.errorMapper = mapper
	}
}

func WithConfigProvider(provider core.ConfigProvider) Option {
	return func(b *bridgeBuilder) {
		b.configProvider = provider
	}
}

func WithOptionsResolver(resolver core.OptionsResolver) Option {
	return func(b *bridgeBuilder) {
		b.optionsResolver = resolver
	}
}

// WithTransport sets the event bus carrying http-request and ts-response
// events. Defaults to the in-process loopback.
func WithTransport(bus core.Transport) Option {
	return func(b *bridgeBuilder) {
		b.transport = bus
	}
}

// WithCallSink sets the ledger sink for dispatched call outcomes.
func WithCallSink(sink core.CallSink) Option {
	return func(b *bridgeBuilder) {
		b.callSink = sink
	}
}

// WithOriginDirectory sets the directory tracking canonical origins.
func WithOriginDirectory(directory core.OriginDirectory) Option {
	return func(b *bridgeBuilder) {
		b.originDirectory = directory
	}
}

// WithCallLogReader exposes the persisted call ledger on the query surface.
func WithCallLogReader(reader core.CallLogReader) Option {
	return func(b *bridgeBuilder) {
		b.callLogReader = reader
	}
}

// WithClock injects the time source used for durations and record stamps.
func WithClock(now func() time.Time) Option {
	return func(b *bridgeBuilder) {
		if now != nil {
			b.now = now
		}
	}
}

func defaultBridgeBuilder(runtime core.Config) bridgeBuilder {
	loggerProvider, logger := glog.Resolve("bridge", nil, nil)
	return bridgeBuilder{
		runtimeConfig:   runtime,
		loggerProvider:  loggerProvider,
		logger:          logger,
		metricsRecorder: core.NopMetricsRecorder{},
		errorMapper:     core.BridgeErrorMapper,
		configProvider:  core.NewCfgxConfigProvider(nil),
		optionsResolver: core.GoOptionsResolver{},
		callSink:        core.NopCallSink{},
		now: func() time.Time {
			return time.Now().UTC()
		},
	}
}

func defaultTransport() (core.Transport, error) {
	return transport.NewDefaultRegistry().Build(transport.KindLoopback, nil)
}
