// Package bridge relays wallet requests between an untrusted ingress surface
// and a trusted wallet capability. Inbound http-request events are parsed,
// stamped with a canonical origin, admitted through a bounded queue, and
// dispatched against a closed operation table; every correlatable outcome
// emits exactly one ts-response event.
package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-wallet-bridge/admission"
	"github.com/goliatone/go-wallet-bridge/core"
	"github.com/goliatone/go-wallet-bridge/dispatch"
	"github.com/goliatone/go-wallet-bridge/envelope"
	"github.com/goliatone/go-wallet-bridge/origin"
	"github.com/goliatone/go-wallet-bridge/session"
	"github.com/goliatone/go-wallet-bridge/transport"
	"github.com/goliatone/go-wallet-bridge/wallet"
)

// Bridge owns one admission queue, one session guard, and the transport
// subscription for the currently attached wallet.
type Bridge struct {
	config          core.Config
	logger          core.Logger
	loggerProvider  core.LoggerProvider
	metricsRecorder core.MetricsRecorder
	errorMapper     ErrorMapper
	transport       core.Transport
	guard           *session.Guard
	queue           *admission.Queue
	callSink        core.CallSink
	originDirectory core.OriginDirectory
	callLogReader   core.CallLogReader
	now             func() time.Time

	mu           sync.Mutex
	router       *dispatch.Router
	sessionToken uint64
}

// New builds a Bridge from configuration and options. Configuration resolves
// through three layers: library defaults, the config provider, and the
// runtime values passed here, lowest to highest precedence.
func New(cfg core.Config, opts ...Option) (*Bridge, error) {
	builder := defaultBridgeBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("bridge", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("bridge"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorMapper == nil {
		builder.errorMapper = core.BridgeErrorMapper
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = core.NopMetricsRecorder{}
	}
	if builder.configProvider == nil {
		builder.configProvider = core.NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = core.GoOptionsResolver{}
	}
	if builder.callSink == nil {
		builder.callSink = core.NopCallSink{}
	}
	if builder.now == nil {
		builder.now = func() time.Time { return time.Now().UTC() }
	}

	defaults := core.DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	bus := builder.transport
	if bus == nil {
		bus, err = defaultTransport()
		if err != nil {
			return nil, mapBuildError(builder.errorMapper, err)
		}
	}

	return &Bridge{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorMapper:     builder.errorMapper,
		transport:       bus,
		guard:           session.NewGuard(),
		queue: admission.New(
			finalConfig.Admission.Concurrency,
			finalConfig.Admission.Backlog,
			admission.WithLogger(logger),
		),
		callSink:        builder.callSink,
		originDirectory: builder.originDirectory,
		callLogReader:   builder.callLogReader,
		now:             builder.now,
	}, nil
}

// Setup is an alias for New.
func Setup(cfg core.Config, opts ...Option) (*Bridge, error) {
	return New(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (b *Bridge) Config() core.Config {
	if b == nil {
		return core.Config{}
	}
	return b.config
}

// Transport returns the event bus the bridge is wired to. The ingress server
// attaches to the same bus.
func (b *Bridge) Transport() core.Transport {
	if b == nil {
		return nil
	}
	return b.transport
}

// CallLog returns the configured ledger reader, nil when persistence is off.
func (b *Bridge) CallLog() core.CallLogReader {
	if b == nil {
		return nil
	}
	return b.callLogReader
}

// Origins returns the configured origin directory, nil when persistence is
// off.
func (b *Bridge) Origins() core.OriginDirectory {
	if b == nil {
		return nil
	}
	return b.originDirectory
}

// Activate attaches capability as the live wallet session. Any previous
// transport subscription is detached first, the session token advances, and
// queued work from the prior session short-circuits with 409 when it runs.
func (b *Bridge) Activate(ctx context.Context, capability wallet.Interface) (token uint64, err error) {
	startedAt := b.now()
	fields := map[string]any{}
	defer func() {
		b.observeOperation(ctx, startedAt, "activate", err, fields)
	}()

	if capability == nil {
		err = goerrors.New("wallet capability is required", goerrors.CategoryValidation)
		return 0, mapBuildError(b.errorMapper, err)
	}

	router := dispatch.NewRouter(capability, dispatch.WithLogger(b.logger))
	token, err = b.guard.Activate(func(next uint64) (core.DetachFunc, error) {
		b.mu.Lock()
		b.router = router
		b.sessionToken = next
		b.mu.Unlock()
		return b.transport.Subscribe(transport.EventHTTPRequest, func(ctx context.Context, payload []byte) {
			b.HandleRaw(ctx, payload)
		})
	})
	fields["session_token"] = token
	if err != nil {
		err = mapBuildError(b.errorMapper, err)
		return token, err
	}
	return token, nil
}

// Deactivate detaches the live session. Admitted work from it answers 409.
func (b *Bridge) Deactivate(ctx context.Context) {
	startedAt := b.now()
	b.guard.Deactivate()
	b.mu.Lock()
	b.router = nil
	b.mu.Unlock()
	b.observeOperation(ctx, startedAt, "deactivate", nil, map[string]any{})
}

// HandleRaw processes one inbound http-request payload. Every outcome that
// can be correlated emits exactly one ts-response; a parse failure with no
// recoverable request id is logged and dropped.
func (b *Bridge) HandleRaw(ctx context.Context, raw []byte) {
	startedAt := b.now()

	req, err := envelope.ParseRequest(raw)
	if err != nil {
		requestID, ok := envelope.RecoveredRequestID(err)
		if !ok {
			richErr := b.mapError(err)
			b.logger.Error("inbound payload dropped without correlation id",
				"error", richErr.Message,
			)
			b.observeRequest(ctx, startedAt, "", 400)
			return
		}
		b.rejectRequest(ctx, startedAt, requestID, "", "", err)
		return
	}

	operation := dispatch.NormalizePath(req.Path)

	originator, err := origin.Resolve(req.Headers)
	if err != nil {
		b.rejectRequest(ctx, startedAt, req.RequestID, operation, "", err)
		return
	}

	b.mu.Lock()
	router := b.router
	token := b.sessionToken
	b.mu.Unlock()

	task := func() error {
		if router == nil || !b.guard.Valid(token) {
			b.rejectRequest(context.Background(), startedAt, req.RequestID, operation, originator, supersededError())
			return nil
		}
		b.touchOrigin(originator)
		resp := router.Dispatch(context.Background(), req, originator)
		b.finishRequest(context.Background(), startedAt, req.RequestID, operation, originator, resp)
		return nil
	}

	if !b.queue.Enqueue(task) {
		b.rejectRequest(ctx, startedAt, req.RequestID, operation, originator, queueFullError())
	}
}

// Snapshot reports session and admission state.
func (b *Bridge) Snapshot() core.BridgeStats {
	return core.BridgeStats{
		SessionToken:  b.guard.Current(),
		SessionActive: b.guard.Active(),
		Admission:     b.queue.Snapshot(),
	}
}

// Close deactivates the session and releases the call sink when it owns
// background workers.
func (b *Bridge) Close(ctx context.Context) {
	b.Deactivate(ctx)
	if closer, ok := b.callSink.(interface{ Close() }); ok {
		closer.Close()
	}
}

func (b *Bridge) rejectRequest(ctx context.Context, startedAt time.Time, requestID int64, operation, originator string, err error) {
	richErr := b.mapError(err)
	resp := envelope.Response{
		RequestID: requestID,
		Status:    richErr.Code,
		Body:      envelope.ErrorBody(richErr.Message, richErr.TextCode),
	}
	b.finishRequest(ctx, startedAt, requestID, operation, originator, resp)
}

// finishRequest is the single exit point for correlated outcomes: record,
// observe, emit.
func (b *Bridge) finishRequest(ctx context.Context, startedAt time.Time, requestID int64, operation, originator string, resp envelope.Response) {
	b.recordCall(ctx, core.CallRecord{
		RequestID: requestID,
		Origin:    originator,
		Operation: operation,
		Status:    resp.Status,
		TextCode:  responseTextCode(resp),
		Duration:  b.now().Sub(startedAt),
		CreatedAt: b.now(),
	})
	b.observeRequest(ctx, startedAt, operation, resp.Status)
	b.emitResponse(ctx, resp)
}

// emitResponse publishes the correlated ts-response event. Best-effort:
// transport failures are logged, never re-raised.
func (b *Bridge) emitResponse(ctx context.Context, resp envelope.Response) {
	payload, err := json.Marshal(resp)
	if err != nil {
		b.logger.Error("response serialization failed",
			"request_id", resp.RequestID,
			"error", err.Error(),
		)
		payload, _ = json.Marshal(envelope.Response{RequestID: resp.RequestID, Status: resp.Status})
	}
	if err := b.transport.Emit(ctx, transport.EventTSResponse, payload); err != nil {
		b.logger.Error("response emit failed",
			"request_id", resp.RequestID,
			"status", resp.Status,
			"error", err.Error(),
		)
	}
}

func (b *Bridge) touchOrigin(originator string) {
	if b.originDirectory == nil {
		return
	}
	if err := b.originDirectory.Touch(context.Background(), originator, b.now()); err != nil {
		b.logger.Error("origin touch failed",
			"origin", originator,
			"error", err.Error(),
		)
	}
}

func (b *Bridge) recordCall(ctx context.Context, entry core.CallRecord) {
	if b.callSink == nil {
		return
	}
	if err := b.callSink.Record(ctx, entry); err != nil {
		b.logger.Error("call record failed",
			"request_id", entry.RequestID,
			"operation", entry.Operation,
			"error", err.Error(),
		)
	}
}

func (b *Bridge) mapError(err error) *goerrors.Error {
	if b.errorMapper != nil {
		if mapped := b.errorMapper(err); mapped != nil {
			return mapped
		}
	}
	return core.BridgeErrorMapper(err)
}

func responseTextCode(resp envelope.Response) string {
	if resp.Status < 400 {
		return ""
	}
	var decoded struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal([]byte(resp.Body), &decoded); err == nil {
		return decoded.Code
	}
	return ""
}
