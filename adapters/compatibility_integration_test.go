package adapters_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/goliatone/go-command"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-wallet-bridge/adapters/gocommand"
	"github.com/goliatone/go-wallet-bridge/adapters/gojob"
	"github.com/goliatone/go-wallet-bridge/adapters/gologger"
	bridgecommand "github.com/goliatone/go-wallet-bridge/command"
	"github.com/goliatone/go-wallet-bridge/core"
	"github.com/goliatone/go-wallet-bridge/devkit"
	bridgequery "github.com/goliatone/go-wallet-bridge/query"
	"github.com/goliatone/go-wallet-bridge/wallet"
)

func TestRuntimeCompatibility_GoJobGoCommandGoLogger(t *testing.T) {
	ctx := context.Background()

	logger := &compatLogger{}
	provider := &compatProvider{logger: logger}

	resolved, jobProvider, jobLogger := gologger.ResolveForJob("bridge", provider, nil)
	if resolved == nil || jobProvider == nil || jobLogger == nil {
		t.Fatalf("expected go-job logger bridges")
	}

	sweeper := &compatSweeper{expired: 2}
	handler := gojob.NewMaintenanceHandler(sweeper, nil, 0, resolved)
	delivery := &compatDelivery{msg: gojob.SweepPendingMessage()}
	w := gojob.NewWorker(&compatDequeuer{delivery: delivery}, handler, gojob.RetryPolicy{}, resolved)
	if err := w.ProcessOne(ctx); err != nil {
		t.Fatalf("process maintenance delivery: %v", err)
	}
	if !delivery.acked || sweeper.calls != 1 {
		t.Fatalf("expected sweep delivery to be handled and acked")
	}

	queueRegistry := jobqueuecommand.NewRegistry()
	commandAdapter := gocommand.NewRegistryAdapter(command.NewRegistry())
	if err := commandAdapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := commandAdapter.RegisterCommand(bridgecommand.NewSetOriginStatusCommand(&compatOriginAdmin{})); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := commandAdapter.Initialize(); err != nil {
		t.Fatalf("initialize command registry: %v", err)
	}
	if _, ok := queueRegistry.Get(bridgecommand.TypeSetOriginStatus); !ok {
		t.Fatalf("expected command resolver hook to mirror command into go-job queue registry")
	}
}

func TestRuntimeCompatibility_ControlSurfaceDispatchThroughWrappers(t *testing.T) {
	session := &compatSessionService{token: 11}
	origins := &compatOriginAdmin{}
	stats := &compatStatsReader{snapshot: core.BridgeStats{SessionToken: 11, SessionActive: true}}
	adapter := gocommand.NewRegistryAdapter(command.NewRegistry())

	activateSub, err := gocommand.RegisterAndSubscribe(adapter, bridgecommand.NewActivateSessionCommand(session))
	if err != nil {
		t.Fatalf("register activate wrapper: %v", err)
	}
	defer activateSub.Unsubscribe()

	originSub, err := gocommand.RegisterAndSubscribe(adapter, bridgecommand.NewSetOriginStatusCommand(origins))
	if err != nil {
		t.Fatalf("register origin status wrapper: %v", err)
	}
	defer originSub.Unsubscribe()

	statsSub, err := gocommand.RegisterAndSubscribeQuery(adapter, bridgequery.NewStatsQuery(stats))
	if err != nil {
		t.Fatalf("register stats wrapper: %v", err)
	}
	defer statsSub.Unsubscribe()

	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize adapter: %v", err)
	}

	collector := command.NewResult[bridgecommand.ActivationResult]()
	ctx := command.ContextWithResult(context.Background(), collector)
	if err := gocommand.Dispatch(ctx, bridgecommand.ActivateSessionMessage{
		Capability: devkit.NewScriptedWallet(),
	}); err != nil {
		t.Fatalf("dispatch activate: %v", err)
	}
	if session.activations != 1 {
		t.Fatalf("expected session activation through wrapper")
	}
	activation, ok := collector.Load()
	if !ok || activation.SessionToken != 11 {
		t.Fatalf("expected activation result, got %#v ok=%v", activation, ok)
	}

	if err := gocommand.Dispatch(context.Background(), bridgecommand.SetOriginStatusMessage{
		Origin: "app.example.com",
		Status: core.OriginStatusBlocked,
	}); err != nil {
		t.Fatalf("dispatch origin status: %v", err)
	}
	if origins.lastOrigin != "app.example.com" || origins.lastStatus != core.OriginStatusBlocked {
		t.Fatalf("expected origin status through wrapper, got %q/%q", origins.lastOrigin, origins.lastStatus)
	}

	snapshot, err := gocommand.Query[bridgequery.StatsMessage, core.BridgeStats](
		context.Background(),
		bridgequery.StatsMessage{},
	)
	if err != nil {
		t.Fatalf("query stats: %v", err)
	}
	if snapshot.SessionToken != 11 || !snapshot.SessionActive {
		t.Fatalf("unexpected stats snapshot: %#v", snapshot)
	}
}

type compatSessionService struct {
	token       uint64
	activations int
}

func (s *compatSessionService) Activate(_ context.Context, capability wallet.Interface) (uint64, error) {
	s.activations++
	if capability == nil {
		return 0, fmt.Errorf("capability is required")
	}
	return s.token, nil
}

func (s *compatSessionService) Deactivate(context.Context) {}

type compatOriginAdmin struct {
	lastOrigin string
	lastStatus core.OriginStatus
}

func (a *compatOriginAdmin) SetStatus(_ context.Context, origin string, status core.OriginStatus) error {
	a.lastOrigin = origin
	a.lastStatus = status
	return nil
}

type compatStatsReader struct {
	snapshot core.BridgeStats
}

func (r *compatStatsReader) Snapshot() core.BridgeStats {
	return r.snapshot
}

type compatSweeper struct {
	expired int
	calls   int
}

func (s *compatSweeper) SweepPending(context.Context) (int, error) {
	s.calls++
	return s.expired, nil
}

type compatDequeuer struct {
	delivery queue.Delivery
}

func (d *compatDequeuer) Dequeue(context.Context) (queue.Delivery, error) {
	return d.delivery, nil
}

type compatDelivery struct {
	msg   *job.ExecutionMessage
	acked bool
}

func (d *compatDelivery) Message() *job.ExecutionMessage {
	return d.msg
}

func (d *compatDelivery) Ack(context.Context) error {
	d.acked = true
	return nil
}

func (d *compatDelivery) Nack(context.Context, queue.NackOptions) error {
	return nil
}

type compatProvider struct {
	logger glog.Logger
}

func (p *compatProvider) GetLogger(string) glog.Logger {
	if p == nil || p.logger == nil {
		return glog.Nop()
	}
	return p.logger
}

type compatLogger struct{}

func (compatLogger) Trace(string, ...any)                    {}
func (compatLogger) Debug(string, ...any)                    {}
func (compatLogger) Info(string, ...any)                     {}
func (compatLogger) Warn(string, ...any)                     {}
func (compatLogger) Error(string, ...any)                    {}
func (compatLogger) Fatal(string, ...any)                    {}
func (compatLogger) WithContext(context.Context) glog.Logger { return compatLogger{} }
