package gojob

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-wallet-bridge/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	JobIDSweepPending = "bridge.pending.sweep"
	JobIDPruneCallLog = "bridge.call_log.prune"
)

// paramOlderThan optionally overrides the retention cutoff on a prune run.
const paramOlderThan = "older_than"

// SweepPendingMessage builds the execution message for one sweep run.
func SweepPendingMessage() *job.ExecutionMessage {
	return &job.ExecutionMessage{
		JobID:          JobIDSweepPending,
		Parameters:     map[string]any{},
		IdempotencyKey: JobIDSweepPending,
		DedupPolicy:    job.DeduplicationPolicy("drop"),
	}
}

// PruneCallLogMessage builds the execution message for one prune run. A zero
// olderThan defers the cutoff to the handler's retention window.
func PruneCallLogMessage(olderThan time.Time) *job.ExecutionMessage {
	params := map[string]any{}
	if !olderThan.IsZero() {
		params[paramOlderThan] = olderThan.UTC().Format(time.RFC3339Nano)
	}
	return &job.ExecutionMessage{
		JobID:          JobIDPruneCallLog,
		Parameters:     params,
		IdempotencyKey: JobIDPruneCallLog,
		DedupPolicy:    job.DeduplicationPolicy("drop"),
	}
}

// Definition pairs a stable job id with its configured cadence so a host
// scheduler can register the bridge maintenance jobs.
type Definition struct {
	ID       string
	Schedule string
	Message  func() *job.ExecutionMessage
}

// Definitions derives the maintenance job set from config.
func Definitions(cfg core.Config) []Definition {
	return []Definition{
		{
			ID:       JobIDSweepPending,
			Schedule: strings.TrimSpace(cfg.Jobs.SweepSchedule),
			Message:  SweepPendingMessage,
		},
		{
			ID:       JobIDPruneCallLog,
			Schedule: strings.TrimSpace(cfg.Jobs.PruneSchedule),
			Message: func() *job.ExecutionMessage {
				return PruneCallLogMessage(time.Time{})
			},
		},
	}
}

// Enqueue validates and hands a maintenance message to a go-job enqueuer.
func Enqueue(ctx context.Context, enqueuer queue.Enqueuer, msg *job.ExecutionMessage) error {
	if enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is required")
	}
	if msg == nil || strings.TrimSpace(msg.JobID) == "" {
		return fmt.Errorf("gojob: execution message with a job id is required")
	}
	return enqueuer.Enqueue(ctx, msg)
}

// RetryPolicy defines queue retry bounds to avoid unbounded retry loops.
type RetryPolicy struct {
	MaxAttempts     int
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// Normalize enforces bounded retry behavior for a nack operation.
func (p RetryPolicy) Normalize(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.DeadLetter {
		out.Requeue = false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Requeue = false
		if p.DeadLetterOnMax || out.DeadLetter {
			out.DeadLetter = true
		}
	}
	if !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return out
}

// MaintenanceHandler executes the bridge maintenance jobs. Missing
// dependencies turn the matching job into a no-op so a store-less bridge can
// still run the worker.
type MaintenanceHandler struct {
	sweeper   core.PendingSweeper
	pruner    core.CallLogPruner
	retention time.Duration
	logger    glog.Logger
	now       func() time.Time
}

func NewMaintenanceHandler(
	sweeper core.PendingSweeper,
	pruner core.CallLogPruner,
	retention time.Duration,
	logger glog.Logger,
) *MaintenanceHandler {
	if logger == nil {
		logger = glog.Nop()
	}
	return &MaintenanceHandler{
		sweeper:   sweeper,
		pruner:    pruner,
		retention: retention,
		logger:    logger,
		now:       time.Now,
	}
}

func (h *MaintenanceHandler) Handle(ctx context.Context, msg *job.ExecutionMessage) error {
	if h == nil {
		return fmt.Errorf("gojob: maintenance handler is not configured")
	}
	if msg == nil {
		return fmt.Errorf("gojob: execution message is required")
	}
	switch msg.JobID {
	case JobIDSweepPending:
		return h.sweepPending(ctx)
	case JobIDPruneCallLog:
		return h.pruneCallLog(ctx, msg)
	default:
		return fmt.Errorf("gojob: unknown job id %q", msg.JobID)
	}
}

func (h *MaintenanceHandler) sweepPending(ctx context.Context) error {
	if h.sweeper == nil {
		h.logger.Debug("sweep skipped, no pending sweeper configured")
		return nil
	}
	expired, err := h.sweeper.SweepPending(ctx)
	if err != nil {
		return fmt.Errorf("gojob: sweep pending: %w", err)
	}
	if expired > 0 {
		h.logger.Info("expired pending ingress entries", "count", expired)
	}
	return nil
}

func (h *MaintenanceHandler) pruneCallLog(ctx context.Context, msg *job.ExecutionMessage) error {
	if h.pruner == nil {
		h.logger.Debug("prune skipped, no call log pruner configured")
		return nil
	}
	cutoff, err := h.pruneCutoff(msg)
	if err != nil {
		return err
	}
	if cutoff.IsZero() {
		h.logger.Debug("prune skipped, retention disabled")
		return nil
	}
	pruned, err := h.pruner.Prune(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("gojob: prune call log: %w", err)
	}
	if pruned > 0 {
		h.logger.Info("pruned call log records", "count", pruned, "older_than", cutoff)
	}
	return nil
}

func (h *MaintenanceHandler) pruneCutoff(msg *job.ExecutionMessage) (time.Time, error) {
	if raw, ok := msg.Parameters[paramOlderThan]; ok {
		text := strings.TrimSpace(fmt.Sprint(raw))
		if text != "" {
			cutoff, err := time.Parse(time.RFC3339Nano, text)
			if err != nil {
				return time.Time{}, fmt.Errorf("gojob: invalid %s parameter: %w", paramOlderThan, err)
			}
			return cutoff, nil
		}
	}
	if h.retention <= 0 {
		return time.Time{}, nil
	}
	return h.now().UTC().Add(-h.retention), nil
}

// Worker drains a go-job queue and runs each delivery through the maintenance
// handler. Handler failures are nacked under the retry policy and do not stop
// the worker; only dequeue failures surface to the caller.
type Worker struct {
	dequeuer queue.Dequeuer
	handler  *MaintenanceHandler
	policy   RetryPolicy
	hook     worker.Hook
	logger   glog.Logger

	mu       sync.Mutex
	attempts map[string]int
}

func NewWorker(
	dequeuer queue.Dequeuer,
	handler *MaintenanceHandler,
	policy RetryPolicy,
	logger glog.Logger,
) *Worker {
	if logger == nil {
		logger = glog.Nop()
	}
	return &Worker{
		dequeuer: dequeuer,
		handler:  handler,
		policy:   policy,
		logger:   logger,
		attempts: map[string]int{},
	}
}

// WithHook attaches a worker lifecycle hook.
func (w *Worker) WithHook(hook worker.Hook) *Worker {
	if w == nil {
		return nil
	}
	w.hook = hook
	return w
}

// ProcessOne dequeues and executes a single delivery.
func (w *Worker) ProcessOne(ctx context.Context) error {
	if w == nil || w.dequeuer == nil || w.handler == nil {
		return fmt.Errorf("gojob: worker is not configured")
	}
	delivery, err := w.dequeuer.Dequeue(ctx)
	if err != nil {
		return fmt.Errorf("gojob: dequeue: %w", err)
	}
	if delivery == nil {
		return fmt.Errorf("gojob: dequeuer returned no delivery")
	}

	msg := delivery.Message()
	attempt := w.nextAttempt(msg)
	started := time.Now()

	w.emitStart(ctx, msg, attempt, started)
	handleErr := w.handler.Handle(ctx, msg)
	elapsed := time.Since(started)

	if handleErr == nil {
		w.clearAttempts(msg)
		w.emitSuccess(ctx, msg, attempt, started, elapsed)
		if err := delivery.Ack(ctx); err != nil {
			return fmt.Errorf("gojob: ack: %w", err)
		}
		return nil
	}

	w.emitFailure(ctx, msg, attempt, started, elapsed, handleErr)
	w.logger.Error("maintenance job failed",
		"job_id", jobID(msg),
		"attempt", attempt,
		"error", handleErr,
	)
	opts := w.policy.Normalize(queue.NackOptions{
		Delay:   time.Duration(attempt) * time.Second,
		Requeue: true,
		Reason:  handleErr.Error(),
	}, attempt)
	if !opts.Requeue {
		w.clearAttempts(msg)
	}
	if err := delivery.Nack(ctx, opts); err != nil {
		return fmt.Errorf("gojob: nack: %w", err)
	}
	return nil
}

// Run processes deliveries until the context is canceled or the queue fails.
func (w *Worker) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.ProcessOne(ctx); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
	}
}

func (w *Worker) nextAttempt(msg *job.ExecutionMessage) int {
	key := attemptKey(msg)
	w.mu.Lock()
	defer w.mu.Unlock()
	w.attempts[key]++
	return w.attempts[key]
}

func (w *Worker) clearAttempts(msg *job.ExecutionMessage) {
	key := attemptKey(msg)
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.attempts, key)
}

func (w *Worker) emitStart(ctx context.Context, msg *job.ExecutionMessage, attempt int, started time.Time) {
	if w.hook == nil {
		return
	}
	w.hook.OnStart(ctx, worker.Event{Message: msg, Attempt: attempt, StartedAt: started})
}

func (w *Worker) emitSuccess(
	ctx context.Context,
	msg *job.ExecutionMessage,
	attempt int,
	started time.Time,
	elapsed time.Duration,
) {
	if w.hook == nil {
		return
	}
	w.hook.OnSuccess(ctx, worker.Event{Message: msg, Attempt: attempt, StartedAt: started, Duration: elapsed})
}

func (w *Worker) emitFailure(
	ctx context.Context,
	msg *job.ExecutionMessage,
	attempt int,
	started time.Time,
	elapsed time.Duration,
	err error,
) {
	if w.hook == nil {
		return
	}
	w.hook.OnFailure(ctx, worker.Event{
		Message:   msg,
		Attempt:   attempt,
		Err:       err,
		StartedAt: started,
		Duration:  elapsed,
	})
}

func attemptKey(msg *job.ExecutionMessage) string {
	if msg == nil {
		return ""
	}
	if key := strings.TrimSpace(msg.IdempotencyKey); key != "" {
		return key
	}
	return strings.TrimSpace(msg.JobID)
}

func jobID(msg *job.ExecutionMessage) string {
	if msg == nil {
		return ""
	}
	return msg.JobID
}

// LoggingHook reports worker lifecycle events through the bridge logger.
type LoggingHook struct {
	logger glog.Logger
}

func NewLoggingHook(logger glog.Logger) *LoggingHook {
	if logger == nil {
		logger = glog.Nop()
	}
	return &LoggingHook{logger: logger}
}

func (h *LoggingHook) OnStart(_ context.Context, event worker.Event) {
	if h == nil {
		return
	}
	h.logger.Debug("maintenance job started", "job_id", eventJobID(event), "attempt", event.Attempt)
}

func (h *LoggingHook) OnSuccess(_ context.Context, event worker.Event) {
	if h == nil {
		return
	}
	h.logger.Debug("maintenance job succeeded",
		"job_id", eventJobID(event),
		"attempt", event.Attempt,
		"duration", event.Duration,
	)
}

func (h *LoggingHook) OnFailure(_ context.Context, event worker.Event) {
	if h == nil {
		return
	}
	h.logger.Warn("maintenance job failed",
		"job_id", eventJobID(event),
		"attempt", event.Attempt,
		"error", event.Err,
	)
}

func (h *LoggingHook) OnRetry(_ context.Context, event worker.Event) {
	if h == nil {
		return
	}
	h.logger.Debug("maintenance job retry scheduled",
		"job_id", eventJobID(event),
		"attempt", event.Attempt,
		"delay", event.Delay,
	)
}

func eventJobID(event worker.Event) string {
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	return jobID(message)
}

var _ worker.Hook = (*LoggingHook)(nil)
