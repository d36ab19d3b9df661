package core

import (
	"context"
	"errors"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

var ErrOriginNotFound = errors.New("core: origin not found")

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// DetachFunc tears down a transport subscription. Safe to call more than
// once; calls after the first are no-ops.
type DetachFunc func()

type Emitter interface {
	Emit(ctx context.Context, event string, payload []byte) error
}

type Subscriber interface {
	Subscribe(event string, handler func(ctx context.Context, payload []byte)) (DetachFunc, error)
}

type Transport interface {
	Emitter
	Subscriber
}

// CallSink records the terminal outcome of one bridged request. Recording is
// best-effort: the dispatch path logs sink failures and moves on.
type CallSink interface {
	Record(ctx context.Context, entry CallRecord) error
}

type CallLogReader interface {
	List(ctx context.Context, filter CallLogFilter) (CallLogPage, error)
}

type CallLogPruner interface {
	Prune(ctx context.Context, olderThan time.Time) (int, error)
}

// PendingSweeper expires ingress waiters past the configured max age.
type PendingSweeper interface {
	SweepPending(ctx context.Context) (int, error)
}

type OriginDirectory interface {
	Touch(ctx context.Context, origin string, at time.Time) error
	Get(ctx context.Context, origin string) (OriginProfile, error)
	List(ctx context.Context, filter OriginFilter) (OriginPage, error)
	SetStatus(ctx context.Context, origin string, status OriginStatus) error
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type JobExecutionMessage struct {
	JobID          string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}
