package core

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type CallRetentionPolicy struct {
	TTL    time.Duration
	RowCap int
}

// NopCallSink drops every record. Used when no storage is configured.
type NopCallSink struct{}

func (NopCallSink) Record(context.Context, CallRecord) error { return nil }

// BufferedCallSink decouples call recording from the dispatch path: records
// are queued and written by a background worker so a slow store never holds
// a concurrency slot. When the buffer is full the record goes to the
// fallback sink, or is dropped when none is configured.
type BufferedCallSink struct {
	primary  CallSink
	fallback CallSink
	policy   CallRetentionPolicy

	queue chan CallRecord
	now   func() time.Time

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func NewBufferedCallSink(
	primary CallSink,
	fallback CallSink,
	policy CallRetentionPolicy,
	bufferSize int,
) (*BufferedCallSink, error) {
	if primary == nil {
		return nil, fmt.Errorf("core: primary call sink is required")
	}
	if bufferSize <= 0 {
		bufferSize = 128
	}

	sink := &BufferedCallSink{
		primary:  primary,
		fallback: fallback,
		policy:   policy,
		queue:    make(chan CallRecord, bufferSize),
		now: func() time.Time {
			return time.Now().UTC()
		},
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	go sink.run()
	return sink, nil
}

func (s *BufferedCallSink) Record(ctx context.Context, entry CallRecord) error {
	if s == nil || s.primary == nil {
		return fmt.Errorf("core: buffered call sink is not configured")
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.queue <- entry:
		return nil
	default:
		if s.fallback != nil {
			return s.fallback.Record(ctx, entry)
		}
		return nil
	}
}

// EnforceRetention prunes records older than the policy TTL when the primary
// sink supports pruning. A zero TTL disables retention.
func (s *BufferedCallSink) EnforceRetention(ctx context.Context) (int, error) {
	if s == nil {
		return 0, fmt.Errorf("core: buffered call sink is not configured")
	}
	if s.policy.TTL <= 0 {
		return 0, nil
	}
	pruner, ok := s.primary.(CallLogPruner)
	if !ok {
		return 0, nil
	}
	return pruner.Prune(ctx, s.now().Add(-s.policy.TTL))
}

func (s *BufferedCallSink) Close() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh
	})
}

func (s *BufferedCallSink) run() {
	defer close(s.doneCh)
	for {
		select {
		case <-s.stopCh:
			return
		case entry := <-s.queue:
			if err := s.primary.Record(context.Background(), entry); err != nil && s.fallback != nil {
				_ = s.fallback.Record(context.Background(), entry)
			}
		}
	}
}

var (
	_ CallSink = (*BufferedCallSink)(nil)
	_ CallSink = NopCallSink{}
)
