package bridge

import (
	"context"
	"sort"
	"strconv"
	"time"

	"github.com/goliatone/go-wallet-bridge/core"
)

// observeOperation records one structured log line plus a counter and a
// duration histogram for a lifecycle operation such as activate.
func (b *Bridge) observeOperation(ctx context.Context, startedAt time.Time, operation string, err error, fields map[string]any) {
	op := normalizeOperation(operation)
	duration := time.Since(startedAt)

	contextFields := cloneFields(fields)
	contextFields["event_type"] = op
	contextFields["duration_ms"] = duration.Milliseconds()

	tags := map[string]string{"operation": op}
	if err != nil {
		contextFields["status"] = "failure"
		contextFields["error"] = err.Error()
		tags["status"] = "failure"
	} else {
		contextFields["status"] = "success"
		tags["status"] = "success"
	}

	b.recordCounter(ctx, "bridge."+op+".total", 1, tags)
	b.recordDuration(ctx, "bridge."+op+".duration_ms", duration, tags)

	if err != nil {
		b.logError(ctx, op+" failed", contextFields)
		return
	}
	b.logInfo(ctx, op+" succeeded", contextFields)
}

// observeRequest records the outcome of one relayed request. Statuses below
// 400 count as success.
func (b *Bridge) observeRequest(ctx context.Context, startedAt time.Time, operation string, status int) {
	duration := time.Since(startedAt)
	outcome := "success"
	if status >= 400 {
		outcome = "failure"
	}

	contextFields := map[string]any{
		"event_type":  "request",
		"operation":   operation,
		"status":      outcome,
		"status_code": status,
		"duration_ms": duration.Milliseconds(),
	}
	tags := map[string]string{
		"operation":   normalizeOperation(operation),
		"status":      outcome,
		"status_code": strconv.Itoa(status),
	}

	b.recordCounter(ctx, "bridge.request.total", 1, tags)
	b.recordDuration(ctx, "bridge.request.duration_ms", duration, tags)

	if outcome == "failure" {
		b.logError(ctx, "request failed", contextFields)
		return
	}
	b.logInfo(ctx, "request completed", contextFields)
}

func (b *Bridge) recordCounter(ctx context.Context, name string, value int64, tags map[string]string) {
	if b == nil || b.metricsRecorder == nil {
		return
	}
	b.metricsRecorder.IncCounter(ctx, name, value, core.CloneTags(tags))
}

func (b *Bridge) recordDuration(ctx context.Context, name string, duration time.Duration, tags map[string]string) {
	if b == nil || b.metricsRecorder == nil {
		return
	}
	b.metricsRecorder.ObserveHistogram(ctx, name, float64(duration.Milliseconds()), core.CloneTags(tags))
}

func (b *Bridge) logInfo(ctx context.Context, message string, fields map[string]any) {
	b.logWithLevel(ctx, false, message, fields)
}

func (b *Bridge) logError(ctx context.Context, message string, fields map[string]any) {
	b.logWithLevel(ctx, true, message, fields)
}

func (b *Bridge) logWithLevel(ctx context.Context, isError bool, message string, fields map[string]any) {
	if b == nil || b.logger == nil {
		return
	}
	logger := b.logger
	if ctx != nil {
		logger = logger.WithContext(ctx)
	}
	if fieldsLogger, ok := logger.(core.FieldsLogger); ok && len(fields) > 0 {
		enriched := fieldsLogger.WithFields(cloneFields(fields))
		if enriched != nil {
			if isError {
				enriched.Error(message)
			} else {
				enriched.Info(message)
			}
			return
		}
	}
	args := flattenFields(fields)
	if isError {
		logger.Error(message, args...)
		return
	}
	logger.Info(message, args...)
}

func cloneFields(fields map[string]any) map[string]any {
	cloned := make(map[string]any, len(fields))
	for key, value := range fields {
		cloned[key] = value
	}
	return cloned
}

func flattenFields(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys)*2)
	for _, key := range keys {
		args = append(args, key, fields[key])
	}
	return args
}

func normalizeOperation(operation string) string {
	trimmed := operation
	for len(trimmed) > 0 && trimmed[0] == '/' {
		trimmed = trimmed[1:]
	}
	if trimmed == "" {
		return "unknown"
	}
	return trimmed
}
