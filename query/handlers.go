package query

import (
	"context"

	"github.com/goliatone/go-wallet-bridge/core"
)

// StatsReader exposes the live bridge counters.
type StatsReader interface {
	Snapshot() core.BridgeStats
}

// CallLogReader lists recorded wallet calls.
type CallLogReader interface {
	List(ctx context.Context, filter core.CallLogFilter) (core.CallLogPage, error)
}

// OriginReader reads individual profiles and pages from the origin directory.
type OriginReader interface {
	Get(ctx context.Context, origin string) (core.OriginProfile, error)
	List(ctx context.Context, filter core.OriginFilter) (core.OriginPage, error)
}

type StatsQuery struct {
	reader StatsReader
}

func NewStatsQuery(reader StatsReader) *StatsQuery {
	return &StatsQuery{reader: reader}
}

func (q *StatsQuery) Query(ctx context.Context, msg StatsMessage) (core.BridgeStats, error) {
	if q == nil || q.reader == nil {
		return core.BridgeStats{}, queryDependencyError("query: stats reader is required")
	}
	return q.reader.Snapshot(), nil
}

type ListCallLogQuery struct {
	reader CallLogReader
}

func NewListCallLogQuery(reader CallLogReader) *ListCallLogQuery {
	return &ListCallLogQuery{reader: reader}
}

func (q *ListCallLogQuery) Query(ctx context.Context, msg ListCallLogMessage) (core.CallLogPage, error) {
	if q == nil || q.reader == nil {
		return core.CallLogPage{}, queryDependencyError("query: call log reader is required")
	}
	return q.reader.List(ctx, msg.Filter)
}

type ListOriginsQuery struct {
	reader OriginReader
}

func NewListOriginsQuery(reader OriginReader) *ListOriginsQuery {
	return &ListOriginsQuery{reader: reader}
}

func (q *ListOriginsQuery) Query(ctx context.Context, msg ListOriginsMessage) (core.OriginPage, error) {
	if q == nil || q.reader == nil {
		return core.OriginPage{}, queryDependencyError("query: origin reader is required")
	}
	return q.reader.List(ctx, msg.Filter)
}

type GetOriginQuery struct {
	reader OriginReader
}

func NewGetOriginQuery(reader OriginReader) *GetOriginQuery {
	return &GetOriginQuery{reader: reader}
}

func (q *GetOriginQuery) Query(ctx context.Context, msg GetOriginMessage) (core.OriginProfile, error) {
	if q == nil || q.reader == nil {
		return core.OriginProfile{}, queryDependencyError("query: origin reader is required")
	}
	return q.reader.Get(ctx, msg.Origin)
}
