package query

import (
	"strings"

	"github.com/goliatone/go-wallet-bridge/core"
)

const (
	TypeStats       = "bridge.query.stats"
	TypeListCallLog = "bridge.query.call_log.list"
	TypeListOrigins = "bridge.query.origins.list"
	TypeGetOrigin   = "bridge.query.origin.get"
)

// StatsMessage requests the live session and admission snapshot.
type StatsMessage struct{}

func (StatsMessage) Type() string { return TypeStats }

func (StatsMessage) Validate() error { return nil }

// ListCallLogMessage requests a page of recorded wallet calls.
type ListCallLogMessage struct {
	Filter core.CallLogFilter
}

func (ListCallLogMessage) Type() string { return TypeListCallLog }

func (m ListCallLogMessage) Validate() error {
	if m.Filter.Page < 0 {
		return queryValidationError("filter.page", "page must be >= 0")
	}
	if m.Filter.PerPage < 0 {
		return queryValidationError("filter.per_page", "per_page must be >= 0")
	}
	if m.Filter.Status < 0 {
		return queryValidationError("filter.status", "status must be a HTTP status code")
	}
	return nil
}

// ListOriginsMessage requests a page of observed request origins.
type ListOriginsMessage struct {
	Filter core.OriginFilter
}

func (ListOriginsMessage) Type() string { return TypeListOrigins }

func (m ListOriginsMessage) Validate() error {
	if m.Filter.Page < 0 {
		return queryValidationError("filter.page", "page must be >= 0")
	}
	if m.Filter.PerPage < 0 {
		return queryValidationError("filter.per_page", "per_page must be >= 0")
	}
	if m.Filter.Status != "" &&
		m.Filter.Status != core.OriginStatusActive &&
		m.Filter.Status != core.OriginStatusBlocked {
		return queryValidationError("filter.status", "status must be active or blocked")
	}
	return nil
}

// GetOriginMessage requests the stored profile for one canonical origin.
type GetOriginMessage struct {
	Origin string
}

func (GetOriginMessage) Type() string { return TypeGetOrigin }

func (m GetOriginMessage) Validate() error {
	if strings.TrimSpace(m.Origin) == "" {
		return queryValidationError("origin", "origin is required")
	}
	return nil
}
