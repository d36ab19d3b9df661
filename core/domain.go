package core

import "time"

// CallRecord is the persisted outcome of one bridged wallet call. Status is
// the HTTP-shaped status emitted on the response envelope; TextCode carries
// the machine-readable error code when the call did not succeed.
type CallRecord struct {
	ID        string
	RequestID int64
	Origin    string
	Operation string
	Status    int
	TextCode  string
	Duration  time.Duration
	CreatedAt time.Time
}

type CallLogFilter struct {
	Origin    string
	Operation string
	Status    int
	Page      int
	PerPage   int
}

type CallLogPage struct {
	Items   []CallRecord
	Total   int
	Page    int
	PerPage int
}

type OriginStatus string

const (
	OriginStatusActive  OriginStatus = "active"
	OriginStatusBlocked OriginStatus = "blocked"
)

// OriginProfile tracks one canonical origin across bridge activations.
// FirstSeenAt is set on the first touch and never advances; LastSeenAt and
// CallCount advance on every touch.
type OriginProfile struct {
	Origin      string
	Status      OriginStatus
	FirstSeenAt time.Time
	LastSeenAt  time.Time
	CallCount   int64
}

type OriginFilter struct {
	Status  OriginStatus
	Page    int
	PerPage int
}

type OriginPage struct {
	Items   []OriginProfile
	Total   int
	Page    int
	PerPage int
}

type AdmissionStats struct {
	Active    int
	Pending   int
	Accepted  uint64
	Rejected  uint64
	Completed uint64
}

type BridgeStats struct {
	SessionToken  uint64
	SessionActive bool
	Admission     AdmissionStats
}
