package sqlstore

import (
	"time"

	"github.com/uptrace/bun"
)

type callRecordRow struct {
	bun.BaseModel `bun:"table:bridge_call_log,alias:bcl"`

	ID         string    `bun:"id,pk"`
	RequestID  int64     `bun:"request_id,notnull"`
	Origin     string    `bun:"origin,notnull"`
	Operation  string    `bun:"operation,notnull"`
	Status     int       `bun:"status,notnull"`
	TextCode   string    `bun:"text_code"`
	DurationMS int64     `bun:"duration_ms,notnull"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

type originRow struct {
	bun.BaseModel `bun:"table:bridge_origins,alias:bo"`

	ID          string    `bun:"id,pk"`
	Origin      string    `bun:"origin,notnull"`
	Status      string    `bun:"status,notnull"`
	FirstSeenAt time.Time `bun:"first_seen_at,nullzero,notnull"`
	LastSeenAt  time.Time `bun:"last_seen_at,nullzero,notnull"`
	CallCount   int64     `bun:"call_count,notnull"`
}
