package sqlstore

import (
	"context"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-wallet-bridge/core"
)

// CallLogStore persists the terminal outcome of each bridged request. It is
// the durable backend behind core.CallSink; the dispatch path treats every
// write as best-effort, so failures here never fail a wallet call.
type CallLogStore struct {
	db   *bun.DB
	repo repository.Repository[*callRecordRow]
}

func NewCallLogStore(db *bun.DB) (*CallLogStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*callRecordRow](db, callRecordHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid call log repository wiring: %w", err)
		}
	}
	return &CallLogStore{db: db, repo: repo}, nil
}

func (s *CallLogStore) Record(ctx context.Context, entry core.CallRecord) error {
	if s == nil || s.repo == nil {
		return fmt.Errorf("sqlstore: call log store is not configured")
	}
	id := strings.TrimSpace(entry.ID)
	if id == "" {
		id = uuid.NewString()
	}
	createdAt := entry.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	row := &callRecordRow{
		ID:         id,
		RequestID:  entry.RequestID,
		Origin:     strings.TrimSpace(entry.Origin),
		Operation:  strings.TrimSpace(entry.Operation),
		Status:     entry.Status,
		TextCode:   strings.TrimSpace(entry.TextCode),
		DurationMS: entry.Duration.Milliseconds(),
		CreatedAt:  createdAt,
	}

	_, err := s.repo.Create(ctx, row)
	return err
}

func (s *CallLogStore) List(ctx context.Context, filter core.CallLogFilter) (core.CallLogPage, error) {
	if s == nil || s.db == nil {
		return core.CallLogPage{}, fmt.Errorf("sqlstore: call log store is not configured")
	}
	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 25
	}
	offset := (page - 1) * perPage

	rows := []*callRecordRow{}
	query := s.db.NewSelect().
		Model(&rows).
		OrderExpr("?TableAlias.created_at DESC").
		Limit(perPage).
		Offset(offset)
	if origin := strings.TrimSpace(filter.Origin); origin != "" {
		query = query.Where("?TableAlias.origin = ?", origin)
	}
	if operation := strings.TrimSpace(filter.Operation); operation != "" {
		query = query.Where("?TableAlias.operation = ?", operation)
	}
	if filter.Status > 0 {
		query = query.Where("?TableAlias.status = ?", filter.Status)
	}

	total, err := query.ScanAndCount(ctx)
	if err != nil {
		return core.CallLogPage{}, err
	}
	items := make([]core.CallRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return core.CallLogPage{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

func (s *CallLogStore) Prune(ctx context.Context, olderThan time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, fmt.Errorf("sqlstore: call log store is not configured")
	}
	res, err := s.db.NewDelete().
		Model((*callRecordRow)(nil)).
		Where("created_at < ?", olderThan.UTC()).
		Exec(ctx)
	if err != nil {
		return 0, err
	}
	affected, _ := res.RowsAffected()
	return int(affected), nil
}

func (r *callRecordRow) toDomain() core.CallRecord {
	if r == nil {
		return core.CallRecord{}
	}
	return core.CallRecord{
		ID:        r.ID,
		RequestID: r.RequestID,
		Origin:    r.Origin,
		Operation: r.Operation,
		Status:    r.Status,
		TextCode:  r.TextCode,
		Duration:  time.Duration(r.DurationMS) * time.Millisecond,
		CreatedAt: r.CreatedAt,
	}
}
