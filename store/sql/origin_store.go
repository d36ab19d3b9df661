package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/goliatone/go-wallet-bridge/core"
)

// OriginStore keeps one row per canonical origin. Touch is an upsert:
// first_seen_at is written once and never moves, last_seen_at and call_count
// advance on every bridged request from that origin.
type OriginStore struct {
	db   *bun.DB
	repo repository.Repository[*originRow]
}

func NewOriginStore(db *bun.DB) (*OriginStore, error) {
	if db == nil {
		return nil, fmt.Errorf("sqlstore: bun db is required")
	}
	repo := repository.NewRepository[*originRow](db, originHandlers())
	if validator, ok := repo.(repository.Validator); ok {
		if err := validator.Validate(); err != nil {
			return nil, fmt.Errorf("sqlstore: invalid origin repository wiring: %w", err)
		}
	}
	return &OriginStore{db: db, repo: repo}, nil
}

func (s *OriginStore) Touch(ctx context.Context, origin string, at time.Time) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: origin store is not configured")
	}
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return fmt.Errorf("sqlstore: origin is required")
	}
	if at.IsZero() {
		at = time.Now()
	}
	at = at.UTC()

	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		row, err := findOriginTx(ctx, tx, origin)
		if err != nil {
			return err
		}
		if row == nil {
			row = &originRow{
				ID:          uuid.NewString(),
				Origin:      origin,
				Status:      string(core.OriginStatusActive),
				FirstSeenAt: at,
				LastSeenAt:  at,
				CallCount:   1,
			}
			_, insertErr := tx.NewInsert().Model(row).Exec(ctx)
			return insertErr
		}
		row.LastSeenAt = at
		row.CallCount++
		_, updateErr := tx.NewUpdate().
			Model(row).
			Where("id = ?", row.ID).
			Exec(ctx)
		return updateErr
	})
}

func (s *OriginStore) Get(ctx context.Context, origin string) (core.OriginProfile, error) {
	if s == nil || s.db == nil {
		return core.OriginProfile{}, fmt.Errorf("sqlstore: origin store is not configured")
	}
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return core.OriginProfile{}, fmt.Errorf("sqlstore: origin is required")
	}

	row := &originRow{}
	err := s.db.NewSelect().
		Model(row).
		Where("?TableAlias.origin = ?", origin).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return core.OriginProfile{}, core.ErrOriginNotFound
		}
		return core.OriginProfile{}, err
	}
	return row.toDomain(), nil
}

func (s *OriginStore) List(ctx context.Context, filter core.OriginFilter) (core.OriginPage, error) {
	if s == nil || s.db == nil {
		return core.OriginPage{}, fmt.Errorf("sqlstore: origin store is not configured")
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

	rows := []*originRow{}
	query := s.db.NewSelect().
		Model(&rows).
		OrderExpr("?TableAlias.last_seen_at DESC").
		Limit(perPage).
		Offset(offset)
	if status := strings.TrimSpace(string(filter.Status)); status != "" {
		query = query.Where("?TableAlias.status = ?", status)
	}

	total, err := query.ScanAndCount(ctx)
	if err != nil {
		return core.OriginPage{}, err
	}
	items := make([]core.OriginProfile, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toDomain())
	}
	return core.OriginPage{
		Items:   items,
		Total:   total,
		Page:    page,
		PerPage: perPage,
	}, nil
}

func (s *OriginStore) SetStatus(ctx context.Context, origin string, status core.OriginStatus) error {
	if s == nil || s.db == nil {
		return fmt.Errorf("sqlstore: origin store is not configured")
	}
	origin = strings.TrimSpace(origin)
	if origin == "" {
		return fmt.Errorf("sqlstore: origin is required")
	}
	switch status {
	case core.OriginStatusActive, core.OriginStatusBlocked:
	default:
		return fmt.Errorf("sqlstore: unsupported origin status %q", status)
	}

	res, err := s.db.NewUpdate().
		Model((*originRow)(nil)).
		Set("status = ?", string(status)).
		Where("origin = ?", origin).
		Exec(ctx)
	if err != nil {
		return err
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return core.ErrOriginNotFound
	}
	return nil
}

func findOriginTx(ctx context.Context, tx bun.Tx, origin string) (*originRow, error) {
	row := &originRow{}
	err := tx.NewSelect().
		Model(row).
		Where("?TableAlias.origin = ?", origin).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return row, nil
}

func (r *originRow) toDomain() core.OriginProfile {
	if r == nil {
		return core.OriginProfile{}
	}
	return core.OriginProfile{
		Origin:      r.Origin,
		Status:      core.OriginStatus(r.Status),
		FirstSeenAt: r.FirstSeenAt,
		LastSeenAt:  r.LastSeenAt,
		CallCount:   r.CallCount,
	}
}
