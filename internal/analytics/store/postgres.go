package store

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ricwein/shurl/internal/analytics"
)

// Postgres persists visit events into the visit_events table.
type Postgres struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
}

// NewPostgres creates a Postgres-backed analytics store.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (p *Postgres) SaveVisitEvent(ctx context.Context, event *analytics.VisitEvent) error {
	query, args, err := p.sb.
		Insert("visit_events").
		Columns("id", "redirect_id", "slug", "visited", "origin", "do_not_track").
		Values(uuid.New(), event.RedirectID, event.Slug, event.VisitedAt, event.Origin, event.DoNotTrack).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("save visit event: %w", err)
	}

	return nil
}

// Compile-time check.
var _ analytics.Store = (*Postgres)(nil)
