package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ricwein/shurl/internal/config"
	"github.com/ricwein/shurl/internal/redirect"
)

// activeFilter is the shared validity predicate: enabled entries whose
// window [valid_from, valid_to) contains now, either bound optional.
var activeFilter = squirrel.And{
	squirrel.Eq{"redirects.enabled": true},
	squirrel.Or{
		squirrel.Eq{"redirects.valid_from": nil},
		squirrel.Expr("redirects.valid_from <= NOW()"),
	},
	squirrel.Or{
		squirrel.Eq{"redirects.valid_to": nil},
		squirrel.Expr("redirects.valid_to > NOW()"),
	},
}

// Postgres implements redirect.Store and redirect.VisitStore on a pgx
// connection pool.
type Postgres struct {
	pool *pgxpool.Pool
	sb   squirrel.StatementBuilderType
	slug config.Slug
}

// NewPostgres creates a Postgres-backed entry store.
func NewPostgres(pool *pgxpool.Pool, slugCfg config.Slug) *Postgres {
	return &Postgres{
		pool: pool,
		sb:   squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
		slug: slugCfg,
	}
}

func (p *Postgres) UpsertURL(ctx context.Context, url string) (int64, error) {
	url = strings.TrimSpace(url)

	hash, err := redirect.ContentHash(p.slug.Hash, url)
	if err != nil {
		return 0, err
	}

	// The no-op DO UPDATE makes RETURNING yield the existing id on
	// conflict, so concurrent adds of the same URL converge on one row.
	query, args, err := p.sb.
		Insert("urls").
		Columns("url", "hash").
		Values(url, hash).
		Suffix("ON CONFLICT (url, hash) DO UPDATE SET url = EXCLUDED.url RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var id int64
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, storeErr(err)
	}

	return id, nil
}

func (p *Postgres) UpsertRedirect(ctx context.Context, params redirect.UpsertRedirectParams) (int64, error) {
	slug := strings.TrimSpace(params.Slug)

	if p.slug.IsReserved(slug) {
		return 0, fmt.Errorf("%w: %q", redirect.ErrSlugReserved, slug)
	}

	if !params.Mode.Valid() {
		return 0, fmt.Errorf("%w: %q", redirect.ErrInvalidMode, params.Mode)
	}

	query, args, err := p.sb.
		Insert("redirects").
		Columns("url_id", "slug", "valid_from", "valid_to", "mode", "enabled").
		Values(params.URLID, slug, params.ValidFrom, params.ValidTo, string(params.Mode), true).
		Suffix(`ON CONFLICT (url_id, slug) DO UPDATE
			SET valid_from = EXCLUDED.valid_from,
			    valid_to   = EXCLUDED.valid_to,
			    mode       = EXCLUDED.mode,
			    enabled    = TRUE
			RETURNING id`).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var id int64
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&id); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			// Another enabled entry already owns this slug.
			return 0, fmt.Errorf("%w: %q is already in use", redirect.ErrSlugReserved, slug)
		}

		return 0, storeErr(err)
	}

	return id, nil
}

func (p *Postgres) FindActiveBySlug(ctx context.Context, slug string) (*redirect.Resolved, error) {
	query, args, err := p.sb.
		Select("redirects.id", "redirects.slug", "redirects.mode", "urls.url", "urls.hash").
		From("redirects").
		Join("urls ON urls.id = redirects.url_id").
		Where(squirrel.Eq{"redirects.slug": strings.TrimSpace(slug)}).
		Where(activeFilter).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var (
		resolved redirect.Resolved
		mode     string
	)

	err = p.pool.QueryRow(ctx, query, args...).Scan(
		&resolved.RedirectID,
		&resolved.Slug,
		&mode,
		&resolved.OriginalURL,
		&resolved.Hash,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, redirect.ErrNotFound
		}

		return nil, storeErr(err)
	}

	resolved.Mode = redirect.Mode(mode)

	return &resolved, nil
}

func (p *Postgres) Disable(ctx context.Context, redirectID int64) error {
	query, args, err := p.sb.
		Update("redirects").
		Set("enabled", false).
		Where(squirrel.Eq{"id": redirectID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return storeErr(err)
	}

	if tag.RowsAffected() == 0 {
		return redirect.ErrNotFound
	}

	return nil
}

func (p *Postgres) CountActive(ctx context.Context) (int64, error) {
	query, args, err := p.sb.
		Select("COUNT(*)").
		From("redirects").
		Where(activeFilter).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build query: %w", err)
	}

	var count int64
	if err := p.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, storeErr(err)
	}

	return count, nil
}

func (p *Postgres) List(ctx context.Context, activeOnly bool, limit int) ([]redirect.ListedEntry, error) {
	builder := p.sb.
		Select(
			"redirects.id", "redirects.url_id", "redirects.slug",
			"redirects.valid_from", "redirects.valid_to", "redirects.mode",
			"redirects.enabled", "redirects.created",
			"urls.url",
			"COUNT(visits.id) AS hits",
		).
		From("redirects").
		Join("urls ON urls.id = redirects.url_id").
		LeftJoin("visits ON visits.redirect_id = redirects.id").
		GroupBy("redirects.id", "urls.url").
		OrderBy("hits DESC", "redirects.created DESC")

	if activeOnly {
		builder = builder.Where(activeFilter)
	}

	if limit > 0 {
		builder = builder.Limit(uint64(limit))
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := p.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, storeErr(err)
	}
	defer rows.Close()

	var entries []redirect.ListedEntry

	for rows.Next() {
		var (
			entry redirect.ListedEntry
			mode  string
		)

		err := rows.Scan(
			&entry.ID, &entry.URLID, &entry.Slug,
			&entry.ValidFrom, &entry.ValidTo, &mode,
			&entry.Enabled, &entry.Created,
			&entry.OriginalURL,
			&entry.Hits,
		)
		if err != nil {
			return nil, storeErr(err)
		}

		entry.Mode = redirect.Mode(mode)
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, storeErr(err)
	}

	return entries, nil
}

func (p *Postgres) SaveVisit(ctx context.Context, visit *redirect.Visit) error {
	query, args, err := p.sb.
		Insert("visits").
		Columns("redirect_id", "visited", "origin", "ip", "user_agent", "referrer").
		Values(
			visit.RedirectID,
			visit.VisitedAt,
			visit.Origin,
			visit.IP,
			nullable(visit.UserAgent),
			nullable(visit.Referrer),
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build query: %w", err)
	}

	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return storeErr(err)
	}

	return nil
}

// Ping checks database connectivity.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

// storeErr maps infrastructure failures onto the shared sentinel so
// callers can translate them into a 503 without knowing pgx.
func storeErr(err error) error {
	return fmt.Errorf("%w: %v", redirect.ErrStoreUnreachable, err)
}

// Compile-time checks.
var (
	_ redirect.Store      = (*Postgres)(nil)
	_ redirect.VisitStore = (*Postgres)(nil)
)
