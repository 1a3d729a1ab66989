package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/autovoice/calllog/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

// EnsureDestinations creates each destination table if missing. Every
// destination has the same fixed column set plus a uniqueness guarantee
// on call_id, which is the final arbiter against duplicate delivery.
func (s *Store) EnsureDestinations(ctx context.Context, tables []string) error {
	cols := make([]string, 0, len(models.Columns()))
	for _, c := range models.Columns() {
		cols = append(cols, fmt.Sprintf("%s TEXT NOT NULL DEFAULT ''", pgx.Identifier{c}.Sanitize()))
	}
	for _, table := range tables {
		stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			%s,
			inserted_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (call_id)
		)`, pgx.Identifier{table}.Sanitize(), strings.Join(cols, ",\n\t\t\t"))
		if _, err := s.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure destination %s: %w", table, err)
		}
	}
	return nil
}

// AppendRow appends one record to a destination table. Rows are never
// updated or deleted. Returns false when the call id already exists and
// the insert became a no-op.
func (s *Store) AppendRow(ctx context.Context, table string, rec models.NormalizedRecord) (bool, error) {
	cols := models.Columns()
	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}
	stmt := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (call_id) DO NOTHING",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)
	tag, err := s.Pool.Exec(ctx, stmt, rec.Values()...)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// HasRecentCall reports whether a call id appears within the last
// window rows of a destination.
func (s *Store) HasRecentCall(ctx context.Context, table, callID string, window int) (bool, error) {
	stmt := fmt.Sprintf(`SELECT EXISTS (
		SELECT 1 FROM (
			SELECT call_id FROM %s ORDER BY inserted_at DESC LIMIT $1
		) recent WHERE recent.call_id = $2
	)`, pgx.Identifier{table}.Sanitize())
	var exists bool
	err := s.Pool.QueryRow(ctx, stmt, window, callID).Scan(&exists)
	return exists, err
}

// DestinationStats returns the row count and last insert time for one
// destination table.
func (s *Store) DestinationStats(ctx context.Context, table string) (int64, *time.Time, error) {
	stmt := fmt.Sprintf("SELECT COUNT(*), MAX(inserted_at) FROM %s", pgx.Identifier{table}.Sanitize())
	var (
		rows int64
		last *time.Time
	)
	if err := s.Pool.QueryRow(ctx, stmt).Scan(&rows, &last); err != nil {
		return 0, nil, err
	}
	return rows, last, nil
}
