package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heavyhaul/backend/internal/models"
)

var ErrNotFound = errors.New("not found")

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id          UUID PRIMARY KEY,
	kind        TEXT NOT NULL,
	status      TEXT NOT NULL,
	summary     JSONB,
	started_at  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	finished_at TIMESTAMPTZ
);
CREATE INDEX IF NOT EXISTS runs_started_at_idx ON runs (started_at DESC);
CREATE TABLE IF NOT EXISTS reverse_geocode_cache (
	key        TEXT PRIMARY KEY,
	short_name TEXT NOT NULL,
	long_name  TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);`

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

// EnsureSchema creates the audit and cache tables when missing.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.Pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

func (s *Store) CreateRun(ctx context.Context, kind string) (string, error) {
	id := uuid.NewString()
	_, err := s.Pool.Exec(ctx, `INSERT INTO runs (id, kind, status, started_at) VALUES ($1, $2, 'RUNNING', NOW())`, id, kind)
	if err != nil {
		return "", fmt.Errorf("create run: %w", err)
	}
	return id, nil
}

func (s *Store) FinishRun(ctx context.Context, runID string, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx, `UPDATE runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3`, status, summary, runID)
	return err
}

func (s *Store) GetLatestRun(ctx context.Context, kind string) (models.Run, error) {
	query := `SELECT id, kind, started_at, finished_at, status, summary FROM runs`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = $1`
		args = append(args, kind)
	}
	query += ` ORDER BY started_at DESC LIMIT 1`

	var (
		run      models.Run
		finished *time.Time
	)
	err := s.Pool.QueryRow(ctx, query, args...).Scan(&run.ID, &run.Kind, &run.StartedAt, &finished, &run.Status, &run.Summary)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.Run{}, ErrNotFound
	}
	if err != nil {
		return models.Run{}, err
	}
	if finished != nil {
		run.FinishedAt = *finished
	}
	return run, nil
}

func (s *Store) GetReverseGeocode(ctx context.Context, key string) (models.AdminArea, bool, error) {
	var area models.AdminArea
	err := s.Pool.QueryRow(ctx, `SELECT short_name, long_name FROM reverse_geocode_cache WHERE key = $1`, key).Scan(&area.ShortName, &area.LongName)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.AdminArea{}, false, nil
	}
	if err != nil {
		return models.AdminArea{}, false, err
	}
	return area, true, nil
}

func (s *Store) PutReverseGeocode(ctx context.Context, key string, area models.AdminArea) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO reverse_geocode_cache (key, short_name, long_name, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (key) DO UPDATE SET short_name = EXCLUDED.short_name, long_name = EXCLUDED.long_name, updated_at = NOW()
	`, key, area.ShortName, area.LongName)
	return err
}
