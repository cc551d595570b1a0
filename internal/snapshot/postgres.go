package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/covidwatch/pkg/database"
)

const createTable = `
CREATE TABLE IF NOT EXISTS covid_snapshots (
	key      TEXT PRIMARY KEY,
	data     JSON NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps snapshots in the covid_snapshots table.
// The column is JSON, not JSONB, so timeline key order survives.
type PostgresStore struct {
	db *database.DB
}

// NewPostgres creates the table if needed
func NewPostgres(ctx context.Context, db *database.DB) (*PostgresStore, error) {
	if err := db.Exec(ctx, createTable); err != nil {
		return nil, fmt.Errorf("create snapshot table: %w", err)
	}
	return &PostgresStore{db: db}, nil
}

// Save upserts data under key
func (s *PostgresStore) Save(ctx context.Context, key string, data []byte) error {
	query := `
		INSERT INTO covid_snapshots (key, data, saved_at)
		VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET
			data = EXCLUDED.data,
			saved_at = EXCLUDED.saved_at
	`
	if _, err := s.db.Pool.Exec(ctx, query, key, string(data)); err != nil {
		return fmt.Errorf("write snapshot %s: %w", key, err)
	}
	return nil
}

// Load reads the snapshot stored under key
func (s *PostgresStore) Load(ctx context.Context, key string) (Snapshot, error) {
	query := `SELECT data::text, saved_at FROM covid_snapshots WHERE key = $1`

	var (
		data    string
		savedAt time.Time
	)
	err := s.db.Pool.QueryRow(ctx, query, key).Scan(&data, &savedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Snapshot{}, fmt.Errorf("load snapshot %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("load snapshot %s: %w", key, err)
	}

	return Snapshot{Key: key, Data: []byte(data), SavedAt: savedAt}, nil
}

// Prune deletes snapshots saved before the cutoff
func (s *PostgresStore) Prune(ctx context.Context, before time.Time) (int, error) {
	tag, err := s.db.Pool.Exec(ctx, `DELETE FROM covid_snapshots WHERE saved_at < $1`, before)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// Close releases the connection pool
func (s *PostgresStore) Close() error {
	s.db.Close()
	return nil
}
