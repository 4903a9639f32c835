package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/wegman-software/osmstats-go/internal/config"
	"github.com/wegman-software/osmstats-go/internal/logger"
)

// UserRow is one persisted per-user aggregate
type UserRow struct {
	Username string `json:"user"`
	Edits    int64  `json:"edits"`
}

// Postgres stores per-user aggregate rows in PostgreSQL
type Postgres struct {
	cfg  *config.Config
	pool *pgxpool.Pool
}

// NewPostgres connects to PostgreSQL and returns the user stats store
func NewPostgres(ctx context.Context, cfg *config.Config) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	return &Postgres{cfg: cfg, pool: pool}, nil
}

// Close closes connections
func (s *Postgres) Close() {
	s.pool.Close()
}

// EnsureSchema creates the user stats table if it doesn't exist
func (s *Postgres) EnsureSchema(ctx context.Context) error {
	log := logger.Get()
	log.Info("Ensuring user stats table", zap.String("schema", s.cfg.DBSchema))

	sql := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s.osm_user_stats (
			username TEXT PRIMARY KEY,
			edits BIGINT NOT NULL,
			fetched_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`, s.cfg.DBSchema)

	if _, err := s.pool.Exec(ctx, sql); err != nil {
		return fmt.Errorf("failed to create osm_user_stats: %w", err)
	}
	return nil
}

// UpsertUser inserts or replaces one user's edit count. Last write wins:
// a re-fetch supersedes the previous aggregate entirely.
func (s *Postgres) UpsertUser(ctx context.Context, username string, edits int64) error {
	sql := fmt.Sprintf(`
		INSERT INTO %s.osm_user_stats (username, edits, fetched_at)
		VALUES ($1, $2, now())
		ON CONFLICT (username)
		DO UPDATE SET edits = EXCLUDED.edits, fetched_at = now()`, s.cfg.DBSchema)

	if _, err := s.pool.Exec(ctx, sql, username, edits); err != nil {
		return fmt.Errorf("failed to upsert user %q: %w", username, err)
	}
	return nil
}

// ListUsers returns all persisted rows ordered by edit count descending
func (s *Postgres) ListUsers(ctx context.Context) ([]UserRow, error) {
	sql := fmt.Sprintf(
		"SELECT username, edits FROM %s.osm_user_stats ORDER BY edits DESC, username ASC",
		s.cfg.DBSchema)

	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query user stats: %w", err)
	}
	defer rows.Close()

	var users []UserRow
	for rows.Next() {
		var u UserRow
		if err := rows.Scan(&u.Username, &u.Edits); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read user rows: %w", err)
	}
	return users, nil
}

// DashboardCSV renders all persisted rows as the dashboard export
func (s *Postgres) DashboardCSV(ctx context.Context) (string, error) {
	users, err := s.ListUsers(ctx)
	if err != nil {
		return "", err
	}
	return UsersCSV(users)
}

// UsersCSV renders user rows as CSV with a "user,edits" header
func UsersCSV(users []UserRow) (string, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"user", "edits"}); err != nil {
		return "", err
	}
	for _, u := range users {
		if err := w.Write([]string{u.Username, strconv.FormatInt(u.Edits, 10)}); err != nil {
			return "", err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return "", err
	}
	return buf.String(), nil
}
