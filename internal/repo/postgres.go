package repo

import (
	"context"
	"database/sql"
	"net"
	"net/url"
	"os"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/okvee/aria2mon/internal/data"
)

// PostgresSampleRepo implements SampleRepo backed by PostgreSQL. The
// stat_samples table is created on startup if missing.
type PostgresSampleRepo struct {
	db *sql.DB
}

// NewPostgresSampleRepo constructs a repository using the provided DSN.
func NewPostgresSampleRepo(dsn string) (*PostgresSampleRepo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	r := &PostgresSampleRepo{db: db}
	if err := r.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// NewPostgresSampleRepoFromEnv builds a DSN from component env vars.
// Recognized envs (with defaults):
//
//	POSTGRES_HOST (postgres), POSTGRES_PORT (5432), POSTGRES_DB (aria2mon),
//	POSTGRES_USER (aria2mon), POSTGRES_PASSWORD (""), POSTGRES_SSLMODE (disable)
func NewPostgresSampleRepoFromEnv() (*PostgresSampleRepo, error) {
	get := func(key, def string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return def
	}
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(get("POSTGRES_USER", "aria2mon"), os.Getenv("POSTGRES_PASSWORD")),
		Host:   net.JoinHostPort(get("POSTGRES_HOST", "postgres"), get("POSTGRES_PORT", "5432")),
		Path:   "/" + get("POSTGRES_DB", "aria2mon"),
	}
	q := url.Values{}
	q.Set("sslmode", get("POSTGRES_SSLMODE", "disable"))
	u.RawQuery = q.Encode()
	return NewPostgresSampleRepo(u.String())
}

var _ SampleRepo = (*PostgresSampleRepo)(nil)

func (r *PostgresSampleRepo) ensureSchema(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS stat_samples (
    id             UUID PRIMARY KEY,
    taken_at       TIMESTAMPTZ NOT NULL,
    download_speed BIGINT NOT NULL,
    upload_speed   BIGINT NOT NULL,
    num_active     INT NOT NULL,
    num_waiting    INT NOT NULL,
    num_stopped    INT NOT NULL
);
CREATE INDEX IF NOT EXISTS stat_samples_taken_at_idx ON stat_samples (taken_at DESC);
`)
	return err
}

func (r *PostgresSampleRepo) Add(ctx context.Context, s data.Sample) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO stat_samples (id, taken_at, download_speed, upload_speed, num_active, num_waiting, num_stopped)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		s.ID, s.TakenAt, s.DownloadSpeed, s.UploadSpeed, s.NumActive, s.NumWaiting, s.NumStopped)
	return err
}

func (r *PostgresSampleRepo) Recent(ctx context.Context, limit int) (data.Samples, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, taken_at, download_speed, upload_speed, num_active, num_waiting, num_stopped
FROM stat_samples ORDER BY taken_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	out := make(data.Samples, 0, limit)
	for rows.Next() {
		var s data.Sample
		if err := rows.Scan(&s.ID, &s.TakenAt, &s.DownloadSpeed, &s.UploadSpeed, &s.NumActive, &s.NumWaiting, &s.NumStopped); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Close releases the underlying connection pool.
func (r *PostgresSampleRepo) Close() error {
	return r.db.Close()
}
