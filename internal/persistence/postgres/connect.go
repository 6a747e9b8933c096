package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/sellpoint/sellpoint/internal/persistence"
)

// Config holds connection pool settings. Disabled by default: the
// engine itself never needs a database, only calibration history does.
type Config struct {
	DSN             string        `yaml:"dsn"`
	Enabled         bool          `yaml:"enabled"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
	QueryTimeout    time.Duration `yaml:"query_timeout"`
}

// DefaultConfig returns pool defaults with persistence disabled.
func DefaultConfig() Config {
	return Config{
		Enabled:         false,
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		QueryTimeout:    10 * time.Second,
	}
}

// Connect opens and verifies a pooled connection.
func Connect(ctx context.Context, cfg Config) (*sqlx.DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres DSN is required when persistence is enabled")
	}

	db, err := sqlx.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return db, nil
}

// NewRepository wires the repository handle over one connection.
func NewRepository(db *sqlx.DB, timeout time.Duration) *persistence.Repository {
	if timeout <= 0 {
		timeout = DefaultConfig().QueryTimeout
	}
	return &persistence.Repository{
		Runs:      NewRunRepo(db, timeout),
		Baselines: NewBaselineRepo(db, timeout),
	}
}
