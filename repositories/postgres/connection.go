package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ZubbsZubbs/LAUTECH-sub002/config"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
)

// connectTimeout bounds the first ping when the pool is opened
const connectTimeout = 5 * time.Second

// DB is the hospital's PostgreSQL pool
type DB struct {
	*sql.DB
	logger *zap.Logger
}

// NewDB opens the pool described by cfg and verifies it answers
func NewDB(cfg config.DatabaseConfig, logger *zap.Logger) (*DB, error) {
	pool, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	db := WrapDB(pool, logger)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := db.HealthCheck(ctx); err != nil {
		_ = pool.Close()
		return nil, err
	}

	logger.Info("database connection established",
		zap.String("connection", cfg.LogString()),
		zap.Int("max_open_conns", cfg.MaxOpenConns))
	return db, nil
}

// WrapDB wraps an already opened pool, e.g. one created by go-sqlmock
func WrapDB(pool *sql.DB, logger *zap.Logger) *DB {
	return &DB{DB: pool, logger: logger}
}

// Close closes the pool
func (db *DB) Close() error {
	db.logger.Info("closing database connection")
	return db.DB.Close()
}

// HealthCheck pings the pool and runs a trivial query. It backs startup and /readyz.
func (db *DB) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}

	var one int
	if err := db.QueryRowContext(ctx, "SELECT 1").Scan(&one); err != nil {
		return fmt.Errorf("database query check failed: %w", err)
	}
	return nil
}
