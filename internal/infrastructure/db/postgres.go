package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"aoi-dashboard/internal/infrastructure/config"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/sirupsen/logrus"
)

const (
	pingAttempts = 3
	pingBackoff  = 500 * time.Millisecond
)

// Connect 建立 PostgreSQL 連線池；若未設定 DSN 則回傳 nil。
// Ping 失敗會重試數次，全部失敗時關閉連線池並回傳最後的錯誤。
func Connect(ctx context.Context, cfg config.DBConfig) (*sql.DB, error) {
	if cfg.DSN == "" {
		return nil, nil
	}

	pool, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pool.SetMaxOpenConns(cfg.MaxOpenConns)
	pool.SetMaxIdleConns(cfg.MaxIdleConns)
	pool.SetConnMaxIdleTime(cfg.MaxIdleTime)

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := ping(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"max_open_conns": cfg.MaxOpenConns,
		"max_idle_conns": cfg.MaxIdleConns,
	}).Info("postgres connected")
	return pool, nil
}

func ping(ctx context.Context, pool *sql.DB) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		if err = pool.PingContext(ctx); err == nil {
			return nil
		}
		logrus.WithError(err).WithField("attempt", attempt).Warn("postgres ping failed")
		if attempt == pingAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("ping postgres: %w", err)
		case <-time.After(pingBackoff * time.Duration(attempt)):
		}
	}
	return fmt.Errorf("ping postgres: %w", err)
}
