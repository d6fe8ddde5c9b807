package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultConnectTimeout = 30 * time.Second

type Config struct {
	Addr           string
	MaxConns       int32
	MaxIdleTime    string // time.ParseDuration format, e.g. "15m"
	ConnectTimeout time.Duration
}

// poolConfig turns cfg into a pgxpool config without connecting.
func poolConfig(cfg Config) (*pgxpool.Config, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("db: address is empty")
	}
	pc, err := pgxpool.ParseConfig(cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("db: parse address: %w", err)
	}

	if cfg.MaxConns > 0 {
		pc.MaxConns = cfg.MaxConns
	}
	if cfg.MaxIdleTime != "" {
		idle, err := time.ParseDuration(cfg.MaxIdleTime)
		if err != nil {
			return nil, fmt.Errorf("db: max idle time: %w", err)
		}
		pc.MaxConnIdleTime = idle
	}
	pc.HealthCheckPeriod = time.Minute
	return pc, nil
}

// New opens a pgx pool and pings it once before handing it out.
func New(ctx context.Context, cfg Config) (*pgxpool.Pool, error) {
	pc, err := poolConfig(cfg)
	if err != nil {
		return nil, err
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("db: open pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("db: ping: %w", err)
	}
	return pool, nil
}
