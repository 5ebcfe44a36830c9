// Package postgres adapts a pgx connection pool to database.DB.
package postgres

import (
	"context"
	"net"
	"net/url"
	"strings"
	"time"

	"resume-match/internal/config"
	"resume-match/internal/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const defaultPingTimeout = 5 * time.Second

type Pool struct {
	pool *pgxpool.Pool
}

var _ database.DB = (*Pool)(nil)

// Connect opens the pool and verifies it with a ping before returning.
func Connect(ctx context.Context, cfg config.DatabaseConfig) (database.DB, error) {
	pcfg, err := PoolConfig(cfg)
	if err != nil {
		return nil, err
	}

	p, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, err
	}

	pingCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(ctx, defaultPingTimeout)
		defer cancel()
	}
	if err := p.Ping(pingCtx); err != nil {
		p.Close()
		return nil, err
	}

	return &Pool{pool: p}, nil
}

// PoolConfig translates cfg into pgxpool settings. Zero durations and sizes
// keep the pgx defaults.
func PoolConfig(cfg config.DatabaseConfig) (*pgxpool.Config, error) {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(strings.TrimSpace(cfg.DBUser), cfg.DBPassword),
		Host:   net.JoinHostPort(strings.TrimSpace(cfg.DBHost), strings.TrimSpace(cfg.DBPort)),
		Path:   "/" + strings.TrimSpace(cfg.DBName),
	}
	q := url.Values{}
	if ssl := strings.TrimSpace(cfg.DBSSLMode); ssl != "" {
		q.Set("sslmode", ssl)
	}
	u.RawQuery = q.Encode()

	pcfg, err := pgxpool.ParseConfig(u.String())
	if err != nil {
		return nil, err
	}

	if cfg.ConnectTimeout > 0 {
		pcfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}
	if cfg.PoolMaxConns > 0 {
		pcfg.MaxConns = cfg.PoolMaxConns
	}
	if cfg.PoolMinConns > 0 {
		pcfg.MinConns = cfg.PoolMinConns
	}
	if cfg.PoolMaxConnLifetime > 0 {
		pcfg.MaxConnLifetime = cfg.PoolMaxConnLifetime
	}
	if cfg.PoolMaxConnIdleTime > 0 {
		pcfg.MaxConnIdleTime = cfg.PoolMaxConnIdleTime
	}
	if cfg.PoolHealthCheckPeriod > 0 {
		pcfg.HealthCheckPeriod = cfg.PoolHealthCheckPeriod
	}
	return pcfg, nil
}

func (p *Pool) Ping(ctx context.Context) error {
	if p == nil || p.pool == nil {
		return database.ErrNilDB
	}
	return p.pool.Ping(ctx)
}

func (p *Pool) Close() error {
	if p == nil {
		return nil
	}
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

func (p *Pool) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	if p == nil || p.pool == nil {
		return 0, database.ErrNilDB
	}
	return exec(ctx, p.pool, query, args...)
}

func (p *Pool) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	if p == nil || p.pool == nil {
		return nil, database.ErrNilDB
	}
	return p.pool.Query(ctx, query, args...)
}

func (p *Pool) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	if p == nil || p.pool == nil {
		return errRow{err: database.ErrNilDB}
	}
	return p.pool.QueryRow(ctx, query, args...)
}

func (p *Pool) Begin(ctx context.Context) (database.Tx, error) {
	if p == nil || p.pool == nil {
		return nil, database.ErrNilDB
	}
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return pgxTx{tx: tx}, nil
}

type pgxTx struct {
	tx pgx.Tx
}

func (t pgxTx) Exec(ctx context.Context, query string, args ...any) (int64, error) {
	tag, err := t.tx.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (t pgxTx) Query(ctx context.Context, query string, args ...any) (database.Rows, error) {
	return t.tx.Query(ctx, query, args...)
}

func (t pgxTx) QueryRow(ctx context.Context, query string, args ...any) database.Row {
	return t.tx.QueryRow(ctx, query, args...)
}

func (t pgxTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t pgxTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

func exec(ctx context.Context, pool *pgxpool.Pool, query string, args ...any) (int64, error) {
	tag, err := pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type errRow struct{ err error }

func (r errRow) Scan(...any) error { return r.err }
