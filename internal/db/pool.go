package db

import (
	"context"
	"fmt"

	"ensure/internal/engine"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// Pool is the Postgres-backed asset store
type Pool struct {
	pool *pgxpool.Pool
	*Queries
	log *zap.Logger
}

func NewPool(databaseURL string) (*Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(context.Background(), config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger, _ := zap.NewProduction()
	return &Pool{
		pool:    pool,
		Queries: NewQueries(pool),
		log:     logger,
	}, nil
}

// Atomically runs fn inside one database transaction so multi-entity writes
// commit or roll back as a unit.
func (p *Pool) Atomically(ctx context.Context, fn func(engine.Store) error) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(&txStore{Queries: NewQueries(tx)}); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// txStore is the store view inside a transaction; nested Atomically calls
// join the enclosing transaction.
type txStore struct {
	*Queries
}

func (t *txStore) Atomically(ctx context.Context, fn func(engine.Store) error) error {
	return fn(t)
}

func (p *Pool) Close() {
	p.pool.Close()
}
