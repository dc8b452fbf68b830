// Package pgstore reads the hosted textbook corpus and answer history from
// Postgres. It mirrors the chunk and result repositories of package store so
// either backend can serve content retrieval and weakness profiling.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	chunksTable  = "dangdai_chunks"
	resultsTable = "question_results"

	// undefinedTable is the SQLSTATE for a missing relation.
	undefinedTable = "42P01"
)

var builder = entsql.Dialect(dialect.Postgres)

// querier is the subset of *pgxpool.Pool the repositories use.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Store owns the Postgres connection pool.
type Store struct {
	pool *pgxpool.Pool
}

// Open connects to the database at dsn and verifies the connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases every pooled connection.
func (s *Store) Close() {
	s.pool.Close()
}

// ChunkRepo returns the dangdai_chunks reader.
func (s *Store) ChunkRepo() *ChunkRepo {
	return &ChunkRepo{q: s.pool}
}

// ResultRepo returns the question_results repository.
func (s *Store) ResultRepo() *ResultRepo {
	return &ResultRepo{q: s.pool}
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}
