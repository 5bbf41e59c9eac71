package store

import (
	"context"
	"errors"
	"time"
)

// ErrUnknownTable is returned by DescribeTables when a requested table does
// not exist in the connected database.
var ErrUnknownTable = errors.New("store: unknown table")

type Column struct {
	Name    string
	Type    string
	Comment string
}

type TableSchema struct {
	Name    string
	Comment string
	Columns []Column
}

type ResultSet struct {
	Columns  []string
	Rows     [][]any
	Duration time.Duration
}

// Store is the read-only view of the school database the pipeline queries.
// Implementations must not mutate data beyond what the caller-supplied SQL
// does; the pipeline itself only submits SELECT/WITH statements.
type Store interface {
	HealthCheck(ctx context.Context) error
	DescribeTables(ctx context.Context, names []string) ([]TableSchema, error)
	Run(ctx context.Context, sqlText string, rowLimit int) (ResultSet, error)
	Close() error
}
