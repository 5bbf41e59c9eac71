// Package duckdb provides the embedded demo store: an in-process DuckDB
// database seeded with a small school dataset, so the service runs fully
// offline with no external database.
package duckdb

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"
	"time"

	_ "github.com/marcboeker/go-duckdb/v2"

	"github.com/gradelens/gradelens/internal/store"
)

//go:embed seed.sql
var seedSQL string

type Store struct {
	db *sql.DB
}

// Open creates an in-memory DuckDB database and applies the embedded seed.
func Open(ctx context.Context) (*Store, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	if _, err := db.ExecContext(ctx, seedSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("seed demo database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping demo database: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const columnQuery = `
SELECT column_name, data_type
FROM information_schema.columns
WHERE table_name = ?
ORDER BY ordinal_position`

func (s *Store) DescribeTables(ctx context.Context, names []string) ([]store.TableSchema, error) {
	schemas := make([]store.TableSchema, 0, len(names))
	for _, name := range names {
		schema, err := s.describeTable(ctx, name)
		if err != nil {
			return nil, err
		}
		schemas = append(schemas, schema)
	}
	return schemas, nil
}

func (s *Store) describeTable(ctx context.Context, name string) (store.TableSchema, error) {
	rows, err := s.db.QueryContext(ctx, columnQuery, name)
	if err != nil {
		return store.TableSchema{}, fmt.Errorf("describe table %q: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	schema := store.TableSchema{Name: name}
	for rows.Next() {
		var column store.Column
		if err := rows.Scan(&column.Name, &column.Type); err != nil {
			return store.TableSchema{}, fmt.Errorf("scan column of %q: %w", name, err)
		}
		schema.Columns = append(schema.Columns, column)
	}
	if err := rows.Err(); err != nil {
		return store.TableSchema{}, fmt.Errorf("iterate columns of %q: %w", name, err)
	}
	if len(schema.Columns) == 0 {
		return store.TableSchema{}, fmt.Errorf("%w: %q", store.ErrUnknownTable, name)
	}
	return schema, nil
}

func (s *Store) Run(ctx context.Context, sqlText string, rowLimit int) (store.ResultSet, error) {
	sqlText = stripTrailingSemicolons(sqlText)
	if sqlText == "" {
		return store.ResultSet{}, fmt.Errorf("sql is required")
	}
	if rowLimit > 0 {
		sqlText = fmt.Sprintf("SELECT * FROM (%s) AS q LIMIT %d", sqlText, rowLimit)
	}

	start := time.Now()
	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return store.ResultSet{}, fmt.Errorf("execute query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return store.ResultSet{}, fmt.Errorf("query columns: %w", err)
	}

	resultRows := make([][]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return store.ResultSet{}, fmt.Errorf("scan row: %w", err)
		}
		resultRows = append(resultRows, normalizeValues(values))
	}
	if err := rows.Err(); err != nil {
		return store.ResultSet{}, fmt.Errorf("iterate rows: %w", err)
	}

	return store.ResultSet{
		Columns:  columns,
		Rows:     resultRows,
		Duration: time.Since(start),
	}, nil
}

func normalizeValues(values []any) []any {
	normalized := make([]any, len(values))
	for i, value := range values {
		switch typed := value.(type) {
		case []byte:
			normalized[i] = string(typed)
		default:
			normalized[i] = typed
		}
	}
	return normalized
}

func stripTrailingSemicolons(sqlText string) string {
	trimmed := strings.TrimSpace(sqlText)
	for strings.HasSuffix(trimmed, ";") {
		trimmed = strings.TrimSpace(strings.TrimSuffix(trimmed, ";"))
	}
	return trimmed
}
