package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/gradelens/gradelens/internal/store"
)

type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxIdleTime time.Duration
	ConnMaxLifetime time.Duration
}

type Store struct {
	db *sql.DB
}

func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database dsn is required")
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

func NewWithDB(db *sql.DB) *Store {
	return &Store{db: db}
}

func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

const tableCommentQuery = `
SELECT COALESCE(obj_description(pc.oid), '')
FROM pg_catalog.pg_class pc
JOIN pg_catalog.pg_namespace pn ON pn.oid = pc.relnamespace
WHERE pn.nspname = 'public' AND pc.relname = $1 AND pc.relkind IN ('r', 'v', 'm')`

const columnQuery = `
SELECT c.column_name, c.data_type, COALESCE(col_description(pc.oid, c.ordinal_position::int), '')
FROM information_schema.columns c
JOIN pg_catalog.pg_class pc ON pc.relname = c.table_name
JOIN pg_catalog.pg_namespace pn ON pn.oid = pc.relnamespace AND pn.nspname = c.table_schema
WHERE c.table_schema = 'public' AND c.table_name = $1
ORDER BY c.ordinal_position`

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
	var comment string
	if err := s.db.QueryRowContext(ctx, tableCommentQuery, name).Scan(&comment); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return store.TableSchema{}, fmt.Errorf("%w: %q", store.ErrUnknownTable, name)
		}
		return store.TableSchema{}, fmt.Errorf("describe table %q: %w", name, err)
	}

	rows, err := s.db.QueryContext(ctx, columnQuery, name)
	if err != nil {
		return store.TableSchema{}, fmt.Errorf("describe columns of %q: %w", name, err)
	}
	defer func() { _ = rows.Close() }()

	schema := store.TableSchema{Name: name, Comment: comment}
	for rows.Next() {
		var column store.Column
		if err := rows.Scan(&column.Name, &column.Type, &column.Comment); err != nil {
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
