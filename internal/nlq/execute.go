package nlq

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gradelens/gradelens/internal/store"
)

// NoMatchingRecords is the sentinel an empty result set serializes to, so
// the explanation stage always has non-empty input.
const NoMatchingRecords = "no matching records"

// Executor runs generated SQL against the store and serializes the result
// set as comma-separated text with a header row. Only read-only SELECT/WITH
// statements are accepted; everything else is rejected before it reaches the
// store.
type Executor struct {
	store    store.Store
	rowLimit int
}

func NewExecutor(st store.Store, rowLimit int) *Executor {
	return &Executor{store: st, rowLimit: rowLimit}
}

// Execute returns the serialized result text and the row count. The row
// count is for observability only.
func (e *Executor) Execute(ctx context.Context, sqlText string) (string, int, error) {
	if !isReadOnlySQL(sqlText) {
		return "", 0, &ExecutionError{Err: fmt.Errorf("only read-only SELECT/WITH queries are allowed")}
	}

	result, err := e.store.Run(ctx, sqlText, e.rowLimit)
	if err != nil {
		return "", 0, &ExecutionError{Err: err}
	}
	if len(result.Rows) == 0 {
		return NoMatchingRecords, 0, nil
	}
	return serializeResult(result), len(result.Rows), nil
}

func isReadOnlySQL(sqlText string) bool {
	normalized := strings.ToLower(strings.TrimSpace(sqlText))
	if normalized == "" {
		return false
	}
	return strings.HasPrefix(normalized, "select") || strings.HasPrefix(normalized, "with")
}

func serializeResult(result store.ResultSet) string {
	var b strings.Builder
	b.WriteString(strings.Join(result.Columns, ","))
	for _, row := range result.Rows {
		b.WriteString("\n")
		for index, value := range row {
			if index > 0 {
				b.WriteString(",")
			}
			b.WriteString(formatValue(value))
		}
	}
	return b.String()
}

func formatValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []byte:
		return string(typed)
	case time.Time:
		if typed.Hour() == 0 && typed.Minute() == 0 && typed.Second() == 0 {
			return typed.Format("2006-01-02")
		}
		return typed.Format("2006-01-02 15:04:05")
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(typed, 10)
	default:
		return fmt.Sprintf("%v", typed)
	}
}
