// Package export encodes executed query results for download. Result sets
// have no schema known at compile time, so every column is written as an
// optional UTF8 string.
package export

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/gradelens/gradelens/internal/store"
)

type ParquetEncodeResult struct {
	Data        []byte
	RecordCount int64
}

func EncodeResultSet(result store.ResultSet) (ParquetEncodeResult, error) {
	if len(result.Columns) == 0 {
		return ParquetEncodeResult{}, fmt.Errorf("result columns are required")
	}

	group := parquet.Group{}
	for _, column := range result.Columns {
		if column == "" {
			return ParquetEncodeResult{}, fmt.Errorf("empty column name")
		}
		group[column] = parquet.Optional(parquet.String())
	}
	schema := parquet.NewSchema("result", group)

	rows := make([]map[string]any, 0, len(result.Rows))
	for index, row := range result.Rows {
		if len(row) != len(result.Columns) {
			return ParquetEncodeResult{}, fmt.Errorf("row %d has %d values, want %d", index, len(row), len(result.Columns))
		}
		encoded := make(map[string]any, len(row))
		for position, value := range row {
			if value == nil {
				encoded[result.Columns[position]] = nil
				continue
			}
			encoded[result.Columns[position]] = stringify(value)
		}
		rows = append(rows, encoded)
	}

	buf := bytes.NewBuffer(nil)
	writer := parquet.NewGenericWriter[map[string]any](buf, schema)
	if len(rows) > 0 {
		if _, err := writer.Write(rows); err != nil {
			return ParquetEncodeResult{}, fmt.Errorf("write parquet rows: %w", err)
		}
	}
	if err := writer.Close(); err != nil {
		return ParquetEncodeResult{}, fmt.Errorf("close parquet writer: %w", err)
	}

	return ParquetEncodeResult{
		Data:        buf.Bytes(),
		RecordCount: int64(len(rows)),
	}, nil
}

func stringify(value any) string {
	switch typed := value.(type) {
	case string:
		return typed
	case []byte:
		return string(typed)
	case time.Time:
		return typed.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(typed), 'f', -1, 32)
	case int64:
		return strconv.FormatInt(typed, 10)
	case bool:
		return strconv.FormatBool(typed)
	default:
		return fmt.Sprintf("%v", typed)
	}
}
