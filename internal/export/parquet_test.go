package export

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/gradelens/gradelens/internal/store"
)

func TestEncodeResultSet(t *testing.T) {
	result := store.ResultSet{
		Columns: []string{"student_name", "score", "enrolled_at"},
		Rows: [][]any{
			{"张三", 92.5, time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)},
			{"李四", int64(85), nil},
		},
	}

	encoded, err := EncodeResultSet(result)
	if err != nil {
		t.Fatalf("EncodeResultSet() error = %v", err)
	}
	if encoded.RecordCount != 2 {
		t.Fatalf("RecordCount = %d", encoded.RecordCount)
	}
	if len(encoded.Data) == 0 {
		t.Fatal("expected non-empty parquet payload")
	}

	file, err := parquet.OpenFile(bytes.NewReader(encoded.Data), int64(len(encoded.Data)))
	if err != nil {
		t.Fatalf("parquet.OpenFile() error = %v", err)
	}
	reader := parquet.NewGenericReader[map[string]any](bytes.NewReader(encoded.Data), file.Schema())
	defer func() { _ = reader.Close() }()
	rows := make([]map[string]any, 2)
	for i := range rows {
		rows[i] = map[string]any{}
	}
	count, err := reader.Read(rows)
	if err != nil && !errors.Is(err, io.EOF) {
		t.Fatalf("reader.Read() error = %v", err)
	}
	if count != 2 {
		t.Fatalf("read rows = %d", count)
	}
	if rows[0]["student_name"] != "张三" || rows[0]["score"] != "92.5" {
		t.Fatalf("row 0 = %+v", rows[0])
	}
	if rows[1]["enrolled_at"] != nil {
		t.Fatalf("row 1 = %+v, want null enrolled_at", rows[1])
	}
}

func TestEncodeResultSetEmptyRows(t *testing.T) {
	encoded, err := EncodeResultSet(store.ResultSet{Columns: []string{"student_name"}})
	if err != nil {
		t.Fatalf("EncodeResultSet() error = %v", err)
	}
	if encoded.RecordCount != 0 {
		t.Fatalf("RecordCount = %d", encoded.RecordCount)
	}
	if len(encoded.Data) == 0 {
		t.Fatal("expected parquet file with header only")
	}
}

func TestEncodeResultSetRejectsRaggedRows(t *testing.T) {
	_, err := EncodeResultSet(store.ResultSet{
		Columns: []string{"a", "b"},
		Rows:    [][]any{{"only-one"}},
	})
	if err == nil {
		t.Fatal("expected error for ragged row")
	}
}

func TestEncodeResultSetRequiresColumns(t *testing.T) {
	if _, err := EncodeResultSet(store.ResultSet{}); err == nil {
		t.Fatal("expected error for missing columns")
	}
}
