package nlq

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/gradelens/gradelens/internal/store"
)

func TestExecuteSerializesRows(t *testing.T) {
	st := &fakeStore{
		result: store.ResultSet{
			Columns: []string{"student_name", "score", "enrolled_at"},
			Rows: [][]any{
				{"张三", 92.5, time.Date(2023, 9, 1, 0, 0, 0, 0, time.UTC)},
				{"李四", int64(85), nil},
			},
		},
	}
	executor := NewExecutor(st, 200)

	text, rows, err := executor.Execute(context.Background(), "SELECT student_name, score, enrolled_at FROM grades")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	want := "student_name,score,enrolled_at\n张三,92.5,2023-09-01\n李四,85,"
	if text != want {
		t.Fatalf("Execute() = %q, want %q", text, want)
	}
	if rows != 2 {
		t.Fatalf("rows = %d", rows)
	}
	if st.lastRowLimit != 200 {
		t.Fatalf("row limit = %d", st.lastRowLimit)
	}
}

func TestExecuteEmptyResultSentinel(t *testing.T) {
	st := &fakeStore{result: store.ResultSet{Columns: []string{"student_name"}}}
	executor := NewExecutor(st, 0)

	text, rows, err := executor.Execute(context.Background(), "SELECT student_name FROM students WHERE 1 = 0")
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if text != NoMatchingRecords {
		t.Fatalf("Execute() = %q, want %q", text, NoMatchingRecords)
	}
	if rows != 0 {
		t.Fatalf("rows = %d", rows)
	}
}

func TestExecuteRejectsWrites(t *testing.T) {
	st := &fakeStore{}
	executor := NewExecutor(st, 0)

	for _, sqlText := range []string{
		"DELETE FROM students",
		"DROP TABLE grades",
		"UPDATE grades SET score = 100",
		"",
	} {
		_, _, err := executor.Execute(context.Background(), sqlText)
		var execErr *ExecutionError
		if !errors.As(err, &execErr) {
			t.Fatalf("Execute(%q) error = %v, want ExecutionError", sqlText, err)
		}
	}
	if st.runCalls != 0 {
		t.Fatalf("store run calls = %d, rejected statements must not reach the store", st.runCalls)
	}
}

func TestExecuteAllowsCTE(t *testing.T) {
	st := &fakeStore{result: store.ResultSet{Columns: []string{"n"}, Rows: [][]any{{int64(1)}}}}
	executor := NewExecutor(st, 0)

	if _, _, err := executor.Execute(context.Background(), "WITH top AS (SELECT 1 AS n) SELECT n FROM top"); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
}

func TestExecuteWrapsStoreError(t *testing.T) {
	st := &fakeStore{runErr: fmt.Errorf(`relation "studnets" does not exist`)}
	executor := NewExecutor(st, 0)

	_, _, err := executor.Execute(context.Background(), "SELECT * FROM studnets")
	var execErr *ExecutionError
	if !errors.As(err, &execErr) {
		t.Fatalf("Execute() error = %v, want ExecutionError", err)
	}
	if !strings.Contains(err.Error(), `"studnets" does not exist`) {
		t.Fatalf("Execute() error = %v, want store message preserved", err)
	}
}
