package nlq

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/gradelens/gradelens/internal/store"
)

func TestDescribeRendersTablesInOrder(t *testing.T) {
	st := &fakeStore{
		schemas: []store.TableSchema{
			{
				Name:    "students",
				Comment: "学生信息",
				Columns: []store.Column{
					{Name: "student_id", Type: "integer", Comment: "学号"},
					{Name: "student_name", Type: "text"},
				},
			},
			{
				Name:    "grades",
				Columns: []store.Column{{Name: "score", Type: "numeric"}},
			},
		},
	}
	introspector := NewSchemaIntrospector(st)

	rendered, err := introspector.Describe(context.Background(), []string{"students", "grades"})
	if err != nil {
		t.Fatalf("Describe() error = %v", err)
	}
	want := "Table students (学生信息):\n" +
		"  student_id integer -- 学号\n" +
		"  student_name text\n" +
		"\n" +
		"Table grades:\n" +
		"  score numeric\n"
	if rendered != want {
		t.Fatalf("Describe() = %q, want %q", rendered, want)
	}
}

func TestDescribeWrapsStoreError(t *testing.T) {
	st := &fakeStore{describeErr: fmt.Errorf("%w: %q", store.ErrUnknownTable, "homework")}
	introspector := NewSchemaIntrospector(st)

	_, err := introspector.Describe(context.Background(), []string{"homework"})
	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("Describe() error = %v, want SchemaError", err)
	}
	if !errors.Is(err, store.ErrUnknownTable) {
		t.Fatalf("Describe() error = %v, want wrapped ErrUnknownTable", err)
	}
}
