package nlq

import (
	"context"
	"fmt"
	"strings"

	"github.com/gradelens/gradelens/internal/store"
)

// SchemaIntrospector renders the store schema as a compact text block for
// prompt injection. Output is deterministic: tables appear in input order,
// columns in store order.
type SchemaIntrospector struct {
	store store.Store
}

func NewSchemaIntrospector(st store.Store) *SchemaIntrospector {
	return &SchemaIntrospector{store: st}
}

func (i *SchemaIntrospector) Describe(ctx context.Context, names []string) (string, error) {
	schemas, err := i.store.DescribeTables(ctx, names)
	if err != nil {
		return "", &SchemaError{Err: err}
	}
	return renderSchemas(schemas), nil
}

func renderSchemas(schemas []store.TableSchema) string {
	var b strings.Builder
	for index, schema := range schemas {
		if index > 0 {
			b.WriteString("\n")
		}
		b.WriteString("Table ")
		b.WriteString(schema.Name)
		if schema.Comment != "" {
			fmt.Fprintf(&b, " (%s)", schema.Comment)
		}
		b.WriteString(":\n")
		for _, column := range schema.Columns {
			fmt.Fprintf(&b, "  %s %s", column.Name, column.Type)
			if column.Comment != "" {
				fmt.Fprintf(&b, " -- %s", column.Comment)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}
