package api

import (
	"net/http"

	"github.com/gradelens/gradelens/internal/store"
)

type schemaResponse struct {
	Tables []schemaTable `json:"tables"`
}

type schemaTable struct {
	Name    string         `json:"name"`
	Comment string         `json:"comment,omitempty"`
	Columns []schemaColumn `json:"columns"`
}

type schemaColumn struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Comment string `json:"comment,omitempty"`
}

func handleSchema(deps Dependencies, w http.ResponseWriter, r *http.Request) {
	if deps.Store == nil {
		writeError(r.Context(), w, http.StatusNotImplemented, "STORE_NOT_CONFIGURED", "data store is not configured", false, nil)
		return
	}
	if err := requireRole(r, "query"); err != nil {
		writeError(r.Context(), w, http.StatusForbidden, "FORBIDDEN", err.Error(), false, nil)
		return
	}

	schemas, err := deps.Store.DescribeTables(r.Context(), deps.Tables)
	if err != nil {
		writeError(r.Context(), w, http.StatusInternalServerError, "SCHEMA_ERROR", "failed to describe tables", true, map[string]any{"details": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, toSchemaResponse(schemas))
}

func toSchemaResponse(schemas []store.TableSchema) schemaResponse {
	response := schemaResponse{Tables: make([]schemaTable, 0, len(schemas))}
	for _, schema := range schemas {
		table := schemaTable{
			Name:    schema.Name,
			Comment: schema.Comment,
			Columns: make([]schemaColumn, 0, len(schema.Columns)),
		}
		for _, column := range schema.Columns {
			table.Columns = append(table.Columns, schemaColumn{
				Name:    column.Name,
				Type:    column.Type,
				Comment: column.Comment,
			})
		}
		response.Tables = append(response.Tables, table)
	}
	return response
}
