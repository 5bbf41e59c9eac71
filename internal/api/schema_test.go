package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gradelens/gradelens/internal/store"
)

func TestSchemaEndpoint(t *testing.T) {
	cfg := testConfig(t, nil)
	st := &fakeAPIStore{schemas: []store.TableSchema{
		{
			Name:    "students",
			Comment: "学生信息",
			Columns: []store.Column{
				{Name: "student_id", Type: "integer", Comment: "学号"},
				{Name: "student_name", Type: "text"},
			},
		},
	}}
	h := NewHandler(cfg, Dependencies{Store: st, Tables: []string{"students"}})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/schema", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var body schemaResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode failed: %v", err)
	}
	if len(body.Tables) != 1 || body.Tables[0].Name != "students" {
		t.Fatalf("tables = %+v", body.Tables)
	}
	if len(body.Tables[0].Columns) != 2 || body.Tables[0].Columns[0].Comment != "学号" {
		t.Fatalf("columns = %+v", body.Tables[0].Columns)
	}
}

func TestSchemaEndpointStoreFailure(t *testing.T) {
	cfg := testConfig(t, nil)
	st := &fakeAPIStore{describeErr: errors.New("connection refused")}
	h := NewHandler(cfg, Dependencies{Store: st, Tables: []string{"students"}})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/schema", nil))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
}
