package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gradelens/gradelens/internal/auth"
	"github.com/gradelens/gradelens/internal/store"
)

func TestExportEndpointReturnsParquet(t *testing.T) {
	cfg := testConfig(t, nil)
	st := &fakeAPIStore{result: store.ResultSet{
		Columns: []string{"student_name", "score"},
		Rows:    [][]any{{"张三", 92.5}},
	}}
	h := NewHandler(cfg, Dependencies{Store: st, ExportRowLimit: 1000})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/export", strings.NewReader(`{"sql":"SELECT student_name, score FROM grades"}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("Content-Type") != "application/octet-stream" {
		t.Fatalf("content type = %q", rr.Header().Get("Content-Type"))
	}
	if !strings.Contains(rr.Header().Get("Content-Disposition"), ".parquet") {
		t.Fatalf("content disposition = %q", rr.Header().Get("Content-Disposition"))
	}
	if rr.Header().Get("X-Record-Count") != "1" {
		t.Fatalf("record count = %q", rr.Header().Get("X-Record-Count"))
	}
	if rr.Body.Len() == 0 {
		t.Fatal("expected non-empty parquet payload")
	}
	if st.lastRowLimit != 1000 {
		t.Fatalf("row limit = %d", st.lastRowLimit)
	}
}

func TestExportEndpointClampsRequestedRowLimit(t *testing.T) {
	cfg := testConfig(t, nil)
	st := &fakeAPIStore{result: store.ResultSet{Columns: []string{"n"}, Rows: [][]any{{int64(1)}}}}
	h := NewHandler(cfg, Dependencies{Store: st, ExportRowLimit: 1000})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/export", strings.NewReader(`{"sql":"SELECT 1 AS n","row_limit":10}`)))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if st.lastRowLimit != 10 {
		t.Fatalf("row limit = %d, want caller value under the cap", st.lastRowLimit)
	}
}

func TestExportEndpointRejectsNonSelect(t *testing.T) {
	cfg := testConfig(t, nil)
	st := &fakeAPIStore{}
	h := NewHandler(cfg, Dependencies{Store: st})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/v1/export", strings.NewReader(`{"sql":"DROP TABLE students"}`)))

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rr.Code)
	}
	if st.lastSQL != "" {
		t.Fatalf("store got sql %q, want nothing", st.lastSQL)
	}
}

func TestExportEndpointRequiresExportRole(t *testing.T) {
	cfg := testConfig(t, map[string]string{"GRADELENS_AUTH_REQUIRED": "true"})
	validator, err := auth.NewStaticAPIKeyValidator("k1:alice:query")
	if err != nil {
		t.Fatalf("validator setup failed: %v", err)
	}
	h := NewHandler(cfg, Dependencies{
		AuthMiddleware: auth.Middleware(nil, validator),
		Store:          &fakeAPIStore{result: store.ResultSet{Columns: []string{"n"}}},
	})

	req := httptest.NewRequest(http.MethodPost, "/v1/export", strings.NewReader(`{"sql":"SELECT 1 AS n"}`))
	req.Header.Set("X-API-Key", "k1")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Fatalf("status = %d, query-only key must not export", rr.Code)
	}
}
