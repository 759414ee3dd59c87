package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	apihttp "github.com/arkilian/typecast/internal/api/http"
	"github.com/arkilian/typecast/internal/cache"
	"github.com/arkilian/typecast/internal/catalog"
	"github.com/arkilian/typecast/internal/observability"
	"github.com/arkilian/typecast/internal/storage"
)

type testServer struct {
	mux     http.Handler
	catalog *catalog.SQLiteCatalog
	stats   *observability.CastStats
	cache   *cache.VerdictCache
	store   storage.ObjectStorage
}

func newTestServer(t *testing.T, maxBatch int) *testServer {
	t.Helper()

	cat, err := catalog.NewCatalog(filepath.Join(t.TempDir(), "catalog.db"), 2)
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	t.Cleanup(func() { cat.Close() })

	stats := observability.NewCastStats(time.Hour)
	verdicts, err := cache.NewVerdictCache(64, nil)
	if err != nil {
		t.Fatal(err)
	}
	resolve := stats.Observe(verdicts.Resolve)
	cat.SetResolveFunc(resolve)

	store, err := storage.NewLocalStorage(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	mux := apihttp.NewMux(apihttp.Handlers{
		Casts:     apihttp.NewCastHandler(cat, resolve, maxBatch),
		Tables:    apihttp.NewTableHandler(cat, catalog.EvolutionImplicit),
		Types:     apihttp.NewTypeHandler(cat),
		Stats:     apihttp.NewStatsHandler(stats, verdicts),
		Snapshots: apihttp.NewSnapshotHandler(cat, store, "snapshots/default.json.snappy"),
		Health:    apihttp.HealthHandler("typecast", "all"),
	}, apihttp.DefaultMiddleware())

	return &testServer{mux: mux, catalog: cat, stats: stats, cache: verdicts, store: store}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.mux.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("failed to unmarshal response %q: %v", rec.Body.String(), err)
	}
}

func TestCastHandler_Single(t *testing.T) {
	s := newTestServer(t, 10)

	tests := []struct {
		source, target     string
		implicit, explicit bool
		rule               string
	}{
		{"INT", "BIGINT", true, true, "root-table"},
		{"BIGINT", "INT", false, true, "root-table"},
		{"INT NOT NULL", "INT", true, true, "identity"},
		{"INT", "INT NOT NULL", false, true, "identity"},
		{"NULL", "INT NOT NULL", true, true, "null-literal"},
		{"ARRAY<INT>", "ARRAY<BIGINT>", true, true, "structural"},
		{"BOOLEAN", "DATE", false, false, "uncovered"},
	}
	for _, tt := range tests {
		t.Run(tt.source+" to "+tt.target, func(t *testing.T) {
			rec := s.do(t, http.MethodPost, "/v1/casts", apihttp.CastPair{Source: tt.source, Target: tt.target})
			if rec.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
			}
			var resp apihttp.CastResult
			decode(t, rec, &resp)
			if resp.Implicit != tt.implicit || resp.Explicit != tt.explicit {
				t.Errorf("got implicit=%v explicit=%v, want %v %v", resp.Implicit, resp.Explicit, tt.implicit, tt.explicit)
			}
			if resp.Rule != tt.rule {
				t.Errorf("rule = %q, want %q", resp.Rule, tt.rule)
			}
			if resp.RequestID == "" {
				t.Error("expected request_id in response")
			}
		})
	}

	if got := s.stats.Summary().Total; got != int64(len(tests)) {
		t.Errorf("stats total = %d, want %d", got, len(tests))
	}
}

func TestCastHandler_Errors(t *testing.T) {
	s := newTestServer(t, 2)

	rec := s.do(t, http.MethodPost, "/v1/casts", apihttp.CastPair{Source: "INT", Target: "NOT_A_TYPE"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
	var errResp apihttp.ErrorResponse
	decode(t, rec, &errResp)
	if errResp.Code != "INVALID_TYPE_STRING" || errResp.RequestID == "" {
		t.Errorf("unexpected error response: %+v", errResp)
	}

	rec = s.do(t, http.MethodPost, "/v1/casts", apihttp.CastPair{Source: "INT"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing target: expected 400, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/v1/casts", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET: expected 405, got %d", rec.Code)
	}

	big := apihttp.CastRequest{Pairs: make([]apihttp.CastPair, 3)}
	rec = s.do(t, http.MethodPost, "/v1/casts", big)
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized batch: expected 413, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/casts", strings.NewReader("{"))
	w := httptest.NewRecorder()
	s.mux.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body: expected 400, got %d", w.Code)
	}
}

func TestCastHandler_Batch(t *testing.T) {
	s := newTestServer(t, 10)

	req := apihttp.CastRequest{Pairs: []apihttp.CastPair{
		{Source: "SMALLINT", Target: "DECIMAL(10, 2)"},
		{Source: "INT", Target: "BOGUS"},
		{Source: "smallint", Target: "decimal(10,2)"},
	}}
	rec := s.do(t, http.MethodPost, "/v1/casts", req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp apihttp.CastBatchResponse
	decode(t, rec, &resp)
	if len(resp.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(resp.Results))
	}
	if !resp.Results[0].Implicit || resp.Results[0].Error != "" {
		t.Errorf("first pair: %+v", resp.Results[0])
	}
	if resp.Results[1].Error == "" || resp.Results[1].Code != "INVALID_TYPE_STRING" {
		t.Errorf("second pair should carry its own error: %+v", resp.Results[1])
	}
	if resp.Results[2].Source != "SMALLINT" || resp.Results[2].Target != "DECIMAL(10, 2)" {
		t.Errorf("third pair should be normalized: %+v", resp.Results[2])
	}

	// The normalized third pair is served from the cache.
	if hits := s.cache.Stats().Hits; hits != 1 {
		t.Errorf("cache hits = %d, want 1", hits)
	}
}

func TestTableHandler_SchemaLifecycle(t *testing.T) {
	s := newTestServer(t, 10)

	v1 := apihttp.SchemaRequest{Columns: []apihttp.ColumnJSON{
		{Name: "id", Type: "INT NOT NULL"},
		{Name: "name", Type: "VARCHAR(20)", Description: "display name"},
	}}
	rec := s.do(t, http.MethodPost, "/v1/tables/users/schema", v1)
	if rec.Code != http.StatusOK {
		t.Fatalf("register v1: %d %s", rec.Code, rec.Body.String())
	}
	var version apihttp.SchemaVersionResponse
	decode(t, rec, &version)
	if version.Version != 1 || version.ChangeID == "" || version.EvolutionMode != "implicit" {
		t.Errorf("unexpected version: %+v", version)
	}

	v2 := apihttp.SchemaRequest{Columns: []apihttp.ColumnJSON{
		{Name: "id", Type: "BIGINT NOT NULL"},
		{Name: "name", Type: "STRING", Description: "display name"},
		{Name: "age", Type: "INT"},
	}}
	rec = s.do(t, http.MethodPost, "/v1/tables/users/schema", v2)
	if rec.Code != http.StatusOK {
		t.Fatalf("register v2: %d %s", rec.Code, rec.Body.String())
	}

	narrowed := apihttp.SchemaRequest{Columns: []apihttp.ColumnJSON{
		{Name: "id", Type: "INT NOT NULL"},
		{Name: "name", Type: "STRING"},
		{Name: "age", Type: "INT"},
	}}
	rec = s.do(t, http.MethodPost, "/v1/tables/users/schema", narrowed)
	if rec.Code != http.StatusConflict {
		t.Fatalf("narrowing: expected 409, got %d: %s", rec.Code, rec.Body.String())
	}
	var errResp apihttp.ErrorResponse
	decode(t, rec, &errResp)
	if errResp.Code != "INCOMPATIBLE_SCHEMA" || errResp.Details["columns"] == nil {
		t.Errorf("unexpected error response: %+v", errResp)
	}

	rec = s.do(t, http.MethodGet, "/v1/tables/users/schema", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: %d", rec.Code)
	}
	var history apihttp.SchemaHistoryResponse
	decode(t, rec, &history)
	if len(history.Versions) != 2 || history.Versions[1].Columns[0].Type != "BIGINT NOT NULL" {
		t.Errorf("unexpected history: %+v", history)
	}

	rec = s.do(t, http.MethodGet, "/v1/tables/users/schema?version=1", nil)
	decode(t, rec, &version)
	if rec.Code != http.StatusOK || version.Version != 1 {
		t.Errorf("get version 1: %d %+v", rec.Code, version)
	}

	rec = s.do(t, http.MethodGet, "/v1/tables/users/schema?version=9", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing version: expected 404, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/v1/tables", nil)
	var tables apihttp.TablesResponse
	decode(t, rec, &tables)
	if len(tables.Tables) != 1 || tables.Tables[0] != "users" {
		t.Errorf("unexpected tables: %+v", tables)
	}
}

func TestTableHandler_Check(t *testing.T) {
	s := newTestServer(t, 10)

	schema := apihttp.SchemaRequest{Columns: []apihttp.ColumnJSON{
		{Name: "id", Type: "BIGINT NOT NULL"},
		{Name: "score", Type: "DOUBLE"},
	}}
	if rec := s.do(t, http.MethodPost, "/v1/tables/scores/schema", schema); rec.Code != http.StatusOK {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}

	tests := []struct {
		source     string
		assignable bool
	}{
		{"ROW<a INT NOT NULL, b FLOAT>", true},
		{"ROW<a INT, b FLOAT>", false},
		{"ROW<a INT NOT NULL, b STRING>", false},
	}
	for _, tt := range tests {
		rec := s.do(t, http.MethodPost, "/v1/tables/scores/check", apihttp.CheckRequest{Source: tt.source})
		if rec.Code != http.StatusOK {
			t.Fatalf("check %s: %d %s", tt.source, rec.Code, rec.Body.String())
		}
		var resp apihttp.CheckResponse
		decode(t, rec, &resp)
		if resp.Assignable != tt.assignable {
			t.Errorf("%s: assignable = %v, want %v", tt.source, resp.Assignable, tt.assignable)
		}
		if !tt.assignable && len(resp.Mismatches) == 0 {
			t.Errorf("%s: expected mismatches", tt.source)
		}
	}

	rec := s.do(t, http.MethodPost, "/v1/tables/nope/check", apihttp.CheckRequest{Source: "ROW<a INT>"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown table: expected 404, got %d", rec.Code)
	}
}

func TestTypeHandler(t *testing.T) {
	s := newTestServer(t, 10)

	req := apihttp.TypeRequest{
		Identifier:  "cat.db.Point",
		Definition:  "STRUCTURED<x DOUBLE, y DOUBLE>",
		Description: "2d point",
	}
	rec := s.do(t, http.MethodPost, "/v1/types", req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}

	rec = s.do(t, http.MethodPost, "/v1/types", req)
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate: expected 409, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/v1/types", apihttp.TypeRequest{Identifier: "Point", Definition: "STRUCTURED<x INT>"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad identifier: expected 400, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/v1/types", apihttp.TypeRequest{Identifier: "cat.db.Bad", Definition: "ROW<x INT>"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("row definition: expected 400, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/v1/types", nil)
	var list apihttp.TypeListResponse
	decode(t, rec, &list)
	if len(list.Types) != 1 || list.Types[0].Identifier != "cat.db.Point" || list.Types[0].Description != "2d point" {
		t.Errorf("unexpected list: %+v", list)
	}

	// Registered types resolve in cast requests.
	rec = s.do(t, http.MethodPost, "/v1/casts", apihttp.CastPair{Source: "cat.db.Point", Target: "ROW<a DOUBLE, b DOUBLE>"})
	var cast apihttp.CastResult
	decode(t, rec, &cast)
	if rec.Code != http.StatusOK || !cast.Implicit || cast.Rule != "structural" {
		t.Errorf("structured to row of the same shape should be implicit: %d %+v", rec.Code, cast)
	}
}

func TestStatsAndHealth(t *testing.T) {
	s := newTestServer(t, 10)

	s.do(t, http.MethodPost, "/v1/casts", apihttp.CastPair{Source: "BOOLEAN", Target: "DATE"})
	s.do(t, http.MethodPost, "/v1/casts", apihttp.CastPair{Source: "BOOLEAN", Target: "DATE"})
	s.do(t, http.MethodPost, "/v1/casts", apihttp.CastPair{Source: "INT", Target: "BIGINT"})

	rec := s.do(t, http.MethodGet, "/v1/stats?top=5", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("stats: %d", rec.Code)
	}
	var stats apihttp.StatsResponse
	decode(t, rec, &stats)
	if stats.Total != 3 || stats.Implicit != 1 {
		t.Errorf("unexpected counters: %+v", stats)
	}
	if len(stats.Uncovered) != 1 || stats.Uncovered[0].Frequency != 2 || stats.Uncovered[0].Example != "BOOLEAN -> DATE" {
		t.Errorf("unexpected uncovered pairs: %+v", stats.Uncovered)
	}
	if stats.Cache == nil || stats.Cache.Hits != 1 || stats.Cache.Misses != 2 {
		t.Errorf("unexpected cache stats: %+v", stats.Cache)
	}

	rec = s.do(t, http.MethodGet, "/v1/stats?top=-1", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative top: expected 400, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodGet, "/health", nil)
	var health map[string]string
	decode(t, rec, &health)
	if rec.Code != http.StatusOK || health["status"] != "healthy" {
		t.Errorf("unexpected health response: %d %v", rec.Code, health)
	}
}

func TestSnapshotHandler(t *testing.T) {
	s := newTestServer(t, 10)

	if rec := s.do(t, http.MethodPost, "/v1/types", apihttp.TypeRequest{
		Identifier: "cat.db.Point",
		Definition: "STRUCTURED<x DOUBLE, y DOUBLE>",
	}); rec.Code != http.StatusCreated {
		t.Fatalf("register type: %d %s", rec.Code, rec.Body.String())
	}

	rec := s.do(t, http.MethodPost, "/v1/snapshots/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("export: %d %s", rec.Code, rec.Body.String())
	}
	var info apihttp.SnapshotResponse
	decode(t, rec, &info)
	if info.Key != "snapshots/default.json.snappy" || info.Types != 1 || info.ETag == "" {
		t.Errorf("unexpected export: %+v", info)
	}

	rec = s.do(t, http.MethodPost, "/v1/snapshots/import", apihttp.SnapshotRequest{Key: info.Key})
	if rec.Code != http.StatusConflict {
		t.Errorf("import into a non-empty catalog: expected 409, got %d", rec.Code)
	}

	rec = s.do(t, http.MethodPost, "/v1/snapshots/import", apihttp.SnapshotRequest{Key: "missing"})
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing snapshot: expected 404, got %d", rec.Code)
	}
}

func TestMiddleware_RequestIDs(t *testing.T) {
	handler := apihttp.DefaultMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if apihttp.GetRequestID(r.Context()) != "given" {
			t.Errorf("request id not propagated")
		}
		if apihttp.GetCorrelationID(r.Context()) != "given" {
			t.Errorf("correlation id should fall back to the request id")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "given")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Header().Get("X-Request-ID") != "given" || rec.Header().Get("X-Correlation-ID") != "given" {
		t.Errorf("unexpected headers: %v", rec.Header())
	}
}

func TestMiddleware_Recovery(t *testing.T) {
	handler := apihttp.DefaultMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", rec.Code)
	}
}
