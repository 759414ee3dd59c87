package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/arkilian/typecast/internal/catalog"
	tcerrors "github.com/arkilian/typecast/internal/errors"
)

// ColumnJSON is a column in request and response bodies.
type ColumnJSON struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// SchemaRequest registers a new schema version.
type SchemaRequest struct {
	Columns       []ColumnJSON `json:"columns"`
	EvolutionMode string       `json:"evolution_mode,omitempty"`
}

// SchemaVersionResponse is one stored schema version.
type SchemaVersionResponse struct {
	Table         string       `json:"table"`
	Version       int          `json:"version"`
	ChangeID      string       `json:"change_id"`
	EvolutionMode string       `json:"evolution_mode"`
	Columns       []ColumnJSON `json:"columns"`
	CreatedAt     time.Time    `json:"created_at"`
	RequestID     string       `json:"request_id,omitempty"`
}

// SchemaHistoryResponse lists all versions of a table, oldest first.
type SchemaHistoryResponse struct {
	Table     string                  `json:"table"`
	Versions  []SchemaVersionResponse `json:"versions"`
	RequestID string                  `json:"request_id"`
}

// CheckRequest asks whether rows of Source can be inserted into a table.
type CheckRequest struct {
	Source string `json:"source"`
}

// CheckResponse is the outcome of an assignment check.
type CheckResponse struct {
	Table      string   `json:"table"`
	Version    int      `json:"version"`
	Source     string   `json:"source"`
	Target     string   `json:"target"`
	Assignable bool     `json:"assignable"`
	Explicit   bool     `json:"explicit"`
	Rule       string   `json:"rule"`
	Mismatches []string `json:"mismatches"`
	RequestID  string   `json:"request_id"`
}

// TablesResponse lists the tables known to the catalog.
type TablesResponse struct {
	Tables    []string `json:"tables"`
	RequestID string   `json:"request_id"`
}

// TableHandler serves the /v1/tables routes.
type TableHandler struct {
	catalog     catalog.Catalog
	defaultMode catalog.EvolutionMode
}

// NewTableHandler creates a new table handler. defaultMode applies when a
// request names no evolution mode.
func NewTableHandler(cat catalog.Catalog, defaultMode catalog.EvolutionMode) *TableHandler {
	if defaultMode == "" {
		defaultMode = catalog.EvolutionImplicit
	}
	return &TableHandler{
		catalog:     cat,
		defaultMode: defaultMode,
	}
}

// ServeTables handles GET /v1/tables.
func (h *TableHandler) ServeTables(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	tables, err := h.catalog.ListTables(r.Context())
	if err != nil {
		writeTypecastError(w, err, requestID)
		return
	}
	if tables == nil {
		tables = []string{}
	}
	writeJSON(w, http.StatusOK, TablesResponse{Tables: tables, RequestID: requestID})
}

// ServeSchema handles POST and GET /v1/tables/{table}/schema.
func (h *TableHandler) ServeSchema(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	table := r.PathValue("table")

	switch r.Method {
	case http.MethodPost:
		h.registerSchema(w, r, table, requestID)
	case http.MethodGet:
		h.listSchema(w, r, table, requestID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
	}
}

func (h *TableHandler) registerSchema(w http.ResponseWriter, r *http.Request, table, requestID string) {
	var req SchemaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
		return
	}

	mode := h.defaultMode
	if req.EvolutionMode != "" {
		parsed, err := catalog.ParseEvolutionMode(req.EvolutionMode)
		if err != nil {
			writeTypecastError(w, err, requestID)
			return
		}
		mode = parsed
	}

	columns := make([]catalog.Column, 0, len(req.Columns))
	for _, c := range req.Columns {
		t, err := h.catalog.ParseType(r.Context(), c.Type)
		if err != nil {
			writeTypecastError(w, tcerrors.Wrap(tcerrors.GetCategory(err), tcerrors.GetCode(err),
				fmt.Sprintf("column %q", c.Name), err), requestID)
			return
		}
		columns = append(columns, catalog.Column{Name: c.Name, Type: t, Description: c.Description})
	}

	record, err := h.catalog.RegisterSchema(r.Context(), table, columns, mode)
	if err != nil {
		writeTypecastError(w, err, requestID)
		return
	}

	resp := versionResponse(record)
	resp.RequestID = requestID
	writeJSON(w, http.StatusOK, resp)
}

func (h *TableHandler) listSchema(w http.ResponseWriter, r *http.Request, table, requestID string) {
	if v := r.URL.Query().Get("version"); v != "" {
		version, err := strconv.Atoi(v)
		if err != nil || version < 1 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid version %q", v), requestID)
			return
		}
		record, err := h.catalog.GetSchemaVersion(r.Context(), table, version)
		if err != nil {
			writeTypecastError(w, err, requestID)
			return
		}
		resp := versionResponse(record)
		resp.RequestID = requestID
		writeJSON(w, http.StatusOK, resp)
		return
	}

	records, err := h.catalog.ListVersions(r.Context(), table)
	if err != nil {
		writeTypecastError(w, err, requestID)
		return
	}
	resp := SchemaHistoryResponse{
		Table:     table,
		Versions:  make([]SchemaVersionResponse, len(records)),
		RequestID: requestID,
	}
	for i := range records {
		resp.Versions[i] = versionResponse(&records[i])
	}
	writeJSON(w, http.StatusOK, resp)
}

// ServeCheck handles POST /v1/tables/{table}/check.
func (h *TableHandler) ServeCheck(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())
	table := r.PathValue("table")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	var req CheckRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
		return
	}
	if req.Source == "" {
		writeError(w, http.StatusBadRequest, "source is required", requestID)
		return
	}

	source, err := h.catalog.ParseType(r.Context(), req.Source)
	if err != nil {
		writeTypecastError(w, err, requestID)
		return
	}

	result, err := h.catalog.CheckAssignment(r.Context(), table, source)
	if err != nil {
		writeTypecastError(w, err, requestID)
		return
	}

	resp := CheckResponse{
		Table:      result.Table,
		Version:    result.Version,
		Source:     source.String(),
		Target:     result.Target.String(),
		Assignable: result.Assignable,
		Explicit:   result.Decision.Explicit,
		Rule:       string(result.Decision.ImplicitRule),
		Mismatches: result.Mismatches,
		RequestID:  requestID,
	}
	if resp.Mismatches == nil {
		resp.Mismatches = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}

func versionResponse(record *catalog.SchemaVersionRecord) SchemaVersionResponse {
	resp := SchemaVersionResponse{
		Table:         record.Table,
		Version:       record.Version,
		ChangeID:      record.ChangeID,
		EvolutionMode: string(record.Mode),
		Columns:       make([]ColumnJSON, len(record.Columns)),
		CreatedAt:     record.CreatedAt,
	}
	for i, c := range record.Columns {
		resp.Columns[i] = ColumnJSON{Name: c.Name, Type: c.Type.String(), Description: c.Description}
	}
	return resp
}
