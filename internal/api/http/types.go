package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/arkilian/typecast/internal/catalog"
	tcerrors "github.com/arkilian/typecast/internal/errors"
	"github.com/arkilian/typecast/pkg/types"
)

// TypeRequest registers a named structured type. Definition is an anonymous
// STRUCTURED<...> type string.
type TypeRequest struct {
	Identifier  string `json:"identifier"`
	Definition  string `json:"definition"`
	Description string `json:"description,omitempty"`
}

// TypeResponse is one registered structured type.
type TypeResponse struct {
	Identifier  string    `json:"identifier"`
	Type        string    `json:"type"`
	Definition  string    `json:"definition"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
}

// TypeListResponse lists registered types in registration order.
type TypeListResponse struct {
	Types     []TypeResponse `json:"types"`
	RequestID string         `json:"request_id"`
}

// TypeHandler handles POST and GET /v1/types.
type TypeHandler struct {
	catalog catalog.Catalog
}

// NewTypeHandler creates a new structured type handler.
func NewTypeHandler(cat catalog.Catalog) *TypeHandler {
	return &TypeHandler{catalog: cat}
}

// ServeHTTP handles the structured type HTTP request.
func (h *TypeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	switch r.Method {
	case http.MethodPost:
		h.register(w, r, requestID)
	case http.MethodGet:
		h.list(w, r, requestID)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
	}
}

func (h *TypeHandler) register(w http.ResponseWriter, r *http.Request, requestID string) {
	var req TypeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
		return
	}

	id, err := types.ParseObjectIdentifier(req.Identifier)
	if err != nil {
		writeTypecastError(w, tcerrors.NewValidationError(tcerrors.CodeInvalidName, err.Error()), requestID)
		return
	}

	parsed, err := h.catalog.ParseType(r.Context(), req.Definition)
	if err != nil {
		writeTypecastError(w, err, requestID)
		return
	}
	anon, ok := parsed.(*types.StructuredType)
	if !ok || anon.Identifier() != nil {
		writeTypecastError(w, tcerrors.NewValidationError(tcerrors.CodeInvalidRequest,
			fmt.Sprintf("definition must be an anonymous STRUCTURED type, got %s", parsed)), requestID)
		return
	}

	st, err := types.NewStructuredType(id, anon.Attributes()...)
	if err != nil {
		writeTypecastError(w, tcerrors.NewValidationError(tcerrors.CodeInvalidRequest, err.Error()), requestID)
		return
	}
	st = st.WithDescription(req.Description)

	if err := h.catalog.RegisterStructuredType(r.Context(), st); err != nil {
		writeTypecastError(w, err, requestID)
		return
	}

	writeJSON(w, http.StatusCreated, TypeResponse{
		Identifier:  id.String(),
		Type:        st.String(),
		Definition:  anon.String(),
		Description: st.Description(),
		RequestID:   requestID,
	})
}

func (h *TypeHandler) list(w http.ResponseWriter, r *http.Request, requestID string) {
	records, err := h.catalog.ListStructuredTypes(r.Context())
	if err != nil {
		writeTypecastError(w, err, requestID)
		return
	}

	resp := TypeListResponse{
		Types:     make([]TypeResponse, len(records)),
		RequestID: requestID,
	}
	for i, rec := range records {
		resp.Types[i] = TypeResponse{
			Identifier:  rec.Type.Identifier().String(),
			Type:        rec.Type.String(),
			Definition:  rec.Definition,
			Description: rec.Type.Description(),
			CreatedAt:   rec.CreatedAt,
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
