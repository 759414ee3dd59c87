package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/arkilian/typecast/internal/casts"
	tcerrors "github.com/arkilian/typecast/internal/errors"
	"github.com/arkilian/typecast/pkg/types"
)

// TypeParser turns a type string into a logical type. The catalog implements
// it so that named structured types resolve.
type TypeParser interface {
	ParseType(ctx context.Context, s string) (types.LogicalType, error)
}

// CastPair is one (source, target) pair of type strings.
type CastPair struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// CastRequest is either a single pair or a batch under "pairs".
type CastRequest struct {
	CastPair
	Pairs []CastPair `json:"pairs,omitempty"`
}

// CastResult is the verdict for one pair. Source and Target are the
// normalized summary strings.
type CastResult struct {
	Source       string `json:"source"`
	Target       string `json:"target"`
	Implicit     bool   `json:"implicit"`
	Explicit     bool   `json:"explicit"`
	Rule         string `json:"rule,omitempty"`
	ImplicitRule string `json:"implicit_rule,omitempty"`
	Error        string `json:"error,omitempty"`
	Code         string `json:"code,omitempty"`
	RequestID    string `json:"request_id,omitempty"`
}

// CastBatchResponse holds one result per requested pair, in request order.
type CastBatchResponse struct {
	Results   []CastResult `json:"results"`
	RequestID string       `json:"request_id"`
}

// CastHandler handles POST /v1/casts requests.
type CastHandler struct {
	parser   TypeParser
	resolve  casts.ResolveFunc
	maxBatch int
}

// NewCastHandler creates a new cast handler. A nil resolve uses casts.Resolve.
func NewCastHandler(parser TypeParser, resolve casts.ResolveFunc, maxBatch int) *CastHandler {
	if resolve == nil {
		resolve = casts.Resolve
	}
	return &CastHandler{
		parser:   parser,
		resolve:  resolve,
		maxBatch: maxBatch,
	}
}

// ServeHTTP handles the cast HTTP request.
func (h *CastHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	var req CastRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
		return
	}

	if len(req.Pairs) == 0 {
		if req.Source == "" || req.Target == "" {
			writeError(w, http.StatusBadRequest, "source and target are required", requestID)
			return
		}
		result, err := h.check(r.Context(), req.CastPair)
		if err != nil {
			writeTypecastError(w, err, requestID)
			return
		}
		result.RequestID = requestID
		writeJSON(w, http.StatusOK, result)
		return
	}

	if req.Source != "" || req.Target != "" {
		writeError(w, http.StatusBadRequest, "use either source/target or pairs, not both", requestID)
		return
	}
	if h.maxBatch > 0 && len(req.Pairs) > h.maxBatch {
		writeError(w, http.StatusRequestEntityTooLarge,
			fmt.Sprintf("batch of %d pairs exceeds the limit of %d", len(req.Pairs), h.maxBatch), requestID)
		return
	}

	// A bad pair fails only its own entry.
	resp := CastBatchResponse{
		Results:   make([]CastResult, len(req.Pairs)),
		RequestID: requestID,
	}
	for i, pair := range req.Pairs {
		result, err := h.check(r.Context(), pair)
		if err != nil {
			resp.Results[i] = CastResult{
				Source: pair.Source,
				Target: pair.Target,
				Error:  err.Error(),
				Code:   tcerrors.GetCode(err),
			}
			continue
		}
		resp.Results[i] = *result
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *CastHandler) check(ctx context.Context, pair CastPair) (*CastResult, error) {
	if pair.Source == "" || pair.Target == "" {
		return nil, tcerrors.NewValidationError(tcerrors.CodeInvalidRequest, "source and target are required")
	}
	source, err := h.parser.ParseType(ctx, pair.Source)
	if err != nil {
		return nil, err
	}
	target, err := h.parser.ParseType(ctx, pair.Target)
	if err != nil {
		return nil, err
	}

	d := h.resolve(source, target)
	return &CastResult{
		Source:       source.String(),
		Target:       target.String(),
		Implicit:     d.Implicit,
		Explicit:     d.Explicit,
		Rule:         string(d.Rule),
		ImplicitRule: string(d.ImplicitRule),
	}, nil
}
