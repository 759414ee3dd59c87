package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/arkilian/typecast/internal/catalog"
	"github.com/arkilian/typecast/internal/storage"
)

// Snapshotter exports and imports the catalog.
type Snapshotter interface {
	ExportSnapshot(ctx context.Context, store storage.ObjectStorage, key string) (*catalog.SnapshotInfo, error)
	ImportSnapshot(ctx context.Context, store storage.ObjectStorage, key string) (*catalog.SnapshotInfo, error)
}

// SnapshotRequest names the object key; empty means the configured default.
type SnapshotRequest struct {
	Key string `json:"key,omitempty"`
}

// SnapshotResponse describes an exported or imported snapshot.
type SnapshotResponse struct {
	Key       string `json:"key"`
	ETag      string `json:"etag,omitempty"`
	Types     int    `json:"types"`
	Schemas   int    `json:"schemas"`
	SizeBytes int    `json:"size_bytes"`
	RequestID string `json:"request_id"`
}

// SnapshotHandler serves POST /v1/snapshots/export and /v1/snapshots/import.
type SnapshotHandler struct {
	catalog    Snapshotter
	store      storage.ObjectStorage
	defaultKey string
}

// NewSnapshotHandler creates a new snapshot handler.
func NewSnapshotHandler(cat Snapshotter, store storage.ObjectStorage, defaultKey string) *SnapshotHandler {
	return &SnapshotHandler{
		catalog:    cat,
		store:      store,
		defaultKey: defaultKey,
	}
}

// ServeExport handles POST /v1/snapshots/export.
func (h *SnapshotHandler) ServeExport(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.catalog.ExportSnapshot)
}

// ServeImport handles POST /v1/snapshots/import.
func (h *SnapshotHandler) ServeImport(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.catalog.ImportSnapshot)
}

func (h *SnapshotHandler) serve(w http.ResponseWriter, r *http.Request,
	op func(context.Context, storage.ObjectStorage, string) (*catalog.SnapshotInfo, error)) {
	requestID := GetRequestID(r.Context())

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed", requestID)
		return
	}

	var req SnapshotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid request body: %v", err), requestID)
		return
	}
	key := req.Key
	if key == "" {
		key = h.defaultKey
	}
	if key == "" {
		writeError(w, http.StatusBadRequest, "key is required", requestID)
		return
	}

	info, err := op(r.Context(), h.store, key)
	if err != nil {
		writeTypecastError(w, err, requestID)
		return
	}

	writeJSON(w, http.StatusOK, SnapshotResponse{
		Key:       info.Key,
		ETag:      info.ETag,
		Types:     info.Types,
		Schemas:   info.Schemas,
		SizeBytes: info.SizeBytes,
		RequestID: requestID,
	})
}
