package http

import (
	"net/http"
)

// Handlers groups the API handlers. Nil handlers are not routed.
type Handlers struct {
	Casts     *CastHandler
	Tables    *TableHandler
	Types     *TypeHandler
	Stats     *StatsHandler
	Snapshots *SnapshotHandler
	Health    http.HandlerFunc
}

// NewMux routes the API under /v1 through middleware. /health bypasses it.
func NewMux(h Handlers, middleware func(http.Handler) http.Handler) *http.ServeMux {
	if middleware == nil {
		middleware = DefaultMiddleware()
	}

	mux := http.NewServeMux()
	if h.Casts != nil {
		mux.Handle("/v1/casts", middleware(h.Casts))
	}
	if h.Tables != nil {
		mux.Handle("/v1/tables", middleware(http.HandlerFunc(h.Tables.ServeTables)))
		mux.Handle("/v1/tables/{table}/schema", middleware(http.HandlerFunc(h.Tables.ServeSchema)))
		mux.Handle("/v1/tables/{table}/check", middleware(http.HandlerFunc(h.Tables.ServeCheck)))
	}
	if h.Types != nil {
		mux.Handle("/v1/types", middleware(h.Types))
	}
	if h.Stats != nil {
		mux.Handle("/v1/stats", middleware(h.Stats))
	}
	if h.Snapshots != nil {
		mux.Handle("/v1/snapshots/export", middleware(http.HandlerFunc(h.Snapshots.ServeExport)))
		mux.Handle("/v1/snapshots/import", middleware(http.HandlerFunc(h.Snapshots.ServeImport)))
	}
	if h.Health != nil {
		mux.HandleFunc("/health", h.Health)
	}
	return mux
}
