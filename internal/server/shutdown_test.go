package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

func TestShutdownManager_ClosesInReverseOrder(t *testing.T) {
	sm := NewShutdownManager(ShutdownConfig{ShutdownTimeout: time.Second, DrainTimeout: 100 * time.Millisecond})

	var order []string
	sm.RegisterCloser("catalog", CloserFunc(func() error { order = append(order, "catalog"); return nil }))
	sm.RegisterCloser("http", CloserFunc(func() error { order = append(order, "http"); return nil }))

	started := false
	sm.OnShutdownStart(func() { started = true })

	if err := sm.Shutdown(context.Background(), "test"); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if !started {
		t.Error("shutdown start callback not called")
	}
	if want := []string{"http", "catalog"}; !reflect.DeepEqual(order, want) {
		t.Errorf("close order = %v, want %v", order, want)
	}
	if !sm.IsShuttingDown() {
		t.Error("expected shutting down state")
	}

	// Second call is a no-op.
	if err := sm.Shutdown(context.Background(), "again"); err != nil || len(order) != 2 {
		t.Errorf("second shutdown: %v, %v", err, order)
	}
}

func TestShutdownManager_ReportsCloseError(t *testing.T) {
	sm := NewShutdownManager(DefaultShutdownConfig())
	boom := errors.New("boom")
	sm.RegisterCloser("broken", CloserFunc(func() error { return boom }))

	if err := sm.Shutdown(context.Background(), "test"); !errors.Is(err, boom) {
		t.Errorf("got %v, want wrapped boom", err)
	}
}

func TestShutdownManager_DrainTimeout(t *testing.T) {
	sm := NewShutdownManager(ShutdownConfig{ShutdownTimeout: time.Second, DrainTimeout: 100 * time.Millisecond})
	if !sm.TrackRequest() {
		t.Fatal("request rejected before shutdown")
	}

	if err := sm.Shutdown(context.Background(), "test"); err == nil {
		t.Error("expected drain timeout with a stuck request")
	}
	if sm.TrackRequest() {
		t.Error("requests must be rejected after shutdown")
	}
	sm.UntrackRequest()
	if sm.InFlightCount() != 0 {
		t.Errorf("in-flight = %d", sm.InFlightCount())
	}
}

func TestShutdownMiddleware(t *testing.T) {
	sm := NewShutdownManager(DefaultShutdownConfig())
	handler := ShutdownMiddleware(sm)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if sm.InFlightCount() != 1 {
			t.Errorf("in-flight during request = %d", sm.InFlightCount())
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	sm.Shutdown(context.Background(), "test")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503 during shutdown, got %d", rec.Code)
	}
}
