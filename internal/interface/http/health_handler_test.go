package httpapi

import (
	"net/http"
	"testing"
)

func TestHealthHandler(t *testing.T) {
	server := seededServer(t)

	t.Run("Ping", func(t *testing.T) {
		w := doRequest(server, http.MethodGet, "/api/ping")
		if w.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", w.Code)
		}
		if resp := decode(t, w); resp["message"] != "pong" {
			t.Errorf("expected pong, got %v", resp["message"])
		}
	})

	t.Run("Health", func(t *testing.T) {
		w := doRequest(server, http.MethodGet, "/api/health")
		if w.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", w.Code)
		}
		resp := decode(t, w)
		if resp["health"] != "ok" {
			t.Errorf("expected ok, got %v", resp["health"])
		}
		if resp["db"] != "using_memory" {
			t.Errorf("expected using_memory, got %v", resp["db"])
		}
		if resp["records"] != float64(4) {
			t.Errorf("expected 4 records, got %v", resp["records"])
		}
		if _, ok := resp["last_sync"]; !ok {
			t.Errorf("expected last_sync after seeding")
		}
	})
}
