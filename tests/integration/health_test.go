//go:build integration

package integration

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"
)

func TestLivez(t *testing.T) {
	resp := doGet(t, "/livez")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	body := decodeJSON[map[string]json.RawMessage](t, resp)
	if len(body) != 1 || string(body["status"]) != `"ok"` {
		t.Fatalf("expected exactly {\"status\":\"ok\"}, got %v", body)
	}
}

// TestReadyz_Postgres takes the database away and checks that readiness
// names the postgres check while liveness stays green, then waits for the
// pool to reconnect.
func TestReadyz_Postgres(t *testing.T) {
	resp := pollStatus(t, baseURL+"/readyz", http.StatusOK, 10*time.Second)
	ok := decodeJSON[healthResponse](t, resp)
	resp.Body.Close()
	if ok.Status != "ok" || len(ok.Checks) != 0 {
		t.Fatalf("expected healthy readiness, got %+v", ok)
	}

	ctx := context.Background()
	db, err := stack.ServiceContainer(ctx, "postgres")
	if err != nil {
		t.Fatalf("postgres container: %v", err)
	}
	stopTimeout := 10 * time.Second
	if err := db.Stop(ctx, &stopTimeout); err != nil {
		t.Fatalf("stop postgres: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Start(ctx); err != nil {
			t.Fatalf("start postgres: %v", err)
		}
		resp := pollStatus(t, baseURL+"/readyz", http.StatusOK, 60*time.Second)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("readiness did not recover: %d", resp.StatusCode)
		}
		resp = pollStatus(t, baseURL+"/api/items/", http.StatusOK, 30*time.Second)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("items did not recover: %d", resp.StatusCode)
		}
	})

	resp = pollStatus(t, baseURL+"/readyz", http.StatusServiceUnavailable, 15*time.Second)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q", ct)
	}
	down := decodeJSON[healthResponse](t, resp)
	if down.Status != "unhealthy" {
		t.Errorf("status: got %q, want unhealthy", down.Status)
	}
	if len(down.Checks) != 1 || down.Checks["postgres"] == "" {
		t.Errorf("expected only a failing postgres check, got %v", down.Checks)
	}

	live := doGet(t, "/livez")
	live.Body.Close()
	if live.StatusCode != http.StatusOK {
		t.Errorf("livez: expected 200 while the database is down, got %d", live.StatusCode)
	}

	items := doGet(t, "/api/items/")
	defer items.Body.Close()
	if items.StatusCode != http.StatusInternalServerError {
		t.Fatalf("items: expected 500, got %d", items.StatusCode)
	}
	body := decodeJSON[errorResponse](t, items)
	if body.Code != http.StatusInternalServerError || body.Message != "internal error" {
		t.Errorf("items: got %+v", body)
	}
}
