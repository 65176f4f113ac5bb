//go:build integration

package integration

import (
	"net/http"
	"testing"
)

func TestListItems(t *testing.T) {
	resp := doGet(t, "/api/items/")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	items := decodeJSON[[]itemResponse](t, resp)
	if len(items) != seededItems {
		t.Fatalf("expected %d items, got %d", seededItems, len(items))
	}

	var tote *itemResponse
	for i := range items {
		if items[i].Name == "Canvas Tote" && items[i].Currency == "usd" {
			tote = &items[i]
			break
		}
	}
	if tote == nil {
		t.Fatal("usd Canvas Tote not found")
	}
	if tote.Price != "18.00" {
		t.Errorf("price: got %q, want %q", tote.Price, "18.00")
	}
	if tote.Description == "" {
		t.Error("description is empty")
	}
}

func TestItemDetail_NotFound(t *testing.T) {
	for _, path := range []string{"/item/999999/", "/item/abc/"} {
		resp := doGet(t, path)
		resp.Body.Close()

		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("%s: expected 404, got %d", path, resp.StatusCode)
		}
	}
}

// The test stack runs without provider keys, so payment endpoints must fail
// fast with a configuration error and never reach the network.
func TestItemCheckout_NotConfigured(t *testing.T) {
	for _, path := range []string{"/item/1/", "/buy/1/", "/payment-intent/1/"} {
		resp := doGet(t, path)

		if resp.StatusCode != http.StatusInternalServerError {
			resp.Body.Close()
			t.Fatalf("%s: expected 500, got %d", path, resp.StatusCode)
		}
		body := decodeJSON[errorResponse](t, resp)
		resp.Body.Close()
		if body.Message != "payment gateway is not configured" {
			t.Errorf("%s: message: got %q", path, body.Message)
		}
	}
}
