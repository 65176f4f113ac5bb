//go:build integration

package integration

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"testing"
)

const unknownOrder = "00000000-0000-0000-0000-000000000000"

func doRequest(t *testing.T, method, url string, header http.Header) *http.Response {
	t.Helper()

	req, err := http.NewRequestWithContext(context.Background(), method, url, nil)
	if err != nil {
		t.Fatalf("create request: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func TestRequestID_OnCheckoutErrors(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		status int
		msg    string
	}{
		{"unknown order checkout", http.MethodGet, "/order/" + unknownOrder + "/checkout/", http.StatusNotFound, "not found"},
		{"unknown order intent", http.MethodPost, "/order/" + unknownOrder + "/payment-intent/", http.StatusNotFound, "not found"},
		{"intent via GET", http.MethodGet, "/order/" + unknownOrder + "/payment-intent/", http.StatusMethodNotAllowed, "method not allowed"},
		{"unconfigured gateway", http.MethodGet, "/buy/1/", http.StatusInternalServerError, "payment gateway is not configured"},
	}

	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := "checkout-req-" + strconv.Itoa(i)
			resp := doRequest(t, tt.method, baseURL+tt.path, http.Header{"X-Request-Id": {id}})
			defer resp.Body.Close()

			if resp.StatusCode != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, resp.StatusCode)
			}
			if got := resp.Header.Get("X-Request-ID"); got != id {
				t.Errorf("X-Request-ID: got %q, want %q", got, id)
			}
			body := decodeJSON[errorResponse](t, resp)
			if body.Code != tt.status || body.Message != tt.msg {
				t.Errorf("body: got %+v, want {%d %q}", body, tt.status, tt.msg)
			}
		})
	}
}

func TestRequestID_GeneratedOnRejection(t *testing.T) {
	resp := doPost(t, "/api/orders/", orderRequest{Items: []orderItemRequest{{ItemID: 1, Quantity: 0}}})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	if !uuidPattern.MatchString(resp.Header.Get("X-Request-ID")) {
		t.Errorf("X-Request-ID %q is not a generated UUID", resp.Header.Get("X-Request-ID"))
	}
	body := decodeJSON[errorResponse](t, resp)
	if body.Code != http.StatusBadRequest || body.Message == "" {
		t.Errorf("body: got %+v", body)
	}
}

func TestCORS_OrderPreflight(t *testing.T) {
	resp := doRequest(t, http.MethodOptions, baseURL+"/api/orders/", http.Header{
		"Origin":                         {"http://shop.example"},
		"Access-Control-Request-Method":  {http.MethodPost},
		"Access-Control-Request-Headers": {"Content-Type, X-Request-ID"},
	})
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 200 or 204, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("Access-Control-Allow-Origin header not present")
	}
	allowed := strings.ToLower(resp.Header.Get("Access-Control-Allow-Headers"))
	for _, h := range []string{"content-type", "x-request-id"} {
		if !strings.Contains(allowed, h) {
			t.Errorf("Access-Control-Allow-Headers %q does not allow %s", allowed, h)
		}
	}
	if got := resp.Header.Get("Access-Control-Max-Age"); got != "86400" {
		t.Errorf("Access-Control-Max-Age: got %q, want 86400", got)
	}
}

func TestCORS_ExposesRequestID(t *testing.T) {
	resp := doRequest(t, http.MethodGet, baseURL+"/api/items/", http.Header{"Origin": {"http://shop.example"}})
	defer resp.Body.Close()

	exposed := strings.ToLower(resp.Header.Get("Access-Control-Expose-Headers"))
	if !strings.Contains(exposed, "x-request-id") {
		t.Errorf("Access-Control-Expose-Headers %q does not expose X-Request-ID", exposed)
	}
}

// The limited instance allows three requests per client per hour.
func TestRateLimit_Exceeded(t *testing.T) {
	client := http.Header{"X-Forwarded-For": {"203.0.113.9"}}

	for i := range 3 {
		resp := doRequest(t, http.MethodGet, limitedURL+"/api/items/", client)
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i+1, resp.StatusCode)
		}
		if got := resp.Header.Get("X-RateLimit-Limit"); got != "3" {
			t.Errorf("X-RateLimit-Limit: got %q, want 3", got)
		}
		if got := resp.Header.Get("X-RateLimit-Remaining"); got != strconv.Itoa(2-i) {
			t.Errorf("request %d: X-RateLimit-Remaining got %q, want %d", i+1, got, 2-i)
		}
	}

	resp := doRequest(t, http.MethodPost, limitedURL+"/order/"+unknownOrder+"/payment-intent/", client)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining: got %q, want 0", got)
	}
	body := decodeJSON[errorResponse](t, resp)
	if body.Code != http.StatusTooManyRequests || body.Message != "rate limit exceeded" {
		t.Errorf("body: got %+v", body)
	}

	other := doRequest(t, http.MethodGet, limitedURL+"/api/items/", http.Header{"X-Forwarded-For": {"198.51.100.7"}})
	other.Body.Close()
	if other.StatusCode != http.StatusOK {
		t.Errorf("other client: expected 200, got %d", other.StatusCode)
	}
}
