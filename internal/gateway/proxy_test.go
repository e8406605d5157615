package gateway

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestServiceProxy_ForwardRequest(t *testing.T) {
	t.Run("forwards GET request with query string", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet {
				t.Errorf("expected GET, got %s", r.Method)
			}
			if r.URL.Path != "/api/inventory/orders" {
				t.Errorf("expected /api/inventory/orders, got %s", r.URL.Path)
			}
			if r.URL.Query().Get("status") != "PENDING" {
				t.Errorf("expected status query forwarded, got %s", r.URL.RawQuery)
			}
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"success"}`))
		}))
		defer server.Close()

		proxy := NewServiceProxy(server.URL, server.Client())
		req := httptest.NewRequest(http.MethodGet, "/api/inventory/orders?status=PENDING", nil)
		resp, err := proxy.ForwardRequest(context.Background(), req, "/api/inventory/orders")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
	})

	t.Run("forwards identity headers and body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-User-Email") != "alice@shop.dev" {
				t.Errorf("expected identity header forwarded, got %q", r.Header.Get("X-User-Email"))
			}
			if r.Header.Get("X-User-Role") != "ROLE_USER" {
				t.Errorf("expected role header forwarded, got %q", r.Header.Get("X-User-Role"))
			}
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("expected Content-Type forwarded, got %q", r.Header.Get("Content-Type"))
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"bookId":1,"quantity":2}` {
				t.Errorf("unexpected body: %s", body)
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		proxy := NewServiceProxy(server.URL, server.Client())
		req := httptest.NewRequest(http.MethodPost, "/api/inventory/shopping-cart/items/add",
			strings.NewReader(`{"bookId":1,"quantity":2}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-Email", "alice@shop.dev")
		req.Header.Set("X-User-Role", "ROLE_USER")

		resp, err := proxy.ForwardRequest(context.Background(), req, "/api/inventory/shopping-cart/items/add")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer func() { _ = resp.Body.Close() }()

		if resp.StatusCode != http.StatusOK {
			t.Errorf("expected status 200, got %d", resp.StatusCode)
		}
	})

	t.Run("strips headers outside the allow list", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "" {
				t.Errorf("expected Authorization stripped, got %q", r.Header.Get("Authorization"))
			}
			if r.Header.Get("Cookie") != "" {
				t.Errorf("expected Cookie stripped, got %q", r.Header.Get("Cookie"))
			}
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		proxy := NewServiceProxy(server.URL, server.Client())
		req := httptest.NewRequest(http.MethodGet, "/api/inventory/shopping-cart", nil)
		req.Header.Set("Authorization", "Bearer secret")
		req.Header.Set("Cookie", "session=abc")

		resp, err := proxy.ForwardRequest(context.Background(), req, "/api/inventory/shopping-cart")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		_ = resp.Body.Close()
	})

	t.Run("respects context cancellation", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		proxy := NewServiceProxy(server.URL, server.Client())
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		req := httptest.NewRequest(http.MethodGet, "/api/inventory/orders", nil)
		_, err := proxy.ForwardRequest(ctx, req, "/api/inventory/orders")
		if err == nil {
			t.Error("expected error for cancelled context")
		}
	})
}
