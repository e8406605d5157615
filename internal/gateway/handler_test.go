package gateway

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHandler_HandleInventory(t *testing.T) {
	t.Run("proxies GET shopping cart verbatim", func(t *testing.T) {
		inventoryServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/inventory/shopping-cart" {
				t.Errorf("expected /api/inventory/shopping-cart, got %s", r.URL.Path)
			}
			if r.Method != http.MethodGet {
				t.Errorf("expected GET, got %s", r.Method)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"success","data":{"items":[]}}`))
		}))
		defer inventoryServer.Close()

		handler := NewHandler(
			NewServiceProxy(inventoryServer.URL, inventoryServer.Client()),
			nil,
			newTestLogger(),
		)

		req := httptest.NewRequest(http.MethodGet, "/api/inventory/shopping-cart", nil)
		rec := httptest.NewRecorder()

		handler.HandleInventory(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected status 200, got %d", rec.Code)
		}
		if rec.Header().Get("Content-Type") != "application/json" {
			t.Errorf("expected application/json, got %s", rec.Header().Get("Content-Type"))
		}
		if rec.Body.String() != `{"status":"success","data":{"items":[]}}` {
			t.Errorf("unexpected body: %s", rec.Body.String())
		}
	})

	t.Run("proxies POST order creation with body", func(t *testing.T) {
		inventoryServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/inventory/orders/create" {
				t.Errorf("expected /api/inventory/orders/create, got %s", r.URL.Path)
			}
			body, _ := io.ReadAll(r.Body)
			if string(body) != `{"shippingAddress":"221B Baker Street"}` {
				t.Errorf("unexpected body: %s", body)
			}
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"status":"success"}`))
		}))
		defer inventoryServer.Close()

		handler := NewHandler(
			NewServiceProxy(inventoryServer.URL, inventoryServer.Client()),
			nil,
			newTestLogger(),
		)

		req := httptest.NewRequest(http.MethodPost, "/api/inventory/orders/create",
			strings.NewReader(`{"shippingAddress":"221B Baker Street"}`))
		rec := httptest.NewRecorder()

		handler.HandleInventory(rec, req)

		if rec.Code != http.StatusCreated {
			t.Errorf("expected status 201, got %d", rec.Code)
		}
	})

	t.Run("passes upstream error statuses through", func(t *testing.T) {
		inventoryServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"status":"error","code":404}`))
		}))
		defer inventoryServer.Close()

		handler := NewHandler(
			NewServiceProxy(inventoryServer.URL, inventoryServer.Client()),
			nil,
			newTestLogger(),
		)

		req := httptest.NewRequest(http.MethodGet, "/api/inventory/orders/my-orders/42", nil)
		rec := httptest.NewRecorder()

		handler.HandleInventory(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("returns 502 when inventory service unavailable", func(t *testing.T) {
		handler := NewHandler(
			NewServiceProxy("http://localhost:99999", &http.Client{}),
			nil,
			newTestLogger(),
		)

		req := httptest.NewRequest(http.MethodGet, "/api/inventory/shopping-cart", nil)
		rec := httptest.NewRecorder()

		handler.HandleInventory(rec, req)

		if rec.Code != http.StatusBadGateway {
			t.Errorf("expected status 502, got %d", rec.Code)
		}
	})
}

func TestHandler_HandleUsers(t *testing.T) {
	usersServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/users/me" {
			t.Errorf("expected /api/users/me, got %s", r.URL.Path)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"email":"alice@shop.dev"}`))
	}))
	defer usersServer.Close()

	handler := NewHandler(
		NewServiceProxy("http://unused", http.DefaultClient),
		NewServiceProxy(usersServer.URL, usersServer.Client()),
		newTestLogger(),
	)

	req := httptest.NewRequest(http.MethodGet, "/api/users/me", nil)
	rec := httptest.NewRecorder()

	handler.HandleUsers(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
}
