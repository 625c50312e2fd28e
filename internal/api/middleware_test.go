package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestInternalAuthMiddleware(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := InternalAuthMiddleware("secret-key")(next)

	req := httptest.NewRequest(http.MethodGet, "/internal/purchases/x", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a key, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/internal/purchases/x", nil)
	req.Header.Set("X-Internal-API-Key", "wrong-key")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with a wrong key, got %d", rr.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/internal/purchases/x", nil)
	req.Header.Set("X-Internal-API-Key", "secret-key")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with the correct key, got %d", rr.Code)
	}
}

func TestInternalAuthMiddleware_DisabledWhenUnconfigured(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := InternalAuthMiddleware("")(next)

	req := httptest.NewRequest(http.MethodGet, "/internal/purchases/x", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected pass-through when no key is configured, got %d", rr.Code)
	}
}
