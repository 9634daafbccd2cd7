package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func gwServe(cfg GatewayConfig, r *http.Request) *httptest.ResponseRecorder {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	w := httptest.NewRecorder()
	Gateway(cfg)(ok).ServeHTTP(w, r)
	return w
}

func TestPublicPathsNeedNoKey(t *testing.T) {
	cfg := GatewayConfig{BackendKeys: map[string]struct{}{"bk": {}}}
	for _, path := range []string{"/", "/annotations", "/export.csv", "/metrics"} {
		r := httptest.NewRequest("GET", path, nil)
		if w := gwServe(cfg, r); w.Code != http.StatusOK {
			t.Fatalf("%s: got %d, want 200", path, w.Code)
		}
	}
}

func TestProtectedPathRequiresKey(t *testing.T) {
	cfg := GatewayConfig{
		BackendKeys: map[string]struct{}{"bk": {}},
		AdminKeys:   map[string]struct{}{"ak": {}},
	}

	r := httptest.NewRequest("GET", "/v1/annotations", nil)
	if w := gwServe(cfg, r); w.Code != http.StatusUnauthorized {
		t.Fatalf("no key: got %d, want 401", w.Code)
	}

	r = httptest.NewRequest("GET", "/v1/annotations", nil)
	r.Header.Set("X-API-Key", "wrong")
	if w := gwServe(cfg, r); w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong key: got %d, want 401", w.Code)
	}

	r = httptest.NewRequest("GET", "/v1/annotations", nil)
	r.Header.Set("X-API-Key", "bk")
	if w := gwServe(cfg, r); w.Code != http.StatusOK {
		t.Fatalf("backend key: got %d, want 200", w.Code)
	}

	r = httptest.NewRequest("GET", "/v1/annotations", nil)
	r.Header.Set("Authorization", "Bearer ak")
	w := gwServe(cfg, r)
	if w.Code != http.StatusOK {
		t.Fatalf("admin bearer: got %d, want 200", w.Code)
	}
}

func TestProbesBypassAuth(t *testing.T) {
	cfg := GatewayConfig{}
	for _, path := range []string{"/healthz", "/readyz"} {
		r := httptest.NewRequest("GET", path, nil)
		if w := gwServe(cfg, r); w.Code != http.StatusOK {
			t.Fatalf("%s: got %d, want 200", path, w.Code)
		}
	}
}

func TestIPWhitelist(t *testing.T) {
	cfg := GatewayConfig{IPWhitelist: []string{"10.0.0.1"}}
	r := httptest.NewRequest("GET", "/", nil)
	if w := gwServe(cfg, r); w.Code != http.StatusForbidden {
		t.Fatalf("blocked ip: got %d, want 403", w.Code)
	}

	cfg.IPWhitelist = []string{"192.0.2.1"} // httptest.NewRequest default remote
	r = httptest.NewRequest("GET", "/", nil)
	if w := gwServe(cfg, r); w.Code != http.StatusOK {
		t.Fatalf("allowed ip: got %d, want 200", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := GatewayConfig{RPS: 1, Burst: 1}
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	h := Gateway(cfg)(ok)

	r := httptest.NewRequest("GET", "/", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("first request: got %d, want 200", w.Code)
	}

	r = httptest.NewRequest("GET", "/", nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, r)
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request: got %d, want 429", w.Code)
	}
}

func TestPreflight(t *testing.T) {
	cfg := GatewayConfig{AllowedOrigins: []string{"*"}}
	r := httptest.NewRequest("OPTIONS", "/v1/annotations", nil)
	r.Header.Set("Origin", "https://example.com")
	w := gwServe(cfg, r)
	if w.Code != http.StatusNoContent {
		t.Fatalf("preflight: got %d, want 204", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://example.com" {
		t.Fatalf("missing CORS origin header")
	}
}

func TestRequestIDAssigned(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	w := gwServe(GatewayConfig{}, r)
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("expected X-Request-ID header")
	}
}
