package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/codr1/themestudio/internal/api/apiutil"
	"github.com/codr1/themestudio/internal/ratelimit"
)

func TestWithRequestID_SetsHeaderAndContext(t *testing.T) {
	var seen string
	handler := WithRequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
	}))

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))

	if seen == "" {
		t.Fatalf("request id missing from context")
	}
	if recorder.Header().Get("X-Request-ID") != seen {
		t.Fatalf("header %q does not match context %q", recorder.Header().Get("X-Request-ID"), seen)
	}
}

func TestWithTenant(t *testing.T) {
	tests := []struct {
		name   string
		target string
		header string
		status int
		tenant string
	}{
		{name: "default", target: "/api/v1/themes", status: http.StatusOK, tenant: ""},
		{name: "header", target: "/api/v1/themes", header: "acme", status: http.StatusOK, tenant: "acme"},
		{name: "query", target: "/api/v1/themes?tenant=globex", status: http.StatusOK, tenant: "globex"},
		{name: "header_wins", target: "/api/v1/themes?tenant=globex", header: "acme", status: http.StatusOK, tenant: "acme"},
		{name: "invalid", target: "/api/v1/themes?tenant=a/b", status: http.StatusBadRequest},
		{name: "too_long", target: "/api/v1/themes", header: strings.Repeat("a", 65), status: http.StatusBadRequest},
		{name: "leading_dot", target: "/api/v1/themes", header: ".acme", status: http.StatusBadRequest},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var seen string
			handler := WithTenant(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = apiutil.TenantFromContext(r.Context())
			}))
			req := httptest.NewRequest(http.MethodGet, test.target, nil)
			if test.header != "" {
				req.Header.Set(apiutil.TenantHeader, test.header)
			}
			recorder := httptest.NewRecorder()
			handler.ServeHTTP(recorder, req)

			if recorder.Code != test.status {
				t.Fatalf("status = %d, want %d", recorder.Code, test.status)
			}
			if test.status == http.StatusOK && seen != test.tenant {
				t.Fatalf("tenant = %q, want %q", seen, test.tenant)
			}
		})
	}
}

func TestWithRecovery(t *testing.T) {
	handler := ChainMiddleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { panic("boom") }),
		WithRecovery,
		WithRequestID,
	)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/", nil))

	if recorder.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", recorder.Code)
	}
	if !strings.Contains(recorder.Body.String(), "Internal Server Error") {
		t.Fatalf("unexpected body: %s", recorder.Body.String())
	}
}

func TestWithLogging_DefaultStatus(t *testing.T) {
	handler := ChainMiddleware(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) }),
		WithLogging,
		WithRequestID,
	)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/health", nil))
	if recorder.Code != http.StatusOK {
		t.Fatalf("status = %d", recorder.Code)
	}
}

func TestWithRateLimit(t *testing.T) {
	limiter := ratelimit.New(&ratelimit.Config{Window: time.Minute, ClientPerWindow: 1})
	defer limiter.Close()

	handler := ChainMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}), WithRateLimit(limiter, false), WithTenant)

	send := func(method string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/v1/themes/draft", nil)
		req.RemoteAddr = "203.0.113.9:5000"
		recorder := httptest.NewRecorder()
		handler.ServeHTTP(recorder, req)
		return recorder
	}

	if got := send(http.MethodPatch).Code; got != http.StatusOK {
		t.Fatalf("first write status = %d", got)
	}
	recorder := send(http.MethodPatch)
	if recorder.Code != http.StatusTooManyRequests {
		t.Fatalf("second write status = %d, want 429", recorder.Code)
	}
	if retry := recorder.Header().Get("Retry-After"); retry == "" || retry == "0" {
		t.Fatalf("Retry-After = %q", retry)
	}
	if got := send(http.MethodGet).Code; got != http.StatusOK {
		t.Fatalf("reads should not be throttled, got %d", got)
	}
}
