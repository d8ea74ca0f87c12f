package apiutil

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/codr1/themestudio/internal/drafts"
	"github.com/codr1/themestudio/internal/session"
)

func TestTenantFromRequest(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		header  string
		want    string
		wantErr bool
	}{
		{name: "empty", target: "/", want: ""},
		{name: "header", target: "/", header: " acme ", want: "acme"},
		{name: "query", target: "/?tenant=globex", want: "globex"},
		{name: "header_wins", target: "/?tenant=globex", header: "acme", want: "acme"},
		{name: "max_length", target: "/", header: strings.Repeat("a", 64), want: strings.Repeat("a", 64)},
		{name: "too_long", target: "/", header: strings.Repeat("a", 65), wantErr: true},
		{name: "slash", target: "/?tenant=a%2Fb", wantErr: true},
		{name: "colon", target: "/", header: "acme:themes", wantErr: true},
		{name: "leading_dash", target: "/", header: "-acme", wantErr: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, test.target, nil)
			if test.header != "" {
				req.Header.Set(TenantHeader, test.header)
			}
			got, err := TenantFromRequest(req)
			if test.wantErr {
				if !errors.Is(err, session.ErrInvalidTenant) {
					t.Fatalf("TenantFromRequest() error = %v, want ErrInvalidTenant", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("TenantFromRequest() error = %v", err)
			}
			if got != test.want {
				t.Fatalf("TenantFromRequest() = %q, want %q", got, test.want)
			}
		})
	}
}

func TestToHandlerError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "validation", err: &drafts.ValidationError{Field: "name", Reason: "is required"}, status: http.StatusBadRequest},
		{name: "not_found", err: fmt.Errorf("wrap: %w", drafts.ErrNotFound), status: http.StatusNotFound},
		{name: "invalid_operation", err: drafts.ErrInvalidOperation, status: http.StatusConflict},
		{name: "invalid_tenant", err: session.ValidateTenant("a/b"), status: http.StatusBadRequest},
		{name: "session_cap", err: session.ErrTooManySessions, status: http.StatusServiceUnavailable},
		{name: "bad_request", err: BadRequest(errors.New("bad json")), status: http.StatusBadRequest},
		{name: "internal", err: errors.New("boom"), status: http.StatusInternalServerError},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := ToHandlerError(test.err).Status; got != test.status {
				t.Fatalf("ToHandlerError() status = %d, want %d", got, test.status)
			}
		})
	}
}
