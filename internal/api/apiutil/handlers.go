package apiutil

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/codr1/themestudio/internal/drafts"
	"github.com/codr1/themestudio/internal/session"
)

const (
	TenantHeader   = "X-Tenant-ID"
	TenantQueryKey = "tenant"
	maxBodyBytes   = 1 << 20
)

type tenantKey struct{}

type HandlerError struct {
	Status  int
	Message string
	Field   string
	Err     error
}

func (e HandlerError) Error() string {
	return e.Message
}

func (e HandlerError) Unwrap() error {
	return e.Err
}

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("missing request body")
	}
	defer r.Body.Close()

	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dst); err != nil {
		return err
	}
	if err := decoder.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

// ReadBody returns the raw request body, capped at 1 MiB.
func ReadBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, fmt.Errorf("missing request body")
	}
	defer r.Body.Close()
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > maxBodyBytes {
		return nil, fmt.Errorf("request body too large")
	}
	return data, nil
}

func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	if err := encoder.Encode(payload); err != nil {
		return err
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write(buf.Bytes())
	return err
}

// ToHandlerError maps session errors onto HTTP statuses.
func ToHandlerError(err error) HandlerError {
	var handlerErr HandlerError
	if errors.As(err, &handlerErr) {
		return handlerErr
	}
	var validationErr *drafts.ValidationError
	switch {
	case errors.As(err, &validationErr):
		return HandlerError{Status: http.StatusBadRequest, Message: validationErr.Error(), Field: validationErr.Field, Err: err}
	case errors.Is(err, drafts.ErrNotFound):
		return HandlerError{Status: http.StatusNotFound, Message: err.Error(), Err: err}
	case errors.Is(err, drafts.ErrInvalidOperation):
		return HandlerError{Status: http.StatusConflict, Message: err.Error(), Err: err}
	case errors.Is(err, session.ErrInvalidTenant):
		return HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err}
	case errors.Is(err, session.ErrTooManySessions):
		return HandlerError{Status: http.StatusServiceUnavailable, Message: "Too many open theme sessions, try again later", Err: err}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return HandlerError{Status: http.StatusServiceUnavailable, Message: "Request cancelled", Err: err}
	}
	return HandlerError{Status: http.StatusInternalServerError, Message: "Internal Server Error", Err: err}
}

// WriteError writes err as a JSON error body. Server errors are logged with the request
// logger.
func WriteError(w http.ResponseWriter, r *http.Request, err error, logMessage string) {
	handlerErr := ToHandlerError(err)
	if handlerErr.Status >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Msg(logMessage)
	}
	if writeErr := WriteJSON(w, handlerErr.Status, errorResponse{Error: handlerErr.Message, Field: handlerErr.Field}); writeErr != nil {
		log.Ctx(r.Context()).Error().Err(writeErr).Msg("Failed to write error response")
	}
}

// BadRequest wraps a decoding failure as a 400.
func BadRequest(err error) HandlerError {
	return HandlerError{Status: http.StatusBadRequest, Message: err.Error(), Err: err}
}

func ContextWithTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, tenantKey{}, tenant)
}

// TenantFromContext returns the tenant resolved by the tenant middleware, or "" for the
// default scope.
func TenantFromContext(ctx context.Context) string {
	tenant, _ := ctx.Value(tenantKey{}).(string)
	return tenant
}

// TenantFromRequest reads the tenant from the header, falling back to the query string,
// and rejects ids that are not short slugs.
func TenantFromRequest(r *http.Request) (string, error) {
	tenant := strings.TrimSpace(r.Header.Get(TenantHeader))
	if tenant == "" {
		tenant = strings.TrimSpace(r.URL.Query().Get(TenantQueryKey))
	}
	if err := ValidateTenant(tenant); err != nil {
		return "", err
	}
	return tenant, nil
}
