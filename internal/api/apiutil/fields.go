package apiutil

import (
	"fmt"
	"strings"

	"github.com/codr1/themestudio/internal/session"
)

// ValidateTenant accepts "" (default scope) or a short slug safe to embed in store keys.
func ValidateTenant(tenant string) error {
	return session.ValidateTenant(tenant)
}

// RequiredField trims raw and reports field as missing when it is empty.
func RequiredField(raw, field string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%s is required", field)
	}
	return raw, nil
}
