package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Patch is a partial theme in its JSON shape. Nested objects merge, scalars replace and
// null removes a key (JSON merge-patch semantics).
type Patch map[string]any

// FieldChange records one leaf that an edit changed.
type FieldChange struct {
	Path string `json:"path"`
	Old  any    `json:"old"`
	New  any    `json:"new"`
}

var readOnlyFields = map[string]bool{
	"id":        true,
	"isBuiltIn": true,
	"isDefault": true,
	"basedOn":   true,
	"createdAt": true,
	"updatedAt": true,
}

// ApplyPatch merges patch into base and returns the new theme along with the leaf-level
// changes. base is never modified.
func ApplyPatch(base ThemeConfig, patch Patch) (ThemeConfig, []FieldChange, error) {
	if len(patch) == 0 {
		return ThemeConfig{}, nil, FieldError{Field: "patch", Reason: "must not be empty"}
	}
	for _, key := range sortedKeys(patch) {
		if readOnlyFields[key] {
			return ThemeConfig{}, nil, FieldError{Field: key, Reason: "is read-only"}
		}
	}

	normalized, err := toMap(patch)
	if err != nil {
		return ThemeConfig{}, nil, FieldError{Field: "patch", Reason: err.Error()}
	}
	baseMap, err := toMap(base)
	if err != nil {
		return ThemeConfig{}, nil, fmt.Errorf("encode theme: %w", err)
	}

	merged := MergeMaps(baseMap, normalized)
	next, err := DecodeTheme(merged)
	if err != nil {
		return ThemeConfig{}, nil, err
	}
	if err := next.Validate(); err != nil {
		return ThemeConfig{}, nil, err
	}

	nextMap, err := toMap(next)
	if err != nil {
		return ThemeConfig{}, nil, fmt.Errorf("encode theme: %w", err)
	}
	return next, Diff(baseMap, nextMap), nil
}

// DecodeTheme converts a generic JSON-shaped document into a ThemeConfig, rejecting
// unknown fields and mistyped values.
func DecodeTheme(doc map[string]any) (ThemeConfig, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return ThemeConfig{}, FieldError{Field: "patch", Reason: err.Error()}
	}
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()

	var theme ThemeConfig
	if err := decoder.Decode(&theme); err != nil {
		return ThemeConfig{}, FieldError{Field: "theme", Reason: describeDecodeError(err)}
	}
	return theme, nil
}

// MergeMaps returns dst with src merged in. Neither input is modified.
func MergeMaps(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		if v == nil {
			delete(out, k)
			continue
		}
		srcMap, ok := v.(map[string]any)
		if !ok {
			out[k] = v
			continue
		}
		dstMap, ok := out[k].(map[string]any)
		if !ok {
			dstMap = map[string]any{}
		}
		out[k] = MergeMaps(dstMap, srcMap)
	}
	return out
}

// Diff compares two JSON-shaped documents leaf by leaf. updatedAt is ignored.
func Diff(before, after map[string]any) []FieldChange {
	old := map[string]any{}
	flatten("", before, old)
	next := map[string]any{}
	flatten("", after, next)

	paths := map[string]struct{}{}
	for p := range old {
		paths[p] = struct{}{}
	}
	for p := range next {
		paths[p] = struct{}{}
	}
	delete(paths, "updatedAt")

	changes := []FieldChange{}
	for _, p := range sortedKeys(paths) {
		if reflect.DeepEqual(old[p], next[p]) {
			continue
		}
		changes = append(changes, FieldChange{Path: p, Old: old[p], New: next[p]})
	}
	return changes
}

// ToMap returns the JSON-shaped form of a theme.
func (t ThemeConfig) ToMap() (map[string]any, error) {
	return toMap(t)
}

func flatten(prefix string, value map[string]any, out map[string]any) {
	for k, v := range value {
		path := k
		if prefix != "" {
			path = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok {
			flatten(path, nested, out)
			continue
		}
		out[path] = v
	}
}

func toMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func describeDecodeError(err error) string {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return fmt.Sprintf("field %s must be %s", typeErr.Field, typeErr.Type.String())
	}
	msg := err.Error()
	if strings.HasPrefix(msg, "json: unknown field ") {
		return "has " + strings.TrimPrefix(msg, "json: ")
	}
	return msg
}
