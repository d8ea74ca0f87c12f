package models

import (
	"errors"
	"testing"
)

func TestApplyPatch_MergesNestedFields(t *testing.T) {
	base := testTheme()

	next, changes, err := ApplyPatch(base, Patch{
		"colors": map[string]any{"primary": "#FF0000"},
		"layout": map[string]any{"padding": map[string]any{"mobile": "12px"}},
	})
	if err != nil {
		t.Fatalf("ApplyPatch() error = %v", err)
	}

	if next.Colors.Primary.Hex() != "#FF0000" {
		t.Fatalf("primary = %q, want #FF0000", next.Colors.Primary.Hex())
	}
	if next.Colors.Secondary.Hex() != base.Colors.Secondary.Hex() {
		t.Fatalf("secondary changed: %q", next.Colors.Secondary.Hex())
	}
	if next.Layout.Padding.Mobile != "12px" {
		t.Fatalf("layout.padding.mobile = %q", next.Layout.Padding.Mobile)
	}
	if base.Colors.Primary.Hex() != "#0D47A1" {
		t.Fatalf("base theme was mutated")
	}
	if !next.CreatedAt.Equal(base.CreatedAt) {
		t.Fatalf("createdAt changed through merge")
	}

	if len(changes) != 2 {
		t.Fatalf("changes = %+v, want 2", changes)
	}
	if changes[0].Path != "colors.primary" || changes[0].Old != "#0D47A1" || changes[0].New != "#FF0000" {
		t.Fatalf("unexpected first change: %+v", changes[0])
	}
	if changes[1].Path != "layout.padding.mobile" || changes[1].Old != "" || changes[1].New != "12px" {
		t.Fatalf("unexpected second change: %+v", changes[1])
	}
}

func TestApplyPatch_NullRemovesExtension(t *testing.T) {
	base := testTheme()
	base.Extensions = map[string]string{"brand-glow": "#FFEEAA", "hero-tint": "#112233"}

	next, changes, err := ApplyPatch(base, Patch{
		"extensions": map[string]any{"brand-glow": nil},
	})
	if err != nil {
		t.Fatalf("ApplyPatch() error = %v", err)
	}
	if _, ok := next.Extensions["brand-glow"]; ok {
		t.Fatalf("extension was not removed")
	}
	if next.Extensions["hero-tint"] != "#112233" {
		t.Fatalf("unrelated extension lost")
	}
	if len(changes) != 1 || changes[0].Path != "extensions.brand-glow" || changes[0].New != nil {
		t.Fatalf("unexpected changes: %+v", changes)
	}
	if base.Extensions["brand-glow"] != "#FFEEAA" {
		t.Fatalf("base extensions were mutated")
	}
}

func TestApplyPatch_Rejects(t *testing.T) {
	tests := []struct {
		name  string
		patch Patch
		field string
	}{
		{name: "empty", patch: Patch{}, field: "patch"},
		{name: "read_only_id", patch: Patch{"id": "other"}, field: "id"},
		{name: "read_only_builtin", patch: Patch{"isBuiltIn": false}, field: "isBuiltIn"},
		{name: "unknown_field", patch: Patch{"colours": map[string]any{}}, field: "theme"},
		{name: "unknown_nested", patch: Patch{"spacing": map[string]any{"huge": "99px"}}, field: "theme"},
		{name: "wrong_type", patch: Patch{"typography": map[string]any{"scale": "big"}}, field: "theme"},
		{name: "bad_color", patch: Patch{"colors": map[string]any{"primary": "#ZZZZZZ"}}, field: "colors.primary"},
		{name: "bad_name", patch: Patch{"name": ""}, field: "name"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			_, _, err := ApplyPatch(testTheme(), test.patch)
			var fieldErr FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("ApplyPatch() error = %v, want FieldError", err)
			}
			if fieldErr.Field != test.field {
				t.Fatalf("FieldError.Field = %q, want %q (%v)", fieldErr.Field, test.field, err)
			}
		})
	}
}

func TestApplyPatch_ShadeRampReplacesSolid(t *testing.T) {
	ramp := map[string]any{}
	for _, step := range []string{"50", "100", "200", "300", "400", "500", "600", "700", "800", "900", "950"} {
		ramp[step] = "#0D47A1"
	}

	next, _, err := ApplyPatch(testTheme(), Patch{"colors": map[string]any{"primary": ramp}})
	if err != nil {
		t.Fatalf("ApplyPatch() error = %v", err)
	}
	if next.Colors.Primary.Shades == nil {
		t.Fatalf("primary should hold a shade ramp")
	}

	back, _, err := ApplyPatch(next, Patch{"colors": map[string]any{"primary": "#FF0000"}})
	if err != nil {
		t.Fatalf("ApplyPatch() error = %v", err)
	}
	if back.Colors.Primary.Shades != nil || back.Colors.Primary.Value != "#FF0000" {
		t.Fatalf("solid value should replace ramp: %+v", back.Colors.Primary)
	}
}

func TestMergeMaps_DoesNotMutateInputs(t *testing.T) {
	dst := map[string]any{"a": map[string]any{"b": 1.0, "c": 2.0}}
	src := map[string]any{"a": map[string]any{"b": 3.0}}

	out := MergeMaps(dst, src)

	if dst["a"].(map[string]any)["b"] != 1.0 {
		t.Fatalf("dst mutated")
	}
	inner := out["a"].(map[string]any)
	if inner["b"] != 3.0 || inner["c"] != 2.0 {
		t.Fatalf("unexpected merge result: %v", out)
	}
}
