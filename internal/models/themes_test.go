package models

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/codr1/themestudio/internal/palette"
)

func testTheme() ThemeConfig {
	created := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return ThemeConfig{
		ID:      "builtin-0",
		Name:    "Ocean Breeze",
		Version: "1.0.0",
		DesignTokens: DesignTokens{
			Colors: ColorPalette{
				Primary:    Solid("#0D47A1"),
				Secondary:  Solid("#00838F"),
				Accent:     Solid("#FFB300"),
				Background: "#F9FAFB",
				Text:       "#111827",
			},
			Typography: Typography{
				FontFamily: FontFamilies{Sans: "Inter, sans-serif"},
				BaseSize:   "16px",
				Scale:      1.25,
				Weights:    FontWeights{Normal: 400, Bold: 700},
			},
			Spacing: SpacingScale{SM: "8px", MD: "16px"},
		},
		IsBuiltIn: true,
		IsDefault: true,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestIsHexColor(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "empty", value: "", want: false},
		{name: "missing_hash", value: "AABBCC", want: false},
		{name: "invalid_char", value: "#AABBCG", want: false},
		{name: "uppercase_hex", value: "#AABBCC", want: true},
		{name: "trimmed_hex", value: "  #AABBCC  ", want: true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := IsHexColor(test.value); got != test.want {
				t.Fatalf("IsHexColor(%q) = %t, want %t", test.value, got, test.want)
			}
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ThemeConfig)
		field  string
	}{
		{name: "valid", mutate: func(*ThemeConfig) {}},
		{name: "missing_id", mutate: func(th *ThemeConfig) { th.ID = "" }, field: "id"},
		{name: "empty_name", mutate: func(th *ThemeConfig) { th.Name = "  " }, field: "name"},
		{name: "padded_name", mutate: func(th *ThemeConfig) { th.Name = " Ocean" }, field: "name"},
		{name: "bad_name_chars", mutate: func(th *ThemeConfig) { th.Name = "Ocean!" }, field: "name"},
		{name: "long_name", mutate: func(th *ThemeConfig) { th.Name = strings.Repeat("a", 101) }, field: "name"},
		{name: "bad_primary", mutate: func(th *ThemeConfig) { th.Colors.Primary = Solid("#12345G") }, field: "colors.primary"},
		{name: "bad_background", mutate: func(th *ThemeConfig) { th.Colors.Background = "white" }, field: "colors.background"},
		{name: "partial_ramp", mutate: func(th *ThemeConfig) {
			th.Colors.Accent = ColorToken{Shades: &palette.ShadeRamp{S500: "#FFB300"}}
		}, field: "colors.accent"},
		{name: "negative_scale", mutate: func(th *ThemeConfig) { th.Typography.Scale = -1 }, field: "typography.scale"},
		{name: "weight_range", mutate: func(th *ThemeConfig) { th.Typography.Weights.Bold = 1000 }, field: "typography.weights.bold"},
		{name: "default_custom", mutate: func(th *ThemeConfig) { th.IsBuiltIn = false }, field: "isDefault"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			theme := testTheme()
			test.mutate(&theme)
			err := theme.Validate()
			if test.field == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			var fieldErr FieldError
			if !errors.As(err, &fieldErr) {
				t.Fatalf("Validate() error = %v, want FieldError", err)
			}
			if fieldErr.Field != test.field {
				t.Fatalf("FieldError.Field = %q, want %q", fieldErr.Field, test.field)
			}
			if !errors.Is(err, ErrInvalidTheme) {
				t.Fatalf("FieldError should unwrap to ErrInvalidTheme")
			}
		})
	}
}

func TestColorTokenJSON(t *testing.T) {
	ramp, err := palette.GenerateRamp("#0D47A1")
	if err != nil {
		t.Fatalf("GenerateRamp() error = %v", err)
	}

	colors := ColorPalette{Primary: Solid("#0D47A1"), Secondary: ColorToken{Shades: &ramp}}
	data, err := json.Marshal(colors)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"primary":"#0D47A1"`) {
		t.Fatalf("solid token not encoded as string: %s", data)
	}
	if !strings.Contains(string(data), `"secondary":{"50":`) {
		t.Fatalf("ramp token not encoded as object: %s", data)
	}

	var decoded ColorPalette
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !reflect.DeepEqual(decoded, colors) {
		t.Fatalf("decoded palette = %+v, want %+v", decoded, colors)
	}
	if decoded.Secondary.Hex() != "#0D47A1" {
		t.Fatalf("ramp representative = %q", decoded.Secondary.Hex())
	}

	var bad ColorToken
	if err := json.Unmarshal([]byte(`42`), &bad); err == nil {
		t.Fatalf("expected error for numeric token")
	}
	if err := json.Unmarshal([]byte(`{"1000":"#000000"}`), &bad); err == nil {
		t.Fatalf("expected error for unknown shade step")
	}
}

func TestClone_IsDeep(t *testing.T) {
	ramp, _ := palette.GenerateRamp("#00838F")
	theme := testTheme()
	theme.Colors.Secondary = ColorToken{Shades: &ramp}
	theme.Extensions = map[string]string{"brand-glow": "#FFEEAA"}

	clone := theme.Clone()
	clone.Colors.Secondary.Shades.S50 = "#000000"
	clone.Extensions["brand-glow"] = "#000000"

	if theme.Colors.Secondary.Shades.S50 == "#000000" {
		t.Fatalf("clone shares shade ramp with source")
	}
	if theme.Extensions["brand-glow"] != "#FFEEAA" {
		t.Fatalf("clone shares extensions with source")
	}
}

func TestContrastWarnings(t *testing.T) {
	theme := testTheme()
	if warnings := theme.ContrastWarnings(); len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}

	theme.Colors.Text = "#E5E7EB"
	warnings := theme.ContrastWarnings()
	if len(warnings) != 1 {
		t.Fatalf("ContrastWarnings() = %v, want one warning", warnings)
	}
	if !strings.Contains(warnings[0], "colors.text on colors.background") {
		t.Fatalf("unexpected warning: %s", warnings[0])
	}
}
