package palette

import (
	"math"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
)

func TestIsHexColor(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  bool
	}{
		{name: "empty", value: "", want: false},
		{name: "whitespace", value: "   ", want: false},
		{name: "missing_hash", value: "AABBCC", want: false},
		{name: "short_hex", value: "#ABC", want: false},
		{name: "long_hex", value: "#AABBCCDD", want: false},
		{name: "invalid_char", value: "#AABBCG", want: false},
		{name: "lowercase_hex", value: "#aabbcc", want: true},
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

func TestGenerateRamp(t *testing.T) {
	ramp, err := GenerateRamp("#0D47A1")
	if err != nil {
		t.Fatalf("GenerateRamp() error = %v", err)
	}
	if err := ramp.Validate(); err != nil {
		t.Fatalf("generated ramp invalid: %v", err)
	}
	if ramp.S500 != "#0D47A1" {
		t.Fatalf("S500 = %q, want base color", ramp.S500)
	}

	// Lightness must fall monotonically from 50 to 950.
	prev := math.Inf(1)
	ramp.Each(func(step int, hex string) {
		c, err := colorful.Hex(hex)
		if err != nil {
			t.Fatalf("step %d: parse %q: %v", step, hex, err)
		}
		l, _, _ := c.Lab()
		if l >= prev {
			t.Fatalf("step %d lightness %.3f not below previous %.3f", step, l, prev)
		}
		prev = l
	})
}

func TestGenerateRamp_InvalidBase(t *testing.T) {
	for _, value := range []string{"", "blue", "#12345G", "#FFF"} {
		if _, err := GenerateRamp(value); err == nil {
			t.Fatalf("GenerateRamp(%q) expected error", value)
		}
	}
}

func TestShadeRampGetSet(t *testing.T) {
	var ramp ShadeRamp
	ramp.Set(700, "#111111")
	ramp.Set(42, "#222222")

	if got, ok := ramp.Get(700); !ok || got != "#111111" {
		t.Fatalf("Get(700) = %q, %t", got, ok)
	}
	if _, ok := ramp.Get(42); ok {
		t.Fatalf("Get(42) should report unknown step")
	}
	if err := ramp.Validate(); err == nil {
		t.Fatalf("partially filled ramp should fail validation")
	}
}

func TestContrastRatio(t *testing.T) {
	ratio, err := ContrastRatio("#000000", "#FFFFFF")
	if err != nil {
		t.Fatalf("ContrastRatio() error = %v", err)
	}
	if math.Abs(ratio-21) > 0.01 {
		t.Fatalf("black on white ratio = %.2f, want 21", ratio)
	}

	if _, err := ContrastRatio("#000000", "nope"); err == nil {
		t.Fatalf("expected error for invalid background")
	}
}

func TestBestTextColor(t *testing.T) {
	text, ratio, err := BestTextColor("#0D47A1")
	if err != nil {
		t.Fatalf("BestTextColor() error = %v", err)
	}
	if text != LightText {
		t.Fatalf("text on dark blue = %s, want %s", text, LightText)
	}
	if ratio < MinContrastRatio {
		t.Fatalf("ratio %.2f below minimum", ratio)
	}

	text, _, err = BestTextColor("#F9FAFB")
	if err != nil {
		t.Fatalf("BestTextColor() error = %v", err)
	}
	if text != DarkText {
		t.Fatalf("text on near-white = %s, want %s", text, DarkText)
	}
}
