// Package palette generates colour shade ramps and WCAG contrast figures for theme tokens.
package palette

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Theme colors often back larger UI elements, not body text, so we use the AA large-text threshold.
const MinContrastRatio = 3.0
const ContrastNote = "WCAG AA for large text/UI components"

const (
	DarkText  = "#000000"
	LightText = "#FFFFFF"
)

var hexColorRegex = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Steps lists the ramp positions from lightest to darkest.
var Steps = [...]int{50, 100, 200, 300, 400, 500, 600, 700, 800, 900, 950}

// Blend factors per step: positive values mix toward white, negative toward black.
var stepBlend = map[int]float64{
	50:  0.95,
	100: 0.88,
	200: 0.74,
	300: 0.56,
	400: 0.30,
	500: 0,
	600: -0.12,
	700: -0.28,
	800: -0.44,
	900: -0.58,
	950: -0.72,
}

func IsHexColor(value string) bool {
	return hexColorRegex.MatchString(strings.TrimSpace(value))
}

// ShadeRamp is a 50–950 colour scale.
type ShadeRamp struct {
	S50  string `json:"50"`
	S100 string `json:"100"`
	S200 string `json:"200"`
	S300 string `json:"300"`
	S400 string `json:"400"`
	S500 string `json:"500"`
	S600 string `json:"600"`
	S700 string `json:"700"`
	S800 string `json:"800"`
	S900 string `json:"900"`
	S950 string `json:"950"`
}

func (r *ShadeRamp) slot(step int) *string {
	switch step {
	case 50:
		return &r.S50
	case 100:
		return &r.S100
	case 200:
		return &r.S200
	case 300:
		return &r.S300
	case 400:
		return &r.S400
	case 500:
		return &r.S500
	case 600:
		return &r.S600
	case 700:
		return &r.S700
	case 800:
		return &r.S800
	case 900:
		return &r.S900
	case 950:
		return &r.S950
	}
	return nil
}

// Get returns the colour at step, or false for an unknown step.
func (r ShadeRamp) Get(step int) (string, bool) {
	p := r.slot(step)
	if p == nil {
		return "", false
	}
	return *p, true
}

// Set stores hex at step. Unknown steps are ignored.
func (r *ShadeRamp) Set(step int, hex string) {
	if p := r.slot(step); p != nil {
		*p = hex
	}
}

// Each calls fn for every step in ramp order.
func (r ShadeRamp) Each(fn func(step int, hex string)) {
	for _, step := range Steps {
		value, _ := r.Get(step)
		fn(step, value)
	}
}

// Validate reports the first step that is not a 6-digit hex colour.
func (r ShadeRamp) Validate() error {
	for _, step := range Steps {
		value, _ := r.Get(step)
		if !IsHexColor(value) {
			return fmt.Errorf("shade %d must be a 6-digit hex color like #AABBCC", step)
		}
	}
	return nil
}

// GenerateRamp derives an 11-step ramp from a single base colour. Step 500 is the base
// itself; lighter and darker steps are blended toward white and black in CIE-Lab space.
func GenerateRamp(base string) (ShadeRamp, error) {
	base = strings.TrimSpace(base)
	if !hexColorRegex.MatchString(base) {
		return ShadeRamp{}, fmt.Errorf("invalid hex color: %s", base)
	}
	c, err := colorful.Hex(base)
	if err != nil {
		return ShadeRamp{}, fmt.Errorf("invalid hex color: %s", base)
	}

	white := colorful.Color{R: 1, G: 1, B: 1}
	black := colorful.Color{R: 0, G: 0, B: 0}

	var ramp ShadeRamp
	for _, step := range Steps {
		t := stepBlend[step]
		switch {
		case t > 0:
			ramp.Set(step, strings.ToUpper(c.BlendLab(white, t).Clamped().Hex()))
		case t < 0:
			ramp.Set(step, strings.ToUpper(c.BlendLab(black, -t).Clamped().Hex()))
		default:
			ramp.Set(step, strings.ToUpper(base))
		}
	}
	return ramp, nil
}

// ContrastRatio returns the WCAG contrast ratio between two hex colours.
func ContrastRatio(foreground, background string) (float64, error) {
	fg, err := relativeLuminance(foreground)
	if err != nil {
		return 0, err
	}
	bg, err := relativeLuminance(background)
	if err != nil {
		return 0, err
	}
	lightest := math.Max(fg, bg)
	darkest := math.Min(fg, bg)
	return (lightest + 0.05) / (darkest + 0.05), nil
}

// BestTextColor picks black or white text for the background, whichever contrasts more.
func BestTextColor(background string) (string, float64, error) {
	bestRatio := 0.0
	bestText := ""
	for _, text := range []string{DarkText, LightText} {
		ratio, err := ContrastRatio(text, background)
		if err != nil {
			return "", 0, err
		}
		if ratio > bestRatio {
			bestRatio = ratio
			bestText = text
		}
	}
	return bestText, bestRatio, nil
}

func relativeLuminance(hexColor string) (float64, error) {
	hexColor = strings.TrimSpace(hexColor)
	if !hexColorRegex.MatchString(hexColor) {
		return 0, fmt.Errorf("invalid hex color: %s", hexColor)
	}
	c, err := colorful.Hex(hexColor)
	if err != nil {
		return 0, fmt.Errorf("invalid hex color: %s", hexColor)
	}
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b, nil
}
