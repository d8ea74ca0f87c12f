// internal/models/themes.go
package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/codr1/themestudio/internal/palette"
)

const maxThemeNameLength = 100

var themeNameRegex = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ()-]*$`)

// ErrInvalidTheme is wrapped by every FieldError.
var ErrInvalidTheme = errors.New("invalid theme")

type FieldError struct {
	Field  string
	Reason string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Reason)
}

func (e FieldError) Unwrap() error {
	return ErrInvalidTheme
}

func IsHexColor(value string) bool {
	return palette.IsHexColor(value)
}

// ColorToken is either a single colour value or a 50–950 shade ramp.
type ColorToken struct {
	Value  string
	Shades *palette.ShadeRamp
}

// Solid returns a single-value token.
func Solid(hex string) ColorToken {
	return ColorToken{Value: hex}
}

// Hex returns the representative colour: the value, or shade 500 of a ramp.
func (c ColorToken) Hex() string {
	if c.Shades != nil {
		return c.Shades.S500
	}
	return c.Value
}

func (c ColorToken) IsZero() bool {
	return c.Value == "" && c.Shades == nil
}

func (c ColorToken) MarshalJSON() ([]byte, error) {
	if c.Shades != nil {
		return json.Marshal(c.Shades)
	}
	return json.Marshal(c.Value)
}

func (c *ColorToken) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case len(data) == 0 || bytes.Equal(data, []byte("null")):
		*c = ColorToken{}
		return nil
	case data[0] == '"':
		var value string
		if err := json.Unmarshal(data, &value); err != nil {
			return err
		}
		*c = ColorToken{Value: value}
		return nil
	case data[0] == '{':
		decoder := json.NewDecoder(bytes.NewReader(data))
		decoder.DisallowUnknownFields()
		var ramp palette.ShadeRamp
		if err := decoder.Decode(&ramp); err != nil {
			return fmt.Errorf("color shades: %w", err)
		}
		*c = ColorToken{Shades: &ramp}
		return nil
	}
	return fmt.Errorf("color token must be a hex string or a shade object")
}

func (c ColorToken) clone() ColorToken {
	if c.Shades == nil {
		return c
	}
	ramp := *c.Shades
	return ColorToken{Value: c.Value, Shades: &ramp}
}

type ColorPalette struct {
	Primary   ColorToken `json:"primary"`
	Secondary ColorToken `json:"secondary"`
	Accent    ColorToken `json:"accent"`
	Success   ColorToken `json:"success"`
	Warning   ColorToken `json:"warning"`
	Error     ColorToken `json:"error"`
	Info      ColorToken `json:"info"`
	Neutral   ColorToken `json:"neutral"`

	Background string `json:"background"`
	Surface    string `json:"surface"`
	Text       string `json:"text"`
	TextMuted  string `json:"textMuted"`
	Border     string `json:"border"`
}

// ColorSlot names a ramp-capable colour slot.
type ColorSlot string

const (
	SlotPrimary   ColorSlot = "primary"
	SlotSecondary ColorSlot = "secondary"
	SlotAccent    ColorSlot = "accent"
	SlotSuccess   ColorSlot = "success"
	SlotWarning   ColorSlot = "warning"
	SlotError     ColorSlot = "error"
	SlotInfo      ColorSlot = "info"
	SlotNeutral   ColorSlot = "neutral"
)

var colorSlots = []ColorSlot{
	SlotPrimary, SlotSecondary, SlotAccent, SlotSuccess,
	SlotWarning, SlotError, SlotInfo, SlotNeutral,
}

func ColorSlots() []ColorSlot {
	return append([]ColorSlot(nil), colorSlots...)
}

func IsColorSlot(name string) bool {
	for _, slot := range colorSlots {
		if string(slot) == name {
			return true
		}
	}
	return false
}

// Token returns the token stored in slot.
func (p ColorPalette) Token(slot ColorSlot) (ColorToken, bool) {
	switch slot {
	case SlotPrimary:
		return p.Primary, true
	case SlotSecondary:
		return p.Secondary, true
	case SlotAccent:
		return p.Accent, true
	case SlotSuccess:
		return p.Success, true
	case SlotWarning:
		return p.Warning, true
	case SlotError:
		return p.Error, true
	case SlotInfo:
		return p.Info, true
	case SlotNeutral:
		return p.Neutral, true
	}
	return ColorToken{}, false
}

// Flat returns the single-value surface colours keyed by JSON name, in a stable order.
func (p ColorPalette) Flat() [][2]string {
	return [][2]string{
		{"background", p.Background},
		{"surface", p.Surface},
		{"text", p.Text},
		{"textMuted", p.TextMuted},
		{"border", p.Border},
	}
}

type FontFamilies struct {
	Sans  string `json:"sans"`
	Serif string `json:"serif"`
	Mono  string `json:"mono"`
}

type FontWeights struct {
	Light    int `json:"light"`
	Normal   int `json:"normal"`
	Medium   int `json:"medium"`
	Semibold int `json:"semibold"`
	Bold     int `json:"bold"`
}

type LineHeights struct {
	Tight   float64 `json:"tight"`
	Normal  float64 `json:"normal"`
	Relaxed float64 `json:"relaxed"`
}

type LetterSpacing struct {
	Tight  string `json:"tight"`
	Normal string `json:"normal"`
	Wide   string `json:"wide"`
}

type Typography struct {
	FontFamily    FontFamilies  `json:"fontFamily"`
	BaseSize      string        `json:"baseSize"`
	Scale         float64       `json:"scale"`
	Weights       FontWeights   `json:"weights"`
	LineHeights   LineHeights   `json:"lineHeights"`
	LetterSpacing LetterSpacing `json:"letterSpacing"`
}

type SpacingScale struct {
	XS  string `json:"xs"`
	SM  string `json:"sm"`
	MD  string `json:"md"`
	LG  string `json:"lg"`
	XL  string `json:"xl"`
	XXL string `json:"xxl"`
}

type RadiusScale struct {
	None string `json:"none"`
	SM   string `json:"sm"`
	MD   string `json:"md"`
	LG   string `json:"lg"`
	XL   string `json:"xl"`
	Full string `json:"full"`
}

type ShadowScale struct {
	SM string `json:"sm"`
	MD string `json:"md"`
	LG string `json:"lg"`
	XL string `json:"xl"`
}

type ComponentStyle struct {
	Radius      string `json:"radius"`
	Padding     string `json:"padding"`
	BorderWidth string `json:"borderWidth"`
	Shadow      string `json:"shadow"`
	FontWeight  int    `json:"fontWeight"`
}

type ComponentStyles struct {
	Button ComponentStyle `json:"button"`
	Input  ComponentStyle `json:"input"`
	Card   ComponentStyle `json:"card"`
}

type ResponsivePadding struct {
	Mobile  string `json:"mobile"`
	Tablet  string `json:"tablet"`
	Desktop string `json:"desktop"`
}

type Layout struct {
	ContainerMaxWidth string            `json:"containerMaxWidth"`
	SidebarWidth      string            `json:"sidebarWidth"`
	HeaderHeight      string            `json:"headerHeight"`
	Padding           ResponsivePadding `json:"padding"`
}

// DesignTokens groups the style primitives of a theme.
type DesignTokens struct {
	Colors       ColorPalette      `json:"colors"`
	Typography   Typography        `json:"typography"`
	Spacing      SpacingScale      `json:"spacing"`
	BorderRadius RadiusScale       `json:"borderRadius"`
	Shadows      ShadowScale       `json:"shadows"`
	Components   ComponentStyles   `json:"components"`
	Extensions   map[string]string `json:"extensions,omitempty"`
}

type ThemeConfig struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Version     string `json:"version"`

	DesignTokens
	Layout Layout `json:"layout"`

	IsBuiltIn bool   `json:"isBuiltIn"`
	IsPublic  bool   `json:"isPublic"`
	IsDefault bool   `json:"isDefault"`
	BasedOn   string `json:"basedOn,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy; snapshots never share ramps or extension maps.
func (t ThemeConfig) Clone() ThemeConfig {
	out := t
	c := &out.Colors
	c.Primary = c.Primary.clone()
	c.Secondary = c.Secondary.clone()
	c.Accent = c.Accent.clone()
	c.Success = c.Success.clone()
	c.Warning = c.Warning.clone()
	c.Error = c.Error.clone()
	c.Info = c.Info.clone()
	c.Neutral = c.Neutral.clone()
	if t.Extensions != nil {
		out.Extensions = make(map[string]string, len(t.Extensions))
		for k, v := range t.Extensions {
			out.Extensions[k] = v
		}
	}
	return out
}

func ValidateName(name string) error {
	trimmedName := strings.TrimSpace(name)
	if trimmedName == "" {
		return FieldError{Field: "name", Reason: "is required"}
	}
	if trimmedName != name {
		return FieldError{Field: "name", Reason: "must not have leading or trailing whitespace"}
	}
	if len(trimmedName) > maxThemeNameLength {
		return FieldError{Field: "name", Reason: fmt.Sprintf("must be %d characters or fewer", maxThemeNameLength)}
	}
	if !themeNameRegex.MatchString(trimmedName) {
		return FieldError{Field: "name", Reason: "may only contain letters, numbers, spaces, hyphens, and parentheses"}
	}
	return nil
}

func (t ThemeConfig) Validate() error {
	if strings.TrimSpace(t.ID) == "" {
		return FieldError{Field: "id", Reason: "is required"}
	}
	if err := ValidateName(t.Name); err != nil {
		return err
	}
	if t.IsDefault && !t.IsBuiltIn {
		return FieldError{Field: "isDefault", Reason: "is reserved for built-in themes"}
	}

	for _, slot := range colorSlots {
		token, _ := t.Colors.Token(slot)
		if err := validateColorToken("colors."+string(slot), token); err != nil {
			return err
		}
	}
	for _, pair := range t.Colors.Flat() {
		if pair[1] != "" && !IsHexColor(pair[1]) {
			return FieldError{Field: "colors." + pair[0], Reason: "must be a 6-digit hex color like #AABBCC"}
		}
	}

	if t.Typography.Scale < 0 {
		return FieldError{Field: "typography.scale", Reason: "must not be negative"}
	}
	weights := map[string]int{
		"typography.weights.light":     t.Typography.Weights.Light,
		"typography.weights.normal":    t.Typography.Weights.Normal,
		"typography.weights.medium":    t.Typography.Weights.Medium,
		"typography.weights.semibold":  t.Typography.Weights.Semibold,
		"typography.weights.bold":      t.Typography.Weights.Bold,
		"components.button.fontWeight": t.Components.Button.FontWeight,
		"components.input.fontWeight":  t.Components.Input.FontWeight,
		"components.card.fontWeight":   t.Components.Card.FontWeight,
	}
	for _, name := range sortedKeys(weights) {
		if w := weights[name]; w != 0 && (w < 100 || w > 900) {
			return FieldError{Field: name, Reason: "must be between 100 and 900"}
		}
	}

	for key := range t.Extensions {
		if strings.TrimSpace(key) == "" {
			return FieldError{Field: "extensions", Reason: "keys must not be empty"}
		}
	}
	return nil
}

func validateColorToken(field string, token ColorToken) error {
	if token.Shades != nil {
		if err := token.Shades.Validate(); err != nil {
			return FieldError{Field: field, Reason: err.Error()}
		}
		return nil
	}
	if token.Value != "" && !IsHexColor(token.Value) {
		return FieldError{Field: field, Reason: "must be a 6-digit hex color like #AABBCC"}
	}
	return nil
}

// ContrastWarnings lists foreground/background pairs that fall under the AA large-text
// ratio. Warnings never block edits.
func (t ThemeConfig) ContrastWarnings() []string {
	pairs := []struct {
		fg, bg         string
		fgName, bgName string
	}{
		{t.Colors.Text, t.Colors.Background, "text", "background"},
		{t.Colors.Text, t.Colors.Surface, "text", "surface"},
		{t.Colors.TextMuted, t.Colors.Background, "textMuted", "background"},
		{t.Colors.Primary.Hex(), t.Colors.Background, "primary", "background"},
	}

	var warnings []string
	for _, pair := range pairs {
		if !IsHexColor(pair.fg) || !IsHexColor(pair.bg) {
			continue
		}
		ratio, err := palette.ContrastRatio(pair.fg, pair.bg)
		if err != nil || ratio >= palette.MinContrastRatio {
			continue
		}
		warnings = append(warnings, fmt.Sprintf(
			"colors.%s on colors.%s must have contrast ratio >= %.1f (%s); got %.2f",
			pair.fgName,
			pair.bgName,
			palette.MinContrastRatio,
			palette.ContrastNote,
			ratio,
		))
	}
	return warnings
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
