// Package render projects a theme onto CSS custom properties.
package render

import (
	"fmt"
	"sort"
	"strings"

	"github.com/codr1/themestudio/internal/models"
	"github.com/codr1/themestudio/internal/palette"
)

// Variable is a single CSS custom property.
type Variable struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Variables returns the custom properties for theme in a stable order. Empty or invalid
// slots take their value from fallback.
func Variables(theme, fallback models.ThemeConfig) []Variable {
	var vars []Variable
	add := func(name, value, def string) {
		value = strings.TrimSpace(value)
		if value == "" {
			value = strings.TrimSpace(def)
		}
		if value == "" {
			return
		}
		vars = append(vars, Variable{Name: "--" + name, Value: value})
	}

	for _, slot := range models.ColorSlots() {
		token, _ := theme.Colors.Token(slot)
		def, _ := fallback.Colors.Token(slot)
		if !validToken(token) {
			token = def
		}
		base := token.Hex()
		add("color-"+string(slot), base, "")
		if token.Shades != nil {
			token.Shades.Each(func(step int, hex string) {
				add(fmt.Sprintf("color-%s-%d", slot, step), hex, "")
			})
		}
		if text, _, err := palette.BestTextColor(base); err == nil {
			add("color-"+string(slot)+"-contrast", text, "")
		}
	}
	defaults := fallback.Colors.Flat()
	for i, pair := range theme.Colors.Flat() {
		value := pair[1]
		if !models.IsHexColor(value) {
			value = ""
		}
		add("color-"+kebab(pair[0]), value, defaults[i][1])
	}

	t, ft := theme.Typography, fallback.Typography
	add("font-sans", t.FontFamily.Sans, ft.FontFamily.Sans)
	add("font-serif", t.FontFamily.Serif, ft.FontFamily.Serif)
	add("font-mono", t.FontFamily.Mono, ft.FontFamily.Mono)
	add("font-size-base", t.BaseSize, ft.BaseSize)
	add("font-scale", formatFloat(t.Scale), formatFloat(ft.Scale))
	add("font-weight-light", formatInt(t.Weights.Light), formatInt(ft.Weights.Light))
	add("font-weight-normal", formatInt(t.Weights.Normal), formatInt(ft.Weights.Normal))
	add("font-weight-medium", formatInt(t.Weights.Medium), formatInt(ft.Weights.Medium))
	add("font-weight-semibold", formatInt(t.Weights.Semibold), formatInt(ft.Weights.Semibold))
	add("font-weight-bold", formatInt(t.Weights.Bold), formatInt(ft.Weights.Bold))
	add("line-height-tight", formatFloat(t.LineHeights.Tight), formatFloat(ft.LineHeights.Tight))
	add("line-height-normal", formatFloat(t.LineHeights.Normal), formatFloat(ft.LineHeights.Normal))
	add("line-height-relaxed", formatFloat(t.LineHeights.Relaxed), formatFloat(ft.LineHeights.Relaxed))
	add("letter-spacing-tight", t.LetterSpacing.Tight, ft.LetterSpacing.Tight)
	add("letter-spacing-normal", t.LetterSpacing.Normal, ft.LetterSpacing.Normal)
	add("letter-spacing-wide", t.LetterSpacing.Wide, ft.LetterSpacing.Wide)

	s, fs := theme.Spacing, fallback.Spacing
	add("space-xs", s.XS, fs.XS)
	add("space-sm", s.SM, fs.SM)
	add("space-md", s.MD, fs.MD)
	add("space-lg", s.LG, fs.LG)
	add("space-xl", s.XL, fs.XL)
	add("space-xxl", s.XXL, fs.XXL)

	r, fr := theme.BorderRadius, fallback.BorderRadius
	add("radius-none", r.None, fr.None)
	add("radius-sm", r.SM, fr.SM)
	add("radius-md", r.MD, fr.MD)
	add("radius-lg", r.LG, fr.LG)
	add("radius-xl", r.XL, fr.XL)
	add("radius-full", r.Full, fr.Full)

	sh, fsh := theme.Shadows, fallback.Shadows
	add("shadow-sm", sh.SM, fsh.SM)
	add("shadow-md", sh.MD, fsh.MD)
	add("shadow-lg", sh.LG, fsh.LG)
	add("shadow-xl", sh.XL, fsh.XL)

	components := []struct {
		name      string
		style, fb models.ComponentStyle
	}{
		{"button", theme.Components.Button, fallback.Components.Button},
		{"input", theme.Components.Input, fallback.Components.Input},
		{"card", theme.Components.Card, fallback.Components.Card},
	}
	for _, c := range components {
		add(c.name+"-radius", c.style.Radius, c.fb.Radius)
		add(c.name+"-padding", c.style.Padding, c.fb.Padding)
		add(c.name+"-border-width", c.style.BorderWidth, c.fb.BorderWidth)
		add(c.name+"-shadow", c.style.Shadow, c.fb.Shadow)
		add(c.name+"-font-weight", formatInt(c.style.FontWeight), formatInt(c.fb.FontWeight))
	}

	l, fl := theme.Layout, fallback.Layout
	add("container-max-width", l.ContainerMaxWidth, fl.ContainerMaxWidth)
	add("sidebar-width", l.SidebarWidth, fl.SidebarWidth)
	add("header-height", l.HeaderHeight, fl.HeaderHeight)
	add("padding-mobile", l.Padding.Mobile, fl.Padding.Mobile)
	add("padding-tablet", l.Padding.Tablet, fl.Padding.Tablet)
	add("padding-desktop", l.Padding.Desktop, fl.Padding.Desktop)

	for _, key := range sortedExtensionKeys(theme.Extensions) {
		add("ext-"+kebab(key), theme.Extensions[key], "")
	}
	return vars
}

// CSSVariables renders Variables as a single :root rule.
func CSSVariables(theme, fallback models.ThemeConfig) string {
	var b strings.Builder
	b.WriteString(":root{")
	for _, v := range Variables(theme, fallback) {
		b.WriteString(v.Name)
		b.WriteByte(':')
		b.WriteString(v.Value)
		b.WriteByte(';')
	}
	b.WriteString("}")
	return b.String()
}

func validToken(token models.ColorToken) bool {
	if token.Shades != nil {
		return token.Shades.Validate() == nil
	}
	return models.IsHexColor(token.Value)
}

func formatInt(v int) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%d", v)
}

func formatFloat(v float64) string {
	if v == 0 {
		return ""
	}
	return fmt.Sprintf("%g", v)
}

// kebab converts a camelCase or free-form key into a CSS-safe identifier.
func kebab(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r >= 'A' && r <= 'Z':
			if i > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r + ('a' - 'A'))
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-':
			b.WriteRune(r)
		default:
			b.WriteByte('-')
		}
	}
	return b.String()
}

func sortedExtensionKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
