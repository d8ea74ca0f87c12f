// internal/catalog/catalog.go
package catalog

import (
	_ "embed"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codr1/themestudio/internal/models"
)

//go:embed builtin.yaml
var builtinYAML []byte

type catalogFile struct {
	ReleasedAt string           `yaml:"releasedAt"`
	Base       map[string]any   `yaml:"base"`
	Themes     []map[string]any `yaml:"themes"`
}

// Catalog is the ordered, read-only set of built-in themes.
type Catalog struct {
	themes    []models.ThemeConfig
	defaultID string
}

// Builtin parses the embedded catalog.
func Builtin() (*Catalog, error) {
	return Parse(builtinYAML)
}

// MustBuiltin is Builtin for program start-up, where a broken embed is fatal.
func MustBuiltin() *Catalog {
	c, err := Builtin()
	if err != nil {
		panic(err)
	}
	return c
}

// Parse reads a catalog document. Each theme is merged over the shared base block,
// marked built-in and validated. Exactly one theme must be the default.
func Parse(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}
	if len(file.Themes) == 0 {
		return nil, fmt.Errorf("catalog defines no themes")
	}

	released := time.Unix(0, 0).UTC()
	if file.ReleasedAt != "" {
		t, err := time.Parse(time.RFC3339, file.ReleasedAt)
		if err != nil {
			return nil, fmt.Errorf("catalog releasedAt: %w", err)
		}
		released = t.UTC()
	}

	base, _ := normalize(file.Base).(map[string]any)

	c := &Catalog{themes: make([]models.ThemeConfig, 0, len(file.Themes))}
	seen := map[string]bool{}
	for i, raw := range file.Themes {
		doc, _ := normalize(raw).(map[string]any)
		doc = models.MergeMaps(base, doc)
		doc["isBuiltIn"] = true
		doc["createdAt"] = released
		doc["updatedAt"] = released

		theme, err := models.DecodeTheme(doc)
		if err != nil {
			return nil, fmt.Errorf("theme %d: %w", i, err)
		}
		if err := theme.Validate(); err != nil {
			return nil, fmt.Errorf("invalid theme %q: %w", theme.Name, err)
		}
		if seen[theme.ID] {
			return nil, fmt.Errorf("duplicate theme id %q", theme.ID)
		}
		seen[theme.ID] = true

		if theme.IsDefault {
			if c.defaultID != "" {
				return nil, fmt.Errorf("multiple default themes: %q and %q", c.defaultID, theme.ID)
			}
			c.defaultID = theme.ID
		}
		c.themes = append(c.themes, theme)
	}
	if c.defaultID == "" {
		return nil, fmt.Errorf("catalog has no default theme")
	}
	return c, nil
}

// Themes returns deep copies of the built-in themes in catalog order.
func (c *Catalog) Themes() []models.ThemeConfig {
	out := make([]models.ThemeConfig, len(c.themes))
	for i, theme := range c.themes {
		out[i] = theme.Clone()
	}
	return out
}

func (c *Catalog) Get(id string) (models.ThemeConfig, bool) {
	for _, theme := range c.themes {
		if theme.ID == id {
			return theme.Clone(), true
		}
	}
	return models.ThemeConfig{}, false
}

func (c *Catalog) DefaultID() string {
	return c.defaultID
}

func (c *Catalog) Default() models.ThemeConfig {
	theme, _ := c.Get(c.defaultID)
	return theme
}

func (c *Catalog) Len() int {
	return len(c.themes)
}

// normalize turns yaml.v3 output into JSON-shaped values with string keys.
func normalize(v any) any {
	switch value := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[k] = normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(value))
		for k, item := range value {
			out[strings.TrimSpace(fmt.Sprint(k))] = normalize(item)
		}
		return out
	case []any:
		out := make([]any, len(value))
		for i, item := range value {
			out[i] = normalize(item)
		}
		return out
	}
	return v
}
