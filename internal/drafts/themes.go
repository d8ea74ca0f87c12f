package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/codr1/themestudio/internal/models"
	"github.com/codr1/themestudio/internal/store"
)

// SelectActive makes id the active theme and drops any open draft.
func (m *Manager) SelectActive(ctx context.Context, id string) (models.ThemeConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(); err != nil {
		return models.ThemeConfig{}, err
	}
	theme, err := m.find(id)
	if err != nil {
		return models.ThemeConfig{}, err
	}
	if err := m.persist(ctx, nil, id); err != nil {
		return models.ThemeConfig{}, err
	}

	m.activeID = id
	m.preview = nil
	m.record(ActionApply, theme, fmt.Sprintf("Applied %s", theme.Name), nil)

	m.logger.Info().Str("theme_id", id).Msg("Selected active theme")
	return theme.Clone(), nil
}

// CreateTheme adds a new user theme seeded from the default built-in tokens. The active
// theme is unchanged.
func (m *Manager) CreateTheme(ctx context.Context, name string) (models.ThemeConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(); err != nil {
		return models.ThemeConfig{}, err
	}

	seed := m.builtins.Default()
	theme := m.newUserTheme(seed, name)
	theme.Description = ""
	theme.BasedOn = ""
	if err := theme.Validate(); err != nil {
		return models.ThemeConfig{}, asValidation(err)
	}
	return m.addUserTheme(ctx, ActionCreate, theme, fmt.Sprintf("Created %s", theme.Name))
}

// Duplicate copies the theme at id into a new private user theme. An empty name becomes
// "Copy of <source name>".
func (m *Manager) Duplicate(ctx context.Context, id, name string) (models.ThemeConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(); err != nil {
		return models.ThemeConfig{}, err
	}
	source, err := m.find(id)
	if err != nil {
		return models.ThemeConfig{}, err
	}
	if strings.TrimSpace(name) == "" {
		name = "Copy of " + source.Name
	}

	theme := m.newUserTheme(source, name)
	theme.BasedOn = source.ID
	if err := theme.Validate(); err != nil {
		return models.ThemeConfig{}, asValidation(err)
	}
	return m.addUserTheme(ctx, ActionDuplicate, theme, fmt.Sprintf("Duplicated %s as %s", source.Name, theme.Name))
}

// DeleteTheme removes a user theme. Built-in and active themes cannot be deleted.
func (m *Manager) DeleteTheme(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(); err != nil {
		return err
	}
	i := m.indexOf(id)
	if i < 0 {
		return notFound(id)
	}
	theme := m.themes[i]
	if theme.IsBuiltIn {
		return invalidOperation("built-in theme %q cannot be deleted", theme.Name)
	}
	if theme.ID == m.activeID {
		return invalidOperation("active theme %q cannot be deleted", theme.Name)
	}

	themes := make([]models.ThemeConfig, 0, len(m.themes)-1)
	themes = append(themes, m.themes[:i]...)
	themes = append(themes, m.themes[i+1:]...)
	if err := m.persist(ctx, themes, m.activeID); err != nil {
		return err
	}

	m.themes = themes
	m.record(ActionDelete, theme, fmt.Sprintf("Deleted %s", theme.Name), nil)

	m.logger.Info().Str("theme_id", id).Msg("Deleted theme")
	return nil
}

// ResetToDefault throws away unsaved edits. A user theme is reloaded from its last
// persisted copy and any draft over it is dropped. A built-in theme can only be reset while
// a draft over it is open.
func (m *Manager) ResetToDefault(ctx context.Context, id string) (models.ThemeConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(); err != nil {
		return models.ThemeConfig{}, err
	}
	i := m.indexOf(id)
	if i < 0 {
		return models.ThemeConfig{}, notFound(id)
	}
	theme := m.themes[i]
	draftOver := m.preview != nil && m.activeID == id

	if theme.IsBuiltIn {
		if !draftOver {
			return models.ThemeConfig{}, invalidOperation("built-in theme %q has no customizations to reset", theme.Name)
		}
		m.preview = nil
		m.record(ActionApply, theme, fmt.Sprintf("Reset %s", theme.Name), nil)
		m.logger.Info().Str("theme_id", id).Msg("Reset built-in theme draft")
		return theme.Clone(), nil
	}

	saved, err := m.readSavedTheme(ctx, id)
	if err != nil {
		return models.ThemeConfig{}, err
	}
	themes := cloneThemes(m.themes)
	themes[i] = saved

	m.themes = themes
	if draftOver {
		m.preview = nil
	}
	m.record(ActionApply, saved, fmt.Sprintf("Reset %s", saved.Name), nil)

	m.logger.Info().Str("theme_id", id).Msg("Reset theme to saved version")
	return saved.Clone(), nil
}

func (m *Manager) readSavedTheme(ctx context.Context, id string) (models.ThemeConfig, error) {
	data, err := m.store.Get(ctx, store.Key(m.tenant, themesKey))
	if errors.Is(err, store.ErrNotFound) {
		return models.ThemeConfig{}, invalidOperation("theme %q has no saved version", id)
	}
	if err != nil {
		return models.ThemeConfig{}, fmt.Errorf("load user themes: %w", err)
	}
	var saved []models.ThemeConfig
	if err := json.Unmarshal(data, &saved); err != nil {
		return models.ThemeConfig{}, fmt.Errorf("decode user themes: %w", err)
	}
	for _, theme := range saved {
		if theme.ID == id {
			theme.IsBuiltIn = false
			theme.IsDefault = false
			return theme, nil
		}
	}
	return models.ThemeConfig{}, invalidOperation("theme %q has no saved version", id)
}

// newUserTheme copies source into a fresh private user theme named name.
func (m *Manager) newUserTheme(source models.ThemeConfig, name string) models.ThemeConfig {
	now := m.now()
	theme := source.Clone()
	theme.ID = m.newID()
	theme.Name = name
	theme.IsBuiltIn = false
	theme.IsDefault = false
	theme.IsPublic = false
	theme.CreatedAt = now
	theme.UpdatedAt = now
	return theme
}

func (m *Manager) addUserTheme(ctx context.Context, action Action, theme models.ThemeConfig, description string) (models.ThemeConfig, error) {
	if m.indexOf(theme.ID) >= 0 {
		return models.ThemeConfig{}, invalidOperation("theme id %q already exists", theme.ID)
	}
	themes := append(cloneThemes(m.themes), theme)
	if err := m.persist(ctx, themes, m.activeID); err != nil {
		return models.ThemeConfig{}, err
	}

	m.themes = themes
	m.record(action, theme, description, nil)

	m.logger.Info().Str("theme_id", theme.ID).Str("action", string(action)).Msg("Added user theme")
	return theme.Clone(), nil
}
