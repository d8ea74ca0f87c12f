package drafts

import (
	"context"
	"fmt"
	"strings"

	"github.com/codr1/themestudio/internal/models"
	"github.com/codr1/themestudio/internal/palette"
)

const (
	forkSuffix       = " (Custom)"
	maxDescribedPath = 3
)

// UpdateDraft merges patch into the effective theme and stores the result as the draft.
// The active theme is never touched.
func (m *Manager) UpdateDraft(patch models.Patch) (models.ThemeConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(); err != nil {
		return models.ThemeConfig{}, err
	}

	base := m.effective()
	next, changes, err := models.ApplyPatch(base, patch)
	if err != nil {
		return models.ThemeConfig{}, asValidation(err)
	}

	m.preview = &next
	m.record(ActionUpdate, next, describeChanges(changes), changes)

	m.logger.Debug().
		Str("theme_id", next.ID).
		Int("changes", len(changes)).
		Msg("Updated theme draft")
	return next.Clone(), nil
}

// GenerateShades replaces a colour slot in the draft with a 50–950 ramp built from base.
func (m *Manager) GenerateShades(slot models.ColorSlot, base string) (models.ThemeConfig, error) {
	if !models.IsColorSlot(string(slot)) {
		return models.ThemeConfig{}, &ValidationError{Field: "slot", Reason: fmt.Sprintf("unknown colour slot %q", slot)}
	}
	ramp, err := palette.GenerateRamp(base)
	if err != nil {
		return models.ThemeConfig{}, &ValidationError{Field: "colors." + string(slot), Reason: err.Error()}
	}
	return m.UpdateDraft(models.Patch{
		"colors": map[string]any{string(slot): ramp},
	})
}

// CommitDraft promotes the draft. A draft over a built-in theme becomes a new user theme
// that is made active; a draft over a user theme replaces it in place. Without a draft it
// does nothing.
func (m *Manager) CommitDraft(ctx context.Context) (models.ThemeConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(); err != nil {
		return models.ThemeConfig{}, err
	}
	if m.preview == nil {
		return m.active().Clone(), nil
	}

	source := m.active()
	now := m.now()
	committed := m.preview.Clone()
	themes := cloneThemes(m.themes)
	activeID := m.activeID

	if source.IsBuiltIn {
		committed.ID = m.newID()
		if committed.Name == source.Name {
			committed.Name = source.Name + forkSuffix
		}
		committed.IsBuiltIn = false
		committed.IsDefault = false
		committed.IsPublic = false
		committed.BasedOn = source.ID
		committed.CreatedAt = now
		committed.UpdatedAt = now
		if err := committed.Validate(); err != nil {
			return models.ThemeConfig{}, asValidation(err)
		}
		themes = append(themes, committed)
		activeID = committed.ID
	} else {
		committed.ID = source.ID
		committed.IsBuiltIn = false
		committed.IsDefault = false
		committed.CreatedAt = source.CreatedAt
		committed.UpdatedAt = now
		if err := committed.Validate(); err != nil {
			return models.ThemeConfig{}, asValidation(err)
		}
		themes[m.indexOf(source.ID)] = committed
	}

	if err := m.persist(ctx, themes, activeID); err != nil {
		return models.ThemeConfig{}, err
	}

	m.themes = themes
	m.activeID = activeID
	m.preview = nil
	entry := m.newEntry(ActionPublish, committed, fmt.Sprintf("Published %s", committed.Name), nil)
	if !source.IsBuiltIn {
		entry.revision = &catalogRevision{before: source.Clone(), after: committed.Clone()}
	}
	m.history.push(entry)

	m.logger.Info().
		Str("theme_id", committed.ID).
		Str("based_on", committed.BasedOn).
		Bool("forked", source.IsBuiltIn).
		Msg("Committed theme draft")
	return committed.Clone(), nil
}

// DiscardDraft drops the draft without touching the catalog. It is recorded as an apply of
// the active theme, so undo brings the draft back.
func (m *Manager) DiscardDraft() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.preview == nil {
		return false
	}
	m.preview = nil
	active := m.active()
	m.record(ActionApply, active, fmt.Sprintf("Discarded draft of %s", active.Name), nil)
	m.logger.Debug().Str("theme_id", m.activeID).Msg("Discarded theme draft")
	return true
}

// Undo moves the history cursor back one step and restores the session recorded there.
// It reports false at the oldest position.
func (m *Manager) Undo(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded || !m.history.canUndo() {
		return false, nil
	}
	if err := m.restore(ctx, m.history.cursor-1); err != nil {
		return false, err
	}
	return true, nil
}

// Redo moves the history cursor forward one step. It reports false at the newest position.
func (m *Manager) Redo(ctx context.Context) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded || !m.history.canRedo() {
		return false, nil
	}
	if err := m.restore(ctx, m.history.cursor+1); err != nil {
		return false, err
	}
	return true, nil
}

// restore applies the session recorded at pos, an adjacent cursor position. A theme the
// crossed entry replaced in place is rewound too. When the recorded active theme has since
// been deleted the current active theme stays and the draft is dropped.
func (m *Manager) restore(ctx context.Context, pos int) error {
	state := m.history.stateAt(pos)
	if m.indexOf(state.activeID) < 0 {
		state = sessionState{activeID: m.activeID}
	}

	var themes []models.ThemeConfig
	if theme, ok := m.history.catalogChange(m.history.cursor, pos); ok {
		if i := m.indexOf(theme.ID); i >= 0 {
			themes = cloneThemes(m.themes)
			themes[i] = theme
		}
	}

	if err := m.persist(ctx, themes, state.activeID); err != nil {
		return err
	}

	if themes != nil {
		m.themes = themes
	}
	m.history.cursor = pos
	m.activeID = state.activeID
	m.preview = state.preview

	m.logger.Debug().
		Int("cursor", pos).
		Str("active_id", m.activeID).
		Bool("preview", m.preview != nil).
		Bool("catalog_rewound", themes != nil).
		Msg("Restored history position")
	return nil
}

func describeChanges(changes []models.FieldChange) string {
	if len(changes) == 0 {
		return "Updated draft (no changes)"
	}
	paths := make([]string, 0, maxDescribedPath)
	for i, change := range changes {
		if i == maxDescribedPath {
			break
		}
		paths = append(paths, change.Path)
	}
	desc := "Updated " + strings.Join(paths, ", ")
	if extra := len(changes) - len(paths); extra > 0 {
		desc += fmt.Sprintf(" and %d more", extra)
	}
	return desc
}

func cloneThemes(themes []models.ThemeConfig) []models.ThemeConfig {
	out := make([]models.ThemeConfig, len(themes))
	for i, theme := range themes {
		out[i] = theme.Clone()
	}
	return out
}
