package drafts

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codr1/themestudio/internal/models"
	"github.com/codr1/themestudio/internal/store"
)

func TestDeleteTheme_ActiveFails(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, store.NewMemory())
	dup, err := m.Duplicate(ctx, "builtin-0", "Mine")
	require.NoError(t, err)
	_, err = m.SelectActive(ctx, dup.ID)
	require.NoError(t, err)

	before := m.Themes()
	err = m.DeleteTheme(ctx, dup.ID)
	require.ErrorIs(t, err, ErrInvalidOperation)
	require.Equal(t, before, m.Themes())
}

func TestDeleteTheme(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, store.NewMemory())
	dup, err := m.Duplicate(ctx, "builtin-0", "Mine")
	require.NoError(t, err)

	require.ErrorIs(t, m.DeleteTheme(ctx, "builtin-1"), ErrInvalidOperation)
	require.ErrorIs(t, m.DeleteTheme(ctx, "missing"), ErrNotFound)

	require.NoError(t, m.DeleteTheme(ctx, dup.ID))
	_, err = m.Theme(dup.ID)
	require.ErrorIs(t, err, ErrNotFound)
	require.Len(t, m.Themes(), 5)

	history := m.History()
	require.Equal(t, ActionDelete, history[len(history)-1].Action)

	reloaded := newTestManager(t, m.store)
	require.Len(t, reloaded.Themes(), 5)
}

func TestDeleteLastUserThemeRemovesKey(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	m := newTestManager(t, s)
	key := store.Key(m.tenant, themesKey)

	dup, err := m.Duplicate(ctx, "builtin-0", "Mine")
	require.NoError(t, err)
	_, err = s.Get(ctx, key)
	require.NoError(t, err)

	require.NoError(t, m.DeleteTheme(ctx, dup.ID))
	_, err = s.Get(ctx, key)
	require.ErrorIs(t, err, store.ErrNotFound)

	reloaded := newTestManager(t, s)
	require.Len(t, reloaded.Themes(), 5)
}

func TestDuplicate(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, store.NewMemory())
	source, err := m.Theme("builtin-2")
	require.NoError(t, err)

	dup, err := m.Duplicate(ctx, "builtin-2", "Copy")
	require.NoError(t, err)
	require.NotEqual(t, source.ID, dup.ID)
	require.Equal(t, "Copy", dup.Name)
	require.Equal(t, source.DesignTokens, dup.DesignTokens)
	require.Equal(t, source.Layout, dup.Layout)
	require.False(t, dup.IsBuiltIn)
	require.False(t, dup.IsDefault)
	require.False(t, dup.IsPublic)
	require.Equal(t, "builtin-2", dup.BasedOn)
	require.Equal(t, "builtin-0", m.ActiveID())

	named, err := m.Duplicate(ctx, "builtin-2", "")
	require.NoError(t, err)
	require.Equal(t, "Copy of Sunset Market", named.Name)

	_, err = m.Duplicate(ctx, "missing", "Copy")
	require.ErrorIs(t, err, ErrNotFound)
	_, err = m.Duplicate(ctx, "builtin-2", "Bad!")
	require.ErrorIs(t, err, ErrValidation)
	require.Len(t, m.Themes(), 7)
}

func TestDuplicate_IsDeepCopy(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, store.NewMemory())
	_, err := m.GenerateShades(models.SlotPrimary, "#0D47A1")
	require.NoError(t, err)
	committed, err := m.CommitDraft(ctx)
	require.NoError(t, err)

	dup, err := m.Duplicate(ctx, committed.ID, "Copy")
	require.NoError(t, err)
	dup.Colors.Primary.Shades.S50 = "#000000"

	again, err := m.Theme(committed.ID)
	require.NoError(t, err)
	require.NotEqual(t, "#000000", again.Colors.Primary.Shades.S50)
}

func TestCreateTheme(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, store.NewMemory())

	theme, err := m.CreateTheme(ctx, "Fresh Start")
	require.NoError(t, err)
	require.Equal(t, "Fresh Start", theme.Name)
	require.False(t, theme.IsBuiltIn)
	require.Empty(t, theme.BasedOn)
	require.Equal(t, "#0D47A1", theme.Colors.Primary.Hex())
	require.Equal(t, ActionCreate, m.History()[0].Action)

	_, err = m.CreateTheme(ctx, "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestResetToDefault(t *testing.T) {
	ctx := context.Background()

	t.Run("built_in_without_draft", func(t *testing.T) {
		m := newTestManager(t, store.NewMemory())
		_, err := m.ResetToDefault(ctx, "builtin-0")
		require.ErrorIs(t, err, ErrInvalidOperation)
		require.Empty(t, m.History())
	})

	t.Run("built_in_with_draft", func(t *testing.T) {
		m := newTestManager(t, store.NewMemory())
		_, err := m.UpdateDraft(primaryPatch("#FF0000"))
		require.NoError(t, err)

		theme, err := m.ResetToDefault(ctx, "builtin-0")
		require.NoError(t, err)
		require.Equal(t, "#0D47A1", theme.Colors.Primary.Hex())
		require.False(t, m.IsPreviewMode())
	})

	t.Run("user_theme_restores_saved", func(t *testing.T) {
		m := newTestManager(t, store.NewMemory())
		dup, err := m.Duplicate(ctx, "builtin-0", "Mine")
		require.NoError(t, err)
		_, err = m.SelectActive(ctx, dup.ID)
		require.NoError(t, err)
		_, err = m.UpdateDraft(primaryPatch("#FF0000"))
		require.NoError(t, err)

		theme, err := m.ResetToDefault(ctx, dup.ID)
		require.NoError(t, err)
		require.Equal(t, dup, theme)
		require.False(t, m.IsPreviewMode())
		require.Equal(t, dup, m.Effective())
	})

	t.Run("not_found", func(t *testing.T) {
		m := newTestManager(t, store.NewMemory())
		_, err := m.ResetToDefault(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)
	})
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, store.NewMemory())
	original, err := m.Theme("builtin-0")
	require.NoError(t, err)

	blob, err := m.ExportSnapshot("builtin-0")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(blob, &doc))
	require.Equal(t, FormatVersion, doc["formatVersion"])
	require.Contains(t, doc, "exportedAt")

	imported, err := m.ImportSnapshot(ctx, blob)
	require.NoError(t, err)
	require.NotEqual(t, original.ID, imported.ID)
	require.Equal(t, original.DesignTokens, imported.DesignTokens)
	require.Equal(t, original.Layout, imported.Layout)
	require.False(t, imported.IsBuiltIn)
	require.False(t, imported.IsDefault)
	require.Equal(t, ActionImport, m.History()[0].Action)

	_, err = m.ExportSnapshot("missing")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestImportSnapshot_Rejects(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t, store.NewMemory())
	valid, err := m.ExportSnapshot("builtin-1")
	require.NoError(t, err)

	mutate := func(fn func(doc map[string]any)) []byte {
		var doc map[string]any
		require.NoError(t, json.Unmarshal(valid, &doc))
		fn(doc)
		out, err := json.Marshal(doc)
		require.NoError(t, err)
		return out
	}

	tests := []struct {
		name  string
		blob  []byte
		field string
	}{
		{name: "not_json", blob: []byte("{"), field: "snapshot"},
		{name: "array", blob: []byte("[]"), field: "snapshot"},
		{name: "missing_theme", blob: mutate(func(d map[string]any) { delete(d, "theme") }), field: "theme"},
		{name: "missing_version", blob: mutate(func(d map[string]any) { delete(d, "formatVersion") }), field: "formatVersion"},
		{name: "null_exported_at", blob: mutate(func(d map[string]any) { d["exportedAt"] = nil }), field: "exportedAt"},
		{name: "bad_exported_at", blob: mutate(func(d map[string]any) { d["exportedAt"] = "yesterday" }), field: "exportedAt"},
		{name: "future_major", blob: mutate(func(d map[string]any) { d["formatVersion"] = "2.0" }), field: "formatVersion"},
		{name: "extra_field", blob: mutate(func(d map[string]any) { d["signature"] = "x" }), field: "signature"},
		{name: "unknown_theme_field", blob: mutate(func(d map[string]any) {
			d["theme"].(map[string]any)["marketplace"] = true
		}), field: "theme"},
		{name: "bad_color", blob: mutate(func(d map[string]any) {
			d["theme"].(map[string]any)["colors"].(map[string]any)["primary"] = "green"
		}), field: "colors.primary"},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			before := m.Themes()
			_, err := m.ImportSnapshot(ctx, test.blob)
			require.ErrorIs(t, err, ErrValidation)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			require.Equal(t, test.field, vErr.Field)
			require.Equal(t, before, m.Themes())
		})
	}
}

func TestImportSnapshot_MinorVersionAccepted(t *testing.T) {
	m := newTestManager(t, store.NewMemory())
	blob, err := m.ExportSnapshot("builtin-1")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(blob, &doc))
	doc["formatVersion"] = "1.3"
	theme := doc["theme"].(map[string]any)
	theme["isBuiltIn"] = true
	theme["isDefault"] = true
	blob, err = json.Marshal(doc)
	require.NoError(t, err)

	imported, err := m.ImportSnapshot(context.Background(), blob)
	require.NoError(t, err)
	require.False(t, imported.IsBuiltIn)
	require.False(t, imported.IsDefault)
}
