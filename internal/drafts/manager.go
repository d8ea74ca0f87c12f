// Package drafts owns a tenant's theme editing session: the catalog of known themes, the
// active theme, an optional draft layered over it and a bounded undo/redo history.
package drafts

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/codr1/themestudio/internal/catalog"
	"github.com/codr1/themestudio/internal/models"
	"github.com/codr1/themestudio/internal/store"
)

const (
	themesKey = "themes"
	activeKey = "active"
)

// Clock interface for testing time-dependent behavior.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

// Option configures a Manager.
type Option func(*Manager)

// WithTenant scopes every persisted key to tenant.
func WithTenant(tenant string) Option {
	return func(m *Manager) { m.tenant = tenant }
}

// WithHistoryLimit caps the number of retained history entries.
func WithHistoryLimit(limit int) Option {
	return func(m *Manager) { m.history = newHistory(limit) }
}

func WithClock(clock Clock) Option {
	return func(m *Manager) { m.clock = clock }
}

// WithIDGenerator replaces the generator used for new user theme ids.
func WithIDGenerator(fn func() string) Option {
	return func(m *Manager) { m.newID = fn }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(m *Manager) { m.logger = logger }
}

// WithCatalog replaces the embedded built-in catalog.
func WithCatalog(c *catalog.Catalog) Option {
	return func(m *Manager) { m.builtins = c }
}

// CatalogEntry is a known theme and whether it is the active one.
type CatalogEntry struct {
	models.ThemeConfig
	IsActive bool `json:"isActive"`
}

// Manager mediates every read and write of a session's themes. All methods are safe for
// concurrent use; the model is still a single editor per session.
type Manager struct {
	mu sync.Mutex

	store    store.Store
	builtins *catalog.Catalog
	tenant   string
	clock    Clock
	newID    func() string
	logger   zerolog.Logger

	loaded   bool
	themes   []models.ThemeConfig
	activeID string
	preview  *models.ThemeConfig
	history  *history
}

// New builds a Manager over s. LoadCatalog must be called before editing.
func New(s store.Store, opts ...Option) *Manager {
	m := &Manager{
		store:   s,
		clock:   realClock{},
		newID:   func() string { return "custom-" + uuid.NewString() },
		logger:  log.Logger,
		history: newHistory(DefaultHistoryLimit),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.builtins == nil {
		m.builtins = catalog.MustBuiltin()
	}
	m.logger = m.logger.With().Str("tenant", m.Tenant()).Logger()
	return m
}

// DefaultTheme returns the default built-in theme, used to fill empty slots when rendering.
func (m *Manager) DefaultTheme() models.ThemeConfig {
	return m.builtins.Default()
}

// Tenant returns the scope used for persisted keys.
func (m *Manager) Tenant() string {
	if m.tenant == "" {
		return "default"
	}
	return m.tenant
}

// LoadCatalog populates the catalog from the built-in themes and the tenant's stored
// themes, then restores the previously active theme. It does nothing once loaded.
func (m *Manager) LoadCatalog(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return nil
	}

	themes := m.builtins.Themes()
	userThemes, err := m.readUserThemes(ctx)
	if err != nil {
		return err
	}
	seen := map[string]bool{}
	for _, theme := range themes {
		seen[theme.ID] = true
	}
	for _, theme := range userThemes {
		if seen[theme.ID] {
			m.logger.Warn().Str("theme_id", theme.ID).Msg("Skipping stored theme with duplicate id")
			continue
		}
		seen[theme.ID] = true
		themes = append(themes, theme)
	}

	activeID, err := m.readActiveID(ctx)
	if err != nil {
		return err
	}
	if !seen[activeID] {
		activeID = defaultActiveID(themes)
	}

	m.themes = themes
	m.activeID = activeID
	m.preview = nil
	m.history.reset(sessionState{activeID: activeID})
	m.loaded = true

	m.logger.Debug().
		Int("themes", len(themes)).
		Int("user_themes", len(themes)-m.builtins.Len()).
		Str("active_id", activeID).
		Msg("Loaded theme catalog")
	return nil
}

func defaultActiveID(themes []models.ThemeConfig) string {
	for _, theme := range themes {
		if theme.IsBuiltIn && theme.IsDefault {
			return theme.ID
		}
	}
	if len(themes) == 0 {
		return ""
	}
	return themes[0].ID
}

func (m *Manager) readUserThemes(ctx context.Context) ([]models.ThemeConfig, error) {
	data, err := m.store.Get(ctx, store.Key(m.tenant, themesKey))
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load user themes: %w", err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		m.logger.Warn().Err(err).Msg("Ignoring unreadable stored themes")
		return nil, nil
	}

	themes := make([]models.ThemeConfig, 0, len(raw))
	for i, item := range raw {
		var theme models.ThemeConfig
		if err := json.Unmarshal(item, &theme); err != nil {
			m.logger.Warn().Err(err).Int("index", i).Msg("Ignoring unreadable stored theme")
			continue
		}
		theme.IsBuiltIn = false
		theme.IsDefault = false
		if err := theme.Validate(); err != nil {
			m.logger.Warn().Err(err).Str("theme_id", theme.ID).Msg("Ignoring invalid stored theme")
			continue
		}
		themes = append(themes, theme)
	}
	return themes, nil
}

func (m *Manager) readActiveID(ctx context.Context) (string, error) {
	data, err := m.store.Get(ctx, store.Key(m.tenant, activeKey))
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load active theme: %w", err)
	}
	var id string
	if err := json.Unmarshal(data, &id); err != nil {
		m.logger.Warn().Err(err).Msg("Ignoring unreadable active theme id")
		return "", nil
	}
	return id, nil
}

// persist writes the user themes and, when it changed, the active id. If the second write
// fails the first is rolled back so the store matches memory.
func (m *Manager) persist(ctx context.Context, themes []models.ThemeConfig, activeID string) error {
	themesChanged := themes != nil
	if themesChanged {
		if err := m.writeUserThemes(ctx, themes); err != nil {
			return err
		}
	}
	if activeID != m.activeID {
		if err := m.writeActiveID(ctx, activeID); err != nil {
			if themesChanged {
				if rbErr := m.writeUserThemes(ctx, m.themes); rbErr != nil {
					m.logger.Error().Err(rbErr).Msg("Failed to roll back user themes")
				}
			}
			return err
		}
	}
	return nil
}

func (m *Manager) writeUserThemes(ctx context.Context, themes []models.ThemeConfig) error {
	user := make([]models.ThemeConfig, 0, len(themes))
	for _, theme := range themes {
		if !theme.IsBuiltIn {
			user = append(user, theme)
		}
	}
	key := store.Key(m.tenant, themesKey)
	if len(user) == 0 {
		if err := m.store.Remove(ctx, key); err != nil {
			m.logger.Error().Err(err).Msg("Failed to remove user themes")
			return fmt.Errorf("remove user themes: %w", err)
		}
		return nil
	}
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("encode user themes: %w", err)
	}
	if err := m.store.Set(ctx, key, data); err != nil {
		m.logger.Error().Err(err).Msg("Failed to persist user themes")
		return fmt.Errorf("save user themes: %w", err)
	}
	return nil
}

func (m *Manager) writeActiveID(ctx context.Context, id string) error {
	data, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("encode active theme: %w", err)
	}
	if err := m.store.Set(ctx, store.Key(m.tenant, activeKey), data); err != nil {
		m.logger.Error().Err(err).Msg("Failed to persist active theme")
		return fmt.Errorf("save active theme: %w", err)
	}
	return nil
}

func (m *Manager) ensureLoaded() error {
	if !m.loaded {
		return invalidOperation("catalog not loaded")
	}
	return nil
}

func (m *Manager) indexOf(id string) int {
	for i, theme := range m.themes {
		if theme.ID == id {
			return i
		}
	}
	return -1
}

func (m *Manager) find(id string) (models.ThemeConfig, error) {
	i := m.indexOf(id)
	if i < 0 {
		return models.ThemeConfig{}, notFound(id)
	}
	return m.themes[i], nil
}

func (m *Manager) active() models.ThemeConfig {
	if i := m.indexOf(m.activeID); i >= 0 {
		return m.themes[i]
	}
	return models.ThemeConfig{}
}

func (m *Manager) effective() models.ThemeConfig {
	if m.preview != nil {
		return *m.preview
	}
	return m.active()
}

func (m *Manager) record(action Action, subject models.ThemeConfig, description string, changes []models.FieldChange) {
	m.history.push(m.newEntry(action, subject, description, changes))
}

func (m *Manager) newEntry(action Action, subject models.ThemeConfig, description string, changes []models.FieldChange) HistoryEntry {
	return HistoryEntry{
		At:          m.clock.Now(),
		Action:      action,
		Theme:       subject,
		Description: description,
		Changes:     changes,
		state:       sessionState{activeID: m.activeID, preview: m.preview},
	}
}

func (m *Manager) now() time.Time {
	return m.clock.Now().UTC()
}

// Effective returns what the render layer should show: the draft if one is open, else the
// active theme.
func (m *Manager) Effective() models.ThemeConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.effective().Clone()
}

func (m *Manager) Active() models.ThemeConfig {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active().Clone()
}

// Preview returns the open draft, if any.
func (m *Manager) Preview() (models.ThemeConfig, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.preview == nil {
		return models.ThemeConfig{}, false
	}
	return m.preview.Clone(), true
}

func (m *Manager) IsPreviewMode() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.preview != nil
}

func (m *Manager) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

// Themes lists the catalog in order: built-ins first, then user themes by creation.
func (m *Manager) Themes() []CatalogEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalog()
}

func (m *Manager) catalog() []CatalogEntry {
	out := make([]CatalogEntry, len(m.themes))
	for i, theme := range m.themes {
		out[i] = CatalogEntry{ThemeConfig: theme.Clone(), IsActive: theme.ID == m.activeID}
	}
	return out
}

// SessionState is a consistent copy of the session as seen by one reader.
type SessionState struct {
	Effective   models.ThemeConfig
	ActiveID    string
	PreviewMode bool
	CanUndo     bool
	CanRedo     bool
}

// State copies the session under a single lock.
func (m *Manager) State() SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state()
}

// CatalogState is State plus the catalog, taken together.
func (m *Manager) CatalogState() ([]CatalogEntry, SessionState) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.catalog(), m.state()
}

func (m *Manager) state() SessionState {
	return SessionState{
		Effective:   m.effective().Clone(),
		ActiveID:    m.activeID,
		PreviewMode: m.preview != nil,
		CanUndo:     m.history.canUndo(),
		CanRedo:     m.history.canRedo(),
	}
}

func (m *Manager) Theme(id string) (models.ThemeConfig, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	theme, err := m.find(id)
	if err != nil {
		return models.ThemeConfig{}, err
	}
	return theme.Clone(), nil
}

func (m *Manager) History() []HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.snapshot()
}

// HistoryState returns the history and its cursor taken together.
func (m *Manager) HistoryState() ([]HistoryEntry, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.snapshot(), m.history.cursor
}

func (m *Manager) Cursor() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.cursor
}

func (m *Manager) CanUndo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.canUndo()
}

func (m *Manager) CanRedo() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.history.canRedo()
}
