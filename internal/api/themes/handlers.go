// internal/api/themes/handlers.go
package themes

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/themestudio/internal/api/apiutil"
	"github.com/codr1/themestudio/internal/drafts"
	"github.com/codr1/themestudio/internal/models"
	"github.com/codr1/themestudio/internal/render"
)

const (
	themeQueryTimeout = 5 * time.Second
	themeIDParam      = "id"
)

var filenameUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Sessions hands out the draft manager for a tenant.
type Sessions interface {
	Get(ctx context.Context, tenant string) (*drafts.Manager, error)
}

type Handlers struct {
	sessions Sessions
}

func NewHandlers(sessions Sessions) *Handlers {
	return &Handlers{sessions: sessions}
}

type selectActiveRequest struct {
	ThemeID string `json:"themeId"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type shadesRequest struct {
	Slot string `json:"slot"`
	Base string `json:"base"`
}

type sessionResponse struct {
	Effective   models.ThemeConfig `json:"effective"`
	ActiveID    string             `json:"activeId"`
	PreviewMode bool               `json:"previewMode"`
	CanUndo     bool               `json:"canUndo"`
	CanRedo     bool               `json:"canRedo"`
	Warnings    []string           `json:"warnings"`
}

type listResponse struct {
	Themes      []drafts.CatalogEntry `json:"themes"`
	ActiveID    string                `json:"activeId"`
	PreviewMode bool                  `json:"previewMode"`
	CanUndo     bool                  `json:"canUndo"`
	CanRedo     bool                  `json:"canRedo"`
}

type historyResponse struct {
	Entries []drafts.HistoryEntry `json:"entries"`
	Cursor  int                   `json:"cursor"`
	CanUndo bool                  `json:"canUndo"`
	CanRedo bool                  `json:"canRedo"`
}

type moveResponse struct {
	Moved bool `json:"moved"`
	sessionResponse
}

// Register mounts the theme routes on mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/v1/themes", h.HandleList)
	mux.HandleFunc("POST /api/v1/themes", h.HandleCreate)
	mux.HandleFunc("GET /api/v1/themes/effective", h.HandleEffective)
	mux.HandleFunc("GET /api/v1/themes/effective/css", h.HandleEffectiveCSS)
	mux.HandleFunc("POST /api/v1/themes/active", h.HandleSelectActive)
	mux.HandleFunc("PATCH /api/v1/themes/draft", h.HandleUpdateDraft)
	mux.HandleFunc("DELETE /api/v1/themes/draft", h.HandleDiscardDraft)
	mux.HandleFunc("POST /api/v1/themes/draft/shades", h.HandleGenerateShades)
	mux.HandleFunc("POST /api/v1/themes/draft/commit", h.HandleCommitDraft)
	mux.HandleFunc("POST /api/v1/themes/undo", h.HandleUndo)
	mux.HandleFunc("POST /api/v1/themes/redo", h.HandleRedo)
	mux.HandleFunc("GET /api/v1/themes/history", h.HandleHistory)
	mux.HandleFunc("POST /api/v1/themes/import", h.HandleImport)
	mux.HandleFunc("GET /api/v1/themes/{id}", h.HandleDetail)
	mux.HandleFunc("DELETE /api/v1/themes/{id}", h.HandleDelete)
	mux.HandleFunc("POST /api/v1/themes/{id}/reset", h.HandleReset)
	mux.HandleFunc("POST /api/v1/themes/{id}/duplicate", h.HandleDuplicate)
	mux.HandleFunc("GET /api/v1/themes/{id}/export", h.HandleExport)
}

func (h *Handlers) manager(w http.ResponseWriter, r *http.Request) (*drafts.Manager, bool) {
	m, err := h.sessions.Get(r.Context(), apiutil.TenantFromContext(r.Context()))
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to open theme session")
		return nil, false
	}
	return m, true
}

func newSessionResponse(m *drafts.Manager) sessionResponse {
	return sessionResponseFrom(m.State())
}

func sessionResponseFrom(state drafts.SessionState) sessionResponse {
	warnings := state.Effective.ContrastWarnings()
	if warnings == nil {
		warnings = []string{}
	}
	return sessionResponse{
		Effective:   state.Effective,
		ActiveID:    state.ActiveID,
		PreviewMode: state.PreviewMode,
		CanUndo:     state.CanUndo,
		CanRedo:     state.CanRedo,
		Warnings:    warnings,
	}
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, payload any) {
	if err := apiutil.WriteJSON(w, status, payload); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write theme response")
	}
}

func themeIDFromRequest(r *http.Request) (string, error) {
	return apiutil.RequiredField(r.PathValue(themeIDParam), "theme id")
}

// GET /api/v1/themes
func (h *Handlers) HandleList(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r)
	if !ok {
		return
	}
	themes, state := m.CatalogState()
	writeJSON(w, r, http.StatusOK, listResponse{
		Themes:      themes,
		ActiveID:    state.ActiveID,
		PreviewMode: state.PreviewMode,
		CanUndo:     state.CanUndo,
		CanRedo:     state.CanRedo,
	})
}

// POST /api/v1/themes
func (h *Handlers) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req nameRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err), "Invalid create request")
		return
	}
	m, ok := h.manager(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), themeQueryTimeout)
	defer cancel()

	theme, err := m.CreateTheme(ctx, req.Name)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to create theme")
		return
	}
	writeJSON(w, r, http.StatusCreated, theme)
}

// GET /api/v1/themes/{id}
func (h *Handlers) HandleDetail(w http.ResponseWriter, r *http.Request) {
	themeID, err := themeIDFromRequest(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err), "Invalid theme ID")
		return
	}
	m, ok := h.manager(w, r)
	if !ok {
		return
	}
	theme, err := m.Theme(themeID)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to load theme")
		return
	}
	writeJSON(w, r, http.StatusOK, theme)
}

// GET /api/v1/themes/effective
func (h *Handlers) HandleEffective(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r)
	if !ok {
		return
	}
	writeJSON(w, r, http.StatusOK, newSessionResponse(m))
}

// GET /api/v1/themes/effective/css
func (h *Handlers) HandleEffectiveCSS(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r)
	if !ok {
		return
	}
	css := render.CSSVariables(m.Effective(), m.DefaultTheme())

	w.Header().Set("Content-Type", "text/css; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(css)); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to write theme CSS")
	}
}

// POST /api/v1/themes/active
func (h *Handlers) HandleSelectActive(w http.ResponseWriter, r *http.Request) {
	var req selectActiveRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err), "Invalid select request")
		return
	}
	themeID, err := apiutil.RequiredField(req.ThemeID, "themeId")
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err), "Invalid select request")
		return
	}
	m, ok := h.manager(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), themeQueryTimeout)
	defer cancel()

	if _, err := m.SelectActive(ctx, themeID); err != nil {
		apiutil.WriteError(w, r, err, "Failed to select active theme")
		return
	}
	writeJSON(w, r, http.StatusOK, newSessionResponse(m))
}

// PATCH /api/v1/themes/draft
func (h *Handlers) HandleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	var patch models.Patch
	if err := apiutil.DecodeJSON(r, &patch); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err), "Invalid draft patch")
		return
	}
	m, ok := h.manager(w, r)
	if !ok {
		return
	}
	if _, err := m.UpdateDraft(patch); err != nil {
		apiutil.WriteError(w, r, err, "Failed to update draft")
		return
	}
	writeJSON(w, r, http.StatusOK, newSessionResponse(m))
}

// DELETE /api/v1/themes/draft
func (h *Handlers) HandleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r)
	if !ok {
		return
	}
	m.DiscardDraft()
	writeJSON(w, r, http.StatusOK, newSessionResponse(m))
}

// POST /api/v1/themes/draft/shades
func (h *Handlers) HandleGenerateShades(w http.ResponseWriter, r *http.Request) {
	var req shadesRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err), "Invalid shades request")
		return
	}
	m, ok := h.manager(w, r)
	if !ok {
		return
	}
	if _, err := m.GenerateShades(models.ColorSlot(strings.TrimSpace(req.Slot)), strings.TrimSpace(req.Base)); err != nil {
		apiutil.WriteError(w, r, err, "Failed to generate shades")
		return
	}
	writeJSON(w, r, http.StatusOK, newSessionResponse(m))
}

// POST /api/v1/themes/draft/commit
func (h *Handlers) HandleCommitDraft(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), themeQueryTimeout)
	defer cancel()

	if _, err := m.CommitDraft(ctx); err != nil {
		apiutil.WriteError(w, r, err, "Failed to commit draft")
		return
	}
	writeJSON(w, r, http.StatusOK, newSessionResponse(m))
}

// POST /api/v1/themes/undo
func (h *Handlers) HandleUndo(w http.ResponseWriter, r *http.Request) {
	h.handleMove(w, r, (*drafts.Manager).Undo, "Failed to undo")
}

// POST /api/v1/themes/redo
func (h *Handlers) HandleRedo(w http.ResponseWriter, r *http.Request) {
	h.handleMove(w, r, (*drafts.Manager).Redo, "Failed to redo")
}

func (h *Handlers) handleMove(w http.ResponseWriter, r *http.Request, move func(*drafts.Manager, context.Context) (bool, error), logMessage string) {
	m, ok := h.manager(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), themeQueryTimeout)
	defer cancel()

	moved, err := move(m, ctx)
	if err != nil {
		apiutil.WriteError(w, r, err, logMessage)
		return
	}
	writeJSON(w, r, http.StatusOK, moveResponse{Moved: moved, sessionResponse: newSessionResponse(m)})
}

// GET /api/v1/themes/history
func (h *Handlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	m, ok := h.manager(w, r)
	if !ok {
		return
	}
	entries, cursor := m.HistoryState()
	writeJSON(w, r, http.StatusOK, historyResponse{
		Entries: entries,
		Cursor:  cursor,
		CanUndo: cursor >= 0,
		CanRedo: cursor < len(entries)-1,
	})
}

// POST /api/v1/themes/{id}/reset
func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request) {
	themeID, err := themeIDFromRequest(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err), "Invalid theme ID")
		return
	}
	m, ok := h.manager(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), themeQueryTimeout)
	defer cancel()

	if _, err := m.ResetToDefault(ctx, themeID); err != nil {
		apiutil.WriteError(w, r, err, "Failed to reset theme")
		return
	}
	writeJSON(w, r, http.StatusOK, newSessionResponse(m))
}

// POST /api/v1/themes/{id}/duplicate
func (h *Handlers) HandleDuplicate(w http.ResponseWriter, r *http.Request) {
	themeID, err := themeIDFromRequest(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err), "Invalid theme ID")
		return
	}
	var req nameRequest
	if r.ContentLength != 0 {
		if err := apiutil.DecodeJSON(r, &req); err != nil {
			apiutil.WriteError(w, r, apiutil.BadRequest(err), "Invalid duplicate request")
			return
		}
	}
	m, ok := h.manager(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), themeQueryTimeout)
	defer cancel()

	theme, err := m.Duplicate(ctx, themeID, req.Name)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to duplicate theme")
		return
	}
	writeJSON(w, r, http.StatusCreated, theme)
}

// DELETE /api/v1/themes/{id}
func (h *Handlers) HandleDelete(w http.ResponseWriter, r *http.Request) {
	themeID, err := themeIDFromRequest(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err), "Invalid theme ID")
		return
	}
	m, ok := h.manager(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), themeQueryTimeout)
	defer cancel()

	if err := m.DeleteTheme(ctx, themeID); err != nil {
		apiutil.WriteError(w, r, err, "Failed to delete theme")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/themes/{id}/export
func (h *Handlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	themeID, err := themeIDFromRequest(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err), "Invalid theme ID")
		return
	}
	m, ok := h.manager(w, r)
	if !ok {
		return
	}

	theme, err := m.Theme(themeID)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to export theme")
		return
	}
	data, err := m.ExportSnapshot(themeID)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to export theme")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, exportFilename(theme.Name)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.Ctx(r.Context()).Error().Err(err).Str("theme_id", themeID).Msg("Failed to write theme export")
	}
}

// POST /api/v1/themes/import
func (h *Handlers) HandleImport(w http.ResponseWriter, r *http.Request) {
	blob, err := apiutil.ReadBody(r)
	if err != nil {
		apiutil.WriteError(w, r, apiutil.BadRequest(err), "Invalid import body")
		return
	}
	m, ok := h.manager(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), themeQueryTimeout)
	defer cancel()

	theme, err := m.ImportSnapshot(ctx, blob)
	if err != nil {
		apiutil.WriteError(w, r, err, "Failed to import theme")
		return
	}
	writeJSON(w, r, http.StatusCreated, theme)
}

func exportFilename(name string) string {
	slug := strings.Trim(filenameUnsafe.ReplaceAllString(strings.ToLower(name), "-"), "-")
	if slug == "" {
		slug = "theme"
	}
	return slug + ".theme.json"
}
