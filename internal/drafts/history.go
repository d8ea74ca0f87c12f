package drafts

import (
	"time"

	"github.com/codr1/themestudio/internal/models"
)

// DefaultHistoryLimit is the number of entries kept when no limit is configured.
const DefaultHistoryLimit = 50

type Action string

const (
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
	ActionApply     Action = "apply"
	ActionDuplicate Action = "duplicate"
	ActionImport    Action = "import"
	ActionExport    Action = "export"
	ActionPublish   Action = "publish"
)

// HistoryEntry is an immutable snapshot recorded after an action.
type HistoryEntry struct {
	At          time.Time            `json:"at"`
	Action      Action               `json:"action"`
	Theme       models.ThemeConfig   `json:"theme"`
	Description string               `json:"description"`
	Changes     []models.FieldChange `json:"changes,omitempty"`

	state    sessionState
	revision *catalogRevision
}

// catalogRevision is an in-place catalog replacement made by an entry. Undoing the entry
// reinstalls before; redoing it reinstalls after.
type catalogRevision struct {
	before models.ThemeConfig
	after  models.ThemeConfig
}

// sessionState is the editor position an entry restores: the active theme id and the
// open draft, if any.
type sessionState struct {
	activeID string
	preview  *models.ThemeConfig
}

func (s sessionState) clone() sessionState {
	out := sessionState{activeID: s.activeID}
	if s.preview != nil {
		preview := s.preview.Clone()
		out.preview = &preview
	}
	return out
}

func (e HistoryEntry) clone() HistoryEntry {
	out := e
	out.Theme = e.Theme.Clone()
	out.Changes = append([]models.FieldChange(nil), e.Changes...)
	out.state = e.state.clone()
	if e.revision != nil {
		out.revision = &catalogRevision{before: e.revision.before.Clone(), after: e.revision.after.Clone()}
	}
	return out
}

// history is a bounded list of snapshots plus a cursor. Cursor -1 is the baseline, the
// state before the oldest retained entry.
type history struct {
	limit    int
	entries  []HistoryEntry
	cursor   int
	baseline sessionState
}

func newHistory(limit int) *history {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &history{limit: limit, cursor: -1}
}

func (h *history) reset(baseline sessionState) {
	h.entries = nil
	h.cursor = -1
	h.baseline = baseline.clone()
}

// push drops any redo tail, appends entry and evicts the oldest entries beyond the limit.
// An evicted entry becomes the new baseline.
func (h *history) push(entry HistoryEntry) {
	h.entries = append(h.entries[:h.cursor+1], entry.clone())
	for len(h.entries) > h.limit {
		h.baseline = h.entries[0].state.clone()
		h.entries[0] = HistoryEntry{}
		h.entries = h.entries[1:]
	}
	h.cursor = len(h.entries) - 1
}

func (h *history) canUndo() bool {
	return h.cursor >= 0
}

func (h *history) canRedo() bool {
	return h.cursor < len(h.entries)-1
}

// stateAt returns the session state recorded at cursor position pos.
func (h *history) stateAt(pos int) sessionState {
	if pos < 0 {
		return h.baseline.clone()
	}
	return h.entries[pos].state.clone()
}

// catalogChange returns the catalog entry to reinstall when the cursor steps from one
// position to the adjacent one, if the entry crossed replaced a theme in place.
func (h *history) catalogChange(from, to int) (models.ThemeConfig, bool) {
	var rev *catalogRevision
	if to < from {
		rev = h.entries[from].revision
	} else {
		rev = h.entries[to].revision
	}
	switch {
	case rev == nil:
		return models.ThemeConfig{}, false
	case to < from:
		return rev.before.Clone(), true
	default:
		return rev.after.Clone(), true
	}
}

func (h *history) snapshot() []HistoryEntry {
	out := make([]HistoryEntry, len(h.entries))
	for i, entry := range h.entries {
		out[i] = entry.clone()
	}
	return out
}
