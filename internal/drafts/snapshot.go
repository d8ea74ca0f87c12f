package drafts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/codr1/themestudio/internal/models"
)

// FormatVersion is written into every export. Imports accept any 1.x document.
const FormatVersion = "1.0"

// Snapshot is the transport document for a single theme.
type Snapshot struct {
	Theme         models.ThemeConfig `json:"theme"`
	ExportedAt    time.Time          `json:"exportedAt"`
	FormatVersion string             `json:"formatVersion"`
}

var snapshotFields = []string{"theme", "exportedAt", "formatVersion"}

// ExportSnapshot serialises the catalog theme at id.
func (m *Manager) ExportSnapshot(id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(); err != nil {
		return nil, err
	}
	theme, err := m.find(id)
	if err != nil {
		return nil, err
	}

	data, err := json.MarshalIndent(Snapshot{
		Theme:         theme,
		ExportedAt:    m.now(),
		FormatVersion: FormatVersion,
	}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}

	m.logger.Debug().Str("theme_id", id).Str("action", string(ActionExport)).Msg("Exported theme")
	return data, nil
}

// ImportSnapshot adds the theme carried by an exported document as a new private user
// theme. Provenance flags in the document are ignored.
func (m *Manager) ImportSnapshot(ctx context.Context, blob []byte) (models.ThemeConfig, error) {
	snapshot, err := DecodeSnapshot(blob)
	if err != nil {
		return models.ThemeConfig{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureLoaded(); err != nil {
		return models.ThemeConfig{}, err
	}

	theme := m.newUserTheme(snapshot.Theme, snapshot.Theme.Name)
	theme.BasedOn = ""
	if err := theme.Validate(); err != nil {
		return models.ThemeConfig{}, asValidation(err)
	}
	return m.addUserTheme(ctx, ActionImport, theme, fmt.Sprintf("Imported %s", theme.Name))
}

// DecodeSnapshot parses and checks an exported document without touching any session.
func DecodeSnapshot(blob []byte) (Snapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(blob, &fields); err != nil {
		return Snapshot{}, &ValidationError{Field: "snapshot", Reason: "must be a JSON object"}
	}
	for _, name := range snapshotFields {
		raw, ok := fields[name]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return Snapshot{}, &ValidationError{Field: name, Reason: "is required"}
		}
	}
	for name := range fields {
		if !isSnapshotField(name) {
			return Snapshot{}, &ValidationError{Field: name, Reason: "is not a snapshot field"}
		}
	}

	var version string
	if err := json.Unmarshal(fields["formatVersion"], &version); err != nil {
		return Snapshot{}, &ValidationError{Field: "formatVersion", Reason: "must be a string"}
	}
	if err := checkFormatVersion(version); err != nil {
		return Snapshot{}, err
	}

	var exportedAt time.Time
	if err := json.Unmarshal(fields["exportedAt"], &exportedAt); err != nil {
		return Snapshot{}, &ValidationError{Field: "exportedAt", Reason: "must be an RFC 3339 timestamp"}
	}

	var doc map[string]any
	if err := json.Unmarshal(fields["theme"], &doc); err != nil {
		return Snapshot{}, &ValidationError{Field: "theme", Reason: "must be a JSON object"}
	}
	theme, err := models.DecodeTheme(doc)
	if err != nil {
		return Snapshot{}, asValidation(err)
	}

	return Snapshot{Theme: theme, ExportedAt: exportedAt, FormatVersion: version}, nil
}

func isSnapshotField(name string) bool {
	for _, field := range snapshotFields {
		if field == name {
			return true
		}
	}
	return false
}

func checkFormatVersion(version string) error {
	major, _, _ := strings.Cut(strings.TrimSpace(version), ".")
	wantMajor, _, _ := strings.Cut(FormatVersion, ".")
	if major == "" {
		return &ValidationError{Field: "formatVersion", Reason: "is required"}
	}
	if major != wantMajor {
		return &ValidationError{
			Field:  "formatVersion",
			Reason: fmt.Sprintf("%q is not compatible with %s", version, FormatVersion),
		}
	}
	return nil
}
