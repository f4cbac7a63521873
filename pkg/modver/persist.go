package modver

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/vk/modver/internal/ctxlog"
)

// stateFile is the on-disk form of a manager's registry.
type stateFile struct {
	Name          string         `json:"name"`
	ActiveVersion string         `json:"active_version"`
	Versions      []stateVersion `json:"versions"`
}

type stateVersion struct {
	Version  string         `json:"version"`
	Path     string         `json:"path"`
	IsMain   bool           `json:"is_main"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// DefaultStatePath returns the standard state file location for a package:
// ~/.modver/<name>.json.
func DefaultStatePath(name string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".modver", name+".json"), nil
}

// loadState restores the manager's registry from its state file. Called from
// NewManager before the manager is shared, so no locking. Any read or parse
// failure degrades to an empty registry with a warning.
func (m *Manager) loadState(ctx context.Context) {
	if m.statePath == "" {
		return
	}
	logger := ctxlog.FromContext(ctx)

	data, err := os.ReadFile(m.statePath)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to read state file; starting empty.",
				"package", m.name, "path", m.statePath, "error", err)
		}
		return
	}

	var st stateFile
	if err := json.Unmarshal(data, &st); err != nil {
		logger.Warn("Failed to parse state file; starting empty.",
			"package", m.name, "path", m.statePath, "error", err)
		return
	}

	for _, v := range st.Versions {
		if _, dup := m.index[v.Version]; dup {
			logger.Warn("Duplicate version label in state file; keeping the first.",
				"package", m.name, "version", v.Version)
			continue
		}
		rec := m.newRecord(v.Version, v.Path, v.IsMain, v.Metadata)
		m.records = append(m.records, rec)
		m.index[v.Version] = rec
		if m.watcher != nil && !rec.IsMain {
			m.watcher.add(rec)
		}
	}
	if _, ok := m.index[st.ActiveVersion]; ok {
		m.active = st.ActiveVersion
	}

	logger.Debug("Restored registry state.",
		"package", m.name, "versions", len(m.records), "active", m.active)
}

// saveState persists the registry. The caller holds m.mu. A save failure is
// a warning only: the in-memory mutation that triggered it stands.
func (m *Manager) saveState(ctx context.Context) {
	if m.statePath == "" {
		return
	}
	logger := ctxlog.FromContext(ctx)

	st := stateFile{
		Name:          m.name,
		ActiveVersion: m.active,
		Versions:      make([]stateVersion, 0, len(m.records)),
	}
	for _, rec := range m.records {
		st.Versions = append(st.Versions, stateVersion{
			Version:  rec.Version,
			Path:     rec.Path,
			IsMain:   rec.IsMain,
			Metadata: rec.Metadata,
		})
	}

	data, err := json.MarshalIndent(&st, "", "  ")
	if err != nil {
		logger.Warn("Failed to encode state.", "package", m.name, "error", err)
		return
	}

	if err := os.MkdirAll(filepath.Dir(m.statePath), 0o755); err != nil {
		logger.Warn("Failed to create state directory.",
			"package", m.name, "path", m.statePath, "error", err)
		return
	}

	// Write-then-rename so a crash mid-save never truncates the state file.
	tmp := m.statePath + ".tmp-" + uuid.NewString()
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		logger.Warn("Failed to write state file.",
			"package", m.name, "path", tmp, "error", err)
		return
	}
	if err := os.Rename(tmp, m.statePath); err != nil {
		logger.Warn("Failed to replace state file.",
			"package", m.name, "path", m.statePath, "error", err)
		_ = os.Remove(tmp)
	}
}
