package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmylchreest/azkar/internal/model"
)

const appName = "azkar"

// DataDir returns the path to the azkar data directory.
// Uses XDG_DATA_HOME or defaults to ~/.local/share/azkar.
func DataDir() (string, error) {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, appName), nil
}

// StatePath returns the path to the scheduler state file.
func StatePath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "azkar_data.json"), nil
}

// HistoryPath returns the path to the firing history file.
func HistoryPath() (string, error) {
	dataDir, err := DataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dataDir, "history.jsonl"), nil
}

// Persistence is the durable mirror of the scheduler state.
type Persistence interface {
	// Load decodes the stored state onto defaults, so fields missing from
	// storage keep their default values. A missing file returns an error
	// wrapping os.ErrNotExist.
	Load(defaults model.SchedulerState) (model.SchedulerState, error)

	// Save replaces the stored state.
	Save(state model.SchedulerState) error
}

// JSONPersistence stores the state as a single indented JSON document.
type JSONPersistence struct {
	path string
}

// NewJSONPersistence creates a JSONPersistence for path, creating the parent
// directory if needed.
func NewJSONPersistence(path string) (*JSONPersistence, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return &JSONPersistence{path: path}, nil
}

// Path returns the state file path.
func (p *JSONPersistence) Path() string {
	return p.path
}

// Load reads the state file.
func (p *JSONPersistence) Load(defaults model.SchedulerState) (model.SchedulerState, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return defaults, err
	}

	state := defaults.Clone()
	if err := json.Unmarshal(data, &state); err != nil {
		return defaults, fmt.Errorf("decode %s: %w", p.path, err)
	}
	return state, nil
}

// Save writes the state atomically via a temp file and rename.
func (p *JSONPersistence) Save(state model.SchedulerState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmpPath := p.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return err
	}

	if err := os.Rename(tmpPath, p.path); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	return nil
}
