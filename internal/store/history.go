package store

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmylchreest/azkar/internal/model"
)

// HistorySchemaVersion is the current history log schema version.
const HistorySchemaVersion = 1

// schemaHeader is the first line of the JSONL file.
type schemaHeader struct {
	AzkarSchemaVersion int   `json:"azkar_schema_version"`
	CreatedAt          int64 `json:"created_at"`
}

// HistoryLog is an append-only JSONL log of fired reminders.
type HistoryLog struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	closed bool

	// createFile opens the truncated replacement during Rewrite.
	createFile func(path string) (*os.File, error)
}

// ErrHistoryClosed is returned when operations are attempted on a closed history log.
var ErrHistoryClosed = errors.New("history log is closed")

// OpenHistoryLog opens or creates the history log at path.
func OpenHistoryLog(path string) (*HistoryLog, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}

	h := &HistoryLog{path: path, file: file, createFile: createTruncated}

	info, err := file.Stat()
	if err != nil {
		file.Close()
		return nil, err
	}
	if info.Size() == 0 {
		if err := h.writeHeader(); err != nil {
			file.Close()
			return nil, err
		}
	}

	return h, nil
}

func (h *HistoryLog) writeHeader() error {
	data, err := json.Marshal(schemaHeader{
		AzkarSchemaVersion: HistorySchemaVersion,
		CreatedAt:          time.Now().Unix(),
	})
	if err != nil {
		return err
	}
	_, err = h.file.Write(append(data, '\n'))
	return err
}

// Load reads all records, oldest first. Malformed lines are skipped.
func (h *HistoryLog) Load() ([]model.FiringRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || h.file == nil {
		return nil, ErrHistoryClosed
	}

	if _, err := h.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek %s: %w", h.path, err)
	}

	var records []model.FiringRecord
	scanner := bufio.NewScanner(h.file)
	const maxLineSize = 1024 * 1024 // 1MB
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		if lineNum == 1 {
			var header schemaHeader
			if err := json.Unmarshal(line, &header); err == nil && header.AzkarSchemaVersion > 0 {
				if header.AzkarSchemaVersion > HistorySchemaVersion {
					return nil, fmt.Errorf("unsupported history schema version %d (max: %d)",
						header.AzkarSchemaVersion, HistorySchemaVersion)
				}
				continue
			}
		}

		var r model.FiringRecord
		if err := json.Unmarshal(line, &r); err != nil || r.FiredAt == 0 {
			continue
		}
		records = append(records, r)
	}

	if err := scanner.Err(); err != nil {
		return records, fmt.Errorf("error reading file: %w", err)
	}

	// Seek back to end for appending
	if _, err := h.file.Seek(0, io.SeekEnd); err != nil {
		return records, err
	}

	return records, nil
}

// Append adds a record to the log.
func (h *HistoryLog) Append(r model.FiringRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || h.file == nil {
		return ErrHistoryClosed
	}

	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if _, err := h.file.Write(append(data, '\n')); err != nil {
		return err
	}
	return h.file.Sync()
}

// Rewrite replaces the log contents with records. The previous log is kept
// as <path>.bak until the new one is synced, and restored if writing fails.
func (h *HistoryLog) Rewrite(records []model.FiringRecord) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return ErrHistoryClosed
	}

	if h.file != nil {
		if err := h.file.Close(); err != nil {
			return err
		}
		h.file = nil
	}

	backupPath := h.path + ".bak"
	if err := os.Rename(h.path, backupPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to create backup: %w", err)
	}

	file, err := h.createFile(h.path)
	if err != nil {
		return errors.Join(fmt.Errorf("failed to create new file: %w", err), h.restoreLocked(backupPath))
	}
	h.file = file

	if err := h.writeAllLocked(records); err != nil {
		return errors.Join(fmt.Errorf("failed to rewrite history: %w", err), h.restoreLocked(backupPath))
	}

	_ = os.Remove(backupPath)
	return nil
}

func (h *HistoryLog) writeAllLocked(records []model.FiringRecord) error {
	if err := h.writeHeader(); err != nil {
		return err
	}
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return err
		}
		if _, err := h.file.Write(append(data, '\n')); err != nil {
			return err
		}
	}
	return h.file.Sync()
}

// restoreLocked puts the backup back in place and reopens it for appending.
func (h *HistoryLog) restoreLocked(backupPath string) error {
	if h.file != nil {
		_ = h.file.Close()
		h.file = nil
	}
	if err := os.Rename(backupPath, h.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to restore backup %s: %w", backupPath, err)
	}

	file, err := os.OpenFile(h.path, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to reopen %s: %w", h.path, err)
	}
	h.file = file
	return nil
}

func createTruncated(path string) (*os.File, error) {
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC|os.O_APPEND, 0600)
}

// Prune keeps only the newest keep records and returns how many were removed.
// A non-positive keep leaves the log untouched.
func (h *HistoryLog) Prune(keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}

	records, err := h.Load()
	if err != nil {
		return 0, err
	}
	if len(records) <= keep {
		return 0, nil
	}

	removed := len(records) - keep
	if err := h.Rewrite(records[removed:]); err != nil {
		return 0, err
	}
	return removed, nil
}

// Close releases the file handle.
func (h *HistoryLog) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	if h.file != nil {
		err := h.file.Close()
		h.file = nil
		return err
	}
	return nil
}
