package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/azkar/internal/model"
)

func testRecord(id string, firedAt int64) model.FiringRecord {
	return model.FiringRecord{ItemID: id, Text: "text " + id, FiredAt: firedAt}
}

func TestOpenHistoryLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "history.jsonl")

	h, err := OpenHistoryLog(path)
	require.NoError(t, err)
	defer h.Close()

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "azkar_schema_version")

	records, err := h.Load()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestHistoryLog_AppendAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	h, err := OpenHistoryLog(path)
	require.NoError(t, err)

	require.NoError(t, h.Append(testRecord("1", 100)))
	require.NoError(t, h.Append(testRecord("2", 200)))

	records, err := h.Load()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].ItemID)
	assert.Equal(t, int64(200), records[1].FiredAt)

	// Appending after a load still goes to the end
	require.NoError(t, h.Append(testRecord("3", 300)))
	require.NoError(t, h.Close())

	reopened, err := OpenHistoryLog(path)
	require.NoError(t, err)
	defer reopened.Close()
	records, err = reopened.Load()
	require.NoError(t, err)
	assert.Len(t, records, 3)
}

func TestHistoryLog_SkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	content := `{"azkar_schema_version":1,"created_at":1}
{"item_id":"1","text":"a","fired_at":10}
this is not json
{"item_id":"2","text":"b","fired_at":20}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	h, err := OpenHistoryLog(path)
	require.NoError(t, err)
	defer h.Close()

	records, err := h.Load()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "2", records[1].ItemID)
}

func TestHistoryLog_FutureSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"azkar_schema_version":99,"created_at":1}`+"\n"), 0600))

	h, err := OpenHistoryLog(path)
	require.NoError(t, err)
	defer h.Close()

	_, err = h.Load()
	assert.Error(t, err)
}

func TestHistoryLog_Prune(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.jsonl")
	h, err := OpenHistoryLog(path)
	require.NoError(t, err)
	defer h.Close()

	for i := range 10 {
		require.NoError(t, h.Append(testRecord(string(rune('a'+i)), int64(i+1))))
	}

	removed, err := h.Prune(3)
	require.NoError(t, err)
	assert.Equal(t, 7, removed)

	records, err := h.Load()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, int64(8), records[0].FiredAt)

	// Keep more than exist, or non-positive: untouched
	removed, err = h.Prune(10)
	require.NoError(t, err)
	assert.Zero(t, removed)
	removed, err = h.Prune(0)
	require.NoError(t, err)
	assert.Zero(t, removed)

	// Still appendable after rewrite
	require.NoError(t, h.Append(testRecord("z", 99)))
	records, err = h.Load()
	require.NoError(t, err)
	assert.Len(t, records, 4)

	_, err = os.Stat(path + ".bak")
	assert.True(t, os.IsNotExist(err))
}

func TestHistoryLog_Closed(t *testing.T) {
	h, err := OpenHistoryLog(filepath.Join(t.TempDir(), "history.jsonl"))
	require.NoError(t, err)
	require.NoError(t, h.Close())
	require.NoError(t, h.Close())

	assert.ErrorIs(t, h.Append(testRecord("1", 1)), ErrHistoryClosed)
	_, err = h.Load()
	assert.ErrorIs(t, err, ErrHistoryClosed)
}

func TestPaths(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg-data")

	dir, err := DataDir()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg-data/azkar", dir)

	statePath, err := StatePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg-data/azkar/azkar_data.json", statePath)

	historyPath, err := HistoryPath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/xdg-data/azkar/history.jsonl", historyPath)
}

func TestJSONPersistence_SaveIsAtomic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "azkar_data.json")
	p, err := NewJSONPersistence(path)
	require.NoError(t, err)
	assert.Equal(t, path, p.Path())

	st := model.DefaultState("2026-01-01")
	require.NoError(t, p.Save(st))

	_, err = os.Stat(path + ".tmp")
	assert.True(t, os.IsNotExist(err))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := p.Load(model.DefaultState("2030-01-01"))
	require.NoError(t, err)
	assert.Equal(t, st, loaded)
}

func TestJSONPersistence_LoadMissing(t *testing.T) {
	p, err := NewJSONPersistence(filepath.Join(t.TempDir(), "azkar_data.json"))
	require.NoError(t, err)

	defaults := model.DefaultState("2026-01-01")
	st, err := p.Load(defaults)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Equal(t, defaults, st)
}

func TestHistoryLog_RewriteFailureRestoresBackup(t *testing.T) {
	tests := []struct {
		name   string
		create func(path string) (*os.File, error)
	}{
		{
			// Truncates like the real replacement, then rejects every write.
			name: "write fails",
			create: func(path string) (*os.File, error) {
				return os.OpenFile(path, os.O_RDONLY|os.O_CREATE|os.O_TRUNC, 0600)
			},
		},
		{
			name: "create fails",
			create: func(string) (*os.File, error) {
				return nil, os.ErrPermission
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "history.jsonl")
			h, err := OpenHistoryLog(path)
			require.NoError(t, err)
			defer h.Close()

			for i := range 5 {
				require.NoError(t, h.Append(testRecord(string(rune('a'+i)), int64(i+1))))
			}
			before, err := os.ReadFile(path)
			require.NoError(t, err)

			h.createFile = tt.create
			_, err = h.Prune(2)
			require.Error(t, err)

			after, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, before, after)
			_, err = os.Stat(path + ".bak")
			assert.True(t, os.IsNotExist(err))

			records, err := h.Load()
			require.NoError(t, err)
			assert.Len(t, records, 5)

			require.NoError(t, h.Append(testRecord("z", 99)))
			records, err = h.Load()
			require.NoError(t, err)
			assert.Len(t, records, 6)
		})
	}
}
