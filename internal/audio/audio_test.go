package audio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/azkar/internal/config"
)

func TestVolumeToDecibels(t *testing.T) {
	assert.InDelta(t, 0, volumeToDecibels(1), 1e-9)
	assert.InDelta(t, -6.02, volumeToDecibels(0.5), 0.01)
	assert.InDelta(t, -20, volumeToDecibels(0.1), 1e-9)
	assert.Equal(t, float64(-100), volumeToDecibels(0))
	assert.Equal(t, float64(-100), volumeToDecibels(-1))
}

func TestPlayer_SetVolumeClamps(t *testing.T) {
	p := NewPlayer(nil)
	p.SetVolume(1.7)
	assert.Equal(t, 1.0, p.Volume())
	p.SetVolume(-0.2)
	assert.Equal(t, 0.0, p.Volume())
	p.SetVolume(0.4)
	assert.Equal(t, 0.4, p.Volume())
}

func TestPlayer_PlayEmptyPath(t *testing.T) {
	p := NewPlayer(nil)
	assert.NoError(t, p.Play(""))
	assert.NoError(t, p.Preload(""))
}

func TestPlayer_UnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chime.txt")
	require.NoError(t, os.WriteFile(path, []byte("not audio"), 0600))

	p := NewPlayer(nil)
	err := p.Preload(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported audio format")
}

func TestPlayer_MissingFile(t *testing.T) {
	p := NewPlayer(nil)
	assert.Error(t, p.Play(filepath.Join(t.TempDir(), "missing.wav")))
}

func TestPlayer_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.wav")
	require.NoError(t, os.WriteFile(path, []byte("RIFF but not really"), 0600))

	p := NewPlayer(nil)
	assert.Error(t, p.Preload(path))
}

func TestChime(t *testing.T) {
	c := NewChime(config.AudioConfig{Enabled: false, Sound: "/tmp/x.wav", Volume: 50}, nil)
	assert.False(t, c.Enabled())
	assert.Equal(t, 0.5, c.player.Volume())
	assert.NotPanics(t, c.Play)

	// Enabled without a sound file is still silent
	c.UpdateConfig(config.AudioConfig{Enabled: true, Volume: 100})
	assert.False(t, c.Enabled())
	assert.Equal(t, 1.0, c.player.Volume())

	// Missing files are logged, never fatal
	c.UpdateConfig(config.AudioConfig{Enabled: true, Sound: filepath.Join(t.TempDir(), "missing.ogg"), Volume: 20})
	assert.True(t, c.Enabled())
	assert.NotPanics(t, c.Play)

	c.Close()
}
