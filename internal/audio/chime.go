package audio

import (
	"log/slog"
	"sync"

	"github.com/jmylchreest/azkar/internal/config"
)

// Chime plays the configured sound after each fired reminder.
type Chime struct {
	mu      sync.RWMutex
	logger  *slog.Logger
	player  *Player
	enabled bool
	path    string
}

// NewChime creates a Chime from the audio configuration.
func NewChime(cfg config.AudioConfig, logger *slog.Logger) *Chime {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Chime{
		logger: logger,
		player: NewPlayer(logger),
	}
	c.apply(cfg)
	return c
}

func (c *Chime) apply(cfg config.AudioConfig) {
	c.mu.Lock()
	c.enabled = cfg.Enabled
	c.path = cfg.SoundPath()
	c.mu.Unlock()

	c.player.SetVolume(float64(cfg.Volume) / 100.0)
}

// Preload decodes the configured sound so the first chime is not delayed.
func (c *Chime) Preload() {
	c.mu.RLock()
	enabled, path := c.enabled, c.path
	c.mu.RUnlock()

	if !enabled || path == "" {
		return
	}
	if err := c.player.Preload(path); err != nil {
		c.logger.Warn("failed to preload chime", "path", path, "error", err)
	}
}

// Play plays the chime if enabled. Errors are logged, not returned.
func (c *Chime) Play() {
	c.mu.RLock()
	enabled, path := c.enabled, c.path
	c.mu.RUnlock()

	if !enabled || path == "" {
		return
	}
	if err := c.player.Play(path); err != nil {
		c.logger.Warn("failed to play chime", "path", path, "error", err)
	}
}

// UpdateConfig applies a reloaded configuration.
func (c *Chime) UpdateConfig(cfg config.AudioConfig) {
	c.player.ClearCache()
	c.apply(cfg)
	c.Preload()
	c.logger.Debug("chime config updated", "enabled", cfg.Enabled, "path", cfg.SoundPath())
}

// Enabled reports whether a chime will be played.
func (c *Chime) Enabled() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.enabled && c.path != ""
}

// Close releases the audio device.
func (c *Chime) Close() {
	c.player.Close()
}
