package metrics

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// DefaultFlushInterval is how often TextfileWriter rewrites the metrics file.
const DefaultFlushInterval = 15 * time.Second

// TextfileWriter periodically writes a registry to a file in the Prometheus
// text exposition format (for node_exporter's textfile collector).
type TextfileWriter struct {
	reg      *prom.Registry
	path     string
	interval time.Duration
	logger   *slog.Logger
}

// NewTextfileWriter creates a writer for reg. A non-positive interval uses DefaultFlushInterval.
func NewTextfileWriter(reg *prom.Registry, path string, interval time.Duration, logger *slog.Logger) *TextfileWriter {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TextfileWriter{reg: reg, path: path, interval: interval, logger: logger}
}

// Flush writes the current registry contents once.
func (w *TextfileWriter) Flush() error {
	if err := os.MkdirAll(filepath.Dir(w.path), 0755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prom.WriteToTextfile(w.path, w.reg); err != nil {
		return fmt.Errorf("write metrics textfile %s: %w", w.path, err)
	}
	return nil
}

// Run flushes every interval until ctx is done, then flushes a final time.
func (w *TextfileWriter) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			if err := w.Flush(); err != nil {
				w.logger.Warn("final metrics flush failed", "error", err)
			}
			return
		case <-ticker.C:
			if err := w.Flush(); err != nil {
				w.logger.Warn("metrics flush failed", "path", w.path, "error", err)
			}
		}
	}
}
