package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jonboulle/clockwork"
	prom "github.com/prometheus/client_golang/prometheus"

	"github.com/jmylchreest/azkar/internal/audio"
	"github.com/jmylchreest/azkar/internal/config"
	"github.com/jmylchreest/azkar/internal/dbus"
	"github.com/jmylchreest/azkar/internal/metrics"
	"github.com/jmylchreest/azkar/internal/notify"
	"github.com/jmylchreest/azkar/internal/scheduler"
	"github.com/jmylchreest/azkar/internal/store"
)

// Options controls how a Daemon is assembled.
type Options struct {
	// ConfigPath is watched for hot reload. Empty disables the watcher.
	ConfigPath string
	// StatePath overrides the configured state file.
	StatePath string
	// DisableControl skips the D-Bus control service.
	DisableControl bool
	// Clock is the scheduler time source; nil means the real clock.
	Clock clockwork.Clock
}

// Daemon owns every long-running azkard component.
type Daemon struct {
	logger *slog.Logger
	opts   Options

	mu  sync.Mutex
	cfg *config.Config

	store     *store.Store
	statePath string
	history   *store.HistoryLog
	notifier  *notify.Swappable
	chime     *audio.Chime
	registry  *prom.Registry
	recorder  *metrics.PrometheusRecorder
	scheduler *scheduler.Scheduler
	runner    *scheduler.Runner
	internal  *InternalNotifier

	control       *dbus.Server
	stateWatcher  *store.StateWatcher
	configWatcher *ConfigWatcher

	metricsCtx    context.Context
	metricsCancel context.CancelFunc
	metricsDone   chan struct{}
}

// New assembles a Daemon from cfg. Nothing runs until Run is called.
func New(cfg *config.Config, opts Options, logger *slog.Logger) (*Daemon, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}

	d := &Daemon{logger: logger, opts: opts, cfg: cfg}

	statePath := opts.StatePath
	if statePath == "" {
		statePath = cfg.State.StatePath()
	}
	if statePath == "" {
		p, err := store.StatePath()
		if err != nil {
			return nil, fmt.Errorf("failed to get state path: %w", err)
		}
		statePath = p
	}
	d.statePath = statePath

	persistence, err := store.NewJSONPersistence(statePath)
	if err != nil {
		return nil, err
	}

	d.registry = prom.NewRegistry()
	d.recorder = metrics.NewPrometheusRecorder(d.registry)

	d.store = store.Open(persistence,
		store.WithLogger(logger),
		store.WithClock(opts.Clock),
		store.WithRecorder(d.recorder),
	)
	logger.Info("state store initialized", "path", statePath)

	backend, err := notify.New(cfg.Notify, logger)
	if err != nil {
		return nil, err
	}
	d.notifier = notify.NewSwappable(backend)
	d.internal = NewInternalNotifier(d.notifier, opts.Clock, logger)

	d.chime = audio.NewChime(cfg.Audio, logger)

	schedOpts := []scheduler.Option{
		scheduler.WithClock(opts.Clock),
		scheduler.WithLogger(logger),
		scheduler.WithRecorder(d.recorder),
		scheduler.WithChime(d.chime),
	}
	if cfg.History.Enabled {
		if err := d.openHistory(); err != nil {
			logger.Warn("history disabled", "error", err)
		} else {
			schedOpts = append(schedOpts, scheduler.WithHistory(d.history))
		}
	}
	d.scheduler = scheduler.New(d.store, d.notifier, schedOpts...)

	d.runner, err = scheduler.NewRunner(d.scheduler, cfg.Scheduler.Tick.Duration(), logger)
	if err != nil {
		return nil, err
	}

	return d, nil
}

func (d *Daemon) openHistory() error {
	path, err := store.HistoryPath()
	if err != nil {
		return err
	}
	h, err := store.OpenHistoryLog(path)
	if err != nil {
		return err
	}
	if keep := d.cfg.History.MaxEntries; keep > 0 {
		if n, err := h.Prune(keep); err != nil {
			d.logger.Warn("failed to prune history", "error", err)
		} else if n > 0 {
			d.logger.Info("pruned history", "removed", n, "kept", keep)
		}
	}
	d.history = h
	return nil
}

// Store returns the daemon's state store.
func (d *Daemon) Store() *store.Store { return d.store }

// Config returns the active configuration.
func (d *Daemon) Config() *config.Config {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.cfg
}

// Run starts every component and blocks until ctx is done.
// It fails only if another azkard already owns the control bus name.
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.startControl(); err != nil {
		return err
	}

	d.chime.Preload()

	d.mu.Lock()
	d.metricsCtx = ctx
	d.startMetricsLocked()
	d.mu.Unlock()

	if d.opts.ConfigPath != "" {
		d.startConfigWatcher(ctx)
	}

	d.logger.Info("azkard ready", "state", d.statePath)
	err := d.runner.Run(ctx)

	d.shutdown()
	return err
}

// startControl exports the command surface on the session bus. Without a
// session bus the daemon keeps running and instead follows the state file,
// so CLI writes made directly to it are still picked up.
func (d *Daemon) startControl() error {
	if !d.opts.DisableControl {
		srv := dbus.NewServer(d.store, d.logger)
		err := srv.Start()
		if err == nil {
			d.control = srv
			return nil
		}
		if errors.Is(err, dbus.ErrAlreadyRunning) {
			return err
		}
		d.logger.Warn("D-Bus control service unavailable", "error", err)
	}

	fw, err := store.NewStateWatcher(d.store, d.statePath)
	if err != nil {
		d.logger.Warn("failed to create state watcher", "error", err)
		return nil
	}
	if err := fw.Start(); err != nil {
		d.logger.Warn("failed to watch state file", "error", err)
		_ = fw.Stop()
		return nil
	}
	d.stateWatcher = fw
	return nil
}

func (d *Daemon) startConfigWatcher(ctx context.Context) {
	cw, err := NewConfigWatcher(d.opts.ConfigPath, d.logger)
	if err != nil {
		d.logger.Warn("failed to create config watcher", "error", err)
		return
	}
	cw.SetReloadCallback(d.ApplyConfig)
	cw.SetErrorCallback(d.internal.NotifyConfigError)
	if err := cw.Start(ctx, d.Config()); err != nil {
		d.logger.Warn("failed to start config watcher", "error", err)
		return
	}
	d.configWatcher = cw
}

// startMetricsLocked starts the textfile writer for the current config, if any.
func (d *Daemon) startMetricsLocked() {
	path := d.cfg.Metrics.MetricsPath()
	if path == "" || d.metricsCtx == nil {
		return
	}

	w := metrics.NewTextfileWriter(d.registry, path, d.cfg.Metrics.Interval.Duration(), d.logger)
	ctx, cancel := context.WithCancel(d.metricsCtx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Run(ctx)
	}()

	d.metricsCancel = cancel
	d.metricsDone = done
	d.logger.Debug("metrics textfile enabled", "path", path)
}

func (d *Daemon) stopMetricsLocked() {
	if d.metricsCancel == nil {
		return
	}
	d.metricsCancel()
	<-d.metricsDone
	d.metricsCancel = nil
	d.metricsDone = nil
}

// ApplyConfig applies a reloaded configuration in place: tick period,
// notification backend, chime and metrics sink. The state path and history
// settings only take effect on restart.
func (d *Daemon) ApplyConfig(newConfig *config.Config) {
	d.mu.Lock()
	defer d.mu.Unlock()

	old := d.cfg
	d.cfg = newConfig

	if err := d.runner.SetTick(newConfig.Scheduler.Tick.Duration()); err != nil {
		d.logger.Warn("failed to apply tick period", "error", err)
	}

	if newConfig.Notify != old.Notify {
		backend, err := notify.New(newConfig.Notify, d.logger)
		if err != nil {
			d.logger.Warn("failed to apply notify config", "error", err)
		} else {
			prev := d.notifier.Swap(backend)
			if c, ok := prev.(interface{ Close() error }); ok {
				_ = c.Close()
			}
			d.logger.Info("notification backend updated", "backend", newConfig.Notify.Backend)
		}
	}

	if newConfig.Audio != old.Audio {
		d.chime.UpdateConfig(newConfig.Audio)
	}

	if newConfig.Metrics != old.Metrics {
		d.stopMetricsLocked()
		d.startMetricsLocked()
	}

	if newConfig.State != old.State || newConfig.History != old.History {
		d.logger.Info("state and history settings take effect on restart")
	}
}

func (d *Daemon) shutdown() {
	d.logger.Info("azkard shutting down")

	if d.configWatcher != nil {
		d.configWatcher.Stop()
	}
	if d.control != nil {
		if err := d.control.Stop(); err != nil {
			d.logger.Warn("error stopping control service", "error", err)
		}
	}
	if d.stateWatcher != nil {
		_ = d.stateWatcher.Stop()
	}

	d.mu.Lock()
	d.stopMetricsLocked()
	d.mu.Unlock()

	d.chime.Close()
	if err := d.notifier.Close(); err != nil {
		d.logger.Debug("error closing notifier", "error", err)
	}
	if d.history != nil {
		_ = d.history.Close()
	}
	_ = d.store.Close()
}
