// Package internal provides the App struct that wires all components of the
// goal board together and initializes the CLI layer.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/valter-silva-au/goal-board/internal/cli"
	"github.com/valter-silva-au/goal-board/internal/clock"
	"github.com/valter-silva-au/goal-board/internal/core"
	"github.com/valter-silva-au/goal-board/internal/observability"
	"github.com/valter-silva-au/goal-board/internal/storage"
	"github.com/valter-silva-au/goal-board/pkg/models"
)

// EventLogFileName is the JSONL event log kept in the base path.
const EventLogFileName = ".goals_events.jsonl"

// Subscriber buffer sizes. All three are lossless; the celebration consumer
// sees task.completed only, since it publishes celebration.fired itself.
const (
	mirrorBuffer      = 64
	celebrationBuffer = 256
	recorderBuffer    = 128
)

// notifyTimeout bounds a single celebration delivery.
const notifyTimeout = 5 * time.Second

// App holds all service dependencies for the goal board.
type App struct {
	BasePath string
	Logger   *slog.Logger

	// Configuration
	ConfigMgr core.ConfigurationManager
	Config    *models.GlobalConfig

	// Storage layer
	KV storage.KVStore

	// Core services
	Bus          *core.Bus
	Store        core.TaskStore
	Mirror       *core.PersistenceMirror
	Quotes       *core.QuoteRotator
	Celebrations *core.CelebrationTrigger
	LoadOutcome  core.LoadOutcome

	// Observability
	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
	Notifier    observability.Notifier

	cancel    context.CancelFunc
	wg        sync.WaitGroup
	closeOnce sync.Once
	closeErr  error
}

// appOptions are the process-level dependencies NewApp fills in with the
// real terminal and clock.
type appOptions struct {
	out    io.Writer // celebration lines
	logger *slog.Logger
	clk    clock.Clock
}

// NewApp creates and wires all components of the goal board. basePath is the
// directory holding .goalsconfig, the snapshot store and the event log.
func NewApp(basePath string) (*App, error) {
	return newApp(basePath, appOptions{
		out:    os.Stdout,
		logger: slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})),
		clk:    clock.Real(),
	})
}

func newApp(basePath string, opts appOptions) (*App, error) {
	if opts.logger == nil {
		opts.logger = slog.New(slog.DiscardHandler)
	}
	if opts.out == nil {
		opts.out = io.Discard
	}
	if opts.clk == nil {
		opts.clk = clock.Real()
	}

	app := &App{BasePath: basePath, Logger: opts.logger}
	logger := opts.logger

	// --- Configuration ---
	app.ConfigMgr = core.NewConfigurationManager(basePath)
	cfg, err := app.ConfigMgr.LoadGlobalConfig()
	if err != nil {
		logger.Warn("loading configuration, using defaults", "error", err)
		cfg = core.DefaultGlobalConfig()
	}
	if err := app.ConfigMgr.ValidateConfig(cfg); err != nil {
		logger.Warn("invalid configuration, using defaults", "error", err)
		cfg = core.DefaultGlobalConfig()
	}
	app.Config = cfg

	// --- Storage layer ---
	app.KV, err = storage.Open(cfg.StorageBackend, basePath, cfg.StoragePath)
	if err != nil {
		// Non-fatal: the board still works, changes just do not persist.
		logger.Error("opening snapshot store, changes will not be saved", "backend", cfg.StorageBackend, "error", err)
		app.KV = storage.NewMemoryKV()
	}

	// --- Core services ---
	app.Bus = core.NewBus()
	projects := core.DefaultProjects()
	current := cfg.DefaultProject
	if _, ok := projects[current]; !ok {
		logger.Warn("unknown default project, using the first seeded one", "project", current)
		current = core.DefaultProjectKey
	}
	app.Store, err = core.NewTaskStore(projects, current, app.Bus)
	if err != nil {
		_ = app.KV.Close() // Best-effort cleanup; the store error is what matters.
		return nil, fmt.Errorf("creating task store: %w", err)
	}

	app.Mirror = core.NewPersistenceMirror(app.Store, app.KV, cfg.Snapshot, opts.clk, logger)
	ctx, cancel := context.WithCancel(context.Background())
	app.cancel = cancel
	app.LoadOutcome = app.Mirror.Load(ctx)

	app.Quotes = core.NewQuoteRotator(nil, app.Bus)

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, EventLogFileName)
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable metrics if the log can't be created.
		logger.Warn("opening event log, metrics disabled", "path", eventLogPath, "error", err)
		app.EventLog = nil
	}
	if app.EventLog != nil {
		app.MetricsCalc = observability.NewMetricsCalculator(app.EventLog)
	}

	notifiers := []observability.Notifier{
		&terminalNotifier{next: observability.NewWriterNotifier(opts.out)},
	}
	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL != "" {
		notifiers = append(notifiers, observability.NewSlackNotifier(cfg.Notifications.Slack.WebhookURL))
	}
	app.Notifier = observability.NewMultiNotifier(notifiers...)

	app.Celebrations = core.NewCelebrationTrigger(
		cfg.Celebration,
		&celebrationNotifierAdapter{notifier: app.Notifier},
		app.Quotes,
		app.Bus,
		opts.clk,
		nil,
		logger,
	)

	// --- Event consumers ---
	mirrorSub := app.Bus.Subscribe(mirrorBuffer, core.MutatingTopics...)
	celebrationSub := app.Celebrations.Subscribe(celebrationBuffer)
	var recorderSub *core.Subscription
	if app.EventLog != nil {
		recorderSub = app.Bus.Subscribe(recorderBuffer)
	}

	app.Mirror.Start(ctx)
	app.wg.Add(2)
	go func() {
		defer app.wg.Done()
		app.Mirror.Watch(ctx, mirrorSub)
	}()
	go func() {
		defer app.wg.Done()
		app.Celebrations.Run(ctx, celebrationSub)
	}()
	if recorderSub != nil {
		rec := &eventRecorder{log: app.EventLog, logger: logger}
		app.wg.Add(1)
		go func() {
			defer app.wg.Done()
			rec.Run(ctx, recorderSub)
		}()
	}

	// --- Wire CLI package-level variables ---
	cli.BasePath = basePath
	cli.Store = app.Store
	cli.Bus = app.Bus
	cli.Quotes = app.Quotes
	cli.EventLog = app.EventLog
	cli.MetricsCalc = app.MetricsCalc

	return app, nil
}

// Close drains the event consumers, writes any unsaved board state and
// releases the stores. It is safe to call more than once.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		// Closing the bus lets every consumer drain what is buffered and exit.
		a.Bus.Close()
		a.wg.Wait()
		a.Celebrations.Close()

		var errs []error
		if err := a.Mirror.Close(); err != nil {
			errs = append(errs, fmt.Errorf("saving board snapshot: %w", err))
		}
		a.cancel()
		if err := a.KV.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing snapshot store: %w", err))
		}
		if a.EventLog != nil {
			if err := a.EventLog.Close(); err != nil {
				errs = append(errs, fmt.Errorf("closing event log: %w", err))
			}
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}

// ResolveBasePath determines the base path for the board data.
// It checks for GOALS_HOME env var, then walks up from the current directory
// looking for .goalsconfig, then falls back to the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("GOALS_HOME"); home != "" {
		return home
	}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		if hasConfigFile(dir) {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cwd, _ := os.Getwd()
	return cwd
}

func hasConfigFile(dir string) bool {
	for _, name := range []string{core.ConfigFileName, core.ConfigFileName + ".yaml", core.ConfigFileName + ".yml"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// --- Adapters ---

// celebrationNotifierAdapter adapts observability.Notifier to
// core.CelebrationNotifier.
type celebrationNotifierAdapter struct {
	notifier observability.Notifier
}

func (a *celebrationNotifierAdapter) Celebrate(ctx context.Context, c core.Celebration) error {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	return a.notifier.Notify(ctx, observability.Notification{
		Project:   string(c.ProjectKey),
		TaskID:    c.Task.ID,
		TaskTitle: c.Task.Title,
		Message:   c.Message,
		Milestone: c.Milestone,
		Time:      c.Time,
	})
}

// terminalNotifier drops celebrations while the interactive board owns the
// terminal; the board shows them as toasts instead.
type terminalNotifier struct {
	next observability.Notifier
}

func (n *terminalNotifier) Notify(ctx context.Context, note observability.Notification) error {
	if !cli.TerminalNotificationsEnabled() {
		return nil
	}
	return n.next.Notify(ctx, note)
}

// eventRecorder writes bus events to the event log.
type eventRecorder struct {
	log    observability.EventLog
	logger *slog.Logger
}

func (r *eventRecorder) Run(ctx context.Context, sub *core.Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			if err := r.log.Write(eventFromBus(e)); err != nil {
				r.logger.Warn("writing event log", "type", e.Topic, "error", err)
			}
		}
	}
}

func eventFromBus(e core.Event) observability.Event {
	ev := observability.Event{
		Time:    e.Time,
		Level:   "INFO",
		Type:    string(e.Topic),
		Project: string(e.ProjectKey),
		Message: string(e.Topic),
	}

	taskData := func() map[string]any {
		return map[string]any{
			"task_id":   e.Task.ID,
			"task_key":  e.Task.Key,
			"title":     e.Task.Title,
			"milestone": e.Task.IsMilestone(),
		}
	}

	switch e.Topic {
	case core.TopicTaskCompleted:
		ev.Message = "completed: " + e.Task.Title
		ev.Data = taskData()
	case core.TopicTaskReopened:
		ev.Message = "reopened: " + e.Task.Title
		ev.Data = taskData()
	case core.TopicTaskReordered:
		ev.Message = fmt.Sprintf("moved task %d in front of task %d", e.SourceID, e.TargetID)
		ev.Data = map[string]any{"source_id": e.SourceID, "target_id": e.TargetID}
		if e.Task.Key != "" {
			ev.Data["task_key"] = e.Task.Key
			ev.Data["task_id"] = e.Task.ID
		}
	case core.TopicCelebrationFired:
		ev.Message = e.Message
		ev.Data = taskData()
	case core.TopicQuoteRefreshed:
		ev.Message = e.Message
	case core.TopicProjectSelected:
		ev.Message = "selected project " + string(e.ProjectKey)
	case core.TopicProjectReplaced:
		ev.Message = "replaced project " + string(e.ProjectKey)
	}
	return ev
}
