package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/valter-silva-au/goal-board/internal/clock"
	"github.com/valter-silva-au/goal-board/pkg/models"
)

// Snapshot keys in the key-value store.
const (
	SnapshotProjectsKey = "goalsProjects"
	SnapshotCurrentKey  = "currentProject"
)

// DefaultSnapshotInterval is the safety-net rewrite period.
const DefaultSnapshotInterval = 5 * time.Second

// SnapshotStore is the key-value store the mirror persists to. It is defined
// here so core does not import the storage package.
type SnapshotStore interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte) error
}

// LoadOutcome tells apart an empty store, a restored snapshot and a snapshot
// that could not be parsed.
type LoadOutcome int

const (
	LoadedDefaults LoadOutcome = iota
	LoadedSnapshot
	LoadedCorrupt
)

func (o LoadOutcome) String() string {
	switch o {
	case LoadedSnapshot:
		return "snapshot"
	case LoadedCorrupt:
		return "corrupt"
	default:
		return "defaults"
	}
}

// PersistenceMirror keeps a SnapshotStore in sync with a TaskStore.
//
// Mutation events mark the mirror dirty and trigger a write, immediately when
// Debounce is zero or after the debounce window otherwise. A periodic ticker
// rewrites the snapshot while it is still dirty, which covers failed writes.
// Storage errors are logged and never reach the caller; memory is never
// rolled back.
type PersistenceMirror struct {
	store    TaskStore
	kv       SnapshotStore
	clk      clock.Clock
	logger   *slog.Logger
	interval time.Duration
	debounce time.Duration

	writeMu sync.Mutex // serialises flushes

	mu        sync.Mutex
	dirty     bool
	pending   *clock.Timer
	gen       int
	lastWrite time.Time
	writes    int
	failures  int
	started   bool
	closed    bool
	stop      chan struct{}
	wg        sync.WaitGroup
}

// NewPersistenceMirror creates a mirror. Zero config values take the
// defaults (5s interval, write-through).
func NewPersistenceMirror(store TaskStore, kv SnapshotStore, cfg models.SnapshotConfig, clk clock.Clock, logger *slog.Logger) *PersistenceMirror {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultSnapshotInterval
	}
	debounce := cfg.Debounce
	if debounce < 0 {
		debounce = 0
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &PersistenceMirror{
		store:    store,
		kv:       kv,
		clk:      clk,
		logger:   logger,
		interval: interval,
		debounce: debounce,
		stop:     make(chan struct{}),
	}
}

// Load reads the snapshot and restores it into the store. A missing snapshot
// keeps the seeded defaults. A read or parse failure is logged and also keeps
// the defaults.
func (m *PersistenceMirror) Load(ctx context.Context) LoadOutcome {
	raw, found, err := m.kv.Get(ctx, SnapshotProjectsKey)
	if err != nil {
		m.logger.Error("reading board snapshot", "key", SnapshotProjectsKey, "error", err)
		return LoadedDefaults
	}
	if !found {
		return LoadedDefaults
	}

	var projects map[models.ProjectKey]models.Project
	if err := json.Unmarshal(raw, &projects); err != nil {
		m.logger.Error("parsing board snapshot, using defaults", "key", SnapshotProjectsKey, "error", err)
		return LoadedCorrupt
	}
	if len(projects) == 0 {
		m.logger.Error("board snapshot has no projects, using defaults", "key", SnapshotProjectsKey)
		return LoadedCorrupt
	}

	snap := models.Snapshot{Projects: projects}
	rawCurrent, found, err := m.kv.Get(ctx, SnapshotCurrentKey)
	switch {
	case err != nil:
		m.logger.Error("reading current project", "key", SnapshotCurrentKey, "error", err)
	case found:
		if err := json.Unmarshal(rawCurrent, &snap.CurrentProject); err != nil {
			m.logger.Error("parsing current project", "key", SnapshotCurrentKey, "error", err)
		}
	}

	m.store.Restore(snap)
	return LoadedSnapshot
}

// Start launches the safety-net ticker. It is a no-op after the first call.
func (m *PersistenceMirror) Start(ctx context.Context) {
	m.mu.Lock()
	if m.started || m.closed {
		m.mu.Unlock()
		return
	}
	m.started = true
	ticker := m.clk.NewTicker(m.interval)
	m.mu.Unlock()

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				if m.Dirty() {
					_ = m.Flush(ctx) // Failure is logged; the next tick retries.
				}
			}
		}
	}()
}

// Watch consumes mutation events from sub and marks the mirror dirty for
// each. It returns when the subscription closes or ctx is cancelled.
func (m *PersistenceMirror) Watch(ctx context.Context, sub *Subscription) {
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			if e.Topic.Mutates() {
				m.MarkDirty(ctx)
			}
		}
	}
}

// MarkDirty records that memory has diverged from storage and schedules a
// write according to the debounce policy.
func (m *PersistenceMirror) MarkDirty(ctx context.Context) {
	m.mu.Lock()
	m.dirty = true
	if m.closed {
		m.mu.Unlock()
		return
	}
	if m.debounce == 0 {
		m.mu.Unlock()
		_ = m.Flush(ctx) // Write-through; failures keep the mirror dirty.
		return
	}
	if m.pending != nil {
		m.pending.Stop()
	}
	m.gen++
	gen := m.gen
	m.pending = m.clk.AfterFunc(m.debounce, func() {
		m.mu.Lock()
		if m.gen != gen || m.closed {
			m.mu.Unlock()
			return
		}
		m.pending = nil
		m.mu.Unlock()
		_ = m.Flush(context.Background())
	})
	m.mu.Unlock()
}

// Flush writes the full snapshot now. The dirty flag is cleared only when
// both keys were written.
func (m *PersistenceMirror) Flush(ctx context.Context) error {
	m.writeMu.Lock()
	defer m.writeMu.Unlock()

	m.mu.Lock()
	m.dirty = false
	m.mu.Unlock()

	if err := m.write(ctx); err != nil {
		m.mu.Lock()
		m.dirty = true
		m.failures++
		m.mu.Unlock()
		m.logger.Warn("writing board snapshot", "error", err)
		return err
	}

	m.mu.Lock()
	m.writes++
	m.lastWrite = m.clk.Now()
	m.mu.Unlock()
	return nil
}

func (m *PersistenceMirror) write(ctx context.Context) error {
	snap := m.store.Snapshot()

	projects, err := json.Marshal(snap.Projects)
	if err != nil {
		return fmt.Errorf("marshalling projects: %w", err)
	}
	current, err := json.Marshal(snap.CurrentProject)
	if err != nil {
		return fmt.Errorf("marshalling current project: %w", err)
	}
	if err := m.kv.Set(ctx, SnapshotProjectsKey, projects); err != nil {
		return fmt.Errorf("writing %s: %w", SnapshotProjectsKey, err)
	}
	if err := m.kv.Set(ctx, SnapshotCurrentKey, current); err != nil {
		return fmt.Errorf("writing %s: %w", SnapshotCurrentKey, err)
	}
	return nil
}

// Dirty reports whether there are changes not yet written.
func (m *PersistenceMirror) Dirty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dirty
}

// MirrorStats summarises the mirror's write history.
type MirrorStats struct {
	Writes    int
	Failures  int
	LastWrite time.Time
	Dirty     bool
}

// Stats returns the write counters.
func (m *PersistenceMirror) Stats() MirrorStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return MirrorStats{
		Writes:    m.writes,
		Failures:  m.failures,
		LastWrite: m.lastWrite,
		Dirty:     m.dirty,
	}
}

// Close stops the ticker and any pending debounce, then writes once more if
// there are unsaved changes.
func (m *PersistenceMirror) Close() error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	if m.pending != nil {
		m.pending.Stop()
		m.pending = nil
	}
	close(m.stop)
	dirty := m.dirty
	m.mu.Unlock()

	m.wg.Wait()
	if dirty {
		return m.Flush(context.Background())
	}
	return nil
}
