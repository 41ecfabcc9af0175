package gameserver

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/combat"
)

// PlayerSource supplies consistent player snapshots and kill counters.
// *combat.Engine satisfies it.
type PlayerSource interface {
	SnapshotPlayers() []combat.Snapshot
	Kills() combat.KillStats
}

// SnapshotStore persists snapshots atomically.
type SnapshotStore interface {
	SaveAll(ctx context.Context, snaps []combat.Snapshot) error
}

// KillStore accumulates kill counts.
type KillStore interface {
	Add(ctx context.Context, deltas map[string]int) error
}

// Autosaver periodically writes every active player and the kill counts
// gained since the last successful save.
type Autosaver struct {
	src      PlayerSource
	store    SnapshotStore
	kills    KillStore
	interval time.Duration
	logger   *zap.Logger

	mu        sync.Mutex
	lastKills map[string]int

	stopOnce sync.Once
	ctx      context.Context
	cancel   context.CancelFunc
	started  atomic.Bool
	done     chan struct{}
}

// NewAutosaver returns a stopped Autosaver. kills may be nil.
//
// Precondition: src and store must be non-nil; interval must be > 0.
func NewAutosaver(src PlayerSource, store SnapshotStore, kills KillStore, interval time.Duration, logger *zap.Logger) *Autosaver {
	if src == nil || store == nil {
		panic("gameserver.NewAutosaver: src and store must be non-nil")
	}
	if interval <= 0 {
		panic("gameserver.NewAutosaver: interval must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Autosaver{
		src:       src,
		store:     store,
		kills:     kills,
		interval:  interval,
		logger:    logger,
		lastKills: make(map[string]int),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
}

// Save writes one round of snapshots and kill deltas.
//
// Postcondition: kill deltas are only marked saved when Add succeeds.
func (a *Autosaver) Save(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	snaps := a.src.SnapshotPlayers()
	var errs []error
	if err := a.store.SaveAll(ctx, snaps); err != nil {
		errs = append(errs, fmt.Errorf("saving players: %w", err))
	}

	if a.kills != nil {
		totals := a.src.Kills().ByTemplate
		deltas := make(map[string]int)
		for tpl, n := range totals {
			if d := n - a.lastKills[tpl]; d > 0 {
				deltas[tpl] = d
			}
		}
		if len(deltas) > 0 {
			if err := a.kills.Add(ctx, deltas); err != nil {
				errs = append(errs, fmt.Errorf("saving kill counts: %w", err))
			} else {
				for tpl, n := range totals {
					a.lastKills[tpl] = n
				}
			}
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	a.logger.Debug("autosave complete",
		zap.Int("players", len(snaps)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return nil
}

// Run saves every interval until ctx is cancelled, then saves once more.
func (a *Autosaver) Run(ctx context.Context) error {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			final, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := a.Save(final); err != nil {
				a.logger.Error("final autosave failed", zap.Error(err))
				return err
			}
			return nil
		case <-ticker.C:
			if err := a.Save(ctx); err != nil {
				a.logger.Warn("autosave failed", zap.Error(err))
			}
		}
	}
}

// Start runs until Stop. It satisfies server.Service.
func (a *Autosaver) Start() error {
	a.started.Store(true)
	defer close(a.done)
	return a.Run(a.ctx)
}

// Stop ends a running Start and waits for its final save.
func (a *Autosaver) Stop() {
	a.stopOnce.Do(a.cancel)
	if a.started.Load() {
		<-a.done
	}
}
