// Package gameserver drives the combat engine on the wall clock.
package gameserver

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/combat"
)

// Pulser advances the simulation by one pulse. *combat.Engine satisfies it.
type Pulser interface {
	Pulse() combat.PulseReport
}

// PulseHook observes a finished pulse. Hooks run on the loop goroutine
// after the engine lock is released, so they may call into the engine.
type PulseHook func(rep combat.PulseReport, now time.Time)

// PulseLoop calls Pulse once per interval from a single goroutine.
//
// Invariant: pulses never overlap; a pulse that overruns its interval
// delays the next one instead of queueing extra pulses.
type PulseLoop struct {
	engine   Pulser
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time

	mu    sync.Mutex
	hooks []PulseHook

	stopOnce sync.Once
	cancel   context.CancelFunc
	ctx      context.Context
}

// NewPulseLoop returns a stopped loop.
//
// Precondition: engine must be non-nil; interval must be > 0.
func NewPulseLoop(engine Pulser, interval time.Duration, logger *zap.Logger) *PulseLoop {
	if engine == nil {
		panic("gameserver.NewPulseLoop: engine must not be nil")
	}
	if interval <= 0 {
		panic("gameserver.NewPulseLoop: interval must be > 0")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &PulseLoop{
		engine:   engine,
		interval: interval,
		logger:   logger,
		now:      time.Now,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// OnPulse registers fn to run after every pulse, in registration order.
func (p *PulseLoop) OnPulse(fn PulseHook) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks = append(p.hooks, fn)
}

// OnTick registers fn to run after pulses that ticked affects.
func (p *PulseLoop) OnTick(fn func(now time.Time)) {
	p.OnPulse(func(rep combat.PulseReport, now time.Time) {
		if rep.Ticked {
			fn(now)
		}
	})
}

// Step runs one pulse and its hooks synchronously.
func (p *PulseLoop) Step() combat.PulseReport {
	rep := p.engine.Pulse()
	now := p.now()

	p.mu.Lock()
	hooks := append([]PulseHook(nil), p.hooks...)
	p.mu.Unlock()
	for _, fn := range hooks {
		fn(rep, now)
	}
	if rep.Round != nil {
		p.logger.Debug("violence round", zap.Int("pulse", rep.Pulse))
	}
	return rep
}

// Run pulses until ctx is cancelled.
func (p *PulseLoop) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	p.logger.Info("pulse loop started", zap.Duration("interval", p.interval))
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pulse loop stopped")
			return nil
		case <-ticker.C:
			start := time.Now()
			rep := p.Step()
			if elapsed := time.Since(start); elapsed > p.interval {
				p.logger.Warn("pulse overrun",
					zap.Int("pulse", rep.Pulse),
					zap.Duration("elapsed", elapsed),
					zap.Duration("interval", p.interval),
				)
			}
		}
	}
}

// Start runs the loop until Stop. It satisfies server.Service.
func (p *PulseLoop) Start() error { return p.Run(p.ctx) }

// Stop ends a running Start. Calling it more than once is harmless.
func (p *PulseLoop) Stop() { p.stopOnce.Do(p.cancel) }
