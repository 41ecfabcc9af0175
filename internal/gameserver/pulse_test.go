package gameserver_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/mudcore/internal/game/combat"
	"github.com/cory-johannsen/mudcore/internal/gameserver"
)

// countingEngine ticks every third pulse.
type countingEngine struct {
	n atomic.Int64
}

func (e *countingEngine) Pulse() combat.PulseReport {
	n := int(e.n.Add(1))
	return combat.PulseReport{Pulse: n, Ticked: n%3 == 0}
}

func TestPulseLoop_StepRunsHooksInOrder(t *testing.T) {
	loop := gameserver.NewPulseLoop(&countingEngine{}, time.Second, zap.NewNop())
	var seen []string
	loop.OnPulse(func(rep combat.PulseReport, _ time.Time) { seen = append(seen, "a") })
	loop.OnPulse(func(rep combat.PulseReport, _ time.Time) { seen = append(seen, "b") })

	rep := loop.Step()
	assert.Equal(t, 1, rep.Pulse)
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestPulseLoop_OnTickFiresOnlyOnTicks(t *testing.T) {
	loop := gameserver.NewPulseLoop(&countingEngine{}, time.Second, zap.NewNop())
	ticks := 0
	loop.OnTick(func(time.Time) { ticks++ })
	for i := 0; i < 7; i++ {
		loop.Step()
	}
	assert.Equal(t, 2, ticks)
}

func TestPulseLoop_RunStopsOnCancel(t *testing.T) {
	eng := &countingEngine{}
	loop := gameserver.NewPulseLoop(eng, 5*time.Millisecond, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- loop.Run(ctx) }()

	require.Eventually(t, func() bool { return eng.n.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestPulseLoop_StartStop(t *testing.T) {
	eng := &countingEngine{}
	loop := gameserver.NewPulseLoop(eng, 5*time.Millisecond, nil)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		assert.NoError(t, loop.Start())
	}()
	require.Eventually(t, func() bool { return eng.n.Load() >= 1 }, 2*time.Second, 5*time.Millisecond)
	loop.Stop()
	loop.Stop()
	wg.Wait()

	after := eng.n.Load()
	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, after, eng.n.Load(), "no pulses after Stop")
}

func TestNewPulseLoop_Preconditions(t *testing.T) {
	assert.Panics(t, func() { gameserver.NewPulseLoop(nil, time.Second, nil) })
	assert.Panics(t, func() { gameserver.NewPulseLoop(&countingEngine{}, 0, nil) })
}
