package task

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/powerboard/i2c"
	"github.com/mklimuk/powerboard/sim"
)

type word struct {
	value uint16
	valid bool
	buf   [2]byte
}

func (w *word) step(name string, addr, cmd byte) Step {
	return Step{
		Name:    name,
		Prepare: func() i2c.Operation { return i2c.ReadWord(addr, cmd, &w.buf) },
		Handle: func(res i2c.Result, _ []byte) {
			if res != i2c.Okay {
				w.valid = false
				return
			}
			w.value = i2c.Word(w.buf)
			w.valid = true
		},
	}
}

func fixture(t *testing.T, latency int) (*sim.Controller, *sim.RegisterMap, *Scheduler, []*word) {
	ctrl := sim.NewController(sim.WithLatency(latency))
	dev := sim.NewRegisterMap()
	dev.SetWord(0x08, 2981)
	dev.SetWord(0x09, 16400)
	dev.SetWord(0x0a, 0xfe0c)
	ctrl.Attach(0x0b, dev)
	words := []*word{{}, {}, {}}
	steps := []Step{
		words[0].step("temperature", 0x0b, 0x08),
		words[1].step("voltage", 0x0b, 0x09),
		words[2].step("current", 0x0b, 0x0a),
	}
	s := New("test", i2c.NewBus(ctrl), steps, WithFaultHandler(func(step string) {
		t.Logf("fault in %s", step)
	}))
	return ctrl, dev, s, words
}

func run(ctrl *sim.Controller, s *Scheduler, limit int) []ResumePoint {
	var visited []ResumePoint
	for i := 0; i < limit; i++ {
		s.Tick()
		r := s.Snapshot().Resume
		if len(visited) == 0 || visited[len(visited)-1] != r {
			visited = append(visited, r)
		}
		if !s.Pending() {
			break
		}
		ctrl.Step()
	}
	return visited
}

func TestScheduler_VisitsStepsInOrder(t *testing.T) {
	ctrl, _, s, words := fixture(t, 1)
	s.Trigger()
	visited := run(ctrl, s, 200)
	assert.Equal(t, []ResumePoint{0, 1, 2, 0}, visited)
	assert.False(t, s.Pending())
	assert.Equal(t, uint64(1), s.Snapshot().Cycles)
	assert.Equal(t, uint16(2981), words[0].value)
	assert.Equal(t, uint16(16400), words[1].value)
	assert.Equal(t, uint16(0xfe0c), words[2].value)

	// a second trigger sweeps again without reinitializing
	s.Trigger()
	visited = run(ctrl, s, 200)
	assert.Equal(t, []ResumePoint{0, 1, 2, 0}, visited)
	assert.Equal(t, uint64(2), s.Snapshot().Cycles)
	assert.Equal(t, uint64(1), s.Snapshot().Reinits)
}

func TestScheduler_CompletedStepsFallThrough(t *testing.T) {
	ctrl, _, s, words := fixture(t, 0)
	s.Trigger()
	s.Tick()
	assert.False(t, s.Pending(), "a latency free bus finishes the whole chain in one tick")
	assert.Equal(t, 3, countKind(ctrl.Actions(), sim.ActStop))
	for _, w := range words {
		assert.True(t, w.valid)
	}
}

func TestScheduler_IdleWithoutTrigger(t *testing.T) {
	ctrl, _, s, _ := fixture(t, 0)
	for i := 0; i < 5; i++ {
		s.Tick()
	}
	assert.Equal(t, []sim.Action{{Kind: sim.ActBaud, Byte: 0xff}}, ctrl.Actions(), "only the initial reinit")
	assert.Equal(t, ResumePoint(0), s.Snapshot().Resume)
}

func TestScheduler_ResetMidChain(t *testing.T) {
	ctrl, _, s, words := fixture(t, 1)
	s.Trigger()
	for s.Snapshot().Resume != 1 || s.Snapshot().SubStep == "start" {
		s.Tick()
		ctrl.Step()
	}
	require.True(t, words[0].valid)
	ctrl.ClearActions()

	s.RequestReset()
	s.Tick()
	snap := s.Snapshot()
	assert.Equal(t, uint64(2), snap.Reinits)
	assert.Equal(t, ResumePoint(0), snap.Resume, "the chain restarts from the first step")
	assert.Equal(t, []sim.Action{{Kind: sim.ActBaud, Byte: 0xff}, {Kind: sim.ActStart}}, ctrl.Actions())

	ctrl.Step()
	visited := run(ctrl, s, 200)
	assert.Equal(t, []ResumePoint{0, 1, 2, 0}, visited)
	assert.Equal(t, uint64(2), s.Snapshot().Reinits, "reinit runs exactly once per reset")
	assert.Equal(t, 3, countKind(ctrl.Actions(), sim.ActStop))
}

func TestScheduler_IllegalReinitializes(t *testing.T) {
	ctrl := sim.NewController(sim.WithLatency(1))
	dev := sim.NewRegisterMap()
	dev.SetWord(0x08, 2981)
	ctrl.Attach(0x0b, dev)
	w := &word{value: 2950, valid: true}
	var faults []string
	s := New("test", i2c.NewBus(ctrl), []Step{w.step("temperature", 0x0b, 0x08)},
		WithFaultHandler(func(step string) { faults = append(faults, step) }))

	s.Trigger()
	s.Tick()
	ctrl.Step()
	s.Tick()
	ctrl.Step()
	ctrl.InjectBusCollision()
	s.Tick()

	assert.Equal(t, []string{"temperature"}, faults)
	assert.Equal(t, uint16(2950), w.value, "stale value is kept")
	assert.False(t, w.valid)
	snap := s.Snapshot()
	assert.Equal(t, Reinitializing, snap.Resume)
	assert.True(t, snap.Pending, "the cycle is retried after reinit")
	assert.Equal(t, uint64(1), snap.Illegals)

	visited := run(ctrl, s, 200)
	assert.Equal(t, ResumePoint(0), visited[0])
	assert.Equal(t, uint64(2), s.Snapshot().Reinits)
	assert.True(t, w.valid)
	assert.Equal(t, uint16(2981), w.value)
}

func TestScheduler_NackedStepAdvances(t *testing.T) {
	ctrl, _, s, words := fixture(t, 0)
	ctrl.Detach(0x0b)
	words[1].value, words[1].valid = 16000, true
	s.Trigger()
	s.Tick()
	assert.False(t, s.Pending())
	assert.Equal(t, uint64(3), s.Snapshot().Nacks)
	assert.Equal(t, uint16(16000), words[1].value)
	assert.False(t, words[1].valid)
	assert.Equal(t, uint64(1), s.Snapshot().Reinits, "a nack is not a bus fault")
}

func TestWatchdog(t *testing.T) {
	ctrl, _, s, _ := fixture(t, 1)
	wd := &Watchdog{Limit: 3}
	s.Trigger()
	s.Tick()
	ctrl.Freeze(true)

	fired := 0
	for i := 0; i < 3; i++ {
		s.Tick()
		if wd.Observe(s) {
			fired++
		}
	}
	assert.Equal(t, 0, fired, "the first observation only records the position")
	s.Tick()
	assert.True(t, wd.Observe(s))

	ctrl.Freeze(false)
	s.Tick()
	assert.Equal(t, uint64(2), s.Snapshot().Reinits)
	assert.Equal(t, uint64(1), wd.Fired())

	// an idle scheduler never looks stalled
	run(ctrl, s, 200)
	for i := 0; i < 10; i++ {
		s.Tick()
		assert.False(t, wd.Observe(s))
	}
}

func TestResumePoint_String(t *testing.T) {
	assert.Equal(t, "reinitializing", Reinitializing.String())
	assert.Equal(t, "step-2", ResumePoint(2).String())
}

func countKind(actions []sim.Action, kind sim.ActionKind) int {
	n := 0
	for _, a := range actions {
		if a.Kind == kind {
			n++
		}
	}
	return n
}
