package rover

import (
	"context"
	"log/slog"
	"time"

	"github.com/mklimuk/powerboard/config"
	"github.com/mklimuk/powerboard/i2c"
	"github.com/mklimuk/powerboard/state"
	"github.com/mklimuk/powerboard/task"
)

// Runner is the control loop slice that owns the I2C side of the board:
// it triggers a polling cycle on both buses every poll interval, ticks the
// schedulers, resets stalled buses and expires manual fan commands.
type Runner struct {
	settings *config.Settings
	state    *state.State
	buses    []*busLoop
	log      *slog.Logger
	now      func() time.Time
	before   func()
	ticks    uint64
}

type busLoop struct {
	sched    *task.Scheduler
	watchdog *task.Watchdog
}

type RunnerOpts struct {
	Log        *slog.Logger
	Now        func() time.Time
	BeforeTick func()
	Fault      func(step string)
}

type RunnerOpt func(*RunnerOpts)

func WithLogger(log *slog.Logger) RunnerOpt {
	return func(o *RunnerOpts) {
		o.Log = log
	}
}

// WithClock replaces time.Now for fan command expiry.
func WithClock(now func() time.Time) RunnerOpt {
	return func(o *RunnerOpts) {
		o.Now = now
	}
}

// WithBeforeTick installs a hook run at the start of every tick; simulated
// hardware advances its clock there.
func WithBeforeTick(fn func()) RunnerOpt {
	return func(o *RunnerOpts) {
		o.BeforeTick = fn
	}
}

func WithFaultHandler(fault func(step string)) RunnerOpt {
	return func(o *RunnerOpts) {
		o.Fault = fault
	}
}

// NewRunner builds the bus A and bus B schedulers on top of the given buses.
func NewRunner(settings *config.Settings, st *state.State, busA, busB *i2c.Bus, opts ...RunnerOpt) *Runner {
	o := &RunnerOpts{Log: slog.Default(), Now: time.Now}
	for _, opt := range opts {
		opt(o)
	}
	addr := Addresses{
		FanController: settings.Devices.FanController,
		Battery:       settings.Devices.Battery,
		Charger:       settings.Devices.Charger,
	}
	r := &Runner{settings: settings, state: st, log: o.Log, now: o.Now, before: o.BeforeTick}
	schedOpts := []task.SchedulerOpt{task.WithLogger(o.Log)}
	if o.Fault != nil {
		schedOpts = append(schedOpts, task.WithFaultHandler(o.Fault))
	}
	for _, b := range []struct {
		name  string
		bus   *i2c.Bus
		steps []task.Step
	}{
		{"A", busA, BusA(st, addr)},
		{"B", busB, BusB(st, addr)},
	} {
		r.buses = append(r.buses, &busLoop{
			sched:    task.New(b.name, b.bus, b.steps, schedOpts...),
			watchdog: &task.Watchdog{Limit: settings.StallTicks(), Log: o.Log},
		})
	}
	return r
}

// Tick runs one control loop period.
func (r *Runner) Tick() {
	if r.before != nil {
		r.before()
	}
	if r.ticks%uint64(r.settings.PollTicks()) == 0 {
		for _, b := range r.buses {
			if b.sched.Pending() {
				r.log.Debug("previous cycle still running", "bus", b.sched.Name())
				continue
			}
			b.sched.Trigger()
		}
	}
	r.ticks++
	for _, b := range r.buses {
		b.sched.Tick()
		b.watchdog.Observe(b.sched)
	}
	if r.state.Communication.ExpireFanCommand(r.now(), r.settings.FanCommandTimeout()) {
		r.log.Info("fan command expired, back to automatic speed")
	}
}

// Run ticks at the configured period until ctx is done.
func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.settings.Tick())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			r.Tick()
		}
	}
}

// Ticks returns the number of control loop periods run so far.
func (r *Runner) Ticks() uint64 {
	return r.ticks
}

// RequestReset asks every bus to reinitialize at its next tick.
func (r *Runner) RequestReset() {
	for _, b := range r.buses {
		b.sched.RequestReset()
	}
}

func (r *Runner) Snapshots() []task.Snapshot {
	out := make([]task.Snapshot, 0, len(r.buses))
	for _, b := range r.buses {
		out = append(out, b.sched.Snapshot())
	}
	return out
}
