// Package task chains executor operations into a per-bus polling cycle.
// A Scheduler owns one bus; it is driven by Tick from a single control loop
// and keeps its place across ticks in a ResumePoint.
package task

import (
	"fmt"
	"log/slog"

	"github.com/mklimuk/powerboard/i2c"
)

// Reinitializing is the resume point of a scheduler that has to reinitialize
// its bus before the next step.
const Reinitializing ResumePoint = -1

// ResumePoint is the index of the step the next tick continues with.
type ResumePoint int

func (r ResumePoint) String() string {
	if r == Reinitializing {
		return "reinitializing"
	}
	return fmt.Sprintf("step-%d", int(r))
}

// Step is one operation of a cycle. Prepare is called once when the step is
// entered and returns the operation to execute; values decided between
// operations are fixed there. Handle receives every terminal result together
// with the read buffer and must only commit data on i2c.Okay.
type Step struct {
	Name    string
	Prepare func() i2c.Operation
	Handle  func(res i2c.Result, read []byte)
}

// TaskState is everything a scheduler persists between ticks.
type TaskState struct {
	Resume   ResumePoint
	Pending  bool
	Reset    bool
	Progress i2c.Progress
	Current  i2c.Operation
	Prepared bool
}

// Snapshot is a read-only view of a scheduler used by watchdogs and status dumps.
type Snapshot struct {
	Name     string      `yaml:"name"`
	Resume   ResumePoint `yaml:"resume"`
	Step     string      `yaml:"step"`
	SubStep  string      `yaml:"sub_step"`
	Pending  bool        `yaml:"pending"`
	Cycles   uint64      `yaml:"cycles"`
	Reinits  uint64      `yaml:"reinits"`
	Illegals uint64      `yaml:"illegals"`
	Nacks    uint64      `yaml:"nacks"`
}

type SchedulerOpts struct {
	Log   *slog.Logger
	Fault func(step string)
}

type SchedulerOpt func(*SchedulerOpts)

func WithLogger(log *slog.Logger) SchedulerOpt {
	return func(o *SchedulerOpts) {
		o.Log = log
	}
}

// WithFaultHandler installs a hook called with the step name whenever a step
// ends in i2c.Illegal. Tests use it to fail on states that should be
// unreachable.
func WithFaultHandler(fault func(step string)) SchedulerOpt {
	return func(o *SchedulerOpts) {
		o.Fault = fault
	}
}

type Scheduler struct {
	name  string
	bus   *i2c.Bus
	steps []Step
	log   *slog.Logger
	fault func(step string)

	state    TaskState
	cycles   uint64
	reinits  uint64
	illegals uint64
	nacks    uint64
}

// New returns a scheduler that starts by reinitializing bus. steps is the
// fixed chain polled every cycle; it must not be empty.
func New(name string, bus *i2c.Bus, steps []Step, opts ...SchedulerOpt) *Scheduler {
	config := &SchedulerOpts{Log: slog.Default()}
	for _, opt := range opts {
		opt(config)
	}
	return &Scheduler{
		name:  name,
		bus:   bus,
		steps: steps,
		log:   config.Log.With("bus", name),
		fault: config.Fault,
		state: TaskState{Resume: Reinitializing},
	}
}

func (s *Scheduler) Name() string {
	return s.name
}

// Trigger marks a cycle as pending. The chain only advances while a cycle is
// pending; the flag clears once the last step completes.
func (s *Scheduler) Trigger() {
	s.state.Pending = true
}

// Pending reports whether the last triggered cycle is still running.
func (s *Scheduler) Pending() bool {
	return s.state.Pending
}

// RequestReset abandons the in-flight operation at the next tick and
// reinitializes the bus before restarting from the first step.
func (s *Scheduler) RequestReset() {
	s.state.Reset = true
}

// Tick performs all work that is ready without waiting on the bus.
func (s *Scheduler) Tick() {
	if s.state.Reset {
		s.state.Reset = false
		s.abandon()
		s.state.Resume = Reinitializing
	}
	if s.state.Resume == Reinitializing {
		s.bus.Reinit()
		s.reinits++
		s.log.Debug("bus reinitialized", "count", s.reinits)
		s.state.Resume = 0
	}
	if !s.state.Pending {
		return
	}
	for int(s.state.Resume) < len(s.steps) {
		step := &s.steps[s.state.Resume]
		if !s.state.Prepared {
			s.state.Current = step.Prepare()
			s.state.Prepared = true
		}
		res := i2c.Execute(s.bus, &s.state.Current, &s.state.Progress)
		if res == i2c.NotYet {
			return
		}
		s.state.Prepared = false
		if step.Handle != nil {
			step.Handle(res, s.state.Current.Read.Data)
		}
		switch res {
		case i2c.Illegal:
			s.illegals++
			s.log.Warn("illegal bus state, reinitializing", "step", step.Name, "state", s.bus.State())
			if s.fault != nil {
				s.fault(step.Name)
			}
			s.state.Resume = Reinitializing
			return
		case i2c.Nacked:
			s.nacks++
			s.log.Debug("device did not acknowledge", "step", step.Name, "addr", fmt.Sprintf("%#02x", s.state.Current.Address))
		}
		s.state.Resume++
	}
	s.state.Pending = false
	s.state.Resume = 0
	s.cycles++
}

func (s *Scheduler) abandon() {
	if !s.state.Progress.Idle() {
		s.log.Debug("abandoning operation", "step", s.stepName(), "sub_step", s.state.Progress.Step())
	}
	s.state.Progress.Reset()
	s.state.Prepared = false
}

func (s *Scheduler) stepName() string {
	if s.state.Resume < 0 || int(s.state.Resume) >= len(s.steps) {
		return ""
	}
	return s.steps[s.state.Resume].Name
}

func (s *Scheduler) Snapshot() Snapshot {
	return Snapshot{
		Name:     s.name,
		Resume:   s.state.Resume,
		Step:     s.stepName(),
		SubStep:  s.state.Progress.Step(),
		Pending:  s.state.Pending,
		Cycles:   s.cycles,
		Reinits:  s.reinits,
		Illegals: s.illegals,
		Nacks:    s.nacks,
	}
}
