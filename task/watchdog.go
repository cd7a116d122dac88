package task

import "log/slog"

// Watchdog requests a reset when a scheduler with a pending cycle has not
// moved for Limit ticks. Progress is measured by the step and sub-step the
// scheduler would resume at, plus its completed cycle count.
type Watchdog struct {
	Limit int
	Log   *slog.Logger

	stale int
	last  position
	fired uint64
}

type position struct {
	resume  ResumePoint
	subStep string
	cycles  uint64
}

// Observe is called after every Tick of s. It reports whether a reset was
// requested.
func (w *Watchdog) Observe(s *Scheduler) bool {
	snap := s.Snapshot()
	pos := position{resume: snap.Resume, subStep: snap.SubStep, cycles: snap.Cycles}
	if !snap.Pending || pos != w.last {
		w.last = pos
		w.stale = 0
		return false
	}
	w.stale++
	if w.Limit <= 0 || w.stale < w.Limit {
		return false
	}
	w.stale = 0
	w.fired++
	s.RequestReset()
	if w.Log != nil {
		w.Log.Warn("bus stalled, requesting reset", "bus", snap.Name, "step", snap.Step, "sub_step", snap.SubStep)
	}
	return true
}

// Fired counts the resets this watchdog requested.
func (w *Watchdog) Fired() uint64 {
	return w.fired
}
