package timeline

import "time"

// A Schedule lazily produces the timeline of one scripted behaviour as an
// ordered sequence of (delay, action) pairs. Each delay is relative to the
// previous fire, must be non-negative, and may be infinite in number.
//
// A Schedule is owned exclusively by the Merger consuming it. Exhaustion is
// signalled by ok == false, never by a panic or an error.
type Schedule interface {
	// Next advances the schedule cursor and returns the delay to wait
	// before firing act. ok is false once the schedule is exhausted.
	Next() (delay time.Duration, act Action, ok bool)
}

// Step is one element of a fixed schedule.
type Step struct {
	Delay  time.Duration
	Action Action
}

type sliceSchedule struct {
	steps []Step
	pos   int
}

// Steps creates a finite Schedule from a fixed list of steps.
func Steps(steps ...Step) Schedule {
	return &sliceSchedule{steps: steps}
}

func (s *sliceSchedule) Next() (time.Duration, Action, bool) {
	if s.pos >= len(s.steps) {
		return 0, nil, false
	}
	step := s.steps[s.pos]
	s.pos++
	return step.Delay, step.Action, true
}

type tickSchedule struct {
	interval time.Duration
	action   Action
	left     int
}

// Ticks creates a Schedule that fires act n times at a fixed interval.
// A negative n makes the schedule infinite.
func Ticks(interval time.Duration, act Action, n int) Schedule {
	return &tickSchedule{interval: interval, action: act, left: n}
}

func (s *tickSchedule) Next() (time.Duration, Action, bool) {
	if s.left == 0 {
		return 0, nil, false
	}
	if s.left > 0 {
		s.left--
	}
	return s.interval, s.action, true
}
