package timeline

import (
	"container/heap"
	"context"
	"errors"
	"log"
	"time"
)

// ErrExhausted is returned by Merger.Next once every merged schedule has
// run out of items. It signals normal termination, not a failure.
var ErrExhausted = errors.New("all schedules are exhausted")

// minSleep bounds how short a single wait may be, so that a nearly-due
// entry does not degenerate into a busy loop.
const minSleep = time.Millisecond

// A Firing is one due action popped from the merged stream.
type Firing struct {
	Action Action

	// Source is the registration index of the schedule that produced the
	// action.
	Source int

	// Due is the absolute time the action was scheduled for.
	Due time.Time

	// Overshoot is how far past Due the pop happened. Always >= 0.
	Overshoot time.Duration
}

// A Merger merges N schedules into a single globally time-ordered stream of
// due actions, anchored to the clock at construction time.
//
// Across all merged schedules, actions are delivered in non-decreasing due
// time; same-instant actions fire in registration order (first registered,
// first fired). The next due time of a schedule is re-anchored on the
// intended due time of the previous fire rather than on the actual pop
// time, so scheduling overshoot does not compound over many fires.
//
// A Merger owns its schedules and pending entries exclusively. It must only
// be used from one goroutine.
type Merger struct {
	clock   Clock
	pending pendingHeap
}

// NewMerger anchors the given schedules to the current clock time and
// queues the first entry of each. Schedules that are exhausted from the
// start are discarded. A nil clock selects the wall clock.
func NewMerger(clock Clock, schedules ...Schedule) *Merger {
	if clock == nil {
		clock = NewWallClock()
	}

	m := &Merger{clock: clock}
	now := clock.Now()

	for i, sch := range schedules {
		delay, act, ok := sch.Next()
		if !ok {
			continue
		}

		mustValidDelay(delay)
		heap.Push(&m.pending, &scheduleEntry{
			due:    now.Add(delay),
			action: act,
			source: i,
			owner:  sch,
		})
	}

	return m
}

// HasNext reports whether any schedule still has a pending entry.
func (m *Merger) HasNext() bool {
	return m.pending.Len() > 0
}

// Pending returns the number of schedules that still have a pending entry.
func (m *Merger) Pending() int {
	return m.pending.Len()
}

// Next blocks cooperatively until the earliest entry is due, pops it, and
// returns it. It returns ErrExhausted once all schedules have run out, or
// the context error if the context is cancelled while waiting. A cancelled
// wait leaves every schedule cursor untouched.
func (m *Merger) Next(ctx context.Context) (Firing, error) {
	for {
		if m.pending.Len() == 0 {
			return Firing{}, ErrExhausted
		}

		if f, ok := m.popDue(); ok {
			return f, nil
		}

		remaining := m.pending.peek().due.Sub(m.clock.Now())

		// Wait a fraction of the remaining time rather than all of it.
		// The few extra wake-ups buy a tighter bound on how late the
		// fire can be.
		wait := remaining / 4
		if wait < minSleep {
			wait = minSleep
		}

		if err := m.clock.Sleep(ctx, wait); err != nil {
			return Firing{}, err
		}
	}
}

// NextReady pops the earliest entry if it is already due. It never sleeps,
// so a caller can drain every currently-due entry in one pass.
func (m *Merger) NextReady() (Firing, bool) {
	if m.pending.Len() == 0 {
		return Firing{}, false
	}
	return m.popDue()
}

func (m *Merger) popDue() (Firing, bool) {
	head := m.pending.peek()
	now := m.clock.Now()

	remaining := head.due.Sub(now)
	if remaining > 0 {
		return Firing{}, false
	}

	heap.Pop(&m.pending)

	delay, act, ok := head.owner.Next()
	if ok {
		mustValidDelay(delay)
		// remaining is <= 0 here, so this re-anchors the next due time
		// on the intended due time of this fire and cancels the
		// overshoot instead of letting it accumulate.
		heap.Push(&m.pending, &scheduleEntry{
			due:    now.Add(delay + remaining),
			action: act,
			source: head.source,
			owner:  head.owner,
		})
	}

	return Firing{
		Action:    head.action,
		Source:    head.source,
		Due:       head.due,
		Overshoot: -remaining,
	}, true
}

func mustValidDelay(d time.Duration) {
	if d < 0 {
		log.Panicf("schedule yielded a negative delay (%v)", d)
	}
}
