package agent

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/hfxlab/tempo/logx"
	"github.com/hfxlab/tempo/timeline"
)

// Mode selects how a TimedAgent consumes its merged schedule stream.
type Mode int

const (
	// ModeDrain executes every currently-due action in a single Cycle
	// call. Bursts are expected when many schedules align; the external
	// runner pays at most one scheduling hop of latency per due action.
	ModeDrain Mode = iota

	// ModeStep awaits exactly one action per Cycle call, yielding control
	// between fires. Use it when the agent shares a cooperative loop with
	// other, less frequent agents that a burst must not starve.
	ModeStep
)

// ErrorPolicy decides what a cycle does with an action error.
type ErrorPolicy int

const (
	// FailFast stops the agent and returns the error from Cycle. This is
	// the default: a silently skipped experiment tick would corrupt the
	// analysis of the run later.
	FailFast ErrorPolicy = iota

	// ContinueOnError logs the error and keeps firing. Explicit opt-in.
	ContinueOnError
)

// A TimedAgent fires the actions of a fixed set of schedules at their
// scheduled times. Its life cycle is driven externally through Initialise,
// Cycle and Terminate.
type TimedAgent struct {
	HookableBase

	name      string
	actuators []Actuator
	schedules []timeline.Schedule
	merger    *timeline.Merger
	clock     timeline.Clock
	mode      Mode
	policy    ErrorPolicy
	sink      EventSink

	status Status
	err    error
	fired  int
	log    zerolog.Logger
}

// Option configures a TimedAgent.
type Option func(*TimedAgent)

// WithMode selects the cycle mode. The default is ModeDrain.
func WithMode(m Mode) Option {
	return func(a *TimedAgent) { a.mode = m }
}

// WithErrorPolicy selects what happens when an action fails. The default is
// FailFast.
func WithErrorPolicy(p ErrorPolicy) Option {
	return func(a *TimedAgent) { a.policy = p }
}

// WithClock replaces the wall clock, mainly for tests.
func WithClock(c timeline.Clock) Option {
	return func(a *TimedAgent) { a.clock = c }
}

// WithEventSink forwards every fired action and actuator event to sink.
func WithEventSink(s EventSink) Option {
	return func(a *TimedAgent) { a.sink = s }
}

// New creates a TimedAgent firing the given schedules through the given
// actuators. The schedules are not anchored to the clock until Initialise
// is called.
func New(
	name string,
	actuators []Actuator,
	schedules []timeline.Schedule,
	opts ...Option,
) *TimedAgent {
	a := &TimedAgent{
		name:      name,
		actuators: actuators,
		schedules: schedules,
		clock:     timeline.NewWallClock(),
		log:       logx.With("agent").With().Str("agent", name).Logger(),
	}

	for _, opt := range opts {
		opt(a)
	}

	return a
}

// Name returns the agent name.
func (a *TimedAgent) Name() string {
	return a.name
}

// Status returns the current life-cycle state.
func (a *TimedAgent) Status() Status {
	return a.status
}

// Err returns the action error that failed the agent, if any.
func (a *TimedAgent) Err() error {
	return a.err
}

// Fired returns the number of actions fired so far.
func (a *TimedAgent) Fired() int {
	return a.fired
}

// Done reports whether the agent reached a terminal state.
func (a *TimedAgent) Done() bool {
	return a.status.Terminal()
}

// Initialise anchors the schedules to the current clock time and moves the
// agent to Running. An agent whose schedules are all empty completes
// immediately.
func (a *TimedAgent) Initialise(_ context.Context) error {
	if a.status != StatusUninitialised {
		return fmt.Errorf("agent %s: initialise called twice", a.name)
	}

	a.merger = timeline.NewMerger(a.clock, a.schedules...)
	a.schedules = nil // owned by the merger now
	a.status = StatusRunning

	if !a.merger.HasNext() {
		a.status = StatusCompleted
	}

	a.log.Debug().Stringer("status", a.status).Msg("initialised")

	return nil
}

// Cycle advances the agent by one cycle. In ModeDrain it fires every
// currently-due action and returns; in ModeStep it blocks until exactly one
// action is due and fires it. A Cycle on a terminal agent is a logged no-op.
func (a *TimedAgent) Cycle(ctx context.Context) error {
	switch {
	case a.status == StatusUninitialised:
		return fmt.Errorf("agent %s: cycle called before initialise", a.name)
	case a.status.Terminal():
		a.log.Warn().
			Stringer("status", a.status).
			Msg("cycle called after the agent terminated")
		return nil
	}

	if a.mode == ModeStep {
		return a.step(ctx)
	}
	return a.drain(ctx)
}

func (a *TimedAgent) drain(ctx context.Context) error {
	for {
		// Cancellation only takes effect between fires, never halfway
		// through one.
		if ctx.Err() != nil {
			a.cancel()
			return nil
		}

		f, ok := a.merger.NextReady()
		if !ok {
			if !a.merger.HasNext() {
				a.complete()
			}
			return nil
		}

		if err := a.fire(f); err != nil {
			return err
		}
		if a.status.Terminal() {
			return nil
		}
	}
}

func (a *TimedAgent) step(ctx context.Context) error {
	f, err := a.merger.Next(ctx)
	switch {
	case err == nil:
		return a.fire(f)
	case errors.Is(err, timeline.ErrExhausted):
		a.complete()
		return nil
	case errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		a.cancel()
		return nil
	default:
		a.fail(err)
		return err
	}
}

func (a *TimedAgent) fire(f timeline.Firing) error {
	hctx := HookCtx{Agent: a, Pos: HookPosBeforeAction, Firing: f}
	a.InvokeHook(hctx)

	err := f.Action.Attempt()
	a.fired++

	hctx.Pos = HookPosAfterAction
	hctx.Err = err
	a.InvokeHook(hctx)

	a.forward(f, err)

	if err == nil {
		return nil
	}

	if a.policy == ContinueOnError {
		a.log.Error().
			Err(err).
			Str("action", f.Action.Name()).
			Msg("action failed, continuing")
		return nil
	}

	a.fail(err)
	return fmt.Errorf("agent %s: action %s: %w", a.name, f.Action.Name(), err)
}

// forward sends the firing record and any events the actuators queued
// during the attempt to the event sink.
func (a *TimedAgent) forward(f timeline.Firing, attemptErr error) {
	if a.sink == nil {
		// Still drain the actuator queues so they do not grow without
		// bound.
		for _, actu := range a.actuators {
			actu.TakeEvents()
		}
		return
	}

	evt := NewEvent(f.Action.Name())
	evt.Agent = a.name
	evt.Source = f.Source
	evt.Due = f.Due
	evt.Fired = a.clock.Now()
	evt.Overshoot = f.Overshoot
	if attemptErr != nil {
		evt.Detail = map[string]any{"error": attemptErr.Error()}
	}
	a.sink.Record(evt)

	for _, actu := range a.actuators {
		for _, e := range actu.TakeEvents() {
			if e.Agent == "" {
				e.Agent = a.name
			}
			if e.Fired.IsZero() {
				e.Fired = evt.Fired
			}
			a.sink.Record(e)
		}
	}
}

// Terminate releases the schedule resources. A Running agent transitions to
// Cancelled; terminal agents are left as they are. Terminate is idempotent.
func (a *TimedAgent) Terminate() error {
	if !a.status.Terminal() {
		a.cancel()
	}
	return nil
}

func (a *TimedAgent) complete() {
	a.status = StatusCompleted
	a.merger = nil
	a.log.Info().Int("fired", a.fired).Msg("completed all scheduled events")
}

func (a *TimedAgent) cancel() {
	a.status = StatusCancelled
	a.merger = nil
	a.log.Debug().Int("fired", a.fired).Msg("cancelled")
}

func (a *TimedAgent) fail(err error) {
	a.status = StatusFailed
	a.merger = nil
	a.err = err
	a.log.Error().Err(err).Int("fired", a.fired).Msg("failed")
}
