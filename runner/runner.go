// Package runner drives the life cycle of a set of agents until they all
// finish, matching the environment execution loop the agents were designed
// for: initialise everything, cycle cooperatively, terminate everything.
package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/hfxlab/tempo/logx"
)

// An Agent is the life-cycle contract the runner drives. TimedAgent
// implements it; so does anything else that wants to share the loop.
type Agent interface {
	Name() string
	Initialise(ctx context.Context) error
	Cycle(ctx context.Context) error
	Terminate() error

	// Done reports that the agent reached a terminal state and must not
	// be cycled again.
	Done() bool
}

// A RunEndHandler is called once after a run ends, with the wall time the
// run ended at.
type RunEndHandler interface {
	Handle(endedAt time.Time)
}

// defaultCycleRate bounds how often the serial loop sweeps over agents
// whose schedules have nothing due, in passes per second.
const defaultCycleRate = 50

// A Runner cycles its agents until all of them are done, the context is
// cancelled, or an agent fails. Agent errors are fatal to the whole run:
// continuing after a corrupted timeline is never the silent default.
type Runner struct {
	agents      []Agent
	limiter     *rate.Limiter
	endHandlers []RunEndHandler

	isPaused     bool
	isPausedLock sync.Mutex
	pauseLock    sync.Mutex

	singleRunLock sync.Mutex

	log zerolog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithCycleRate overrides the pass frequency of the serial loop.
func WithCycleRate(passesPerSecond float64) Option {
	return func(r *Runner) {
		r.limiter = rate.NewLimiter(rate.Limit(passesPerSecond), 1)
	}
}

// New creates a Runner.
func New(opts ...Option) *Runner {
	r := &Runner{
		limiter: rate.NewLimiter(defaultCycleRate, 1),
		log:     logx.With("runner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// AddAgent registers an agent to be driven by the run.
func (r *Runner) AddAgent(a Agent) {
	r.agents = append(r.agents, a)
}

// RegisterRunEndHandler registers a handler invoked after the run ends,
// whether it completed, failed or was cancelled.
func (r *Runner) RegisterRunEndHandler(h RunEndHandler) {
	r.endHandlers = append(r.endHandlers, h)
}

// Run drives all agents serially, round-robin, until every agent is done.
// Each pass is paced so that agents with nothing due are not busy-cycled.
// Intended for drain-mode agents; a step-mode agent would block the pass
// until its next action is due.
func (r *Runner) Run(ctx context.Context) error {
	r.singleRunLock.Lock()
	defer r.singleRunLock.Unlock()

	if err := r.initialiseAll(ctx); err != nil {
		return err
	}
	defer r.finish()

	for {
		allDone := true
		for _, ag := range r.agents {
			if ag.Done() {
				continue
			}
			allDone = false

			r.pauseLock.Lock()
			err := ag.Cycle(ctx)
			r.pauseLock.Unlock()

			if err != nil {
				return fmt.Errorf("agent %s: %w", ag.Name(), err)
			}
		}

		if allDone {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
	}
}

// RunConcurrent drives every agent in its own goroutine, cycling it until
// it is done. This is the mode for step agents: each blocks on its own next
// due action without holding up the others. The first agent error cancels
// the rest of the run and is returned.
func (r *Runner) RunConcurrent(ctx context.Context) error {
	r.singleRunLock.Lock()
	defer r.singleRunLock.Unlock()

	if err := r.initialiseAll(ctx); err != nil {
		return err
	}
	defer r.finish()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, len(r.agents))

	for _, ag := range r.agents {
		ag := ag
		wg.Add(1)
		go func() {
			defer wg.Done()
			for !ag.Done() {
				// Gate on the pause lock without holding it through the
				// cycle: a step agent blocks inside Cycle and must not
				// serialise the other agents.
				r.pauseLock.Lock()
				r.pauseLock.Unlock() //nolint:staticcheck // gate, not critical section
				err := ag.Cycle(ctx)

				if err != nil {
					errCh <- fmt.Errorf("agent %s: %w", ag.Name(), err)
					cancel()
					return
				}
			}
		}()
	}

	wg.Wait()
	close(errCh)

	if err := <-errCh; err != nil {
		return err
	}
	return ctx.Err()
}

// Pause prevents the runner from cycling more agents until Continue.
func (r *Runner) Pause() {
	r.isPausedLock.Lock()
	defer r.isPausedLock.Unlock()

	if r.isPaused {
		return
	}

	r.pauseLock.Lock()
	r.isPaused = true
}

// Continue resumes a paused run.
func (r *Runner) Continue() {
	r.isPausedLock.Lock()
	defer r.isPausedLock.Unlock()

	if !r.isPaused {
		return
	}

	r.pauseLock.Unlock()
	r.isPaused = false
}

func (r *Runner) initialiseAll(ctx context.Context) error {
	for _, ag := range r.agents {
		if err := ag.Initialise(ctx); err != nil {
			return fmt.Errorf("initialise agent %s: %w", ag.Name(), err)
		}
		r.log.Debug().Str("agent", ag.Name()).Msg("initialised")
	}
	return nil
}

func (r *Runner) finish() {
	for _, ag := range r.agents {
		if err := ag.Terminate(); err != nil {
			r.log.Error().Err(err).Str("agent", ag.Name()).Msg("terminate failed")
		}
	}

	endedAt := time.Now()
	for _, h := range r.endHandlers {
		h.Handle(endedAt)
	}
}
