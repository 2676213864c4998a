package fbmirror

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"periph.io/x/conn/v3/physic"
)

// State is a phase of the pacing loop.
type State uint8

const (
	Running State = iota
	Capturing
	Processing
	Writing
	Pacing
	Stopped
)

func (s State) String() string {
	switch s {
	case Running:
		return "running"
	case Capturing:
		return "capturing"
	case Processing:
		return "processing"
	case Writing:
		return "writing"
	case Pacing:
		return "pacing"
	case Stopped:
		return "stopped"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Pipeline is one frame cycle split in its phases. Mirror implements it.
type Pipeline interface {
	Capture() error
	Process()
	Commit() (int, error)
}

// CycleError reports the phase in which a cycle failed.
type CycleError struct {
	State State
	Err   error
}

func (e *CycleError) Error() string {
	return "fbmirror: " + e.State.String() + ": " + e.Err.Error()
}

func (e *CycleError) Unwrap() error {
	return e.Err
}

// Stats summarizes a Run.
type Stats struct {
	Frames   uint64        // completed cycles
	Writes   uint64        // stored samples over all cycles
	Overruns uint64        // cycles longer than the period
	Busy     time.Duration // time spent inside cycles, pacing excluded
}

// Pacer drives a Pipeline at a fixed rate.
type Pacer struct {
	// Period is the target cycle duration. Zero runs cycles back to back.
	Period time.Duration
	// Once stops the loop after the first completed cycle.
	Once bool
	// OnTransition, when set, is called on every state change.
	OnTransition func(State)
	// Logger defaults to slog.Default().
	Logger *slog.Logger

	state State
	now   func() time.Time
	sleep func(time.Duration)
}

// NewPacer returns a Pacer running at rate cycles per second.
func NewPacer(rate physic.Frequency, once bool) *Pacer {
	p := &Pacer{
		Once:  once,
		now:   time.Now,
		sleep: time.Sleep,
	}
	if rate > 0 {
		p.Period = rate.Period()
	}
	return p
}

// State returns the current state of the loop.
func (p *Pacer) State() State {
	return p.state
}

// Run executes cycles until ctx is cancelled, a cycle fails or, with Once,
// the first cycle completes.
//
// Cancellation is only observed between cycles: a started cycle always runs
// to completion, including its stores, and the pacing sleep is not cut
// short. A cancelled context is a clean stop and returns a nil error.
// A failing phase stops the loop and returns a *CycleError.
func (p *Pacer) Run(ctx context.Context, pl Pipeline) (Stats, error) {
	log := p.Logger
	if log == nil {
		log = slog.Default()
	}
	if p.now == nil {
		p.now = time.Now
	}
	if p.sleep == nil {
		p.sleep = time.Sleep
	}

	var st Stats
	p.set(Running)
	for {
		if ctx.Err() != nil {
			log.Info("fbmirror: stop requested", "frames", st.Frames, "writes", st.Writes)
			p.set(Stopped)
			return st, nil
		}

		start := p.now()
		p.set(Capturing)
		if err := pl.Capture(); err != nil {
			return st, p.fail(Capturing, err)
		}
		p.set(Processing)
		pl.Process()
		p.set(Writing)
		n, err := pl.Commit()
		st.Writes += uint64(n)
		if err != nil {
			return st, p.fail(Writing, err)
		}
		st.Frames++
		elapsed := p.now().Sub(start)
		st.Busy += elapsed

		if p.Once {
			log.Info("fbmirror: ran once, exiting now", "writes", n, "elapsed", elapsed)
			p.set(Stopped)
			return st, nil
		}

		p.set(Pacing)
		if wait := p.Period - elapsed; wait > 0 {
			p.sleep(wait)
		} else if p.Period > 0 && elapsed > p.Period {
			st.Overruns++
			log.Debug("fbmirror: cycle overran period", "elapsed", elapsed, "period", p.Period)
		}
		p.set(Running)
	}
}

func (p *Pacer) fail(s State, err error) error {
	p.set(Stopped)
	return &CycleError{State: s, Err: err}
}

func (p *Pacer) set(s State) {
	p.state = s
	if p.OnTransition != nil {
		p.OnTransition(s)
	}
}
