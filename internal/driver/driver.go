package driver

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/scrapekit/internal/changestore"
	"github.com/roach88/scrapekit/internal/collector"
	"github.com/roach88/scrapekit/internal/record"
)

// State is a step of a run.
type State int

const (
	StateAwaitInput State = iota
	StateCollecting
	StateDeciding
	StateWritten
	StateUnchanged
	StateNoData
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitInput:
		return "await_input"
	case StateCollecting:
		return "collecting"
	case StateDeciding:
		return "deciding"
	case StateWritten:
		return "written"
	case StateUnchanged:
		return "unchanged"
	case StateNoData:
		return "no_data"
	case StateDone:
		return "done"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Outcome is the result of a completed run.
type Outcome int

const (
	OutcomeNoData Outcome = iota
	OutcomeUnchanged
	OutcomeWritten
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNoData:
		return "no_data"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeWritten:
		return "written"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Message is the operator status line for o.
func Message(o Outcome, artifact string) string {
	switch o {
	case OutcomeWritten:
		return "data collected and saved: " + artifact
	case OutcomeUnchanged:
		return "data collected but unchanged (not saved)"
	}
	return "no data collected (nothing to save)"
}

// Persister stores a collection when it differs from the stored one.
// *changestore.Store implements it.
type Persister interface {
	Path() string
	PersistIfChanged(ctx context.Context, c record.Collection) (changestore.Result, error)
}

// Observer is called on every state transition.
type Observer func(from, to State)

// Option configures a Driver.
type Option func(*Driver)

// WithObserver registers fn for state transitions.
func WithObserver(fn Observer) Option {
	return func(d *Driver) { d.observers = append(d.observers, fn) }
}

// Driver runs a single collection.
type Driver struct {
	collector collector.Collector
	store     Persister
	prompter  *Prompter
	out       io.Writer
	observers []Observer

	state  State
	result changestore.Result
}

// New returns a driver reading counts from in and writing prompts, progress
// and status to out.
func New(c collector.Collector, store Persister, in io.Reader, out io.Writer, opts ...Option) *Driver {
	d := &Driver{
		collector: c,
		store:     store,
		prompter:  NewPrompter(in, out),
		out:       out,
		state:     StateAwaitInput,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns the current state.
func (d *Driver) State() State {
	return d.state
}

// Result returns the store result of the last persist. It is the zero
// Result unless the run reached Deciding with a non-empty collection.
func (d *Driver) Result() changestore.Result {
	return d.result
}

// Run prompts for a count, collects and persists. Remote failures never
// fail a run; they show up as fewer records or OutcomeNoData. Errors are
// returned for missing input and for local persistence failures.
func (d *Driver) Run(ctx context.Context) (Outcome, error) {
	src := d.collector.Source()
	fmt.Fprintf(d.out, "\n\t==={ %s }===\n\n", src.Title)

	available := -1
	if p, ok := d.collector.(collector.Preparer); ok {
		n, err := p.Prepare(ctx)
		if err != nil {
			slog.Error("source unavailable", "source", src.Name, "error", err)
			n = 0
		}
		if n == 0 {
			fmt.Fprintln(d.out, "No items available from the source.")
			return d.decide(ctx, nil)
		}
		available = n
	}

	count, err := d.prompter.Count(src.Prompt, src.MinCount)
	if err != nil {
		d.transition(StateDone)
		return OutcomeNoData, err
	}
	if available >= 0 && count > available {
		fmt.Fprintf(d.out, "Only %d available. Processing %d.\n", available, available)
		count = available
	}

	var candidate record.Collection
	if count > 0 {
		d.transition(StateCollecting)
		fmt.Fprintln(d.out, "\n\t==={ Collecting, please be patient. Larger counts take longer. }===")
		candidate = d.collector.Fetch(ctx, count)
		slog.Info("collection finished", "source", src.Name, "requested", count, "records", len(candidate))
	}
	return d.decide(ctx, candidate)
}

// decide persists a non-empty candidate. Runs that collected nothing still
// pass through Collecting and Deciding before NoData.
func (d *Driver) decide(ctx context.Context, candidate record.Collection) (Outcome, error) {
	if d.state != StateCollecting {
		d.transition(StateCollecting)
	}
	d.transition(StateDeciding)
	if len(candidate) == 0 {
		return d.finish(OutcomeNoData), nil
	}

	res, err := d.store.PersistIfChanged(ctx, candidate)
	if err != nil {
		d.transition(StateDone)
		return OutcomeNoData, fmt.Errorf("persist %s: %w", d.collector.Source().Name, err)
	}
	d.result = res
	if res.Written {
		return d.finish(OutcomeWritten), nil
	}
	return d.finish(OutcomeUnchanged), nil
}

func (d *Driver) finish(o Outcome) Outcome {
	switch o {
	case OutcomeWritten:
		d.transition(StateWritten)
	case OutcomeUnchanged:
		d.transition(StateUnchanged)
	default:
		d.transition(StateNoData)
	}
	fmt.Fprintln(d.out, Message(o, d.store.Path()))
	d.transition(StateDone)
	return o
}

func (d *Driver) transition(to State) {
	from := d.state
	d.state = to
	slog.Debug("state transition", "from", from, "to", to)
	for _, fn := range d.observers {
		fn(from, to)
	}
}
