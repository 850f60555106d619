// Package workflow owns the state of a single postal-code lookup screen:
// the current input, whether a lookup is in flight, and the last result.
//
// A presentation layer calls SetInput on keystrokes and Submit on user
// action, and renders from Snapshot or from Subscribe notifications.
package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/dukerupert/buscacep/internal/address"
	"github.com/dukerupert/buscacep/internal/domain"
	"github.com/dukerupert/buscacep/internal/telemetry"
)

// ErrSuperseded is returned by Submit when a newer Submit or a Reset replaced
// it before the registry answered. The stale answer is discarded.
var ErrSuperseded = &domain.Error{Code: domain.ECANCELED, Message: "lookup superseded by a newer submission"}

// Phase is the coarse screen state derived from State.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseResolved
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseResolved:
		return "resolved"
	default:
		return "idle"
	}
}

// State is a snapshot of the workflow.
//
// IsLoading is true only between request dispatch and its resolution.
// Result is non-nil only after a found response; every failed lookup clears it.
type State struct {
	InputText string
	IsLoading bool
	Result    *address.Address

	// LastError is the classification of the last finished submit, or nil.
	LastError error
	// Notice is the user-visible message for LastError.
	Notice string

	// Generation increases with every dispatched request and every Reset.
	Generation uint64
}

// Phase returns the coarse state: idle, loading or resolved.
func (s State) Phase() Phase {
	switch {
	case s.IsLoading:
		return PhaseLoading
	case s.Result != nil || s.LastError != nil:
		return PhaseResolved
	default:
		return PhaseIdle
	}
}

// ErrorReporter receives transport failures, e.g. telemetry.CaptureError.
type ErrorReporter func(ctx context.Context, err error, extras map[string]any)

// Option configures a Workflow.
type Option func(*Workflow)

// WithLogger sets the logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Workflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithMetrics records submissions and in-flight lookups.
func WithMetrics(m *telemetry.LookupMetrics) Option {
	return func(w *Workflow) {
		w.metrics = m
	}
}

// WithErrorReporter forwards transport failures to report.
func WithErrorReporter(report ErrorReporter) Option {
	return func(w *Workflow) {
		w.report = report
	}
}

// Workflow is the validate, request, classify, update unit behind one lookup screen.
// It is safe for concurrent use.
type Workflow struct {
	lookuper address.Lookuper
	logger   *slog.Logger
	metrics  *telemetry.LookupMetrics
	report   ErrorReporter

	// notifyMu serializes mutations with their notifications so subscribers
	// observe states in mutation order. Lock order: notifyMu, then mu.
	notifyMu sync.Mutex

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	subs   map[int]func(State)
	nextID int
}

// New creates a workflow in its initial state: empty input, not loading, no result.
func New(lookuper address.Lookuper, opts ...Option) *Workflow {
	w := &Workflow{
		lookuper: lookuper,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		subs:     make(map[int]func(State)),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Snapshot returns a copy of the current state.
func (w *Workflow) Snapshot() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

// Subscribe registers fn to be called with the new state after every mutation.
// Calls are synchronous and ordered. fn may call Snapshot but must not call
// SetInput, Submit or Reset on the same goroutine.
func (w *Workflow) Subscribe(fn func(State)) (unsubscribe func()) {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	w.subs[id] = fn
	w.mu.Unlock()

	return func() {
		w.mu.Lock()
		delete(w.subs, id)
		w.mu.Unlock()
	}
}

// SetInput records the text currently typed by the user.
func (w *Workflow) SetInput(text string) {
	w.lock()
	w.state.InputText = text
	w.publishLocked()
}

// Reset returns the workflow to its initial state and abandons any in-flight lookup.
func (w *Workflow) Reset() {
	w.lock()
	w.cancelLocked()
	w.state = State{Generation: w.state.Generation + 1}
	w.publishLocked()
}

// Submit validates raw, queries the registry and records the outcome.
//
// It returns address.ErrInvalidCode without touching the network when raw has
// fewer than address.MinDigits digits, address.ErrNotFound or
// address.ErrTransport (errors.Is) for failed lookups, and ErrSuperseded when a
// newer Submit or a Reset replaced this one while it was in flight. A newer
// Submit cancels the older request.
func (w *Workflow) Submit(ctx context.Context, raw string) error {
	key, err := address.ParseCode(raw)
	if err != nil {
		w.lock()
		w.state.InputText = raw
		w.state.LastError = err
		w.state.Notice = address.Notice(err)
		w.publishLocked()

		w.metrics.ObserveSubmission(telemetry.OutcomeInvalid)
		w.logger.Info("lookup rejected", "input", raw, "reason", err)
		return err
	}

	w.lock()
	w.cancelLocked()
	reqCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel
	w.state.Generation++
	gen := w.state.Generation
	w.state.InputText = raw
	w.state.IsLoading = true
	w.state.LastError = nil
	w.state.Notice = ""
	w.publishLocked()

	logger := w.logger.With("key", key, "generation", gen)
	logger.Debug("lookup dispatched")
	telemetry.AddBreadcrumb(ctx, "lookup", "dispatch", map[string]any{"key": key})

	done := w.metrics.TrackInFlight()
	addr, err := w.lookuper.Lookup(reqCtx, key)
	done()
	if err == nil && addr == nil {
		err = errors.New("registry returned no address")
	}
	err = address.Classify("workflow.submit", err)

	w.lock()
	if w.state.Generation != gen {
		w.unlock()
		cancel()
		w.metrics.ObserveSubmission(telemetry.OutcomeSuperseded)
		logger.Debug("lookup superseded")
		return ErrSuperseded
	}
	w.cancel = nil
	cancel()

	w.state.IsLoading = false
	if err != nil {
		w.state.Result = nil
		w.state.LastError = err
		w.state.Notice = address.Notice(err)
	} else {
		w.state.Result = addr
		w.state.LastError = nil
		w.state.Notice = ""
	}
	w.publishLocked()

	w.metrics.ObserveSubmission(address.Outcome(err))
	switch address.KindOf(err) {
	case 0:
		logger.Debug("lookup resolved", "city", addr.City, "state", addr.StateCode)
	case address.KindNotFound:
		logger.Info("lookup not found")
	default:
		logger.Warn("lookup failed", "error", err, "code", domain.ErrorCode(err))
		if w.report != nil && !errors.Is(err, context.Canceled) {
			w.report(ctx, err, map[string]any{"key": key})
		}
	}
	return err
}

func (w *Workflow) cancelLocked() {
	if w.cancel != nil {
		w.cancel()
		w.cancel = nil
	}
}

func (w *Workflow) snapshotLocked() State {
	s := w.state
	if s.Result != nil {
		r := *s.Result
		s.Result = &r
	}
	return s
}

// lock takes both locks for a mutation that will be published.
func (w *Workflow) lock() {
	w.notifyMu.Lock()
	w.mu.Lock()
}

func (w *Workflow) unlock() {
	w.mu.Unlock()
	w.notifyMu.Unlock()
}

// publishLocked hands the current state to subscribers. It must be called
// after lock and releases both locks. Subscribers run with only notifyMu
// held, so they may call Snapshot.
func (w *Workflow) publishLocked() {
	snap := w.snapshotLocked()
	subs := make([]func(State), 0, len(w.subs))
	for id := 0; id < w.nextID; id++ {
		if fn, ok := w.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	w.mu.Unlock()
	defer w.notifyMu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
