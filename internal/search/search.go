// Package search drives issue searches for one view: it debounces input,
// cancels superseded requests and makes sure only the newest request can
// change what the view shows.
package search

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/gi8lino/jirafind/internal/jira"
	"github.com/gi8lino/jirafind/internal/jql"
	"github.com/jonboulle/clockwork"
)

// DefaultDebounce is the quiet period between the last input and the request.
const DefaultDebounce = 300 * time.Millisecond

// Options tune an Orchestrator. Zero values select defaults.
type Options struct {
	Debounce   time.Duration   // quiet period before dispatch
	MaxResults int             // result cap passed to the searcher
	Clock      clockwork.Clock // timer source
	Logger     *slog.Logger
}

// State is a snapshot of the search view.
type State struct {
	Query    string
	Statuses []string // active status filters, sorted
	MineOnly bool
	Loading  bool
	Issues   []jira.Issue
	Err      error
}

// IsCancelled reports whether err only means the request was superseded or stopped.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// Orchestrator owns the search state of one view.
//
// Every input event advances a token. A dispatched request remembers the
// token it was started with and may only change state if that token is still
// current when it settles. Callbacks run on a dedicated goroutine in the order
// the state changed, so they may call back into the Orchestrator.
type Orchestrator struct {
	searcher   jira.Searcher
	projectKey string
	debounce   time.Duration
	maxResults int
	clock      clockwork.Clock
	logger     *slog.Logger

	mu       sync.Mutex
	query    string
	statuses map[string]struct{}
	mineOnly bool
	loading  bool
	issues   []jira.Issue
	err      error

	token   uint64             // advances on every input event
	timer   clockwork.Timer    // pending debounce, nil when idle
	cancel  context.CancelFunc // cancels the in-flight request
	running bool

	callbacks callbacks
	pending   []event
	wake      chan struct{}
	stop      chan struct{}
}

// New returns an Orchestrator searching projectKey through searcher.
func New(searcher jira.Searcher, projectKey string, opts Options) *Orchestrator {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = jira.MaxResults
	}
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{
		searcher:   searcher,
		projectKey: projectKey,
		debounce:   opts.Debounce,
		maxResults: opts.MaxResults,
		clock:      opts.Clock,
		logger:     opts.Logger,
		statuses:   make(map[string]struct{}),
	}
}

// Start attaches the view callbacks and schedules a search for the current
// query. Nil callbacks are ignored. Calling Start on a running Orchestrator only
// replaces the callbacks.
func (o *Orchestrator) Start(onIssues func([]jira.Issue), onError func(error), onLoading func(bool)) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.callbacks = callbacks{onIssues: onIssues, onError: onError, onLoading: onLoading}
	if o.running {
		return
	}
	o.running = true
	o.wake = make(chan struct{}, 1)
	o.stop = make(chan struct{})
	go o.deliver(o.wake, o.stop)

	o.scheduleLocked()
}

// Stop cancels the pending debounce and any in-flight request. Results that
// arrive afterwards are discarded.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running {
		return
	}
	o.running = false
	o.token++
	o.resetLocked()
	o.loading = false
	o.pending = nil
	close(o.stop)
}

// Search records new query text and schedules a debounced search.
func (o *Orchestrator) Search(text string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.query = text
	o.scheduleLocked()
}

// ToggleMine flips the "assigned to me" filter and searches again.
func (o *Orchestrator) ToggleMine() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.mineOnly = !o.mineOnly
	o.scheduleLocked()
}

// ToggleStatus adds or removes name from the status filter and searches again.
func (o *Orchestrator) ToggleStatus(name string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if _, ok := o.statuses[name]; ok {
		delete(o.statuses, name)
	} else {
		o.statuses[name] = struct{}{}
	}
	o.scheduleLocked()
}

// State returns a snapshot of the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()

	return State{
		Query:    o.query,
		Statuses: o.statusListLocked(),
		MineOnly: o.mineOnly,
		Loading:  o.loading,
		Issues:   slices.Clone(o.issues),
		Err:      o.err,
	}
}

// scheduleLocked supersedes whatever is pending or in flight and arms the debounce timer.
func (o *Orchestrator) scheduleLocked() {
	if !o.running {
		return
	}
	o.token++
	token := o.token
	o.resetLocked()

	if !o.loading {
		o.loading = true
		o.emitLocked(event{kind: loadingEvent, loading: true})
	}
	o.timer = o.clock.AfterFunc(o.debounce, func() { o.dispatch(token) })
}

// resetLocked stops the debounce timer and cancels the in-flight request.
func (o *Orchestrator) resetLocked() {
	if o.timer != nil {
		o.timer.Stop()
		o.timer = nil
	}
	if o.cancel != nil {
		o.cancel() // best effort; the token decides what may update state
		o.cancel = nil
	}
}

// dispatch starts the request for token once the debounce window has passed.
func (o *Orchestrator) dispatch(token uint64) {
	o.mu.Lock()
	if !o.running || token != o.token {
		o.mu.Unlock()
		return
	}
	o.timer = nil
	query := jql.Build(o.projectKey, o.query, o.statusListLocked(), o.mineOnly)
	ctx, cancel := context.WithCancel(context.Background())
	o.cancel = cancel
	o.mu.Unlock()

	go func() {
		defer cancel()
		o.logger.Debug("dispatching search", "token", token, "jql", query)
		issues, err := o.searcher.SearchIssues(ctx, query, o.maxResults)
		o.settle(token, issues, err)
	}()
}

// settle applies a finished request if its token is still current.
func (o *Orchestrator) settle(token uint64, issues []jira.Issue, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.running || token != o.token {
		o.logger.Debug("dropping stale search result", "token", token, "current", o.token)
		return
	}
	o.cancel = nil

	if IsCancelled(err) {
		o.logger.Debug("search cancelled", "token", token)
		return
	}

	o.loading = false
	if err != nil {
		o.logger.Warn("search failed", "token", token, "error", err)
		o.err = err
		o.issues = nil
		o.emitLocked(event{kind: issuesEvent})
		o.emitLocked(event{kind: errorEvent, err: err})
	} else {
		o.err = nil
		o.issues = issues
		o.emitLocked(event{kind: issuesEvent, issues: slices.Clone(issues)})
	}
	o.emitLocked(event{kind: loadingEvent, loading: false})
}

// statusListLocked returns the active status filters in sorted order.
func (o *Orchestrator) statusListLocked() []string {
	return slices.Sorted(maps.Keys(o.statuses))
}
