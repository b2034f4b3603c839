package search

import "github.com/gi8lino/jirafind/internal/jira"

// callbacks are the view hooks passed to Start.
type callbacks struct {
	onIssues  func([]jira.Issue)
	onError   func(error)
	onLoading func(bool)
}

type eventKind int

const (
	issuesEvent eventKind = iota
	errorEvent
	loadingEvent
)

// event is one state change waiting to be reported to the view.
type event struct {
	kind    eventKind
	issues  []jira.Issue
	err     error
	loading bool
}

// call invokes the matching callback, if set.
func (e event) call(cb callbacks) {
	switch e.kind {
	case issuesEvent:
		if cb.onIssues != nil {
			cb.onIssues(e.issues)
		}
	case errorEvent:
		if cb.onError != nil {
			cb.onError(e.err)
		}
	case loadingEvent:
		if cb.onLoading != nil {
			cb.onLoading(e.loading)
		}
	}
}

// emitLocked queues ev for delivery.
func (o *Orchestrator) emitLocked(ev event) {
	o.pending = append(o.pending, ev)
	select {
	case o.wake <- struct{}{}:
	default: // delivery already signalled
	}
}

// deliver reports queued events in order until stop is closed.
func (o *Orchestrator) deliver(wake, stop chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-wake:
		}

		for {
			o.mu.Lock()
			if o.stop != stop {
				o.mu.Unlock()
				return // stopped and restarted; the new goroutine owns delivery
			}
			if !o.running || len(o.pending) == 0 {
				o.mu.Unlock()
				break
			}
			batch := o.pending
			o.pending = nil
			cb := o.callbacks
			o.mu.Unlock()

			for _, ev := range batch {
				ev.call(cb)
			}
		}
	}
}
