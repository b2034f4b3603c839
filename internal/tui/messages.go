package tui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gi8lino/jirafind/internal/jira"
)

// — messages ————————————————————————————————————————————————————————————————

type issuesMsg struct {
	issues []jira.Issue
}

type searchErrMsg struct {
	err error
}

type loadingMsg struct {
	loading bool
}

type statusesMsg struct {
	statuses []jira.Status
	err      error
}

type insertedMsg struct {
	key  string
	text string
	err  error
}

type noticeMsg struct {
	text string
}

type clearNoticeMsg struct {
	id int
}

// — bridge ——————————————————————————————————————————————————————————————————

// Bridge forwards search callbacks and notifications into a running program.
// Messages sent before Attach are dropped.
type Bridge struct {
	mu sync.Mutex
	p  *tea.Program
}

// Attach sets the program that receives messages.
func (b *Bridge) Attach(p *tea.Program) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.p = p
}

func (b *Bridge) send(msg tea.Msg) {
	b.mu.Lock()
	p := b.p
	b.mu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

// OnIssues is the orchestrator's issues callback.
func (b *Bridge) OnIssues(issues []jira.Issue) { b.send(issuesMsg{issues: issues}) }

// OnError is the orchestrator's error callback.
func (b *Bridge) OnError(err error) { b.send(searchErrMsg{err: err}) }

// OnLoading is the orchestrator's loading callback.
func (b *Bridge) OnLoading(loading bool) { b.send(loadingMsg{loading: loading}) }

// Notify implements insert.Notifier.
func (b *Bridge) Notify(msg string) { b.send(noticeMsg{text: msg}) }
