// Package tui is the interactive search panel.
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gi8lino/jirafind/internal/cache"
	"github.com/gi8lino/jirafind/internal/insert"
	"github.com/gi8lino/jirafind/internal/jira"
	"github.com/gi8lino/jirafind/internal/search"
)

// noticeTTL is how long a notice stays on screen.
const noticeTTL = 4 * time.Second

// Search is the part of the orchestrator the panel drives.
type Search interface {
	Search(text string)
	ToggleMine()
	ToggleStatus(name string)
	State() search.State
}

// StatusSource lists the statuses of a project.
type StatusSource interface {
	Statuses(ctx context.Context, projectKey string) ([]jira.Status, error)
}

// Inserter writes an issue into the active document.
type Inserter interface {
	Insert(issue jira.Issue) (string, error)
}

// RowFunc renders the list title of an issue.
type RowFunc func(idx int, issue jira.Issue) (string, error)

// Options configure the panel.
type Options struct {
	ProjectKey   string
	InitialQuery string
	QuitOnInsert bool // close the panel after a successful insert
	Row          RowFunc
}

// — state ———————————————————————————————————————————————————————————————————

type panelState int

const (
	stateSearch panelState = iota
	stateStatusMenu
)

// Model is the bubbletea model of the search panel.
type Model struct {
	search   Search
	statuses StatusSource
	inserter Inserter
	opts     Options

	input    textinput.Model
	list     list.Model
	width    int
	height   int
	issues   []jira.Issue
	loading  bool
	err      error
	state    panelState
	inserted string

	menu       []jira.Status
	menuCursor int
	menuBusy   bool

	notice   string
	noticeID int
}

// New returns the panel model.
func New(s Search, statuses StatusSource, ins Inserter, opts Options) Model {
	delegate := list.NewDefaultDelegate()

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.Title = "Issues"
	if opts.ProjectKey != "" {
		l.Title = opts.ProjectKey + " issues"
	}
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.DisableQuitKeybindings()
	l.Styles.Title = titleStyle

	ti := textinput.New()
	ti.Placeholder = "Search issues by summary or key"
	ti.CharLimit = 200
	ti.SetValue(opts.InitialQuery)
	ti.Focus()

	if opts.Row == nil {
		opts.Row = func(_ int, issue jira.Issue) (string, error) {
			return issue.Key + ": " + issue.Fields.Summary, nil
		}
	}

	return Model{
		search:   s,
		statuses: statuses,
		inserter: ins,
		opts:     opts,
		input:    ti,
		list:     l,
		loading:  true,
	}
}

// Inserted returns the text of the last successful insert.
func (m Model) Inserted() string { return m.inserted }

// — list item ———————————————————————————————————————————————————————————————

type issueItem struct {
	issue jira.Issue
	title string
}

func (i issueItem) Title() string { return i.title }

func (i issueItem) Description() string {
	parts := []string{i.issue.Fields.Status.Name}
	if a := i.issue.Fields.Assignee; a != nil && a.DisplayName != "" {
		parts = append(parts, a.DisplayName)
	} else {
		parts = append(parts, insert.NoAssignee)
	}
	if p := i.issue.Fields.Parent; p != nil && p.Fields.Summary != "" {
		parts = append(parts, p.Fields.Summary)
	}
	return strings.Join(parts, " · ")
}

func (i issueItem) FilterValue() string { return i.issue.Key }

// buildItems rebuilds the list from the current issues.
func (m *Model) buildItems() tea.Cmd {
	items := make([]list.Item, len(m.issues))
	for i, issue := range m.issues {
		title, err := m.opts.Row(i, issue)
		if err != nil {
			title = issue.Key + ": " + issue.Fields.Summary
		}
		items[i] = issueItem{issue: issue, title: title}
	}
	return m.list.SetItems(items)
}

func (m Model) selectedIssue() (jira.Issue, bool) {
	item, ok := m.list.SelectedItem().(issueItem)
	if !ok {
		return jira.Issue{}, false
	}
	return item.issue, true
}

// — commands ————————————————————————————————————————————————————————————————

func loadStatusesCmd(src StatusSource, projectKey string, refresh bool) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if refresh {
			ctx = cache.WithRefresh(ctx)
		}
		statuses, err := src.Statuses(ctx, projectKey)
		return statusesMsg{statuses: statuses, err: err}
	}
}

func insertCmd(ins Inserter, issue jira.Issue) tea.Cmd {
	return func() tea.Msg {
		text, err := ins.Insert(issue)
		return insertedMsg{key: issue.Key, text: text, err: err}
	}
}

func clearNoticeCmd(id int) tea.Cmd {
	return tea.Tick(noticeTTL, func(time.Time) tea.Msg {
		return clearNoticeMsg{id: id}
	})
}

// setNotice shows text and schedules its removal.
func (m *Model) setNotice(text string) tea.Cmd {
	m.noticeID++
	m.notice = text
	return clearNoticeCmd(m.noticeID)
}

// — tea.Model ———————————————————————————————————————————————————————————————

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(msg.Width-6, 10)
		m.list.SetSize(msg.Width, m.listHeight())
		return m, nil

	case issuesMsg:
		m.issues = msg.issues
		m.err = nil // a failure is reported right after its empty issue list
		return m, m.buildItems()

	case searchErrMsg:
		m.err = msg.err
		return m, nil

	case loadingMsg:
		m.loading = msg.loading
		return m, nil

	case statusesMsg:
		m.menuBusy = false
		if msg.err != nil {
			m.state = stateSearch
			return m, m.setNotice("Failed to load statuses: " + msg.err.Error())
		}
		m.menu = msg.statuses
		m.menuCursor = min(m.menuCursor, max(len(m.menu)-1, 0))
		return m, nil

	case insertedMsg:
		if msg.err != nil {
			// The inserter already notified about a missing document.
			if errors.Is(msg.err, insert.ErrNoActiveDocument) {
				return m, nil
			}
			return m, m.setNotice(fmt.Sprintf("Insert failed: %v", msg.err))
		}
		m.inserted = msg.text
		if m.opts.QuitOnInsert {
			return m, tea.Quit
		}
		return m, m.setNotice("Inserted " + msg.key)

	case noticeMsg:
		return m, m.setNotice(msg.text)

	case clearNoticeMsg:
		if msg.id == m.noticeID {
			m.notice = ""
		}
		return m, nil
	}

	if m.state == stateStatusMenu {
		return m.updateStatusMenu(msg)
	}
	return m.updateSearch(msg)
}

func (m Model) updateSearch(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}

	switch key.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "up", "ctrl+p":
		m.list.CursorUp()
		return m, nil
	case "down", "ctrl+n":
		m.list.CursorDown()
		return m, nil
	case "ctrl+a":
		m.search.ToggleMine()
		return m, nil
	case "ctrl+s", "tab":
		m.state = stateStatusMenu
		m.menuBusy = true
		return m, loadStatusesCmd(m.statuses, m.opts.ProjectKey, false)
	case "enter":
		issue, ok := m.selectedIssue()
		if !ok {
			return m, nil
		}
		return m, insertCmd(m.inserter, issue)
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		m.search.Search(after)
	}
	return m, cmd
}

func (m Model) updateStatusMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch key.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "ctrl+s", "tab", "q":
		m.state = stateSearch
		return m, nil
	case "ctrl+r":
		m.menuBusy = true
		return m, loadStatusesCmd(m.statuses, m.opts.ProjectKey, true)
	case "up", "k":
		if m.menuCursor > 0 {
			m.menuCursor--
		}
		return m, nil
	case "down", "j":
		if m.menuCursor < len(m.menu)-1 {
			m.menuCursor++
		}
		return m, nil
	case " ", "space", "enter", "x":
		if m.menuCursor < len(m.menu) {
			m.search.ToggleStatus(m.menu[m.menuCursor].Name)
		}
		return m, nil
	}
	return m, nil
}

// activeStatus reports whether name is part of the status filter.
func activeStatus(state search.State, name string) bool {
	return slices.Contains(state.Statuses, name)
}
