package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gi8lino/jirafind/internal/cache"
	"github.com/gi8lino/jirafind/internal/flag"
	"github.com/gi8lino/jirafind/internal/insert"
	"github.com/gi8lino/jirafind/internal/jira"
	"github.com/gi8lino/jirafind/internal/render"
	"github.com/gi8lino/jirafind/internal/settings"
	"github.com/gi8lino/jirafind/internal/tui"
)

// runPanel runs the interactive panel until the user quits or inserts an issue.
func runPanel(
	ctx context.Context,
	client *jira.Client,
	statuses *cache.StatusCache,
	cfg settings.Settings,
	flags flag.Config,
	rows *render.RowRenderer,
	w io.Writer,
	logger *slog.Logger,
) error {
	doc, err := openDocument(flags)
	if err != nil {
		return err
	}
	bridge := &tui.Bridge{}
	ins := insert.NewInserter(insert.Single{Doc: doc}, bridge, cfg.InsertFormat, client.BrowseURL, logger)
	o := newOrchestrator(client, cfg, flags, logger)

	model := tui.New(o, statuses, ins, tui.Options{
		ProjectKey:   cfg.ProjectKey,
		InitialQuery: flags.Query,
		QuitOnInsert: true,
		Row:          rows.Row,
	})
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(p)

	o.Start(bridge.OnIssues, bridge.OnError, bridge.OnLoading)
	defer o.Stop()

	final, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("panel error: %w", err)
	}
	if m, ok := final.(tui.Model); ok && m.Inserted() != "" {
		fmt.Fprintln(w, m.Inserted()) // nolint:errcheck
	}
	return nil
}

// panelLog returns the log destination for panel mode: a file in the temp
// dir with --debug, otherwise nowhere.
func panelLog(debug bool) (io.Writer, func(), error) {
	if !debug {
		return io.Discard, func() {}, nil
	}
	path := filepath.Join(os.TempDir(), "jirafind.log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return f, func() { f.Close() }, nil // nolint:errcheck
}
