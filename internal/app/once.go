package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"

	"github.com/gi8lino/jirafind/internal/flag"
	"github.com/gi8lino/jirafind/internal/insert"
	"github.com/gi8lino/jirafind/internal/jira"
	"github.com/gi8lino/jirafind/internal/render"
	"github.com/gi8lino/jirafind/internal/search"
	"github.com/gi8lino/jirafind/internal/settings"
)

// runOnce performs a single search through the orchestrator and prints the rows.
// With a document sink configured the first hit is inserted.
func runOnce(
	ctx context.Context,
	client *jira.Client,
	cfg settings.Settings,
	flags flag.Config,
	rows *render.RowRenderer,
	w io.Writer,
	logger *slog.Logger,
) error {
	o := newOrchestrator(client, cfg, flags, logger)

	settled := make(chan struct{})
	var once sync.Once
	o.Start(nil, nil, func(loading bool) {
		if !loading {
			once.Do(func() { close(settled) })
		}
	})
	defer o.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-settled:
	}

	st := o.State()
	if st.Err != nil {
		return fmt.Errorf("search failed: %w", st.Err)
	}
	if err := rows.Write(w, st.Issues, "No issues found"); err != nil {
		return fmt.Errorf("write results: %w", err)
	}

	doc, err := openDocument(flags)
	if err != nil {
		return err
	}
	if doc == nil || len(st.Issues) == 0 {
		return nil
	}

	notifier := insert.NotifierFunc(func(msg string) { fmt.Fprintln(w, msg) }) // nolint:errcheck
	ins := insert.NewInserter(insert.Single{Doc: doc}, notifier, cfg.InsertFormat, client.BrowseURL, logger)
	text, err := ins.Insert(st.Issues[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "Inserted %s\n", text) // nolint:errcheck
	return nil
}

// newOrchestrator returns an orchestrator preloaded with the initial filters.
func newOrchestrator(client jira.Searcher, cfg settings.Settings, flags flag.Config, logger *slog.Logger) *search.Orchestrator {
	o := search.New(client, cfg.ProjectKey, search.Options{
		Debounce: cfg.Debounce,
		Logger:   logger,
	})
	o.Search(flags.Query)
	if flags.MineOnly {
		o.ToggleMine()
	}
	for _, s := range flags.Statuses {
		if !slices.Contains(o.State().Statuses, s) {
			o.ToggleStatus(s)
		}
	}
	return o
}

// openDocument returns the configured insertion target, or nil for none.
func openDocument(flags flag.Config) (insert.Document, error) {
	switch {
	case flags.Clipboard:
		c := insert.NewClipboard()
		if !c.Available() {
			return nil, fmt.Errorf("no clipboard utility available")
		}
		return c, nil
	case flags.Document != "":
		return insert.NewFileDocument(flags.Document, nil)
	default:
		return nil, nil
	}
}
