package app

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/containeroo/tinyflags"
	"github.com/gi8lino/jirafind/internal/cache"
	"github.com/gi8lino/jirafind/internal/flag"
	"github.com/gi8lino/jirafind/internal/jira"
	"github.com/gi8lino/jirafind/internal/logging"
	"github.com/gi8lino/jirafind/internal/render"
	"github.com/gi8lino/jirafind/internal/server"
	"github.com/gi8lino/jirafind/internal/settings"
)

// Run starts jirafind in the mode selected by args.
func Run(ctx context.Context, version string, args []string, w io.Writer, getEnv func(string) string) error {
	// Create a new context that listens for interrupt signals
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Parse command-line flags
	flags, err := flag.ParseArgs(version, args, w, getEnv)
	if err != nil {
		if tinyflags.IsHelpRequested(err) || tinyflags.IsVersionRequested(err) {
			fmt.Fprint(w, err.Error()) // nolint:errcheck
			return nil
		}
		return fmt.Errorf("parsing error: %w", err)
	}

	// The panel owns the terminal, so its logs go to a file.
	logOut := w
	if flags.Mode == flag.ModePanel {
		f, closeLog, err := panelLog(flags.Debug)
		if err != nil {
			return err
		}
		defer closeLog()
		logOut = f
	}
	logger := logging.SetupLogger(flags.LogFormat, flags.Debug, logOut)

	logger.Info("Starting jirafind", "version", version, "mode", flags.Mode)

	// Load settings
	store := settings.NewFileStore(flags.Settings)
	saved, err := store.Load()
	if err != nil {
		return fmt.Errorf("loading settings error: %w", err)
	}
	merged := flags.Apply(saved)
	if err := merged.Validate(); err != nil {
		return fmt.Errorf("validating settings %s: %w", store.Path(), err)
	}
	if flags.SaveSettings {
		if err := store.Save(merged); err != nil {
			return fmt.Errorf("saving settings error: %w", err)
		}
		logger.Info("Settings saved", "path", store.Path())
	}
	cfg := merged.WithDefaults()

	// Setup jira client
	token, err := cfg.Token()
	if err != nil {
		return err
	}
	site, err := url.Parse(cfg.JiraURL)
	if err != nil {
		return fmt.Errorf("invalid jira url: %w", err)
	}
	auth := jira.NewBasicAuth(cfg.Username, token)
	client := jira.NewClient(site, auth, cfg.SkipTLSVerify, cfg.Timeout)
	logger.Debug("jira auth",
		"method", "Basic",
		"header", jira.MaskedAuthorization(auth),
	)

	statuses := cache.NewStatusCache(client, cfg.StatusTTL, nil)

	rows, err := render.NewRowRenderer(flags.RowTemplate, client.BrowseURL)
	if err != nil {
		return fmt.Errorf("row template error: %w", err)
	}

	switch flags.Mode {
	case flag.ModeOnce:
		return runOnce(ctx, client, cfg, flags, rows, w, logger)

	case flag.ModeServe:
		router := server.NewRouter(server.Deps{
			Searcher:     client,
			Browser:      client,
			Statuses:     statuses,
			ProjectKey:   cfg.ProjectKey,
			InsertFormat: cfg.InsertFormat,
		}, logger, flags.Debug, flags.RoutePrefix)
		err := server.RunHTTPServer(ctx, router, flags.ListenAddr, logger)
		if err != nil {
			logger.Error("HTTP server exited with error", "error", err)
		}
		return err

	default:
		return runPanel(ctx, client, statuses, cfg, flags, rows, w, logger)
	}
}
