package main

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hqvu/teamtask/internal/api"
	"github.com/hqvu/teamtask/internal/cache"
	"github.com/hqvu/teamtask/internal/config"
	"github.com/hqvu/teamtask/internal/notifications"
	"github.com/hqvu/teamtask/internal/session"
	"github.com/hqvu/teamtask/internal/ui"
)

// Version information set via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// newLogger writes structured logs to the configured file. Logging to
// stderr would corrupt the TUI, so without a file the logs are discarded.
func newLogger(path string) (*slog.Logger, func(), error) {
	if path == "" {
		return slog.New(slog.NewTextHandler(io.Discard, nil)), func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, nil, err
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger, func() { f.Close() }, nil
}

func main() {
	// Handle version flag
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-v") {
		fmt.Printf("teamtask %s (commit: %s, built: %s)\n", version, commit, date)
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := newLogger(cfg.LogFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	store, err := cache.Open(cfg.CachePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing local cache: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	sess := &session.Session{}
	client := api.NewClient(cfg.APIBaseURL,
		sess,
		&http.Client{Timeout: cfg.RequestTimeout},
		logger,
	)
	notifs := notifications.NewStore(client, logger)

	app := ui.NewApp(client, sess, store, notifs, cfg.PollInterval, logger)
	p := tea.NewProgram(app, tea.WithAltScreen())

	logger.Info("starting", "version", version, "api", cfg.APIBaseURL)

	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running application: %v\n", err)
		os.Exit(1)
	}
}
