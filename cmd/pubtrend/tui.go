package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/abelbrown/pubtrend/internal/api"
	"github.com/abelbrown/pubtrend/internal/fetch"
	"github.com/abelbrown/pubtrend/internal/logging"
	"github.com/abelbrown/pubtrend/internal/otel"
	"github.com/abelbrown/pubtrend/internal/ui"
)

func runTUI(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	// The TUI owns the terminal: human logs go to a file.
	if err := logging.InitFile(cfg.DataDir); err != nil {
		return err
	}
	defer logging.Close()

	events, err := otel.OpenLogger(cfg.DataDir)
	if err != nil {
		return err
	}
	ring := otel.NewRingBuffer(otel.DefaultRingSize)
	events.SetRingBuffer(ring)
	events.Info(otel.KindStartup, "main", "backend "+cfg.BackendURL)
	logging.Info("starting", "backend", cfg.BackendURL, "session", events.SessionID())

	client, err := fetch.NewClient(cfg.BackendURL, cfg.HTTPTimeout, fetch.WithRateLimit(cfg.RequestRate))
	if err != nil {
		events.Close()
		return err
	}

	app := ui.NewApp(ui.AppConfig{
		CheckStatus: func(ctx context.Context, seqID string, attempt int, q api.Query) tea.Cmd {
			return func() tea.Msg {
				resp, err := client.Status(ctx, q)
				return ui.StatusChecked{SeqID: seqID, Attempt: attempt, Resp: resp, Err: err}
			}
		},
		DefaultMaxResults: cfg.MaxResults,
		Logger:            events,
		Ring:              ring,
	})

	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(cmd.Context()))
	_, runErr := program.Run()
	if runErr != nil {
		logging.Error("program exited", "err", runErr)
		events.Error(otel.KindError, "main", runErr)
	}

	events.Info(otel.KindShutdown, "main", "")
	events.Close()
	return runErr
}
