package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/JonMunkholm/emrexport/internal/config"
	"github.com/JonMunkholm/emrexport/internal/core"
	_ "github.com/JonMunkholm/emrexport/internal/core/sheets" // Register all sheets
	"github.com/JonMunkholm/emrexport/internal/database"
	"github.com/JonMunkholm/emrexport/internal/export"
	"github.com/JonMunkholm/emrexport/internal/logging"
	"github.com/JonMunkholm/emrexport/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists. Variables already set in the
	// environment win over the file; flags win over both.
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded .env file")
	}

	cfg, err := config.LoadEnv()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	fs := flag.NewFlagSet("emrexport", flag.ExitOnError)
	config.BindFlags(fs, cfg)
	serve := fs.Bool("serve", false, "start the HTTP trigger instead of running one export")
	_ = fs.Parse(os.Args[1:])

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"database", cfg.Database.Redacted(),
		"output", cfg.Export.OutputDir,
		"sheets", core.SheetCount(),
	)

	workbook := export.NewWorkbook(cfg.Export.OutputDir)
	reference := core.DefaultReferenceSource
	reference.Table = cfg.Export.ReferenceTable

	service, err := core.NewService(
		database.Connector(cfg.Database.ConnString(), cfg.Database.ConnectTimeout),
		workbook,
		core.Options{Reference: reference},
	)
	if err != nil {
		slog.Error("failed to create service", "error", err)
		os.Exit(1)
	}

	if *serve {
		runServer(cfg, service, workbook)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	result, err := service.Run(ctx)
	if err != nil {
		slog.Error(core.FormatUserMessage(core.MapError(err)), "error", err)
		stop()
		os.Exit(1)
	}

	for _, sheet := range result.Sheets {
		slog.Info("sheet exported",
			"sheet", sheet.Name,
			"source", sheet.Source,
			"rows", sheet.Rows,
			"columns", sheet.Columns,
		)
	}
	slog.Info("workbook written", "path", result.Path, "run_id", result.RunID)
}

// runServer serves the HTTP trigger until SIGINT or SIGTERM, then lets an
// active run finish before shutting down.
func runServer(cfg *config.Config, service *core.Service, workbook *export.Workbook) {
	server := web.NewServer(service, workbook, cfg.Server)
	done := make(chan struct{})

	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if service.Running() {
			slog.Info("waiting for export run to complete")
			if err := service.WaitForRun(shutdownCtx); err != nil {
				slog.Warn("export run did not complete in time", "error", err)
			}
		}

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	<-done
	slog.Info("server stopped")
}
