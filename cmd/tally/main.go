package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/alexanderramin/tally/internal/apperrors"
	"github.com/alexanderramin/tally/internal/cli"
	"github.com/alexanderramin/tally/internal/config"
	"github.com/alexanderramin/tally/internal/db"
	"github.com/alexanderramin/tally/internal/kvstore"
	"github.com/alexanderramin/tally/internal/logging"
	"github.com/alexanderramin/tally/internal/repository"
	"github.com/alexanderramin/tally/internal/service"
	"github.com/alexanderramin/tally/internal/telemetry"
	"github.com/alexanderramin/tally/internal/timer"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", describe(err))
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, logCloser, err := logging.New(logging.Options{
		Level:     cfg.LogLevel,
		File:      cfg.LogFile,
		MaxSizeMB: cfg.LogMaxSizeMB,
	})
	if err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}
	defer logCloser.Close()

	shutdownTracing, err := telemetry.Setup(ctx, "tally", cfg.OTelEndpoint, cfg.OTelEnabled)
	if err != nil {
		return fmt.Errorf("configuring tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Warn("tracing_shutdown_failed", "error", err)
		}
	}()

	// Open database
	database, err := db.OpenDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Timer snapshots are kept outside the ledger database.
	snapshots, err := kvstore.Open(cfg.StatePath)
	if err != nil {
		return fmt.Errorf("opening timer state: %w", err)
	}
	defer snapshots.Close()

	// Wire repositories
	sessionRepo := repository.NewSQLiteSessionRepo(database)
	taskRepo := repository.NewSQLiteTaskRepo(database)
	uow := db.NewSQLiteUnitOfWork(database)

	observer := service.NewSlogUseCaseObserver(logger)
	sessionSvc := service.NewSessionService(sessionRepo, taskRepo, uow, cfg.Policy(), logger, observer)
	taskSvc := service.NewTaskService(taskRepo, observer)

	machine := timer.New(snapshots,
		timer.WithKey(timer.KeyForUser(cfg.User)),
		timer.WithLogger(logger),
	)
	// Commands that don't touch the timer still run when restore fails.
	if _, err := machine.Rehydrate(ctx); err != nil {
		logger.Warn("timer_restore_failed", "error", err)
	}

	app := &cli.App{
		Sessions:     sessionSvc,
		Tasks:        taskSvc,
		Timer:        machine,
		UserID:       cfg.User,
		Logger:       logger,
		HTTPAddr:     cfg.HTTPAddr,
		TickInterval: cfg.TickInterval,
	}

	// Detect interactive terminal for confirmation prompts.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

// describe renders domain errors with their code, field and batch index.
func describe(err error) string {
	var e *apperrors.Error
	if !errors.As(err, &e) {
		return err.Error()
	}
	parts := []string{string(e.Code)}
	if e.Field != "" {
		parts = append(parts, "field="+e.Field)
	}
	if e.Index != apperrors.NoIndex {
		parts = append(parts, fmt.Sprintf("item=%d", e.Index))
	}
	return fmt.Sprintf("%s [%s]", err.Error(), strings.Join(parts, " "))
}
