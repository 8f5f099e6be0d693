package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"healthviewer/internal/config"
	"healthviewer/internal/logging"
	"healthviewer/internal/menu"
	"healthviewer/internal/metrics"
	"healthviewer/internal/report"
	"healthviewer/internal/storage"
)

func main() {
	os.Exit(run(os.Stdin, os.Stdout, os.Stderr))
}

// run wires the viewer together and returns the process exit code.
func run(stdin io.Reader, stdout, stderr io.Writer) int {
	_ = godotenv.Load()

	configPath := os.Getenv("VIEWER_CONFIG")
	if configPath == "" {
		configPath = config.DefaultPath
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(stdout, "\nError: %v\n\n", err)
		return 1
	}

	base := logging.New(stderr, logging.ParseLevel(cfg.LogLevel))
	base.SetFlags(log.LstdFlags | log.Lshortfile)
	logger := base.With("session", uuid.NewString())
	logger.Infof("using database %s", cfg.DBPath)

	defer func() {
		if cfg.MetricsTextfile == "" {
			return
		}
		if err := metrics.WriteTextfile(cfg.MetricsTextfile); err != nil {
			logger.Warnf("%v", err)
		}
	}()

	dbCfg := storage.Config{
		Path:         cfg.DBPath,
		BusyTimeout:  cfg.BusyTimeout.Duration,
		QueryTimeout: cfg.QueryTimeout.Duration,
	}

	if err := storage.Probe(dbCfg); err != nil {
		if errors.Is(err, storage.ErrDatabaseNotFound) || errors.Is(err, storage.ErrSchemaMissing) {
			logger.Errorf("probe failed: %v", err)
			fmt.Fprintf(stdout, "\nError: Database '%s' not found!\n", cfg.DBPath)
			fmt.Fprintln(stdout, "   Make sure the Health Assistant app has been run at least once")
			fmt.Fprint(stdout, "   so that it creates the users and appointments tables.\n\n")
			return 1
		}
		fmt.Fprintf(stdout, "\nError: %v\n\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gen := report.New(dbCfg, report.Options{
		RecentLimit: cfg.RecentLimit,
		BioPreview:  cfg.BioPreviewLength,
		DateLayout:  cfg.DateLayout,
	}, logger)

	m := menu.New(gen, stdin, stdout,
		menu.WithPause(cfg.PauseAfterReport),
		menu.WithLogger(logger),
	)

	if err := m.Run(ctx); err != nil {
		logger.Errorf("menu stopped: %v", err)
		fmt.Fprintf(stdout, "\nError: %v\n\n", err)
		return 1
	}
	return 0
}
