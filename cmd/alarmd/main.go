package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/awakeful/alarmd/internal/config"
	"github.com/awakeful/alarmd/internal/daemon"
	"github.com/awakeful/alarmd/internal/db"
	"github.com/awakeful/alarmd/internal/notify"
)

func main() {
	cfg := config.FromEnv()
	flag.StringVar(&cfg.SocketPath, "socket", cfg.SocketPath, "UDS path for alarmd")
	flag.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite path")
	flag.BoolVar(&cfg.Premium, "premium", cfg.Premium, "enable premium features")
	flag.BoolVar(&cfg.DesktopNotify, "desktop-notify", cfg.DesktopNotify, "deliver reminders via the desktop notification bus")
	flag.Parse()

	logger := log.New(os.Stderr, "alarmd: ", log.LstdFlags)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := db.Open(ctx, cfg.DBPath)
	if err != nil {
		fatal(err)
	}
	defer store.Close() //nolint:errcheck

	if err := db.ApplyMigrations(ctx, store.DB()); err != nil {
		fatal(err)
	}

	srv := daemon.NewServer(cfg, store, logger)
	if cfg.DesktopNotify {
		if sink, err := notify.NewDesktopSink(logger); err != nil {
			logger.Printf("desktop notifications unavailable, falling back to log delivery: %v", err)
		} else {
			defer sink.Close() //nolint:errcheck
			srv.SetSink(sink)
		}
	}

	if err := srv.Start(ctx); err != nil && err != context.Canceled {
		fatal(err)
	}
}

func fatal(err error) {
	_, _ = fmt.Fprintf(os.Stderr, "alarmd: %v\n", err)
	os.Exit(1)
}
