package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"campus-sync/docstore"
	"campus-sync/internal"
	"campus-sync/runtime/workers"
	"campus-sync/search"

	"github.com/Netflix/go-env"
	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run hosts the storage engine and its background services: the people
// index keeper, the health monitor, and the store inspector. Client
// sessions embed runtime.Engine directly; this process owns the data
// files they share.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load()
	var config internal.Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Storage (BadgerDB for documents, Bluge for the people index)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.WARNING))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	writer, err := bluge.OpenWriter(bluge.DefaultConfig(config.BlugeFilepath))
	if err != nil {
		return fmt.Errorf("search index opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing Bluge index...")
		_ = writer.Close()
	}()

	store := docstore.New(db, log)
	defer store.Close()

	directory := search.NewDirectory(writer, log)

	// 3. Debug inspector
	started := time.Now().UTC()
	internal.StartDebugServer(db, config.DebugPort, func() map[string]any {
		return map[string]any{
			"Goroutines": runtime.NumGoroutine(),
			"Uptime":     time.Since(started).Round(time.Second).String(),
		}
	})
	log.Info("Store inspector available", "url", fmt.Sprintf("http://localhost:%d/inspect", config.DebugPort))

	// 4. Supervised background workers
	sup := workers.NewSupervisor(log)
	sup.Add(
		workers.NewDirectoryIndexer(store, directory, log),
		workers.NewHealthMonitor(log, config.MetricInterval),
	)

	// 5. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("Sync engine started")
	sup.Run(ctx)

	log.Info("Program stopped cleanly")
	return nil
}
