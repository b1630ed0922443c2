// Package main provides the searchd entry point: the HTTP daemon hosting
// the personalized search core.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/config"
	gormdb "github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/db/gorm"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/search"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/server"
	"github.com/Meta-Searching-Major-Project/personalized-searchengine/internal/watcher"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	port := flag.Int("port", 0, "HTTP listen port (default: config)")
	dataDir := flag.String("data-dir", "", "Data directory (default: ~/.searchd)")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Parse()

	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true})

	if err := config.EnsureDataDir(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure data directory")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Warn().Err(err).Msg("Failed to load config, using defaults")
		cfg = config.Default()
	}
	if *port > 0 {
		cfg.Port = *port
	}
	if *dataDir != "" {
		cfg.DBPath = filepath.Join(*dataDir, "search.db")
	}
	if *debug || cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	store, err := gormdb.NewStore(gormdb.Config{
		Path:     cfg.DBPath,
		MaxConns: cfg.MaxConns,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize store")
	}
	defer store.Close()

	metrics, err := search.NewMetrics()
	if err != nil {
		log.Warn().Err(err).Msg("Metrics unavailable, continuing without instrumentation")
		metrics = nil
	}

	manager := search.NewManager(
		gormdb.NewSQMStore(store),
		gormdb.NewLearningStore(store),
		cfg.WeightCacheTTL(),
		metrics,
	)

	startDBWatcher(cfg.DBPath)

	svc := server.NewService(cfg, manager, Version)

	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case err := <-errCh:
		if err != nil {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := svc.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Shutdown error")
	}
}

// startDBWatcher exits the process when the database file disappears so a
// supervisor restart recreates it through the normal migration path.
func startDBWatcher(dbPath string) {
	w, err := watcher.New(dbPath, func() {
		log.Warn().Str("path", dbPath).Msg("Database file deleted, exiting for restart...")
		time.Sleep(100 * time.Millisecond) // Give logs time to flush
		os.Exit(0)
	})
	if err != nil {
		log.Warn().Err(err).Msg("Failed to create database watcher")
		return
	}
	if err := w.Start(); err != nil {
		log.Warn().Err(err).Msg("Failed to start database watcher")
		return
	}
	log.Info().Str("path", dbPath).Msg("Database file watcher started")
}
