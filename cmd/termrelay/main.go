package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/termrelay/termrelay/internal/api"
	"github.com/termrelay/termrelay/internal/config"
	"github.com/termrelay/termrelay/internal/journal"
	"github.com/termrelay/termrelay/internal/logger"
	"github.com/termrelay/termrelay/internal/relay"
	"github.com/termrelay/termrelay/internal/upstream"
)

func main() {
	listen := flag.String("listen", "", "Override the listen address (host:port)")
	flag.Parse()

	log.Logger = logger.New("termrelay")

	cfg, err := config.New()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// -------- Journal ----------------------
	store, err := journal.New(cfg.JournalDir)
	if err != nil {
		log.Fatal().Err(err).Msg("Journal directory unavailable")
	}

	// -------- Upstream client --------------
	var client upstream.Client
	if cfg.SyncEnabled() {
		client, err = upstream.New(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Upstream client unavailable")
		}
	}

	// -------- Router & Server --------------
	engine := relay.New(cfg, client, store)
	addr := cfg.ListenAddr()
	if *listen != "" {
		addr = *listen
	}
	server := &http.Server{
		Addr:         addr,
		Handler:      api.NewRouter(engine),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")
	ctxShutdown, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	// Export the journal so cached records survive in bulk-import form even
	// if individual files are cleaned up later.
	if entries, err := store.List(); err == nil && len(entries) > 0 {
		path, err := journal.ExportCSV(cfg.JournalDir, cfg.JournalDir)
		if err != nil {
			log.Error().Err(err).Msg("Journal export failed")
		} else {
			log.Info().Str("path", path).Int("records", len(entries)).Msg("Exported journal")
		}
	}
	log.Info().Msg("Server exited")
}
