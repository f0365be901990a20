// Command mapcarta-server runs the server-side Tile Compositor: it accepts
// ingestion batches from agents over HTTP, composites tiles, merges
// structures, and serves tile PNGs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/df-mc/mapcarta/internal/config"
	"github.com/df-mc/mapcarta/internal/coord"
	"github.com/df-mc/mapcarta/internal/httpx"
	"github.com/df-mc/mapcarta/internal/ingestion"
	"github.com/df-mc/mapcarta/internal/playerstore"
	"github.com/df-mc/mapcarta/internal/structure"
	"github.com/df-mc/mapcarta/internal/tilestore"
	"github.com/df-mc/mapcarta/internal/wsfanout"
)

func main() {
	if err := run(); err != nil {
		slog.Default().Error("mapcarta-server: fatal startup failure", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadServerConfig("mapcarta-server.toml")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	tiles := tilestore.New(cfg.DataDir)
	structures := structure.NewStore(cfg.DataDir, log)
	defer structures.Close()
	for _, name := range []string{"overworld", "nether", "the_end"} {
		dim, err := coord.ParseDimension(name)
		if err != nil {
			continue
		}
		if err := structures.Load(dim); err != nil {
			log.Warn("mapcarta-server: failed to load persisted structures", "dimension", name, "err", err)
		}
	}

	hub := wsfanout.NewHub(log)
	pipeline := ingestion.New(tiles, log)
	players := playerstore.New()

	srv := &httpx.Server{
		Pipeline:   pipeline,
		Tiles:      tiles,
		Structures: structures,
		Players:    players,
		Hub:        hub,
	}
	router := httpx.NewRouter(srv, cfg.AuthToken, log)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("mapcarta-server: listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-errCh:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
		log.Info("mapcarta-server: shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
