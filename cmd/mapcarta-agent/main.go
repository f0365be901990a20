// Command mapcarta-agent runs the Chunk Scan Scheduler: a prioritized job
// queue and cooperative processor that scans the world and uploads results
// to a mapcarta-server. The real WorldView and LoadAreaBroker are supplied
// by whatever game runtime embeds this agent; this binary wires the hard
// core together with a placeholder host so the process can start standalone
// (see placeholderHost below).
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/df-mc/mapcarta/internal/agentclient"
	"github.com/df-mc/mapcarta/internal/config"
	"github.com/df-mc/mapcarta/internal/coord"
	"github.com/df-mc/mapcarta/internal/jobqueue"
	"github.com/df-mc/mapcarta/internal/playerstore"
	"github.com/df-mc/mapcarta/internal/processor"
	"github.com/df-mc/mapcarta/internal/scanner"
	"github.com/df-mc/mapcarta/internal/structure"
)

func main() {
	if err := run(); err != nil {
		slog.Default().Error("mapcarta-agent: fatal startup failure", "err", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.LoadAgentConfig("mapcarta-agent.toml")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	queue := jobqueue.New(log)
	players := playerstore.New()
	host := newPlaceholderHost()
	scan := scanner.New(host, log)
	discoverer := structure.NewDiscoverer(host)
	registry := structure.NewRegistry()
	upload := agentclient.New(cfg.ServerURL, cfg.AuthToken)

	proc := processor.New(processor.Config{
		Queue: queue, Scanner: scan, Discoverer: discoverer, Registry: registry,
		Broker: host, Upload: upload, Locator: players, Log: log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	proc.Start(ctx)
	log.Info("mapcarta-agent: started", "serverURL", cfg.ServerURL)

	<-ctx.Done()
	log.Info("mapcarta-agent: shutting down")
	proc.Stop()
	return nil
}

// placeholderHost is a stand-in WorldView/LoadAreaBroker/structure.Probe
// satisfying the hard core's interfaces until a real game runtime is wired
// in. Every column reads as air with no structures, matching how the
// teacher's own demo plugin (examples/plugins/demo) stands in for a full
// server deployment.
type placeholderHost struct{}

func newPlaceholderHost() *placeholderHost { return &placeholderHost{} }

func (placeholderHost) BlockAt(dim coord.Dimension, x, y, z int) (scanner.BlockInfo, error) {
	return scanner.BlockInfo{Air: true}, nil
}

func (placeholderHost) RegisterLoadArea(dim coord.Dimension, minX, minZ, maxX, maxZ int) (processor.LoadAreaHandle, error) {
	return struct{}{}, nil
}

func (placeholderHost) IsChunkLoaded(dim coord.Dimension, chunkX, chunkZ int) bool {
	return true
}

func (placeholderHost) ReleaseLoadArea(h processor.LoadAreaHandle) {}

func (placeholderHost) StructureTypesAt(dim coord.Dimension, chunkX, chunkZ int) []string {
	return nil
}
