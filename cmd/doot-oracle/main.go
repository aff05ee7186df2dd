package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/Doot-Foundation/doot-oracle/pkg/cache"
	"github.com/Doot-Foundation/doot-oracle/pkg/config"
	"github.com/Doot-Foundation/doot-oracle/pkg/consensus"
	"github.com/Doot-Foundation/doot-oracle/pkg/logging"
	"github.com/Doot-Foundation/doot-oracle/pkg/metrics"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/aggregator"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/attestor"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/fetcher"
	"github.com/Doot-Foundation/doot-oracle/pkg/oracle/providers"
	"github.com/Doot-Foundation/doot-oracle/pkg/scheduler"
	"github.com/Doot-Foundation/doot-oracle/pkg/server"
	"github.com/Doot-Foundation/doot-oracle/pkg/settlement"
	"github.com/Doot-Foundation/doot-oracle/pkg/signing"
	"github.com/Doot-Foundation/doot-oracle/pkg/snapshot"
	"github.com/Doot-Foundation/doot-oracle/pkg/version"
)

// Reference cycle schedule: the price pipeline runs twice per cycle, the
// chain job trails it by a minute, and the snapshot publish sits in between
// so it reads freshly updated caches.
const (
	offsetPriceRefreshA = 0
	offsetChainRefreshA = 1 * time.Minute
	offsetSnapshotA     = 5 * time.Minute
	offsetPriceRefreshB = 10 * time.Minute
	offsetChainRefreshB = 11 * time.Minute
	offsetSnapshotB     = 15 * time.Minute
)

var (
	configFile = flag.String("config", "config/config.yaml", "Path to configuration file")
	showVer    = flag.Bool("version", false, "Show version and exit")
)

func main() {
	flag.Parse()

	if *showVer {
		fmt.Printf("doot-oracle version %s\n", version.Version)
		os.Exit(0)
	}

	// Secrets come from the environment; a missing .env file is fine.
	_ = godotenv.Load()

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Missing required secrets must stop the process before any task runs.
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	logger.Info("Starting doot-oracle", "version", version.Version)

	if cfg.Metrics.Enabled {
		metrics.Init()
		go func() {
			if err := metrics.ServeHTTP(cfg.Metrics.Addr); err != nil {
				logger.Error("Metrics server stopped", "error", err.Error())
			}
		}()
	}

	store := cache.NewRedisStore(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, logger.With("cache"))

	startupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := store.Ping(startupCtx); err != nil {
		cancel()
		logger.Fatal("Cache service unreachable", "addr", cfg.Redis.Addr, "error", err.Error())
	}
	cancel()

	registry, err := providers.NewRegistry(cfg.Fetcher.APIKeys)
	if err != nil {
		logger.Fatal("Invalid provider catalog", "error", err.Error())
	}

	signer, err := signing.NewEd25519Signer(cfg.Signing.PrivateKey)
	if err != nil {
		logger.Fatal("Invalid signing key", "error", err.Error())
	}

	ipfs := snapshot.NewPinataClient(cfg.IPFS.APIURL, cfg.IPFS.Gateway, cfg.IPFS.JWT)
	objects := snapshot.NewHTTPObjectStore(cfg.ObjectStore.BaseURL)

	snapshots := snapshot.New(store, ipfs, objects, cfg.ObjectStore.Bucket,
		cache.KeySnapshotCID(), "doot-historical", logger.With("snapshot"))
	chainSnapshots := snapshot.New(store, ipfs, objects, cfg.ObjectStore.Bucket,
		cache.KeyChainSnapshotCID(cfg.Settlement.Chain),
		"doot-"+cfg.Settlement.Chain, logger.With("chain-snapshot"))

	var settler settlement.Settler = settlement.NoopSettler{}
	if cfg.Settlement.Enabled {
		settler = settlement.NewHTTPSettler(cfg.Settlement.URL, cfg.Settlement.Secret)
	}

	service := oracle.New(
		fetcher.New(registry, cfg.Fetcher.Timeout.ToDuration(), logger.With("fetcher")),
		aggregator.New(cfg.Aggregator.MADThreshold, logger.With("aggregator")),
		attestor.New(signer),
		store,
		snapshots,
		chainSnapshots,
		settler,
		cfg.Settlement.Chain,
		logger.With("oracle"),
	)

	tracker := consensus.New(store, cfg.Settlement.Chain, logger.With("consensus"))

	orchestrator := scheduler.New(scheduler.RealClock{}, logger.With("scheduler"))
	orchestrator.Register(offsetPriceRefreshA, "price-refresh", service.RefreshPrices)
	orchestrator.Register(offsetChainRefreshA, "chain-refresh", service.RefreshChainPrices)
	orchestrator.Register(offsetSnapshotA, "snapshot-publish", service.PublishSnapshot)
	orchestrator.Register(offsetPriceRefreshB, "price-refresh", service.RefreshPrices)
	orchestrator.Register(offsetChainRefreshB, "chain-refresh", service.RefreshChainPrices)
	orchestrator.Register(offsetSnapshotB, "snapshot-publish", service.PublishSnapshot)

	c := cron.New()
	spec := fmt.Sprintf("@every %s", cfg.Scheduler.CycleInterval.ToDuration())
	if _, err := c.AddFunc(spec, orchestrator.RunCycle); err != nil {
		logger.Fatal("Failed to schedule cycle", "error", err.Error())
	}
	c.Start()
	orchestrator.RunCycle()

	srv := server.New(cfg.Server.Addr, cfg.Server.BearerSecret, cfg.Server.CORSOrigins,
		service, tracker, orchestrator, logger.With("server"))

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Received signal, shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			logger.Error("HTTP server failed", "error", err.Error())
		}
	}

	c.Stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Stop(shutdownCtx); err != nil {
		logger.Error("Graceful shutdown failed", "error", err.Error())
	}

	if err := store.Close(); err != nil {
		logger.Error("Failed to close cache client", "error", err.Error())
	}

	logger.Info("Shutdown complete")
}
