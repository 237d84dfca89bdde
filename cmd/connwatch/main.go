package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/calm-green-heron/connwatch/internal/api"
	"github.com/calm-green-heron/connwatch/internal/metrics"
	"github.com/calm-green-heron/connwatch/internal/monitor"
	"github.com/calm-green-heron/connwatch/internal/notifier"
	"github.com/calm-green-heron/connwatch/internal/persist"
	"github.com/calm-green-heron/connwatch/internal/probe"
	"github.com/calm-green-heron/connwatch/pkg/config"
)

var (
	configFile string
	apiAddr    string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "connwatch",
	Short: "ConnWatch - Network connectivity transition logger",
	Long: `ConnWatch probes network connectivity, records every up/down
transition in an in-memory store, and periodically flushes the store to a
single database file with timestamped backup archives.`,
	RunE: runDaemon,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("connwatch %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&apiAddr, "address", "a", "", "HTTP API listen address")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runDaemon(cmd *cobra.Command, args []string) error {
	var cfg *Config

	// Load configuration from file if provided
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	// Override with CLI flags
	if apiAddr != "" {
		cfg.API.Address = apiAddr
	}
	cfg.Verbose = verbose

	// Load the store from the canonical file. A corrupt database aborts
	// startup; an absent one starts empty.
	st, err := persist.LoadStore(cfg.Data.DBPath)
	if err != nil {
		return fmt.Errorf("load store: %w", err)
	}
	defer st.Close()

	// Notification fan-out
	dispatcher := notifier.NewDispatcherWithRateLimit(notifier.RateLimitConfig{
		MaxPerWindow: cfg.Notify.MaxPerWindow,
		Window:       cfg.Notify.Window,
		Enabled:      true,
	})
	defer dispatcher.Close()

	hub := notifier.NewHub()
	latest := notifier.NewLatestNotifier()
	dispatcher.Register(notifier.NewConsoleNotifier())
	dispatcher.Register(hub)
	dispatcher.Register(latest)

	if cfg.Notify.WebhookURL != "" {
		wh, err := notifier.NewWebhookNotifier(notifier.WebhookConfig{URL: cfg.Notify.WebhookURL})
		if err != nil {
			return fmt.Errorf("create webhook notifier: %w", err)
		}
		dispatcher.Register(wh)
	}

	// Persistence
	mgr, err := persist.NewManager(st, persist.Config{
		DBPath:     cfg.Data.DBPath,
		ArchiveDir: cfg.Data.ArchiveDir,
	}, dispatcher)
	if err != nil {
		return fmt.Errorf("create persistence manager: %w", err)
	}

	svc := monitor.NewService(st, mgr)

	// Prober
	probeCfg := probe.Config{
		Targets:  cfg.Probe.Targets,
		Interval: cfg.Probe.Interval,
		Timeout:  cfg.Probe.Timeout,
	}
	if cfg.Probe.TargetsFile != "" {
		targets, err := probe.LoadTargets(cfg.Probe.TargetsFile)
		if err != nil {
			return fmt.Errorf("load probe targets: %w", err)
		}
		probeCfg.Targets = targets
	}
	prober, err := probe.NewProber(svc, probeCfg)
	if err != nil {
		return fmt.Errorf("create prober: %w", err)
	}

	// HTTP API
	apiSrv, err := api.New(&api.Config{
		Address:        cfg.API.Address,
		RateLimitPerIP: cfg.API.RateLimitPerIP,
		Verbose:        cfg.Verbose,
	}, svc, mgr, hub, latest)
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}
	apiSrv.SetStateFunc(func() string { return string(prober.State()) })

	// Backup scheduler
	scheduler := persist.NewScheduler(mgr, cfg.Backup.FlushInterval)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	// Setup signal handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Printf("received signal %v, shutting down...", sig)
		cancel()
	}()

	log.Printf("starting connwatch %s", config.Version)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return apiSrv.Run(gctx)
	})

	g.Go(func() error {
		if err := prober.Run(gctx); err != nil && err != context.Canceled {
			return err
		}
		return nil
	})

	if cfg.Probe.TargetsFile != "" {
		g.Go(func() error {
			if err := probe.WatchTargets(gctx, cfg.Probe.TargetsFile, prober); err != nil && err != context.Canceled {
				return err
			}
			return nil
		})
	}

	if !cfg.Metrics.Disabled {
		metricsSrv := metrics.NewServer(cfg.Metrics.Address)
		g.Go(func() error {
			return metricsSrv.Start()
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		})
	}

	err = g.Wait()

	// Shutdown order matters: stop the scheduler before the final flush so
	// no tick overlaps it, then flush whatever the log holds.
	scheduler.Stop()
	if closeErr := mgr.Close(); closeErr != nil {
		log.Printf("shutdown flush failed: %v", closeErr)
		if err == nil {
			err = closeErr
		}
	}

	if err != nil && err != context.Canceled {
		return fmt.Errorf("run daemon: %w", err)
	}

	log.Printf("connwatch stopped")
	return nil
}
