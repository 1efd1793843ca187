package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/good-yellow-bee/rostergrid/internal/api"
	"github.com/good-yellow-bee/rostergrid/internal/api/health"
	"github.com/good-yellow-bee/rostergrid/internal/logging"
	"github.com/good-yellow-bee/rostergrid/internal/metrics"
	"github.com/good-yellow-bee/rostergrid/internal/roster"
	"github.com/good-yellow-bee/rostergrid/internal/storage"
	"github.com/good-yellow-bee/rostergrid/internal/web"
	"github.com/good-yellow-bee/rostergrid/internal/web/session"
	"github.com/good-yellow-bee/rostergrid/pkg/config"
)

var (
	configFile string
	httpAddr   string
	driver     string
	verbose    bool
)

var rootCmd = &cobra.Command{
	Use:   "rostergrid",
	Short: "rostergrid - volunteer roster server",
	Long: `rostergrid serves the volunteer roster web UI and JSON API.
Projects are kept in memory and written to the configured store in the
background.`,
	RunE: runServer,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("rostergrid %s\n", config.Version)
		fmt.Printf("  commit: %s\n", config.Commit)
		fmt.Printf("  built:  %s\n", config.BuildTime)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (optional)")
	rootCmd.PersistentFlags().StringVarP(&httpAddr, "address", "a", "", "HTTP listen address")
	rootCmd.PersistentFlags().StringVar(&driver, "storage", "", "storage driver (sqlite, mongo, memory)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadConfig() (*Config, error) {
	var cfg *Config
	if configFile != "" {
		var err error
		cfg, err = LoadConfig(configFile)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
	} else {
		cfg = DefaultConfig()
	}

	// Override with CLI flags
	if httpAddr != "" {
		cfg.Server.HTTPAddress = httpAddr
	}
	if driver != "" {
		cfg.Storage.Driver = driver
	}
	cfg.Verbose = verbose
	if verbose {
		cfg.Log.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func openStorage(cfg *Config) (storage.Storage, error) {
	if cfg.Storage.Driver == storage.DriverSQLite {
		// Auto-create data directory
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLite.Path), 0750); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	store, err := storage.New(storage.Config{
		Driver:          cfg.Storage.Driver,
		SQLitePath:      cfg.Storage.SQLite.Path,
		MongoURI:        cfg.Storage.Mongo.URI,
		MongoDatabase:   cfg.Storage.Mongo.Database,
		MongoCollection: cfg.Storage.Mongo.Collection,
		Timeout:         cfg.Storage.Mongo.Timeout,
	})
	if err != nil {
		return nil, err
	}
	if err := store.Open(); err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, fmt.Errorf("migrate storage: %w", err)
	}
	return store, nil
}

func runServer(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := logging.Setup(cfg.Log.Level, cfg.Log.Format); err != nil {
		return err
	}
	metrics.SetBuildInfo(config.Version, config.Commit, config.BuildTime)

	backend, err := openStorage(cfg)
	if err != nil {
		return err
	}
	defer backend.Close()
	log.Info().Str("driver", backend.Backend()).Msg("storage initialized")

	queue := roster.NewWriteQueue(backend.Projects(), roster.QueueConfig{
		MaxAttempts: cfg.WriteQueue.MaxAttempts,
		Backoff: roster.Backoff{
			Initial:    cfg.WriteQueue.InitialBackoff,
			Max:        cfg.WriteQueue.MaxBackoff,
			Multiplier: 2.0,
			Jitter:     0.1,
		},
		WriteTimeout: cfg.WriteQueue.WriteTimeout,
	})
	projects := roster.NewStore(backend.Projects(), queue)
	syncer := roster.NewSynchronizer(projects)

	apiCfg := &api.Config{
		Address:            cfg.Server.HTTPAddress,
		TokenTTL:           cfg.Auth.TokenTTL,
		TrustedProxies:     cfg.Server.TrustedProxies,
		RateLimitPerSecond: cfg.RateLimit.RequestsPerSecond,
		RateLimitBurst:     cfg.RateLimit.Burst,
		ReadTimeout:        cfg.Server.ReadTimeout,
		IdleTimeout:        cfg.Server.IdleTimeout,
		Verbose:            cfg.Verbose,
	}
	if cfg.Auth.JWTSecret != "" {
		apiCfg.JWTSecret = []byte(cfg.Auth.JWTSecret)
	}
	srv, err := api.New(apiCfg, projects, syncer)
	if err != nil {
		return fmt.Errorf("create api server: %w", err)
	}
	srv.RegisterHealthChecker(health.NewStorageChecker(backend))
	srv.RegisterHealthChecker(health.NewWriteQueueChecker(func() int {
		return queue.Stats().Pending
	}, cfg.WriteQueue.MaxPending))

	if cfg.WebEnabled() {
		sessions := session.NewStore(cfg.Web.SessionTTL)
		defer sessions.Close()

		ui, err := web.NewServer(projects, syncer, sessions, []byte(cfg.Web.CSRFKey), cfg.Server.SecureCookies)
		if err != nil {
			return fmt.Errorf("create web server: %w", err)
		}
		srv.Mount("/", ui.Routes())
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Warm the cache; a failure here is retried on the first list.
	if err := projects.Load(ctx); err != nil {
		log.Warn().Err(err).Msg("initial project load failed")
	}

	log.Info().Str("version", config.Version).Msg("starting rostergrid")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(gctx) })
	g.Go(func() error { return queue.Run(gctx) })
	if cfg.Server.MetricsAddress != "" {
		metricsSrv := metrics.NewServer(cfg.Server.MetricsAddress)
		g.Go(func() error { return metricsSrv.Run(gctx) })
	}

	runErr := g.Wait()

	// Flush queued writes before the store closes.
	drainCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := queue.Drain(drainCtx); err != nil {
		log.Warn().Err(err).Msg("write queue drain interrupted")
	}
	if pending := queue.Stats().Pending; pending > 0 {
		log.Error().Int("pending", pending).Msg("unsaved writes dropped at shutdown")
	}

	if runErr != nil {
		return fmt.Errorf("run server: %w", runErr)
	}
	log.Info().Msg("server stopped")
	return nil
}
