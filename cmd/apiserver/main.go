// Command apiserver serves the descriptor HTTP API.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/RAC-Descriptors/internal/application/descriptor"
	"github.com/turtacn/RAC-Descriptors/internal/config"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/database/neo4j"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/logging"
	monitoring "github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/storage/minio"
	httpserver "github.com/turtacn/RAC-Descriptors/internal/interfaces/http"
	"github.com/turtacn/RAC-Descriptors/internal/interfaces/http/handlers"
	"github.com/turtacn/RAC-Descriptors/internal/interfaces/http/middleware"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: RAC_* environment)")
	httpPort := flag.Int("http-port", 0, "HTTP server port (overrides config)")
	flag.Parse()

	if err := run(*configPath, *httpPort); err != nil {
		fmt.Fprintf(os.Stderr, "apiserver: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, httpPort int) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if httpPort > 0 {
		cfg.Server.Port = httpPort
	}

	logger, err := logging.NewLogger(cfg.Log.Logging())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	logger.Info("starting RAC descriptor API server",
		logging.String("version", version),
		logging.Int("port", cfg.Server.Port))

	collector := monitoring.NewNoopCollector()
	if cfg.Metrics.Enabled {
		if collector, err = monitoring.NewMetricsCollector(monitoring.CollectorConfig{
			Namespace:            cfg.Metrics.Namespace,
			EnableProcessMetrics: true,
			EnableGoMetrics:      true,
		}, logger); err != nil {
			return fmt.Errorf("failed to initialize metrics: %w", err)
		}
	}
	metrics := monitoring.NewRACMetrics(collector)

	engine, err := cfg.RAC.ToEngineConfig()
	if err != nil {
		return err
	}
	svcOpts := []descriptor.Option{
		descriptor.WithLogger(logger.Named("descriptor")),
		descriptor.WithMetrics(metrics, "http"),
		descriptor.WithMaxBatchSize(cfg.RAC.MaxBatchSize),
	}
	var checkers []handlers.HealthChecker

	if cfg.MinIO.Enabled() {
		client, err := minio.NewClient(cfg.MinIO.Client(), logger.Named("minio"))
		if err != nil {
			return fmt.Errorf("failed to connect object store: %w", err)
		}
		defer client.Close()
		svcOpts = append(svcOpts, descriptor.WithTableStore(minio.NewTableStore(client, logger)))
		checkers = append(checkers, &minioHealthAdapter{client: client})
	}
	if cfg.Neo4j.Enabled() {
		driver, err := neo4j.NewDriver(cfg.Neo4j.Driver(), logger.Named("neo4j"))
		if err != nil {
			return fmt.Errorf("failed to connect graph store: %w", err)
		}
		defer driver.Close()
		svcOpts = append(svcOpts, descriptor.WithMoleculeLoader(neo4j.NewMoleculeSource(driver, engine.ElementLabelKey, logger)))
		checkers = append(checkers, &neo4jHealthAdapter{driver: driver})
	}

	svc, err := descriptor.NewService(engine, svcOpts...)
	if err != nil {
		return err
	}

	routerCfg := httpserver.RouterConfig{
		DescriptorHandler: handlers.NewDescriptorHandler(svc, logger),
		HealthHandler:     handlers.NewHealthHandler(version, checkers...),
		Mode:              cfg.Server.Mode,
		Logging:           middleware.DefaultLoggingConfig(),
		MaxBodySize:       cfg.Server.MaxBodySize,
		Logger:            logger,
		Metrics:           metrics,
		MetricsPath:       cfg.Metrics.Path,
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsCollector = collector
	}
	if len(cfg.Server.CORSOrigins) > 0 {
		cors := middleware.DefaultCORSConfig()
		cors.AllowedOrigins = cfg.Server.CORSOrigins
		routerCfg.CORS = &cors
	}

	srv := httpserver.NewServer(cfg.Server, httpserver.NewRouter(routerCfg), logger)
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	if configPath != "" {
		if err := config.Watch(configPath, func(next *config.Config) {
			logging.SetLevel(next.Log.Level)
			logger.Info("log level reloaded", logging.String("level", next.Log.Level))
		}, func(err error) {
			logger.Warn("config reload failed", logging.Err(err))
		}); err != nil {
			logger.Warn("config watch disabled", logging.Err(err))
		}
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		logger.Info("shutting down", logging.String("signal", sig.String()))
	}

	return srv.Stop(context.Background())
}
