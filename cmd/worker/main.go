// Command worker consumes molecule submissions from Kafka, computes their
// RAC descriptors and publishes the results.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/turtacn/RAC-Descriptors/internal/application/descriptor"
	"github.com/turtacn/RAC-Descriptors/internal/config"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/logging"
	monitoring "github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/prometheus"
	httpserver "github.com/turtacn/RAC-Descriptors/internal/interfaces/http"
	"github.com/turtacn/RAC-Descriptors/internal/interfaces/http/handlers"
	"github.com/turtacn/RAC-Descriptors/internal/interfaces/http/middleware"
)

var version = "dev"

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: RAC_* environment)")
	workers := flag.Int("workers", 0, "number of concurrent consumers (overrides config)")
	createTopics := flag.Bool("create-topics", false, "create the worker topics before consuming")
	flag.Parse()

	if err := run(*configPath, *workers, *createTopics); err != nil {
		fmt.Fprintf(os.Stderr, "worker: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, workers int, createTopics bool) error {
	cfg, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}
	if workers > 0 {
		cfg.Worker.Concurrency = workers
	}
	if cfg.Worker.Concurrency < 1 {
		cfg.Worker.Concurrency = 1
	}

	logger, err := logging.NewLogger(cfg.Log.Logging())
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	logging.SetDefault(logger)

	logger.Info("starting RAC descriptor worker",
		logging.String("version", version),
		logging.Int("consumers", cfg.Worker.Concurrency),
		logging.String("topic", cfg.Kafka.SubmittedTopic))

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

	if createTopics {
		tm, err := kafka.NewTopicManager(cfg.Kafka.Brokers, logger)
		if err != nil {
			return err
		}
		err = tm.EnsureTopics(context.Background(), kafka.DefaultTopics(1))
		_ = tm.Close()
		if err != nil {
			return err
		}
	}

	engine, err := cfg.RAC.ToEngineConfig()
	if err != nil {
		return err
	}
	svc, err := descriptor.NewService(engine,
		descriptor.WithLogger(logger.Named("descriptor")),
		descriptor.WithMetrics(metrics, "worker"),
		descriptor.WithMaxBatchSize(cfg.RAC.MaxBatchSize))
	if err != nil {
		return err
	}

	producer, err := kafka.NewProducer(kafka.ProducerConfig{
		Brokers:      cfg.Kafka.Brokers,
		BatchSize:    cfg.Kafka.BatchSize,
		BatchTimeout: cfg.Kafka.BatchTimeout,
	}, logger.Named("producer"))
	if err != nil {
		return err
	}
	defer producer.Close()

	handler := descriptor.NewSubmissionHandler(svc, producer, cfg.Kafka.ComputedTopic, logger)
	observe := func(topic, outcome string, took time.Duration) {
		metrics.RecordWorkerMessage(topic, outcome, took)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumers := make([]*kafka.Consumer, 0, cfg.Worker.Concurrency)
	defer func() {
		for _, c := range consumers {
			_ = c.Close()
		}
	}()
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		c, err := kafka.NewConsumer(kafka.ConsumerConfig{
			Brokers: cfg.Kafka.Brokers,
			GroupID: cfg.Kafka.GroupID,
			Topics:  []string{cfg.Kafka.SubmittedTopic},
			RetryConfig: kafka.RetryConfig{
				MaxRetries:      cfg.Kafka.MaxRetries,
				RetryBackoff:    cfg.Kafka.RetryBackoff,
				DeadLetterTopic: cfg.Kafka.DeadLetterTopic,
			},
			Observer: observe,
		}, producer, logger.Named("consumer").With(logging.Int("consumer", i)))
		if err != nil {
			return err
		}
		c.Subscribe(cfg.Kafka.SubmittedTopic, handler.Handle)
		if err := c.Start(ctx); err != nil {
			return err
		}
		consumers = append(consumers, c)
	}

	// Health checks and metrics on the side port.
	routerCfg := httpserver.RouterConfig{
		HealthHandler: handlers.NewHealthHandler(version),
		Mode:          "release",
		Logging:       middleware.DefaultLoggingConfig(),
		Logger:        logger,
		Metrics:       metrics,
		MetricsPath:   cfg.Metrics.Path,
	}
	if cfg.Metrics.Enabled {
		routerCfg.MetricsCollector = collector
	}
	health := httpserver.NewServer(config.ServerConfig{
		Port:         cfg.Worker.HealthPort,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}, httpserver.NewRouter(routerCfg), logger)
	go func() {
		if err := health.Start(); err != nil {
			logger.Error("health server failed", logging.Err(err))
		}
	}()

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
	sig := <-quit
	logger.Info("shutting down", logging.String("signal", sig.String()))

	cancel()
	for _, c := range consumers {
		_ = c.Close()
	}
	consumers = nil
	return health.Stop(context.Background())
}
