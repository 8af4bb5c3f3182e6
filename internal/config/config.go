// Package config defines the configuration structures of the RAC descriptor
// service. Loading lives in loader.go and defaults in defaults.go; this file
// only holds plain data types and validation.
package config

import (
	"fmt"
	"time"

	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/database/neo4j"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/storage/minio"
	"github.com/turtacn/RAC-Descriptors/internal/intelligence/rac"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"` // "debug" | "release" | "test"
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	MaxBodySize     int64         `mapstructure:"max_body_size"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// CORSOrigins enables CORS for these origins; empty disables it.
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// LogConfig holds logging parameters.
type LogConfig struct {
	Level       string   `mapstructure:"level"`  // "debug" | "info" | "warn" | "error"
	Format      string   `mapstructure:"format"` // "json" | "console"
	OutputPaths []string `mapstructure:"output_paths"`
}

// Logging converts the section into the logger's own config.
func (l LogConfig) Logging() logging.LogConfig {
	return logging.LogConfig{Level: l.Level, Format: l.Format, OutputPaths: l.OutputPaths}
}

// RACConfig holds the descriptor engine parameters. Statistic and policy
// names are validated by ToEngineConfig.
type RACConfig struct {
	Depth               int      `mapstructure:"depth"`
	Properties          []string `mapstructure:"properties"`
	AtomStats           []string `mapstructure:"atom_stats"`
	MolecularStats      []string `mapstructure:"molecular_stats"`
	ElementLabelKey     string   `mapstructure:"element_label_key"`
	AttributeProperties []string `mapstructure:"attribute_properties"`
	FailurePolicy       string   `mapstructure:"failure_policy"` // "fail_fast" | "skip_and_report"
	BatchConcurrency    int      `mapstructure:"batch_concurrency"`
	MaxBatchSize        int      `mapstructure:"max_batch_size"`
}

// ToEngineConfig converts the section into the immutable engine config.
func (r RACConfig) ToEngineConfig() (rac.Config, error) {
	atomStats, err := rac.ParseStatistics(r.AtomStats)
	if err != nil {
		return rac.Config{}, fmt.Errorf("config: rac.atom_stats: %w", err)
	}
	molStats, err := rac.ParseStatistics(r.MolecularStats)
	if err != nil {
		return rac.Config{}, fmt.Errorf("config: rac.molecular_stats: %w", err)
	}
	policy, err := rac.ParseFailurePolicy(r.FailurePolicy)
	if err != nil {
		return rac.Config{}, fmt.Errorf("config: rac.failure_policy: %w", err)
	}
	return rac.Config{
		Depth:               r.Depth,
		Properties:          append([]string(nil), r.Properties...),
		AtomStats:           atomStats,
		MolecularStats:      molStats,
		ElementLabelKey:     r.ElementLabelKey,
		AttributeProperties: append([]string(nil), r.AttributeProperties...),
		FailurePolicy:       policy,
		Concurrency:         r.BatchConcurrency,
	}, nil
}

// KafkaConfig holds Apache Kafka producer/consumer parameters.
type KafkaConfig struct {
	Brokers         []string      `mapstructure:"brokers"`
	GroupID         string        `mapstructure:"group_id"`
	SubmittedTopic  string        `mapstructure:"submitted_topic"`
	ComputedTopic   string        `mapstructure:"computed_topic"`
	DeadLetterTopic string        `mapstructure:"dead_letter_topic"`
	BatchSize       int           `mapstructure:"batch_size"`
	BatchTimeout    time.Duration `mapstructure:"batch_timeout"`
	MaxRetries      int           `mapstructure:"max_retries"`
	RetryBackoff    time.Duration `mapstructure:"retry_backoff"`
}

// MinIOConfig holds object-storage connection parameters.
type MinIOConfig struct {
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	UseSSL    bool   `mapstructure:"use_ssl"`
	Region    string `mapstructure:"region"`
	Prefix    string `mapstructure:"prefix"`
}

// Enabled reports whether an endpoint is configured.
func (m MinIOConfig) Enabled() bool { return m.Endpoint != "" }

// Client converts the section into the object-store client config.
func (m MinIOConfig) Client() minio.Config {
	return minio.Config{
		Endpoint:  m.Endpoint,
		AccessKey: m.AccessKey,
		SecretKey: m.SecretKey,
		Bucket:    m.Bucket,
		UseSSL:    m.UseSSL,
		Region:    m.Region,
		Prefix:    m.Prefix,
	}
}

// Neo4jConfig holds the molecule graph-store connection parameters.
type Neo4jConfig struct {
	URI                   string        `mapstructure:"uri"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	Database              string        `mapstructure:"database"`
	MaxConnectionPoolSize int           `mapstructure:"max_connection_pool_size"`
	ConnectionTimeout     time.Duration `mapstructure:"connection_timeout"`
}

// Enabled reports whether a URI is configured.
func (n Neo4jConfig) Enabled() bool { return n.URI != "" }

// Driver converts the section into the graph-store driver config.
func (n Neo4jConfig) Driver() neo4j.Config {
	return neo4j.Config{
		URI:                   n.URI,
		Username:              n.User,
		Password:              n.Password,
		Database:              n.Database,
		MaxConnectionPoolSize: n.MaxConnectionPoolSize,
		ConnectionTimeout:     n.ConnectionTimeout,
	}
}

// WorkerConfig holds background worker tunables.
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency"`
	HealthPort  int `mapstructure:"health_port"`
}

// MetricsConfig holds Prometheus exposition parameters.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Path      string `mapstructure:"path"`
	Namespace string `mapstructure:"namespace"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root Config
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration structure. Every binary reads its
// settings from the relevant sub-struct.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	RAC     RACConfig     `mapstructure:"rac"`
	Kafka   KafkaConfig   `mapstructure:"kafka"`
	MinIO   MinIOConfig   `mapstructure:"minio"`
	Neo4j   Neo4jConfig   `mapstructure:"neo4j"`
	Worker  WorkerConfig  `mapstructure:"worker"`
	Metrics MetricsConfig `mapstructure:"metrics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered.
func (c *Config) Validate() error {
	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("config: server.mode %q is invalid; expected debug|release|test", c.Server.Mode)
	}
	if c.Server.MaxBodySize < 0 {
		return fmt.Errorf("config: server.max_body_size must be >= 0, got %d", c.Server.MaxBodySize)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	// RAC
	if c.RAC.Depth < 0 {
		return fmt.Errorf("config: rac.depth must be >= 0, got %d", c.RAC.Depth)
	}
	if c.RAC.BatchConcurrency < 0 {
		return fmt.Errorf("config: rac.batch_concurrency must be >= 0, got %d", c.RAC.BatchConcurrency)
	}
	if c.RAC.MaxBatchSize < 1 {
		return fmt.Errorf("config: rac.max_batch_size must be >= 1, got %d", c.RAC.MaxBatchSize)
	}
	if _, err := c.RAC.ToEngineConfig(); err != nil {
		return err
	}

	// Kafka
	if len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("config: kafka.brokers must contain at least one broker address")
	}
	if c.Kafka.GroupID == "" {
		return fmt.Errorf("config: kafka.group_id is required")
	}
	if c.Kafka.MaxRetries < 0 {
		return fmt.Errorf("config: kafka.max_retries must be >= 0, got %d", c.Kafka.MaxRetries)
	}

	// MinIO is optional; a configured endpoint needs a bucket.
	if c.MinIO.Enabled() && c.MinIO.Bucket == "" {
		return fmt.Errorf("config: minio.bucket is required when minio.endpoint is set")
	}

	// Worker
	if c.Worker.Concurrency < 1 {
		return fmt.Errorf("config: worker.concurrency must be >= 1, got %d", c.Worker.Concurrency)
	}

	return nil
}
