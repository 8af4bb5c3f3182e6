package config

import (
	"time"

	"github.com/spf13/viper"
	"github.com/turtacn/RAC-Descriptors/internal/domain/molecule"
	"github.com/turtacn/RAC-Descriptors/internal/intelligence/rac"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServerPort         = 8080
	DefaultServerMode         = "release"
	DefaultReadTimeout        = 30 * time.Second
	DefaultWriteTimeout       = 60 * time.Second
	DefaultMaxBodySize  int64 = 32 << 20
	DefaultShutdownTimeout    = 15 * time.Second

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultFailurePolicy = "fail_fast"
	DefaultMaxBatchSize  = 10000

	DefaultKafkaBroker       = "localhost:9092"
	DefaultKafkaGroupID      = "rac-descriptor-worker"
	DefaultSubmittedTopic    = "rac.molecule.submitted"
	DefaultComputedTopic     = "rac.descriptor.computed"
	DefaultDeadLetterTopic   = "rac.molecule.submitted.dlq"
	DefaultKafkaBatchSize    = 100
	DefaultKafkaBatchTimeout = 10 * time.Millisecond
	DefaultKafkaMaxRetries   = 3
	DefaultKafkaRetryBackoff = 500 * time.Millisecond

	DefaultMinIOPrefix = "descriptors"

	DefaultNeo4jDatabase    = "neo4j"
	DefaultNeo4jPoolSize    = 50
	DefaultNeo4jConnTimeout = 10 * time.Second

	DefaultWorkerConcurrency = 4
	DefaultWorkerHealthPort  = 8081

	DefaultMetricsPath      = "/metrics"
	DefaultMetricsNamespace = "rac"
)

// DefaultAtomStats and DefaultMolecularStats mirror rac.DefaultConfig.
var (
	DefaultAtomStats      = []string{"sum"}
	DefaultMolecularStats = []string{"sum", "std", "min", "max"}
)

// ─────────────────────────────────────────────────────────────────────────────
// ApplyDefaults
// ─────────────────────────────────────────────────────────────────────────────

// ApplyDefaults fills every zero-value field in cfg with its default.
// Fields already set by the caller are left unchanged. rac.depth is not
// touched here because 0 is a valid depth; its default is registered with
// viper instead.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = DefaultServerMode
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Server.MaxBodySize == 0 {
		cfg.Server.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultShutdownTimeout
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}

	// ── RAC ───────────────────────────────────────────────────────────────────
	if len(cfg.RAC.Properties) == 0 {
		cfg.RAC.Properties = rac.PropertyNames()
	}
	if len(cfg.RAC.AtomStats) == 0 {
		cfg.RAC.AtomStats = append([]string(nil), DefaultAtomStats...)
	}
	if len(cfg.RAC.MolecularStats) == 0 {
		cfg.RAC.MolecularStats = append([]string(nil), DefaultMolecularStats...)
	}
	if cfg.RAC.ElementLabelKey == "" {
		cfg.RAC.ElementLabelKey = molecule.DefaultLabelKey
	}
	if cfg.RAC.FailurePolicy == "" {
		cfg.RAC.FailurePolicy = DefaultFailurePolicy
	}
	if cfg.RAC.MaxBatchSize == 0 {
		cfg.RAC.MaxBatchSize = DefaultMaxBatchSize
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.GroupID == "" {
		cfg.Kafka.GroupID = DefaultKafkaGroupID
	}
	if cfg.Kafka.SubmittedTopic == "" {
		cfg.Kafka.SubmittedTopic = DefaultSubmittedTopic
	}
	if cfg.Kafka.ComputedTopic == "" {
		cfg.Kafka.ComputedTopic = DefaultComputedTopic
	}
	if cfg.Kafka.DeadLetterTopic == "" {
		cfg.Kafka.DeadLetterTopic = DefaultDeadLetterTopic
	}
	if cfg.Kafka.BatchSize == 0 {
		cfg.Kafka.BatchSize = DefaultKafkaBatchSize
	}
	if cfg.Kafka.BatchTimeout == 0 {
		cfg.Kafka.BatchTimeout = DefaultKafkaBatchTimeout
	}
	if cfg.Kafka.MaxRetries == 0 {
		cfg.Kafka.MaxRetries = DefaultKafkaMaxRetries
	}
	if cfg.Kafka.RetryBackoff == 0 {
		cfg.Kafka.RetryBackoff = DefaultKafkaRetryBackoff
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Prefix == "" {
		cfg.MinIO.Prefix = DefaultMinIOPrefix
	}

	// ── Neo4j ─────────────────────────────────────────────────────────────────
	if cfg.Neo4j.Database == "" {
		cfg.Neo4j.Database = DefaultNeo4jDatabase
	}
	if cfg.Neo4j.MaxConnectionPoolSize == 0 {
		cfg.Neo4j.MaxConnectionPoolSize = DefaultNeo4jPoolSize
	}
	if cfg.Neo4j.ConnectionTimeout == 0 {
		cfg.Neo4j.ConnectionTimeout = DefaultNeo4jConnTimeout
	}

	// ── Worker ────────────────────────────────────────────────────────────────
	if cfg.Worker.Concurrency == 0 {
		cfg.Worker.Concurrency = DefaultWorkerConcurrency
	}
	if cfg.Worker.HealthPort == 0 {
		cfg.Worker.HealthPort = DefaultWorkerHealthPort
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}

// registerDefaults seeds v with every known key. AutomaticEnv only resolves
// keys viper already knows about, so this is what lets RAC_* variables work
// without a config file.
func registerDefaults(v *viper.Viper) {
	v.SetDefault("server.port", DefaultServerPort)
	v.SetDefault("server.mode", DefaultServerMode)
	v.SetDefault("server.read_timeout", DefaultReadTimeout)
	v.SetDefault("server.write_timeout", DefaultWriteTimeout)
	v.SetDefault("server.max_body_size", DefaultMaxBodySize)
	v.SetDefault("server.shutdown_timeout", DefaultShutdownTimeout)
	v.SetDefault("server.cors_origins", []string{})

	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("log.output_paths", []string{"stdout"})

	v.SetDefault("rac.depth", rac.DefaultDepth)
	v.SetDefault("rac.properties", rac.PropertyNames())
	v.SetDefault("rac.atom_stats", DefaultAtomStats)
	v.SetDefault("rac.molecular_stats", DefaultMolecularStats)
	v.SetDefault("rac.element_label_key", molecule.DefaultLabelKey)
	v.SetDefault("rac.attribute_properties", []string{})
	v.SetDefault("rac.failure_policy", DefaultFailurePolicy)
	v.SetDefault("rac.batch_concurrency", 0)
	v.SetDefault("rac.max_batch_size", DefaultMaxBatchSize)

	v.SetDefault("kafka.brokers", []string{DefaultKafkaBroker})
	v.SetDefault("kafka.group_id", DefaultKafkaGroupID)
	v.SetDefault("kafka.submitted_topic", DefaultSubmittedTopic)
	v.SetDefault("kafka.computed_topic", DefaultComputedTopic)
	v.SetDefault("kafka.dead_letter_topic", DefaultDeadLetterTopic)
	v.SetDefault("kafka.batch_size", DefaultKafkaBatchSize)
	v.SetDefault("kafka.batch_timeout", DefaultKafkaBatchTimeout)
	v.SetDefault("kafka.max_retries", DefaultKafkaMaxRetries)
	v.SetDefault("kafka.retry_backoff", DefaultKafkaRetryBackoff)

	v.SetDefault("minio.endpoint", "")
	v.SetDefault("minio.access_key", "")
	v.SetDefault("minio.secret_key", "")
	v.SetDefault("minio.bucket", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.region", "")
	v.SetDefault("minio.prefix", DefaultMinIOPrefix)

	v.SetDefault("neo4j.uri", "")
	v.SetDefault("neo4j.user", "")
	v.SetDefault("neo4j.password", "")
	v.SetDefault("neo4j.database", DefaultNeo4jDatabase)
	v.SetDefault("neo4j.max_connection_pool_size", DefaultNeo4jPoolSize)
	v.SetDefault("neo4j.connection_timeout", DefaultNeo4jConnTimeout)

	v.SetDefault("worker.concurrency", DefaultWorkerConcurrency)
	v.SetDefault("worker.health_port", DefaultWorkerHealthPort)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", DefaultMetricsPath)
	v.SetDefault("metrics.namespace", DefaultMetricsNamespace)
}
