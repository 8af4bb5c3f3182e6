package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/turtacn/RAC-Descriptors/internal/intelligence/rac"
)

func TestApplyDefaults_EmptyConfig(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	assert.Equal(t, DefaultServerPort, cfg.Server.Port)
	assert.Equal(t, DefaultServerMode, cfg.Server.Mode)
	assert.Equal(t, DefaultLogLevel, cfg.Log.Level)
	assert.Equal(t, rac.PropertyNames(), cfg.RAC.Properties)
	assert.Equal(t, []string{"sum"}, cfg.RAC.AtomStats)
	assert.Equal(t, []string{"sum", "std", "min", "max"}, cfg.RAC.MolecularStats)
	assert.Equal(t, "node_label", cfg.RAC.ElementLabelKey)
	assert.Equal(t, DefaultFailurePolicy, cfg.RAC.FailurePolicy)
	assert.Equal(t, []string{DefaultKafkaBroker}, cfg.Kafka.Brokers)
	assert.Equal(t, "rac.molecule.submitted", cfg.Kafka.SubmittedTopic)
	assert.Equal(t, "rac.descriptor.computed", cfg.Kafka.ComputedTopic)
	assert.Equal(t, "rac.molecule.submitted.dlq", cfg.Kafka.DeadLetterTopic)
	assert.Equal(t, DefaultMinIOPrefix, cfg.MinIO.Prefix)
	assert.Equal(t, DefaultWorkerConcurrency, cfg.Worker.Concurrency)
	assert.Equal(t, DefaultMetricsPath, cfg.Metrics.Path)

	// Zero is a valid depth and is left alone.
	assert.Equal(t, 0, cfg.RAC.Depth)
}

func TestApplyDefaults_PreserveExistingValues(t *testing.T) {
	cfg := &Config{}
	cfg.Server.Port = 9999
	cfg.RAC.MolecularStats = []string{"max"}
	cfg.Kafka.ComputedTopic = "custom"
	ApplyDefaults(cfg)

	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, []string{"max"}, cfg.RAC.MolecularStats)
	assert.Equal(t, "custom", cfg.Kafka.ComputedTopic)
}

func TestApplyDefaults_DoesNotAliasPackageDefaults(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)
	cfg.RAC.MolecularStats[0] = "min"
	assert.Equal(t, "sum", DefaultMolecularStats[0])
}

func TestApplyDefaults_Nil(t *testing.T) {
	assert.NotPanics(t, func() { ApplyDefaults(nil) })
}
