package testutil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/RAC-Descriptors/internal/testutil"
)

func TestMockLogger(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Info("test info", logging.String("key", "value"))

	messages := logger.GetMessages()
	assert.Len(t, messages, 1)
	assert.Equal(t, "info", messages[0].Level)
	assert.Equal(t, "test info", messages[0].Message)

	v, ok := messages[0].Field("key")
	assert.True(t, ok)
	assert.Equal(t, "value", v)
	_, ok = messages[0].Field("missing")
	assert.False(t, ok)

	logger.Clear()
	assert.Len(t, logger.GetMessages(), 0)

	logger.Error("test error")
	assert.True(t, logger.HasMessage("error", "test error"))
	assert.False(t, logger.HasMessage("info", "test info"))
}

func TestMockLogger_ChildSharesRecord(t *testing.T) {
	logger := testutil.NewMockLogger()

	logger.Named("rac").With(logging.Int("n", 1)).Warn("3 of 10 calculated features have NaN values")

	assert.Len(t, logger.MessagesAt("warn"), 1)
	assert.True(t, logger.HasMessageContaining("warn", "NaN values"))
	assert.False(t, logger.HasMessageContaining("info", "NaN values"))
}
