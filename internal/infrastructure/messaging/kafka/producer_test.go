package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/turtacn/RAC-Descriptors/internal/testutil"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
	"github.com/turtacn/RAC-Descriptors/pkg/types/common"
)

type mockKafkaWriter struct {
	writeFunc func(ctx context.Context, msgs ...kafka.Message) error
	written   []kafka.Message
	closed    int
}

func (m *mockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	if m.writeFunc != nil {
		if err := m.writeFunc(ctx, msgs...); err != nil {
			return err
		}
	}
	m.written = append(m.written, msgs...)
	return nil
}

func (m *mockKafkaWriter) Close() error {
	m.closed++
	return nil
}

func newTestProducer(w WriterInterface) *Producer {
	return newProducer(w, ProducerConfig{Brokers: []string{"localhost:9092"}, MaxMessageBytes: 64}, testutil.NewMockLogger())
}

func msgOf(topic, key, value string) *common.ProducerMessage {
	return &common.ProducerMessage{Topic: topic, Key: []byte(key), Value: []byte(value)}
}

func TestValidateProducerConfig(t *testing.T) {
	assert.NoError(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}, MaxRetries: -1}))
	assert.Error(t, ValidateProducerConfig(ProducerConfig{Brokers: []string{"b:9092"}, Acks: "some"}))
}

func TestNewProducer_NoConnection(t *testing.T) {
	p, err := NewProducer(ProducerConfig{Brokers: []string{"localhost:1"}, CompressionCodec: "zstd"}, nil)
	require.NoError(t, err)
	assert.NoError(t, p.Close())
}

func TestPublish_Success(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)

	msg := msgOf(TopicDescriptorComputed, "mol-1", `{"a":1}`)
	msg.Headers = map[string]string{"event_type": EventDescriptorComputed}
	require.NoError(t, p.Publish(context.Background(), msg))

	require.Len(t, w.written, 1)
	got := w.written[0]
	assert.Equal(t, TopicDescriptorComputed, got.Topic)
	assert.Equal(t, "mol-1", string(got.Key))
	assert.False(t, got.Time.IsZero())
	require.Len(t, got.Headers, 1)
	assert.Equal(t, "event_type", got.Headers[0].Key)

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.MessagesSent)
	assert.Equal(t, int64(7), stats.BytesSent)
}

func TestPublish_Validation(t *testing.T) {
	p := newTestProducer(&mockKafkaWriter{})
	ctx := context.Background()

	assert.True(t, apperrors.IsCode(p.Publish(ctx, msgOf("", "k", "v")), apperrors.ErrCodeValidation))
	assert.True(t, apperrors.IsCode(p.Publish(ctx, msgOf("t", "k", "")), apperrors.ErrCodeValidation))
	big := make([]byte, 65)
	assert.True(t, apperrors.IsCode(p.Publish(ctx, &common.ProducerMessage{Topic: "t", Value: big}), apperrors.ErrCodeValidation))
	assert.True(t, apperrors.IsCode(p.Publish(ctx, nil), apperrors.ErrCodeValidation))
}

func TestPublish_WriterError(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(context.Context, ...kafka.Message) error { return errors.New("broker down") }}
	p := newTestProducer(w)

	err := p.Publish(context.Background(), msgOf("t", "k", "v"))
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeMessageQueueError, apperrors.GetCode(err))
	assert.Equal(t, int64(1), p.Stats().MessagesFailed)
}

func TestPublish_AfterClose(t *testing.T) {
	w := &mockKafkaWriter{}
	p := newTestProducer(w)
	require.NoError(t, p.Close())
	require.NoError(t, p.Close())
	assert.Equal(t, 1, w.closed)

	assert.Equal(t, ErrProducerClosed, p.Publish(context.Background(), msgOf("t", "k", "v")))
}

func TestPublishBatch_PartialFailure(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(_ context.Context, msgs ...kafka.Message) error {
		return kafka.WriteErrors{nil, errors.New("too large"), nil}
	}}
	p := newTestProducer(w)

	res, err := p.PublishBatch(context.Background(), []*common.ProducerMessage{
		msgOf("t", "a", "1"), msgOf("t", "b", "2"), msgOf("t", "c", "3"),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Succeeded)
	assert.Equal(t, 1, res.Failed)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, 1, res.Errors[0].Index)
}

func TestPublishBatch_TotalFailureAndEmpty(t *testing.T) {
	w := &mockKafkaWriter{writeFunc: func(context.Context, ...kafka.Message) error { return errors.New("down") }}
	p := newTestProducer(w)

	res, err := p.PublishBatch(context.Background(), []*common.ProducerMessage{msgOf("t", "a", "1"), msgOf("t", "b", "2")})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Failed)
	assert.Equal(t, -1, res.Errors[0].Index)

	_, err = p.PublishBatch(context.Background(), nil)
	assert.Error(t, err)
}
