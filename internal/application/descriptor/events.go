package descriptor

import (
	"context"
	"time"

	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/messaging/kafka"
	"github.com/turtacn/RAC-Descriptors/internal/infrastructure/monitoring/logging"
	apperrors "github.com/turtacn/RAC-Descriptors/pkg/errors"
	"github.com/turtacn/RAC-Descriptors/pkg/types/common"
	dto "github.com/turtacn/RAC-Descriptors/pkg/types/descriptor"
)

// EventSource is the envelope source written by the worker.
const EventSource = "rac-worker"

// SubmissionHandler computes descriptors for molecule.submitted events and
// publishes a descriptor.computed event for each.
//
// Invalid submissions produce a failure event and a permanent error, so the
// consumer dead-letters them without retrying. Server-side failures are
// returned as-is and retried.
type SubmissionHandler struct {
	svc       *Service
	publisher kafka.Publisher
	topic     string
	logger    logging.Logger
	now       func() time.Time
}

// NewSubmissionHandler publishes results to topic through publisher.
func NewSubmissionHandler(svc *Service, publisher kafka.Publisher, topic string, logger logging.Logger) *SubmissionHandler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if topic == "" {
		topic = kafka.TopicDescriptorComputed
	}
	return &SubmissionHandler{
		svc:       svc,
		publisher: publisher,
		topic:     topic,
		logger:    logger,
		now:       time.Now,
	}
}

// Handle is a common.MessageHandler.
func (h *SubmissionHandler) Handle(ctx context.Context, msg *common.Message) error {
	env, err := kafka.MessageToEventEnvelope(msg)
	if err != nil {
		return kafka.Permanent(err)
	}
	if env.EventType != kafka.EventMoleculeSubmitted {
		return kafka.Permanent(apperrors.Newf(apperrors.ErrCodeValidation, "unexpected event type %q", env.EventType))
	}
	var req dto.ComputeRequest
	if err := env.DecodePayload(&req); err != nil {
		return kafka.Permanent(err)
	}

	ctx = logging.WithRequestID(ctx, env.EventID)
	log := h.logger.WithContext(ctx)

	event := dto.ComputedEvent{MoleculeID: req.Molecule.ID}
	resp, err := h.svc.Compute(ctx, req)
	if err != nil {
		code := apperrors.GetCode(err)
		if code == apperrors.CodeUnknown || apperrors.IsServerError(code) {
			return err
		}
		event.Error = err.Error()
		event.Code = string(code)
	} else {
		event.Labels = resp.Labels
		event.Values = resp.Values
	}
	event.ComputedAt = h.now().UTC().Format(time.RFC3339Nano)

	key := req.Molecule.ID
	if key == "" {
		key = env.EventID
	}
	if perr := h.publish(ctx, event, key, env.TraceID); perr != nil {
		return perr
	}

	if err != nil {
		log.Debug("submission rejected",
			logging.String("molecule_id", req.Molecule.ID),
			logging.String("code", event.Code))
		return kafka.Permanent(err)
	}
	log.Debug("descriptor event published",
		logging.String("molecule_id", req.Molecule.ID),
		logging.Int("features", len(event.Labels)))
	return nil
}

func (h *SubmissionHandler) publish(ctx context.Context, event dto.ComputedEvent, key, traceID string) error {
	out, err := kafka.NewEventEnvelope(kafka.EventDescriptorComputed, EventSource, event)
	if err != nil {
		return kafka.Permanent(err)
	}
	out.TraceID = traceID
	pm, err := out.ToMessage(h.topic, key)
	if err != nil {
		return kafka.Permanent(err)
	}
	return h.publisher.Publish(ctx, pm)
}

// NewSubmission renders req as a molecule.submitted message for topic.
func NewSubmission(topic, source string, req dto.ComputeRequest) (*common.ProducerMessage, error) {
	env, err := kafka.NewEventEnvelope(kafka.EventMoleculeSubmitted, source, req)
	if err != nil {
		return nil, err
	}
	if topic == "" {
		topic = kafka.TopicMoleculeSubmitted
	}
	return env.ToMessage(topic, req.Molecule.ID)
}
