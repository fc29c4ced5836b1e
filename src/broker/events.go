package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"citriage/src/contracts"
	"citriage/src/execute"
	"citriage/src/logger"
	"citriage/src/plan"
)

// DefaultPublishTimeout bounds a single event publish.
const DefaultPublishTimeout = 10 * time.Second

// Emitter publishes lifecycle events. Publish failures are logged and
// returned; callers treat them as non-fatal.
type Emitter struct {
	broker  Broker
	log     logger.Logger
	timeout time.Duration
	now     func() time.Time
}

// NewEmitter wraps b. A nil log discards messages.
func NewEmitter(b Broker, log logger.Logger) *Emitter {
	if log == nil {
		log = logger.NewSilentLogger()
	}
	return &Emitter{
		broker:  b,
		log:     log,
		timeout: DefaultPublishTimeout,
		now:     time.Now,
	}
}

// PlanCreated publishes a contracts.PlanCreated event for a saved plan.
func (e *Emitter) PlanCreated(ctx context.Context, p *plan.Plan, h plan.Handle) error {
	ev := contracts.NewPlanCreated(p, h, e.now())
	return e.emit(ctx, contracts.TopicPlansCreated, p.ID, ev)
}

// ReportCompleted publishes a contracts.ReportCompleted event.
func (e *Emitter) ReportCompleted(ctx context.Context, r *execute.Result) error {
	ev := contracts.NewReportCompleted(r, e.now())
	return e.emit(ctx, contracts.TopicReportsCompleted, ev.PlanID, ev)
}

func (e *Emitter) emit(ctx context.Context, topic, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", topic, err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := e.broker.Publish(ctx, topic, key, data); err != nil {
		e.log.Warn("event %s for %s not published: %v", topic, key, err)
		return err
	}
	e.log.Debug("published %s for %s (%d bytes)", topic, key, len(data))
	return nil
}
