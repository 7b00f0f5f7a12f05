package wizard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/irfndi/heartguard-ai-go/internal/form"
	"github.com/irfndi/heartguard-ai-go/internal/logging"
	"github.com/irfndi/heartguard-ai-go/internal/models"
	"github.com/irfndi/heartguard-ai-go/internal/prediction"
	"github.com/irfndi/heartguard-ai-go/internal/telemetry"
)

var (
	// ErrSubmitInFlight is returned when a session already waits for a prediction.
	ErrSubmitInFlight = errors.New("a submission is already in progress")
	// ErrInvalidField is returned when a field value is rejected by the form schema.
	ErrInvalidField = errors.New("invalid field value")
	// ErrUnknownPreset is returned for a preset id that does not exist.
	ErrUnknownPreset = errors.New("unknown preset")

	errStaleOutcome = errors.New("submission outcome no longer applies")
)

// MessageInterrupted replaces a submission that never reported back.
const MessageInterrupted = "The previous submission was interrupted. Please submit again."

// Store persists one State per session. Update applies fn atomically: when
// fn returns an error nothing is written and the error is returned as is.
// Sessions that do not exist yet start from Initial().
type Store interface {
	Load(ctx context.Context, id string) (State, error)
	Update(ctx context.Context, id string, fn func(State) (State, error)) (State, error)
	Delete(ctx context.Context, id string) error
}

// Predictor scores a patient record.
type Predictor interface {
	Predict(ctx context.Context, record models.PatientRecord) (*models.PredictionResult, error)
}

// HealthReporter reports whether the scoring service is reachable.
type HealthReporter interface {
	Check(ctx context.Context) bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithStaleAfter sets how long a submission may stay in flight before a new
// one is accepted in its place.
func WithStaleAfter(d time.Duration) Option {
	return func(c *Controller) { c.staleAfter = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithEventLog sends prediction outcomes and refused operations to l as
// business events.
func WithEventLog(l *logging.StandardLogger) Option {
	return func(c *Controller) { c.events = l }
}

// Business event types.
const (
	EventPredictionCompleted = "prediction_completed"
	EventPredictionFailed    = "prediction_failed"
)

// WithTracer sets the tracer used for submissions.
func WithTracer(t *telemetry.BusinessTracer) Option {
	return func(c *Controller) { c.tracer = t }
}

// Controller runs wizard operations for browser sessions.
type Controller struct {
	store      Store
	predictor  Predictor
	health     HealthReporter
	logger     *logrus.Logger
	tracer     *telemetry.BusinessTracer
	events     *logging.StandardLogger
	staleAfter time.Duration
	now        func() time.Time
}

// NewController creates a Controller.
func NewController(store Store, predictor Predictor, health HealthReporter, logger *logrus.Logger, opts ...Option) *Controller {
	if logger == nil {
		logger = logrus.New()
	}
	c := &Controller{
		store:      store,
		predictor:  predictor,
		health:     health,
		logger:     logger,
		tracer:     telemetry.NewBusinessTracer(),
		staleAfter: 3 * prediction.DefaultTimeout,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Snapshot returns the current state of a session.
func (c *Controller) Snapshot(ctx context.Context, id string) (State, error) {
	s, err := c.store.Load(ctx, id)
	if err != nil {
		return State{}, fmt.Errorf("failed to load wizard state: %w", err)
	}
	return s, nil
}

// Dispatch applies a pure action without side effects. Form edits return
// ErrSubmitInFlight while the session waits for a prediction.
func (c *Controller) Dispatch(ctx context.Context, id string, a Action) (State, error) {
	ctx, span := c.tracer.TraceAction(ctx, id, ActionName(a))
	defer span.End()

	s, err := c.store.Update(ctx, id, func(s State) (State, error) {
		s, err := c.unlock(s, a)
		if err != nil {
			return s, err
		}
		return Reduce(s, a), nil
	})
	if errors.Is(err, ErrSubmitInFlight) {
		c.refused(id, ActionName(a))
		return State{}, err
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return State{}, fmt.Errorf("failed to apply %s: %w", ActionName(a), err)
	}
	c.logger.WithFields(logrus.Fields{
		"session_id": id,
		"action":     ActionName(a),
		"step":       s.Step,
	}).Debug("Wizard action applied")
	return s, nil
}

// SetField validates and stores one field value.
func (c *Controller) SetField(ctx context.Context, id string, field models.Field, value float64) (State, error) {
	return c.SetFields(ctx, id, map[models.Field]float64{field: value})
}

// SetFields validates all values and stores them together; a single invalid
// value leaves the state unchanged. It returns ErrSubmitInFlight while the
// session waits for a prediction.
func (c *Controller) SetFields(ctx context.Context, id string, values map[models.Field]float64) (State, error) {
	for field, value := range values {
		if err := form.Validate(field, value); err != nil {
			return State{}, fmt.Errorf("%w: %w", ErrInvalidField, err)
		}
	}

	ctx, span := c.tracer.TraceAction(ctx, id, "set_fields")
	defer span.End()

	s, err := c.store.Update(ctx, id, func(s State) (State, error) {
		s, err := c.unlock(s, SetField{})
		if err != nil {
			return s, err
		}
		for _, field := range models.AllFields {
			if value, ok := values[field]; ok {
				s = Reduce(s, SetField{Field: field, Value: value})
			}
		}
		return s, nil
	})
	if errors.Is(err, ErrSubmitInFlight) {
		c.refused(id, "set_fields")
		return State{}, err
	}
	if err != nil {
		telemetry.RecordError(span, err)
		return State{}, fmt.Errorf("failed to store fields: %w", err)
	}
	return s, nil
}

// Next advances one step.
func (c *Controller) Next(ctx context.Context, id string) (State, error) {
	return c.Dispatch(ctx, id, NextStep{})
}

// Prev goes back one step.
func (c *Controller) Prev(ctx context.Context, id string) (State, error) {
	return c.Dispatch(ctx, id, PrevStep{})
}

// GoTo jumps to a step, clamped to the valid range.
func (c *Controller) GoTo(ctx context.Context, id string, step int) (State, error) {
	return c.Dispatch(ctx, id, GoToStep{Step: step})
}

// Modify returns to the first step keeping the record.
func (c *Controller) Modify(ctx context.Context, id string) (State, error) {
	return c.GoTo(ctx, id, 0)
}

// Reset restores the initial record and step.
func (c *Controller) Reset(ctx context.Context, id string) (State, error) {
	return c.Dispatch(ctx, id, Reset{})
}

// Submit sends the current record to the scoring service and stores the
// outcome. It returns ErrSubmitInFlight, without any network call, when the
// session is already waiting for a prediction.
func (c *Controller) Submit(ctx context.Context, id string) (State, error) {
	return c.submit(ctx, id, "form", nil)
}

// Retry re-sends the unchanged record after a failure.
func (c *Controller) Retry(ctx context.Context, id string) (State, error) {
	return c.submit(ctx, id, "retry", nil)
}

// LoadPreset fills the record from a preset and submits it.
func (c *Controller) LoadPreset(ctx context.Context, id, presetID string) (State, error) {
	preset, err := form.FindPreset(presetID)
	if err != nil {
		return State{}, fmt.Errorf("%w: %s", ErrUnknownPreset, presetID)
	}
	return c.submit(ctx, id, "preset", func(s State) State {
		return Reduce(s, LoadPreset{Record: preset.Record})
	})
}

// RefreshHealth checks the scoring service and records the verdict.
func (c *Controller) RefreshHealth(ctx context.Context, id string) (State, error) {
	healthy := c.health != nil && c.health.Check(ctx)
	return c.Dispatch(ctx, id, SetAPIHealth{Healthy: healthy})
}

func (c *Controller) inFlight(s State) bool {
	if !s.Loading {
		return false
	}
	if c.staleAfter <= 0 || s.SubmittedAt.IsZero() {
		return true
	}
	return c.now().Sub(s.SubmittedAt) < c.staleAfter
}

// unlock checks that a may be applied to s. Form edits are refused with
// ErrSubmitInFlight while a submission is live; a stale one is closed as
// interrupted first.
func (c *Controller) unlock(s State, a Action) (State, error) {
	if !s.Loading || !editsForm(a) {
		return s, nil
	}
	if c.inFlight(s) {
		return s, ErrSubmitInFlight
	}
	c.logger.WithField("action", ActionName(a)).Warn("Closing stale submission before edit")
	return Reduce(s, SubmitError{Message: MessageInterrupted}), nil
}

func (c *Controller) event(eventType string, details map[string]interface{}) {
	if c.events != nil {
		c.events.LogBusinessEvent(eventType, details)
	}
}

// refused records an operation turned away because a submission is live.
func (c *Controller) refused(id, op string) {
	if c.events == nil {
		c.logger.WithFields(logrus.Fields{"session_id": id, "operation": op}).Debug("Refused while submitting")
		return
	}
	c.events.WithSession(id).Info("Refused while submitting", "operation", op)
}

func (c *Controller) submit(ctx context.Context, id, source string, prepare func(State) State) (State, error) {
	log := c.logger.WithFields(logrus.Fields{"session_id": id, "source": source})

	started, err := c.store.Update(ctx, id, func(s State) (State, error) {
		if c.inFlight(s) {
			return s, ErrSubmitInFlight
		}
		if s.Loading {
			log.Warn("Replacing stale submission")
			s = Reduce(s, SubmitError{Message: MessageInterrupted})
		}
		if prepare != nil {
			s = prepare(s)
		}
		return Reduce(s, SubmitStart{At: c.now()}), nil
	})
	if err != nil {
		if errors.Is(err, ErrSubmitInFlight) {
			c.refused(id, "submit_"+source)
			return State{}, err
		}
		return State{}, fmt.Errorf("failed to start submission: %w", err)
	}

	// The submission outlives the request that started it; the client still
	// bounds the call.
	callCtx := context.WithoutCancel(ctx)
	callCtx, span := c.tracer.TraceSubmission(callCtx, id, source)
	defer span.End()

	start := c.now()
	result, perr := c.predictor.Predict(callCtx, started.Record)
	elapsed := c.now().Sub(start)

	details := map[string]interface{}{
		"session_id":  id,
		"source":      source,
		"attempt":     started.Attempt,
		"duration_ms": elapsed.Milliseconds(),
	}
	var outcome Action
	if perr != nil {
		msg := prediction.MessageOf(perr)
		c.tracer.RecordSubmissionFailure(span, perr, msg)
		log.WithFields(logrus.Fields{
			"status":      prediction.StatusOf(perr),
			"timeout":     prediction.IsTimeout(perr),
			"duration_ms": elapsed.Milliseconds(),
		}).WithError(perr).Warn("Prediction failed")
		outcome = SubmitError{Message: msg}
		details["message"] = msg
		c.event(EventPredictionFailed, details)
	} else {
		c.tracer.RecordPredictionResult(span, result)
		log.WithFields(logrus.Fields{
			"probability": result.Consensus.Probability,
			"risk_level":  result.Consensus.RiskLevel,
			"duration_ms": elapsed.Milliseconds(),
		}).Info("Prediction completed")
		outcome = SubmitSuccess{Result: result}
		details["probability"] = result.Consensus.Probability
		details["risk_level"] = result.Consensus.RiskLevel
		c.event(EventPredictionCompleted, details)
	}

	final, err := c.store.Update(callCtx, id, func(s State) (State, error) {
		if !s.Loading || s.Attempt != started.Attempt {
			return s, errStaleOutcome
		}
		return Reduce(s, outcome), nil
	})
	if errors.Is(err, errStaleOutcome) {
		log.Info("Discarding outcome of superseded submission")
		return c.Snapshot(callCtx, id)
	}
	if err != nil {
		return State{}, fmt.Errorf("failed to store submission outcome: %w", err)
	}
	return final, nil
}
