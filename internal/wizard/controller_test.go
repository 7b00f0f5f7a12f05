package wizard_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/irfndi/heartguard-ai-go/internal/features"
	"github.com/irfndi/heartguard-ai-go/internal/form"
	"github.com/irfndi/heartguard-ai-go/internal/logging"
	"github.com/irfndi/heartguard-ai-go/internal/models"
	"github.com/irfndi/heartguard-ai-go/internal/prediction"
	"github.com/irfndi/heartguard-ai-go/internal/session"
	"github.com/irfndi/heartguard-ai-go/internal/telemetry"
	"github.com/irfndi/heartguard-ai-go/internal/wizard"
)

const sid = "session-1"

type MockPredictor struct {
	mock.Mock
}

func (m *MockPredictor) Predict(ctx context.Context, record models.PatientRecord) (*models.PredictionResult, error) {
	args := m.Called(ctx, record)
	if r := args.Get(0); r != nil {
		return r.(*models.PredictionResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// gatedPredictor blocks every call until release is closed.
type gatedPredictor struct {
	mu      sync.Mutex
	calls   int
	entered chan struct{}
	release chan struct{}
	result  *models.PredictionResult
	err     error
	sent    []models.PatientRecord
}

func newGatedPredictor() *gatedPredictor {
	return &gatedPredictor{
		entered: make(chan struct{}, 8),
		release: make(chan struct{}),
		result:  resultFor(0.9, "Tres eleve"),
	}
}

func (g *gatedPredictor) Predict(ctx context.Context, record models.PatientRecord) (*models.PredictionResult, error) {
	g.mu.Lock()
	g.calls++
	g.sent = append(g.sent, record)
	g.mu.Unlock()
	g.entered <- struct{}{}
	<-g.release
	if g.err != nil {
		return nil, g.err
	}
	return g.result, nil
}

func (g *gatedPredictor) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type staticHealth bool

func (h staticHealth) Check(context.Context) bool { return bool(h) }

func resultFor(p float64, risk string) *models.PredictionResult {
	return &models.PredictionResult{
		Consensus: models.ConsensusResult{
			Probability: p,
			Prediction:  1,
			RiskLevel:   risk,
			Agreement:   "3/3",
			Confidence:  "high",
		},
		Models: []models.ModelResult{
			{Name: "xgboost", Algo: "XGBoost", Probability: p, Prediction: 1, Threshold: 0.5, Confidence: "high"},
		},
		FeatureContributions: map[string]float64{"thallium": 0.4},
		Disclaimer:           "Educational use only.",
	}
}

func newController(t *testing.T, p wizard.Predictor, opts ...wizard.Option) (*wizard.Controller, *session.MemoryStore) {
	t.Helper()
	store := session.NewMemoryStore(time.Hour, nil)
	return wizard.NewController(store, p, staticHealth(true), nil, opts...), store
}

func TestController_SubmitSuccess(t *testing.T) {
	p := new(MockPredictor)
	p.On("Predict", mock.Anything, form.DefaultRecord()).Return(resultFor(0.21, "Faible"), nil).Once()
	c, _ := newController(t, p)

	s, err := c.Submit(context.Background(), sid)
	require.NoError(t, err)
	assert.False(t, s.Loading)
	require.NotNil(t, s.Result)
	assert.Equal(t, "Faible", s.Result.Consensus.RiskLevel)
	assert.Equal(t, wizard.PhaseShowingResult, s.Phase())
	assert.Equal(t, uint64(1), s.Attempt)
	p.AssertExpectations(t)
}

func TestController_FailedSubmitPreservesRecord(t *testing.T) {
	p := new(MockPredictor)
	apiErr := &prediction.APIError{Message: "Model not loaded", Status: 503, Kind: prediction.KindHTTP}
	p.On("Predict", mock.Anything, mock.Anything).Return(nil, apiErr).Once()
	c, _ := newController(t, p)
	ctx := context.Background()

	_, err := c.SetField(ctx, sid, models.FieldCholesterol, 333)
	require.NoError(t, err)
	_, err = c.GoTo(ctx, sid, 2)
	require.NoError(t, err)

	s, err := c.Submit(ctx, sid)
	require.NoError(t, err)
	assert.False(t, s.Loading)
	assert.Nil(t, s.Result)
	assert.Equal(t, "Model not loaded", s.Error)
	assert.Equal(t, 333.0, s.Record.Cholesterol)
	assert.Equal(t, 2, s.Step)
}

func TestController_TimeoutMessage(t *testing.T) {
	p := new(MockPredictor)
	p.On("Predict", mock.Anything, mock.Anything).
		Return(nil, &prediction.APIError{Message: prediction.MessageTimeout, Kind: prediction.KindTimeout, Err: context.DeadlineExceeded}).Once()
	c, _ := newController(t, p)

	s, err := c.Submit(context.Background(), sid)
	require.NoError(t, err)
	assert.False(t, s.Loading)
	assert.Equal(t, prediction.MessageTimeout, s.Error)
}

func TestController_RetryResendsSameRecord(t *testing.T) {
	p := new(MockPredictor)
	c, _ := newController(t, p)
	ctx := context.Background()

	_, err := c.SetField(ctx, sid, models.FieldAge, 66)
	require.NoError(t, err)
	record := form.DefaultRecord()
	record.Age = 66

	p.On("Predict", mock.Anything, record).Return(nil, errors.New("connection refused")).Once()
	s, err := c.Submit(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, "connection refused", s.Error)

	p.On("Predict", mock.Anything, record).Return(resultFor(0.5, "Modere"), nil).Once()
	s, err = c.Retry(ctx, sid)
	require.NoError(t, err)
	assert.Empty(t, s.Error)
	require.NotNil(t, s.Result)
	assert.Equal(t, uint64(2), s.Attempt)
	p.AssertExpectations(t)
}

func TestController_EditsRefusedWhileSubmitting(t *testing.T) {
	g := newGatedPredictor()
	g.err = errors.New("connection refused")
	c, _ := newController(t, g)
	ctx := context.Background()

	done := make(chan wizard.State, 1)
	go func() {
		s, err := c.Submit(ctx, sid)
		assert.NoError(t, err)
		done <- s
	}()
	<-g.entered

	_, err := c.SetField(ctx, sid, models.FieldAge, 90)
	assert.ErrorIs(t, err, wizard.ErrSubmitInFlight)
	_, err = c.SetFields(ctx, sid, map[models.Field]float64{models.FieldAge: 90})
	assert.ErrorIs(t, err, wizard.ErrSubmitInFlight)
	_, err = c.Next(ctx, sid)
	assert.ErrorIs(t, err, wizard.ErrSubmitInFlight)
	_, err = c.Prev(ctx, sid)
	assert.ErrorIs(t, err, wizard.ErrSubmitInFlight)
	_, err = c.GoTo(ctx, sid, 2)
	assert.ErrorIs(t, err, wizard.ErrSubmitInFlight)
	_, err = c.Modify(ctx, sid)
	assert.ErrorIs(t, err, wizard.ErrSubmitInFlight)

	// Health updates do not touch the record.
	_, err = c.RefreshHealth(ctx, sid)
	assert.NoError(t, err)

	close(g.release)
	final := <-done
	require.Len(t, g.sent, 1)
	assert.Equal(t, g.sent[0], final.Record)
	assert.Equal(t, 0, final.Step)
	assert.NotEmpty(t, final.Error)
	assert.Equal(t, wizard.PhaseShowingError, final.Phase())
}

func TestController_EditClosesStaleSubmission(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	c, store := newController(t, new(MockPredictor),
		wizard.WithStaleAfter(time.Minute),
		wizard.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	_, err := store.Update(ctx, sid, func(s wizard.State) (wizard.State, error) {
		return wizard.Reduce(s, wizard.SubmitStart{At: now.Add(-5 * time.Minute)}), nil
	})
	require.NoError(t, err)

	s, err := c.SetField(ctx, sid, models.FieldAge, 60)
	require.NoError(t, err)
	assert.False(t, s.Loading)
	assert.Equal(t, wizard.MessageInterrupted, s.Error)
	assert.Equal(t, 60.0, s.Record.Age)
}

func TestController_NoSecondCallWhileLoading(t *testing.T) {
	g := newGatedPredictor()
	c, _ := newController(t, g)
	ctx := context.Background()

	done := make(chan wizard.State, 1)
	go func() {
		s, err := c.Submit(ctx, sid)
		assert.NoError(t, err)
		done <- s
	}()
	<-g.entered

	snap, err := c.Snapshot(ctx, sid)
	require.NoError(t, err)
	assert.True(t, snap.Loading)
	assert.Equal(t, wizard.PhaseSubmitting, snap.Phase())

	_, err = c.Submit(ctx, sid)
	assert.ErrorIs(t, err, wizard.ErrSubmitInFlight)
	_, err = c.Retry(ctx, sid)
	assert.ErrorIs(t, err, wizard.ErrSubmitInFlight)
	_, err = c.LoadPreset(ctx, sid, "healthy")
	assert.ErrorIs(t, err, wizard.ErrSubmitInFlight)

	close(g.release)
	final := <-done
	assert.False(t, final.Loading)
	assert.NotNil(t, final.Result)
	assert.Equal(t, 1, g.Calls())
}

func TestController_StaleSubmissionIsReplaced(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := new(MockPredictor)
	p.On("Predict", mock.Anything, mock.Anything).Return(resultFor(0.3, "Faible"), nil).Once()
	c, store := newController(t, p,
		wizard.WithStaleAfter(time.Minute),
		wizard.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	_, err := store.Update(ctx, sid, func(s wizard.State) (wizard.State, error) {
		return wizard.Reduce(s, wizard.SubmitStart{At: now.Add(-5 * time.Minute)}), nil
	})
	require.NoError(t, err)

	s, err := c.Submit(ctx, sid)
	require.NoError(t, err)
	assert.False(t, s.Loading)
	assert.NotNil(t, s.Result)
	assert.Equal(t, uint64(2), s.Attempt)
}

func TestController_RecentSubmissionIsNotReplaced(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	p := new(MockPredictor)
	c, store := newController(t, p,
		wizard.WithStaleAfter(time.Minute),
		wizard.WithClock(func() time.Time { return now }),
	)
	ctx := context.Background()

	_, err := store.Update(ctx, sid, func(s wizard.State) (wizard.State, error) {
		return wizard.Reduce(s, wizard.SubmitStart{At: now.Add(-10 * time.Second)}), nil
	})
	require.NoError(t, err)

	_, err = c.Submit(ctx, sid)
	assert.ErrorIs(t, err, wizard.ErrSubmitInFlight)
	p.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestController_SupersededOutcomeIsDiscarded(t *testing.T) {
	g := newGatedPredictor()
	c, _ := newController(t, g)
	ctx := context.Background()

	done := make(chan wizard.State, 1)
	go func() {
		s, err := c.Submit(ctx, sid)
		assert.NoError(t, err)
		done <- s
	}()
	<-g.entered

	_, err := c.Reset(ctx, sid)
	require.NoError(t, err)

	close(g.release)
	final := <-done
	assert.False(t, final.Loading)
	assert.Nil(t, final.Result, "outcome of a reset session must not be shown")
	assert.Equal(t, wizard.PhaseEditing, final.Phase())
}

func TestController_SubmitOutlivesRequestContext(t *testing.T) {
	p := new(MockPredictor)
	p.On("Predict", mock.Anything, mock.Anything).Return(resultFor(0.6, "Eleve"), nil).Once()
	c, _ := newController(t, p)

	ctx, cancel := context.WithCancel(context.Background())
	p.ExpectedCalls[0].Run(func(mock.Arguments) { cancel() })

	s, err := c.Submit(ctx, sid)
	require.NoError(t, err)
	assert.NotNil(t, s.Result)
}

func TestController_LoadHighRiskPreset(t *testing.T) {
	preset, err := form.FindPreset("high_risk")
	require.NoError(t, err)
	require.Equal(t, 5, features.RiskComposite(preset.Record))

	p := new(MockPredictor)
	p.On("Predict", mock.Anything, preset.Record).Return(resultFor(0.93, "Tres eleve"), nil).Once()
	c, _ := newController(t, p)

	s, err := c.LoadPreset(context.Background(), sid, "high_risk")
	require.NoError(t, err)
	assert.Equal(t, preset.Record, s.Record)
	assert.Equal(t, form.LastStep(), s.Step)
	require.NotNil(t, s.Result)
	assert.Equal(t, "Tres eleve", s.Result.Consensus.RiskLevel)
	p.AssertExpectations(t)
}

func TestController_UnknownPreset(t *testing.T) {
	p := new(MockPredictor)
	c, _ := newController(t, p)

	_, err := c.LoadPreset(context.Background(), sid, "nope")
	assert.ErrorIs(t, err, wizard.ErrUnknownPreset)
	p.AssertNotCalled(t, "Predict", mock.Anything, mock.Anything)
}

func TestController_InvalidFieldRejected(t *testing.T) {
	p := new(MockPredictor)
	c, _ := newController(t, p)
	ctx := context.Background()

	_, err := c.SetFields(ctx, sid, map[models.Field]float64{
		models.FieldAge: 45,
		models.FieldSex: 3,
	})
	assert.ErrorIs(t, err, wizard.ErrInvalidField)

	var vErr *form.ValidationError
	assert.ErrorAs(t, err, &vErr)

	s, err := c.Snapshot(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, form.DefaultRecord(), s.Record, "no value applied when one is invalid")
}

func TestController_Navigation(t *testing.T) {
	c, _ := newController(t, new(MockPredictor))
	ctx := context.Background()

	s, err := c.Next(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Step)

	s, err = c.Next(ctx, sid)
	require.NoError(t, err)
	s, err = c.Prev(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, 1, s.Step)

	s, err = c.Modify(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Step)
}

func TestController_RefreshHealth(t *testing.T) {
	store := session.NewMemoryStore(time.Hour, nil)
	ctx := context.Background()

	up := wizard.NewController(store, new(MockPredictor), staticHealth(true), nil)
	s, err := up.RefreshHealth(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, wizard.HealthHealthy, s.APIHealth)

	down := wizard.NewController(store, new(MockPredictor), staticHealth(false), nil)
	s, err = down.RefreshHealth(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, wizard.HealthUnhealthy, s.APIHealth)

	none := wizard.NewController(store, new(MockPredictor), nil, nil)
	s, err = none.RefreshHealth(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, wizard.HealthUnhealthy, s.APIHealth)
}

func TestController_ResetKeepsHealth(t *testing.T) {
	c, _ := newController(t, new(MockPredictor))
	ctx := context.Background()

	_, err := c.RefreshHealth(ctx, sid)
	require.NoError(t, err)
	_, err = c.SetField(ctx, sid, models.FieldAge, 80)
	require.NoError(t, err)

	s, err := c.Reset(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, form.DefaultRecord(), s.Record)
	assert.Equal(t, wizard.HealthHealthy, s.APIHealth)
}

func eventLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestController_EventLog(t *testing.T) {
	var buf bytes.Buffer
	p := new(MockPredictor)
	p.On("Predict", mock.Anything, mock.Anything).Return(resultFor(0.21, "Faible"), nil).Once()
	p.On("Predict", mock.Anything, mock.Anything).Return(nil, errors.New("connection refused")).Once()
	c, _ := newController(t, p, wizard.WithEventLog(logging.NewStandardLoggerWithWriter(&buf, "debug", "test")))
	ctx := context.Background()

	_, err := c.Submit(ctx, sid)
	require.NoError(t, err)
	_, err = c.Retry(ctx, sid)
	require.NoError(t, err)

	entries := eventLines(t, &buf)
	require.Len(t, entries, 2)
	assert.Equal(t, wizard.EventPredictionCompleted, entries[0]["event_type"])
	details := entries[0]["details"].(map[string]interface{})
	assert.Equal(t, sid, details["session_id"])
	assert.Equal(t, "Faible", details["risk_level"])

	assert.Equal(t, wizard.EventPredictionFailed, entries[1]["event_type"])
	details = entries[1]["details"].(map[string]interface{})
	assert.Equal(t, "connection refused", details["message"])
	assert.Equal(t, "retry", details["source"])
}

func TestController_EventLogRecordsRefusal(t *testing.T) {
	var buf bytes.Buffer
	g := newGatedPredictor()
	c, _ := newController(t, g, wizard.WithEventLog(logging.NewStandardLoggerWithWriter(&buf, "debug", "test")))
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Submit(ctx, sid)
	}()
	<-g.entered

	_, err := c.Next(ctx, sid)
	assert.ErrorIs(t, err, wizard.ErrSubmitInFlight)
	close(g.release)
	<-done

	var refused map[string]interface{}
	for _, e := range eventLines(t, &buf) {
		if e["msg"] == "Refused while submitting" {
			refused = e
		}
	}
	require.NotNil(t, refused)
	assert.Equal(t, sid, refused["session_id"])
	assert.Equal(t, "next_step", refused["operation"])
}

func TestController_ActionSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	c, _ := newController(t, new(MockPredictor), wizard.WithTracer(telemetry.NewBusinessTracerWith(tp.Tracer("test"))))
	ctx := context.Background()

	_, err := c.Next(ctx, sid)
	require.NoError(t, err)
	_, err = c.SetFields(ctx, sid, map[models.Field]float64{models.FieldAge: 60})
	require.NoError(t, err)
	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = c.GoTo(cancelled, sid, 2)
	require.ErrorIs(t, err, context.Canceled)

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	assert.Equal(t, "wizard.next_step", spans[0].Name())
	assert.Equal(t, "wizard.set_fields", spans[1].Name())
	assert.Equal(t, "wizard.go_to_step", spans[2].Name())
	assert.Equal(t, codes.Error, spans[2].Status().Code)
}
