package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/heartguard-ai-go/internal/models"
)

// BusinessTracer traces wizard operations: submissions and their outcome.
type BusinessTracer struct {
	tracer trace.Tracer
}

// NewBusinessTracer creates a BusinessTracer on the global provider.
func NewBusinessTracer() *BusinessTracer {
	return &BusinessTracer{tracer: GetBusinessTracer()}
}

// NewBusinessTracerWith creates a BusinessTracer on a specific tracer.
func NewBusinessTracerWith(tracer trace.Tracer) *BusinessTracer {
	return &BusinessTracer{tracer: tracer}
}

// TraceSubmission starts a span covering one prediction submission.
// source is "form", "preset" or "retry".
func (bt *BusinessTracer) TraceSubmission(ctx context.Context, sessionID, source string) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "wizard.submit",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("wizard.session_id", sessionID),
			attribute.String("wizard.source", source),
		),
	)
}

// RecordPredictionResult annotates span with the consensus outcome.
func (bt *BusinessTracer) RecordPredictionResult(span trace.Span, result *models.PredictionResult) {
	if result == nil {
		return
	}
	span.SetAttributes(
		attribute.Float64("prediction.probability", result.Consensus.Probability),
		attribute.Int("prediction.decision", result.Consensus.Prediction),
		attribute.String("prediction.risk_level", result.Consensus.RiskLevel),
		attribute.String("prediction.agreement", result.Consensus.Agreement),
		attribute.Int("prediction.models", len(result.Models)),
		attribute.Float64("prediction.processing_time_ms", result.ProcessingTimeMS),
	)
	span.SetStatus(codes.Ok, "prediction completed")
}

// RecordSubmissionFailure marks span failed with the user-facing message.
func (bt *BusinessTracer) RecordSubmissionFailure(span trace.Span, err error, message string) {
	if err != nil {
		span.RecordError(err)
	}
	span.SetAttributes(attribute.String("prediction.error_message", message))
	span.SetStatus(codes.Error, message)
}

// TraceAction starts a span for a wizard action other than submission.
func (bt *BusinessTracer) TraceAction(ctx context.Context, sessionID, action string) (context.Context, trace.Span) {
	return bt.tracer.Start(ctx, "wizard."+action,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("wizard.session_id", sessionID)),
	)
}
