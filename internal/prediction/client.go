// Package prediction talks to the external scoring service: health checks,
// predictions and model metadata.
package prediction

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/irfndi/heartguard-ai-go/internal/config"
	"github.com/irfndi/heartguard-ai-go/internal/models"
	"github.com/irfndi/heartguard-ai-go/internal/telemetry"
)

// DefaultTimeout bounds every call to the scoring service.
const DefaultTimeout = 10 * time.Second

const maxResponseBytes = 1 << 20

//go:embed schema/*.json
var schemaFS embed.FS

var predictSchema = mustCompileSchema("schema/predict_response.json")

func mustCompileSchema(name string) *jsonschema.Schema {
	raw, err := schemaFS.ReadFile(name)
	if err != nil {
		panic(fmt.Sprintf("read schema %s: %v", name, err))
	}
	url := path.Base(name)
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(url, bytes.NewReader(raw)); err != nil {
		panic(fmt.Sprintf("add schema %s: %v", name, err))
	}
	return compiler.MustCompile(url)
}

// Client represents the scoring service HTTP client.
type Client struct {
	HTTPClient *http.Client
	baseURL    string
	timeout    time.Duration
	logger     *logrus.Logger
	tracer     trace.Tracer
}

// NewClient creates a new scoring service client.
func NewClient(cfg *config.PredictionConfig, logger *logrus.Logger) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if logger == nil {
		logger = logrus.New()
	}

	client := &Client{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimSuffix(cfg.ServiceURL, "/"),
		timeout: timeout,
		logger:  logger,
		tracer:  telemetry.GetExternalTracer(),
	}
	logger.WithFields(logrus.Fields{
		"base_url": client.baseURL,
		"timeout":  timeout.String(),
	}).Info("Prediction client initialized")
	return client
}

// HealthCheck checks if the scoring service is up.
func (c *Client) HealthCheck(ctx context.Context) (*models.HealthStatus, error) {
	var response models.HealthStatus
	if err := c.makeRequest(ctx, http.MethodGet, "/health", nil, &response, nil); err != nil {
		return nil, err
	}
	return &response, nil
}

// Predict scores one patient record.
func (c *Client) Predict(ctx context.Context, record models.PatientRecord) (*models.PredictionResult, error) {
	var response models.PredictionResult
	if err := c.makeRequest(ctx, http.MethodPost, "/predict", record, &response, predictSchema); err != nil {
		return nil, err
	}
	return &response, nil
}

// Models retrieves metadata of the loaded models.
func (c *Client) Models(ctx context.Context) (models.ModelsInfo, error) {
	var response models.ModelsInfo
	if err := c.makeRequest(ctx, http.MethodGet, "/models", nil, &response, nil); err != nil {
		return nil, err
	}
	return response, nil
}

// makeRequest performs one JSON call. A non-nil schema is checked against
// the decoded body before it is unmarshalled into result.
func (c *Client) makeRequest(ctx context.Context, method, path string, body interface{}, result interface{}, schema *jsonschema.Schema) (err error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "prediction "+method+" "+path,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.method", method),
			attribute.String("http.url", c.baseURL+path),
		),
	)
	start := time.Now()
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, MessageOf(err))
			c.logger.WithFields(logrus.Fields{
				"method":      method,
				"path":        path,
				"status":      StatusOf(err),
				"duration_ms": time.Since(start).Milliseconds(),
			}).WithError(err).Warn("Prediction service call failed")
		}
		span.End()
	}()

	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return &APIError{Message: MessageUnknown, Kind: KindConnectivity, Err: fmt.Errorf("failed to marshal request body: %w", err)}
		}
		reqBody = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return &APIError{Message: MessageUnreachable, Kind: KindConnectivity, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "HeartGuard-Web-Go/1.0")
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return transportError(err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			c.logger.WithError(cerr).Debug("Error closing response body")
		}
	}()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return transportError(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return httpError(resp.StatusCode, respBody)
	}

	if schema != nil {
		var doc interface{}
		dec := json.NewDecoder(bytes.NewReader(respBody))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return malformedError(fmt.Errorf("failed to decode response: %w", err))
		}
		if err := schema.Validate(doc); err != nil {
			return malformedError(fmt.Errorf("response does not match schema: %w", err))
		}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return malformedError(fmt.Errorf("failed to unmarshal response: %w", err))
		}
	}
	return nil
}

// BaseURL returns the base URL of the scoring service.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Timeout returns the per-call bound.
func (c *Client) Timeout() time.Duration {
	return c.timeout
}
