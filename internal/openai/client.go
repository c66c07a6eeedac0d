package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"gptkit/internal/config"
)

const instrumentationName = "gptkit/internal/openai"

// Client sends requests to the Completion and Chat Completions endpoints.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	credential      string
	baseURL         string
	chatModel       string
	completionModel string
	timeout         time.Duration
	httpClient      *http.Client
	logger          *slog.Logger
	tracer          trace.Tracer
	meter           metric.Meter
	requestDuration metric.Float64Histogram
}

// NewClient creates a client that authenticates every request with credential.
func NewClient(credential string, opts ...Option) *Client {
	c := &Client{
		credential: credential,
		baseURL:    DefaultBaseURL,
		timeout:    DefaultTimeout,
		httpClient: &http.Client{
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     1 * time.Minute,
			},
		},
		logger: slog.Default(),
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}

	for _, opt := range opts {
		opt(c)
	}

	histogram, err := c.meter.Float64Histogram(
		"openai.request.duration",
		metric.WithDescription("Duration of completion and chat requests"),
		metric.WithUnit("s"),
	)
	if err != nil {
		c.logger.Warn("failed to create request duration histogram", "error", err)
		histogram = noop.Float64Histogram{}
	}
	c.requestDuration = histogram

	return c
}

// NewClientFromConfig creates a client from the provided configuration.
func NewClientFromConfig(cfg *config.Config, opts ...Option) (*Client, error) {
	if cfg.OpenAI.APIKey == "" {
		return nil, ErrMissingCredential
	}

	base := []Option{
		WithBaseURL(cfg.OpenAI.BaseURL),
		WithModel(cfg.OpenAI.Model),
		WithCompletionModel(cfg.OpenAI.CompletionModel),
	}
	if cfg.OpenAI.Timeout != nil {
		base = append(base, WithTimeout(*cfg.OpenAI.Timeout))
	}

	return NewClient(cfg.OpenAI.APIKey, append(base, opts...)...), nil
}

// LogValue implements slog.LogValuer. The credential is never included.
func (c *Client) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("base_url", c.baseURL),
		slog.String("model", c.chatModel),
		slog.String("completion_model", c.completionModel),
		slog.Duration("timeout", c.timeout),
	)
}

// String implements fmt.Stringer with the same fields as LogValue.
func (c Client) String() string {
	return fmt.Sprintf("openai.Client{base_url=%s model=%s completion_model=%s timeout=%s}",
		c.baseURL, c.chatModel, c.completionModel, c.timeout)
}

// GoString implements fmt.GoStringer so %#v does not print the credential either.
func (c Client) GoString() string {
	return c.String()
}

// Complete sends a request to the completions endpoint.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if req.Model == "" {
		req.Model = c.completionModel
	}

	var resp CompletionResponse
	if err := c.do(ctx, "openai.complete", completionsPath, req.Model, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Chat sends a request to the chat completions endpoint.
func (c *Client) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if len(req.Messages) == 0 {
		return nil, ErrNoMessages
	}
	if req.Model == "" {
		req.Model = c.chatModel
	}

	var resp ChatResponse
	if err := c.do(ctx, "openai.chat", chatCompletionsPath, req.Model, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CompleteText calls Complete and returns the text of the first choice.
// Returns ErrEmptyResponse if the response has no choices.
func (c *Client) CompleteText(ctx context.Context, req CompletionRequest) (string, error) {
	resp, err := c.Complete(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Text, nil
}

// ChatText calls Chat and returns the content of the first choice's message.
// Returns ErrEmptyResponse if the response has no choices.
func (c *Client) ChatText(ctx context.Context, req ChatRequest) (string, error) {
	resp, err := c.Chat(ctx, req)
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

// do performs one POST exchange and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, spanName, path, model string, payload, out any) error {
	if c.credential == "" {
		return ErrMissingCredential
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	endpoint := c.baseURL + path
	requestID := uuid.NewString()
	start := time.Now()

	outcome := "ok"
	defer func() {
		c.requestDuration.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
			attribute.String("endpoint", path),
			attribute.String("model", model),
			attribute.String("outcome", outcome),
		))
	}()

	ctx, span := c.tracer.Start(ctx, spanName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("openai.model", model),
			attribute.String("openai.request_id", requestID),
			attribute.String("http.url", endpoint),
		),
	)
	defer span.End()

	logger := c.logger.With("request_id", requestID, "endpoint", path, "model", model)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.credential)
	httpReq.Header.Set("X-Request-Id", requestID)

	logger.DebugContext(ctx, "sending request", "bytes", len(body))

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		outcome = "transport_error"
		tErr := &TransportError{Op: http.MethodPost, URL: endpoint, Err: unwrapURLError(err)}
		span.RecordError(tErr)
		span.SetStatus(codes.Error, "transport error")
		logger.ErrorContext(ctx, "request failed", "error", tErr.Err)
		return tErr
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		outcome = "transport_error"
		tErr := &TransportError{Op: "read response", URL: endpoint, Err: err}
		span.RecordError(tErr)
		span.SetStatus(codes.Error, "transport error")
		logger.ErrorContext(ctx, "reading response failed", "error", err)
		return tErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		outcome = "api_error"
		apiErr := newAPIError(resp.StatusCode, data)
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, apiErr.Message)
		logger.WarnContext(ctx, "api error", "status", resp.StatusCode, "type", apiErr.Type, "message", apiErr.Message)
		return apiErr
	}

	if err := decodeResponse(data, out); err != nil {
		outcome = "decode_error"
		dErr := &DecodeError{Body: truncate(string(data)), Err: err}
		span.RecordError(dErr)
		span.SetStatus(codes.Error, "decode error")
		logger.ErrorContext(ctx, "decoding response failed", "error", err)
		return dErr
	}

	logger.DebugContext(ctx, "request completed", "status", resp.StatusCode, "duration", time.Since(start))
	return nil
}

// decodeResponse unmarshals a 2xx body into out. The body must be a JSON
// object carrying a choices array; an empty array is allowed.
func decodeResponse(data []byte, out any) error {
	var shape struct {
		Choices json.RawMessage `json:"choices"`
	}
	if err := json.Unmarshal(data, &shape); err != nil {
		return err
	}
	if len(shape.Choices) == 0 || string(shape.Choices) == "null" {
		return errMissingChoices
	}
	return json.Unmarshal(data, out)
}

// unwrapURLError strips the *url.Error wrapper so the method and URL are not repeated.
func unwrapURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}
