// Package remote implements domain.Backend over the catalog service's
// HTTP JSON API.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mrops-br/hardware-storefront/internal/domain"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var _ domain.Backend = (*Client)(nil)

// Client talks to the catalog service. The caller in the request context
// is forwarded as a bearer token.
type Client struct {
	baseURL string
	http    *http.Client
	tracer  trace.Tracer
	logger  *slog.Logger
}

// NewClient creates a client for the service at baseURL
func NewClient(baseURL string, timeout time.Duration, tracer trace.Tracer, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		tracer: tracer,
		logger: logger,
	}
}

type errorBody struct {
	Message string `json:"message"`
}

// do sends one request and decodes a 2xx JSON body into out when out is
// not nil. Non-2xx responses become *domain.RejectError.
func (c *Client) do(ctx context.Context, op, method, path string, body io.Reader, contentType string, out any) error {
	ctx, span := c.tracer.Start(ctx, "RemoteClient."+op)
	defer span.End()

	requestID := uuid.New().String()
	span.SetAttributes(
		attribute.String("http.method", method),
		attribute.String("http.path", path),
		attribute.String("request.id", requestID),
	)

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to build request")
		return fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if caller := domain.CallerFromContext(ctx); !caller.Anonymous() {
		req.Header.Set("Authorization", "Bearer "+caller.Token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Request failed")
		c.logger.ErrorContext(ctx, "Backend request failed",
			slog.String("operation", op),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))
	c.logger.DebugContext(ctx, "Backend request completed",
		slog.String("operation", op),
		slog.String("request_id", requestID),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		rejectErr := rejection(op, resp)
		span.RecordError(rejectErr)
		span.SetStatus(codes.Error, "Backend rejected request")
		c.logger.WarnContext(ctx, "Backend rejected request",
			slog.String("operation", op),
			slog.String("request_id", requestID),
			slog.Int("status", resp.StatusCode),
			slog.String("message", rejectErr.Message),
		)
		return rejectErr
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Failed to decode response")
			return fmt.Errorf("%s: decode response: %w", op, err)
		}
	}

	span.SetStatus(codes.Ok, "Request completed")
	return nil
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	if in == nil {
		return c.do(ctx, op, method, path, nil, "", out)
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", op, err)
	}
	return c.do(ctx, op, method, path, bytes.NewReader(payload), "application/json", out)
}

func rejection(op string, resp *http.Response) *domain.RejectError {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var body errorBody
	message := ""
	if json.Unmarshal(data, &body) == nil {
		message = strings.TrimSpace(body.Message)
	}
	if message == "" {
		message = http.StatusText(resp.StatusCode)
	}
	return &domain.RejectError{Op: op, Code: resp.StatusCode, Message: message}
}
