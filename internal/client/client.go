package client

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
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/datawhisper/datawhisper/internal/table"
)

const (
	queryPath      = "query"
	apiKeyHeader   = "X-API-Key"
	traceHeader    = "X-Trace-ID"
	maxErrorBody   = 1 << 20
	queryFieldName = "query"
)

type Config struct {
	BaseURL     string
	Credentials Credentials
	Timeout     time.Duration
	HTTPClient  *http.Client
	Logger      *slog.Logger
}

type Response struct {
	TranslatedQuery string
	Rows            []table.Row
}

// Client performs one POST per Send against the translation service.
type Client struct {
	endpoint    string
	credentials Credentials
	timeout     time.Duration
	http        *http.Client
	logger      *slog.Logger
}

func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	endpoint, err := url.JoinPath(baseURL, queryPath)
	if err != nil {
		return nil, fmt.Errorf("build query endpoint: %w", err)
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		endpoint:    endpoint,
		credentials: cfg.Credentials,
		timeout:     cfg.Timeout,
		http:        httpClient,
		logger:      logger,
	}, nil
}

func (c *Client) Endpoint() string {
	return c.endpoint
}

// Send translates queryText through the service. Failures are returned as
// *TransportError, *ServiceError or *MalformedResponseError.
func (c *Client) Send(ctx context.Context, queryText string) (Response, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	body, err := json.Marshal(map[string]string{queryFieldName: queryText})
	if err != nil {
		return Response{}, fmt.Errorf("encode query payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return Response{}, fmt.Errorf("build query request: %w", err)
	}
	traceID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set(traceHeader, traceID)
	if c.credentials != nil {
		apiKey, err := c.credentials.APIKey(ctx)
		if err != nil {
			return Response{}, fmt.Errorf("resolve api key: %w", err)
		}
		if apiKey = strings.TrimSpace(apiKey); apiKey != "" {
			req.Header.Set(apiKeyHeader, apiKey)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.DebugContext(ctx, "query request failed",
			slog.String("trace_id", traceID),
			slog.Any("error", err),
		)
		return Response{}, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	var reader io.Reader = resp.Body
	if resp.StatusCode >= 300 {
		reader = io.LimitReader(resp.Body, maxErrorBody)
	}
	raw, err := io.ReadAll(reader)
	if err != nil {
		return Response{}, &TransportError{Err: err}
	}
	c.logger.DebugContext(ctx, "query response received",
		slog.String("trace_id", traceID),
		slog.Int("status", resp.StatusCode),
		slog.String("duration", time.Since(start).String()),
		slog.Int("bytes", len(raw)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Response{}, &ServiceError{StatusCode: resp.StatusCode, Detail: extractDetail(raw)}
	}
	return decodeResponse(raw)
}

// IsCanceled reports whether err comes from a call aborted through its context.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
