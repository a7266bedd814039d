// Package apiclient talks to the Dentago admin REST API. It classifies every
// response into the shared error taxonomy and implements ordered
// retry-over-alternatives for endpoints whose contract is not settled.
package apiclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/wolfman30/dentago-admin/internal/normalize"
	"github.com/wolfman30/dentago-admin/internal/observability/metrics"
	"github.com/wolfman30/dentago-admin/internal/token"
	"github.com/wolfman30/dentago-admin/pkg/logging"
)

const (
	DefaultBaseURL   = "https://app.dentago.uz/api"
	DefaultTimeout   = 15 * time.Second
	defaultUserAgent = "dentago-admin/0.1"
	maxErrorBody     = 300
)

var tracer = otel.Tracer("dentago.internal.apiclient")

// Config controls how the client behaves.
type Config struct {
	BaseURL    string
	Tokens     token.Source
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *logging.Logger
	Metrics    *metrics.ClientMetrics
	UserAgent  string
}

// Client issues authenticated requests against the Dentago API. It is safe
// for concurrent use.
type Client struct {
	baseURL    string
	tokens     token.Source
	timeout    time.Duration
	httpClient *http.Client
	logger     *logging.Logger
	metrics    *metrics.ClientMetrics
	userAgent  string
}

// RequestSpec is one concrete (method, path, body) combination.
type RequestSpec struct {
	Method string
	Path   string
	// Body is JSON-encoded when non-nil.
	Body any
	// Raw is sent verbatim with ContentType, e.g. a multipart form.
	Raw         []byte
	ContentType string
}

func (s RequestSpec) String() string { return s.Method + " " + s.Path }

// Response is a classified-successful API response.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
	// Payload is the decoded JSON body, nil when the body is empty or not JSON.
	Payload any
}

// LocationID returns the last path segment of the Location header, the id
// some endpoints report for a created resource. It is empty when absent.
func (r *Response) LocationID() string {
	if r == nil {
		return ""
	}
	loc := strings.TrimSpace(r.Header.Get("Location"))
	if loc == "" {
		return ""
	}
	if u, err := url.Parse(loc); err == nil {
		loc = u.Path
	}
	loc = strings.TrimRight(loc, "/")
	if i := strings.LastIndex(loc, "/"); i >= 0 {
		loc = loc[i+1:]
	}
	if id, err := url.PathUnescape(loc); err == nil {
		return id
	}
	return loc
}

// New creates a configured Client. The base URL must use HTTPS.
func New(cfg Config) (*Client, error) {
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	u, err := url.Parse(base)
	if err != nil {
		return nil, fmt.Errorf("apiclient: invalid base url: %w", err)
	}
	if u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("apiclient: base url %q must be an absolute https url", base)
	}
	if cfg.Tokens == nil {
		return nil, errors.New("apiclient: token source is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	userAgent := strings.TrimSpace(cfg.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	return &Client{
		baseURL:    strings.TrimRight(base, "/"),
		tokens:     cfg.Tokens,
		timeout:    timeout,
		httpClient: httpClient,
		logger:     cfg.Logger.Component("apiclient"),
		metrics:    cfg.Metrics,
		userAgent:  userAgent,
	}, nil
}

// BaseURL returns the API root requests are resolved against.
func (c *Client) BaseURL() string { return c.baseURL }

// Do executes a single request.
func (c *Client) Do(ctx context.Context, spec RequestSpec) (*Response, error) {
	tok, err := c.bearer(ctx)
	if err != nil {
		return nil, err
	}
	resp, apiErr := c.send(ctx, tok, spec)
	if apiErr != nil {
		return nil, apiErr
	}
	return resp, nil
}

// DoJSON executes spec and returns the decoded payload.
func (c *Client) DoJSON(ctx context.Context, spec RequestSpec) (any, error) {
	resp, err := c.Do(ctx, spec)
	if err != nil {
		return nil, err
	}
	if resp.Payload == nil {
		return nil, fmt.Errorf("apiclient: %s: %w: body is not JSON", spec, ErrUnrecognizedShape)
	}
	return resp.Payload, nil
}

func (c *Client) bearer(ctx context.Context) (string, error) {
	tok, err := c.tokens.Token(ctx)
	if errors.Is(err, token.ErrNoCredential) {
		return "", ErrUnauthenticated
	}
	if err != nil {
		return "", fmt.Errorf("apiclient: read token: %w", err)
	}
	return tok, nil
}

func (c *Client) send(ctx context.Context, tok string, spec RequestSpec) (*Response, *APIError) {
	ctx, span := tracer.Start(ctx, "dentago.apiclient.request", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("http.method", spec.Method),
		attribute.String("dentago.path", spec.Path),
	)

	start := time.Now()
	resp, apiErr := c.roundTrip(ctx, tok, spec)
	elapsed := time.Since(start).Seconds()

	if apiErr != nil {
		span.SetAttributes(attribute.Int("http.status_code", apiErr.Status))
		span.RecordError(apiErr)
		span.SetStatus(codes.Error, KindLabel(apiErr))
		c.metrics.ObserveRequest(spec.Method, KindLabel(apiErr), elapsed)
		return nil, apiErr
	}
	span.SetAttributes(attribute.Int("http.status_code", resp.Status))
	c.metrics.ObserveRequest(spec.Method, "success", elapsed)
	return resp, nil
}

func (c *Client) roundTrip(ctx context.Context, tok string, spec RequestSpec) (*Response, *APIError) {
	fail := func(kind error, status int, msg string, err error) *APIError {
		return &APIError{Kind: kind, Method: spec.Method, Path: spec.Path, Status: status, Message: msg, Err: err}
	}

	var bodyReader io.Reader
	contentType := ""
	switch {
	case spec.Raw != nil:
		bodyReader = bytes.NewReader(spec.Raw)
		contentType = spec.ContentType
	case spec.Body != nil:
		payload, err := json.Marshal(spec.Body)
		if err != nil {
			return nil, fail(ErrValidationFailed, 0, "", fmt.Errorf("marshal request: %w", err))
		}
		bodyReader = bytes.NewReader(payload)
		contentType = "application/json"
	}

	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(callCtx, spec.Method, c.buildURL(spec.Path), bodyReader)
	if err != nil {
		return nil, fail(ErrRequestRejected, 0, "", fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID(ctx))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fail(ErrNetworkUnreachable, 0, "", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fail(ErrNetworkUnreachable, resp.StatusCode, "", fmt.Errorf("read response: %w", err))
	}

	var payload any
	if decoded, decodeErr := normalize.Decode(body); decodeErr == nil {
		payload = decoded
	}

	kind := KindForStatus(resp.StatusCode)
	if kind == nil || normalize.SuccessFlag(payload) {
		return &Response{Status: resp.StatusCode, Header: resp.Header, Body: body, Payload: payload}, nil
	}

	msg := errorMessage(payload, body)
	c.logger.Warn("dentago API non-2xx response", "method", spec.Method, "path", spec.Path, "status", resp.StatusCode, "message", msg)
	return nil, fail(kind, resp.StatusCode, msg, nil)
}

func (c *Client) buildURL(path string) string {
	return c.baseURL + "/" + strings.TrimLeft(path, "/")
}

// requestID forwards the inbound request id when one is attached.
func requestID(ctx context.Context) string {
	if id := middleware.GetReqID(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

func errorMessage(payload any, body []byte) string {
	if m, ok := payload.(map[string]any); ok {
		rec := normalize.Record(m)
		for _, key := range []string{"message", "error", "msg"} {
			if s := rec.String(key); s != "" {
				return truncate(s)
			}
		}
	}
	return truncate(strings.TrimSpace(string(body)))
}

func truncate(s string) string {
	if len(s) > maxErrorBody {
		return s[:maxErrorBody]
	}
	return s
}
