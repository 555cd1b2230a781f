// Package gemini is a thin HTTP client for the generative language API. It
// speaks the vendor's SSE streaming framing directly so the caller sees an
// incremental sequence of text deltas.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// APIError is a non-2xx response from the API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini API error (status %d): %s", e.StatusCode, e.Body)
}

// retryableStatuses may be retried with backoff. All other non-2xx statuses
// fail immediately without consuming a retry.
var retryableStatuses = map[int]bool{
	http.StatusRequestTimeout:      true,
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Config for the Gemini client.
type Config struct {
	APIKey            string
	Model             string
	BaseURL           string
	MaxRetries        int
	RetryBaseDelay    time.Duration
	Timeout           time.Duration
	RequestsPerSecond float64
	Burst             int
}

// Client wraps the Gemini REST API with retry, backoff and an outbound
// request throttle.
type Client struct {
	// httpClient bounds whole unary calls; streamClient bounds only dialing
	// and response headers, since a healthy SSE body may outlive any fixed
	// deadline.
	httpClient   *http.Client
	streamClient *http.Client

	logger  *zap.Logger
	limiter *rate.Limiter

	apiKey     string
	model      string
	baseURL    string
	maxRetries int
	baseDelay  time.Duration
}

// NewClient creates a new Gemini client.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash-exp"
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://generativelanguage.googleapis.com/v1beta"
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.RetryBaseDelay == 0 {
		cfg.RetryBaseDelay = time.Second
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 5.0
	}
	if cfg.Burst == 0 {
		cfg.Burst = 10
	}

	logger.Info("Gemini client initialized",
		zap.String("model", cfg.Model),
		zap.Int("max_retries", cfg.MaxRetries))

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		streamClient: &http.Client{
			Transport: &http.Transport{ResponseHeaderTimeout: cfg.Timeout},
		},
		logger: logger,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		baseURL:    cfg.BaseURL,
		maxRetries: cfg.MaxRetries,
		baseDelay:  cfg.RetryBaseDelay,
	}, nil
}

// Generate performs a unary generateContent call and returns the full answer
// text.
func (c *Client) Generate(ctx context.Context, contents []Content, genCfg *GenerationConfig) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)

	resp, err := c.doWithRetry(ctx, c.httpClient, url, request{Contents: contents, GenerationConfig: genCfg})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}

	text := out.textDelta()
	if text == "" {
		return "", errors.New("empty response from gemini")
	}
	return text, nil
}

// StreamGenerate performs a streaming streamGenerateContent call. The caller
// must Close the returned stream to release the response body.
func (c *Client) StreamGenerate(ctx context.Context, contents []Content, genCfg *GenerationConfig) (*Stream, error) {
	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", c.baseURL, c.model, c.apiKey)

	resp, err := c.doWithRetry(ctx, c.streamClient, url, request{Contents: contents, GenerationConfig: genCfg})
	if err != nil {
		return nil, err
	}

	return newStream(resp.Body), nil
}

// doWithRetry posts the request body, retrying transient failures with
// exponential backoff plus jitter. The last observed error is returned when
// the retry budget is exhausted.
func (c *Client) doWithRetry(ctx context.Context, httpClient *http.Client, url string, body request) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("Retrying Gemini request",
				zap.Int("attempt", attempt+1),
				zap.Error(lastErr))
			if err := c.sleep(ctx, c.backoff(attempt-1, lastErr)); err != nil {
				return nil, err
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			// Network-level failure (includes client timeouts): retryable.
			lastErr = err
			continue
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return resp, nil
		}

		apiErr := &APIError{StatusCode: resp.StatusCode, Body: readBody(resp.Body)}
		resp.Body.Close()

		if !retryableStatuses[resp.StatusCode] {
			return nil, apiErr
		}
		lastErr = apiErr
	}

	return nil, lastErr
}

// backoff computes baseDelay * 2^attempt plus up to 1s of jitter. A 429's
// Retry-After wins when it asks for longer.
func (c *Client) backoff(attempt int, lastErr error) time.Duration {
	delay := c.baseDelay*(1<<attempt) + time.Duration(rand.Int63n(int64(time.Second)))

	var apiErr *APIError
	if errors.As(lastErr, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		if after := apiErr.retryAfter(); after > delay {
			delay = after
		}
	}
	return delay
}

func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

func readBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	return string(b)
}

// retryAfter parses a Retry-After hint embedded in the error body, if the
// server sent one as a JSON field. Zero when absent.
func (e *APIError) retryAfter() time.Duration {
	var partial struct {
		RetryAfter json.Number `json:"retryAfter"`
	}
	if err := json.Unmarshal([]byte(e.Body), &partial); err != nil {
		return 0
	}
	secs, err := strconv.ParseInt(partial.RetryAfter.String(), 10, 64)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// Stream yields decoded text deltas from a streaming response.
type Stream struct {
	body    io.ReadCloser
	decoder *Decoder
	pending []string
	err     error
}

func newStream(body io.ReadCloser) *Stream {
	return &Stream{body: body, decoder: NewDecoder()}
}

// Recv returns the next text delta. io.EOF signals a normal end of stream
// (either the end sentinel or connection close).
func (s *Stream) Recv() (string, error) {
	for len(s.pending) == 0 {
		if s.err != nil {
			return "", s.err
		}
		if s.decoder.Done() {
			return "", io.EOF
		}

		chunk := make([]byte, 4096)
		n, err := s.body.Read(chunk)
		if n > 0 {
			s.pending = s.decoder.Feed(chunk[:n])
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				s.err = io.EOF
			} else {
				s.err = fmt.Errorf("stream read error: %w", err)
			}
		}
	}

	delta := s.pending[0]
	s.pending = s.pending[1:]
	return delta, nil
}

// Close releases the underlying response body. Safe to call more than once.
func (s *Stream) Close() error {
	return s.body.Close()
}
