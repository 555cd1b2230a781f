package gemini

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testClient(t *testing.T, serverURL string, maxRetries int) *Client {
	t.Helper()
	c, err := NewClient(Config{
		APIKey:            "test-key",
		BaseURL:           serverURL,
		MaxRetries:        maxRetries,
		RetryBaseDelay:    time.Millisecond,
		Timeout:           5 * time.Second,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}, zap.NewNop())
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	_, err := NewClient(Config{}, zap.NewNop())
	assert.Error(t, err)
}

func TestGenerate_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, ":generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"answer"}]}}]}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 3)
	text, err := c.Generate(context.Background(), []Content{NewUserContent("q")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "answer", text)
}

func TestDoWithRetry_RetryableStatusRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 3)
	text, err := c.Generate(context.Background(), []Content{NewUserContent("q")}, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoWithRetry_NonRetryable4xxFailsImmediately(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusPaymentRequired)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 3)
	_, err := c.Generate(context.Background(), []Content{NewUserContent("q")}, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusPaymentRequired, apiErr.StatusCode)
	assert.Equal(t, int32(1), calls.Load())
}

func TestDoWithRetry_ExhaustionReturnsLastError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 2)
	_, err := c.Generate(context.Background(), []Content{NewUserContent("q")}, nil)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.StatusCode)
	// Initial attempt plus two retries.
	assert.Equal(t, int32(3), calls.Load())
}

func TestDoWithRetry_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := testClient(t, srv.URL, 3)
	_, err := c.Generate(ctx, []Content{NewUserContent("q")}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStreamGenerate_DeltasAndEOF(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, ":streamGenerateContent")
		assert.Equal(t, "sse", r.URL.Query().Get("alt"))
		w.Header().Set("Content-Type", "text/event-stream")
		w.Write([]byte(event("Hello ")))
		w.Write([]byte(event("world")))
		w.Write([]byte("data: [DONE]\n"))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 0)
	stream, err := c.StreamGenerate(context.Background(), []Content{NewUserContent("q")}, nil)
	require.NoError(t, err)
	defer stream.Close()

	var got []string
	for {
		delta, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, delta)
	}
	assert.Equal(t, []string{"Hello ", "world"}, got)
}

func TestStreamGenerate_OutlivesRequestTimeout(t *testing.T) {
	// A healthy stream must keep delivering past the per-request timeout;
	// only dialing and headers are bounded on the streaming path.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, delta := range []string{"part 1 ", "part 2 ", "part 3 ", "part 4"} {
			w.Write([]byte(event(delta)))
			flusher.Flush()
			time.Sleep(60 * time.Millisecond)
		}
		w.Write([]byte("data: [DONE]\n"))
	}))
	defer srv.Close()

	c, err := NewClient(Config{
		APIKey:            "test-key",
		BaseURL:           srv.URL,
		Timeout:           100 * time.Millisecond,
		RetryBaseDelay:    time.Millisecond,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}, zap.NewNop())
	require.NoError(t, err)

	stream, err := c.StreamGenerate(context.Background(), []Content{NewUserContent("q")}, nil)
	require.NoError(t, err)
	defer stream.Close()

	var got []string
	for {
		delta, err := stream.Recv()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, delta)
	}
	assert.Equal(t, []string{"part 1 ", "part 2 ", "part 3 ", "part 4"}, got)
}

func TestGenerate_BoundedByRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"late"}]}}]}`))
	}))
	defer srv.Close()
	defer close(release)

	c, err := NewClient(Config{
		APIKey:            "test-key",
		BaseURL:           srv.URL,
		Timeout:           50 * time.Millisecond,
		MaxRetries:        1,
		RetryBaseDelay:    time.Millisecond,
		RequestsPerSecond: 1000,
		Burst:             1000,
	}, zap.NewNop())
	require.NoError(t, err)

	_, err = c.Generate(context.Background(), []Content{NewUserContent("q")}, nil)
	assert.Error(t, err)
}

func TestStreamGenerate_EOFWithoutSentinel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(event("only")))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, 0)
	stream, err := c.StreamGenerate(context.Background(), []Content{NewUserContent("q")}, nil)
	require.NoError(t, err)
	defer stream.Close()

	delta, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, "only", delta)

	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)
}
