package forecast

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"

	"github.com/Priyansh6747/Nutrilio/internal/common"
)

// RemoteConfig configures a RemoteOracle.
type RemoteConfig struct {
	// Endpoint is the full URL of the forecast route.
	Endpoint string
	// APIKey is sent as a bearer token when set.
	APIKey string
	// Samples is the number of trajectories requested per series.
	Samples int
	// RequestsPerMinute caps the call rate. Zero means 60.
	RequestsPerMinute int
	Timeout           time.Duration
}

// RemoteOracle calls a hosted probabilistic forecasting model over HTTP.
//
// Request:  {"context": [...], "prediction_length": H, "num_samples": N}
// Response: {"samples": [[...H values...], ...]}
type RemoteOracle struct {
	httpClient *http.Client
	limiter    *rateLimiter
	endpoint   string
	apiKey     string
	samples    int
}

type remoteRequest struct {
	Context          []float64 `json:"context"`
	PredictionLength int       `json:"prediction_length"`
	NumSamples       int       `json:"num_samples"`
}

type remoteResponse struct {
	Error   string      `json:"error,omitempty"`
	Samples [][]float64 `json:"samples"`
}

// NewRemoteOracle creates a client for the configured endpoint.
func NewRemoteOracle(cfg RemoteConfig) (*RemoteOracle, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("%w: forecast endpoint is required", common.ErrMissingConfig)
	}

	samples := cfg.Samples
	if samples <= 0 {
		samples = DefaultSamples
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &RemoteOracle{
		endpoint: cfg.Endpoint,
		apiKey:   cfg.APIKey,
		samples:  samples,
		limiter:  newRateLimiter(cfg.RequestsPerMinute),
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

// Forecast implements Oracle. Rate limiting and 5xx responses surface as
// retryable errors for common.WithRetry.
func (o *RemoteOracle) Forecast(ctx context.Context, series []float64, horizon int) ([][]float64, error) {
	if err := o.limiter.wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(remoteRequest{
		Context:          series,
		PredictionLength: horizon,
		NumSamples:       o.samples,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.apiKey)
	}

	resp, err := o.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &common.RetryableError{Err: fmt.Errorf("request failed: %w", err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("forecast service: %w", common.ErrRateLimit)
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("forecast service error (status %d): %s", resp.StatusCode, string(respBody)),
			Retryable: true,
		}
	case resp.StatusCode != http.StatusOK:
		return nil, &common.RetryableError{
			Err:       fmt.Errorf("forecast service rejected request (status %d): %s", resp.StatusCode, string(respBody)),
			Retryable: false,
		}
	}

	var parsed remoteResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != "" {
		return nil, errors.New(parsed.Error)
	}
	if len(parsed.Samples) == 0 {
		return nil, fmt.Errorf("no samples returned")
	}
	return parsed.Samples, nil
}

// Close stops the rate limiter.
func (o *RemoteOracle) Close() {
	o.limiter.Close()
}

// rateLimiter is a token bucket refilled once per 1/rpm minutes.
type rateLimiter struct {
	stopCh    chan struct{}
	tokens    int
	capacity  int
	mu        sync.Mutex
	closeOnce sync.Once
}

func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}

	rl := &rateLimiter{
		tokens:   requestsPerMinute,
		capacity: requestsPerMinute,
		stopCh:   make(chan struct{}),
	}
	go rl.refill(time.Minute / time.Duration(requestsPerMinute))
	return rl
}

// wait blocks until a token is available or the context is canceled.
func (rl *rateLimiter) wait(ctx context.Context) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		if rl.tryAcquire() {
			return nil
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("rate limiter canceled: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

func (rl *rateLimiter) tryAcquire() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.tokens > 0 {
		rl.tokens--
		return true
	}
	return false
}

func (rl *rateLimiter) refill(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stopCh:
			return
		case <-ticker.C:
			rl.mu.Lock()
			if rl.tokens < rl.capacity {
				rl.tokens++
			}
			rl.mu.Unlock()
		}
	}
}

// Close stops the refill goroutine.
func (rl *rateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.stopCh) })
}
