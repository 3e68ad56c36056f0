package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nvuppala/route-planner-service/internal/circuitbreaker"
	"github.com/nvuppala/route-planner-service/internal/models"
	"github.com/nvuppala/route-planner-service/internal/observability"
)

var (
	ErrInvalidAPIKey     = errors.New("invalid API key")
	ErrUpstreamFailure   = errors.New("upstream failure")
	ErrRateLimited       = errors.New("rate limited")
	ErrMalformedResponse = errors.New("malformed provider response")
)

// OpenWeatherProvider fetches current conditions by coordinate from the
// OpenWeatherMap API and maps the reported category through the condition
// table. Transient failures are retried with exponential backoff; an optional
// circuit breaker short-circuits calls while the upstream is down.
type OpenWeatherProvider struct {
	apiKey         string
	apiURL         string
	timeout        time.Duration
	client         *http.Client
	retryAttempts  int
	retryBaseDelay time.Duration
	retryMaxDelay  time.Duration
	breaker        *circuitbreaker.CircuitBreaker
	sampler        *sampler
}

// NewOpenWeatherProvider validates the key and builds a provider. seed pins
// the delay/risk sampling for tests.
func NewOpenWeatherProvider(apiKey, apiURL string, timeout time.Duration, retryAttempts int, retryBaseDelay, retryMaxDelay time.Duration, seed int64) (*OpenWeatherProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: API key is required", ErrInvalidAPIKey)
	}
	if len(apiKey) < 10 {
		return nil, fmt.Errorf("%w: API key appears invalid (too short)", ErrInvalidAPIKey)
	}
	if retryAttempts <= 0 {
		retryAttempts = 3
	}

	return &OpenWeatherProvider{
		apiKey:         apiKey,
		apiURL:         apiURL,
		timeout:        timeout,
		retryAttempts:  retryAttempts,
		retryBaseDelay: retryBaseDelay,
		retryMaxDelay:  retryMaxDelay,
		sampler:        newSampler(seed),
		client: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// SetCircuitBreaker installs a breaker around upstream calls.
func (p *OpenWeatherProvider) SetCircuitBreaker(cb *circuitbreaker.CircuitBreaker) {
	p.breaker = cb
}

type openWeatherResponse struct {
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Name string `json:"name"`
}

// Fetch implements Provider with retries. Non-retryable errors (bad key,
// malformed payload) surface immediately; the ingestion sweep converts any
// error into the per-city fallback.
func (p *OpenWeatherProvider) Fetch(ctx context.Context, coord models.Coordinate) (Observation, error) {
	var lastErr error

	for attempt := 0; attempt < p.retryAttempts; attempt++ {
		if attempt > 0 {
			observability.WeatherProviderRetriesTotal.Inc()
			delay := p.calculateBackoff(attempt)
			select {
			case <-ctx.Done():
				return Observation{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		var obs Observation
		call := func() error {
			var err error
			obs, err = p.callAPI(ctx, coord)
			return err
		}

		var err error
		if p.breaker != nil {
			err = p.breaker.Call(ctx, call)
		} else {
			err = call()
		}
		if err == nil {
			return obs, nil
		}

		lastErr = err
		if !p.isRetryable(err) {
			return Observation{}, err
		}
	}

	return Observation{}, fmt.Errorf("exhausted retries: %w", lastErr)
}

func (p *OpenWeatherProvider) callAPI(ctx context.Context, coord models.Coordinate) (Observation, error) {
	start := time.Now()

	reqCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := p.buildRequest(reqCtx, coord)
	if err != nil {
		observability.WeatherProviderCallsTotal.WithLabelValues("error").Inc()
		return Observation{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		duration := time.Since(start).Seconds()
		observability.WeatherProviderCallsTotal.WithLabelValues("error").Inc()
		observability.WeatherProviderDuration.WithLabelValues("error").Observe(duration)

		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Observation{}, fmt.Errorf("request timeout: %w", err)
		}
		return Observation{}, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	duration := time.Since(start).Seconds()
	status := statusLabel(resp.StatusCode)
	observability.WeatherProviderCallsTotal.WithLabelValues(status).Inc()
	observability.WeatherProviderDuration.WithLabelValues(status).Observe(duration)

	if err := p.handleErrorResponse(resp); err != nil {
		return Observation{}, err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Observation{}, fmt.Errorf("read response body: %w", err)
	}

	var apiResp openWeatherResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		return Observation{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	return p.mapResponse(apiResp), nil
}

func (p *OpenWeatherProvider) isRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrRateLimited) || errors.Is(err, ErrUpstreamFailure) {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "context deadline exceeded") ||
		strings.Contains(errStr, "context canceled")
}

func (p *OpenWeatherProvider) calculateBackoff(attempt int) time.Duration {
	delay := float64(p.retryBaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(p.retryMaxDelay) {
		delay = float64(p.retryMaxDelay)
	}
	jitter := delay * 0.1 * p.jitterFraction()
	return time.Duration(delay + jitter)
}

func (p *OpenWeatherProvider) jitterFraction() float64 {
	p.sampler.mu.Lock()
	defer p.sampler.mu.Unlock()
	return p.sampler.rng.Float64()
}

func (p *OpenWeatherProvider) buildRequest(ctx context.Context, coord models.Coordinate) (*http.Request, error) {
	baseURL, err := url.Parse(p.apiURL)
	if err != nil {
		return nil, fmt.Errorf("invalid API URL: %w", err)
	}

	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(coord.Lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(coord.Lon, 'f', -1, 64))
	params.Set("appid", p.apiKey)
	baseURL.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, "GET", baseURL.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	return req, nil
}

func (p *OpenWeatherProvider) handleErrorResponse(resp *http.Response) error {
	switch resp.StatusCode {
	case http.StatusUnauthorized:
		return fmt.Errorf("%w: rejected by provider", ErrInvalidAPIKey)
	case http.StatusTooManyRequests:
		return fmt.Errorf("%w", ErrRateLimited)
	case http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: HTTP %d", ErrUpstreamFailure, resp.StatusCode)
	}

	return nil
}

// mapResponse converts the provider payload into an Observation. An empty
// weather list counts as clear skies, matching the provider's own convention
// of listing the dominant condition first.
func (p *OpenWeatherProvider) mapResponse(apiResp openWeatherResponse) Observation {
	condition := ""
	if len(apiResp.Weather) > 0 {
		condition = apiResp.Weather[0].Main
	}
	if condition == "" {
		condition = "Clear"
	}

	delay, risk := p.sampler.sample(profileFor(condition))
	return Observation{Condition: condition, DelayMin: delay, Risk: risk}
}

func statusLabel(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return "success"
	case statusCode == http.StatusTooManyRequests:
		return "rate_limited"
	case statusCode >= 400 && statusCode < 500:
		return "client_error"
	case statusCode >= 500:
		return "server_error"
	default:
		return "error"
	}
}
