package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func newTestProvider(t *testing.T, url string, attempts int) *OpenWeatherProvider {
	t.Helper()
	p, err := NewOpenWeatherProvider("test-api-key-123", url, 2*time.Second, attempts, time.Millisecond, 5*time.Millisecond, 99)
	if err != nil {
		t.Fatalf("NewOpenWeatherProvider: %v", err)
	}
	return p
}

// TestNewOpenWeatherProvider_KeyValidation verifies construction rejects
// missing or obviously invalid API keys.
func TestNewOpenWeatherProvider_KeyValidation(t *testing.T) {
	if _, err := NewOpenWeatherProvider("", "http://x", time.Second, 1, time.Millisecond, time.Millisecond, 0); !errors.Is(err, ErrInvalidAPIKey) {
		t.Fatalf("empty key error = %v, want ErrInvalidAPIKey", err)
	}
	if _, err := NewOpenWeatherProvider("short", "http://x", time.Second, 1, time.Millisecond, time.Millisecond, 0); !errors.Is(err, ErrInvalidAPIKey) {
		t.Fatalf("short key error = %v, want ErrInvalidAPIKey", err)
	}
}

// TestOpenWeatherProvider_Fetch_Success verifies the happy path: coordinates
// in the query, category mapped through the condition table.
func TestOpenWeatherProvider_Fetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("lat") == "" || q.Get("lon") == "" {
			t.Errorf("missing lat/lon in query: %s", r.URL.RawQuery)
		}
		if q.Get("appid") != "test-api-key-123" {
			t.Errorf("appid = %q", q.Get("appid"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"weather":[{"main":"Rain","description":"light rain"}],"name":"Hyderabad"}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 1)
	obs, err := p.Fetch(context.Background(), testCoord)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if obs.Condition != "Rain" {
		t.Fatalf("condition = %q, want Rain", obs.Condition)
	}
	if obs.DelayMin < 10 || obs.DelayMin > 20 || obs.Risk < 1.08 || obs.Risk > 1.12 {
		t.Fatalf("observation outside storm profile: %+v", obs)
	}
}

// TestOpenWeatherProvider_Fetch_EmptyWeatherList verifies an empty weather
// array maps to clear skies rather than an error.
func TestOpenWeatherProvider_Fetch_EmptyWeatherList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"weather":[],"name":"Hyderabad"}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 1)
	obs, err := p.Fetch(context.Background(), testCoord)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if obs.Condition != "Clear" {
		t.Fatalf("condition = %q, want Clear", obs.Condition)
	}
}

// TestOpenWeatherProvider_Fetch_MalformedPayload verifies an unparseable body
// fails without retrying; the sweep turns this into the fallback.
func TestOpenWeatherProvider_Fetch_MalformedPayload(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"weather": "not-a-list"`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 3)
	if _, err := p.Fetch(context.Background(), testCoord); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("Fetch error = %v, want ErrMalformedResponse", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("provider called %d times for non-retryable error, want 1", calls.Load())
	}
}

// TestOpenWeatherProvider_Fetch_RetriesServerErrors verifies 5xx responses are
// retried and eventually succeed.
func TestOpenWeatherProvider_Fetch_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"weather":[{"main":"Clouds"}]}`))
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 3)
	obs, err := p.Fetch(context.Background(), testCoord)
	if err != nil {
		t.Fatalf("Fetch after retries: %v", err)
	}
	if obs.Condition != "Clouds" {
		t.Fatalf("condition = %q, want Clouds", obs.Condition)
	}
	if calls.Load() != 3 {
		t.Fatalf("provider called %d times, want 3", calls.Load())
	}
}

// TestOpenWeatherProvider_Fetch_ExhaustsRetries verifies a persistently failing
// upstream surfaces ErrUpstreamFailure after the configured attempts.
func TestOpenWeatherProvider_Fetch_ExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 3)
	if _, err := p.Fetch(context.Background(), testCoord); !errors.Is(err, ErrUpstreamFailure) {
		t.Fatalf("Fetch error = %v, want ErrUpstreamFailure", err)
	}
	if calls.Load() != 3 {
		t.Fatalf("provider called %d times, want 3", calls.Load())
	}
}

// TestOpenWeatherProvider_Fetch_Unauthorized verifies a rejected key is not retried.
func TestOpenWeatherProvider_Fetch_Unauthorized(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := newTestProvider(t, srv.URL, 3)
	if _, err := p.Fetch(context.Background(), testCoord); !errors.Is(err, ErrInvalidAPIKey) {
		t.Fatalf("Fetch error = %v, want ErrInvalidAPIKey", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("provider called %d times for auth failure, want 1", calls.Load())
	}
}
