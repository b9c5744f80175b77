package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixedBackoff(t *testing.T) {
	delay := 700 * time.Millisecond
	for attempt := 0; attempt < 5; attempt++ {
		assert.Equal(t, delay, fixedBackoff(delay, 10*time.Second, attempt, nil))
	}
}

func TestProbeRetryPolicy(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		err       error
		wantRetry bool
	}{
		{name: "ok", status: http.StatusOK},
		{name: "not found", status: http.StatusNotFound},
		{name: "forbidden", status: http.StatusForbidden},
		{name: "request timeout", status: http.StatusRequestTimeout, wantRetry: true},
		{name: "too many requests", status: http.StatusTooManyRequests, wantRetry: true},
		{name: "internal error", status: http.StatusInternalServerError, wantRetry: true},
		{name: "bad gateway", status: http.StatusBadGateway, wantRetry: true},
		{name: "connection failure", err: errors.New("connection refused"), wantRetry: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var resp *http.Response
			if tc.err == nil {
				resp = &http.Response{StatusCode: tc.status}
			}
			retry, err := probeRetryPolicy(context.Background(), resp, tc.err)
			require.NoError(t, err)
			assert.Equal(t, tc.wantRetry, retry)
		})
	}
}

func TestProbeRetryPolicyHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	retry, err := probeRetryPolicy(ctx, nil, errors.New("connection reset"))
	assert.False(t, retry)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProbeClientRetriesTransientFailures(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if requests.Add(1) < 3 {
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Length", "42")
	}))
	defer ts.Close()

	probe := NewProbeClient(Options{MaxRetries: 3, RetryDelay: time.Millisecond})
	req, err := http.NewRequest(http.MethodHead, ts.URL, nil)
	require.NoError(t, err)

	resp, err := probe.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), requests.Load())
}

func TestProbeClientGivesUpAfterMaxRetries(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	probe := NewProbeClient(Options{MaxRetries: 2, RetryDelay: time.Millisecond})
	req, err := http.NewRequest(http.MethodHead, ts.URL, nil)
	require.NoError(t, err)

	_, err = probe.Do(req)
	assert.Error(t, err)
	assert.Equal(t, int32(3), requests.Load(), "initial attempt plus two retries")
}

func TestProbeClientDoesNotRetryRejection(t *testing.T) {
	var requests atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer ts.Close()

	probe := NewProbeClient(Options{MaxRetries: 5, RetryDelay: time.Millisecond})
	req, err := http.NewRequest(http.MethodHead, ts.URL, nil)
	require.NoError(t, err)

	resp, err := probe.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, int32(1), requests.Load())
}

func TestUserAgentStamped(t *testing.T) {
	var userAgent atomic.Value
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent.Store(r.Header.Get("User-Agent"))
	}))
	defer ts.Close()

	httpClient := NewHTTPClient(Options{ConnectTimeout: time.Second})
	resp, err := httpClient.Get(ts.URL)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Contains(t, userAgent.Load().(string), "bget/")
}
