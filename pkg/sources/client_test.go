package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "rashset/pkg/errors"
	"rashset/pkg/logger"
)

type countingLimiter struct {
	calls int
	wait  time.Duration
	err   error
}

func (l *countingLimiter) Wait(context.Context) (time.Duration, error) {
	l.calls++
	return l.wait, l.err
}

func TestGetJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "custom", r.Header.Get("X-Test"))
		w.Write([]byte(`{"value": 42}`))
	}))
	defer server.Close()

	limiter := &countingLimiter{wait: time.Second}
	log := logger.NewTestLogger()
	c := NewClient("test", 5*time.Second, limiter, log)
	c.SetHeader("X-Test", "custom")

	var out struct {
		Value int `json:"value"`
	}
	require.NoError(t, c.GetJSON(context.Background(), server.URL, &out))

	assert.Equal(t, 42, out.Value)
	assert.Equal(t, 1, limiter.calls)
	assert.True(t, log.HasMessage("Waiting for request budget"))
}

func TestGetJSONErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/unauthorized":
			w.WriteHeader(http.StatusUnauthorized)
		case "/throttled":
			w.WriteHeader(http.StatusTooManyRequests)
		case "/broken":
			w.WriteHeader(http.StatusBadGateway)
		case "/teapot":
			w.WriteHeader(http.StatusTeapot)
		case "/garbage":
			w.Write([]byte("<html>"))
		}
	}))
	defer server.Close()

	tests := []struct {
		path string
		code int
	}{
		{path: "/unauthorized", code: http.StatusUnauthorized},
		{path: "/throttled", code: http.StatusTooManyRequests},
		{path: "/broken", code: http.StatusBadGateway},
		{path: "/teapot", code: http.StatusTeapot},
		{path: "/garbage", code: http.StatusOK},
	}

	c := NewClient("test", 5*time.Second, nil, logger.NewTestLogger())
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			var out map[string]interface{}
			err := c.GetJSON(context.Background(), server.URL+tt.path, &out)
			require.Error(t, err)
			assert.True(t, errs.IsAdapter(err))

			var e *errs.Error
			require.ErrorAs(t, err, &e)
			assert.Equal(t, tt.code, e.Code)
		})
	}
}

func TestDoNetworkError(t *testing.T) {
	log := logger.NewTestLogger()
	c := NewClient("test", time.Second, nil, log)

	err := c.GetJSON(context.Background(), "http://127.0.0.1:1/", &struct{}{})
	assert.True(t, errs.IsAdapter(err))
	assert.True(t, log.HasMessage("HTTP request failed"))
}

func TestDoLimiterCancelled(t *testing.T) {
	limiter := &countingLimiter{err: context.Canceled}
	c := NewClient("test", time.Second, limiter, logger.NewTestLogger())

	err := c.GetJSON(context.Background(), "http://127.0.0.1:1/", &struct{}{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, errs.IsAdapter(err))
}
