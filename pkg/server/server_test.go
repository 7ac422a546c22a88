package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type checkFunc func(ctx context.Context) error

func (f checkFunc) Ready(ctx context.Context) error   { return f(ctx) }
func (f checkFunc) Healthy(ctx context.Context) error { return f(ctx) }

func get(t *testing.T, h http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		for _, s := range v {
			req.Header.Add(k, s)
		}
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestProbes(t *testing.T) {
	notReady := checkFunc(func(context.Context) error { return errors.New("source unavailable") })
	ok := checkFunc(func(context.Context) error { return nil })

	tests := []struct {
		name   string
		opts   []Option
		path   string
		status int
		body   string
	}{
		{name: "health without checkers", path: "/healthz", status: http.StatusOK, body: "ok"},
		{name: "ready without checkers", path: "/readyz", status: http.StatusOK, body: "ok"},
		{name: "ready", opts: []Option{WithReadiness(ok)}, path: "/readyz", status: http.StatusOK, body: "ok"},
		{name: "not ready", opts: []Option{WithReadiness(ok), WithReadiness(notReady)}, path: "/readyz",
			status: http.StatusServiceUnavailable, body: "source unavailable"},
		{name: "unhealthy", opts: []Option{WithHealth(notReady)}, path: "/healthz",
			status: http.StatusServiceUnavailable, body: "source unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := get(t, New(tt.opts...).Handler(), tt.path, nil)
			assert.Equal(t, tt.status, rr.Code)
			assert.Equal(t, tt.body, rr.Body.String())
		})
	}
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := prometheus.NewCounter(prometheus.CounterOpts{Name: "test_hits_total", Help: "hits"})
	reg.MustRegister(c)
	c.Inc()

	rr := get(t, New(WithRegistry(reg), WithMetrics()).Handler(), "/metrics", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "test_hits_total 1")

	rr = get(t, New(WithRegistry(reg)).Handler(), "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRequestID(t *testing.T) {
	h := New(WithHandler("/menu", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))).Handler()

	rr := get(t, h, "/menu", nil)
	assert.Equal(t, http.StatusTeapot, rr.Code)
	assert.Len(t, rr.Header().Get(RequestIDHeader), 36)

	rr = get(t, h, "/menu", http.Header{RequestIDHeader: []string{"abc-123"}})
	assert.Equal(t, "abc-123", rr.Header().Get(RequestIDHeader))
}

func TestServe_Lifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	srv := New(
		WithPort(0),
		WithShutdownTimeout(time.Second),
		WithHandler("/menu", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("menu"))
		})),
	)
	assert.False(t, srv.IsRunning())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()

	require.Eventually(t, srv.IsRunning, 2*time.Second, 5*time.Millisecond)
	_, port, err := net.SplitHostPort(srv.Addr())
	require.NoError(t, err)
	addr := net.JoinHostPort("127.0.0.1", port)

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get(fmt.Sprintf("http://%s/menu", addr))
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "menu", string(body))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}

	assert.False(t, srv.IsRunning())
	assert.Empty(t, srv.Addr())
}

func TestServe_PortInUse(t *testing.T) {
	first := New(WithPort(0))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- first.Serve(ctx) }()
	require.Eventually(t, first.IsRunning, 2*time.Second, 5*time.Millisecond)

	_, p, err := net.SplitHostPort(first.Addr())
	require.NoError(t, err)
	port, err := strconv.Atoi(p)
	require.NoError(t, err)

	err = New(WithPort(port)).Serve(context.Background())
	assert.ErrorContains(t, err, "failed to create listener")

	cancel()
	require.NoError(t, <-done)
}

func TestServe_BadTLS(t *testing.T) {
	err := New(WithPort(0), WithTLS(TLSConfig{CertFile: "missing.pem", KeyFile: "missing.key"})).Serve(context.Background())
	assert.ErrorContains(t, err, "failed to load TLS certificate")
}
