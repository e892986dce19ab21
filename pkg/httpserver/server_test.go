package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/quotekit/pkg/httpserver"
)

func startServer(t *testing.T, srv *httpserver.Server, h http.Handler) (context.CancelFunc, <-chan error) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, h) }()

	require.Eventually(t, func() bool { return srv.Addr() != nil }, 2*time.Second, 10*time.Millisecond)
	return cancel, done
}

func waitDone(t *testing.T, done <-chan error) error {
	t.Helper()
	select {
	case err := <-done:
		return err
	case <-time.After(2 * time.Second):
		require.Fail(t, "run did not finish")
		return nil
	}
}

func TestServer_RunAndCancel(t *testing.T) {
	t.Parallel()
	srv := httpserver.New(
		httpserver.WithAddr("127.0.0.1:0"),
		httpserver.WithShutdownTimeout(200*time.Millisecond),
		httpserver.WithSignals(),
	)
	cancel, done := startServer(t, srv, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	defer cancel()

	resp, err := http.Get("http://" + srv.Addr().String())
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusTeapot, resp.StatusCode)

	cancel()
	assert.NoError(t, waitDone(t, done))
}

func TestServer_ManualShutdown(t *testing.T) {
	t.Parallel()
	srv := httpserver.New(httpserver.WithAddr("127.0.0.1:0"), httpserver.WithSignals())
	cancel, done := startServer(t, srv, nil)
	defer cancel()

	require.NoError(t, srv.Shutdown(context.Background()))
	require.NoError(t, srv.Shutdown(context.Background()), "second shutdown is a no-op")
	assert.NoError(t, waitDone(t, done))
}

func TestServer_ShutdownBeforeRun(t *testing.T) {
	t.Parallel()
	srv := httpserver.New()
	assert.NoError(t, srv.Shutdown(context.Background()))
	assert.Nil(t, srv.Addr())
}

func TestServer_AlreadyRunning(t *testing.T) {
	t.Parallel()
	srv := httpserver.New(httpserver.WithAddr("127.0.0.1:0"), httpserver.WithSignals())
	cancel, done := startServer(t, srv, nil)
	defer cancel()

	err := srv.Run(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, httpserver.ErrStart)
	assert.ErrorIs(t, err, httpserver.ErrAlreadyRunning)

	cancel()
	assert.NoError(t, waitDone(t, done))
}

func TestServer_StartError(t *testing.T) {
	t.Parallel()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := httpserver.New(httpserver.WithAddr(ln.Addr().String()), httpserver.WithSignals())
	err = srv.Run(context.Background(), nil)
	assert.ErrorIs(t, err, httpserver.ErrStart)
}

func TestServer_SignalShutdown(t *testing.T) {
	// Sends a real signal to the process, so not parallel.
	srv := httpserver.New(httpserver.WithAddr("127.0.0.1:0"), httpserver.WithSignals(syscall.SIGUSR1))
	cancel, done := startServer(t, srv, nil)
	defer cancel()

	require.NoError(t, syscall.Kill(syscall.Getpid(), syscall.SIGUSR1))
	assert.NoError(t, waitDone(t, done))
}

func TestOptionPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { httpserver.WithAddr("") })
	assert.Panics(t, func() { httpserver.WithReadTimeout(0) })
	assert.Panics(t, func() { httpserver.WithWriteTimeout(-time.Second) })
	assert.Panics(t, func() { httpserver.WithIdleTimeout(0) })
	assert.Panics(t, func() { httpserver.WithShutdownTimeout(0) })
	assert.NotPanics(t, func() { httpserver.New(httpserver.WithLogger(nil)) })
}

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestLiveness(t *testing.T) {
	t.Parallel()
	rec := httptest.NewRecorder()
	httpserver.Liveness()(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "alive", decodeHealth(t, rec)["status"])
}

func TestReadiness(t *testing.T) {
	t.Parallel()

	ok := httpserver.Check{Name: "postgres", Fn: func(context.Context) error { return nil }}
	failing := httpserver.Check{Name: "redis", Fn: func(context.Context) error { return errors.New("connection refused") }}

	t.Run("all checks pass", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		httpserver.Readiness(nil, time.Second, ok)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		body := decodeHealth(t, rec)
		assert.Equal(t, "ready", body["status"])
		assert.Equal(t, map[string]any{"postgres": "ok"}, body["checks"])
	})

	t.Run("one check fails", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		httpserver.Readiness(nil, time.Second, ok, failing)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		body := decodeHealth(t, rec)
		assert.Equal(t, "not_ready", body["status"])
		assert.Equal(t, map[string]any{"postgres": "ok", "redis": "failed"}, body["checks"])
	})

	t.Run("check sees deadline", func(t *testing.T) {
		t.Parallel()
		var hasDeadline bool
		probe := httpserver.Check{Name: "probe", Fn: func(ctx context.Context) error {
			_, hasDeadline = ctx.Deadline()
			return nil
		}}
		rec := httptest.NewRecorder()
		httpserver.Readiness(nil, 0, probe)(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
		assert.True(t, hasDeadline)
	})
}
