package bootstrap

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/jobdesk-api/config"
)

func blockUntilDone(ran *atomic.Int32) func(context.Context) error {
	return func(ctx context.Context) error {
		ran.Add(1)
		<-ctx.Done()
		return nil
	}
}

func TestRunComponents(t *testing.T) {
	t.Run("only enabled components run", func(t *testing.T) {
		var httpRuns, auditRuns atomic.Int32
		ctx, cancel := context.WithCancel(context.Background())
		comps := []component{
			{mode: config.ServiceModeHTTP, run: blockUntilDone(&httpRuns)},
			{mode: config.ServiceModeScopeAuditor, run: blockUntilDone(&auditRuns)},
		}

		done := make(chan error, 1)
		go func() {
			done <- runComponents(ctx, discardLogger(), map[config.ServiceMode]bool{config.ServiceModeHTTP: true}, comps)
		}()
		require.Eventually(t, func() bool { return httpRuns.Load() == 1 }, time.Second, 5*time.Millisecond)
		cancel()

		require.NoError(t, <-done)
		assert.Equal(t, int32(0), auditRuns.Load())
	})

	t.Run("first failure stops the rest", func(t *testing.T) {
		var httpRuns atomic.Int32
		boom := errors.New("boom")
		comps := []component{
			{mode: config.ServiceModeHTTP, run: blockUntilDone(&httpRuns)},
			{mode: config.ServiceModeScopeAuditor, run: func(context.Context) error { return boom }},
		}
		enabled := map[config.ServiceMode]bool{config.ServiceModeHTTP: true, config.ServiceModeScopeAuditor: true}

		err := runComponents(context.Background(), discardLogger(), enabled, comps)
		require.ErrorIs(t, err, boom)
		assert.Contains(t, err.Error(), "scope-auditor")
	})

	t.Run("nothing enabled", func(t *testing.T) {
		err := runComponents(context.Background(), discardLogger(), nil, nil)
		require.Error(t, err)
	})
}

func TestServeHTTP_ShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	handler := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "pong")
	})
	srv := newHTTPServer(config.HTTPConfig{}, handler)
	assert.Equal(t, ":8080", srv.Addr)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serveHTTP(ctx, srv, ln, discardLogger()) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serveHTTP did not return after cancel")
	}
}

func TestNewHTTPServer_WriteTimeoutCoversRequestTimeout(t *testing.T) {
	srv := newHTTPServer(config.HTTPConfig{Addr: ":9090", RequestTimeout: time.Minute}, http.NotFoundHandler())
	assert.Equal(t, ":9090", srv.Addr)
	assert.Equal(t, time.Minute+5*time.Second, srv.WriteTimeout)
}

func TestRunServicesWithShutdown_RequiresConfig(t *testing.T) {
	require.Error(t, RunServicesWithShutdown(nil))
	require.Error(t, RunServicesWithShutdown(&ServiceOrchestrationConfig{}))
}
