package observability_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyfan1/timegate/internal/config"
	"github.com/garyfan1/timegate/internal/logger"
	"github.com/garyfan1/timegate/internal/observability"
)

// stubChecker is a controllable dependency for readiness tests.
type stubChecker struct {
	name string
	err  error
}

func (c *stubChecker) Name() string                { return c.name }
func (c *stubChecker) Check(context.Context) error { return c.err }

// startServer boots the admin server on a free port and waits for it to
// accept connections.
func startServer(t *testing.T, checkers ...observability.Checker) (*observability.Server, string) {
	t.Helper()

	port, err := getFreePort()
	require.NoError(t, err)

	appCfg := &config.AppConfig{
		Name:      "timegate-test",
		Version:   "v0.0.0-test",
		Stage:     config.StageDev,
		LogLevel:  "debug",
		LogFormat: "text",
	}
	obsCfg := &config.ObservabilityConfig{
		Port:          fmt.Sprintf("%d", port),
		Timeout:       time.Second,
		LivenessPath:  "/health/live",
		ReadinessPath: "/health/ready",
		MetricsPath:   "/metrics",
	}

	server := observability.NewServer(logger.New(appCfg), obsCfg, checkers...)
	server.Start()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		require.NoError(t, server.Shutdown(ctx))
	})

	base := fmt.Sprintf("http://localhost:%d", port)
	require.Eventually(t, func() bool {
		resp, err := http.Get(base + "/health/live")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond, "server never came up")

	return server, base
}

func TestServerProbes(t *testing.T) {
	healthy := &stubChecker{name: "postgres"}
	_, base := startServer(t, healthy)

	t.Run("Should report liveness", func(t *testing.T) {
		resp, err := http.Get(base + "/health/live")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Should report readiness while dependencies are healthy", func(t *testing.T) {
		resp, err := http.Get(base + "/health/ready")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})

	t.Run("Should expose prometheus metrics", func(t *testing.T) {
		resp, err := http.Get(base + "/metrics")
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Contains(t, string(body), "go_goroutines")
	})
}

func TestServerReadinessFailure(t *testing.T) {
	broken := &stubChecker{name: "cache", err: errors.New("connection refused")}
	_, base := startServer(t, &stubChecker{name: "postgres"}, broken)

	resp, err := http.Get(base + "/health/ready")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "cache: unavailable")
}

// getFreePort asks the kernel for a free TCP port.
func getFreePort() (int, error) {
	addr, err := net.ResolveTCPAddr("tcp", "localhost:0")
	if err != nil {
		return 0, err
	}
	l, err := net.ListenTCP("tcp", addr)
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
