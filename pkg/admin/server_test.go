package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	// Registers the weir collectors exposed on /metrics.
	_ "github.com/weirlabs/weir/pkg/metrics"
)

// startServer runs an admin server on an ephemeral port and returns its
// base URL plus the channel Run's result arrives on.
func startServer(t *testing.T, ctx context.Context, service string) (string, <-chan error) {
	t.Helper()

	srv := New(service, 0)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		return srv.Port() != 0
	}, time.Second, 5*time.Millisecond, "listener never bound")

	return fmt.Sprintf("http://127.0.0.1:%d", srv.Port()), errCh
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body)
}

func TestAdminEndpoints(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	base, _ := startServer(t, ctx, "controller")

	t.Run("Health", func(t *testing.T) {
		status, body := get(t, base+"/health")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "ok", body)
	})

	t.Run("Ready", func(t *testing.T) {
		status, body := get(t, base+"/health/ready")
		assert.Equal(t, http.StatusOK, status)

		var payload map[string]string
		require.NoError(t, json.Unmarshal([]byte(body), &payload))
		assert.Equal(t, "ready", payload["status"])
		assert.Equal(t, "controller", payload["service"])
	})

	t.Run("Name", func(t *testing.T) {
		status, body := get(t, base+"/name")
		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "controller", body)
	})

	t.Run("Metrics", func(t *testing.T) {
		status, body := get(t, base+"/metrics")
		assert.Equal(t, http.StatusOK, status)
		assert.Contains(t, body, "weir_")
	})
}

func TestRunStopsOnContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	_, errCh := startServer(t, ctx, "api")

	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancellation")
	}
}
