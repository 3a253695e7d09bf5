package api

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/maverick/backend/pkg/config"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	cfg := &config.Config{
		Port: "0",
		API:  config.APIConfig{RequestTimeout: time.Second, ShutdownTimeout: time.Second},
	}
	server := New(cfg, nil, newTestRouter(t, nil, nil))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- server.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "ok")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()

	_, port, _ := net.SplitHostPort(ln.Addr().String())
	server := New(&config.Config{Port: port}, nil, http.NotFoundHandler())
	assert.Error(t, server.Run(context.Background()))
}
