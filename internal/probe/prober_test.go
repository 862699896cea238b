package probe

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeHTTP_HealthyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Service-Version", "2.4.1")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(time.Second)
	result := client.ProbeHTTP(context.Background(), server.URL)

	assert.True(t, result.Reachable)
	assert.Equal(t, http.StatusOK, result.StatusCode)
	assert.Equal(t, "2.4.1", result.Version)
	assert.NoError(t, result.Err)
}

func TestProbeHTTP_ErrorStatusStillReachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(time.Second)
	result := client.ProbeHTTP(context.Background(), server.URL)

	assert.True(t, result.Reachable)
	assert.Equal(t, http.StatusServiceUnavailable, result.StatusCode)
}

func TestProbeHTTP_ConnectionRefused(t *testing.T) {
	// Grab a port nothing listens on
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := listener.Addr().String()
	listener.Close()

	client := NewClient(time.Second)
	result := client.ProbeHTTP(context.Background(), "http://"+addr+"/health")

	assert.False(t, result.Reachable)
	assert.Error(t, result.Err)
}

func TestProbeTCP(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer listener.Close()
	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	host, portStr, err := net.SplitHostPort(listener.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)

	client := NewClient(time.Second)
	result := client.ProbeTCP(context.Background(), host, port)

	assert.True(t, result.Reachable)
	assert.NoError(t, result.Err)
}

func TestProbeTCP_Refused(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	host, portStr, _ := net.SplitHostPort(listener.Addr().String())
	port, _ := strconv.Atoi(portStr)
	listener.Close()

	client := NewClient(time.Second)
	result := client.ProbeTCP(context.Background(), host, port)

	assert.False(t, result.Reachable)
	assert.Error(t, result.Err)
}

func TestPostJSON(t *testing.T) {
	var received string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(time.Second)
	err := client.PostJSON(context.Background(), server.URL, map[string]string{"type": "config_update"})

	assert.NoError(t, err)
	assert.Equal(t, "application/json", received)
}

func TestPostJSON_ErrorStatusFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewClient(time.Second)
	err := client.PostJSON(context.Background(), server.URL, map[string]string{})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
