// Package probe performs reachability and liveness probes against tenant
// service endpoints, and carries direct config deliveries to them.
package probe

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultTimeout bounds every individual probe.
const DefaultTimeout = 5 * time.Second

// Result is the outcome of one probe.
type Result struct {
	Reachable    bool
	StatusCode   int
	ResponseTime time.Duration
	Version      string
	Err          error
}

// Prober issues reachability probes with an independent timeout per probe.
type Prober interface {
	ProbeHTTP(ctx context.Context, url string) Result
	ProbeTCP(ctx context.Context, host string, port int) Result
}

// Deliverer posts JSON payloads to tenant endpoints (direct-delivery fallback).
type Deliverer interface {
	PostJSON(ctx context.Context, url string, payload interface{}) error
}

type Client struct {
	http    *resty.Client
	timeout time.Duration
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Client{
		http:    resty.New().SetTimeout(timeout),
		timeout: timeout,
	}
}

// ProbeHTTP issues a GET against url. A received response of any status code
// counts as reachable; only transport failures (timeout, refused, DNS) do not.
func (c *Client) ProbeHTTP(ctx context.Context, url string) Result {
	start := time.Now()
	resp, err := c.http.R().SetContext(ctx).Get(url)
	elapsed := time.Since(start)
	if err != nil {
		return Result{ResponseTime: elapsed, Err: err}
	}
	return Result{
		Reachable:    true,
		StatusCode:   resp.StatusCode(),
		ResponseTime: elapsed,
		Version:      resp.Header().Get("X-Service-Version"),
	}
}

// ProbeTCP checks plain connectivity. Used for DATABASE instances, where the
// control plane holds no credentials to run a query of its own.
func (c *Client) ProbeTCP(ctx context.Context, host string, port int) Result {
	start := time.Now()
	dialer := net.Dialer{Timeout: c.timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	elapsed := time.Since(start)
	if err != nil {
		return Result{ResponseTime: elapsed, Err: err}
	}
	conn.Close()
	return Result{Reachable: true, ResponseTime: elapsed}
}

// PostJSON delivers payload to url and fails on any non-2xx response.
func (c *Client) PostJSON(ctx context.Context, url string, payload interface{}) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(url)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("POST %s returned status %d", url, resp.StatusCode())
	}
	return nil
}
