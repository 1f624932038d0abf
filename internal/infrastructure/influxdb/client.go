package influxdb

import (
	"context"
	"fmt"
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"

	"github.com/huangfengdan/hwlight-ha-component/internal/infrastructure/config"
)

const (
	connectTimeout = 10 * time.Second
	pingTimeout    = 5 * time.Second

	defaultBatchSize     = 100
	defaultFlushInterval = 10 // seconds
)

// Client records light state changes as InfluxDB points.
//
// Writes are non-blocking and batched; asynchronous failures are reported
// through the callback set with SetOnError. All methods are safe for
// concurrent use.
type Client struct {
	client   influxdb2.Client
	writeAPI api.WriteAPI
	cfg      config.InfluxDBConfig

	mu        sync.RWMutex
	connected bool
	onError   func(err error)
}

// Connect pings the server and prepares a batched write API for cfg.Bucket.
// It returns ErrDisabled when cfg.Enabled is false.
func Connect(cfg config.InfluxDBConfig) (*Client, error) {
	if !cfg.Enabled {
		return nil, ErrDisabled
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	flushInterval := cfg.FlushInterval
	if flushInterval <= 0 {
		flushInterval = defaultFlushInterval
	}

	flushMillis := (time.Duration(flushInterval) * time.Second).Milliseconds()

	// #nosec G115 -- both values are positive
	opts := influxdb2.DefaultOptions().
		SetBatchSize(uint(batchSize)).
		SetFlushInterval(uint(flushMillis))
	client := influxdb2.NewClientWithOptions(cfg.URL, cfg.Token, opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	healthy, err := client.Ping(ctx)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: ping failed: %w", ErrConnectionFailed, err)
	}
	if !healthy {
		client.Close()
		return nil, fmt.Errorf("%w: server not healthy", ErrConnectionFailed)
	}

	c := &Client{
		client:    client,
		writeAPI:  client.WriteAPI(cfg.Org, cfg.Bucket),
		cfg:       cfg,
		connected: true,
	}
	go c.forwardWriteErrors(c.writeAPI.Errors())

	return c, nil
}

func (c *Client) forwardWriteErrors(errs <-chan error) {
	for err := range errs {
		c.mu.RLock()
		cb := c.onError
		c.mu.RUnlock()

		if cb != nil {
			cb(fmt.Errorf("%w: %w", ErrWriteFailed, err))
		}
	}
}

// SetOnError sets the callback for asynchronous write failures.
// Errors passed to it wrap ErrWriteFailed.
func (c *Client) SetOnError(cb func(err error)) {
	c.mu.Lock()
	c.onError = cb
	c.mu.Unlock()
}

// IsConnected reports whether Close has not yet been called.
func (c *Client) IsConnected() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected
}

// HealthCheck pings the server.
func (c *Client) HealthCheck(ctx context.Context) error {
	if !c.IsConnected() {
		return ErrNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	healthy, err := c.client.Ping(ctx)
	if err != nil {
		return fmt.Errorf("influxdb health check failed: %w", err)
	}
	if !healthy {
		return fmt.Errorf("influxdb health check failed: server not healthy")
	}
	return nil
}

// Flush blocks until buffered points are sent. It is a no-op after Close.
func (c *Client) Flush() {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.Flush()
}

// Close flushes pending points and releases the client.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}

	c.mu.Lock()
	wasConnected := c.connected
	c.connected = false
	c.mu.Unlock()

	if wasConnected {
		c.writeAPI.Flush()
		c.client.Close()
	}
	return nil
}
