package influxdb_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/huangfengdan/hwlight-ha-component/internal/infrastructure/config"
	"github.com/huangfengdan/hwlight-ha-component/internal/infrastructure/influxdb"
)

// fakeInflux answers pings and records line-protocol write bodies.
type fakeInflux struct {
	*httptest.Server

	mu        sync.Mutex
	writes    []string
	failWrite bool
}

func newFakeInflux(t *testing.T) *fakeInflux {
	t.Helper()
	f := &fakeInflux{}
	f.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Influxdb-Version", "2.7.0")
		if strings.HasSuffix(r.URL.Path, "/write") {
			body, _ := io.ReadAll(r.Body) //nolint:errcheck // test server
			f.mu.Lock()
			fail := f.failWrite
			if !fail {
				f.writes = append(f.writes, string(body))
			}
			f.mu.Unlock()
			if fail {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"code":"invalid","message":"rejected"}`)) //nolint:errcheck // test server
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(f.Close)
	return f
}

func (f *fakeInflux) body() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return strings.Join(f.writes, "\n")
}

func testConfig(url string) config.InfluxDBConfig {
	return config.InfluxDBConfig{
		Enabled:       true,
		URL:           url,
		Token:         "test-token",
		Org:           "home",
		Bucket:        "mqttlight",
		BatchSize:     100,
		FlushInterval: 1,
	}
}

// =============================================================================
// Connection Tests
// =============================================================================

func TestConnect_Disabled(t *testing.T) {
	cfg := testConfig("http://127.0.0.1:8086")
	cfg.Enabled = false

	client, err := influxdb.Connect(cfg)
	if !errors.Is(err, influxdb.ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
	if client != nil {
		t.Error("Connect() returned a client while disabled")
	}
}

func TestConnect_Unreachable(t *testing.T) {
	// Port 1 is never an InfluxDB server.
	_, err := influxdb.Connect(testConfig("http://127.0.0.1:1"))
	if !errors.Is(err, influxdb.ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnect_DefaultsBatchSettings(t *testing.T) {
	srv := newFakeInflux(t)
	cfg := testConfig(srv.URL)
	cfg.BatchSize = 0
	cfg.FlushInterval = -1

	client, err := influxdb.Connect(cfg)
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // test cleanup

	if !client.IsConnected() {
		t.Error("IsConnected() = false after Connect()")
	}
}

func TestHealthCheck(t *testing.T) {
	srv := newFakeInflux(t)
	client, err := influxdb.Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}

	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	client.Close() //nolint:errcheck // closing to test the disconnected path
	if err := client.HealthCheck(context.Background()); !errors.Is(err, influxdb.ErrNotConnected) {
		t.Errorf("HealthCheck() after Close error = %v, want ErrNotConnected", err)
	}
}

// =============================================================================
// Write Tests
// =============================================================================

func TestWriteLightState(t *testing.T) {
	srv := newFakeInflux(t)
	client, err := influxdb.Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // test cleanup

	client.WriteLightState("mqtt_light_abc", map[string]any{
		"on":         true,
		"brightness": 128,
		"r":          255,
		"g":          0,
		"b":          0,
	})
	client.Flush()

	deadline := time.Now().Add(3 * time.Second)
	for srv.body() == "" && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
	}

	body := srv.body()
	for _, want := range []string{
		"light_state,entity_id=mqtt_light_abc",
		"on=true",
		"brightness=128i",
		"r=255i",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("write body %q missing %q", body, want)
		}
	}
}

func TestWriteLightState_ErrorCallback(t *testing.T) {
	srv := newFakeInflux(t)
	srv.failWrite = true

	client, err := influxdb.Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	defer client.Close() //nolint:errcheck // test cleanup

	errCh := make(chan error, 1)
	client.SetOnError(func(err error) {
		select {
		case errCh <- err:
		default:
		}
	})

	client.WriteLightState("mqtt_light_abc", map[string]any{"on": false})
	client.Flush()

	select {
	case err := <-errCh:
		if !errors.Is(err, influxdb.ErrWriteFailed) {
			t.Errorf("callback error = %v, want ErrWriteFailed", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("error callback was not invoked")
	}
}

func TestWriteLightState_AfterClose(t *testing.T) {
	srv := newFakeInflux(t)
	client, err := influxdb.Connect(testConfig(srv.URL))
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	client.Close() //nolint:errcheck // closing before write

	// Must not panic or block.
	client.WriteLightState("mqtt_light_abc", map[string]any{"on": true})
	client.Flush()

	if body := srv.body(); body != "" {
		t.Errorf("write after Close reached server: %q", body)
	}
}

func TestClose_Nil(t *testing.T) {
	var client *influxdb.Client
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v", err)
	}
	if client.IsConnected() {
		t.Error("nil client reports connected")
	}
}
