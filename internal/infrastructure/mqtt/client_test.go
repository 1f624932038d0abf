package mqtt

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/huangfengdan/hwlight-ha-component/internal/infrastructure/config"
)

// testConfig returns an MQTT configuration pointing at a local broker.
func testConfig(clientID string) config.MQTTConfig {
	return config.MQTTConfig{
		Broker: config.MQTTBrokerConfig{
			Host:     "127.0.0.1",
			Port:     1883,
			ClientID: clientID,
		},
		QoS: 1,
		Reconnect: config.MQTTReconnectConfig{
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
}

// connectOrSkip connects to the local broker or skips the test when none is running.
func connectOrSkip(t *testing.T, clientID string) *Client {
	t.Helper()
	client, err := Connect(testConfig(clientID))
	if err != nil {
		t.Skipf("MQTT broker not available at 127.0.0.1:1883: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}

// fakeMessage implements pahomqtt.Message for handler tests.
type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type mockLogger struct {
	mu     sync.Mutex
	errors []string
	warns  []string
}

func (l *mockLogger) Error(msg string, _ ...any) {
	l.mu.Lock()
	l.errors = append(l.errors, msg)
	l.mu.Unlock()
}

func (l *mockLogger) Warn(msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}

// =============================================================================
// Offline Tests
// =============================================================================

func TestIsConnected_InitialState(t *testing.T) {
	client := &Client{}
	if client.IsConnected() {
		t.Error("IsConnected() should be false for uninitialised client")
	}
}

func TestCloseNil(t *testing.T) {
	client := &Client{}
	if err := client.Close(); err != nil {
		t.Errorf("Close() on nil client error = %v, want nil", err)
	}
}

func TestHealthCheck_NotConnected(t *testing.T) {
	client := &Client{}
	if err := client.HealthCheck(context.Background()); !errors.Is(err, ErrNotConnected) {
		t.Errorf("HealthCheck() error = %v, want ErrNotConnected", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := client.HealthCheck(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("HealthCheck() error = %v, want context.Canceled", err)
	}
}

func TestPublish_Validation(t *testing.T) {
	client := &Client{}

	tests := []struct {
		name    string
		topic   string
		payload []byte
		qos     byte
		wantErr error
	}{
		{"empty topic", "", []byte("ON"), 1, ErrInvalidTopic},
		{"wildcard topic", "light/+/set", []byte("ON"), 1, ErrInvalidTopic},
		{"invalid qos", "light/set", []byte("ON"), 3, ErrInvalidQoS},
		{"oversize payload", "light/set", make([]byte, maxPayloadSize+1), 1, ErrPublishFailed},
		{"not connected", "light/set", []byte("ON"), 1, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Publish(tt.topic, tt.payload, tt.qos, false)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Publish() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSubscribe_Validation(t *testing.T) {
	client := &Client{}
	handler := func(string, []byte) error { return nil }

	tests := []struct {
		name    string
		topic   string
		qos     byte
		handler MessageHandler
		wantErr error
	}{
		{"empty topic", "", 1, handler, ErrInvalidTopic},
		{"misplaced hash", "light/#/state", 1, handler, ErrInvalidTopic},
		{"invalid qos", "light/state", 3, handler, ErrInvalidQoS},
		{"nil handler", "light/state", 1, nil, ErrSubscribeFailed},
		{"not connected", "light/state", 1, handler, ErrNotConnected},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := client.Subscribe(tt.topic, tt.qos, tt.handler)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Subscribe() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if client.SubscriptionCount() != 0 {
		t.Errorf("SubscriptionCount() = %d, want 0 after failed subscribes", client.SubscriptionCount())
	}
}

func TestWrapHandler_DeliversMessage(t *testing.T) {
	client := &Client{}

	var gotTopic, gotPayload string
	wrapped := client.wrapHandler(func(topic string, payload []byte) error {
		gotTopic, gotPayload = topic, string(payload)
		return nil
	})

	wrapped(nil, fakeMessage{topic: "light/state", payload: []byte("ON")})

	if gotTopic != "light/state" || gotPayload != "ON" {
		t.Errorf("handler got (%q, %q), want (%q, %q)", gotTopic, gotPayload, "light/state", "ON")
	}
}

func TestWrapHandler_LogsError(t *testing.T) {
	client := &Client{}
	logger := &mockLogger{}
	client.SetLogger(logger)

	wrapped := client.wrapHandler(func(string, []byte) error {
		return errors.New("boom")
	})
	wrapped(nil, fakeMessage{topic: "light/state"})

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.warns) != 1 {
		t.Errorf("warns = %d, want 1", len(logger.warns))
	}
}

func TestWrapHandler_RecoversPanic(t *testing.T) {
	client := &Client{}
	logger := &mockLogger{}
	client.SetLogger(logger)

	wrapped := client.wrapHandler(func(string, []byte) error {
		panic("handler exploded")
	})
	wrapped(nil, fakeMessage{topic: "light/state"})

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.errors) != 1 {
		t.Errorf("errors = %d, want 1", len(logger.errors))
	}
}

func TestWrapHandler_NoLogger(t *testing.T) {
	client := &Client{}

	wrapped := client.wrapHandler(func(string, []byte) error {
		panic("unlogged")
	})

	// Must not propagate the panic.
	wrapped(nil, fakeMessage{topic: "light/state"})
}

func TestSetLogger_Nil(t *testing.T) {
	client := &Client{}
	client.SetLogger(&mockLogger{})
	if client.getLogger() == nil {
		t.Fatal("getLogger() = nil after SetLogger()")
	}
	client.SetLogger(nil)
	if client.getLogger() != nil {
		t.Error("getLogger() should be nil after SetLogger(nil)")
	}
}

func TestBuildClientOptions(t *testing.T) {
	cfg := testConfig("opts-test")
	cfg.Broker.TLS = true
	cfg.Auth.Username = "user"
	cfg.Auth.Password = "pass"

	opts := buildClientOptions(cfg)
	configureLWT(opts, cfg.Broker.ClientID)

	if len(opts.Servers) != 1 || opts.Servers[0].String() != "ssl://127.0.0.1:1883" {
		t.Errorf("Servers = %v, want [ssl://127.0.0.1:1883]", opts.Servers)
	}
	if opts.ClientID != "opts-test" {
		t.Errorf("ClientID = %q, want %q", opts.ClientID, "opts-test")
	}
	if opts.Username != "user" {
		t.Errorf("Username = %q, want %q", opts.Username, "user")
	}
	if !opts.WillEnabled || opts.WillTopic != "opts-test/availability" || string(opts.WillPayload) != PayloadOffline || !opts.WillRetained {
		t.Errorf("LWT = (%v, %q, %q, %v), want retained offline on availability topic",
			opts.WillEnabled, opts.WillTopic, opts.WillPayload, opts.WillRetained)
	}
	if opts.TLSConfig == nil {
		t.Error("TLSConfig = nil, want configured for TLS broker")
	}
}

// =============================================================================
// Broker Tests
// =============================================================================

func TestConnectInvalidBroker(t *testing.T) {
	cfg := testConfig("mqttlight-test-refused")
	cfg.Broker.Port = 19999

	_, err := Connect(cfg)
	if err == nil {
		t.Fatal("Connect() expected error for invalid broker")
	}
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Connect() error = %v, want ErrConnectionFailed", err)
	}
}

func TestConnectAndClose(t *testing.T) {
	client := connectOrSkip(t, "mqttlight-test-connect")

	if !client.IsConnected() {
		t.Error("IsConnected() = false, want true")
	}
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}

	if err := client.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
	if client.IsConnected() {
		t.Error("IsConnected() = true after Close(), want false")
	}
	if err := client.Publish("mqttlight/test", []byte("x"), 1, false); !errors.Is(err, ErrNotConnected) {
		t.Errorf("Publish() after Close error = %v, want ErrNotConnected", err)
	}
}

func TestSubscribeTracking(t *testing.T) {
	client := connectOrSkip(t, "mqttlight-test-tracking")
	handler := func(string, []byte) error { return nil }

	topics := []string{
		"mqttlight/test/state",
		"mqttlight/test/brightness",
		"mqttlight/test/rgb",
	}
	for _, topic := range topics {
		if err := client.Subscribe(topic, 1, handler); err != nil {
			t.Fatalf("Subscribe(%s) error = %v", topic, err)
		}
	}

	if client.SubscriptionCount() != len(topics) {
		t.Errorf("SubscriptionCount() = %d, want %d", client.SubscriptionCount(), len(topics))
	}
	for _, topic := range topics {
		if !client.HasSubscription(topic) {
			t.Errorf("HasSubscription(%s) = false, want true", topic)
		}
	}
	if client.HasSubscription("mqttlight/test/other") {
		t.Error("HasSubscription() should be false for unsubscribed topic")
	}
}

func TestPublishSubscribeRoundtrip(t *testing.T) {
	client := connectOrSkip(t, "mqttlight-test-roundtrip")

	topic := fmt.Sprintf("mqttlight/test/roundtrip/%d", time.Now().UnixNano())
	received := make(chan string, 1)

	err := client.Subscribe(topic, 1, func(_ string, payload []byte) error {
		received <- string(payload)
		return nil
	})
	if err != nil {
		t.Fatalf("Subscribe() error = %v", err)
	}

	if err := client.Publish(topic, []byte("ON"), 1, false); err != nil {
		t.Fatalf("Publish() error = %v", err)
	}

	select {
	case got := <-received:
		if got != "ON" {
			t.Errorf("payload = %q, want %q", got, "ON")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timeout waiting for message")
	}
}
