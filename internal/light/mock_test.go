package light

import (
	"errors"
	"sync"

	"github.com/huangfengdan/hwlight-ha-component/internal/infrastructure/mqtt"
)

// MockTransport implements Transport for testing.
type MockTransport struct {
	mu            sync.Mutex
	published     []mockPublish
	subscriptions []mockSubscription
	handlers      map[string]mqtt.MessageHandler

	subscribeErr map[string]error
	publishErr   error
}

type mockPublish struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

type mockSubscription struct {
	Topic string
	QoS   byte
}

func NewMockTransport() *MockTransport {
	return &MockTransport{
		handlers:     make(map[string]mqtt.MessageHandler),
		subscribeErr: make(map[string]error),
	}
}

func (m *MockTransport) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, mockPublish{
		Topic:    topic,
		Payload:  payload,
		QoS:      qos,
		Retained: retained,
	})
	return m.publishErr
}

func (m *MockTransport) Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = append(m.subscriptions, mockSubscription{Topic: topic, QoS: qos})
	if err := m.subscribeErr[topic]; err != nil {
		return err
	}
	m.handlers[topic] = handler
	return nil
}

func (m *MockTransport) FailSubscribe(topic string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribeErr[topic] = errors.New("broker rejected subscription")
}

func (m *MockTransport) FailPublish(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.publishErr = err
}

// SimulateMessage delivers payload to the handler registered for topic.
// It reports false when nothing is subscribed.
func (m *MockTransport) SimulateMessage(topic string, payload string) (bool, error) {
	m.mu.Lock()
	handler, ok := m.handlers[topic]
	m.mu.Unlock()
	if !ok {
		return false, nil
	}
	return true, handler(topic, []byte(payload))
}

func (m *MockTransport) GetPublished() []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mockPublish, len(m.published))
	copy(out, m.published)
	return out
}

func (m *MockTransport) GetSubscriptions() []mockSubscription {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mockSubscription, len(m.subscriptions))
	copy(out, m.subscriptions)
	return out
}

// mockHost records state-change notifications.
type mockHost struct {
	mu      sync.Mutex
	sources []ChangeSource
	states  []State
}

func (h *mockHost) NotifyStateChanged(e Entity, source ChangeSource) {
	snap := e.Snapshot()
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sources = append(h.sources, source)
	h.states = append(h.states, snap)
}

func (h *mockHost) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sources)
}

func (h *mockHost) last() (State, ChangeSource) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.sources) == 0 {
		return State{}, ""
	}
	return h.states[len(h.states)-1], h.sources[len(h.sources)-1]
}
