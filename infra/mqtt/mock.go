package mqtt

import (
	"fmt"
	"strings"
	"sync"
)

// MockClient is an in-memory Client for tests.
type MockClient struct {
	mu        sync.Mutex
	connected bool
	subs      map[string]func(topic string, payload []byte)
	Published []MockMessage

	ConnectErr   error
	SubscribeErr error
}

// MockMessage records a published message.
type MockMessage struct {
	Topic   string
	Payload []byte
}

// NewMockClient builds an empty mock.
func NewMockClient() *MockClient {
	return &MockClient{subs: make(map[string]func(string, []byte))}
}

func (m *MockClient) Connect() error {
	if m.ConnectErr != nil {
		return m.ConnectErr
	}
	m.mu.Lock()
	m.connected = true
	m.mu.Unlock()
	return nil
}

func (m *MockClient) Subscribe(topic string, _ byte, cb func(string, []byte)) error {
	if m.SubscribeErr != nil {
		return m.SubscribeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.connected {
		return fmt.Errorf("mock: subscribe before connect")
	}
	m.subs[topic] = cb
	return nil
}

func (m *MockClient) Publish(topic string, _ byte, payload []byte) error {
	m.mu.Lock()
	m.Published = append(m.Published, MockMessage{Topic: topic, Payload: payload})
	m.mu.Unlock()
	return nil
}

func (m *MockClient) Disconnect() {
	m.mu.Lock()
	m.connected = false
	m.mu.Unlock()
}

// Deliver simulates an inbound message on a concrete topic, matching the
// single-level wildcard the listeners subscribe with.
func (m *MockClient) Deliver(topic string, payload []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for pattern, cb := range m.subs {
		if topicMatches(pattern, topic) {
			cb(topic, payload)
		}
	}
}

func topicMatches(pattern, topic string) bool {
	if pattern == topic {
		return true
	}
	pp := strings.Split(pattern, "/")
	tp := strings.Split(topic, "/")
	if len(pp) != len(tp) {
		return false
	}
	for i := range pp {
		if pp[i] != "+" && pp[i] != tp[i] {
			return false
		}
	}
	return true
}
