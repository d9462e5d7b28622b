package mocks

import "sync"

// QueueMessage is one payload handed to MockMessageQueue.Publish.
type QueueMessage struct {
	Subject string
	Data    []byte
}

// MockMessageQueue records published messages in order. Unset func fields
// fall back to in-memory behavior.
type MockMessageQueue struct {
	mu       sync.Mutex
	Messages []QueueMessage
	Handlers map[string][]func([]byte) error

	PublishFunc   func(subject string, data []byte) error
	SubscribeFunc func(subject string, handler func([]byte) error) error
	PingFunc      func() error
	CloseFunc     func() error
	Closed        bool
}

func NewMockMessageQueue() *MockMessageQueue {
	return &MockMessageQueue{Handlers: map[string][]func([]byte) error{}}
}

func (m *MockMessageQueue) Publish(subject string, data []byte) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(subject, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, QueueMessage{Subject: subject, Data: append([]byte(nil), data...)})
	return nil
}

func (m *MockMessageQueue) Subscribe(subject string, handler func([]byte) error) error {
	if m.SubscribeFunc != nil {
		return m.SubscribeFunc(subject, handler)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Handlers[subject] = append(m.Handlers[subject], handler)
	return nil
}

func (m *MockMessageQueue) Ping() error {
	if m.PingFunc != nil {
		return m.PingFunc()
	}
	return nil
}

func (m *MockMessageQueue) Close() error {
	m.mu.Lock()
	m.Closed = true
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Published returns the payloads sent to subject, oldest first.
func (m *MockMessageQueue) Published(subject string) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out [][]byte
	for _, msg := range m.Messages {
		if msg.Subject == subject {
			out = append(out, msg.Data)
		}
	}
	return out
}
