package mocks

import (
	"sync"

	"github.com/kevin07696/authorizenet-gateway/internal/domain/ports"
)

// MockLogger records every log call for assertions
type MockLogger struct {
	mu         sync.Mutex
	InfoCalls  []LogCall
	ErrorCalls []LogCall
	WarnCalls  []LogCall
	DebugCalls []LogCall
}

// LogCall represents a captured log call
type LogCall struct {
	Message string
	Fields  []ports.Field
}

// NewMockLogger creates a new mock logger
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (m *MockLogger) Info(msg string, fields ...ports.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InfoCalls = append(m.InfoCalls, LogCall{Message: msg, Fields: fields})
}

func (m *MockLogger) Error(msg string, fields ...ports.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ErrorCalls = append(m.ErrorCalls, LogCall{Message: msg, Fields: fields})
}

func (m *MockLogger) Warn(msg string, fields ...ports.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.WarnCalls = append(m.WarnCalls, LogCall{Message: msg, Fields: fields})
}

func (m *MockLogger) Debug(msg string, fields ...ports.Field) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DebugCalls = append(m.DebugCalls, LogCall{Message: msg, Fields: fields})
}

// ErrorMessages returns the messages of all captured error calls
func (m *MockLogger) ErrorMessages() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := make([]string, 0, len(m.ErrorCalls))
	for _, c := range m.ErrorCalls {
		msgs = append(msgs, c.Message)
	}
	return msgs
}

// Reset clears all captured calls
func (m *MockLogger) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InfoCalls = nil
	m.ErrorCalls = nil
	m.WarnCalls = nil
	m.DebugCalls = nil
}
