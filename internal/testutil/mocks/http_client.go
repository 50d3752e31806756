package mocks

import (
	"bytes"
	"io"
	"net/http"
)

// MockHTTPClient is a mock implementation of ports.HTTPClient
type MockHTTPClient struct {
	DoFunc func(req *http.Request) (*http.Response, error)
	Calls  []*http.Request
}

// NewMockHTTPClient creates a new mock HTTP client
func NewMockHTTPClient(doFunc func(req *http.Request) (*http.Response, error)) *MockHTTPClient {
	return &MockHTTPClient{DoFunc: doFunc}
}

// Do executes the mock function and captures the call
func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	m.Calls = append(m.Calls, req)
	if m.DoFunc != nil {
		return m.DoFunc(req)
	}
	// Authorize.net answers Ok with no messages
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(`{"messages":{"resultCode":"Ok","message":[]}}`)),
		Header:     make(http.Header),
	}, nil
}
