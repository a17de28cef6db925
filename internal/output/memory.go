package output

import (
	"maps"
	"sync"

	"github.com/mesh-intelligence/memonest/pkg/types"
)

// Memory keeps the most recent payload so a request/response front-end can
// read it back after the service call returns. Errors are stored as data
// under types.KeyError together with their numeric code.
type Memory struct {
	mu      sync.Mutex
	data    map[string]any
	code    int
	written bool
}

// NewMemory returns an empty memory sink.
func NewMemory() *Memory {
	return &Memory{}
}

// Output stores a copy of data and clears any previous error code.
func (m *Memory) Output(data map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = maps.Clone(data)
	if m.data == nil {
		m.data = map[string]any{}
	}
	m.code = 0
	m.written = true
}

// ErrorOutput stores {"error": "Error code N: message"} and the code.
func (m *Memory) ErrorOutput(code int, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = map[string]any{types.KeyError: FormatError(code, message)}
	m.code = code
	m.written = true
}

// Data returns a copy of the last payload, or nil when nothing was written
// since the last Reset.
func (m *Memory) Data() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.data)
}

// Code returns the code of the last emitted error, or 0 when the last
// payload was a success.
func (m *Memory) Code() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.code
}

// Written reports whether anything was emitted since the last Reset.
func (m *Memory) Written() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.written
}

// Reset discards the stored payload.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	m.code = 0
	m.written = false
}
