package storage

import (
	"context"
	"sync"
)

// Memory is an in-process [Storage]. It does not survive restarts; its
// main use is tests and callers that opt out of persistence.
type Memory struct {
	mu   sync.Mutex
	data []byte
	set  bool
}

// NewMemory returns an empty in-memory slot.
func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Load(context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.set {
		return nil, ErrNotFound
	}
	out := make([]byte, len(m.data))
	copy(out, m.data)
	return out, nil
}

func (m *Memory) Save(_ context.Context, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = make([]byte, len(data))
	copy(m.data, data)
	m.set = true
	return nil
}

func (m *Memory) Delete(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = nil
	m.set = false
	return nil
}
