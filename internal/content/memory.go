package content

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
)

// Memory is an in-process content store used in tests.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory returns an empty in-memory content store.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Driver reports the memory driver identifier.
func (m *Memory) Driver() Driver { return DriverMemory }

// Put writes the document under key, failing if the key already exists.
func (m *Memory) Put(ctx context.Context, key string, r io.Reader) (Info, error) {
	if _, err := sanitizeKey(key); err != nil {
		return Info{}, err
	}
	buf, err := io.ReadAll(r)
	if err != nil {
		return Info{}, fmt.Errorf("failed to read content: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return Info{}, fmt.Errorf("content %s already exists", key)
	}
	m.data[key] = buf
	return Info{Key: key, SizeBytes: int64(len(buf))}, nil
}

// Open returns the stored document for streaming.
func (m *Memory) Open(ctx context.Context, key string) (Info, io.ReadCloser, error) {
	m.mu.RLock()
	buf, ok := m.data[key]
	m.mu.RUnlock()
	if !ok {
		return Info{}, nil, ErrNotFound
	}
	return Info{Key: key, SizeBytes: int64(len(buf))}, io.NopCloser(bytes.NewReader(buf)), nil
}

// Delete removes the stored document.
func (m *Memory) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return ErrNotFound
	}
	delete(m.data, key)
	return nil
}
