package store

import "sync"

// Storage is the session-scoped persistence capability the store mirrors
// into. One key, one JSON blob; the store never partially updates it.
type Storage interface {
	// Get returns the blob under key, with ok=false when absent.
	Get(key string) (data []byte, ok bool, err error)
	// Put replaces the blob under key.
	Put(key string, data []byte) error
	// Delete removes the blob under key. Deleting a missing key is not
	// an error.
	Delete(key string) error
}

// Memory is an in-process Storage. The default when the embedder does
// not wire a database; state then lives exactly as long as the process.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemory creates an empty in-memory Storage.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

func (m *Memory) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(d))
	copy(out, d)
	return out, true, nil
}

func (m *Memory) Put(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	d := make([]byte, len(data))
	copy(d, data)
	m.data[key] = d
	return nil
}

func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}
