package kvstore

import (
	"fmt"
	"sync"
)

// Memory is an in-process Store. A positive MaxBytes caps the summed size of
// all keys and values, the way a browser's local storage quota does.
type Memory struct {
	mu       sync.Mutex
	data     map[string]string
	maxBytes int64
	closed   bool
}

// NewMemory returns an empty in-memory store. maxBytes <= 0 means unbounded.
func NewMemory(maxBytes int64) *Memory {
	return &Memory{data: make(map[string]string), maxBytes: maxBytes}
}

func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", false, ErrClosed
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *Memory) Keys(prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	return sortedWithPrefix(keys, prefix), nil
}

// Apply stages ops on a copy so a quota failure leaves the store unchanged.
func (m *Memory) Apply(ops []Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	next := make(map[string]string, len(m.data)+len(ops))
	for k, v := range m.data {
		next[k] = v
	}
	for _, op := range ops {
		switch op.Kind {
		case OpSet:
			next[op.Key] = op.Value
		case OpDelete:
			delete(next, op.Key)
		default:
			return fmt.Errorf("kvstore: unknown op kind %d", op.Kind)
		}
	}
	if m.maxBytes > 0 {
		var total int64
		for k, v := range next {
			total += int64(len(k) + len(v))
		}
		if total > m.maxBytes {
			return fmt.Errorf("%w: %d bytes > %d", ErrQuotaExceeded, total, m.maxBytes)
		}
	}
	m.data = next
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	return nil
}
