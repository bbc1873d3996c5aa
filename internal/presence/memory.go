package presence

import (
	"context"
	"sort"
	"sync"
)

// Memory is the single-process Registry. All state is process-lifetime and
// rebuilt from zero on restart.
type Memory struct {
	mu       sync.RWMutex
	conns    map[string]Conn
	watchers []func()
}

func NewMemory() *Memory {
	return &Memory{conns: make(map[string]Conn)}
}

func (m *Memory) Register(_ context.Context, userID string, c Conn) error {
	m.mu.Lock()
	m.conns[userID] = c
	m.mu.Unlock()

	m.notify()
	return nil
}

func (m *Memory) Unregister(_ context.Context, userID string, c Conn) error {
	m.mu.Lock()
	current, ok := m.conns[userID]
	if !ok || (c != nil && current != c) {
		m.mu.Unlock()
		return nil
	}
	delete(m.conns, userID)
	m.mu.Unlock()

	m.notify()
	return nil
}

func (m *Memory) Lookup(_ context.Context, userID string) (Conn, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.conns[userID]
	return c, ok
}

func (m *Memory) Online(_ context.Context) ([]string, error) {
	m.mu.RLock()
	ids := make([]string, 0, len(m.conns))
	for id := range m.conns {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	sort.Strings(ids)
	return ids, nil
}

func (m *Memory) Watch(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers = append(m.watchers, fn)
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conns = make(map[string]Conn)
	return nil
}

// notify runs outside the lock so watchers may call Lookup/Online.
func (m *Memory) notify() {
	m.mu.RLock()
	watchers := make([]func(), len(m.watchers))
	copy(watchers, m.watchers)
	m.mu.RUnlock()

	for _, fn := range watchers {
		fn()
	}
}
