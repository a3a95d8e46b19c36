package cache

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"time"
)

type memoryItem struct {
	data       []byte
	expiration int64
}

// Memory is an in-process TTL map. Values are stored JSON-encoded so that a
// cached page can never alias a slice the caller later mutates.
type Memory struct {
	mu    sync.RWMutex
	items map[string]memoryItem
	ttl   time.Duration
	now   func() time.Time
	stop  chan struct{}
	once  sync.Once
}

func NewMemory(defaultTTL time.Duration) *Memory {
	m := &Memory{
		items: make(map[string]memoryItem),
		ttl:   defaultTTL,
		now:   time.Now,
		stop:  make(chan struct{}),
	}
	go m.cleanupExpired(time.Minute)
	return m
}

func (m *Memory) Driver() string { return "memory" }

func (m *Memory) Get(_ context.Context, key string, dest interface{}) (bool, error) {
	m.mu.RLock()
	item, found := m.items[key]
	m.mu.RUnlock()

	if !found || m.expired(item) {
		return false, nil
	}
	if err := json.Unmarshal(item.data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (m *Memory) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = m.ttl
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = memoryItem{data: data, expiration: m.now().Add(ttl).UnixNano()}
	return nil
}

func (m *Memory) Forget(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

func (m *Memory) ForgetPrefix(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var dropped []string
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
			dropped = append(dropped, key)
		}
	}
	return dropped, nil
}

// Size returns the number of live and expired-but-not-swept entries.
func (m *Memory) Size() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

func (m *Memory) Close() error {
	m.once.Do(func() { close(m.stop) })
	return nil
}

func (m *Memory) expired(item memoryItem) bool {
	return m.now().UnixNano() > item.expiration
}

func (m *Memory) cleanupExpired(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.mu.Lock()
			for key, item := range m.items {
				if m.expired(item) {
					delete(m.items, key)
				}
			}
			m.mu.Unlock()
		}
	}
}
