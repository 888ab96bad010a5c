package cache

import (
	"sync"
	"time"

	"github.com/quilldesk/quilldesk/services/logging"
	"go.uber.org/zap"
)

// Store is a shared expiring key-value store. Implementations must make
// Set atomic: the value and its expiry become visible together, so a
// revocation marker can never race with a stale TTL.
type Store interface {
	Set(key, value string, ttl time.Duration) error
	Get(key string) (string, bool, error)
	Delete(key string) error
}

type entry struct {
	value     string
	expiresAt time.Time
}

type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]entry
	logger  *logging.Service
}

func NewMemoryStore(logger *logging.Service) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]entry),
		logger:  logger,
	}
}

func (m *MemoryStore) Set(key, value string, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[key] = entry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Debug("cache entry set",
			zap.String("key", key),
			zap.Duration("ttl", ttl))
	}

	return nil
}

func (m *MemoryStore) Get(key string) (string, bool, error) {
	m.mu.RLock()
	e, exists := m.entries[key]
	m.mu.RUnlock()

	if !exists {
		return "", false, nil
	}

	if time.Now().After(e.expiresAt) {
		m.mu.Lock()
		// re-check under the write lock; a concurrent Set may have
		// replaced the entry since the read
		if cur, ok := m.entries[key]; ok && time.Now().After(cur.expiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()

		if m.logger != nil {
			m.logger.Debug("expired cache entry removed during lookup",
				zap.String("key", key),
				zap.Time("expired_at", e.expiresAt))
		}
		return "", false, nil
	}

	return e.value, true, nil
}

func (m *MemoryStore) Delete(key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Debug("cache entry deleted", zap.String("key", key))
	}

	return nil
}

func (m *MemoryStore) CleanupExpired() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	removed := 0
	for key, e := range m.entries {
		if now.After(e.expiresAt) {
			delete(m.entries, key)
			removed++
		}
	}

	if m.logger != nil && removed > 0 {
		m.logger.Info("cleaned up expired cache entries",
			zap.Int("removed", removed),
			zap.Int("remaining", len(m.entries)))
	}

	return removed
}

func (m *MemoryStore) StartCleanupWorker(interval time.Duration, stop <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.CleanupExpired()
			case <-stop:
				return
			}
		}
	}()

	if m.logger != nil {
		m.logger.Info("started cache cleanup worker",
			zap.Duration("interval", interval))
	}
}
