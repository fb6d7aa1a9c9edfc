// Package session хранит слоты сессий покупателей и администраторов.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/Dasieloski/dasieloski-store/internal/domain"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore — in-memory реализация SessionStore для одного процесса.
// Истёкшие слоты удаляются лениво при чтении.
type MemoryStore struct {
	mu    sync.Mutex
	slots map[string]memoryEntry
	now   func() time.Time
}

// NewMemoryStore создаёт пустое in-memory хранилище сессий.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		slots: make(map[string]memoryEntry),
		now:   time.Now,
	}
}

func (s *MemoryStore) Load(_ context.Context, sessionID, slot string) ([]byte, error) {
	key := slotKey(sessionID, slot)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.slots[key]
	if !ok {
		return nil, domain.ErrSlotEmpty
	}
	if !entry.expiresAt.IsZero() && !s.now().Before(entry.expiresAt) {
		delete(s.slots, key)
		return nil, domain.ErrSlotEmpty
	}
	return append([]byte(nil), entry.data...), nil
}

func (s *MemoryStore) Save(_ context.Context, sessionID, slot string, data []byte, ttl time.Duration) error {
	entry := memoryEntry{data: append([]byte(nil), data...)}
	if ttl > 0 {
		entry.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.slots[slotKey(sessionID, slot)] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, sessionID, slot string) error {
	s.mu.Lock()
	delete(s.slots, slotKey(sessionID, slot))
	s.mu.Unlock()
	return nil
}

// Ping всегда успешен.
func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

var _ domain.SessionStore = (*MemoryStore)(nil)
