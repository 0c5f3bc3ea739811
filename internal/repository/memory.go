package repository

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"mithai/internal/domain"
)

// MemoryStore in-memory хранилище сессий
type MemoryStore struct {
	mu           sync.RWMutex
	sessionsByID map[string]domain.Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessionsByID: make(map[string]domain.Session),
	}
}

// Ensure interfaces
var _ SessionRepository = (*MemoryStore)(nil)

func (m *MemoryStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessionsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	// return deep copy so callers cannot mutate stored state
	cp, err := copySession(&s)
	if err != nil {
		return nil, err
	}
	return cp, nil
}

func (m *MemoryStore) Put(ctx context.Context, s *domain.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp, err := copySession(s)
	if err != nil {
		return err
	}
	cp.UpdatedAt = time.Now().UTC()
	m.sessionsByID[s.ID] = *cp
	return nil
}

// Update держит блокировку записи на время fn, эмулируя транзакцию
func (m *MemoryStore) Update(ctx context.Context, id string, fn func(s *domain.Session) error) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessionsByID[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp, err := copySession(&s)
	if err != nil {
		return nil, err
	}
	if err := fn(cp); err != nil {
		return nil, err
	}
	cp.UpdatedAt = time.Now().UTC()
	m.sessionsByID[id] = *cp
	out, err := copySession(cp)
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessionsByID[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessionsByID, id)
	return nil
}

// copySession round-trips through JSON: сессия содержит слайсы и указатели,
// поверхностной копии недостаточно
func copySession(s *domain.Session) (*domain.Session, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	var cp domain.Session
	if err := json.Unmarshal(raw, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}
