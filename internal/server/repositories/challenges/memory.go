package challenges

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/authkeeper/internal/common"
	"github.com/dmitrijs2005/authkeeper/internal/server/models"
)

type memoryEntry struct {
	mu sync.Mutex
	c  *models.Challenge
}

// MemoryStore keeps challenges in process memory. The map lock is only
// held to find a user's entry; mutators run under that entry's own lock,
// so users do not contend with each other.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]*memoryEntry)}
}

func (s *MemoryStore) entry(userID string, create bool) *memoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[userID]
	if !ok && create {
		e = &memoryEntry{}
		s.entries[userID] = e
	}
	return e
}

func (s *MemoryStore) Replace(ctx context.Context, c *models.Challenge) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := s.entry(c.UserID, true)
	e.mu.Lock()
	e.c = c.Clone()
	e.mu.Unlock()

	return nil
}

func (s *MemoryStore) Update(ctx context.Context, userID string, fn Mutator) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := s.entry(userID, false)
	if e == nil {
		return common.ErrorNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.c == nil {
		return common.ErrorNotFound
	}

	cp := e.c.Clone()
	if fn(cp) {
		e.c = cp
	}

	return nil
}

func (s *MemoryStore) Get(ctx context.Context, userID string) (*models.Challenge, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e := s.entry(userID, false)
	if e == nil {
		return nil, common.ErrorNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.c == nil {
		return nil, common.ErrorNotFound
	}
	return e.c.Clone(), nil
}
