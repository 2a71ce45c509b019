package credentials

import (
	"context"
	"crypto/subtle"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store for tests and single-node development.
// All mutation happens under one mutex, which stands in for the row-level
// atomic increment the Postgres store relies on.
type MemoryStore struct {
	mu    sync.Mutex
	creds map[uuid.UUID]*Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[uuid.UUID]*Credential)}
}

// Put inserts or replaces a credential.
func (s *MemoryStore) Put(cred *Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cred.ID == uuid.Nil {
		cred.ID = uuid.New()
	}
	s.creds[cred.ID] = cred
}

// Lookup scans for the token using constant-time comparison, so a miss
// costs the same whether the token is absent or merely wrong.
func (s *MemoryStore) Lookup(ctx context.Context, token string) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var found *Credential
	for _, cred := range s.creds {
		if subtle.ConstantTimeCompare([]byte(cred.Token), []byte(token)) == 1 {
			found = cred
		}
	}
	if found == nil {
		return nil, ErrNotFound
	}
	copy := *found
	return &copy, nil
}

// GetByID fetches a credential snapshot by id.
func (s *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[id]
	if !ok {
		return nil, ErrNotFound
	}
	copy := *cred
	return &copy, nil
}

func (s *MemoryStore) TouchLastUsed(ctx context.Context, id uuid.UUID, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[id]
	if !ok {
		return ErrNotFound
	}
	t := ts
	cred.LastUsedAt = &t
	return nil
}

func (s *MemoryStore) AddUsage(ctx context.Context, id uuid.UUID, tokens int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cred, ok := s.creds[id]
	if !ok {
		return ErrNotFound
	}
	cred.TotalRequests++
	cred.TotalTokens += tokens
	return nil
}
