// Package session keeps combined tables in memory between the upload request
// and the download, chart and ask requests that follow it.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ginjaninja78/sku-mapper/internal/converter"
)

// ErrNotFound is returned for a token that was never issued or has expired.
var ErrNotFound = errors.New("session not found or expired")

type entry struct {
	result    *converter.Result
	expiresAt time.Time
}

// Store is a TTL-bounded map from token to run result. It is safe for
// concurrent use. Expired entries are purged on every access.
type Store struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]entry
}

// NewStore returns an empty store whose entries live for ttl.
func NewStore(ttl time.Duration) *Store {
	return &Store{
		ttl:   ttl,
		now:   time.Now,
		items: make(map[string]entry),
	}
}

// Put stores a result and returns its token.
func (s *Store) Put(res *converter.Result) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.purgeExpiredLocked(now)

	token := uuid.NewString()
	s.items[token] = entry{result: res, expiresAt: now.Add(s.ttl)}
	return token
}

// Get returns the result stored under token.
func (s *Store) Get(token string) (*converter.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(s.now())

	e, ok := s.items[token]
	if !ok {
		return nil, ErrNotFound
	}
	return e.result, nil
}

// Delete drops a token. Unknown tokens are ignored.
func (s *Store) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.items, token)
}

// Len reports the number of live entries.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.purgeExpiredLocked(s.now())
	return len(s.items)
}

func (s *Store) purgeExpiredLocked(now time.Time) {
	for k, v := range s.items {
		if !now.Before(v.expiresAt) {
			delete(s.items, k)
		}
	}
}
