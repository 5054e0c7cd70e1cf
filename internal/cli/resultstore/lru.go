package resultstore

import (
	"container/list"
	"context"
	"sync"
	"time"

	"ocontest/internal/submission"
)

const defaultLRUSize = 256

type lruEntry struct {
	key       string
	value     submission.Result
	expiresAt time.Time
}

// LRUStore is an in-process Store bounded by size with an optional TTL.
type LRUStore struct {
	mu      sync.Mutex
	items   map[string]*list.Element
	order   *list.List
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

func NewLRUStore(maxSize int, ttl time.Duration) *LRUStore {
	if maxSize <= 0 {
		maxSize = defaultLRUSize
	}
	return &LRUStore{
		items:   make(map[string]*list.Element, maxSize),
		order:   list.New(),
		maxSize: maxSize,
		ttl:     ttl,
		now:     time.Now,
	}
}

func (s *LRUStore) Get(_ context.Context, submissionID string) (submission.Result, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.lookup(submissionID)
	if !ok {
		return submission.Result{}, false, nil
	}
	s.order.MoveToFront(elem)
	return elem.Value.(*lruEntry).value, true, nil
}

func (s *LRUStore) Put(_ context.Context, submissionID string, result submission.Result) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	exp := time.Time{}
	if s.ttl > 0 {
		exp = s.now().Add(s.ttl)
	}

	if elem, ok := s.lookup(submissionID); ok {
		entry := elem.Value.(*lruEntry)
		changed := !entry.value.Equal(result)
		entry.value = result
		entry.expiresAt = exp
		s.order.MoveToFront(elem)
		return changed, nil
	}

	entry := &lruEntry{key: submissionID, value: result, expiresAt: exp}
	s.items[submissionID] = s.order.PushFront(entry)
	if len(s.items) > s.maxSize {
		s.removeElement(s.order.Back())
	}
	return true, nil
}

func (s *LRUStore) Delete(_ context.Context, submissionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[submissionID]; ok {
		s.removeElement(elem)
	}
	return nil
}

// Len counts entries, expired ones included until they are touched.
func (s *LRUStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

func (s *LRUStore) Close() error {
	return nil
}

// lookup drops the entry when it has expired. Callers hold mu.
func (s *LRUStore) lookup(key string) (*list.Element, bool) {
	elem, ok := s.items[key]
	if !ok {
		return nil, false
	}
	entry := elem.Value.(*lruEntry)
	if !entry.expiresAt.IsZero() && s.now().After(entry.expiresAt) {
		s.removeElement(elem)
		return nil, false
	}
	return elem, true
}

func (s *LRUStore) removeElement(elem *list.Element) {
	if elem == nil {
		return
	}
	entry := elem.Value.(*lruEntry)
	delete(s.items, entry.key)
	s.order.Remove(elem)
}
