package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"casino-engine/internal/models"
)

var errUndeclaredKey = errors.New("key not declared in transaction")

// Tx is the view of the store inside Update. Get returns models.ErrNotFound
// for a missing record. Writes are staged and become visible to other
// operations only when the update commits.
type Tx interface {
	Get(key string, v any) error
	Put(key string, v any) error
}

// Store is a keyed record store. Update runs fn against the declared keys as
// one atomic unit: nothing is written unless fn returns nil. Updates on
// disjoint keys proceed independently.
type Store interface {
	Update(ctx context.Context, keys []string, fn func(tx Tx) error) error
	View(ctx context.Context, key string, v any) error
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// MemoryStore holds JSON encoded records in process. Each key has its own
// lock; Update takes its locks in sorted order so overlapping updates cannot
// deadlock.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data:  make(map[string][]byte),
		locks: make(map[string]*sync.Mutex),
	}
}

func (s *MemoryStore) lockFor(key string) *sync.Mutex {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()
	l, ok := s.locks[key]
	if !ok {
		l = &sync.Mutex{}
		s.locks[key] = l
	}
	return l
}

func (s *MemoryStore) Update(ctx context.Context, keys []string, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)

	for _, key := range sorted {
		l := s.lockFor(key)
		l.Lock()
		defer l.Unlock()
	}

	tx := &memoryTx{
		store:    s,
		declared: sorted,
		staged:   make(map[string][]byte),
	}
	if err := fn(tx); err != nil {
		return err
	}

	s.mu.Lock()
	for key, data := range tx.staged {
		s.data[key] = data
	}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) View(ctx context.Context, key string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	data, ok := s.data[key]
	s.mu.RUnlock()
	if !ok {
		return models.ErrNotFound
	}
	return json.Unmarshal(data, v)
}

func (s *MemoryStore) Keys(ctx context.Context, prefix string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for key := range s.data {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	slices.Sort(keys)
	return keys, nil
}

type memoryTx struct {
	store    *MemoryStore
	declared []string
	staged   map[string][]byte
}

func (tx *memoryTx) check(key string) error {
	if _, ok := slices.BinarySearch(tx.declared, key); !ok {
		return fmt.Errorf("%w: %s", errUndeclaredKey, key)
	}
	return nil
}

func (tx *memoryTx) Get(key string, v any) error {
	if err := tx.check(key); err != nil {
		return err
	}
	data, ok := tx.staged[key]
	if !ok {
		tx.store.mu.RLock()
		data, ok = tx.store.data[key]
		tx.store.mu.RUnlock()
	}
	if !ok {
		return models.ErrNotFound
	}
	return json.Unmarshal(data, v)
}

func (tx *memoryTx) Put(key string, v any) error {
	if err := tx.check(key); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %v", key, err)
	}
	tx.staged[key] = data
	return nil
}
