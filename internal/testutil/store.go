package testutil

import (
	"context"
	"errors"
	"sync"

	"github.com/codr1/themestudio/internal/store"
)

// ErrInjected is returned by FlakyStore when a failure is switched on.
var ErrInjected = errors.New("injected store failure")

// FlakyStore wraps a Store and fails reads or writes on demand. Removes count as writes.
type FlakyStore struct {
	store.Store

	mu       sync.Mutex
	failGet  bool
	failSet  bool
	setCalls int
}

func NewFlakyStore() *FlakyStore {
	return &FlakyStore{Store: store.NewMemory()}
}

func (s *FlakyStore) FailGets(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failGet = fail
}

func (s *FlakyStore) FailSets(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSet = fail
}

func (s *FlakyStore) SetCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setCalls
}

func (s *FlakyStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	fail := s.failGet
	s.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return s.Store.Get(ctx, key)
}

func (s *FlakyStore) Set(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	s.setCalls++
	fail := s.failSet
	s.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return s.Store.Set(ctx, key, value)
}

func (s *FlakyStore) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	fail := s.failSet
	s.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return s.Store.Remove(ctx, key)
}
