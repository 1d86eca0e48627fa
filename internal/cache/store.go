package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bassista/go_school/internal/logger"
	"github.com/bassista/go_school/internal/repository"
)

// ErrUnknownCollection is returned for names that were never registered.
var ErrUnknownCollection = errors.New("unknown collection")

// Named is the type-independent view of a Collection used by the registry.
type Named interface {
	Name() string
	Invalidate()
	Count(ctx context.Context) (int, error)
	Warm(ctx context.Context) error
	Info() EntryInfo
}

// Store is the registry of cached collections by name.
type Store struct {
	mu          sync.RWMutex
	collections map[string]Named
	order       []string
}

// NewStore creates an empty registry.
func NewStore() *Store {
	return &Store{collections: map[string]Named{}}
}

// Register creates a collection for provider and adds it to s under name.
func Register[T repository.Item](s *Store, name string, provider repository.Provider[T], opts ...Option) (*Collection[T], error) {
	c := NewCollection(name, provider, opts...)
	if err := s.Add(c); err != nil {
		return nil, err
	}
	return c, nil
}

// Add registers an existing collection.
func (s *Store) Add(c Named) error {
	if c == nil {
		return errors.New("collection is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	name := c.Name()
	if name == "" {
		return errors.New("collection name is required")
	}
	if _, exists := s.collections[name]; exists {
		return fmt.Errorf("collection %q already registered", name)
	}
	s.collections[name] = c
	s.order = append(s.order, name)
	return nil
}

// Lookup returns the collection registered under name.
func (s *Store) Lookup(name string) (Named, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.collections[name]
	return c, ok
}

// Names lists the registered collections in registration order.
func (s *Store) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Invalidate drops the snapshot of the named collection.
func (s *Store) Invalidate(name string) error {
	c, ok := s.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCollection, name)
	}
	c.Invalidate()
	return nil
}

// Stats counts every collection. A collection whose count fails reports 0;
// the call itself never fails.
func (s *Store) Stats(ctx context.Context) map[string]int {
	all := s.all()
	counts := make(map[string]int, len(all))
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, c := range all {
		wg.Go(func() {
			n, err := c.Count(ctx)
			if err != nil {
				logger.WithCollection("stats", c.Name()).Warnf("count failed, reporting 0: %v", err)
				n = 0
			}
			mu.Lock()
			counts[c.Name()] = n
			mu.Unlock()
		})
	}
	wg.Wait()
	return counts
}

// Infos describes every cache entry in registration order.
func (s *Store) Infos() []EntryInfo {
	all := s.all()
	infos := make([]EntryInfo, 0, len(all))
	for _, c := range all {
		infos = append(infos, c.Info())
	}
	return infos
}

// Warm refreshes every expired or missing entry. Failures are logged and keep the old snapshot.
func (s *Store) Warm(ctx context.Context) {
	for _, c := range s.all() {
		if err := ctx.Err(); err != nil {
			return
		}
		if err := c.Warm(ctx); err != nil {
			logger.WithCollection("warm", c.Name()).Warnf("background refresh failed: %v", err)
		}
	}
}

func (s *Store) all() []Named {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Named, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.collections[name])
	}
	return out
}
