package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/bassista/go_school/internal/logger"
)

// MemoryProvider is a Provider that keeps a collection in process memory.
// It backs the "memory" driver for development and demos.
type MemoryProvider[T Item] struct {
	mu           sync.RWMutex
	name         string
	items        []T
	less         func(a, b T) bool
	strictDelete bool
	bump         func(*T)
}

// NewMemoryProvider keeps items sorted with less; seed may be nil.
func NewMemoryProvider[T Item](name string, less func(a, b T) bool, strictDelete bool, seed ...T) *MemoryProvider[T] {
	m := &MemoryProvider[T]{name: name, less: less, strictDelete: strictDelete}
	m.items = append(m.items, seed...)
	m.sortUnlocked()
	return m
}

func (m *MemoryProvider[T]) Fetch(_ context.Context, limit int) ([]T, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := len(m.items)
	if limit > 0 && limit < n {
		n = limit
	}
	logger.WithCollection("memory-provider", m.name).Debugf("fetching %d of %d items", n, len(m.items))
	return slices.Clone(m.items[:n]), nil
}

func (m *MemoryProvider[T]) Insert(_ context.Context, item T) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := item.ItemID()
	if id == "" {
		return fmt.Errorf("insert %s: %w: empty id", m.name, ErrRemoteRejected)
	}
	for _, existing := range m.items {
		if existing.ItemID() == id {
			return fmt.Errorf("insert %s: %w: duplicate id %q", m.name, ErrRemoteRejected, id)
		}
	}
	m.items = append(m.items, item)
	m.sortUnlocked()
	return nil
}

func (m *MemoryProvider[T]) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	idx := slices.IndexFunc(m.items, func(it T) bool { return it.ItemID() == id })
	if idx < 0 {
		if m.strictDelete {
			return fmt.Errorf("delete %s %q: %w", m.name, id, ErrNotFound)
		}
		return nil
	}
	m.items = slices.Delete(m.items, idx, idx+1)
	return nil
}

// WithCounter sets how Increment updates an item.
func (m *MemoryProvider[T]) WithCounter(bump func(*T)) *MemoryProvider[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bump = bump
	return m
}

func (m *MemoryProvider[T]) Increment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bump == nil {
		return fmt.Errorf("increment %s: %w", m.name, ErrConfigurationMissing)
	}
	idx := slices.IndexFunc(m.items, func(it T) bool { return it.ItemID() == id })
	if idx < 0 {
		return fmt.Errorf("increment %s %q: %w", m.name, id, ErrNotFound)
	}
	m.bump(&m.items[idx])
	return nil
}

func (m *MemoryProvider[T]) Count(_ context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.items)), nil
}

func (m *MemoryProvider[T]) sortUnlocked() {
	if m.less == nil {
		return
	}
	slices.SortStableFunc(m.items, func(a, b T) int {
		switch {
		case m.less(a, b):
			return -1
		case m.less(b, a):
			return 1
		default:
			return 0
		}
	})
}

// Orderings matching the database providers.
func SubjectLess(a, b Subject) bool { return a.Order < b.Order }

func PublicationLess(a, b Publication) bool { return a.CreatedAt.After(b.CreatedAt) }

func ResourceLess(a, b Resource) bool { return a.CreatedAt.After(b.CreatedAt) }

// Counters matching the database providers.
func BumpLikes(p *Publication) { p.Likes++ }

func BumpDownloads(r *Resource) { r.Downloads++ }
