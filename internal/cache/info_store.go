package cache

import (
	"sync"

	"github.com/bassista/go_school/internal/repository"
)

// InfoStore keeps an in-memory copy of the school information document.
type InfoStore struct {
	mu   sync.RWMutex
	info repository.SchoolInfo
}

// NewInfoStore creates a store holding info.
func NewInfoStore(info repository.SchoolInfo) *InfoStore {
	return &InfoStore{info: info}
}

// GetLastUpdate returns the document's last update timestamp.
func (s *InfoStore) GetLastUpdate() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info.LastUpdate
}

// Snapshot returns a copy of the document. SchoolInfo has no reference fields.
func (s *InfoStore) Snapshot() repository.SchoolInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.info
}

// Replace swaps the cached document.
func (s *InfoStore) Replace(info repository.SchoolInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.info = info
}
