package cache

import (
	"context"

	"github.com/bassista/go_school/internal/repository"
)

// Reader is the cache API for list endpoints.
type Reader[T repository.Item] interface {
	Get(ctx context.Context, limit int, forceRefresh bool) []T
}

// Writer is the cache API for create/delete endpoints.
type Writer[T repository.Item] interface {
	Add(ctx context.Context, item T) Result
	Delete(ctx context.Context, id string) Result
}

// CollectionStore is everything a collection controller needs.
type CollectionStore[T repository.Item] interface {
	Reader[T]
	Writer[T]
}

// Counter is the cache API for the like and download endpoints.
type Counter interface {
	Increment(ctx context.Context, id string) Result
}

// CountedCollectionStore is a CollectionStore whose items carry a counter.
type CountedCollectionStore[T repository.Item] interface {
	CollectionStore[T]
	Counter
}

// StatsSource provides per-collection counts.
type StatsSource interface {
	Stats(ctx context.Context) map[string]int
}

// Registry is the cache API needed by the cache admin endpoints.
type Registry interface {
	StatsSource
	Invalidate(name string) error
	Infos() []EntryInfo
}

// Warmer is the cache API needed by the refresh scheduler.
type Warmer interface {
	Warm(ctx context.Context)
}

var (
	_ CollectionStore[repository.Subject]         = (*Collection[repository.Subject])(nil)
	_ Named                                       = (*Collection[repository.Publication])(nil)
	_ CountedCollectionStore[repository.Resource] = (*Collection[repository.Resource])(nil)
	_ Registry                                    = (*Store)(nil)
	_ Warmer                                      = (*Store)(nil)
	_ repository.InfoStore                        = (*InfoStore)(nil)
)
