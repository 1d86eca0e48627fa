package repository

import "context"

// Provider is the remote side of one collection.
// Fetch returns the collection in its natural order; limit <= 0 means no limit.
type Provider[T Item] interface {
	Fetch(ctx context.Context, limit int) ([]T, error)
	Insert(ctx context.Context, item T) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}

// Incrementer is implemented by providers whose items carry a counter
// (publication likes, resource downloads).
type Incrementer interface {
	Increment(ctx context.Context, id string) error
}

// Providers groups the providers of every collection the site serves.
type Providers struct {
	Subjects     Provider[Subject]
	Publications Provider[Publication]
	Resources    Provider[Resource]
}

// SchoolInfoRepository persists and watches the school information document.
type SchoolInfoRepository interface {
	Load(ctx context.Context) (*SchoolInfo, error)
	Save(ctx context.Context, info *SchoolInfo) error
	StartWatcher(ctx context.Context, store InfoStore) error
}
