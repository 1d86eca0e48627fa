package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/bassista/go_school/internal/cache"
	"github.com/bassista/go_school/internal/config"
	"github.com/bassista/go_school/internal/logger"
	"github.com/bassista/go_school/internal/repository"
	"github.com/bassista/go_school/internal/upload"
)

// Collections are the cached collections the site serves.
type Collections struct {
	Subjects     *cache.Collection[repository.Subject]
	Publications *cache.Collection[repository.Publication]
	Resources    *cache.Collection[repository.Resource]
}

// App is the application container (immutable dependencies + lifecycle context).
// It is not a request context; handlers should still use gin's request context.
type App struct {
	Config      *config.Config
	Store       *cache.Store
	Collections Collections
	InfoRepo    repository.SchoolInfoRepository
	Info        *cache.InfoStore
	Uploader    upload.Uploader

	BaseCtx context.Context
	Cancel  context.CancelFunc

	refreshDone <-chan struct{}
}

// New registers one cached collection per provider and wires the rest of the dependencies.
func New(cfg *config.Config, providers repository.Providers, infoRepo repository.SchoolInfoRepository, info *cache.InfoStore, uploader upload.Uploader) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	if infoRepo == nil {
		return nil, errors.New("school info repository is nil")
	}
	if info == nil {
		return nil, errors.New("school info store is nil")
	}
	if uploader == nil {
		return nil, errors.New("uploader is nil")
	}

	opts := CacheOptions(cfg.Cache)
	store := cache.NewStore()
	subjects, err := cache.Register[repository.Subject](store, repository.CollectionSubjects, providers.Subjects, opts...)
	if err != nil {
		return nil, err
	}
	publications, err := cache.Register[repository.Publication](store, repository.CollectionPublications, providers.Publications, opts...)
	if err != nil {
		return nil, err
	}
	resources, err := cache.Register[repository.Resource](store, repository.CollectionResources, providers.Resources, opts...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &App{
		Config: cfg,
		Store:  store,
		Collections: Collections{
			Subjects:     subjects,
			Publications: publications,
			Resources:    resources,
		},
		InfoRepo: infoRepo,
		Info:     info,
		Uploader: uploader,
		BaseCtx:  ctx,
		Cancel:   cancel,
	}, nil
}

// CacheOptions translates the cache configuration into collection options.
func CacheOptions(cfg config.CacheConfig) []cache.Option {
	return []cache.Option{
		cache.WithCacheDuration(cfg.Duration),
		cache.WithRetry(cfg.RetryAttempts, cfg.RetryBackoff),
	}
}

// Shutdown cancels the base context and waits for the refresh scheduler to stop.
func (a *App) Shutdown() {
	if a == nil || a.Cancel == nil {
		return
	}
	a.Cancel()
	if a.refreshDone != nil {
		<-a.refreshDone
	}
}

// StartWatchers starts the school info file watcher and, when configured, the
// background cache refresh.
func (a *App) StartWatchers() error {
	if err := a.InfoRepo.StartWatcher(a.BaseCtx, a.Info); err != nil {
		return fmt.Errorf("cannot start school info watcher: %w", err)
	}

	if a.Config.Cache.RefreshInterval > 0 {
		a.Store.Warm(a.BaseCtx)
		logger.WithComponent("app").Infof("cache warmed: %v", a.Store.Names())
	}
	a.refreshDone = cache.StartRefreshScheduler(a.BaseCtx, a.Store, a.Config.Cache.RefreshInterval)
	return nil
}
