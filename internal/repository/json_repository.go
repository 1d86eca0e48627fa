package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bassista/go_school/internal/logger"
	"github.com/fsnotify/fsnotify"
	"github.com/go-playground/validator/v10"
)

// JSONSchoolInfoRepository handles disk persistence and watching of the school info file.
type JSONSchoolInfoRepository struct {
	path      string
	dir       string
	base      string
	validator *validator.Validate
	debounce  time.Duration
	mu        sync.Mutex
}

// NewJSONSchoolInfoRepository creates a repository for the given JSON file path.
func NewJSONSchoolInfoRepository(path string) (*JSONSchoolInfoRepository, error) {
	if path == "" {
		return nil, errors.New("school info file path is required")
	}

	dir := filepath.Dir(path)
	if dir == "" {
		dir = "."
	}
	return &JSONSchoolInfoRepository{
		path:      path,
		dir:       dir,
		base:      filepath.Base(path),
		validator: validator.New(),
		debounce:  200 * time.Millisecond,
	}, nil
}

// Load reads the JSON file, parses and validates it.
func (r *JSONSchoolInfoRepository) Load(_ context.Context) (*SchoolInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadUnlocked()
}

func (r *JSONSchoolInfoRepository) loadUnlocked() (*SchoolInfo, error) {
	file, err := os.Open(r.path)
	if err != nil {
		return nil, fmt.Errorf("open school info file: %w", err)
	}
	defer file.Close()

	var info SchoolInfo
	if err := json.NewDecoder(file).Decode(&info); err != nil {
		return nil, fmt.Errorf("decode school info file: %w", err)
	}
	if err := r.validator.Struct(&info); err != nil {
		return nil, fmt.Errorf("validate school info file: %w", err)
	}
	return &info, nil
}

// Save validates and writes the document atomically to disk.
func (r *JSONSchoolInfoRepository) Save(ctx context.Context, info *SchoolInfo) error {
	if info == nil {
		return errors.New("school info is nil")
	}
	if err := r.validator.Struct(info); err != nil {
		return fmt.Errorf("validate before save: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saveUnlocked(info)
}

func (r *JSONSchoolInfoRepository) saveUnlocked(info *SchoolInfo) error {
	payload, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal school info: %w", err)
	}

	tmpFile, err := os.CreateTemp(r.dir, r.base+".tmp-")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		tmpFile.Close()
		os.Remove(tmpFile.Name())
	}()

	if _, err := tmpFile.Write(payload); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), r.path); err != nil {
		return fmt.Errorf("replace school info file: %w", err)
	}
	return nil
}

// StartWatcher reloads store whenever the file changes on disk.
// It watches the parent directory so atomic replace sequences (temp+rename) are observed.
// Events are filtered by basename and debounced. Cancel ctx to stop the watcher.
func (r *JSONSchoolInfoRepository) StartWatcher(ctx context.Context, store InfoStore) error {
	if store == nil {
		return errors.New("info store is required")
	}
	onChange := r.MakeWatcherCallback(store)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	if err := watcher.Add(r.dir); err != nil {
		watcher.Close()
		return fmt.Errorf("watch dir: %w", err)
	}

	go func() {
		defer watcher.Close()

		var debounce *time.Timer
		schedule := func() {
			if debounce != nil {
				debounce.Stop()
			}
			debounce = time.AfterFunc(r.debounce, onChange)
		}

		for {
			select {
			case <-ctx.Done():
				if debounce != nil {
					debounce.Stop()
				}
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Base(event.Name) != r.base {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Chmod|fsnotify.Remove|fsnotify.Rename) != 0 {
					schedule()
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.WithComponent("info-watch").Errorf("watcher error: %v", err)
			}
		}
	}()

	return nil
}

// MakeWatcherCallback returns the reload step run after a debounced file event.
func (r *JSONSchoolInfoRepository) MakeWatcherCallback(store InfoStore) func() {
	log := logger.WithComponent("info-watch")
	return func() {
		diskInfo, err := r.Load(context.Background())
		if err != nil {
			log.Warnf("watch reload failed: %v", err)
			return
		}

		cacheLastUpdate := store.GetLastUpdate()
		if diskInfo.LastUpdate < cacheLastUpdate {
			log.Debugf("disk version is older than memory: disk=%d memory=%d", diskInfo.LastUpdate, cacheLastUpdate)
			return
		}

		current := store.Snapshot()
		if SameContent(&current, diskInfo) {
			log.Trace("school info unchanged on disk")
			return
		}
		store.Replace(*diskInfo)
		log.Info("school info reloaded from disk")
	}
}
