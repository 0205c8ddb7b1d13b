// Package tenant resolves folder ids to opened storage engines.
package tenant

import (
	"context"
	"errors"
	"sync"

	"github.com/mwantia/evtrec/pkg/db/models"
	"github.com/mwantia/evtrec/pkg/folder"
	"github.com/mwantia/evtrec/pkg/log"
)

// FolderRegistry is the part of the registry the manager depends on.
type FolderRegistry interface {
	ListFolders(ctx context.Context) ([]models.Folder, error)
	GetFolder(ctx context.Context, id uint) (*models.Folder, error)
	CreateFolder(ctx context.Context, name string) (*models.Folder, error)
	RemoveFolder(ctx context.Context, id uint) error
}

// Manager memoizes one engine per folder. Every lookup goes through the
// registry first, so removed folders become unreachable immediately.
type Manager struct {
	mutex    sync.Mutex
	registry FolderRegistry
	cfg      folder.Config
	engines  map[uint]*lease
	log      log.LoggerService
}

// lease counts the callers holding an engine. A retired engine is closed
// once the last holder releases it.
type lease struct {
	engine  *folder.Engine
	refs    int
	retired bool
}

func NewManager(registry FolderRegistry, cfg folder.Config, logger log.LoggerService) *Manager {
	return &Manager{
		registry: registry,
		cfg:      cfg,
		engines:  make(map[uint]*lease),
		log:      logger,
	}
}

func (m *Manager) ListFolders(ctx context.Context) ([]models.Folder, error) {
	return m.registry.ListFolders(ctx)
}

func (m *Manager) GetFolder(ctx context.Context, id uint) (*models.Folder, error) {
	return m.registry.GetFolder(ctx, id)
}

func (m *Manager) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	return m.registry.CreateFolder(ctx, name)
}

// RemoveFolder removes the registry entry and retires a cached engine. The
// folder's files and database stay on disk.
func (m *Manager) RemoveFolder(ctx context.Context, id uint) error {
	if err := m.registry.RemoveFolder(ctx, id); err != nil {
		return err
	}
	m.Forget(id)
	return nil
}

// Acquire returns the engine of a registered folder, opening it on first use.
// The caller must invoke release once it no longer uses the engine.
func (m *Manager) Acquire(ctx context.Context, id uint) (*folder.Engine, func(), error) {
	f, err := m.registry.GetFolder(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	m.mutex.Lock()
	defer m.mutex.Unlock()

	l, ok := m.engines[id]
	if ok && l.engine.Folder().StoragePath != f.StoragePath {
		// The id was reused for a different folder
		m.retire(id, l)
		ok = false
	}

	if !ok {
		e, err := folder.Open(ctx, *f, m.cfg)
		if err != nil {
			return nil, nil, err
		}

		m.log.Debug("Opened engine for folder '%s' (%d)", f.Slug, f.ID)
		l = &lease{engine: e}
		m.engines[id] = l
	}

	l.refs++
	var once sync.Once
	return l.engine, func() { once.Do(func() { m.release(id, l) }) }, nil
}

func (m *Manager) release(id uint, l *lease) {
	m.mutex.Lock()
	l.refs--
	closeNow := l.retired && l.refs == 0
	m.mutex.Unlock()

	if closeNow {
		if err := l.engine.Close(); err != nil {
			m.log.Warn("Failed to close engine for folder %d: %v", id, err)
		}
	}
}

// retire drops l from the cache. It is closed right away when unused,
// otherwise by the last release. Callers hold the mutex.
func (m *Manager) retire(id uint, l *lease) {
	if m.engines[id] == l {
		delete(m.engines, id)
	}
	l.retired = true

	if l.refs == 0 {
		if err := l.engine.Close(); err != nil {
			m.log.Warn("Failed to close engine for folder %d: %v", id, err)
		}
	}
}

// Forget drops the cached engine of a folder, if any. Callers still holding
// it keep a working engine until they release it.
func (m *Manager) Forget(id uint) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	if l, ok := m.engines[id]; ok {
		m.retire(id, l)
	}
}

// Cleanup closes all cached engines. It runs after request handling stopped.
func (m *Manager) Cleanup(ctx context.Context) error {
	m.mutex.Lock()
	engines := m.engines
	m.engines = make(map[uint]*lease)
	m.mutex.Unlock()

	var errs []error
	for id, l := range engines {
		if err := l.engine.Close(); err != nil {
			errs = append(errs, err)
			m.log.Warn("Failed to close engine for folder %d: %v", id, err)
		}
	}
	return errors.Join(errs...)
}
