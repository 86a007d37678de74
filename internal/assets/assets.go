// Package assets handles model file loading and caching.
package assets

import (
	"fmt"
	"path/filepath"
	"sync"

	"go.uber.org/zap"

	"github.com/Faultbox/rigging/internal/assets/importer"
	"github.com/Faultbox/rigging/internal/engine/model"
	"github.com/Faultbox/rigging/internal/logger"
)

// LoadFunc reads a model description from a file.
type LoadFunc func(path string) (model.Description, error)

// Manager loads model descriptions from disk and instantiates models from
// them. Descriptions are cached by cleaned path; every model gets its own
// hierarchy and playback state.
type Manager struct {
	load  LoadFunc
	cache *Cache
	log   *zap.Logger
}

// NewManager creates a new asset manager. A nil load uses the glTF importer.
func NewManager(load LoadFunc) *Manager {
	if load == nil {
		load = importer.Load
	}
	return &Manager{
		load:  load,
		cache: NewCache(),
		log:   logger.Named("assets"),
	}
}

// Description returns the description for path, reading the file on the
// first request.
func (m *Manager) Description(path string) (model.Description, error) {
	key := filepath.Clean(path)
	if desc, ok := m.cache.Get(key); ok {
		return desc, nil
	}

	desc, err := m.load(key)
	if err != nil {
		return model.Description{}, fmt.Errorf("loading %s: %w", key, err)
	}
	m.cache.Set(key, desc)
	m.log.Debug("description cached",
		zap.String("path", key),
		zap.Int("nodes", len(desc.Nodes)),
		zap.Int("clips", len(desc.Clips)),
		zap.Int("skins", len(desc.Skins)))
	return desc, nil
}

// Model instantiates a new model from the description at path.
func (m *Manager) Model(path string, opts model.Options) (*model.Model, error) {
	desc, err := m.Description(path)
	if err != nil {
		return nil, err
	}
	return model.Load(desc, opts)
}

// Invalidate drops the cached description so the next request rereads it.
func (m *Manager) Invalidate(path string) {
	m.cache.Delete(filepath.Clean(path))
}

// Close drops every cached description.
func (m *Manager) Close() {
	m.cache.Clear()
}

// Stats returns cache statistics.
func (m *Manager) Stats() (hits, misses int) {
	return m.cache.Stats()
}

// Cache is a simple in-memory cache for loaded descriptions.
type Cache struct {
	data map[string]model.Description
	mu   sync.Mutex

	// Stats
	hits   int
	misses int
}

// NewCache creates a new cache.
func NewCache() *Cache {
	return &Cache{
		data: make(map[string]model.Description),
	}
}

// Get retrieves an item from cache.
func (c *Cache) Get(key string) (model.Description, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	desc, ok := c.data[key]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return desc, ok
}

// Set stores an item in cache.
func (c *Cache) Set(key string, desc model.Description) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = desc
}

// Delete removes an item from cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
}

// Clear clears the cache.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data = make(map[string]model.Description)
	c.hits = 0
	c.misses = 0
}

// Stats returns cache statistics.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
