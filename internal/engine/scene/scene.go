// Package scene keeps the animated model instances of a scene and updates
// them each frame.
package scene

import (
	"context"
	"errors"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Faultbox/rigging/internal/engine/model"
	"github.com/Faultbox/rigging/internal/logger"
)

// ErrNotFound is returned for unknown instance IDs.
var ErrNotFound = errors.New("instance not found")

// Config contains scene configuration options.
type Config struct {
	// Workers bounds concurrent model updates. 0 means GOMAXPROCS.
	Workers int
}

// DefaultConfig returns a default scene configuration.
func DefaultConfig() Config {
	return Config{Workers: 0}
}

// Instance is one model placed in the scene.
type Instance struct {
	ID   uuid.UUID
	Name string

	mu    sync.Mutex
	model *model.Model
}

// With runs fn with exclusive access to the instance's model.
func (in *Instance) With(fn func(m *model.Model)) {
	in.mu.Lock()
	defer in.mu.Unlock()
	fn(in.model)
}

func (in *Instance) update(dt float32) bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.model.Update(dt)
}

// Registry owns the instances of a scene. Its methods are safe for
// concurrent use; models share no state, so they update in parallel.
type Registry struct {
	mu        sync.RWMutex
	instances map[uuid.UUID]*Instance
	order     []uuid.UUID

	workers int
	log     *zap.Logger
}

// New creates an empty registry.
func New(cfg Config) *Registry {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Registry{
		instances: make(map[uuid.UUID]*Instance),
		workers:   workers,
		log:       logger.Named("scene"),
	}
}

// Add places m in the scene and returns its new ID.
func (r *Registry) Add(name string, m *model.Model) uuid.UUID {
	in := &Instance{ID: uuid.New(), Name: name, model: m}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.instances[in.ID] = in
	r.order = append(r.order, in.ID)

	r.log.Debug("instance added", zap.Stringer("id", in.ID), zap.String("name", name))
	return in.ID
}

// Remove deletes an instance. It reports whether the ID was known.
func (r *Registry) Remove(id uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.instances[id]; !ok {
		return false
	}
	delete(r.instances, id)
	for i, o := range r.order {
		if o == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return true
}

// Replace swaps the model of an existing instance, keeping its ID.
func (r *Registry) Replace(id uuid.UUID, m *model.Model) error {
	in, ok := r.Get(id)
	if !ok {
		return ErrNotFound
	}
	in.mu.Lock()
	in.model = m
	in.mu.Unlock()
	r.log.Debug("instance replaced", zap.Stringer("id", id))
	return nil
}

// Get returns the instance with the given ID.
func (r *Registry) Get(id uuid.UUID) (*Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	in, ok := r.instances[id]
	return in, ok
}

// FindByName returns the first instance added under name.
func (r *Registry) FindByName(name string) (*Instance, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if in := r.instances[id]; in.Name == name {
			return in, true
		}
	}
	return nil, false
}

// Len returns the number of instances.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// List returns the instances in insertion order.
func (r *Registry) List() []*Instance {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Instance, len(r.order))
	for i, id := range r.order {
		out[i] = r.instances[id]
	}
	return out
}

// UpdateAll advances every instance by dt and returns the IDs whose pose
// changed, in insertion order. Updates stop early when ctx is cancelled.
func (r *Registry) UpdateAll(ctx context.Context, dt float32) ([]uuid.UUID, error) {
	list := r.List()
	changed := make([]bool, len(list))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)
	for i, in := range list {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			changed[i] = in.update(dt)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var ids []uuid.UUID
	for i, c := range changed {
		if c {
			ids = append(ids, list[i].ID)
		}
	}
	return ids, nil
}
