package templates

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// Loader turns a template identifier into a ready Renderer.
type Loader interface {
	Load(ctx context.Context, id string) (Renderer, error)
}

// Compiler resolves and compiles the template on every call.
type Compiler struct {
	store  Store
	engine *Engine
}

// NewCompiler creates a Loader without caching.
func NewCompiler(store Store, engine *Engine) *Compiler {
	return &Compiler{store: store, engine: engine}
}

// Load resolves the source first, so a missing template fails before any compilation.
func (c *Compiler) Load(ctx context.Context, id string) (Renderer, error) {
	source, err := c.store.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	return c.engine.Compile(id, source)
}

// Cache keeps compiled templates for the process lifetime.
// Concurrent first loads of the same identifier share one resolve and compile.
type Cache struct {
	next   Loader
	logger zerolog.Logger

	mu        sync.RWMutex
	renderers map[string]Renderer
	// generations counts invalidations per identifier; epoch counts purges.
	// A load only stores its result when neither moved while it ran.
	generations map[string]uint64
	epoch       uint64
	group       singleflight.Group
}

// NewCache wraps next with a per-identifier cache.
func NewCache(next Loader, logger *zerolog.Logger) *Cache {
	return &Cache{
		next:        next,
		logger:      logger.With().Str("component", "template_cache").Logger(),
		renderers:   make(map[string]Renderer),
		generations: make(map[string]uint64),
	}
}

// Load returns the cached renderer or loads it through the wrapped Loader.
// Failures are not cached. The shared load is detached from the caller's
// cancellation; each caller stops waiting when its own ctx is done.
func (c *Cache) Load(ctx context.Context, id string) (Renderer, error) {
	c.mu.RLock()
	r, ok := c.renderers[id]
	c.mu.RUnlock()
	if ok {
		return r, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrTemplateReadFailure, id, err)
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(id, func() (any, error) {
		c.mu.RLock()
		cached, ok := c.renderers[id]
		gen, epoch := c.generations[id], c.epoch
		c.mu.RUnlock()
		if ok {
			return cached, nil
		}

		loaded, err := c.next.Load(shared, id)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		stale := c.generations[id] != gen || c.epoch != epoch
		if !stale {
			c.renderers[id] = loaded
		}
		c.mu.Unlock()
		if stale {
			c.logger.Debug().Str("template", id).Msg("template changed during compile, not cached")
		} else {
			c.logger.Debug().Str("template", id).Msg("template compiled and cached")
		}
		return loaded, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(Renderer), nil
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %q: %w", ErrTemplateReadFailure, id, ctx.Err())
	}
}

// Invalidate drops the compiled template for id. A load already in flight
// for id still answers its callers but does not repopulate the cache.
func (c *Cache) Invalidate(id string) {
	c.mu.Lock()
	_, existed := c.renderers[id]
	delete(c.renderers, id)
	c.generations[id]++
	c.mu.Unlock()
	c.group.Forget(id)

	if existed {
		c.logger.Info().Str("template", id).Msg("template invalidated")
	}
}

// Purge drops every compiled template.
func (c *Cache) Purge() {
	c.mu.Lock()
	n := len(c.renderers)
	c.renderers = make(map[string]Renderer)
	c.epoch++
	c.mu.Unlock()
	c.logger.Info().Int("count", n).Msg("template cache purged")
}

// Len returns the number of cached templates.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.renderers)
}
