package topology

import (
	"context"
	"log/slog"
	"sync"

	"overseer-ai/internal/usecase/orchestrate"
)

// Loader builds a compiled topology for a tenant. Implemented by Compiler.
type Loader interface {
	Load(ctx context.Context, tenantID string) (*orchestrate.Topology, error)
}

// Cache holds one compiled topology per tenant. Reads are the common case
// and never block each other; a rebuild installs the new graph with a plain
// map write under the lock, so in-flight requests keep the graph they
// already resolved and new requests see the fresh one.
type Cache struct {
	mu     sync.RWMutex
	loader Loader
	graphs map[string]*orchestrate.Topology
	logger *slog.Logger
}

// NewCache creates an empty cache over the given loader.
func NewCache(loader Loader, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = discardLogger()
	}
	return &Cache{
		loader: loader,
		graphs: make(map[string]*orchestrate.Topology),
		logger: logger,
	}
}

// GetOrLoad returns the cached topology for a tenant, building it on a miss
// or when forceReload is set. Builds run outside the lock: two concurrent
// callers for the same uncached tenant may both compile (compilation is
// idempotent), and the later install wins. A failed load caches nothing.
func (c *Cache) GetOrLoad(ctx context.Context, tenantID string, forceReload bool) (*orchestrate.Topology, error) {
	if !forceReload {
		c.mu.RLock()
		graph := c.graphs[tenantID]
		c.mu.RUnlock()
		if graph != nil {
			return graph, nil
		}
	}

	graph, err := c.loader.Load(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.graphs[tenantID] = graph
	c.mu.Unlock()

	c.logger.Debug("topology cached", "tenant", tenantID, "nodes", len(graph.NodeNames))
	return graph, nil
}

// Invalidate drops the cached topology for a tenant; the next GetOrLoad
// rebuilds from the store.
func (c *Cache) Invalidate(tenantID string) {
	c.mu.Lock()
	delete(c.graphs, tenantID)
	c.mu.Unlock()

	c.logger.Info("topology cache invalidated", "tenant", tenantID)
}

// Cached reports whether a tenant currently has a compiled topology.
func (c *Cache) Cached(tenantID string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.graphs[tenantID] != nil
}
