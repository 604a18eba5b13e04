package embedding

import (
	"container/list"
	"context"
	"sync"
)

// CachedEmbedder wraps an Embedder with a bounded LRU cache keyed by the
// exact input text. Embedding is deterministic per model version, so cached
// vectors never go stale within a process lifetime.
type CachedEmbedder struct {
	inner    Embedder
	capacity int

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List
}

type cacheEntry struct {
	key    string
	vector []float64
}

// NewCachedEmbedder wraps inner with an LRU cache of the given capacity.
// A non-positive capacity disables caching.
func NewCachedEmbedder(inner Embedder, capacity int) *CachedEmbedder {
	return &CachedEmbedder{
		inner:    inner,
		capacity: capacity,
		entries:  make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Dimension returns the inner embedder's dimension.
func (c *CachedEmbedder) Dimension() int {
	return c.inner.Dimension()
}

// Encode returns a cached vector when available, otherwise delegates to the
// inner embedder and caches the result.
func (c *CachedEmbedder) Encode(ctx context.Context, text string) ([]float64, error) {
	if c.capacity <= 0 {
		return c.inner.Encode(ctx, text)
	}

	if vec, ok := c.get(text); ok {
		return vec, nil
	}

	vec, err := c.inner.Encode(ctx, text)
	if err != nil {
		return nil, err
	}
	c.put(text, vec)
	return vec, nil
}

// EncodeBatch serves cached items and only sends the misses to the inner
// embedder, preserving input order in the result.
func (c *CachedEmbedder) EncodeBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, ErrEmptyInput
	}
	if c.capacity <= 0 {
		return c.inner.EncodeBatch(ctx, texts)
	}

	vectors := make([][]float64, len(texts))
	var missTexts []string
	var missIdx []int
	for i, text := range texts {
		if vec, ok := c.get(text); ok {
			vectors[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) > 0 {
		missed, err := c.inner.EncodeBatch(ctx, missTexts)
		if err != nil {
			return nil, err
		}
		for j, vec := range missed {
			vectors[missIdx[j]] = vec
			c.put(missTexts[j], vec)
		}
	}

	return vectors, nil
}

func (c *CachedEmbedder) get(key string) ([]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).vector, true
}

func (c *CachedEmbedder) put(key string, vector []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		c.order.MoveToFront(el)
		el.Value.(*cacheEntry).vector = vector
		return
	}

	el := c.order.PushFront(&cacheEntry{key: key, vector: vector})
	c.entries[key] = el

	for c.order.Len() > c.capacity {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}
