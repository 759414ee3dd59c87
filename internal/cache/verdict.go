// Package cache memoizes cast decisions.
package cache

import (
	"container/list"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/spaolacci/murmur3"

	"github.com/arkilian/typecast/internal/casts"
	"github.com/arkilian/typecast/pkg/types"
)

// Metrics holds cache statistics for observability.
type Metrics struct {
	Hits      atomic.Int64
	Misses    atomic.Int64
	Evictions atomic.Int64
}

// Stats is a point-in-time copy of the cache metrics.
type Stats struct {
	Hits      int64
	Misses    int64
	Evictions int64
	Entries   int
	Capacity  int
}

// pairKey is the murmur3 128-bit hash of a (source, target) pair.
type pairKey struct {
	hi, lo uint64
}

type entry struct {
	key      pairKey
	decision casts.Decision
}

// VerdictCache is a bounded LRU of cast decisions in front of a resolver.
// It is safe for concurrent use.
type VerdictCache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[pairKey]*list.Element
	resolve  casts.ResolveFunc
	metrics  Metrics
}

// NewVerdictCache creates a cache holding at most capacity decisions.
// resolve defaults to casts.Resolve.
func NewVerdictCache(capacity int, resolve casts.ResolveFunc) (*VerdictCache, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("capacity must be positive, got %d", capacity)
	}
	if resolve == nil {
		resolve = casts.Resolve
	}
	return &VerdictCache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[pairKey]*list.Element, capacity),
		resolve:  resolve,
	}, nil
}

// Resolve returns the cached decision for the pair, computing it on a miss.
// It has the casts.ResolveFunc signature.
func (c *VerdictCache) Resolve(source, target types.LogicalType) casts.Decision {
	if source == nil || target == nil {
		return c.resolve(source, target)
	}
	key := keyOf(source, target)

	c.mu.Lock()
	if el, ok := c.items[key]; ok {
		c.ll.MoveToFront(el)
		d := el.Value.(*entry).decision
		c.mu.Unlock()
		c.metrics.Hits.Add(1)
		return d
	}
	c.mu.Unlock()
	c.metrics.Misses.Add(1)

	d := c.resolve(source, target)

	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		// Another goroutine filled it meanwhile.
		c.ll.MoveToFront(el)
		return d
	}
	c.items[key] = c.ll.PushFront(&entry{key: key, decision: d})
	for c.ll.Len() > c.capacity {
		oldest := c.ll.Back()
		c.ll.Remove(oldest)
		delete(c.items, oldest.Value.(*entry).key)
		c.metrics.Evictions.Add(1)
	}
	return d
}

// Stats returns current cache metrics.
func (c *VerdictCache) Stats() Stats {
	return Stats{
		Hits:      c.metrics.Hits.Load(),
		Misses:    c.metrics.Misses.Load(),
		Evictions: c.metrics.Evictions.Load(),
		Entries:   c.Len(),
		Capacity:  c.capacity,
	}
}

// HitRate returns the cache hit rate as a percentage.
func (c *VerdictCache) HitRate() float64 {
	hits := c.metrics.Hits.Load()
	misses := c.metrics.Misses.Load()
	total := hits + misses
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total) * 100
}

// Len returns the number of cached decisions.
func (c *VerdictCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Clear drops every cached decision. Metrics are kept.
func (c *VerdictCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[pairKey]*list.Element, c.capacity)
}

// keyOf hashes the summary strings of both types. Named structured types
// print only their identifier, so their attributes are appended to keep
// two definitions under one identifier apart.
func keyOf(source, target types.LogicalType) pairKey {
	var b strings.Builder
	writeKey(&b, source)
	b.WriteByte(0)
	writeKey(&b, target)

	h := murmur3.New128()
	h.Write([]byte(b.String()))
	hi, lo := h.Sum128()
	return pairKey{hi: hi, lo: lo}
}

func writeKey(b *strings.Builder, t types.LogicalType) {
	b.WriteString(t.String())
	appendNamedDefinitions(b, t)
}

func appendNamedDefinitions(b *strings.Builder, t types.LogicalType) {
	if st, ok := t.(*types.StructuredType); ok && st.Identifier() != nil {
		if anon, err := types.NewStructuredType(nil, st.Attributes()...); err == nil {
			b.WriteString("|")
			b.WriteString(st.Identifier().Quoted())
			b.WriteString("=")
			b.WriteString(anon.String())
		}
	}
	for _, child := range t.Children() {
		appendNamedDefinitions(b, child)
	}
}
