package token

import (
	"container/list"
	"sync"
)

// boundedLRU is a thread-safe bounded LRU cache. Entries never expire on
// their own; mint metadata is immutable, so eviction only happens at
// capacity.
type boundedLRU[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*list.Element
	order   *list.List
	maxSize int
	zero    V
}

type lruEntry[K comparable, V any] struct {
	key   K
	value V
}

func newBoundedLRU[K comparable, V any](maxSize int) *boundedLRU[K, V] {
	return &boundedLRU[K, V]{
		entries: make(map[K]*list.Element, maxSize),
		order:   list.New(),
		maxSize: maxSize,
	}
}

func (c *boundedLRU[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return c.zero, false
	}
	c.order.MoveToFront(elem)
	return elem.Value.(*lruEntry[K, V]).value, true
}

func (c *boundedLRU[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.order.MoveToFront(elem)
		elem.Value.(*lruEntry[K, V]).value = value
		return
	}

	for len(c.entries) >= c.maxSize {
		back := c.order.Back()
		if back == nil {
			break
		}
		c.order.Remove(back)
		delete(c.entries, back.Value.(*lruEntry[K, V]).key)
	}

	elem := c.order.PushFront(&lruEntry[K, V]{key: key, value: value})
	c.entries[key] = elem
}

func (c *boundedLRU[K, V]) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
