// Package lru implements the ordered in-memory core of the cache: a
// capacity-bounded key/value mapping that remembers recency order.
package lru

import (
	"errors"

	"github.com/krisalay/durable-lru-cache/types"
)

// ErrInvalidCapacity is returned by New when capacity is not a positive integer.
var ErrInvalidCapacity = errors.New("lru: capacity must be positive")

// node represents ONE entry inside the LRU structure. We use a doubly-linked list to track usage order.
type node[V any] struct {
	key   string
	value V

	// prev points to the node that was used just before this one (older)
	prev *node[V]

	// next points to the node that was used just after this one (newer)
	next *node[V]
}

// Core is an ordered key → value mapping.
//
// Order encodes recency: head is the LEAST recently used entry, tail the MOST
// recently used one. Every operation except Snapshot and Keys is O(1).
//
// Core is not safe for concurrent use. The owning cache serializes access
// together with its log appends.
type Core[V any] struct {
	capacity int

	// nodes maps cache keys to their list nodes so we can find and move them in O(1).
	nodes map[string]*node[V]

	// head points to the LEAST recently used entry
	head *node[V]

	// tail points to the MOST recently used entry
	tail *node[V]
}

// New creates an empty Core holding at most capacity entries.
func New[V any](capacity int) (*Core[V], error) {
	if capacity <= 0 {
		return nil, ErrInvalidCapacity
	}
	return &Core[V]{
		capacity: capacity,
		nodes:    make(map[string]*node[V], capacity),
	}, nil
}

// Get returns the value for key and marks it most recently used.
// A missing key is reported with ok == false and leaves the order untouched.
func (c *Core[V]) Get(key string) (value V, ok bool) {
	n, ok := c.nodes[key]
	if !ok {
		return value, false
	}
	c.moveToTail(n)
	return n.value, true
}

// Peek returns the value for key without changing recency order.
func (c *Core[V]) Peek(key string) (value V, ok bool) {
	n, ok := c.nodes[key]
	if !ok {
		return value, false
	}
	return n.value, true
}

// Contains reports whether key is present, without touching the order.
func (c *Core[V]) Contains(key string) bool {
	_, ok := c.nodes[key]
	return ok
}

// Put upserts key and marks it most recently used.
//
// Only inserting a brand-new key can overflow the capacity. When it does,
// exactly one entry is evicted: the head of the list. The evicted entry is
// returned with ok == true.
func (c *Core[V]) Put(key string, value V) (evicted types.Entry[V], ok bool) {
	if n, exists := c.nodes[key]; exists {
		n.value = value
		c.moveToTail(n)
		return evicted, false
	}

	n := &node[V]{key: key, value: value}
	c.nodes[key] = n
	c.addTail(n)

	if len(c.nodes) <= c.capacity {
		return evicted, false
	}

	oldest := c.head
	c.remove(oldest)
	delete(c.nodes, oldest.key)
	return types.Entry[V]{Key: oldest.key, Value: oldest.value}, true
}

// Delete removes key if present and reports whether it was.
func (c *Core[V]) Delete(key string) bool {
	n, ok := c.nodes[key]
	if !ok {
		return false
	}
	c.remove(n)
	delete(c.nodes, key)
	return true
}

// Snapshot returns every entry ordered from least to most recently used.
func (c *Core[V]) Snapshot() []types.Entry[V] {
	out := make([]types.Entry[V], 0, len(c.nodes))
	for n := c.head; n != nil; n = n.next {
		out = append(out, types.Entry[V]{Key: n.key, Value: n.value})
	}
	return out
}

// Keys returns keys ordered from least to most recently used.
func (c *Core[V]) Keys() []string {
	out := make([]string, 0, len(c.nodes))
	for n := c.head; n != nil; n = n.next {
		out = append(out, n.key)
	}
	return out
}

// Len returns the number of entries.
func (c *Core[V]) Len() int { return len(c.nodes) }

// Cap returns the configured capacity.
func (c *Core[V]) Cap() int { return c.capacity }

// addTail appends a node at the tail. This marks the node as "most recently used".
func (c *Core[V]) addTail(n *node[V]) {
	n.prev = c.tail
	n.next = nil
	if c.tail != nil {
		c.tail.next = n
	}
	c.tail = n

	// If the list was empty, head and tail are the same
	if c.head == nil {
		c.head = n
	}
}

// remove unlinks a node, fixing up head and tail when needed.
func (c *Core[V]) remove(n *node[V]) {
	if n.prev != nil {
		n.prev.next = n.next
	} else {
		c.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else {
		c.tail = n.prev
	}
	n.prev, n.next = nil, nil
}

// moveToTail is used when a key is accessed or overwritten.
func (c *Core[V]) moveToTail(n *node[V]) {
	if c.tail == n {
		return
	}
	c.remove(n)
	c.addTail(n)
}
