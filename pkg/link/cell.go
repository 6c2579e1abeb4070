// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

package link

import "sync"

// Cell is an observable value with a single writer and any number of readers.
// Readers either poll with Get or subscribe with Watch. Slow subscribers lose
// intermediate values, never the latest one.
type Cell[T any] struct {
	mu     sync.RWMutex
	value  T
	subs   map[int]chan T
	nextID int
	closed bool
}

// NewCell creates a cell holding initial
func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		value: initial,
		subs:  make(map[int]chan T),
	}
}

// Get returns the current value
func (c *Cell[T]) Get() T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

// Set replaces the value and notifies subscribers
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.value = v
	for _, ch := range c.subs {
		offer(ch, v)
	}
}

// Watch subscribes to value changes. The current value is delivered first.
// buffer is clamped to at least 1. The returned cancel func closes the channel
// and is safe to call more than once.
func (c *Cell[T]) Watch(buffer int) (<-chan T, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan T, buffer)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		close(ch)
		return ch, func() {}
	}
	id := c.nextID
	c.nextID++
	c.subs[id] = ch
	ch <- c.value

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			c.mu.Lock()
			defer c.mu.Unlock()
			if sub, ok := c.subs[id]; ok {
				delete(c.subs, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// Close closes every subscriber channel. Later Sets are ignored.
func (c *Cell[T]) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	for id, ch := range c.subs {
		delete(c.subs, id)
		close(ch)
	}
}

// offer sends v without blocking, dropping the oldest queued value if full
func offer[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
