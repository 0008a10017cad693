package carousel

import (
	"slices"
	"sync"
)

// Carousel keeps a rotating view over a list: the first item is featured,
// the next window-1 items form the grid.
type Carousel[T any] struct {
	mu       sync.RWMutex
	window   int
	step     int
	key      func(T) string
	items    []T
	identity []string
	offset   int
}

func New[T any](window, step int, key func(T) string) *Carousel[T] {
	return &Carousel[T]{window: window, step: step, key: key}
}

// Sync stores a freshly fetched list. When the list's identity differs from
// the current one the rotation offset is discarded and true is returned.
func (c *Carousel[T]) Sync(items []T) bool {
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = c.key(it)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if slices.Equal(ids, c.identity) {
		return false
	}
	c.items = slices.Clone(items)
	c.identity = ids
	c.offset = 0
	return true
}

func (c *Carousel[T]) Rotate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.items) == 0 {
		return
	}
	c.offset = (c.offset + c.step) % len(c.items)
}

func (c *Carousel[T]) Offset() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}

// Items returns the list in its current rotated order.
func (c *Carousel[T]) Items() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return RotateLeft(c.items, c.offset)
}

func (c *Carousel[T]) Featured() (T, bool) {
	items := c.Items()
	if len(items) == 0 {
		var zero T
		return zero, false
	}
	return items[0], true
}

func (c *Carousel[T]) Grid() []T {
	items := c.Items()
	if len(items) <= 1 {
		return nil
	}
	end := min(c.window, len(items))
	return items[1:end]
}

// RotateLeft returns a copy of items rotated left by n positions.
func RotateLeft[T any](items []T, n int) []T {
	if len(items) == 0 {
		return nil
	}
	n %= len(items)
	if n < 0 {
		n += len(items)
	}
	out := make([]T, 0, len(items))
	out = append(out, items[n:]...)
	return append(out, items[:n]...)
}
