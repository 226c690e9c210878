package ecs

import "fmt"

var _ Cache[any] = &SimpleCache[any]{}

// SimpleCache backs the type registries (Schema's per-kind index
// assignment): a capacity-bounded, name-keyed, 1-based index cache. The
// 1-based indexing matches the stable bit-position contract type
// descriptors carry (spec §4.A: "a stable 1-based index, the bit
// position"), unlike the teacher's original 0-based cache used for
// arbitrary keyed lookups.
func (c *SimpleCache[T]) GetIndex(key string) (int, bool) {
	index, ok := c.itemIndices[key]
	return index, ok
}

// GetItem returns a pointer to the item at the given 1-based index.
func (c *SimpleCache[T]) GetItem(index int) *T {
	return &c.items[index-1]
}

// GetItem32 is GetItem for callers holding a uint32 index.
func (c *SimpleCache[T]) GetItem32(index uint32) *T {
	return &c.items[index-1]
}

// Register assigns the next 1-based index to key and stores item there.
// It does not itself reject duplicate keys; callers that need
// registration to be monotone and collision-free (Schema's type
// registries) check GetIndex first.
func (c *SimpleCache[T]) Register(key string, item T) (int, error) {
	if len(c.items) >= c.maxCapacity {
		return -1, fmt.Errorf("cache at maximum capacity (%d)", c.maxCapacity)
	}

	idx := len(c.items) + 1
	c.itemIndices[key] = idx
	c.items = append(c.items, item)

	return idx, nil
}

// Len reports how many items are registered.
func (c *SimpleCache[T]) Len() int {
	return len(c.items)
}

// Clear empties the cache back to its initial state.
func (c *SimpleCache[T]) Clear() {
	c.items = nil
	c.itemIndices = make(map[string]int)
}
