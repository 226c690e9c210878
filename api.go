package ecs

// Cache is a capacity-bounded, name-keyed, 1-based index cache. The type
// registries backing Schema are built on it.
type Cache[T any] interface {
	GetIndex(string) (int, bool)
	GetItem(int) *T
	GetItem32(uint32) *T
	Register(string, T) (int, error)
	Len() int
	Clear()
}

// SimpleCache is the concrete Cache implementation.
type SimpleCache[T any] struct {
	items       []T
	itemIndices map[string]int
	maxCapacity int
}

// CacheLocation pairs a cache key with the index it resolved to, used by
// collaborators (a serializer, a debug proxy) that persist a reference to
// a cached item across calls.
type CacheLocation struct {
	Key   string
	Index uint32
}
