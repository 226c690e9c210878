package ecs

// factory implements the factory pattern for ecs components, matching
// the teacher's single zero-value Factory instance.
type factory struct{}

// Factory is the global factory instance for creating ecs components.
var Factory factory

// NewWorld creates a new World over schema.
func (f factory) NewWorld(schema *Schema) (*World, error) {
	return NewWorld(schema)
}

// NewQuery creates a new, not-yet-updated Query over world.
func (f factory) NewQuery(world *World) *Query {
	return NewQuery(world)
}

// NewCursor creates a new Cursor over query's current match set.
func (f factory) NewCursor(query *Query) *Cursor {
	return NewCursor(query)
}

// FactoryNewCache creates a new Cache with the specified capacity.
func FactoryNewCache[T any](cap int) Cache[T] {
	return &SimpleCache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: cap,
	}
}
