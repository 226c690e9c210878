/*
Package ecs provides an archetype-based Entity-Component-System core.

Entities are grouped into Chunks by the exact set of components, array
elements, and tags they carry (their Definition), so that entities with
identical shape sit in contiguous, typed columns for cache-friendly
iteration. Structural changes (adding or removing a component, tag, or
array) move an entity between Chunks; value changes (writing a
component's bytes) never do.

Core Concepts:

  - Schema: the registry assigning stable bit indices to component,
    array-element, and tag types.
  - Definition: the three-mask archetype identity of a Chunk.
  - World: owns the entity directory, the chunk index, and the Notifier.
  - Query: a materialized, filtered view over a World's chunks.

Basic Usage:

	schema := ecs.NewSchema()
	position, _ := ecs.RegisterComponent[Position](schema)
	velocity, _ := ecs.RegisterComponent[Velocity](schema)

	world, _ := ecs.NewWorld(schema)
	world.CreateEntity(position, velocity)

	query := ecs.Factory.NewQuery(world)
	query.Required = position.Mask().Union(velocity.Mask())
	query.Update()

	for entity := range query.Entities() {
		pos, _ := ecs.GetComponent(world, entity, position)
		vel, _ := ecs.GetComponent(world, entity, velocity)
		pos.X += vel.X
		pos.Y += vel.Y
	}
*/
package ecs
