package ecs_test

import (
	"fmt"

	"github.com/TheBitDrifter/ecs"
)

// Position is a simple component for 2D coordinates.
type Position struct {
	X float64
	Y float64
}

// Velocity is a simple component for 2D movement.
type Velocity struct {
	X float64
	Y float64
}

// Name is a simple component for entity identification.
type Name struct {
	Value string
}

// Example_basic shows basic usage: registering components, creating
// entities, and querying for a component combination.
func Example_basic() {
	schema := ecs.NewSchema()
	position, _ := ecs.RegisterComponent[Position](schema)
	velocity, _ := ecs.RegisterComponent[Velocity](schema)
	name, _ := ecs.RegisterComponent[Name](schema)

	world, _ := ecs.NewWorld(schema)

	for i := 0; i < 5; i++ {
		world.CreateEntity(position)
	}
	for i := 0; i < 3; i++ {
		world.CreateEntity(position, velocity)
	}

	playerID, _ := world.CreateEntity(position, velocity, name)
	nameComp, _ := ecs.GetComponent(world, playerID, name)
	nameComp.Value = "Player"
	pos, _ := ecs.GetComponent(world, playerID, position)
	vel, _ := ecs.GetComponent(world, playerID, velocity)
	pos.X, pos.Y = 10.0, 20.0
	vel.X, vel.Y = 1.0, 2.0

	query := ecs.Factory.NewQuery(world)
	query.Required = position.Mask().Union(velocity.Mask())
	query.Update()
	matchCount, _ := query.Count()
	fmt.Printf("Found %d entities with position and velocity\n", matchCount)

	named := ecs.Factory.NewQuery(world)
	named.Required = name.Mask()
	named.Update()
	for entity := range named.Entities() {
		pos, _ := ecs.GetComponent(world, entity, position)
		vel, _ := ecs.GetComponent(world, entity, velocity)
		nme, _ := ecs.GetComponent(world, entity, name)

		pos.X += vel.X
		pos.Y += vel.Y

		fmt.Printf("Updated %s to position (%.1f, %.1f)\n", nme.Value, pos.X, pos.Y)
	}

	// Output:
	// Found 4 entities with position and velocity
	// Updated Player to position (11.0, 22.0)
}

// Example_queries shows required/forbidden masks and QueryNode
// composition.
func Example_queries() {
	schema := ecs.NewSchema()
	position, _ := ecs.RegisterComponent[Position](schema)
	velocity, _ := ecs.RegisterComponent[Velocity](schema)
	name, _ := ecs.RegisterComponent[Name](schema)

	world, _ := ecs.NewWorld(schema)

	for i := 0; i < 3; i++ {
		world.CreateEntity(position)
	}
	for i := 0; i < 3; i++ {
		world.CreateEntity(position, velocity)
	}
	for i := 0; i < 3; i++ {
		world.CreateEntity(position, name)
	}
	for i := 0; i < 3; i++ {
		world.CreateEntity(position, velocity, name)
	}

	and := ecs.Factory.NewQuery(world)
	and.Required = position.Mask().Union(velocity.Mask())
	and.Update()
	andCount, _ := and.Count()
	fmt.Printf("AND query matched %d entities\n", andCount)

	or := ecs.Factory.NewQuery(world)
	or.Node = ecs.Or(velocity, name)
	or.Update()
	orCount, _ := or.Count()
	fmt.Printf("OR query matched %d entities\n", orCount)

	not := ecs.Factory.NewQuery(world)
	not.Required = position.Mask()
	not.Forbidden = velocity.Mask()
	not.Update()
	notCount, _ := not.Count()
	fmt.Printf("NOT query matched %d entities\n", notCount)

	// Output:
	// AND query matched 6 entities
	// OR query matched 9 entities
	// NOT query matched 6 entities
}
