package ecs

import (
	"testing"
)

type queryTestHealth struct {
	Value int
}

type queryTestPosition struct {
	X float64
	Y float64
}

type queryTestVelocity struct {
	X float64
	Y float64
}

// TestQueryFiltering tests the basic query filtering capabilities.
func TestQueryFiltering(t *testing.T) {
	schema := NewSchema()
	posComp, _ := RegisterComponent[queryTestPosition](schema)
	velComp, _ := RegisterComponent[queryTestVelocity](schema)
	healthComp, _ := RegisterComponent[queryTestHealth](schema)

	type entitySetup struct {
		components []Component
		count      int
	}

	tests := []struct {
		name            string
		entitySetups    []entitySetup
		build           func() *Query
		expectedMatches int
	}{
		{
			name: "And query matches exact",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp}, 5},
				{[]Component{posComp}, 10},
				{[]Component{velComp}, 15},
			},
			build: func() *Query {
				q := &Query{}
				q.Required = posComp.Mask().Union(velComp.Mask())
				return q
			},
			expectedMatches: 5,
		},
		{
			name: "Or query matches either",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp}, 5},
				{[]Component{posComp}, 10},
				{[]Component{velComp}, 15},
			},
			build: func() *Query {
				q := &Query{}
				q.Node = Or(posComp, velComp)
				return q
			},
			expectedMatches: 30,
		},
		{
			name: "Not query excludes",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp}, 5},
				{[]Component{posComp}, 10},
				{[]Component{velComp}, 15},
				{[]Component{healthComp}, 20},
			},
			build: func() *Query {
				q := &Query{}
				q.Forbidden = velComp.Mask()
				return q
			},
			expectedMatches: 30, // 10 (posComp only) + 20 (healthComp only)
		},
		{
			name: "Complex query",
			entitySetups: []entitySetup{
				{[]Component{posComp, velComp, healthComp}, 5},
				{[]Component{posComp, velComp}, 10},
				{[]Component{posComp, healthComp}, 15},
				{[]Component{velComp, healthComp}, 20},
				{[]Component{posComp}, 25},
				{[]Component{velComp}, 30},
				{[]Component{healthComp}, 35},
			},
			build: func() *Query {
				q := &Query{}
				q.Node = Or(And(posComp, velComp), And(posComp, healthComp))
				return q
			},
			expectedMatches: 30, // (P AND V) OR (P AND H): the 5-count archetype satisfies both and is counted once
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world, err := NewWorld(schema)
			if err != nil {
				t.Fatalf("failed to create world: %v", err)
			}
			for _, setup := range tt.entitySetups {
				for i := 0; i < setup.count; i++ {
					if _, err := world.CreateEntity(setup.components...); err != nil {
						t.Fatalf("failed to create entity: %v", err)
					}
				}
			}

			query := tt.build()
			query.world = world
			query.Update()
			matchCount, err := query.Count()
			if err != nil {
				t.Fatalf("unexpected error counting query: %v", err)
			}

			if matchCount != tt.expectedMatches {
				t.Errorf("Query matched %d entities, want %d", matchCount, tt.expectedMatches)
			}
		})
	}
}

// TestQueryWithCursor tests cursor-based entity iteration.
func TestQueryWithCursor(t *testing.T) {
	schema := NewSchema()
	posComp, _ := RegisterComponent[queryTestPosition](schema)
	velComp, _ := RegisterComponent[queryTestVelocity](schema)
	healthComp, _ := RegisterComponent[queryTestHealth](schema)

	tests := []struct {
		name          string
		entityTypes   [][]Component
		required      Mask64
		expectedCount int
	}{
		{
			name: "Query with position",
			entityTypes: [][]Component{
				{posComp},
				{posComp, velComp},
				{velComp},
			},
			required:      posComp.Mask(),
			expectedCount: 20,
		},
		{
			name: "Query with position and velocity",
			entityTypes: [][]Component{
				{posComp},
				{posComp, velComp},
				{velComp},
			},
			required:      posComp.Mask().Union(velComp.Mask()),
			expectedCount: 10,
		},
		{
			name: "Query with no matches",
			entityTypes: [][]Component{
				{posComp},
				{velComp},
			},
			required:      healthComp.Mask(),
			expectedCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			world, err := NewWorld(schema)
			if err != nil {
				t.Fatalf("failed to create world: %v", err)
			}
			for _, componentSet := range tt.entityTypes {
				for i := 0; i < 10; i++ {
					if _, err := world.CreateEntity(componentSet...); err != nil {
						t.Fatalf("failed to create entity: %v", err)
					}
				}
			}

			query := NewQuery(world)
			query.Required = tt.required
			query.Update()

			count1 := 0
			cursor := NewCursor(query)
			for cursor.Next() {
				count1++
			}

			count2, err := query.Count()
			if err != nil {
				t.Fatalf("unexpected error counting query: %v", err)
			}

			if count1 != count2 {
				t.Errorf("Cursor counts inconsistent: %d vs %d", count1, count2)
			}
			if count1 != tt.expectedCount {
				t.Errorf("Query matched %d entities, want %d", count1, tt.expectedCount)
			}
		})
	}
}

// TestQueryComponentAccess tests accessing component data through queries.
func TestQueryComponentAccess(t *testing.T) {
	schema := NewSchema()
	posComp, _ := RegisterComponent[queryTestPosition](schema)
	velComp, _ := RegisterComponent[queryTestVelocity](schema)

	world, err := NewWorld(schema)
	if err != nil {
		t.Fatalf("failed to create world: %v", err)
	}

	for i := 0; i < 10; i++ {
		id, err := world.CreateEntity(posComp)
		if err != nil {
			t.Fatalf("failed to create entity: %v", err)
		}
		pos, _ := GetComponent(world, id, posComp)
		pos.X, pos.Y = float64(i), float64(i*2)

		if err := world.AddComponent(id, velComp); err != nil {
			t.Fatalf("failed to add velocity: %v", err)
		}
		vel, _ := GetComponent(world, id, velComp)
		vel.X, vel.Y = float64(i)*0.1, float64(i)*0.2
	}

	query := NewQuery(world)
	query.Required = posComp.Mask().Union(velComp.Mask())
	query.Update()

	for entity := range query.Entities() {
		pos, err := GetComponent(world, entity, posComp)
		if err != nil {
			t.Fatalf("failed to get position: %v", err)
		}
		vel, err := GetComponent(world, entity, velComp)
		if err != nil {
			t.Fatalf("failed to get velocity: %v", err)
		}
		pos.X += vel.X
		pos.Y += vel.Y
	}

	query.Update()
	for entity := range query.Entities() {
		pos, _ := GetComponent(world, entity, posComp)
		vel, _ := GetComponent(world, entity, velComp)

		expectedX := pos.X - vel.X
		expectedY := pos.Y - vel.Y

		if !almostEqual(expectedX, vel.X*10, 0.0001) || !almostEqual(expectedY/2, vel.X*10, 0.0001) {
			t.Errorf("Position {%v, %v} with velocity {%v, %v} doesn't match expected pattern",
				pos.X-vel.X, pos.Y-vel.Y, vel.X, vel.Y)
		}
	}
}

// TestQueryCountRespectsIncludeDisabled checks that Count() applies the
// same effectively-enabled filter Entities()/Cursor apply, agreeing with
// a Cursor-walked count in both modes (spec §8 property 10).
func TestQueryCountRespectsIncludeDisabled(t *testing.T) {
	schema := NewSchema()
	posComp, _ := RegisterComponent[queryTestPosition](schema)

	world, err := NewWorld(schema)
	if err != nil {
		t.Fatalf("failed to create world: %v", err)
	}

	ids := make([]EntityID, 10)
	for i := range ids {
		id, err := world.CreateEntity(posComp)
		if err != nil {
			t.Fatalf("CreateEntity failed: %v", err)
		}
		ids[i] = id
	}
	for _, id := range ids[:3] {
		if err := world.SetEnabled(id, false); err != nil {
			t.Fatalf("SetEnabled failed: %v", err)
		}
	}

	query := NewQuery(world)
	query.Required = posComp.Mask()
	query.Update()

	count, err := query.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 7 {
		t.Fatalf("Count() = %d, want 7 with 3 of 10 entities disabled", count)
	}

	cursorCount := 0
	cursor := NewCursor(query)
	for cursor.Next() {
		cursorCount++
	}
	if cursorCount != count {
		t.Fatalf("Count() = %d disagrees with Cursor-walked count %d", count, cursorCount)
	}

	query.IncludeDisabled = true
	query.Update()
	total, err := query.Count()
	if err != nil {
		t.Fatalf("Count with IncludeDisabled failed: %v", err)
	}
	if total != 10 {
		t.Fatalf("Count() with IncludeDisabled = %d, want 10", total)
	}
}

func almostEqual(a, b, epsilon float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < epsilon
}
