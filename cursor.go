package ecs

import (
	"iter"

	"github.com/TheBitDrifter/table"
)

// Cursor walks a Query's materialized chunk list row by row, locking the
// World for its lifetime the way the teacher's Cursor locks storage, so
// structural mutation observed mid-iteration is deferred to the
// operation queue instead of invalidating the rows being walked (spec
// §9). Cursor reads Query.Chunks(), so it shares the same
// OrderViolationError discipline: the Query must have been Updated at
// least once first.
type Cursor struct {
	query *Query
	world *World

	chunkIndex int
	row        int
	remaining  int

	chunks      []*Chunk
	initialized bool
}

// NewCursor creates a Cursor over query's current match set.
func NewCursor(query *Query) *Cursor {
	return &Cursor{query: query, world: query.world}
}

func (c *Cursor) effectivelyEnabledAt(chunk *Chunk, row int) bool {
	return c.world.rowEffectivelyEnabled(chunk, row, c.query.IncludeDisabled)
}

// Initialize locks the World and snapshots the Query's current match set.
// Returns OrderViolationError if the Query has never been Updated.
func (c *Cursor) Initialize() error {
	if c.initialized {
		return nil
	}
	chunks, err := c.query.Chunks()
	if err != nil {
		return err
	}
	c.world.Lock()
	c.chunks = append([]*Chunk(nil), chunks...)
	c.chunkIndex = 0
	c.row = 0
	if len(c.chunks) > 0 {
		c.remaining = c.chunks[0].Len()
	}
	c.initialized = true
	return nil
}

// Next advances to the next matching, effectively-enabled row (unless
// IncludeDisabled is set), returning false once the match set is
// exhausted and releasing the World lock.
func (c *Cursor) Next() bool {
	if !c.initialized {
		if err := c.Initialize(); err != nil {
			return false
		}
	}
	for {
		for c.row < c.remaining {
			row := c.row
			c.row++
			if c.effectivelyEnabledAt(c.chunks[c.chunkIndex], row) {
				return true
			}
		}
		c.chunkIndex++
		if c.chunkIndex >= len(c.chunks) {
			c.Reset()
			return false
		}
		c.remaining = c.chunks[c.chunkIndex].Len()
		c.row = 0
	}
}

// Reset releases the World lock and clears cursor state. Called
// automatically when iteration is exhausted.
func (c *Cursor) Reset() {
	if c.initialized {
		c.world.Unlock()
	}
	c.chunkIndex = 0
	c.row = 0
	c.remaining = 0
	c.chunks = nil
	c.initialized = false
}

// CurrentEntity returns the EntityID at the cursor's current position
// (valid only immediately after a Next() that returned true).
func (c *Cursor) CurrentEntity() (EntityID, error) {
	entry, err := c.chunks[c.chunkIndex].table.Entry(c.row - 1)
	if err != nil {
		return 0, err
	}
	return c.world.entityForTableEntry(entry.ID()), nil
}

// CurrentTable returns the table.Table and row backing the cursor's
// current position, for collaborators doing direct column access.
func (c *Cursor) CurrentTable() (table.Table, int) {
	return c.chunks[c.chunkIndex].table, c.row - 1
}

// Entities returns an iterator over every EntityID the cursor would
// visit, skipping effectively-disabled entities unless IncludeDisabled is
// set. Callers needing direct column access can pair this with
// World.GetComponent/GetComponentBytes, which resolve the entity's
// current chunk and row themselves.
func (q *Query) Entities() iter.Seq[EntityID] {
	return func(yield func(EntityID) bool) {
		cur := NewCursor(q)
		for cur.Next() {
			id, err := cur.CurrentEntity()
			if err != nil {
				cur.Reset()
				return
			}
			if !yield(id) {
				cur.Reset()
				return
			}
		}
	}
}
