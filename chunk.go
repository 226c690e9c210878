package ecs

import "github.com/TheBitDrifter/table"

// Definition is the triple of bitmasks identifying an archetype (spec
// §4.C): the set of components (table-backed, one column each), the set
// of array-element types any entity in this archetype currently has
// allocated, and the set of tags present. Two Definitions with equal
// masks are the same archetype; Definition is comparable, and the chunk
// index compares it against each Chunk's stored Definition on lookup.
type Definition struct {
	Components Mask64
	Arrays     Mask64
	Tags       Mask64
}

// Key returns the archetype key: a hash mixing all three masks, stable
// within one process run. Collisions are possible in principle (not in
// practice for the bit widths involved here) and are resolved by the
// chunk index falling back to full Definition equality: it compares the
// Definition stored in the Chunk under a key, and when a different
// Definition already holds that key, it indexes the new Chunk under the
// next free key instead.
func (d Definition) Key() uint64 {
	return d.Components.Hash() ^ rotl(d.Arrays.Hash(), 11) ^ rotl(d.Tags.Hash(), 23)
}

// Equal reports whether d and other identify the same archetype.
func (d Definition) Equal(other Definition) bool {
	return d.Components == other.Components && d.Arrays == other.Arrays && d.Tags == other.Tags
}

// Chunk is the storage block for every entity sharing one Definition: a
// dense table.Table (one typed column per set component bit, entity ids
// as the row order) plus the array/tag masks that complete its archetype
// identity despite not being materialized as columns (spec §4.D).
//
// Chunk wraps table.Table the way the teacher's archetype wraps it, but
// generalizes identity to the three-mask Definition rather than a single
// component-only signature, and tracks a mutation counter so borrowed
// component pointers can be checked against accidental use-after-move
// (spec §5).
type Chunk struct {
	key        uint64
	definition Definition
	table      table.Table
	accessors  map[uint8]componentAccessor
	mutation   uint64
}

func newChunk(schema *Schema, entryIndex table.EntryIndex, key uint64, def Definition, components []Component) (*Chunk, error) {
	elementTypes := make([]table.ElementType, len(components))
	accessors := make(map[uint8]componentAccessor, len(components))
	for i, c := range components {
		elementTypes[i] = c
		accessors[c.Index()] = c.newAccessor()
	}
	tbl, err := table.NewTableBuilder().
		WithSchema(schema.tableSchema).
		WithEntryIndex(entryIndex).
		WithElementTypes(elementTypes...).
		WithEvents(Config.ChunkEvents).
		Build()
	if err != nil {
		return nil, err
	}
	return &Chunk{
		key:        key,
		definition: def,
		table:      tbl,
		accessors:  accessors,
	}, nil
}

// Key returns the archetype key this Chunk is indexed under.
func (c *Chunk) Key() uint64 { return c.key }

// Definition returns the archetype this Chunk stores.
func (c *Chunk) Definition() Definition { return c.definition }

// Table returns the underlying table.Table, exposed for collaborators
// (serializers, debug proxies) that need direct row access.
func (c *Chunk) Table() table.Table { return c.table }

// Len returns the number of entities (rows) currently in this Chunk.
func (c *Chunk) Len() int { return c.table.Length() }

// Mutation returns the chunk's current mutation counter, bumped on every
// structural change (add row, remove row, move in/out). Borrowed
// component pointers are only valid while this counter is unchanged.
func (c *Chunk) Mutation() uint64 { return c.mutation }

func (c *Chunk) bump() { c.mutation++ }

// ComponentBytesAt returns the raw bytes of a single component value at
// row. Fails with MissingError if comp's bit is unset in this Chunk's
// Definition.
func (c *Chunk) ComponentBytesAt(row int, comp Component) ([]byte, error) {
	acc, ok := c.accessors[comp.Index()]
	if !ok {
		return nil, MissingError{Subject: "component"}
	}
	return acc.bytesAt(c.table, row), nil
}

// ColumnBytes returns a raw byte span over the entire column for comp,
// across all rows in canonical (ascending-row) order. Length is
// Len()*sizeof(T).
func (c *Chunk) ColumnBytes(comp Component) ([]byte, error) {
	acc, ok := c.accessors[comp.Index()]
	if !ok {
		return nil, MissingError{Subject: "component"}
	}
	return acc.columnBytes(c.table, c.Len()), nil
}

// setComponentBytesAt overwrites a single component value in place. This
// is a value mutation (spec §4.E SetComponentBytes), not a structural
// one: it does not bump the mutation counter and fires no callback.
func (c *Chunk) setComponentBytesAt(row int, comp Component, data []byte) error {
	acc, ok := c.accessors[comp.Index()]
	if !ok {
		return MissingError{Subject: "component"}
	}
	return acc.setBytesAt(c.table, row, data)
}
