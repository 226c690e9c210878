package ecs

import "github.com/TheBitDrifter/table"

// EntityID identifies an entity within exactly one World. Id 0 is
// reserved as "none" (spec §3): it never names a live entity and is the
// sentinel value for "no parent" / "no reference target".
type EntityID uint32

// entityState is the lifecycle state of a slot (spec §4.E state machine).
type entityState uint8

const (
	stateEnabled entityState = iota
	stateDisabled
	stateImplicitlyDisabled
	stateDestroyed
)

// effectiveEnabled reports whether this entity's state considers it
// effectively enabled.
func (s entityState) effectiveEnabled() bool { return s == stateEnabled }

// arrayBuffer is the per-slot heap allocation backing one array-element
// type (spec §4.E). data holds the live []T as an any; resize replaces it
// in place (preserving the first min(old,new) elements) and returns the
// new slice, also as an any.
type arrayBuffer struct {
	data     any
	length   int
	elemSize uintptr
	resize   func(newLen int) any
}

// entitySlot is the per-entity directory row, indexed by id-1 (spec §3
// EntitySlot). EntityID (id) is this module's own stable handle — FIFO
// free-list reused per spec.md §9's resolved Open Question, and assignable
// to an arbitrary value via InitializeEntity — which is deliberately a
// different number from tableEntryID, the identity the Chunk's shared
// table.EntryIndex actually assigned this row when it was created via
// table.Table.NewEntries. World.entryFor resolves a live row by looking up
// tableEntryID, never by assuming id and tableEntryID coincide (the
// teacher's entity type gets away with id == entry.ID() because it never
// reuses ids or lets a caller pick one; this module does both, so the two
// numbering spaces must stay independent — see DESIGN.md).
type entitySlot struct {
	id           EntityID
	tableEntryID table.EntryID
	generation   uint32
	archetypeKey uint64
	state        entityState
	userEnabled  bool

	parent     EntityID
	children   []EntityID
	references []EntityID
	arrays     map[uint8]*arrayBuffer
}

func (s *entitySlot) live() bool {
	return s.id != 0 && s.state != stateDestroyed
}

func (s *entitySlot) reset(id EntityID, archetypeKey uint64, tableEntryID table.EntryID) {
	s.id = id
	s.tableEntryID = tableEntryID
	s.archetypeKey = archetypeKey
	s.state = stateEnabled
	s.userEnabled = true
	s.parent = 0
	s.children = nil
	s.references = nil
	s.arrays = nil
}
