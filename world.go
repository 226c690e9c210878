package ecs

import (
	"unsafe"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
	"github.com/TheBitDrifter/table"
)

// World owns the slot directory, the free-id list, the chunk index, the
// Schema, and the Notifier's four callback vectors: the entry point for
// every public operation (spec §4.E). It generalizes the teacher's
// storage type from a single component-only archetype map to the full
// three-mask Definition, and adds the hierarchy/reference/array/notifier
// machinery the teacher leaves to its downstream "Bappa Framework"
// consumer.
type World struct {
	schema     *Schema
	entryIndex table.EntryIndex

	slots   []entitySlot
	freeIDs []EntityID

	// entryOwner maps a table.EntryID (1-based, shared across every chunk's
	// table through entryIndex) back to the EntityID that currently owns
	// it, the inverse of entitySlot.tableEntryID. Cursor/CurrentEntity walk
	// chunk rows and only ever see a table.Entry, so they need this to
	// recover the World's own id rather than assuming the two coincide.
	entryOwner []EntityID

	chunks     map[uint64]*Chunk
	chunkOrder []*Chunk
	emptyKey   uint64

	// locks mirrors the teacher's storage.locks mask.Mask256: a bitset of
	// nested holds (a Cursor iterating, or a collaborator's AddLock) that
	// defer structural mutation via the operation queue until fully
	// released. Notifier callbacks do not take a lock.
	locks          mask.Mask256
	operationQueue operationQueue

	notifier Notifier
	disposed bool
}

// NewWorld creates a World over schema, with the default empty archetype
// chunk already present (spec §3 World: "a default empty archetype chunk
// exists from construction").
func NewWorld(schema *Schema) (*World, error) {
	w := &World{
		schema:     schema,
		entryIndex: table.Factory.NewEntryIndex(),
		chunks:     make(map[uint64]*Chunk),
	}
	empty := Definition{}
	chunk, err := newChunk(w.schema, w.entryIndex, empty.Key(), empty, nil)
	if err != nil {
		return nil, err
	}
	w.chunks[chunk.key] = chunk
	w.chunkOrder = append(w.chunkOrder, chunk)
	w.emptyKey = chunk.key
	return w, nil
}

// Schema returns the Schema this World registers types against.
func (w *World) Schema() *Schema { return w.schema }

// Notifier returns the World's change notifier, for subscribing
// listeners.
func (w *World) Notifier() *Notifier { return &w.notifier }

// Locked reports whether any lock bit is held (a Cursor iterating, or a
// collaborator's AddLock hold).
func (w *World) Locked() bool { return !w.locks.IsEmpty() }

// Lock acquires lock bit 0, the default lock used by Cursor/Query
// iteration to defer structural mutation.
func (w *World) Lock() { w.locks.Mark(0) }

// Unlock releases lock bit 0 and, once no lock bit remains held, drains
// any operations queued while locked.
func (w *World) Unlock() { w.unmark(0) }

// AddLock acquires an arbitrary lock bit, for collaborators nesting their
// own hold beyond the default Cursor lock.
func (w *World) AddLock(bit uint32) { w.locks.Mark(bit) }

// RemoveLock releases bit and drains the operation queue once fully
// unlocked.
func (w *World) RemoveLock(bit uint32) { w.unmark(bit) }

func (w *World) unmark(bit uint32) {
	w.locks.Unmark(bit)
	if w.locks.IsEmpty() {
		w.operationQueue.drain(w)
	}
}

func (w *World) checkDisposed() error {
	if w.disposed {
		return DisposedError{}
	}
	return nil
}

func (w *World) slotFor(id EntityID) (*entitySlot, error) {
	if id == 0 || int(id) > len(w.slots) {
		return nil, MissingError{Subject: "entity", Entity: id}
	}
	slot := &w.slots[id-1]
	if !slot.live() {
		return nil, MissingError{Subject: "entity", Entity: id}
	}
	return slot, nil
}

// entryFor returns the table.Entry tracking id's current row/table,
// trusted as the source of truth for row position the way the teacher's
// entity.entry() trusts globalEntryIndex. It resolves through the slot's
// tableEntryID, not id itself: id is this World's own FIFO-reused handle,
// while tableEntryID is whatever the shared table.EntryIndex actually
// assigned the row at creation time, and the two numbering spaces are not
// required to coincide (see entitySlot).
func (w *World) entryFor(id EntityID) (table.Entry, error) {
	slot, err := w.slotFor(id)
	if err != nil {
		return nil, err
	}
	entry, err := w.entryIndex.Entry(int(slot.tableEntryID) - 1)
	if err != nil {
		panic(bark.AddTrace(err))
	}
	return entry, nil
}

// bindTableEntry records that teID (as returned by a table.Table's
// NewEntries) is now owned by id, growing entryOwner as needed.
func (w *World) bindTableEntry(teID table.EntryID, id EntityID) {
	for int(teID) > len(w.entryOwner) {
		w.entryOwner = append(w.entryOwner, 0)
	}
	w.entryOwner[teID-1] = id
}

// entityForTableEntry recovers the EntityID owning teID, the inverse of
// entitySlot.tableEntryID. Used by Cursor, which only ever sees raw
// table.Entry values while walking chunk rows.
func (w *World) entityForTableEntry(teID table.EntryID) EntityID {
	if teID == 0 || int(teID) > len(w.entryOwner) {
		return 0
	}
	return w.entryOwner[teID-1]
}

// rowEffectivelyEnabled reports whether the entity sitting at chunk row is
// effectively enabled, or unconditionally true when includeDisabled is
// set. Cursor (row-by-row iteration) and Query.Count (aggregate) both
// call this so the two can never disagree about what a Query "contains".
func (w *World) rowEffectivelyEnabled(chunk *Chunk, row int, includeDisabled bool) bool {
	if includeDisabled {
		return true
	}
	entry, err := chunk.table.Entry(row)
	if err != nil {
		return false
	}
	id := w.entityForTableEntry(entry.ID())
	slot, err := w.slotFor(id)
	if err != nil {
		return false
	}
	return slot.state.effectiveEnabled()
}

func (w *World) allocID() EntityID {
	if len(w.freeIDs) > 0 {
		id := w.freeIDs[0]
		w.freeIDs = w.freeIDs[1:]
		return id
	}
	w.slots = append(w.slots, entitySlot{})
	return EntityID(len(w.slots))
}

// chunkFor returns the Chunk for def, creating it (and any new
// table.Table columns it needs) if this is the first entity to reach
// this archetype.
func (w *World) chunkFor(def Definition) (*Chunk, error) {
	key := def.Key()
	for {
		chunk, ok := w.chunks[key]
		if !ok {
			break
		}
		if chunk.definition.Equal(def) {
			return chunk, nil
		}
		// A different Definition already holds this key: probe the next one.
		key++
	}
	components := make([]Component, 0, def.Components.Popcount())
	for idx := uint8(1); idx <= MaskBits; idx++ {
		if !def.Components.Contains(idx) {
			continue
		}
		comp, ok := w.schema.componentByIndex[idx]
		if !ok {
			return nil, InvalidError{Reason: "component index not registered in this world's schema"}
		}
		components = append(components, comp)
	}
	chunk, err := newChunk(w.schema, w.entryIndex, key, def, components)
	if err != nil {
		return nil, err
	}
	w.chunks[key] = chunk
	w.chunkOrder = append(w.chunkOrder, chunk)
	return chunk, nil
}

// CreateEntity creates a fresh entity, optionally with an initial set of
// components, in the Enabled state, homed in the default empty chunk if
// no components are given (spec §4.E CreateEntity).
func (w *World) CreateEntity(components ...Component) (EntityID, error) {
	if err := w.checkDisposed(); err != nil {
		return 0, err
	}
	def := Definition{}
	for _, c := range components {
		def.Components = def.Components.Set(c.Index())
	}
	chunk, err := w.chunkFor(def)
	if err != nil {
		return 0, err
	}
	id := w.allocID()
	entries, err := chunk.table.NewEntries(1)
	if err != nil {
		return 0, err
	}
	chunk.bump()
	w.slots[id-1].reset(id, chunk.key, entries[0].ID())
	w.bindTableEntry(entries[0].ID(), id)
	w.notifier.fireEntityCreated(id)
	return id, nil
}

// InitializeEntity establishes a slot at exactly id (for replay or
// deserialization), padding the free list with any intermediate ids (spec
// §4.E InitializeEntity). Fails with AlreadyPresentError if id is already
// live.
func (w *World) InitializeEntity(id EntityID, components ...Component) error {
	if err := w.checkDisposed(); err != nil {
		return err
	}
	if id == 0 {
		return InvalidError{Reason: "cannot initialize entity id 0"}
	}
	if int(id) <= len(w.slots) && w.slots[id-1].live() {
		return AlreadyPresentError{Subject: "entity", Entity: id}
	}
	for int(id) > len(w.slots) {
		w.slots = append(w.slots, entitySlot{})
		padID := EntityID(len(w.slots))
		if padID != id {
			w.freeIDs = append(w.freeIDs, padID)
		}
	}
	// id may itself be a previously-padded id being filled in on replay: it
	// must not remain in freeIDs once its slot goes live, or a later
	// CreateEntity could allocID() the same id and overwrite this slot.
	w.freeIDs = removeEntity(w.freeIDs, id)

	def := Definition{}
	for _, c := range components {
		def.Components = def.Components.Set(c.Index())
	}
	chunk, err := w.chunkFor(def)
	if err != nil {
		return err
	}
	entries, err := chunk.table.NewEntries(1)
	if err != nil {
		return err
	}
	chunk.bump()
	w.slots[id-1].reset(id, chunk.key, entries[0].ID())
	w.bindTableEntry(entries[0].ID(), id)
	w.notifier.fireEntityCreated(id)
	return nil
}

// ContainsEntity reports whether id names a currently live entity.
func (w *World) ContainsEntity(id EntityID) bool {
	_, err := w.slotFor(id)
	return err == nil
}

// DestroyEntity removes id: disposes its arrays/children/references,
// recursively destroys descendants if cascade is true (otherwise orphans
// them), removes its chunk row, and pushes its id onto the free list
// (spec §4.E DestroyEntity).
func (w *World) DestroyEntity(id EntityID, cascade bool) error {
	if err := w.checkDisposed(); err != nil {
		return err
	}
	if w.Locked() {
		w.operationQueue.enqueue(destroyEntityOp{id: id, generation: w.generationOf(id), cascade: cascade})
		return nil
	}
	slot, err := w.slotFor(id)
	if err != nil {
		return err
	}

	children := append([]EntityID(nil), slot.children...)
	if cascade {
		for _, child := range children {
			if err := w.DestroyEntity(child, true); err != nil {
				return err
			}
		}
	} else {
		for _, child := range children {
			childSlot, err := w.slotFor(child)
			if err != nil {
				continue
			}
			oldParent := childSlot.parent
			childSlot.parent = 0
			w.recomputeSubtree(child, false)
			w.notifier.fireParentChanged(child, oldParent, 0)
		}
	}

	if parent := slot.parent; parent != 0 {
		if parentSlot, err := w.slotFor(parent); err == nil {
			parentSlot.children = removeEntity(parentSlot.children, id)
		}
	}

	entry, err := w.entryFor(id)
	if err != nil {
		return err
	}
	chunk := w.chunks[slot.archetypeKey]
	if _, err := chunk.table.DeleteEntries(entry.Index()); err != nil {
		return err
	}
	chunk.bump()

	slot.generation++
	slot.id = 0
	slot.state = stateDestroyed
	slot.parent = 0
	slot.children = nil
	slot.references = nil
	slot.arrays = nil

	w.freeIDs = append(w.freeIDs, id)
	w.notifier.fireEntityDestroyed(id)
	return nil
}

func removeEntity(list []EntityID, id EntityID) []EntityID {
	for i, v := range list {
		if v == id {
			return append(list[:i], list[i+1:]...)
		}
	}
	return list
}

// moveEntity transfers id from its current Chunk to the Chunk for dest,
// updating the slot's archetypeKey. table.Table.TransferEntries performs
// the columnar copy-intersection-and-zero described in spec §4.D Move.
func (w *World) moveEntity(id EntityID, dest Definition) (*Chunk, error) {
	slot, err := w.slotFor(id)
	if err != nil {
		return nil, err
	}
	srcChunk := w.chunks[slot.archetypeKey]
	dstChunk, err := w.chunkFor(dest)
	if err != nil {
		return nil, err
	}
	entry, err := w.entryFor(id)
	if err != nil {
		return nil, err
	}
	if err := entry.Table().TransferEntries(dstChunk.table, entry.Index()); err != nil {
		return nil, err
	}
	srcChunk.bump()
	dstChunk.bump()
	slot.archetypeKey = dstChunk.key
	return dstChunk, nil
}

// AddComponent adds the zero-valued comp to id, moving it to the
// archetype with that bit set (spec §4.E AddComponent).
func (w *World) AddComponent(id EntityID, comp Component) error {
	if w.Locked() {
		w.operationQueue.enqueue(addComponentOp{id: id, generation: w.generationOf(id), comp: comp})
		return nil
	}
	slot, err := w.slotFor(id)
	if err != nil {
		return err
	}
	chunk := w.chunks[slot.archetypeKey]
	if chunk.definition.Components.Contains(comp.Index()) {
		return AlreadyPresentError{Subject: "component", Entity: id}
	}
	dest := chunk.definition
	dest.Components = dest.Components.Set(comp.Index())
	if _, err := w.moveEntity(id, dest); err != nil {
		return err
	}
	w.notifier.fireDataChanged(id, comp.Index(), DataChangeComponent, ChangeAdded)
	return nil
}

// RemoveComponent removes comp from id, moving it to the archetype with
// that bit cleared (spec §4.E RemoveComponent).
func (w *World) RemoveComponent(id EntityID, comp Component) error {
	if w.Locked() {
		w.operationQueue.enqueue(removeComponentOp{id: id, generation: w.generationOf(id), comp: comp})
		return nil
	}
	slot, err := w.slotFor(id)
	if err != nil {
		return err
	}
	chunk := w.chunks[slot.archetypeKey]
	if !chunk.definition.Components.Contains(comp.Index()) {
		return MissingError{Subject: "component", Entity: id}
	}
	dest := chunk.definition
	dest.Components = dest.Components.Clear(comp.Index())
	if _, err := w.moveEntity(id, dest); err != nil {
		return err
	}
	w.notifier.fireDataChanged(id, comp.Index(), DataChangeComponent, ChangeRemoved)
	return nil
}

// ContainsComponent reports whether id currently carries comp.
func (w *World) ContainsComponent(id EntityID, comp Component) (bool, error) {
	slot, err := w.slotFor(id)
	if err != nil {
		return false, err
	}
	chunk := w.chunks[slot.archetypeKey]
	return chunk.definition.Components.Contains(comp.Index()), nil
}

// GetComponent returns the interior pointer to id's value of component c.
// The pointer is borrowed: valid until the next structural mutation of
// id's chunk (spec §5).
func GetComponent[T any](w *World, id EntityID, c ComponentType[T]) (*T, error) {
	slot, err := w.slotFor(id)
	if err != nil {
		return nil, err
	}
	chunk := w.chunks[slot.archetypeKey]
	if !chunk.definition.Components.Contains(c.Index()) {
		return nil, MissingError{Subject: "component", Entity: id}
	}
	entry, err := w.entryFor(id)
	if err != nil {
		return nil, err
	}
	return c.Get(entry.Table(), entry.Index()), nil
}

// SetComponent overwrites id's value of component c in place. This is a
// value mutation, not a structural one: no callback fires (spec §4.E
// SetComponentBytes).
func SetComponent[T any](w *World, id EntityID, c ComponentType[T], value T) error {
	ptr, err := GetComponent(w, id, c)
	if err != nil {
		return err
	}
	*ptr = value
	return nil
}

// SetComponentBytes overwrites id's raw bytes for comp in place. Fails
// with InvalidError on a size mismatch.
func (w *World) SetComponentBytes(id EntityID, comp Component, data []byte) error {
	slot, err := w.slotFor(id)
	if err != nil {
		return err
	}
	chunk := w.chunks[slot.archetypeKey]
	if !chunk.definition.Components.Contains(comp.Index()) {
		return MissingError{Subject: "component", Entity: id}
	}
	entry, err := w.entryFor(id)
	if err != nil {
		return err
	}
	return chunk.setComponentBytesAt(entry.Index(), comp, data)
}

// GetComponentBytes returns the raw bytes of id's value of comp.
func (w *World) GetComponentBytes(id EntityID, comp Component) ([]byte, error) {
	slot, err := w.slotFor(id)
	if err != nil {
		return nil, err
	}
	chunk := w.chunks[slot.archetypeKey]
	entry, err := w.entryFor(id)
	if err != nil {
		return nil, err
	}
	return chunk.ComponentBytesAt(entry.Index(), comp)
}

// CreateArray allocates a length-element []T buffer for id under array
// type a, and moves id to the archetype with a's bit set in Arrays (spec
// §4.E CreateArray).
func CreateArray[T any](w *World, id EntityID, a ArrayElementType[T], length int) ([]T, error) {
	if w.Locked() {
		generation := w.generationOf(id)
		w.operationQueue.enqueue(createArrayOp{run: func(w *World) error {
			if !w.stillLive(id, generation) {
				return nil
			}
			_, err := CreateArray(w, id, a, length)
			return err
		}})
		return nil, nil
	}
	slot, err := w.slotFor(id)
	if err != nil {
		return nil, err
	}
	if slot.arrays == nil {
		slot.arrays = make(map[uint8]*arrayBuffer)
	}
	if _, exists := slot.arrays[a.Index()]; exists {
		return nil, AlreadyPresentError{Subject: "array", Entity: id}
	}
	buf := make([]T, length)
	var zero T
	holder := &arrayBuffer{data: buf, length: length, elemSize: unsafeSizeof(zero)}
	holder.resize = func(newLen int) any {
		current := holder.data.([]T)
		next := make([]T, newLen)
		copy(next, current)
		holder.data = next
		return next
	}
	slot.arrays[a.Index()] = holder

	chunk := w.chunks[slot.archetypeKey]
	dest := chunk.definition
	dest.Arrays = dest.Arrays.Set(a.Index())
	if _, err := w.moveEntity(id, dest); err != nil {
		delete(slot.arrays, a.Index())
		return nil, err
	}
	w.notifier.fireDataChanged(id, a.Index(), DataChangeArrayElement, ChangeAdded)
	return buf, nil
}

// GetArray returns id's current buffer for array type a.
func GetArray[T any](w *World, id EntityID, a ArrayElementType[T]) ([]T, error) {
	slot, err := w.slotFor(id)
	if err != nil {
		return nil, err
	}
	buf, ok := slot.arrays[a.Index()]
	if !ok {
		return nil, MissingError{Subject: "array", Entity: id}
	}
	return buf.data.([]T), nil
}

// ResizeArray grows or shrinks id's buffer for array type a, preserving
// the overlapping prefix. Resize to 0 is permitted.
func ResizeArray[T any](w *World, id EntityID, a ArrayElementType[T], newLength int) ([]T, error) {
	slot, err := w.slotFor(id)
	if err != nil {
		return nil, err
	}
	buf, ok := slot.arrays[a.Index()]
	if !ok {
		return nil, MissingError{Subject: "array", Entity: id}
	}
	next := buf.resize(newLength).([]T)
	buf.length = newLength
	return next, nil
}

// DestroyArray releases id's buffer for array type a and clears a's bit
// from the entity's archetype.
func (w *World) DestroyArray(id EntityID, a interface {
	Index() uint8
	Mask() Mask64
}) error {
	if w.Locked() {
		w.operationQueue.enqueue(destroyArrayOp{id: id, generation: w.generationOf(id), a: a})
		return nil
	}
	slot, err := w.slotFor(id)
	if err != nil {
		return err
	}
	if _, ok := slot.arrays[a.Index()]; !ok {
		return MissingError{Subject: "array", Entity: id}
	}
	delete(slot.arrays, a.Index())

	chunk := w.chunks[slot.archetypeKey]
	dest := chunk.definition
	dest.Arrays = dest.Arrays.Clear(a.Index())
	if _, err := w.moveEntity(id, dest); err != nil {
		return err
	}
	w.notifier.fireDataChanged(id, a.Index(), DataChangeArrayElement, ChangeRemoved)
	return nil
}

// ContainsArray reports whether id currently has a buffer for array type
// index.
func (w *World) ContainsArray(id EntityID, index uint8) (bool, error) {
	slot, err := w.slotFor(id)
	if err != nil {
		return false, err
	}
	_, ok := slot.arrays[index]
	return ok, nil
}

// AddTag sets tag's bit on id's archetype.
func (w *World) AddTag(id EntityID, tag TagType) error {
	if w.Locked() {
		w.operationQueue.enqueue(addTagOp{id: id, generation: w.generationOf(id), tag: tag})
		return nil
	}
	slot, err := w.slotFor(id)
	if err != nil {
		return err
	}
	chunk := w.chunks[slot.archetypeKey]
	if chunk.definition.Tags.Contains(tag.Index()) {
		return AlreadyPresentError{Subject: "tag", Entity: id}
	}
	dest := chunk.definition
	dest.Tags = dest.Tags.Set(tag.Index())
	if _, err := w.moveEntity(id, dest); err != nil {
		return err
	}
	w.notifier.fireDataChanged(id, tag.Index(), DataChangeTag, ChangeAdded)
	return nil
}

// RemoveTag clears tag's bit on id's archetype.
func (w *World) RemoveTag(id EntityID, tag TagType) error {
	if w.Locked() {
		w.operationQueue.enqueue(removeTagOp{id: id, generation: w.generationOf(id), tag: tag})
		return nil
	}
	slot, err := w.slotFor(id)
	if err != nil {
		return err
	}
	chunk := w.chunks[slot.archetypeKey]
	if !chunk.definition.Tags.Contains(tag.Index()) {
		return MissingError{Subject: "tag", Entity: id}
	}
	dest := chunk.definition
	dest.Tags = dest.Tags.Clear(tag.Index())
	if _, err := w.moveEntity(id, dest); err != nil {
		return err
	}
	w.notifier.fireDataChanged(id, tag.Index(), DataChangeTag, ChangeRemoved)
	return nil
}

// ContainsTag reports whether id currently carries tag.
func (w *World) ContainsTag(id EntityID, tag TagType) (bool, error) {
	slot, err := w.slotFor(id)
	if err != nil {
		return false, err
	}
	chunk := w.chunks[slot.archetypeKey]
	return chunk.definition.Tags.Contains(tag.Index()), nil
}

// wouldCycle reports whether parenting id under candidate would create a
// cycle, walking candidate's ancestor chain for id (spec §3 invariant 7,
// §8 property 7).
func (w *World) wouldCycle(id, candidate EntityID) bool {
	cur := candidate
	for cur != 0 {
		if cur == id {
			return true
		}
		if int(cur) > len(w.slots) {
			return false
		}
		cur = w.slots[cur-1].parent
	}
	return false
}

// SetParent establishes id as a child of parent (or orphans it, if parent
// is 0), rejecting self-parenting and cycles, and recomputing the
// effective-enabled state of id's subtree (spec §4.E SetParent).
//
// SetParent(id, 0) on an entity with no existing parent is treated as a
// no-op structurally, but still fires ParentChanged(id, 0, 0, userData):
// an observer subscribed to every parent-change call should see every
// call, and a silently swallowed no-op is a worse surprise for a
// reentrant observer than one extra event with old==new==0 (spec §9 open
// question, resolved).
func (w *World) SetParent(id, parent EntityID) error {
	if w.Locked() {
		w.operationQueue.enqueue(setParentOp{id: id, generation: w.generationOf(id), parent: parent})
		return nil
	}
	slot, err := w.slotFor(id)
	if err != nil {
		return err
	}
	if parent == id {
		return InvalidError{Reason: "entity cannot be its own parent"}
	}
	if parent != 0 {
		if _, err := w.slotFor(parent); err != nil {
			return err
		}
		if w.wouldCycle(id, parent) {
			return InvalidError{Reason: "SetParent would create a cycle"}
		}
	}

	oldParent := slot.parent
	if oldParent == parent {
		w.notifier.fireParentChanged(id, oldParent, parent)
		return nil
	}

	if oldParent != 0 {
		if oldSlot, err := w.slotFor(oldParent); err == nil {
			oldSlot.children = removeEntity(oldSlot.children, id)
		}
	}
	slot.parent = parent
	if parent != 0 {
		parentSlot, _ := w.slotFor(parent)
		parentSlot.children = append(parentSlot.children, id)
	}

	parentDisabled := false
	if parent != 0 {
		parentSlot, _ := w.slotFor(parent)
		parentDisabled = !parentSlot.state.effectiveEnabled()
	}
	w.recomputeSubtree(id, parentDisabled)

	w.notifier.fireParentChanged(id, oldParent, parent)
	return nil
}

// Parent returns id's current parent, or 0 if it has none.
func (w *World) Parent(id EntityID) (EntityID, error) {
	slot, err := w.slotFor(id)
	if err != nil {
		return 0, err
	}
	return slot.parent, nil
}

// GetChildren returns a snapshot of id's children. The returned slice is
// a copy; it does not track subsequent mutation (spec §4.E GetChildren:
// "lazy view...invalidated by any child mutation" — this module returns
// an eager copy instead, since Go slices have no live-view primitive
// cheap enough to justify one here; see DESIGN.md).
func (w *World) GetChildren(id EntityID) ([]EntityID, error) {
	slot, err := w.slotFor(id)
	if err != nil {
		return nil, err
	}
	return append([]EntityID(nil), slot.children...), nil
}

// recomputeSubtree recomputes id's effective state given whether its
// parent is currently effectively disabled, then recurses into children
// using id's own freshly computed effective-disabled-ness (spec §3
// invariant 5, §4.E state machine).
func (w *World) recomputeSubtree(id EntityID, parentDisabled bool) {
	slot, err := w.slotFor(id)
	if err != nil {
		return
	}
	var state entityState
	switch {
	case !slot.userEnabled:
		state = stateDisabled
	case parentDisabled:
		state = stateImplicitlyDisabled
	default:
		state = stateEnabled
	}
	slot.state = state
	effDisabled := !state.effectiveEnabled()
	for _, child := range slot.children {
		w.recomputeSubtree(child, effDisabled)
	}
}

// IsEnabled reports id's effective enabled state: false if id itself or
// any ancestor is Disabled (spec §4.E IsEnabled).
func (w *World) IsEnabled(id EntityID) (bool, error) {
	slot, err := w.slotFor(id)
	if err != nil {
		return false, err
	}
	return slot.state.effectiveEnabled(), nil
}

// SetEnabled records id's own enabled intent and recomputes its
// subtree's effective state. SetEnabled(true) restores Enabled only if no
// ancestor is disabled; otherwise id becomes/stays ImplicitlyDisabled
// while remembering the restored intent (spec §4.E SetEnabled, state
// machine).
func (w *World) SetEnabled(id EntityID, enabled bool) error {
	if w.Locked() {
		w.operationQueue.enqueue(setEnabledOp{id: id, generation: w.generationOf(id), enabled: enabled})
		return nil
	}
	slot, err := w.slotFor(id)
	if err != nil {
		return err
	}
	slot.userEnabled = enabled
	parentDisabled := false
	if slot.parent != 0 {
		if parentSlot, err := w.slotFor(slot.parent); err == nil {
			parentDisabled = !parentSlot.state.effectiveEnabled()
		}
	}
	w.recomputeSubtree(id, parentDisabled)
	return nil
}

// AddReference appends target to id's reference list and returns its
// 1-based handle. Handles are stable for the lifetime of id (spec §4.E
// AddReference).
func (w *World) AddReference(id, target EntityID) (int, error) {
	slot, err := w.slotFor(id)
	if err != nil {
		return 0, err
	}
	slot.references = append(slot.references, target)
	return len(slot.references), nil
}

// GetReference returns the target at handle, or 0 if that handle was
// removed.
func (w *World) GetReference(id EntityID, handle int) (EntityID, error) {
	slot, err := w.slotFor(id)
	if err != nil {
		return 0, err
	}
	if handle < 1 || handle > len(slot.references) {
		return 0, InvalidError{Reason: "reference handle out of range"}
	}
	return slot.references[handle-1], nil
}

// SetReference overwrites the target at handle in place, valid even if
// that handle was previously removed.
func (w *World) SetReference(id EntityID, handle int, target EntityID) error {
	slot, err := w.slotFor(id)
	if err != nil {
		return err
	}
	if handle < 1 || handle > len(slot.references) {
		return InvalidError{Reason: "reference handle out of range"}
	}
	slot.references[handle-1] = target
	return nil
}

// RemoveReference clears the target at handle without compacting the
// list, so every other handle stays stable (spec §3 invariant 6).
func (w *World) RemoveReference(id EntityID, handle int) error {
	return w.SetReference(id, handle, 0)
}

// ContainsReference reports whether handle is in range and currently
// non-zero.
func (w *World) ContainsReference(id EntityID, handle int) (bool, error) {
	target, err := w.GetReference(id, handle)
	if err != nil {
		return false, err
	}
	return target != 0, nil
}

// Clear destroys all entities in one pass and empties the chunk index
// except for the default empty chunk (spec §4.E Clear).
func (w *World) Clear() error {
	if err := w.checkDisposed(); err != nil {
		return err
	}
	for i := range w.slots {
		id := EntityID(i + 1)
		if w.slots[i].live() {
			w.slots[i].generation++
			w.slots[i].id = 0
			w.slots[i].state = stateDestroyed
			w.slots[i].parent = 0
			w.slots[i].children = nil
			w.slots[i].references = nil
			w.slots[i].arrays = nil
			w.notifier.fireEntityDestroyed(id)
		}
	}
	w.slots = nil
	w.freeIDs = nil
	w.entryOwner = nil
	empty := Definition{}
	emptyChunk, err := newChunk(w.schema, w.entryIndex, empty.Key(), empty, nil)
	if err != nil {
		return err
	}
	w.chunks = map[uint64]*Chunk{emptyChunk.key: emptyChunk}
	w.chunkOrder = []*Chunk{emptyChunk}
	w.emptyKey = emptyChunk.key
	return nil
}

// Dispose releases the World's resources. Repeated disposal fails with
// DisposedError (spec §5 "Resource acquisition").
func (w *World) Dispose() error {
	if w.disposed {
		return DisposedError{}
	}
	w.slots = nil
	w.freeIDs = nil
	w.entryOwner = nil
	w.chunks = nil
	w.chunkOrder = nil
	w.disposed = true
	return nil
}

// Chunks returns the World's chunk index in insertion order, for Query
// and for collaborators (serializers) enumerating storage directly (spec
// §6 "Persisted state").
func (w *World) Chunks() []*Chunk {
	return w.chunkOrder
}

func unsafeSizeof[T any](_ T) uintptr {
	var zero T
	return unsafe.Sizeof(zero)
}
