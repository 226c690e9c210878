package ecs

import "github.com/TheBitDrifter/bark"

// worldOperation is a deferred structural mutation, captured with enough
// information (id + generation) to detect and silently drop itself if its
// target entity was destroyed and its slot recycled before the World
// unlocked (spec §9, generalizing the teacher's entity.Recycled() check
// from a single global counter to a per-slot generation).
type worldOperation interface {
	apply(w *World) error
}

// operationQueue buffers worldOperations enqueued while the World is
// locked (a Cursor iterating, or a collaborator's AddLock), and replays them in
// enqueue order once the last lock bit is released (spec §9 "structural
// mutation is deferred, not rejected, while locked").
type operationQueue struct {
	ops []worldOperation
}

func (q *operationQueue) enqueue(op worldOperation) {
	q.ops = append(q.ops, op)
}

// drain replays every queued operation against w, in order, provided w is
// no longer locked. A panic (rather than a returned error) mirrors the
// teacher's storage.RemoveLock, since by this point the caller that would
// receive an error has already returned.
func (q *operationQueue) drain(w *World) {
	if w.Locked() || len(q.ops) == 0 {
		return
	}
	pending := q.ops
	q.ops = nil
	for _, op := range pending {
		if err := op.apply(w); err != nil {
			panic(bark.AddTrace(err))
		}
	}
}

func (w *World) generationOf(id EntityID) uint32 {
	if id == 0 || int(id) > len(w.slots) {
		return 0
	}
	return w.slots[id-1].generation
}

func (w *World) stillLive(id EntityID, generation uint32) bool {
	if id == 0 || int(id) > len(w.slots) {
		return false
	}
	slot := &w.slots[id-1]
	return slot.live() && slot.generation == generation
}

type destroyEntityOp struct {
	id         EntityID
	generation uint32
	cascade    bool
}

func (op destroyEntityOp) apply(w *World) error {
	if !w.stillLive(op.id, op.generation) {
		return nil
	}
	return w.DestroyEntity(op.id, op.cascade)
}

// EnqueueDestroyEntity destroys id immediately if the World is unlocked,
// or defers it until the World's last lock is released. DestroyEntity
// itself already applies this guard; Enqueue is kept as an explicit alias
// for callers that want to name their intent.
func (w *World) EnqueueDestroyEntity(id EntityID, cascade bool) error {
	return w.DestroyEntity(id, cascade)
}

type addComponentOp struct {
	id         EntityID
	generation uint32
	comp       Component
}

func (op addComponentOp) apply(w *World) error {
	if !w.stillLive(op.id, op.generation) {
		return nil
	}
	return w.AddComponent(op.id, op.comp)
}

// EnqueueAddComponent adds comp to id immediately if unlocked, or defers
// it. AddComponent already applies this guard.
func (w *World) EnqueueAddComponent(id EntityID, comp Component) error {
	return w.AddComponent(id, comp)
}

type removeComponentOp struct {
	id         EntityID
	generation uint32
	comp       Component
}

func (op removeComponentOp) apply(w *World) error {
	if !w.stillLive(op.id, op.generation) {
		return nil
	}
	return w.RemoveComponent(op.id, op.comp)
}

// EnqueueRemoveComponent removes comp from id immediately if unlocked, or
// defers it. RemoveComponent already applies this guard.
func (w *World) EnqueueRemoveComponent(id EntityID, comp Component) error {
	return w.RemoveComponent(id, comp)
}

type addTagOp struct {
	id         EntityID
	generation uint32
	tag        TagType
}

func (op addTagOp) apply(w *World) error {
	if !w.stillLive(op.id, op.generation) {
		return nil
	}
	return w.AddTag(op.id, op.tag)
}

// EnqueueAddTag adds tag to id immediately if unlocked, or defers it.
// AddTag already applies this guard.
func (w *World) EnqueueAddTag(id EntityID, tag TagType) error {
	return w.AddTag(id, tag)
}

type removeTagOp struct {
	id         EntityID
	generation uint32
	tag        TagType
}

func (op removeTagOp) apply(w *World) error {
	if !w.stillLive(op.id, op.generation) {
		return nil
	}
	return w.RemoveTag(op.id, op.tag)
}

// EnqueueRemoveTag removes tag from id immediately if unlocked, or defers
// it. RemoveTag already applies this guard.
func (w *World) EnqueueRemoveTag(id EntityID, tag TagType) error {
	return w.RemoveTag(id, tag)
}

type setParentOp struct {
	id         EntityID
	generation uint32
	parent     EntityID
}

func (op setParentOp) apply(w *World) error {
	if !w.stillLive(op.id, op.generation) {
		return nil
	}
	return w.SetParent(op.id, op.parent)
}

// EnqueueSetParent reparents id immediately if unlocked, or defers it.
// SetParent already applies this guard.
func (w *World) EnqueueSetParent(id, parent EntityID) error {
	return w.SetParent(id, parent)
}

// createArrayOp defers a generic CreateArray call behind a closure, since
// worldOperation.apply is non-generic but CreateArray[T] is not.
type createArrayOp struct {
	run func(w *World) error
}

func (op createArrayOp) apply(w *World) error { return op.run(w) }

// EnqueueCreateArray creates id's array buffer for a immediately if
// unlocked, or defers it. CreateArray already applies this guard.
func EnqueueCreateArray[T any](w *World, id EntityID, a ArrayElementType[T], length int) error {
	_, err := CreateArray(w, id, a, length)
	return err
}

type destroyArrayOp struct {
	id         EntityID
	generation uint32
	a          interface {
		Index() uint8
		Mask() Mask64
	}
}

func (op destroyArrayOp) apply(w *World) error {
	if !w.stillLive(op.id, op.generation) {
		return nil
	}
	return w.DestroyArray(op.id, op.a)
}

// EnqueueDestroyArray destroys id's array buffer for a immediately if
// unlocked, or defers it. DestroyArray already applies this guard.
func (w *World) EnqueueDestroyArray(id EntityID, a interface {
	Index() uint8
	Mask() Mask64
}) error {
	return w.DestroyArray(id, a)
}

type setEnabledOp struct {
	id         EntityID
	generation uint32
	enabled    bool
}

func (op setEnabledOp) apply(w *World) error {
	if !w.stillLive(op.id, op.generation) {
		return nil
	}
	return w.SetEnabled(op.id, op.enabled)
}

// EnqueueSetEnabled sets id's enabled intent immediately if unlocked, or
// defers it. SetEnabled already applies this guard.
func (w *World) EnqueueSetEnabled(id EntityID, enabled bool) error {
	return w.SetEnabled(id, enabled)
}
