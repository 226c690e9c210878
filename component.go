package ecs

import (
	"reflect"
	"unsafe"

	"github.com/TheBitDrifter/table"
)

// Component is a fixed-size, table-backed attribute type. It generalizes
// the teacher's Component interface (table.ElementType alone) with the
// stable per-kind bit index the spec's archetype identity needs, plus a
// type-erased accessor constructor so World/Chunk can offer byte-level
// access (GetComponent/SetComponentBytes) without themselves being
// generic over every registered T.
type Component interface {
	table.ElementType
	Index() uint8
	Size() uintptr
	newAccessor() componentAccessor
}

// componentAccessor is the type-erased half of ComponentType[T]'s
// table.Accessor[T]: enough to hand back raw bytes for a row or an entire
// column without the caller needing to know T.
type componentAccessor interface {
	bytesAt(tbl table.Table, row int) []byte
	columnBytes(tbl table.Table, rows int) []byte
	setBytesAt(tbl table.Table, row int, data []byte) error
}

type typedAccessor[T any] struct {
	acc table.Accessor[T]
}

func (a typedAccessor[T]) bytesAt(tbl table.Table, row int) []byte {
	ptr := a.acc.Get(row, tbl)
	var zero T
	return unsafe.Slice((*byte)(unsafe.Pointer(ptr)), unsafe.Sizeof(zero))
}

func (a typedAccessor[T]) columnBytes(tbl table.Table, rows int) []byte {
	if rows == 0 {
		return nil
	}
	first := a.acc.Get(0, tbl)
	var zero T
	size := unsafe.Sizeof(zero)
	return unsafe.Slice((*byte)(unsafe.Pointer(first)), uintptr(rows)*size)
}

func (a typedAccessor[T]) setBytesAt(tbl table.Table, row int, data []byte) error {
	ptr := a.acc.Get(row, tbl)
	var zero T
	size := unsafe.Sizeof(zero)
	if uintptr(len(data)) != size {
		return InvalidError{Reason: "component size mismatch"}
	}
	dst := unsafe.Slice((*byte)(unsafe.Pointer(ptr)), size)
	copy(dst, data)
	return nil
}

// ComponentType[T] is a registered component, the typed handle callers
// hold onto and pass to World's generic component operations. It
// generalizes the teacher's AccessibleComponent[T] (Component embedded +
// table.Accessor[T] embedded).
type ComponentType[T any] struct {
	table.ElementType
	desc     TypeDescriptor
	accessor table.Accessor[T]
}

// RegisterComponent registers T as a component in schema, assigning it a
// stable bit index. Registering the same T twice returns
// AlreadyPresentError.
func RegisterComponent[T any](schema *Schema) (ComponentType[T], error) {
	var zero T
	name := reflect.TypeOf(zero).String()
	desc, err := schema.components.register(name, unsafe.Sizeof(zero))
	if err != nil {
		return ComponentType[T]{}, err
	}
	elem := table.FactoryNewElementType[T]()
	schema.tableSchema.Register(elem)
	ct := ComponentType[T]{
		ElementType: elem,
		desc:        desc,
		accessor:    table.FactoryNewAccessor[T](elem),
	}
	schema.componentByIndex[desc.Index] = ct
	return ct, nil
}

// Index returns the component's stable bit index within its Schema.
func (c ComponentType[T]) Index() uint8 { return c.desc.Index }

// Size returns sizeof(T).
func (c ComponentType[T]) Size() uintptr { return c.desc.Size }

// Mask returns the single-bit Mask64 identifying this component.
func (c ComponentType[T]) Mask() Mask64 { return MaskOf(c.desc.Index) }

func (c ComponentType[T]) newAccessor() componentAccessor { return typedAccessor[T]{acc: c.accessor} }

// Get returns the interior pointer to this component's value in tbl at
// row. The pointer is borrowed: valid until the next structural mutation
// of the chunk backing tbl (spec §5).
func (c ComponentType[T]) Get(tbl table.Table, row int) *T {
	return c.accessor.Get(row, tbl)
}

// Check reports whether tbl's archetype carries this component at all.
func (c ComponentType[T]) Check(tbl table.Table) bool {
	return c.accessor.Check(tbl)
}

// ArrayElementType[T] is a registered array-element type: the element T
// of a per-entity dynamic array allocated outside any Chunk (spec §4.E
// CreateArray/GetArray/ResizeArray/DestroyArray).
type ArrayElementType[T any] struct {
	desc TypeDescriptor
}

// RegisterArrayElement registers T as an array-element type in schema.
func RegisterArrayElement[T any](schema *Schema) (ArrayElementType[T], error) {
	var zero T
	name := reflect.TypeOf(zero).String()
	desc, err := schema.arrays.register(name, unsafe.Sizeof(zero))
	if err != nil {
		return ArrayElementType[T]{}, err
	}
	return ArrayElementType[T]{desc: desc}, nil
}

// Index returns the array-element type's stable bit index.
func (a ArrayElementType[T]) Index() uint8 { return a.desc.Index }

// Mask returns the single-bit Mask64 identifying this array-element type.
func (a ArrayElementType[T]) Mask() Mask64 { return MaskOf(a.desc.Index) }

// isArrayMember lets query construction (processItems) recognize any
// ArrayElementType[T] via a non-generic interface, since a type switch
// cannot match a generic type directly without knowing T.
func (a ArrayElementType[T]) isArrayMember() uint8 { return a.desc.Index }

type arrayQueryMember interface {
	isArrayMember() uint8
}

// TagType is a registered zero-sized marker type: present only in a
// Definition's Tags mask, never materialized as a column (spec §4.D).
type TagType struct {
	desc TypeDescriptor
}

// Index returns the tag's stable bit index.
func (t TagType) Index() uint8 { return t.desc.Index }

// Mask returns the single-bit Mask64 identifying this tag.
func (t TagType) Mask() Mask64 { return MaskOf(t.desc.Index) }
