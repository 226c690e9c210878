package ecs

import "github.com/TheBitDrifter/table"

// Kind is one of the three independent index spaces a Schema assigns:
// Component (table-backed), ArrayElement (per-entity heap buffer), or Tag
// (archetype-shape-only marker). Each Kind has its own CAP-wide Mask64
// (spec §2, row A).
type Kind int

const (
	KindComponent Kind = iota
	KindArrayElement
	KindTag
)

func (k Kind) String() string {
	switch k {
	case KindComponent:
		return "component"
	case KindArrayElement:
		return "array element"
	case KindTag:
		return "tag"
	default:
		return "unknown kind"
	}
}

// TypeDescriptor is the opaque per-type record the Schema hands back on
// registration: a stable 1-based bit index within its Kind, a byte size
// (0 for Tag), and a stable hash of the registered name (spec §4.A). For
// components and array elements that name is reflect's type string
// (e.g. "ecs.Position"), qualified by package name, not import path, so
// two same-named types from packages with the same name are treated as
// the same type; for tags it is the name the caller passes.
type TypeDescriptor struct {
	Index    uint8
	Kind     Kind
	Size     uintptr
	NameHash uint64
	Name     string
}

// typeRegistry assigns monotone, 1-based bit indices to registered type
// names within one Kind, backed by the teacher's SimpleCache. Indices
// never shift once assigned; registration fails once more than
// MaskBits-worth (or the configured capacity) of distinct names have been
// registered, or the same name is registered twice.
type typeRegistry struct {
	kind     Kind
	capacity int
	cache    Cache[TypeDescriptor]
}

func newTypeRegistry(kind Kind, capacity int) *typeRegistry {
	if capacity <= 0 || capacity > MaskBits {
		capacity = MaskBits
	}
	return &typeRegistry{
		kind:     kind,
		capacity: capacity,
		cache:    FactoryNewCache[TypeDescriptor](capacity),
	}
}

func (r *typeRegistry) register(name string, size uintptr) (TypeDescriptor, error) {
	if _, ok := r.cache.GetIndex(name); ok {
		return TypeDescriptor{}, AlreadyPresentError{Subject: r.kind.String() + " \"" + name + "\""}
	}
	desc := TypeDescriptor{
		Kind:     r.kind,
		Size:     size,
		NameHash: hashName(name),
		Name:     name,
	}
	idx, err := r.cache.Register(name, desc)
	if err != nil {
		return TypeDescriptor{}, CapacityExceededError{TypeKind: r.kind, Capacity: r.capacity}
	}
	desc.Index = uint8(idx)
	*r.cache.GetItem(idx) = desc
	return desc, nil
}

func (r *typeRegistry) byIndex(index uint8) (TypeDescriptor, bool) {
	if index == 0 || int(index) > r.cache.Len() {
		return TypeDescriptor{}, false
	}
	return *r.cache.GetItem(int(index)), true
}

func (r *typeRegistry) byName(name string) (TypeDescriptor, bool) {
	idx, ok := r.cache.GetIndex(name)
	if !ok {
		return TypeDescriptor{}, false
	}
	return *r.cache.GetItem(idx), true
}

// hashName computes a stable, process-local FNV-1a hash of a type name.
func hashName(name string) uint64 {
	var h uint64 = 14695981039346656037
	const prime = 1099511628211
	for i := 0; i < len(name); i++ {
		h ^= uint64(name[i])
		h *= prime
	}
	return h
}

// Schema is the registry of type descriptors shared by every Chunk and
// World that use it (spec §4.A). It owns the three per-kind
// typeRegistries plus the table.Schema collaborator that the Chunk's
// underlying table.Table instances are built against. A Schema may be
// shared across multiple Worlds; it carries no entity data.
type Schema struct {
	components *typeRegistry
	arrays     *typeRegistry
	tags       *typeRegistry

	tableSchema table.Schema

	// componentByIndex lets the World rebuild a destination Chunk's
	// column set from a bare Components Mask64 after an add/remove,
	// without needing to thread the full live Component list through
	// every call site.
	componentByIndex map[uint8]Component
}

// NewSchema creates an empty Schema using Config's capacities.
func NewSchema() *Schema {
	return &Schema{
		components:       newTypeRegistry(KindComponent, Config.MaxComponents),
		arrays:           newTypeRegistry(KindArrayElement, Config.MaxArrayElements),
		tags:             newTypeRegistry(KindTag, Config.MaxTags),
		tableSchema:      table.Factory.NewSchema(),
		componentByIndex: make(map[uint8]Component),
	}
}

// RegisterTag registers a zero-sized marker type by name, returning a
// TagType whose Index is stable for the lifetime of the Schema.
func RegisterTag(schema *Schema, name string) (TagType, error) {
	desc, err := schema.tags.register(name, 0)
	if err != nil {
		return TagType{}, err
	}
	return TagType{desc: desc}, nil
}
