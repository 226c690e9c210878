package ecs

import "github.com/TheBitDrifter/table"

// Config holds process-wide tuning knobs for the ECS core: the per-kind
// bitmask capacities from the spec (CAP) and an injectable collaborator
// hook fired on chunk storage churn, parallel to the teacher's
// table.TableEvents seam.
var Config config = config{
	MaxComponents:    MaskBits,
	MaxArrayElements: MaskBits,
	MaxTags:          MaskBits,
}

type config struct {
	// MaxComponents, MaxArrayElements, and MaxTags bound the number of
	// distinct types a Schema may register per kind. Each independently
	// defaults to MaskBits (64), matching the reference CAP from spec §2.
	MaxComponents    int
	MaxArrayElements int
	MaxTags          int

	// ChunkEvents, when set, is forwarded to every table.Table backing a
	// Chunk, the same way the teacher forwards tableEvents to its
	// archetype tables.
	ChunkEvents table.TableEvents
}

// SetChunkEvents configures the table event callbacks forwarded to every
// Chunk's underlying table.Table.
func (c *config) SetChunkEvents(te table.TableEvents) {
	c.ChunkEvents = te
}
