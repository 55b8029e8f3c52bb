// Package block implements the immutable block-property table (component A):
// a dense, numeric-id-indexed lookup from BlockId to render-layer, model
// reference and face-culling policy.
package block

// Id is a block's numeric identifier. Id 0 is reserved for air.
type Id uint16

// Air is the reserved empty-block id.
const Air Id = 0

// Layer is a render-layer classification; it determines draw order and
// pipeline state in the renderer.
type Layer int

const (
	Opaque Layer = iota
	Cutout
	Translucent
)

func (l Layer) String() string {
	switch l {
	case Opaque:
		return "OPAQUE"
	case Cutout:
		return "CUTOUT"
	case Translucent:
		return "TRANSLUCENT"
	default:
		return "UNKNOWN"
	}
}

// CullPolicy describes how a face of a block participates in neighbor-aware
// face culling.
type CullPolicy int

const (
	// CullFull: the face is a full, opaque square and can cull a neighbor's
	// adjoining face (and be culled by one).
	CullFull CullPolicy = iota
	// CullNone: the face never participates in culling (always emitted
	// unless the neighbor rule says otherwise).
	CullNone
	// CullPartial: the face only culls/gets culled when it is geometrically
	// full-face in its model (see blockmodel.Element.IsFullFace).
	CullPartial
)

// Face indexes the six cube directions, matching the mesher's face order.
type Face int

const (
	FaceEast Face = iota // +X
	FaceWest              // -X
	FaceUp                // +Y
	FaceDown              // -Y
	FaceNorth             // +Z
	FaceSouth             // -Z
)

// Entry is the immutable per-block data the mesher and game logic consult
// on the hot path.
type Entry struct {
	RenderLayer   Layer
	IsTransparent bool
	Culling       [6]CullPolicy
	ModelRef      int // index into the table's model slice; -1 if none
	// Tint is the per-face color multiplier the mesher writes into
	// Vertex.Color. Most blocks use {1,1,1} (no tint); biome-colored blocks
	// like grass override it at registration time.
	Tint [3]float32
}

// Debug, when true, turns out-of-range Lookup calls into a panic instead of
// a safe fallback. Tests and debug builds set this; it mirrors the spec's
// "debug assert in debug builds, safe default in release" taxonomy (spec §7).
var Debug = false

// Table is the immutable, array-indexed block property table. It is built
// once via Builder and never mutated afterwards, so it can be shared across
// goroutines (mesher workers, the chunk manager) without locking.
type Table struct {
	entries []Entry
	models  []any
}

// fallback is returned for any id the table doesn't know about: marked
// transparent, CullNone on every face, no model. Its render layer is Opaque,
// so the mesher's layer-based visibility rule treats it like any opaque
// neighbor and culls an adjoining opaque face.
var fallback = Entry{
	RenderLayer:   Opaque,
	IsTransparent: true,
	Culling:       [6]CullPolicy{CullNone, CullNone, CullNone, CullNone, CullNone, CullNone},
	ModelRef:      -1,
	Tint:          [3]float32{1, 1, 1},
}

// Lookup returns the entry for id. Out-of-range ids are a programming error:
// in debug builds (Debug == true) this panics; in production it returns the
// safe fallback entry so the mesher and renderer keep working (spec §4.A,
// §7).
func (t *Table) Lookup(id Id) Entry {
	if int(id) >= len(t.entries) {
		if Debug {
			panic("block: id out of range")
		}
		return fallback
	}
	return t.entries[id]
}

// RenderLayer returns the render layer for id.
func (t *Table) RenderLayer(id Id) Layer {
	return t.Lookup(id).RenderLayer
}

// IsTransparent reports whether id is transparent (participates in the
// translucent-sort / never fully culls neighbors).
func (t *Table) IsTransparent(id Id) bool {
	return t.Lookup(id).IsTransparent
}

// FaceCulling returns the culling policy of the given face of id.
func (t *Table) FaceCulling(id Id, face Face) CullPolicy {
	return t.Lookup(id).Culling[face]
}

// Model returns the model reference registered for id, if any.
func (t *Table) Model(id Id) (any, bool) {
	e := t.Lookup(id)
	if e.ModelRef < 0 || e.ModelRef >= len(t.models) {
		return nil, false
	}
	return t.models[e.ModelRef], true
}

// Count returns the number of registered block ids (including air).
func (t *Table) Count() int {
	return len(t.entries)
}

// Builder accumulates block definitions before freezing them into an
// immutable Table. Ids must be assigned densely starting at 0 (air).
type Builder struct {
	entries []Entry
	models  []any
}

// NewBuilder creates a Builder pre-seeded with the air entry at id 0.
func NewBuilder() *Builder {
	b := &Builder{}
	b.entries = append(b.entries, Entry{
		RenderLayer:   Opaque,
		IsTransparent: true,
		Culling:       [6]CullPolicy{CullNone, CullNone, CullNone, CullNone, CullNone, CullNone},
		ModelRef:      -1,
		Tint:          [3]float32{1, 1, 1},
	})
	return b
}

// Register adds (or overwrites) the entry for id, growing the dense array as
// needed. model, if non-nil, is stored and referenced by Entry.ModelRef. A
// zero-value Tint is treated as "no tint specified" and defaults to white,
// so callers that don't care about biome coloring can leave it unset.
func (b *Builder) Register(id Id, entry Entry, model any) {
	for int(id) >= len(b.entries) {
		b.entries = append(b.entries, fallback)
	}
	if entry.Tint == ([3]float32{}) {
		entry.Tint = [3]float32{1, 1, 1}
	}
	if model != nil {
		b.models = append(b.models, model)
		entry.ModelRef = len(b.models) - 1
	} else {
		entry.ModelRef = -1
	}
	b.entries[id] = entry
}

// Build freezes the builder into an immutable Table.
func (b *Builder) Build() *Table {
	entries := make([]Entry, len(b.entries))
	copy(entries, b.entries)
	models := make([]any, len(b.models))
	copy(models, b.models)
	return &Table{entries: entries, models: models}
}
