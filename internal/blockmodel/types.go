// Package blockmodel holds the immutable, already-parsed block model records
// the mesher consumes (spec §3 "BlockModel"). Model/texture *file* parsing
// sits outside the core's boundary per spec §1, but the parsed shape and the
// JSON schema it comes from (Minecraft-style block models) live here since
// the mesher's full-face predicate and variant cache key operate directly on
// them.
package blockmodel

import "encoding/json"

// Model is an immutable block model: a parent reference (resolved at load
// time), a texture-variable map, and a list of cuboid Elements.
type Model struct {
	Parent           string             `json:"parent"`
	AmbientOcclusion *bool              `json:"ambientocclusion"`
	Textures         map[string]string  `json:"textures"`
	Elements         []Element          `json:"elements"`
	Display          map[string]Display `json:"display"`
	Overrides        []Override         `json:"overrides"`
}

// Element is an axis-aligned cuboid within the model's 0..1 unit cube.
type Element struct {
	From     [3]float32      `json:"from"`
	To       [3]float32      `json:"to"`
	Rotation *Rotation        `json:"rotation"`
	Shade    *bool            `json:"shade"`
	Faces    map[string]Face `json:"faces"`
}

// faceEpsilonDefault is the tolerance used by IsFullFace when no explicit
// epsilon is supplied. spec §9 flags this threshold as a heuristic worth
// exposing as config; internal/config.Config.CutoutFullFaceEpsilon is the
// knob callers should thread through instead of relying on this default.
const faceEpsilonDefault = 0.01

// IsFullFace reports whether the named face (one of north/south/east/west/
// up/down) of this element spans the full 0..1 extent of its two
// perpendicular axes, within eps. This is the predicate the CUTOUT culling
// rule (spec §4.D) consults: a cutout block only culls against an opaque
// neighbor when the shared face is geometrically full.
func (e Element) IsFullFace(face string, eps float32) bool {
	if eps <= 0 {
		eps = faceEpsilonDefault
	}
	full := func(lo, hi float32) bool {
		return lo <= eps && hi >= 1-eps
	}
	switch face {
	case "east", "west":
		return full(e.From[1], e.To[1]) && full(e.From[2], e.To[2])
	case "up", "down":
		return full(e.From[0], e.To[0]) && full(e.From[2], e.To[2])
	case "north", "south":
		return full(e.From[0], e.To[0]) && full(e.From[1], e.To[1])
	default:
		return false
	}
}

// Rotation describes a bake-time element rotation around one axis.
type Rotation struct {
	Origin  [3]float32 `json:"origin"`
	Angle   float32    `json:"angle"`
	Axis    string     `json:"axis"`
	Rescale bool       `json:"rescale"`
}

// Face is one face of an Element: a texture reference and four UV corners.
type Face struct {
	UV        [4]float32 `json:"uv"`
	Texture   string     `json:"texture"`
	CullFace  string     `json:"cullface"`
	Rotation  int        `json:"rotation"`
	TintIndex *int       `json:"tintindex"`
}

// Display describes a model's placement transform in a given context
// (thirdperson, firstperson, gui, ...).
type Display struct {
	Rotation    [3]float32 `json:"rotation"`
	Translation [3]float32 `json:"translation"`
	Scale       [3]float32 `json:"scale"`
}

// Override conditionally substitutes a different model based on item
// predicates (e.g. a bow's pull state). Carried over from the original
// schema; the core mesher does not consume it, but item-rendering layers
// built on top of voxelcore can.
type Override struct {
	Predicate map[string]float32 `json:"predicate"`
	Model     string             `json:"model"`
}

// BlockState maps variant names to one or more candidate models.
type BlockState struct {
	Variants map[string]BlockStateVariants `json:"variants"`
}

// BlockStateVariants accepts either a single variant object or an array of
// them in the source JSON (Minecraft picks one at random per block
// instance; voxelcore always uses the first).
type BlockStateVariants []Variant

func (v *BlockStateVariants) UnmarshalJSON(data []byte) error {
	var variants []Variant
	if err := json.Unmarshal(data, &variants); err == nil {
		*v = variants
		return nil
	}
	var single Variant
	if err := json.Unmarshal(data, &single); err != nil {
		return err
	}
	*v = []Variant{single}
	return nil
}

// Variant names a model and the baked rotation/mirror/uvlock state it
// should be loaded with.
type Variant struct {
	Model string `json:"model"`
	X     int    `json:"x"`
	Y     int    `json:"y"`
	UVLock bool  `json:"uvlock"`
}

// VariantKey is the cache key spec §4.D requires: face variants influenced
// by blockstate rotation/mirroring are pre-baked into distinct cached Model
// records keyed by (base_path, rot_x, rot_y, mirrored, uvlock).
type VariantKey struct {
	BasePath string
	RotX     int
	RotY     int
	Mirrored bool
	UVLock   bool
}
