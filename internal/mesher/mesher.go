// Package mesher implements component D: it walks a chunk's block array,
// resolves each non-air block's model, applies the neighbor-aware
// visibility rule per face, and emits a per-render-layer vertex/index
// stream installed back onto the chunk.
package mesher

import (
	"sort"

	"voxelcore/internal/block"
	"voxelcore/internal/blockmodel"
	"voxelcore/internal/voxel"
)

// BlockProbe is the read-only cross-chunk lookup capability the ChunkManager
// provides. A neighbor in an unloaded chunk is treated as air (face
// emitted); probe may be nil, with the same effect.
type BlockProbe interface {
	BlockAt(worldX, worldY, worldZ int32) block.Id
}

// direction indexes the six cube faces in the same order as block.Face.
type direction struct {
	name       string // blockmodel face-map key
	dx, dy, dz int32
}

var directions = [6]direction{
	block.FaceEast:  {"east", 1, 0, 0},
	block.FaceWest:  {"west", -1, 0, 0},
	block.FaceUp:    {"up", 0, 1, 0},
	block.FaceDown:  {"down", 0, -1, 0},
	block.FaceNorth: {"north", 0, 0, 1},
	block.FaceSouth: {"south", 0, 0, -1},
}

// Mesher turns chunk block data into renderable geometry.
type Mesher struct {
	table           *block.Table
	atlas           *blockmodel.TextureAtlas
	fullFaceEpsilon float32
	defaultModel    *blockmodel.Model
}

// New creates a Mesher consulting table for block properties/models and
// atlas for texture-name-to-layer resolution. fullFaceEpsilon is the CUTOUT
// full-face tolerance (spec §9 Open Question, resolved as a config knob);
// pass 0 to use blockmodel's 0.01 default.
func New(table *block.Table, atlas *blockmodel.TextureAtlas, fullFaceEpsilon float32) *Mesher {
	return &Mesher{
		table:           table,
		atlas:           atlas,
		fullFaceEpsilon: fullFaceEpsilon,
		defaultModel:    fullCubeModel(),
	}
}

// fullCubeModel is the model used for any block whose table entry carries no
// explicit BlockModel: a single element spanning the entire unit cube with
// all six faces present, each naming the texture "missing" (spec §7: "the
// offending block is replaced with a visible 'missing' placeholder model").
// The atlas reserves no entry for that name: unless a caller registers it,
// the faces get texture layer 0.
func fullCubeModel() *blockmodel.Model {
	faces := make(map[string]blockmodel.Face, 6)
	for _, d := range directions {
		faces[d.name] = blockmodel.Face{UV: [4]float32{0, 0, 1, 1}, Texture: "missing"}
	}
	return &blockmodel.Model{
		Elements: []blockmodel.Element{{
			From:  [3]float32{0, 0, 0},
			To:    [3]float32{1, 1, 1},
			Faces: faces,
		}},
	}
}

// Mesh rebuilds every render layer of c and installs the results, clearing
// each layer's dirty flag. probe resolves blocks across chunk boundaries.
// cancelled, if non-nil, is consulted once after the scan completes and
// before results are installed (spec §4.E cancellation contract: "the
// worker checks this flag at entry and again before installing results");
// if it reports true, Mesh discards the scratch streams and returns false
// without touching the chunk. Mesh always returns true when cancelled is
// nil.
func (m *Mesher) Mesh(c *voxel.Chunk, probe BlockProbe, cancelled func() bool) bool {
	scratch := map[block.Layer]*stream{
		block.Opaque:      {},
		block.Cutout:      {},
		block.Translucent: {},
	}
	var translucentQuads []pendingQuad

	modelCache := make(map[block.Id]*blockmodel.Model)
	resolveModel := func(id block.Id) *blockmodel.Model {
		if mdl, ok := modelCache[id]; ok {
			return mdl
		}
		var mdl *blockmodel.Model
		if raw, ok := m.table.Model(id); ok {
			if asModel, ok := raw.(*blockmodel.Model); ok {
				mdl = asModel
			}
		}
		if mdl == nil {
			mdl = m.defaultModel
		}
		modelCache[id] = mdl
		return mdl
	}

	worldX := c.Coord.X * voxel.Size
	worldY := c.Coord.Y * voxel.Size
	worldZ := c.Coord.Z * voxel.Size

	for x := 0; x < voxel.Size; x++ {
		for y := 0; y < voxel.Size; y++ {
			for z := 0; z < voxel.Size; z++ {
				id := c.Get(x, y, z)
				if id == block.Air {
					continue
				}
				entry := m.table.Lookup(id)
				model := resolveModel(id)

				for faceIdx, d := range directions {
					face := block.Face(faceIdx)
					neighborID := m.neighborBlock(c, probe, x, y, z, d, worldX, worldY, worldZ)
					if !m.shouldRender(entry, face, id, neighborID, model, d.name) {
						continue
					}

					verts := emitFaceQuads(model, d.name, x, y, z, worldX, worldY, worldZ, entry, m.atlas, int32(entry.RenderLayer))
					if entry.RenderLayer == block.Translucent {
						for _, quad := range verts {
							translucentQuads = append(translucentQuads, pendingQuad{
								worldZ: quad[0].Position[2],
								verts:  quad,
							})
						}
						continue
					}
					s := scratch[entry.RenderLayer]
					for _, quad := range verts {
						s.appendQuad(quad)
					}
				}
			}
		}
	}

	sort.SliceStable(translucentQuads, func(i, j int) bool {
		return translucentQuads[i].worldZ > translucentQuads[j].worldZ
	})
	transStream := scratch[block.Translucent]
	for _, q := range translucentQuads {
		transStream.appendQuad(q.verts)
	}

	if cancelled != nil && cancelled() {
		return false
	}

	for layer, s := range scratch {
		c.InstallMesh(layer, s.vertices, s.indices)
	}
	return true
}

type pendingQuad struct {
	worldZ float32
	verts  [4]voxel.Vertex
}

// stream is a scratch vertex/index builder for one render layer.
type stream struct {
	vertices []voxel.Vertex
	indices  []uint32
}

func (s *stream) appendQuad(v [4]voxel.Vertex) {
	base := uint32(len(s.vertices))
	s.vertices = append(s.vertices, v[0], v[1], v[2], v[3])
	s.indices = append(s.indices, base, base+1, base+2, base+2, base+3, base)
}

// neighborBlock resolves the block adjacent to (x,y,z) in direction d,
// crossing into probe when the neighbor falls outside this chunk.
func (m *Mesher) neighborBlock(c *voxel.Chunk, probe BlockProbe, x, y, z int, d direction, worldX, worldY, worldZ int32) block.Id {
	nx, ny, nz := x+int(d.dx), y+int(d.dy), z+int(d.dz)
	if nx >= 0 && nx < voxel.Size && ny >= 0 && ny < voxel.Size && nz >= 0 && nz < voxel.Size {
		return c.Get(nx, ny, nz)
	}
	if probe == nil {
		return block.Air
	}
	return probe.BlockAt(worldX+int32(nx), worldY+int32(ny), worldZ+int32(nz))
}

// shouldRender implements the visibility truth table of spec §4.D.
func (m *Mesher) shouldRender(entry block.Entry, face block.Face, selfID, neighborID block.Id, model *blockmodel.Model, faceName string) bool {
	if neighborID == block.Air {
		return true
	}
	neighborEntry := m.table.Lookup(neighborID)

	switch entry.RenderLayer {
	case block.Opaque:
		return neighborEntry.RenderLayer != block.Opaque
	case block.Translucent:
		if neighborID == selfID && neighborEntry.RenderLayer == block.Translucent {
			return false
		}
		return neighborEntry.RenderLayer != block.Opaque
	case block.Cutout:
		if neighborEntry.RenderLayer != block.Opaque {
			return true
		}
		return !modelFaceIsFull(model, faceName, m.fullFaceEpsilon)
	default:
		return true
	}
}

func modelFaceIsFull(model *blockmodel.Model, faceName string, eps float32) bool {
	for _, e := range model.Elements {
		if _, ok := e.Faces[faceName]; ok && e.IsFullFace(faceName, eps) {
			return true
		}
	}
	return false
}
