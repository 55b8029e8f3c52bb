package mesher_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"voxelcore/internal/block"
	"voxelcore/internal/blockmodel"
	"voxelcore/internal/mesher"
	"voxelcore/internal/voxel"
)

const (
	stoneID       block.Id = 1
	translucentID block.Id = 2
)

func fullCubeModel(texture string) *blockmodel.Model {
	faces := make(map[string]blockmodel.Face, 6)
	for _, dir := range []string{"east", "west", "up", "down", "north", "south"} {
		faces[dir] = blockmodel.Face{UV: [4]float32{0, 0, 1, 1}, Texture: texture}
	}
	return &blockmodel.Model{
		Elements: []blockmodel.Element{{
			From:  [3]float32{0, 0, 0},
			To:    [3]float32{1, 1, 1},
			Faces: faces,
		}},
	}
}

func newTestTable() *block.Table {
	b := block.NewBuilder()
	b.Register(stoneID, block.Entry{RenderLayer: block.Opaque}, fullCubeModel("stone"))
	b.Register(translucentID, block.Entry{RenderLayer: block.Translucent, IsTransparent: true}, fullCubeModel("glass"))
	return b.Build()
}

func newMesher() *mesher.Mesher {
	table := newTestTable()
	atlas := blockmodel.NewTextureAtlas()
	atlas.Register("stone")
	atlas.Register("glass")
	return mesher.New(table, atlas, 0)
}

// S1 / invariant 5: a single opaque block surrounded by air on all sides
// (unloaded neighbor chunks) emits all six faces.
func TestSingleBlockFullCubeEmitsSixQuads(t *testing.T) {
	m := newMesher()
	c := voxel.New(voxel.Coord{})
	c.Set(8, 8, 8, stoneID)

	m.Mesh(c, nil, nil)

	mesh := c.LayerMesh(block.Opaque)
	require.Len(t, mesh.Vertices, 24)
	require.Len(t, mesh.Indices, 36)
	require.False(t, c.IsLayerDirty(block.Opaque))
}

// S2: a chunk fully filled with an opaque block only emits boundary faces;
// the 14^3 interior contributes nothing.
func TestFullyFilledChunkOnlyEmitsBoundaryFaces(t *testing.T) {
	m := newMesher()
	c := voxel.New(voxel.Coord{})
	c.Fill(stoneID)

	m.Mesh(c, nil, nil)

	mesh := c.LayerMesh(block.Opaque)
	require.Len(t, mesh.Vertices, 6*voxel.Size*voxel.Size*4)
	require.Len(t, mesh.Indices, 6*voxel.Size*voxel.Size*6)
}

// fakeProbe looks block coordinates up in a small set of neighboring chunks,
// keyed by chunk coordinate, and treats anything else as air.
type fakeProbe struct {
	chunks map[voxel.Coord]*voxel.Chunk
}

func (p *fakeProbe) BlockAt(worldX, worldY, worldZ int32) block.Id {
	cx := floorDiv(worldX, voxel.Size)
	cy := floorDiv(worldY, voxel.Size)
	cz := floorDiv(worldZ, voxel.Size)
	c, ok := p.chunks[voxel.Coord{X: cx, Y: cy, Z: cz}]
	if !ok {
		return block.Air
	}
	lx := int(euclideanMod(worldX, voxel.Size))
	ly := int(euclideanMod(worldY, voxel.Size))
	lz := int(euclideanMod(worldZ, voxel.Size))
	return c.Get(lx, ly, lz)
}

func floorDiv(a, b int32) int32 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

func euclideanMod(a, b int32) int32 {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

// S3 / invariant 6: two adjacent chunks fully filled with the same opaque
// block produce zero quads on the shared 16x16 plane.
func TestCrossChunkSeamCullsSharedPlane(t *testing.T) {
	m := newMesher()
	a := voxel.New(voxel.Coord{X: 0, Y: 0, Z: 0})
	b := voxel.New(voxel.Coord{X: 1, Y: 0, Z: 0})
	a.Fill(stoneID)
	b.Fill(stoneID)

	probe := &fakeProbe{chunks: map[voxel.Coord]*voxel.Chunk{
		{X: 0, Y: 0, Z: 0}: a,
		{X: 1, Y: 0, Z: 0}: b,
	}}

	m.Mesh(a, probe, nil)
	m.Mesh(b, probe, nil)

	// Isolated, a fully filled chunk emits 6*16*16 quads. With one neighbor
	// now solid, each chunk loses the 16*16 quads on its shared face.
	expectedQuads := 6*voxel.Size*voxel.Size - voxel.Size*voxel.Size

	meshA := a.LayerMesh(block.Opaque)
	require.Len(t, meshA.Vertices, expectedQuads*4)
	require.Len(t, meshA.Indices, expectedQuads*6)

	meshB := b.LayerMesh(block.Opaque)
	require.Len(t, meshB.Vertices, expectedQuads*4)
	require.Len(t, meshB.Indices, expectedQuads*6)
}

// S4: a translucent block with an opaque neighbor on +Z culls exactly that
// face; its other five faces still emit.
func TestTranslucentCullsOnlyTheOpaqueAdjacentFace(t *testing.T) {
	m := newMesher()
	c := voxel.New(voxel.Coord{})
	c.Set(0, 0, 0, translucentID)
	c.Set(0, 0, 1, stoneID)

	m.Mesh(c, nil, nil)

	translucentMesh := c.LayerMesh(block.Translucent)
	require.Len(t, translucentMesh.Vertices, 5*4)
	require.Len(t, translucentMesh.Indices, 5*6)
}

// Invariant 4: two adjacent full opaque blocks of different ids still
// mutually cull (the rule is layer-based, not id-based).
func TestCullingSymmetryIgnoresBlockIdentity(t *testing.T) {
	table := block.NewBuilder()
	table.Register(stoneID, block.Entry{RenderLayer: block.Opaque}, fullCubeModel("stone"))
	table.Register(block.Id(3), block.Entry{RenderLayer: block.Opaque}, fullCubeModel("dirt"))
	atlas := blockmodel.NewTextureAtlas()
	m := mesher.New(table.Build(), atlas, 0)

	c := voxel.New(voxel.Coord{})
	c.Set(5, 5, 5, stoneID)
	c.Set(5, 5, 6, block.Id(3))

	m.Mesh(c, nil, nil)

	mesh := c.LayerMesh(block.Opaque)
	// Each block would contribute 6 quads in isolation (24 verts); the
	// shared face between them must contribute none, so together they
	// contribute 2*6 - 2 = 10 quads.
	require.Len(t, mesh.Vertices, 10*4)
	require.Len(t, mesh.Indices, 10*6)
}
