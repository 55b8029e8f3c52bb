// Package terrain defines the collaborator interface the chunk manager
// populates new chunks through, plus a minimal flat/test implementation.
// Procedural terrain generation itself is out of this module's boundary
// (spec §1): the core only depends on populate(chunk_coord, &mut chunk).
package terrain

import (
	"voxelcore/internal/block"
	"voxelcore/internal/voxel"
)

// Source fills a freshly created chunk's block array. The chunk manager
// invokes Populate synchronously, once, before the chunk's first meshing
// task is submitted (spec §4.E: "terrain-populated exactly once before its
// first mesh generation").
type Source interface {
	Populate(coord voxel.Coord, c *voxel.Chunk)
}

// Flat is a minimal Source grounded on the teacher's height-based
// PopulateChunk: every column below SurfaceY is FillBlock, the column at
// SurfaceY is TopBlock, and everything above is air. Useful standalone and
// as a deterministic fixture in tests that need populated chunks without a
// real noise-driven generator.
type Flat struct {
	// SurfaceY is the world Y of the topmost solid block, inclusive.
	SurfaceY int32
	// TopBlock is placed at SurfaceY; FillBlock fills every layer below it.
	TopBlock, FillBlock block.Id
}

// NewFlat creates a Flat source with the given surface height and block
// ids.
func NewFlat(surfaceY int32, topBlock, fillBlock block.Id) *Flat {
	return &Flat{SurfaceY: surfaceY, TopBlock: topBlock, FillBlock: fillBlock}
}

// Populate implements Source.
func (f *Flat) Populate(coord voxel.Coord, c *voxel.Chunk) {
	chunkBaseY := coord.Y * voxel.Size
	for x := 0; x < voxel.Size; x++ {
		for z := 0; z < voxel.Size; z++ {
			for y := 0; y < voxel.Size; y++ {
				worldY := chunkBaseY + int32(y)
				switch {
				case worldY < f.SurfaceY:
					c.Set(x, y, z, f.FillBlock)
				case worldY == f.SurfaceY:
					c.Set(x, y, z, f.TopBlock)
				}
			}
		}
	}
}
