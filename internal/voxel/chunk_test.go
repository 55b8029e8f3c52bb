package voxel_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"voxelcore/internal/block"
	"voxelcore/internal/voxel"
)

func TestGetSetRoundTripsEveryCoordinate(t *testing.T) {
	c := voxel.New(voxel.Coord{})
	const id = block.Id(7)

	for x := 0; x < voxel.Size; x++ {
		for y := 0; y < voxel.Size; y++ {
			for z := 0; z < voxel.Size; z++ {
				c.Set(x, y, z, id)
				require.Equal(t, id, c.Get(x, y, z))
			}
		}
	}
}

func TestGetOutOfRangeReturnsAir(t *testing.T) {
	c := voxel.New(voxel.Coord{})
	c.Fill(block.Id(3))

	require.Equal(t, block.Air, c.Get(-1, 0, 0))
	require.Equal(t, block.Air, c.Get(0, voxel.Size, 0))
	require.Equal(t, block.Air, c.Get(0, 0, voxel.Size))
}

func TestSetOutOfRangeIsIgnored(t *testing.T) {
	c := voxel.New(voxel.Coord{})
	c.Set(-1, 0, 0, block.Id(5))
	c.Set(0, 0, 0, block.Id(5))

	require.Equal(t, block.Id(5), c.Get(0, 0, 0))
}

func TestNewChunkStartsWithEveryLayerDirty(t *testing.T) {
	c := voxel.New(voxel.Coord{X: 1, Y: 2, Z: 3})
	require.True(t, c.IsAnyDirty())
	require.True(t, c.IsLayerDirty(block.Opaque))
	require.True(t, c.IsLayerDirty(block.Cutout))
	require.True(t, c.IsLayerDirty(block.Translucent))
}

func TestInstallMeshClearsOnlyThatLayersDirtyFlag(t *testing.T) {
	c := voxel.New(voxel.Coord{})
	c.InstallMesh(block.Opaque, []voxel.Vertex{{}}, []uint32{0})

	require.False(t, c.IsLayerDirty(block.Opaque))
	require.True(t, c.IsLayerDirty(block.Cutout))
	require.True(t, c.IsAnyDirty())

	mesh := c.LayerMesh(block.Opaque)
	require.Len(t, mesh.Vertices, 1)
	require.Equal(t, []uint32{0}, mesh.Indices)
}

func TestSetMarksEveryLayerDirtyAgainAfterInstall(t *testing.T) {
	c := voxel.New(voxel.Coord{})
	c.InstallMesh(block.Opaque, nil, nil)
	c.InstallMesh(block.Cutout, nil, nil)
	c.InstallMesh(block.Translucent, nil, nil)
	require.False(t, c.IsAnyDirty())

	c.Set(1, 1, 1, block.Id(2))
	require.True(t, c.IsLayerDirty(block.Opaque))
	require.True(t, c.IsLayerDirty(block.Cutout))
	require.True(t, c.IsLayerDirty(block.Translucent))
}

func TestMarkDirtyDoesNotTouchBlockData(t *testing.T) {
	c := voxel.New(voxel.Coord{})
	c.Set(0, 0, 0, block.Id(9))
	c.InstallMesh(block.Opaque, nil, nil)
	c.InstallMesh(block.Cutout, nil, nil)
	c.InstallMesh(block.Translucent, nil, nil)

	c.MarkDirty()
	require.True(t, c.IsAnyDirty())
	require.Equal(t, block.Id(9), c.Get(0, 0, 0))
}

func TestFillSetsEveryBlockAndMarksDirty(t *testing.T) {
	c := voxel.New(voxel.Coord{})
	c.InstallMesh(block.Opaque, nil, nil)
	c.InstallMesh(block.Cutout, nil, nil)
	c.InstallMesh(block.Translucent, nil, nil)

	c.Fill(block.Id(4))
	require.True(t, c.IsAnyDirty())
	require.Equal(t, block.Id(4), c.Get(0, 0, 0))
	require.Equal(t, block.Id(4), c.Get(voxel.Size-1, voxel.Size-1, voxel.Size-1))
}

func TestCoordAddOffsetsEachAxis(t *testing.T) {
	c := voxel.Coord{X: 1, Y: 2, Z: 3}
	require.Equal(t, voxel.Coord{X: 0, Y: 3, Z: 2}, c.Add(-1, 1, -1))
}
