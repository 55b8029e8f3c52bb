package chunkmanager_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"voxelcore/internal/block"
	"voxelcore/internal/blockmodel"
	"voxelcore/internal/chunkmanager"
	"voxelcore/internal/mesher"
	"voxelcore/internal/terrain"
	"voxelcore/internal/threadpool"
	"voxelcore/internal/voxel"
)

const stoneID block.Id = 1

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

func newMesher() *mesher.Mesher {
	b := block.NewBuilder()
	b.Register(stoneID, block.Entry{RenderLayer: block.Opaque}, fullCubeModel("stone"))
	atlas := blockmodel.NewTextureAtlas()
	atlas.Register("stone")
	return mesher.New(b.Build(), atlas, 0)
}

// waitUntil polls cond every few milliseconds up to ~1s; used because
// meshing tasks run asynchronously on the pool.
func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestUpdateIsANoOpUntilObserverCrossesChunkBoundary(t *testing.T) {
	pool := threadpool.New(2)
	defer pool.Shutdown()
	src := terrain.NewFlat(8, stoneID, stoneID)
	m := chunkmanager.New(src, newMesher(), pool, 1, 1)

	m.Update([3]float32{0, 0, 0})
	first := m.PendingCount()
	require.Positive(t, first)

	m.Update([3]float32{1, 1, 1}) // still chunk (0,0,0)
	require.Equal(t, first, m.PendingCount())
}

func TestTickPopulatesAndMeshesEnqueuedChunks(t *testing.T) {
	pool := threadpool.New(2)
	defer pool.Shutdown()
	src := terrain.NewFlat(8, stoneID, stoneID)
	m := chunkmanager.New(src, newMesher(), pool, 0, 1)

	m.Update([3]float32{0, 0, 0})
	require.Equal(t, 1, m.PendingCount())

	processed := m.Tick(10)
	require.Equal(t, 1, processed)
	require.Equal(t, 1, m.LoadedCount())

	waitUntil(t, func() bool { return !m.AnyDirty(block.Opaque) })

	verts, indices := m.AggregateLayer(block.Opaque)
	require.NotEmpty(t, verts)
	require.NotEmpty(t, indices)
}

func TestTickRespectsBudget(t *testing.T) {
	pool := threadpool.New(2)
	defer pool.Shutdown()
	src := terrain.NewFlat(8, stoneID, stoneID)
	m := chunkmanager.New(src, newMesher(), pool, 1, 1) // radius 1 => 27 coords

	m.Update([3]float32{0, 0, 0})
	require.Equal(t, 27, m.PendingCount())

	processed := m.Tick(2)
	require.Equal(t, 2, processed)
	require.Equal(t, 25, m.PendingCount())
	require.Equal(t, 2, m.LoadedCount())
}

func TestSetMaxPendingLoadsCapsEnqueue(t *testing.T) {
	pool := threadpool.New(2)
	defer pool.Shutdown()
	src := terrain.NewFlat(8, stoneID, stoneID)
	m := chunkmanager.New(src, newMesher(), pool, 1, 1) // radius 1 => 27 coords
	m.SetMaxPendingLoads(10)

	m.Update([3]float32{0, 0, 0})
	require.Equal(t, 10, m.PendingCount())
}

func TestBlockAtReturnsAirForUnloadedChunk(t *testing.T) {
	pool := threadpool.New(2)
	defer pool.Shutdown()
	src := terrain.NewFlat(8, stoneID, stoneID)
	m := chunkmanager.New(src, newMesher(), pool, 0, 1)

	require.Equal(t, block.Air, m.BlockAt(100, 100, 100))
}

func TestBlockAtCrossesEuclideanNegativeBoundary(t *testing.T) {
	pool := threadpool.New(2)
	defer pool.Shutdown()
	// SurfaceY=-1 so world Y=-1 (chunk -1, local 15) is filled, Y=0 is air.
	src := terrain.NewFlat(-1, stoneID, stoneID)
	m := chunkmanager.New(src, newMesher(), pool, 0, 1)

	m.Update([3]float32{0, -1, 0}) // observer inside chunk (0,-1,0)
	m.Tick(10)
	waitUntil(t, func() bool { return m.LoadedCount() == 1 })

	require.Equal(t, stoneID, m.BlockAt(0, -1, 0))
}

func TestSetBlockAtMarksBoundaryNeighborDirty(t *testing.T) {
	pool := threadpool.New(2)
	defer pool.Shutdown()
	src := terrain.NewFlat(-100, block.Air, block.Air) // empty chunks
	m := chunkmanager.New(src, newMesher(), pool, 1, 1)

	m.Update([3]float32{0, 0, 0})
	m.Tick(100)
	waitUntil(t, func() bool { return m.LoadedCount() == 27 })
	waitUntil(t, func() bool { return !m.AnyDirty(block.Opaque) })

	// Edit the block at local x=0 of chunk (0,0,0): world x=0, touching the
	// boundary with chunk (-1,0,0).
	m.SetBlockAt(0, 5, 5, stoneID)

	require.True(t, m.AnyDirty(block.Opaque))
}

func TestAggregateLayerRebasesIndicesAcrossChunks(t *testing.T) {
	pool := threadpool.New(2)
	defer pool.Shutdown()
	src := terrain.NewFlat(8, stoneID, stoneID)
	m := chunkmanager.New(src, newMesher(), pool, 1, 1)

	m.Update([3]float32{0, 0, 0})
	m.Tick(100)
	waitUntil(t, func() bool { return m.LoadedCount() == 27 })
	waitUntil(t, func() bool { return !m.AnyDirty(block.Opaque) })

	verts, indices := m.AggregateLayer(block.Opaque)
	for _, idx := range indices {
		require.Less(t, int(idx), len(verts))
	}
}

func TestEvictionCancelsPendingMeshTask(t *testing.T) {
	pool := threadpool.New(1)
	defer pool.Shutdown()
	src := terrain.NewFlat(8, stoneID, stoneID)
	m := chunkmanager.New(src, newMesher(), pool, 1, 0)

	m.Update([3]float32{0, 0, 0})
	m.Tick(100)
	waitUntil(t, func() bool { return m.LoadedCount() == 27 })

	// Move far enough that every previous chunk is outside radius+hysteresis.
	far := float32(1000 * voxel.Size)
	m.Update([3]float32{far, far, far})

	waitUntil(t, func() bool { return m.LoadedCount() == 0 })
}

// TestConcurrentUpdateAndEditsDoNotRace drives Update from one goroutine
// while another repeatedly edits already-loaded blocks; run with -race this
// catches any unguarded access to the chunk map or a chunk's block array.
func TestConcurrentUpdateAndEditsDoNotRace(t *testing.T) {
	pool := threadpool.New(4)
	defer pool.Shutdown()
	src := terrain.NewFlat(8, stoneID, stoneID)
	m := chunkmanager.New(src, newMesher(), pool, 2, 1)

	m.Update([3]float32{0, 0, 0})
	m.Tick(200)
	waitUntil(t, func() bool { return m.PendingCount() == 0 })

	var g errgroup.Group
	g.Go(func() error {
		for i := int32(0); i < 50; i++ {
			m.Update([3]float32{float32(i), 0, 0})
		}
		return nil
	})
	g.Go(func() error {
		for i := int32(0); i < 200; i++ {
			m.SetBlockAt(i%16, 0, 0, stoneID)
		}
		return nil
	})
	g.Go(func() error {
		for i := 0; i < 50; i++ {
			m.AggregateLayer(block.Opaque)
		}
		return nil
	})
	require.NoError(t, g.Wait())
}
