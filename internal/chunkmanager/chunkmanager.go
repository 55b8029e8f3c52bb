// Package chunkmanager implements component E: the set of loaded chunks,
// observer-driven load/unload bookkeeping, tick-budgeted terrain population
// and mesh task dispatch, cross-chunk block lookups for the mesher, and
// per-layer aggregation for the uploader.
package chunkmanager

import (
	"math"
	"sort"
	"sync"

	"voxelcore/internal/block"
	"voxelcore/internal/mesher"
	"voxelcore/internal/terrain"
	"voxelcore/internal/threadpool"
	"voxelcore/internal/voxel"
)

// Logger is the minimal logging capability the manager needs. Satisfied by
// *enginelog.Logger without this package importing it.
type Logger interface {
	Infof(format string, args ...any)
	Errorf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...any)  {}
func (nopLogger) Errorf(string, ...any) {}

// Defaults mirror spec §6 and the values in config.defaults.
const (
	DefaultLoadRadius      = 8
	DefaultUnloadHysteresis = 2
	DefaultChunksPerTick   = 2
)

// entry bundles a loaded chunk with the in-flight meshing task (if any)
// dispatched for it, so eviction can reach the task's cancellation flag.
type entry struct {
	chunk       *voxel.Chunk
	meshTaskID  threadpool.TaskID
	hasMeshTask bool
}

// ChunkManager owns every loaded chunk, the pending-load queue, and the
// machinery that turns observer movement into load/evict/mesh work.
type ChunkManager struct {
	mu     sync.RWMutex
	chunks map[voxel.Coord]*entry

	loadRadius       int32
	unloadHysteresis int32

	hasObserved  bool
	lastObserved voxel.Coord

	queueMu         sync.Mutex
	queue           []voxel.Coord
	queued          map[voxel.Coord]struct{}
	maxPendingLoads int

	source terrain.Source
	mesh   *mesher.Mesher
	pool   *threadpool.ThreadPool
	log    Logger
}

// New creates a manager backed by source (terrain population), msh (per-chunk
// meshing) and pool (async mesh task dispatch). A negative loadRadius or an
// unloadHysteresis <= 0 falls back to the spec default; a loadRadius of 0
// loads only the observer's own chunk.
func New(source terrain.Source, msh *mesher.Mesher, pool *threadpool.ThreadPool, loadRadius, unloadHysteresis int32) *ChunkManager {
	if loadRadius < 0 {
		loadRadius = DefaultLoadRadius
	}
	if unloadHysteresis <= 0 {
		unloadHysteresis = DefaultUnloadHysteresis
	}
	return &ChunkManager{
		chunks:           make(map[voxel.Coord]*entry),
		loadRadius:       loadRadius,
		unloadHysteresis: unloadHysteresis,
		queued:           make(map[voxel.Coord]struct{}),
		source:           source,
		mesh:             msh,
		pool:             pool,
		log:              nopLogger{},
	}
}

// SetLogger installs a logger for load/evict/mesh diagnostics.
func (m *ChunkManager) SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	m.log = l
}

// SetMaxPendingLoads bounds the pending-load queue: once it holds n coords,
// enqueueNeeded refuses further entries until Tick drains some. n <= 0
// means unbounded. Grounded on the teacher's ChunkStreamer.maxPending.
func (m *ChunkManager) SetMaxPendingLoads(n int) {
	m.queueMu.Lock()
	m.maxPendingLoads = n
	m.queueMu.Unlock()
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

func worldToChunk(worldX, worldY, worldZ int32) voxel.Coord {
	return voxel.Coord{
		X: floorDiv(worldX, voxel.Size),
		Y: floorDiv(worldY, voxel.Size),
		Z: floorDiv(worldZ, voxel.Size),
	}
}

func worldToLocal(worldX, worldY, worldZ int32) (lx, ly, lz int) {
	return int(euclideanMod(worldX, voxel.Size)),
		int(euclideanMod(worldY, voxel.Size)),
		int(euclideanMod(worldZ, voxel.Size))
}

// Update recomputes the needed-chunk set around observerWorldPos and
// enqueues anything not yet loaded or queued, then evicts every loaded chunk
// whose coord lies outside loadRadius+unloadHysteresis. A no-op if the
// observer hasn't crossed into a new chunk since the last call (spec §4.E).
func (m *ChunkManager) Update(observerWorldPos [3]float32) {
	obsChunk := worldToChunk(
		int32(math.Floor(float64(observerWorldPos[0]))),
		int32(math.Floor(float64(observerWorldPos[1]))),
		int32(math.Floor(float64(observerWorldPos[2]))),
	)

	m.mu.Lock()
	if m.hasObserved && obsChunk == m.lastObserved {
		m.mu.Unlock()
		return
	}
	m.hasObserved = true
	m.lastObserved = obsChunk
	m.mu.Unlock()

	m.enqueueNeeded(obsChunk)
	m.evictOutside(obsChunk)
}

func (m *ChunkManager) enqueueNeeded(obsChunk voxel.Coord) {
	r := m.loadRadius
	for dx := -r; dx <= r; dx++ {
		for dy := -r; dy <= r; dy++ {
			for dz := -r; dz <= r; dz++ {
				coord := obsChunk.Add(dx, dy, dz)

				m.mu.RLock()
				_, loaded := m.chunks[coord]
				m.mu.RUnlock()
				if loaded {
					continue
				}

				m.queueMu.Lock()
				if _, already := m.queued[coord]; !already {
					if m.maxPendingLoads > 0 && len(m.queue) >= m.maxPendingLoads {
						m.queueMu.Unlock()
						continue
					}
					m.queued[coord] = struct{}{}
					m.queue = append(m.queue, coord)
				}
				m.queueMu.Unlock()
			}
		}
	}
}

func (m *ChunkManager) evictOutside(obsChunk voxel.Coord) {
	threshold := m.loadRadius + m.unloadHysteresis

	m.mu.Lock()
	var toEvict []voxel.Coord
	for coord := range m.chunks {
		if chebyshev(coord, obsChunk) > threshold {
			toEvict = append(toEvict, coord)
		}
	}
	evicted := make([]*entry, 0, len(toEvict))
	for _, coord := range toEvict {
		evicted = append(evicted, m.chunks[coord])
		delete(m.chunks, coord)
	}
	m.mu.Unlock()

	for i, e := range evicted {
		if e.hasMeshTask {
			m.pool.Cancel(e.meshTaskID)
		}
		m.markNeighborsDirty(toEvict[i])
	}
}

func chebyshev(a, b voxel.Coord) int32 {
	dx, dy, dz := abs32(a.X-b.X), abs32(a.Y-b.Y), abs32(a.Z-b.Z)
	return max32(dx, max32(dy, dz))
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func max32(a, b int32) int32 {
	if a > b {
		return a
	}
	return b
}

// Tick drains up to budgetN pending-load entries: for each, it creates the
// chunk, populates it synchronously via the TerrainSource, installs it, and
// submits a HIGH-priority meshing task to the pool. Returns the number of
// chunks processed.
func (m *ChunkManager) Tick(budgetN int) int {
	processed := 0
	for processed < budgetN {
		coord, ok := m.dequeue()
		if !ok {
			break
		}

		m.mu.RLock()
		_, alreadyLoaded := m.chunks[coord]
		m.mu.RUnlock()
		if alreadyLoaded {
			processed++
			continue
		}

		c := voxel.New(coord)
		if m.source != nil {
			m.source.Populate(coord, c)
		}

		e := &entry{chunk: c}
		m.mu.Lock()
		m.chunks[coord] = e
		m.mu.Unlock()

		m.submitMesh(coord, e)
		processed++
	}
	return processed
}

func (m *ChunkManager) dequeue() (voxel.Coord, bool) {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	if len(m.queue) == 0 {
		return voxel.Coord{}, false
	}
	coord := m.queue[0]
	m.queue = m.queue[1:]
	delete(m.queued, coord)
	return coord, true
}

// submitMesh dispatches e's meshing task at HIGH priority (spec §4.E),
// checking the cancellation flag once more right before the mesher installs
// results (the manager's half of the cancellation contract in §4.E/§4.F).
func (m *ChunkManager) submitMesh(coord voxel.Coord, e *entry) {
	taskID := m.pool.SubmitSelfAware(func(id threadpool.TaskID) {
		m.mesh.Mesh(e.chunk, m, func() bool {
			return m.pool.IsCancelled(id)
		})
	}, threadpool.High, "mesh-chunk")

	m.mu.Lock()
	e.meshTaskID = taskID
	e.hasMeshTask = true
	m.mu.Unlock()
}

func (m *ChunkManager) markNeighborsDirty(coord voxel.Coord) {
	offsets := [6][3]int32{
		{1, 0, 0}, {-1, 0, 0},
		{0, 1, 0}, {0, -1, 0},
		{0, 0, 1}, {0, 0, -1},
	}
	for _, o := range offsets {
		nb := coord.Add(o[0], o[1], o[2])
		m.mu.RLock()
		e, ok := m.chunks[nb]
		m.mu.RUnlock()
		if ok {
			e.chunk.MarkDirty()
		}
	}
}

// BlockAt implements mesher.BlockProbe: it resolves a world-space block
// coordinate to its owning chunk using Euclidean floor-division, returning
// AIR if that chunk isn't loaded.
func (m *ChunkManager) BlockAt(worldX, worldY, worldZ int32) block.Id {
	coord := worldToChunk(worldX, worldY, worldZ)
	m.mu.RLock()
	e, ok := m.chunks[coord]
	m.mu.RUnlock()
	if !ok {
		return block.Air
	}
	lx, ly, lz := worldToLocal(worldX, worldY, worldZ)
	return e.chunk.Get(lx, ly, lz)
}

// SetBlockAt writes id through to the owning chunk (which must already be
// loaded; unloaded targets are ignored) and marks that chunk, plus any of
// the up to six neighbor chunks touched by a boundary edit, dirty.
func (m *ChunkManager) SetBlockAt(worldX, worldY, worldZ int32, id block.Id) {
	coord := worldToChunk(worldX, worldY, worldZ)
	m.mu.RLock()
	e, ok := m.chunks[coord]
	m.mu.RUnlock()
	if !ok {
		return
	}

	lx, ly, lz := worldToLocal(worldX, worldY, worldZ)
	e.chunk.Set(lx, ly, lz, id)

	m.markBoundaryNeighborDirty(coord, lx, 0, -1, 0)
	m.markBoundaryNeighborDirty(coord, lx, voxel.Size-1, 1, 0)
	m.markBoundaryNeighborDirty(coord, ly, 0, -1, 1)
	m.markBoundaryNeighborDirty(coord, ly, voxel.Size-1, 1, 1)
	m.markBoundaryNeighborDirty(coord, lz, 0, -1, 2)
	m.markBoundaryNeighborDirty(coord, lz, voxel.Size-1, 1, 2)
}

// markBoundaryNeighborDirty marks the neighbor across axis (0=x,1=y,2=z) in
// direction dir dirty, if local equals edge (i.e. the edit landed on that
// chunk face) and the neighbor is loaded.
func (m *ChunkManager) markBoundaryNeighborDirty(coord voxel.Coord, local, edge int, dir int32, axis int) {
	if local != edge {
		return
	}
	var nb voxel.Coord
	switch axis {
	case 0:
		nb = coord.Add(dir, 0, 0)
	case 1:
		nb = coord.Add(0, dir, 0)
	default:
		nb = coord.Add(0, 0, dir)
	}
	m.mu.RLock()
	e, ok := m.chunks[nb]
	m.mu.RUnlock()
	if ok {
		e.chunk.MarkDirty()
	}
}

// AggregateLayer concatenates every loaded chunk's layer-L vertex/index
// stream, rebasing indices so the result is a single valid mesh (spec
// §4.E). Chunks are visited in a stable coordinate order so repeated calls
// with no intervening edits produce byte-identical output. The manager's read
// lock is held for the whole concatenation, so loads and evictions wait.
func (m *ChunkManager) AggregateLayer(layer block.Layer) ([]voxel.Vertex, []uint32) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	coords := make([]voxel.Coord, 0, len(m.chunks))
	for coord := range m.chunks {
		coords = append(coords, coord)
	}
	entries := m.chunks

	sort.Slice(coords, func(i, j int) bool {
		a, b := coords[i], coords[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})

	var vertices []voxel.Vertex
	var indices []uint32
	for _, coord := range coords {
		mesh := entries[coord].chunk.LayerMesh(layer)
		base := uint32(len(vertices))
		vertices = append(vertices, mesh.Vertices...)
		for _, idx := range mesh.Indices {
			indices = append(indices, idx+base)
		}
	}
	return vertices, indices
}

// AnyDirty reports whether any loaded chunk still has a dirty layer-L
// stream; the engine's Frame calls AggregateLayer for a layer only while
// this reports true (spec §4.E: "invoked only when the layer is dirty").
func (m *ChunkManager) AnyDirty(layer block.Layer) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.chunks {
		if e.chunk.IsLayerDirty(layer) {
			return true
		}
	}
	return false
}

// LoadedCount returns the number of currently loaded chunks.
func (m *ChunkManager) LoadedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.chunks)
}

// PendingCount returns the number of coordinates queued for loading but not
// yet processed by Tick.
func (m *ChunkManager) PendingCount() int {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	return len(m.queue)
}
