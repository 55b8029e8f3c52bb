// Package engine wires components A-I into the per-frame glue component J
// describes: drive the fixed-rate tick loop, keep ChunkManager's load set
// current, hand freshly-dirty render layers to the uploader, and expose the
// latest swapped-in buffer for a renderer to consume.
package engine

import (
	"math"

	"golang.org/x/sync/errgroup"

	"voxelcore/internal/block"
	"voxelcore/internal/blockmodel"
	"voxelcore/internal/chunkmanager"
	"voxelcore/internal/config"
	"voxelcore/internal/enginelog"
	"voxelcore/internal/mesher"
	"voxelcore/internal/terrain"
	"voxelcore/internal/threadpool"
	"voxelcore/internal/timedriver"
	"voxelcore/internal/uploader"
)

// renderLayers is the fixed iteration order every layer-indexed loop in this
// package uses.
var renderLayers = [3]block.Layer{block.Opaque, block.Cutout, block.Translucent}

// Orchestrator is the frame-to-frame owner of every other component: one
// per running engine instance.
type Orchestrator struct {
	cfg *config.Config
	log *enginelog.Logger

	pool   *threadpool.ThreadPool
	chunks *chunkmanager.ChunkManager
	driver *timedriver.TimeDriver

	uploaders map[block.Layer]*uploader.AsyncUploader
}

// New constructs an Orchestrator from a resolved configuration, an
// immutable block table/atlas, a terrain source, and a GPU device
// abstraction (MemoryDevice in tests, a real backend in production).
func New(cfg *config.Config, table *block.Table, atlas *blockmodel.TextureAtlas, source terrain.Source, device uploader.GpuDevice, log *enginelog.Logger) *Orchestrator {
	if log == nil {
		log = enginelog.New(enginelog.Info, 1024)
	}

	pool := threadpool.New(cfg.ThreadCount)
	pool.SetWorkStealingEnabled(cfg.WorkStealingEnabled)
	pool.SetLogger(log)

	msh := mesher.New(table, atlas, cfg.CutoutFullFaceEpsilon)
	chunks := chunkmanager.New(source, msh, pool, cfg.ChunkLoadRadius, cfg.UnloadHysteresis)
	chunks.SetLogger(log)
	chunks.SetMaxPendingLoads(cfg.MaxPendingLoads)

	uploaders := make(map[block.Layer]*uploader.AsyncUploader, len(renderLayers))
	for _, layer := range renderLayers {
		u := uploader.New(device, cfg.MaxRetiringBuffers)
		u.SetLogger(log)
		uploaders[layer] = u
	}

	driver := timedriver.New(tickRateToHz(cfg.TickRateHz))

	o := &Orchestrator{
		cfg:       cfg,
		log:       log,
		pool:      pool,
		chunks:    chunks,
		driver:    driver,
		uploaders: uploaders,
	}
	driver.SetTickCallback(o.tick)
	return o
}

func tickRateToHz(hz float64) int {
	rounded := int(math.Round(hz))
	if rounded < 1 {
		return 1
	}
	return rounded
}

// tick is TimeDriver's fixed-step callback: it dequeues and dispatches at
// most ChunksPerTick newly-needed chunks for population and meshing.
func (o *Orchestrator) tick(float32) {
	n := o.chunks.Tick(o.cfg.ChunksPerTick)
	if n > 0 {
		o.log.Debugf("engine: ticked %d chunk(s), %d pending", n, o.chunks.PendingCount())
	}
}

// Frame runs one render frame: advances the tick accumulator, refreshes
// ChunkManager's load set against the observer's world position, and
// re-aggregates and re-queues every render layer in which some loaded chunk
// is still dirty (ChunkManager.AnyDirty).
func (o *Orchestrator) Frame(observerWorldPos [3]float32) {
	o.driver.Update()
	o.chunks.Update(observerWorldPos)

	for _, layer := range renderLayers {
		if !o.chunks.AnyDirty(layer) {
			continue
		}
		vertices, _ := o.chunks.AggregateLayer(layer)
		instances := quadsToFaceInstances(vertices)
		o.uploaders[layer].QueueBufferUpdate(instances, nil)
	}
}

// CurrentBuffer returns the most recently swapped-in buffer for layer,
// the handle a renderer binds for its draw call.
func (o *Orchestrator) CurrentBuffer(layer block.Layer) uploader.BufferRecord {
	return o.uploaders[layer].CurrentBufferInfo()
}

// ThreadPool exposes the underlying scheduler for callers that want its
// Stats beyond what the orchestrator surfaces directly.
func (o *Orchestrator) ThreadPool() *threadpool.ThreadPool { return o.pool }

// ChunkManager exposes direct block read/write access (e.g. for an editor
// tool or a console command) without routing through Frame.
func (o *Orchestrator) ChunkManager() *chunkmanager.ChunkManager { return o.chunks }

// Shutdown tears every owned component down in parallel: the uploaders'
// background workers, the thread pool's workers, and finally the logger
// once nothing can enqueue to it anymore.
func (o *Orchestrator) Shutdown() {
	var g errgroup.Group
	for _, u := range o.uploaders {
		u := u
		g.Go(func() error {
			u.Shutdown()
			return nil
		})
	}
	g.Go(func() error {
		o.pool.Shutdown()
		return nil
	})
	_ = g.Wait()

	o.log.Shutdown()
}
