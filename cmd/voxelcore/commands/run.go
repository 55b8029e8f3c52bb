package commands

import (
	"context"
	"fmt"
	"math"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"voxelcore/internal/block"
	"voxelcore/internal/blockmodel"
	"voxelcore/internal/config"
	"voxelcore/internal/engine"
	"voxelcore/internal/enginelog"
	"voxelcore/internal/terrain"
	"voxelcore/internal/uploader"
)

var (
	observerSpeed float32
	orbitRadius   float32
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the engine core against a synthetic flat world and observer path",
	Long: `run drives TimeDriver, ChunkManager, the mesher, and AsyncUploader
end to end against a built-in flat terrain source and an orbiting synthetic
observer. There is no window, renderer, or input: this is the headless
engine core a real client embeds.

Examples:
  # Run until interrupted, at default observer speed
  voxelcore run

  # Run with a custom config file
  voxelcore run --config ./voxelcore.yaml

  # Run with debug logging
  VOXELCORE_LOG_LEVEL=debug voxelcore run`,
	RunE: runEngine,
}

func init() {
	runCmd.Flags().Float32Var(&observerSpeed, "observer-speed", 6.0, "synthetic observer orbit speed, radians/sec")
	runCmd.Flags().Float32Var(&orbitRadius, "orbit-radius", 48, "synthetic observer orbit radius, in blocks")
}

func runEngine(cmd *cobra.Command, args []string) error {
	configPath := GetConfigFile()
	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := enginelog.ParseLevel(cfg.LogLevel)
	log := enginelog.New(level, 4096)
	defer log.Shutdown()
	if err != nil {
		log.Warnf("engine: %v, falling back to info", err)
	}

	table, atlas := demoWorld()
	source := terrain.NewFlat(0, demoTopBlock, demoFillBlock)

	eng := engine.New(cfg, table, atlas, source, uploader.NewMemoryDevice(), log)
	defer eng.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log.Infof("engine: running, load radius %d, tick rate %.0fHz (Ctrl+C to stop)", cfg.ChunkLoadRadius, cfg.TickRateHz)
	runLoop(ctx, eng, log)
	log.Infof("engine: shutdown complete")
	return nil
}

func runLoop(ctx context.Context, eng *engine.Orchestrator, log *enginelog.Logger) {
	ticker := time.NewTicker(16 * time.Millisecond)
	defer ticker.Stop()

	statusTicker := time.NewTicker(time.Second)
	defer statusTicker.Stop()

	var elapsed float64
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed += 0.016
			theta := elapsed * float64(observerSpeed)
			observer := [3]float32{
				orbitRadius * float32(math.Cos(theta)),
				64,
				orbitRadius * float32(math.Sin(theta)),
			}
			eng.Frame(observer)
		case <-statusTicker.C:
			loaded := eng.ChunkManager().LoadedCount()
			pending := eng.ChunkManager().PendingCount()
			stats := eng.ThreadPool().Stats()
			log.Infof("engine: chunks loaded=%d pending=%d tasks_completed=%d tasks_stolen=%d",
				loaded, pending, stats.TasksCompleted, stats.TasksStolen)
		}
	}
}

const (
	demoStoneID block.Id = 1
	demoTopBlock         = demoStoneID
	demoFillBlock        = demoStoneID
)

// demoWorld builds the minimal block table and atlas the run command needs
// to produce renderable geometry: the block/texture registry population is
// deliberately out of scope for the core, so this is a throwaway stand-in
// for whatever registry a real client would provide.
func demoWorld() (*block.Table, *blockmodel.TextureAtlas) {
	atlas := blockmodel.NewTextureAtlas()
	atlas.Register("stone")

	faces := make(map[string]blockmodel.Face, 6)
	for _, dir := range []string{"east", "west", "up", "down", "north", "south"} {
		faces[dir] = blockmodel.Face{UV: [4]float32{0, 0, 1, 1}, Texture: "stone"}
	}
	model := &blockmodel.Model{
		Elements: []blockmodel.Element{{
			From:  [3]float32{0, 0, 0},
			To:    [3]float32{1, 1, 1},
			Faces: faces,
		}},
	}

	b := block.NewBuilder()
	b.Register(demoStoneID, block.Entry{RenderLayer: block.Opaque}, model)
	return b.Build(), atlas
}
