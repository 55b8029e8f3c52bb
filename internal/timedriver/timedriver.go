// Package timedriver implements a fixed-timestep accumulator: update() on
// every frame measures real elapsed time, clamps it to avoid a
// spiral-of-death, and invokes a registered tick callback zero or more
// times at a constant rate independent of frame rate (component H).
package timedriver

import (
	"fmt"
	"sync"
	"time"
)

const (
	maxDeltaTime = 250 * time.Millisecond
	ringSize     = 100
)

// TickCallback runs once per fixed tick, receiving the fixed step in
// seconds.
type TickCallback func(dt float32)

// TimeDriver accumulates real elapsed time and drains it in fixed-size
// ticks. Not safe for concurrent Update calls; Stats/DebugInfo may be read
// from other goroutines while Update runs elsewhere.
type TimeDriver struct {
	mu sync.Mutex

	tickRateHz   int
	tickDuration time.Duration

	lastFrame time.Time
	started   time.Time

	accumulator time.Duration
	deltaTime   float32
	totalTime   float32

	totalTicks  int64
	totalFrames int64

	frameTimes ring
	tickTimes  ring

	onTick TickCallback
}

// ring is a fixed-capacity rolling buffer of the last N samples.
type ring struct {
	values [ringSize]float32
	pos    int
	filled bool
}

func (r *ring) push(v float32) {
	r.values[r.pos] = v
	r.pos = (r.pos + 1) % ringSize
	if r.pos == 0 {
		r.filled = true
	}
}

func (r *ring) average() float32 {
	n := ringSize
	if !r.filled {
		n = r.pos
	}
	if n == 0 {
		return 0
	}
	var sum float32
	for i := 0; i < n; i++ {
		sum += r.values[i]
	}
	return sum / float32(n)
}

func (r *ring) last() float32 {
	idx := r.pos - 1
	if idx < 0 {
		if !r.filled {
			return 0
		}
		idx = ringSize - 1
	}
	return r.values[idx]
}

// New creates a driver targeting tickRateHz ticks per second (clamped to at
// least 1).
func New(tickRateHz int) *TimeDriver {
	if tickRateHz < 1 {
		tickRateHz = 1
	}
	now := time.Now()
	return &TimeDriver{
		tickRateHz:   tickRateHz,
		tickDuration: time.Second / time.Duration(tickRateHz),
		lastFrame:    now,
		started:      now,
	}
}

// SetTickCallback installs the callback invoked once per fixed tick.
func (d *TimeDriver) SetTickCallback(cb TickCallback) {
	d.mu.Lock()
	d.onTick = cb
	d.mu.Unlock()
}

// SetTickRateHz reconfigures the tick rate at runtime. Values below 1 are
// rejected and leave the rate unchanged.
func (d *TimeDriver) SetTickRateHz(hz int) bool {
	if hz < 1 {
		return false
	}
	d.mu.Lock()
	d.tickRateHz = hz
	d.tickDuration = time.Second / time.Duration(hz)
	d.mu.Unlock()
	return true
}

// Update measures elapsed time since the last call, clamps it to 250ms,
// accumulates it, and drains as many fixed ticks as the accumulator allows.
func (d *TimeDriver) Update() {
	now := time.Now()

	d.mu.Lock()
	frameDur := now.Sub(d.lastFrame)
	d.lastFrame = now

	if frameDur > maxDeltaTime {
		frameDur = maxDeltaTime
	}
	d.deltaTime = float32(frameDur.Seconds())
	d.totalTime += d.deltaTime
	d.totalFrames++
	d.accumulator += frameDur

	cb := d.onTick
	tickDuration := d.tickDuration
	d.mu.Unlock()

	for {
		d.mu.Lock()
		if d.accumulator < tickDuration {
			d.mu.Unlock()
			break
		}
		d.accumulator -= tickDuration
		d.totalTicks++
		d.mu.Unlock()

		fixedDt := float32(tickDuration.Seconds())
		start := time.Now()
		if cb != nil {
			cb(fixedDt)
		}
		execSeconds := float32(time.Since(start).Seconds())

		d.mu.Lock()
		d.tickTimes.push(execSeconds)
		d.mu.Unlock()
	}

	d.mu.Lock()
	d.frameTimes.push(d.deltaTime)
	d.mu.Unlock()
}

// Stats is a point-in-time snapshot of timing statistics.
type Stats struct {
	DeltaTime        float32
	AverageDeltaTime float32
	TotalElapsed     float32
	CurrentTPS       float64
	AverageTPS       float64
	TargetTickRate   int
	TotalTicks       int64
	TotalFrames      int64
}

// Stats returns a snapshot of current timing statistics.
func (d *TimeDriver) Stats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()

	lastTick := d.tickTimes.last()
	var currentTPS float64
	if lastTick > 0 {
		currentTPS = 1.0 / float64(lastTick)
	}
	avgTick := d.tickTimes.average()
	var avgTPS float64
	if avgTick > 0 {
		avgTPS = 1.0 / float64(avgTick)
	}

	return Stats{
		DeltaTime:        d.deltaTime,
		AverageDeltaTime: d.frameTimes.average(),
		TotalElapsed:     d.totalTime,
		CurrentTPS:       currentTPS,
		AverageTPS:       avgTPS,
		TargetTickRate:   d.tickRateHz,
		TotalTicks:       d.totalTicks,
		TotalFrames:      d.totalFrames,
	}
}

// DebugInfo renders a one-line human-readable summary of Stats, matching
// the original's getDebugInfo.
func (d *TimeDriver) DebugInfo() string {
	s := d.Stats()
	return fmt.Sprintf(
		"Time Stats: FT: %.2fms, Avg FT: %.2fms, TPS: %.1f/%d, Frames: %d, Ticks: %d",
		s.DeltaTime*1000, s.AverageDeltaTime*1000, s.CurrentTPS, s.TargetTickRate, s.TotalFrames, s.TotalTicks,
	)
}

// Reset clears all time tracking, as if the driver were freshly created.
func (d *TimeDriver) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	d.started = now
	d.lastFrame = now
	d.accumulator = 0
	d.deltaTime = 0
	d.totalTime = 0
	d.totalTicks = 0
	d.totalFrames = 0
	d.frameTimes = ring{}
	d.tickTimes = ring{}
}
