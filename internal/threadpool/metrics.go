package threadpool

import "github.com/prometheus/client_golang/prometheus"

// RegisterMetrics exposes the pool's Stats as Prometheus gauge funcs under
// reg. Safe to call once per pool instance.
func (p *ThreadPool) RegisterMetrics(reg prometheus.Registerer) error {
	metrics := []struct {
		name string
		help string
		read func(Stats) float64
	}{
		{"voxelcore_threadpool_tasks_completed_total", "Tasks that finished executing.", func(s Stats) float64 { return float64(s.TasksCompleted) }},
		{"voxelcore_threadpool_tasks_stolen_total", "Tasks picked up via work stealing.", func(s Stats) float64 { return float64(s.TasksStolen) }},
		{"voxelcore_threadpool_tasks_cancelled_total", "Tasks dropped due to cancellation.", func(s Stats) float64 { return float64(s.TasksCancelled) }},
		{"voxelcore_threadpool_wait_micros_total", "Cumulative microseconds tasks spent queued.", func(s Stats) float64 { return float64(s.TotalWaitMicros) }},
		{"voxelcore_threadpool_exec_micros_total", "Cumulative microseconds spent executing tasks.", func(s Stats) float64 { return float64(s.TotalExecMicros) }},
		{"voxelcore_threadpool_active_workers", "Worker goroutines currently running.", func(s Stats) float64 { return float64(s.ActiveWorkers) }},
		{"voxelcore_threadpool_pending_tasks", "Tasks queued across the global queue and all local deques.", func(s Stats) float64 { return float64(p.PendingCount()) }},
	}

	for _, m := range metrics {
		g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: m.name, Help: m.help}, func() float64 {
			return m.read(p.Stats())
		})
		if err := reg.Register(g); err != nil {
			return err
		}
	}
	return nil
}
