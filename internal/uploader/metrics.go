package uploader

import "github.com/prometheus/client_golang/prometheus"

// RegisterMetrics exposes the retirement-queue depth as a Prometheus gauge.
func (u *AsyncUploader) RegisterMetrics(reg prometheus.Registerer) error {
	g := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "voxelcore_uploader_retiring_buffers",
		Help: "Device buffers displaced from current and awaiting destruction.",
	}, func() float64 { return float64(u.RetiringCount()) })
	return reg.Register(g)
}
