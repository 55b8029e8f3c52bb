package enginelog

import "github.com/prometheus/client_golang/prometheus"

// RegisterMetrics registers l's entries/dropped counters with reg. Prefer
// calling this once at startup; it is equivalent to l.RegisterMetrics but
// kept as a free function for symmetry with the other components' metrics
// files.
func RegisterMetrics(reg prometheus.Registerer, l *Logger) error {
	return l.RegisterMetrics(reg)
}
