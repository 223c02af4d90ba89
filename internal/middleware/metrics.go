package middleware

import (
	"sync"

	"github.com/ansrivas/fiberprometheus/v2"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// InitMetrics returns the process-wide Prometheus middleware. The collectors
// are registered once; later calls return the same instance.
func InitMetrics(serviceName string) *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = fiberprometheus.New(serviceName)
	})
	return prom
}
