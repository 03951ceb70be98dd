// pkg/env/metrics.go

package env

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	evictions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avegrid_env_evictions_total",
		Help: "Chunks evicted by the memory environment, by trigger.",
	}, []string{"trigger"})
	faults = promauto.NewCounter(prometheus.CounterOpts{
		Name: "avegrid_env_memory_faults_total",
		Help: "Allocations refused for lack of memory.",
	})
	recoveries = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avegrid_env_recoveries_total",
		Help: "Recovery rounds of the evict-and-retry protocol, by outcome.",
	}, []string{"result"})
)
