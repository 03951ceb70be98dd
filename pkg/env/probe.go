// pkg/env/probe.go

package env

import (
	"fmt"
	"runtime"
)

// Probe samples how many bytes may still be allocated.
type Probe interface {
	Name() string
	Available() int64
}

// accountingProbe charges the budget with the reserve and the resident bytes of every
// registered grid. It only sees memory grids report, which makes it deterministic.
type accountingProbe struct {
	e *Environment
}

func (p accountingProbe) Name() string { return "accounting" }

func (p accountingProbe) Available() int64 {
	used := int64(len(p.e.reserve))
	for _, g := range p.e.grids {
		used += g.ResidentBytes()
	}
	return int64(p.e.conf.MemoryBudget) - used
}

type runtimeProbe struct {
	budget int64
}

func (p runtimeProbe) Name() string { return "runtime" }

func (p runtimeProbe) Available() int64 {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	return p.budget - int64(ms.HeapAlloc)
}

func newProbe(e *Environment) (Probe, error) {
	switch e.conf.Probe {
	case "", "accounting":
		return accountingProbe{e}, nil
	case "runtime":
		return runtimeProbe{int64(e.conf.MemoryBudget)}, nil
	case "system":
		return newSystemProbe(int64(e.conf.MemoryBudget)), nil
	}
	return nil, fmt.Errorf("unknown probe %q", e.conf.Probe)
}
