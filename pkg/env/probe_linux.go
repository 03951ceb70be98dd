// pkg/env/probe_linux.go

package env

import "golang.org/x/sys/unix"

// systemProbe reports the free RAM of the host, capped by the budget.
type systemProbe struct {
	runtimeProbe
}

func newSystemProbe(budget int64) Probe {
	return systemProbe{runtimeProbe{budget}}
}

func (p systemProbe) Name() string { return "system" }

func (p systemProbe) Available() int64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		logger.Warnf("sysinfo: %s, falling back to the runtime probe", err)
		return p.runtimeProbe.Available()
	}
	free := int64(uint64(info.Freeram) * uint64(info.Unit))
	if budget := p.runtimeProbe.Available(); budget < free {
		return budget
	}
	return free
}
