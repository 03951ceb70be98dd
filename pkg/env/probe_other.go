// pkg/env/probe_other.go

//go:build !linux

package env

func newSystemProbe(budget int64) Probe {
	logger.Warnf("the system probe is only available on linux, using the runtime probe")
	return runtimeProbe{budget}
}
