// pkg/utils/rusage.go

package utils

import (
	"syscall"
	"time"
)

// Rusage is the resource usage of this process.
type Rusage struct {
	syscall.Rusage
}

func (ru *Rusage) GetUtime() float64 { return seconds(ru.Utime) }
func (ru *Rusage) GetStime() float64 { return seconds(ru.Stime) }

// CPU is the user plus system time spent so far.
func (ru *Rusage) CPU() time.Duration {
	return time.Duration((ru.GetUtime() + ru.GetStime()) * float64(time.Second))
}

// CPUSince is the CPU time spent since prev was sampled.
func (ru *Rusage) CPUSince(prev *Rusage) time.Duration {
	return ru.CPU() - prev.CPU()
}

func seconds(tv syscall.Timeval) float64 {
	return float64(tv.Sec) + float64(tv.Usec)/1e6
}

func GetRusage() *Rusage {
	var ru syscall.Rusage
	_ = syscall.Getrusage(syscall.RUSAGE_SELF, &ru)
	return &Rusage{ru}
}
