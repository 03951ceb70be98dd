// pkg/env/memory.go

package env

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrMemoryExhausted is the fault raised by Allocate. It is the only error the
	// recovery protocol retries.
	ErrMemoryExhausted = errors.New("memory exhausted")
	// ErrUnrecoverable is returned by Do when eviction cannot make room.
	ErrUnrecoverable = errors.New("unrecoverable memory exhaustion")
)

// UnrecoverableError wraps the fault a recovery gave up on.
type UnrecoverableError struct {
	Fault  error
	Rounds int
}

func (e *UnrecoverableError) Error() string {
	return fmt.Sprintf("%s after %d recoveries: %s", ErrUnrecoverable, e.Rounds, e.Fault)
}

func (e *UnrecoverableError) Unwrap() error { return e.Fault }

func (e *UnrecoverableError) Is(target error) bool { return target == ErrUnrecoverable }

// Allocate asks for n bytes. It fails with ErrMemoryExhausted when the probe
// reports less than n available.
func (e *Environment) Allocate(n int64) error {
	if avail := e.probe.Available(); avail < n {
		faults.Inc()
		return errors.Wrapf(ErrMemoryExhausted, "allocate %d bytes, %d available", n, avail)
	}
	return nil
}

// evictOne evicts the first non-protected resident chunk outside exclude and returns
// the bytes its grid released.
func (e *Environment) evictOne(exclude Swappable) (int64, bool, error) {
	for _, g := range e.grids {
		if exclude != nil && g.ID() == exclude.ID() {
			continue
		}
		for _, id := range g.ResidentChunks() {
			if e.IsProtected(g.ID(), id) {
				continue
			}
			before := g.ResidentBytes()
			ok, err := g.CacheChunk(id)
			if err != nil {
				return 0, false, errors.Wrapf(err, "evict %s of %s", id, g.Name())
			}
			if ok {
				return before - g.ResidentBytes(), true, nil
			}
		}
	}
	return 0, false, nil
}

// CacheChunkExcept evicts one non-protected chunk of any grid but exclude, which may
// be nil. It returns false when there is no candidate.
func (e *Environment) CacheChunkExcept(exclude Swappable) (bool, error) {
	_, ok, err := e.evictOne(exclude)
	if ok {
		evictions.WithLabelValues("single").Inc()
	}
	return ok, err
}

// CacheChunksExcept evicts every non-protected chunk of all grids but exclude and
// returns how many were evicted.
func (e *Environment) CacheChunksExcept(exclude Swappable) (int, error) {
	var n int
	for {
		_, ok, err := e.evictOne(exclude)
		if err != nil {
			return n, err
		}
		if !ok {
			break
		}
		n++
	}
	evictions.WithLabelValues("recovery").Add(float64(n))
	return n, nil
}

// CheckAndMaybeFreeMemory evicts non-protected chunks while the available memory is
// below the configured headroom. It returns whether anything was evicted.
//
// Available memory is sampled once. Runtime and system measurements only see evicted
// payloads after a garbage collection, so the deficit shrinks by the bytes each
// eviction released instead of by a fresh sample.
func (e *Environment) CheckAndMaybeFreeMemory() (bool, error) {
	var n int
	avail := e.probe.Available()
	deficit := int64(e.conf.MinHeadroom) - avail
	for deficit > 0 {
		freed, ok, err := e.evictOne(nil)
		if err != nil {
			return n > 0, err
		}
		if !ok {
			logger.Debugf("%d bytes available below headroom %d, nothing left to evict",
				avail, e.conf.MinHeadroom)
			break
		}
		deficit -= freed
		n++
	}
	if n > 0 {
		evictions.WithLabelValues("proactive").Add(float64(n))
		logger.Debugf("evicted %d chunks to restore headroom", n)
	}
	return n > 0, nil
}

// Do runs op. When op fails with ErrMemoryExhausted and retry is set, it releases
// the reserve, evicts every non-protected chunk outside exclude, re-allocates the
// reserve and runs op again from the start. It gives up with ErrUnrecoverable when
// a round evicts nothing or after MaxRecoveries rounds. Without retry the fault
// is returned as is. op must be safe to repeat.
func (e *Environment) Do(retry bool, exclude Swappable, op func() error) error {
	for round := 0; ; round++ {
		err := op()
		if err == nil || !retry || errors.Is(err, ErrUnrecoverable) || !errors.Is(err, ErrMemoryExhausted) {
			return err
		}
		if round >= e.conf.MaxRecoveries {
			recoveries.WithLabelValues("exhausted").Inc()
			return &UnrecoverableError{err, round}
		}
		e.ClearReserve()
		n, cerr := e.CacheChunksExcept(exclude)
		if cerr != nil {
			e.InitReserve()
			return cerr
		}
		if n == 0 {
			recoveries.WithLabelValues("unrecoverable").Inc()
			e.InitReserve()
			return &UnrecoverableError{err, round}
		}
		recoveries.WithLabelValues("retried").Inc()
		logger.Infof("memory exhausted (%s), evicted %d chunks, retrying", err, n)
		e.InitReserve()
	}
}
