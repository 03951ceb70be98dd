// pkg/env/env.go

package env

import (
	"fmt"
	"time"

	"AveGrid/pkg/chunk"
	"AveGrid/pkg/utils"
)

var logger = utils.GetLogger("avegrid")

// Swappable is a container of chunks the environment may evict from, in practice a grid.
type Swappable interface {
	// ID is the identity of the container, unique within an environment.
	ID() string
	Name() string
	ResidentChunks() []chunk.ID
	// ResidentBytes estimates the memory held by resident chunks.
	ResidentBytes() int64
	// CacheChunk evicts one chunk. It returns false, without error, for a chunk that
	// is protected or not resident.
	CacheChunk(id chunk.ID) (bool, error)
}

type chunkKey struct {
	grid string
	id   chunk.ID
}

// Environment is the memory manager of one processing session. It is not safe for
// concurrent use.
type Environment struct {
	conf      Config
	probe     Probe
	grids     []Swappable
	protected map[chunkKey]struct{}
	reserve   []byte
	startTime time.Time
}

// New creates an environment and allocates its memory reserve.
func New(conf Config) (*Environment, error) {
	if conf.Probe == "" {
		conf.Probe = "accounting"
	}
	if conf.MaxRecoveries <= 0 {
		conf.MaxRecoveries = DefaultConfig().MaxRecoveries
	}
	if err := conf.Validate(); err != nil {
		return nil, err
	}
	e := &Environment{
		conf:      conf,
		protected: make(map[chunkKey]struct{}),
		startTime: utils.Now(),
	}
	var err error
	if e.probe, err = newProbe(e); err != nil {
		return nil, err
	}
	e.InitReserve()
	logger.Debugf("memory environment: budget %d, headroom %d, reserve %d, probe %s",
		conf.MemoryBudget, conf.MinHeadroom, conf.ReserveSize, e.probe.Name())
	return e, nil
}

func (e *Environment) Config() Config {
	return e.conf
}

// Uptime is the time since the environment was created.
func (e *Environment) Uptime() time.Duration {
	return utils.Now().Sub(e.startTime)
}

// Register adds g to the eviction candidates.
func (e *Environment) Register(g Swappable) error {
	for _, o := range e.grids {
		if o.ID() == g.ID() {
			return fmt.Errorf("grid %s is already registered", g.ID())
		}
	}
	e.grids = append(e.grids, g)
	return nil
}

// Unregister drops g and its protected chunks.
func (e *Environment) Unregister(g Swappable) {
	for i, o := range e.grids {
		if o.ID() == g.ID() {
			e.grids = append(e.grids[:i], e.grids[i+1:]...)
			break
		}
	}
	for k := range e.protected {
		if k.grid == g.ID() {
			delete(e.protected, k)
		}
	}
}

// Grids returns the registered grids in registration order.
func (e *Environment) Grids() []Swappable {
	return append([]Swappable(nil), e.grids...)
}

// ResidentBytes is the memory held by all registered grids.
func (e *Environment) ResidentBytes() int64 {
	var n int64
	for _, g := range e.grids {
		n += g.ResidentBytes()
	}
	return n
}

// Available samples the probe.
func (e *Environment) Available() int64 {
	return e.probe.Available()
}
