// pkg/grid/stats.go

package grid

import (
	"AveGrid/pkg/chunk"
	"AveGrid/pkg/meta"
)

// Stats returns the statistics of the grid, scanning every chunk when a write made
// them stale. The scan follows the environment's recovery mode.
func (g *Grid[T]) Stats() (meta.Statistics, error) {
	if g.closed {
		return meta.Statistics{}, ErrClosed
	}
	g.checkStale()
	if !g.desc.Statistics.Stale {
		return g.desc.Statistics, nil
	}
	mods := g.mods()
	var st meta.Statistics
	for _, id := range g.desc.ChunkIDs() {
		if _, err := g.e.CheckAndMaybeFreeMemory(); err != nil {
			return st, err
		}
		var part meta.Statistics
		g.e.AddToProtected(g, id)
		err := g.e.Do(g.e.Config().Recover, nil, func() error {
			part = meta.Statistics{}
			return g.scanChunk(id, &part)
		})
		g.e.RemoveFromProtected(g, id)
		if err != nil {
			return st, err
		}
		merge(&st, part)
	}
	g.desc.Statistics = st
	g.scanMods = mods
	return st, nil
}

func merge(s *meta.Statistics, o meta.Statistics) {
	if o.Count == 0 {
		return
	}
	if s.Count == 0 || o.Min < s.Min {
		s.Min = o.Min
	}
	if s.Count == 0 || o.Max > s.Max {
		s.Max = o.Max
	}
	s.Sum += o.Sum
	s.Count += o.Count
}

func (g *Grid[T]) scanChunk(id chunk.ID, st *meta.Statistics) error {
	rows, cols := g.desc.ChunkExtent(id)
	c, err := g.lookup(id)
	if err != nil {
		return err
	}
	if c == nil {
		if !g.IsNoData(g.fill) {
			st.AddN(g.kind.Float(g.fill), int64(rows*cols))
		}
		return nil
	}
	if c, err = g.Chunk(id); err != nil {
		return err
	}
	if c.Repr() != chunk.Dense {
		if v, ok := c.Uniform(); ok {
			if !g.IsNoData(v) {
				st.AddN(g.kind.Float(v), int64(rows*cols))
			}
			return nil
		}
	}
	for r := 0; r < rows; r++ {
		for col := 0; col < cols; col++ {
			v, err := c.Get(r, col)
			if err != nil {
				return err
			}
			if !g.IsNoData(v) {
				st.Add(g.kind.Float(v))
			}
		}
	}
	return nil
}
