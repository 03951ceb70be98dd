// pkg/algo/rescale.go

package algo

import (
	"AveGrid/pkg/chunk"
	"AveGrid/pkg/env"
	"AveGrid/pkg/grid"
)

// Rescale maps the values of g linearly from their range onto [lo, hi] into a new
// double grid with the same geometry. If either range is empty every value maps to
// lo. No-data cells stay no-data.
func Rescale[T comparable](e *env.Environment, g *grid.Grid[T], name string, lo, hi float64, retry bool) (*grid.Grid[float64], error) {
	st, err := Statistics(e, g, retry)
	if err != nil {
		return nil, err
	}
	d := g.Descriptor()
	opts := []grid.Option{
		grid.WithName(name),
		grid.WithChunkSize(d.ChunkNRows, d.ChunkNCols),
		grid.WithDimensions(d.Dimensions),
	}
	if g.Meta() != nil {
		opts = append(opts, grid.WithMeta(g.Meta()))
	}
	out, err := grid.NewDouble(e, g.Store(), g.NRows(), g.NCols(), opts...)
	if err != nil {
		return nil, err
	}
	vmin, vmax := st.Min, st.Max
	scale := func(v float64) float64 {
		if vmax == vmin || hi == lo {
			return lo
		}
		return lo + (v-vmin)*(hi-lo)/(vmax-vmin)
	}
	kind := g.Kind()
	err = walk(e, g, retry, out, []env.Swappable{out}, func(id chunk.ID) error {
		src, err := g.ChunkIfExists(id)
		if err != nil {
			return err
		}
		// unwritten and no-data: out reads as no-data already
		if src == nil && g.IsNoData(g.Fill()) {
			return nil
		}
		dst, err := out.Chunk(id)
		if err != nil {
			return err
		}
		return cells(g, id, func(r, c int, _, _ int64) error {
			v := g.Fill()
			if src != nil {
				if v, err = src.Get(r, c); err != nil {
					return err
				}
			}
			nv := out.NoData()
			if !g.IsNoData(v) {
				nv = scale(kind.Float(v))
			}
			_, err = dst.Set(r, c, nv)
			return err
		})
	})
	if err != nil {
		out.Close()
		return nil, err
	}
	logger.Debugf("rescaled %s from [%g, %g] to [%g, %g] into %s", g.Name(), vmin, vmax, lo, hi, out.Name())
	return out, nil
}
