// pkg/algo/reduce.go

package algo

import (
	"AveGrid/pkg/chunk"
	"AveGrid/pkg/env"
	"AveGrid/pkg/grid"
	"AveGrid/pkg/meta"
)

// Statistics scans g and returns min, max, sum and count of the cells that are not
// no-data.
func Statistics[T comparable](e *env.Environment, g *grid.Grid[T], retry bool) (meta.Statistics, error) {
	var st meta.Statistics
	kind := g.Kind()
	err := walk(e, g, retry, nil, nil, func(id chunk.ID) error {
		var part meta.Statistics
		c, err := g.ChunkIfExists(id)
		if err != nil {
			return err
		}
		if c == nil {
			if !g.IsNoData(g.Fill()) {
				rows, cols := g.ChunkExtent(id)
				part.AddN(kind.Float(g.Fill()), int64(rows*cols))
			}
		} else {
			err = cells(g, id, func(r, col int, _, _ int64) error {
				v, err := c.Get(r, col)
				if err == nil && !g.IsNoData(v) {
					part.Add(kind.Float(v))
				}
				return err
			})
			if err != nil {
				return err
			}
		}
		if part.Count > 0 {
			if st.Count == 0 || part.Min < st.Min {
				st.Min = part.Min
			}
			if st.Count == 0 || part.Max > st.Max {
				st.Max = part.Max
			}
			st.Sum += part.Sum
			st.Count += part.Count
		}
		return nil
	})
	return st, err
}

// Sum returns the sum and the number of cells of g that are not no-data.
func Sum[T comparable](e *env.Environment, g *grid.Grid[T], retry bool) (float64, int64, error) {
	st, err := Statistics(e, g, retry)
	return st.Sum, st.Count, err
}

// Fill sets every cell of g to v.
func Fill[T comparable](e *env.Environment, g *grid.Grid[T], v T, retry bool) error {
	return walk(e, g, retry, nil, nil, func(id chunk.ID) error {
		return cells(g, id, func(_, _ int, row, col int64) error {
			_, err := g.SetCell(row, col, v)
			return err
		})
	})
}
