// pkg/algo/mask.go

package algo

import (
	"AveGrid/pkg/chunk"
	"AveGrid/pkg/env"
	"AveGrid/pkg/grid"

	"github.com/pkg/errors"
)

// Mask sets every cell of g to no-data where m is no-data. g and m must have the
// same shape, their chunking may differ.
func Mask[T, M comparable](e *env.Environment, g *grid.Grid[T], m *grid.Grid[M], retry bool) error {
	gd, md := g.Descriptor(), m.Descriptor()
	if !gd.SameShape(&md) {
		return errors.Wrapf(ErrShape, "mask %s (%dx%d) with %s (%dx%d)", g.Name(), g.NRows(), g.NCols(), m.Name(), m.NRows(), m.NCols())
	}
	var masked int64
	err := walk(e, g, retry, nil, nil, func(id chunk.ID) error {
		return cells(g, id, func(_, _ int, row, col int64) error {
			mv, err := m.Cell(row, col)
			if err != nil {
				return err
			}
			if !m.IsNoData(mv) {
				return nil
			}
			old, err := g.SetCell(row, col, g.NoData())
			if err == nil && !g.IsNoData(old) {
				masked++
			}
			return err
		})
	})
	if err != nil {
		return err
	}
	logger.Debugf("masked %d cells of %s with %s", masked, g.Name(), m.Name())
	return nil
}
