// pkg/algo/walk.go

package algo

import (
	"AveGrid/pkg/chunk"
	"AveGrid/pkg/env"
	"AveGrid/pkg/grid"
	"AveGrid/pkg/utils"

	"github.com/pkg/errors"
)

var logger = utils.GetLogger("avegrid")

// ErrShape is returned for grids that do not cover the same cells.
var ErrShape = errors.New("grids differ in shape")

// walk runs step for every chunk of g in turn. Before each step it runs the
// proactive memory check, then protects the chunk in g and in every grid of with
// (which must share g's chunk geometry) and runs the step inside the recovery
// protocol, so a step must be safe to repeat.
func walk[T comparable](e *env.Environment, g *grid.Grid[T], retry bool, exclude env.Swappable, with []env.Swappable, step func(id chunk.ID) error) error {
	for _, id := range g.ChunkIDs() {
		if _, err := e.CheckAndMaybeFreeMemory(); err != nil {
			return err
		}
		e.AddToProtected(g, id)
		for _, o := range with {
			e.AddToProtected(o, id)
		}
		err := e.Do(retry, exclude, func() error { return step(id) })
		e.RemoveFromProtected(g, id)
		for _, o := range with {
			e.RemoveFromProtected(o, id)
		}
		if err != nil {
			return errors.Wrapf(err, "chunk %s of %s", id, g.Name())
		}
	}
	return nil
}

// cells calls fn for the logical cells of chunk id with their grid position.
func cells[T comparable](g *grid.Grid[T], id chunk.ID, fn func(r, c int, row, col int64) error) error {
	rows, cols := g.ChunkExtent(id)
	r0, c0 := g.ChunkOrigin(id)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if err := fn(r, c, r0+int64(r), c0+int64(c)); err != nil {
				return err
			}
		}
	}
	return nil
}
