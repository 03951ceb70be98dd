// cmd/grids.go

package main

import (
	"fmt"

	"AveGrid/pkg/chunk"
	"AveGrid/pkg/env"
	"AveGrid/pkg/grid"
	"AveGrid/pkg/meta"
)

// anyGrid is a grid of any cell type. The concrete value is one of the
// *grid.Grid instantiations opened by openGrid.
type anyGrid interface {
	ID() string
	Name() string
	Descriptor() meta.Descriptor
	ResidentBytes() int64
	Stats() (meta.Statistics, error)
	Write() error
	Close()
}

func openGrid(e *env.Environment, s *gridStore, idOrName string) (anyGrid, error) {
	d, err := s.meta.LoadGrid(idOrName)
	if err != nil {
		return nil, err
	}
	switch d.CellType {
	case chunk.TypeBinary:
		return grid.OpenBinary(e, s.chunks, s.meta, d.ID)
	case chunk.TypeBoolean:
		return grid.OpenBoolean(e, s.chunks, s.meta, d.ID)
	case chunk.TypeInt:
		return grid.OpenInt(e, s.chunks, s.meta, d.ID)
	case chunk.TypeDouble:
		return grid.OpenDouble(e, s.chunks, s.meta, d.ID)
	}
	return nil, fmt.Errorf("grid %s has unknown cell type %s", d.ID, d.CellType)
}

func newGrid(e *env.Environment, s *gridStore, t chunk.CellType, nrows, ncols int64, opts ...grid.Option) (anyGrid, error) {
	switch t {
	case chunk.TypeBinary:
		return grid.NewBinary(e, s.chunks, nrows, ncols, opts...)
	case chunk.TypeBoolean:
		return grid.NewBoolean(e, s.chunks, nrows, ncols, opts...)
	case chunk.TypeInt:
		return grid.NewInt(e, s.chunks, nrows, ncols, opts...)
	case chunk.TypeDouble:
		return grid.NewDouble(e, s.chunks, nrows, ncols, opts...)
	}
	return nil, fmt.Errorf("unknown cell type %s", t)
}

func mustOpenGrid(e *env.Environment, s *gridStore, idOrName string) anyGrid {
	g, err := openGrid(e, s, idOrName)
	if err != nil {
		logger.Fatalf("open grid %s: %s", idOrName, err)
	}
	return g
}
