// pkg/meta/descriptor.go

package meta

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"AveGrid/pkg/chunk"
)

// Statistics summarise the cells of a grid that are not no-data.
type Statistics struct {
	Min   float64
	Max   float64
	Sum   float64
	Count int64
	// Stale is set by any changing write and cleared by a full scan.
	Stale bool
}

func (s Statistics) Mean() float64 {
	if s.Count == 0 {
		return math.NaN()
	}
	return s.Sum / float64(s.Count)
}

// Add folds one value into s.
func (s *Statistics) Add(v float64) {
	if s.Count == 0 || v < s.Min {
		s.Min = v
	}
	if s.Count == 0 || v > s.Max {
		s.Max = v
	}
	s.Sum += v
	s.Count++
}

// AddN folds n copies of v into s.
func (s *Statistics) AddN(v float64, n int64) {
	if n <= 0 {
		return
	}
	s.Add(v)
	s.Sum += v * float64(n-1)
	s.Count += n - 1
}

// Descriptor is the persistent description of a grid, kept as <ID>/grid.json.
type Descriptor struct {
	ID         string
	Name       string
	CellType   chunk.CellType
	NRows      int64
	NCols      int64
	ChunkNRows int32
	ChunkNCols int32
	Dimensions Dimensions

	// NoData is the no-data value as text, see FormatNoData.
	NoData string

	// Fill is the value, as text, of cells in chunks that were never written.
	Fill string

	Statistics Statistics
	Created    time.Time
	Modified   time.Time
}

func (d *Descriptor) Validate() error {
	if d.ID == "" {
		return fmt.Errorf("grid without id")
	}
	if d.NRows <= 0 || d.NCols <= 0 {
		return fmt.Errorf("grid %s has invalid size %dx%d", d.ID, d.NRows, d.NCols)
	}
	if d.ChunkNRows <= 0 || d.ChunkNCols <= 0 {
		return fmt.Errorf("grid %s has invalid chunk size %dx%d", d.ID, d.ChunkNRows, d.ChunkNCols)
	}
	if d.NChunkRows() > math.MaxInt32 || d.NChunkCols() > math.MaxInt32 {
		return fmt.Errorf("grid %s has too many chunks", d.ID)
	}
	return d.Dimensions.Validate()
}

func (d *Descriptor) NChunkRows() int64 {
	return (d.NRows + int64(d.ChunkNRows) - 1) / int64(d.ChunkNRows)
}

func (d *Descriptor) NChunkCols() int64 {
	return (d.NCols + int64(d.ChunkNCols) - 1) / int64(d.ChunkNCols)
}

func (d *Descriptor) NChunks() int64 {
	return d.NChunkRows() * d.NChunkCols()
}

func (d *Descriptor) Contains(row, col int64) bool {
	return row >= 0 && row < d.NRows && col >= 0 && col < d.NCols
}

// ChunkOf returns the chunk owning cell (row, col) and the cell's position inside it.
func (d *Descriptor) ChunkOf(row, col int64) (chunk.ID, int, int) {
	cr, cc := int64(d.ChunkNRows), int64(d.ChunkNCols)
	return chunk.ID{Row: int32(row / cr), Col: int32(col / cc)}, int(row % cr), int(col % cc)
}

// ChunkOrigin returns the grid position of cell (0, 0) of chunk id.
func (d *Descriptor) ChunkOrigin(id chunk.ID) (int64, int64) {
	return int64(id.Row) * int64(d.ChunkNRows), int64(id.Col) * int64(d.ChunkNCols)
}

// ChunkExtent returns the logical size of chunk id: chunks on the north and east
// edges are truncated to the grid.
func (d *Descriptor) ChunkExtent(id chunk.ID) (int, int) {
	r0, c0 := d.ChunkOrigin(id)
	rows, cols := int64(d.ChunkNRows), int64(d.ChunkNCols)
	if r0+rows > d.NRows {
		rows = d.NRows - r0
	}
	if c0+cols > d.NCols {
		cols = d.NCols - c0
	}
	if rows < 0 {
		rows = 0
	}
	if cols < 0 {
		cols = 0
	}
	return int(rows), int(cols)
}

// ChunkIDs lists every chunk of the grid, south to north and west to east.
func (d *Descriptor) ChunkIDs() []chunk.ID {
	ids := make([]chunk.ID, 0, d.NChunks())
	for r := int64(0); r < d.NChunkRows(); r++ {
		for c := int64(0); c < d.NChunkCols(); c++ {
			ids = append(ids, chunk.ID{Row: int32(r), Col: int32(c)})
		}
	}
	return ids
}

// SameShape reports whether two grids have the same cells.
func (d *Descriptor) SameShape(o *Descriptor) bool {
	return d.NRows == o.NRows && d.NCols == o.NCols && d.Dimensions.SameGrid(o.Dimensions)
}

// FormatNoData renders a no-data value so that ParseNoData returns it exactly.
func FormatNoData(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func ParseNoData(s string) (float64, error) {
	return strconv.ParseFloat(s, 64)
}
