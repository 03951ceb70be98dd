// pkg/chunk/payload.go

package chunk

import "fmt"

// Repr is the in-memory representation of a resident chunk.
type Repr uint8

const (
	// Dense keeps one value per cell.
	Dense Repr = iota + 1
	// Singlet keeps one value for the whole chunk and rejects differing writes.
	Singlet
	// Sparse keeps a default value plus the cells that differ from it.
	Sparse
)

func (r Repr) String() string {
	switch r {
	case Dense:
		return "dense"
	case Singlet:
		return "singlet"
	case Sparse:
		return "sparse"
	}
	return fmt.Sprintf("Repr(%d)", uint8(r))
}

// Same reports whether a and b are the same cell value. NaN is the same as any
// other NaN.
func Same[T comparable](a, b T) bool {
	return a == b || (a != a && b != b)
}

type payload[T comparable] interface {
	repr() Repr
	get(i int) T
	// set returns the previous value of cell i.
	set(i int, v T) (T, error)
	// size estimates the memory held, width is the size of one cell.
	size(width int) int64
	clone() payload[T]
}

type denseCells[T comparable] struct {
	cells []T
}

func newDense[T comparable](n int, fill T) *denseCells[T] {
	cells := make([]T, n)
	var zero T
	if fill != zero {
		for i := range cells {
			cells[i] = fill
		}
	}
	return &denseCells[T]{cells}
}

func (d *denseCells[T]) repr() Repr   { return Dense }
func (d *denseCells[T]) get(i int) T  { return d.cells[i] }
func (d *denseCells[T]) set(i int, v T) (T, error) {
	old := d.cells[i]
	d.cells[i] = v
	return old, nil
}
func (d *denseCells[T]) size(width int) int64 { return int64(len(d.cells) * width) }
func (d *denseCells[T]) clone() payload[T] {
	cells := make([]T, len(d.cells))
	copy(cells, d.cells)
	return &denseCells[T]{cells}
}

type singletCells[T comparable] struct {
	value T
}

func (s *singletCells[T]) repr() Repr  { return Singlet }
func (s *singletCells[T]) get(int) T   { return s.value }
func (s *singletCells[T]) set(i int, v T) (T, error) {
	if !Same(v, s.value) {
		return s.value, ErrRepresentationMismatch
	}
	return s.value, nil
}
func (s *singletCells[T]) size(width int) int64 { return int64(width) }
func (s *singletCells[T]) clone() payload[T]    { return &singletCells[T]{s.value} }

// sparseEntryOverhead approximates the bookkeeping of one map entry.
const sparseEntryOverhead = 48

type sparseCells[T comparable] struct {
	def   T
	cells map[int32]T
}

func newSparse[T comparable](def T) *sparseCells[T] {
	return &sparseCells[T]{def, make(map[int32]T)}
}

func (s *sparseCells[T]) repr() Repr { return Sparse }
func (s *sparseCells[T]) get(i int) T {
	if v, ok := s.cells[int32(i)]; ok {
		return v
	}
	return s.def
}
func (s *sparseCells[T]) set(i int, v T) (T, error) {
	old := s.get(i)
	if Same(v, s.def) {
		delete(s.cells, int32(i))
	} else {
		s.cells[int32(i)] = v
	}
	return old, nil
}
func (s *sparseCells[T]) size(width int) int64 {
	return int64(width + len(s.cells)*(width+sparseEntryOverhead))
}
func (s *sparseCells[T]) clone() payload[T] {
	c := newSparse(s.def)
	for k, v := range s.cells {
		c.cells[k] = v
	}
	return c
}
