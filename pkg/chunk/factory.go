// pkg/chunk/factory.go

package chunk

import "github.com/pkg/errors"

// Factory builds chunks of one representation. Factories never perform I/O and
// every chunk they return is resident and dirty.
type Factory[T comparable] interface {
	Repr() Repr
	// Create returns a fresh chunk filled with the factory's initial value.
	Create(grid string, id ID, rows, cols int) *Chunk[T]
	// CreateFrom copy-constructs a resident src into this representation.
	CreateFrom(src *Chunk[T], id ID) (*Chunk[T], error)
}

// NewFactory returns the factory of representation r whose chunks start at value v.
func NewFactory[T comparable](kind Kind[T], r Repr, v T) Factory[T] {
	switch r {
	case Singlet:
		return SingletFactory[T]{kind, v}
	case Sparse:
		return SparseFactory[T]{kind, v}
	}
	return DenseFactory[T]{kind, v}
}

type DenseFactory[T comparable] struct {
	Kind Kind[T]
	Fill T
}

func (f DenseFactory[T]) Repr() Repr { return Dense }

func (f DenseFactory[T]) Create(grid string, id ID, rows, cols int) *Chunk[T] {
	return newChunk(f.Kind, grid, id, rows, cols, payload[T](newDense(rows*cols, f.Fill)))
}

func (f DenseFactory[T]) CreateFrom(src *Chunk[T], id ID) (*Chunk[T], error) {
	if src.data == nil {
		return nil, errors.Wrapf(ErrCached, "copy %s", src.id)
	}
	n := src.rows * src.cols
	d := &denseCells[T]{make([]T, n)}
	for i := range d.cells {
		d.cells[i] = src.data.get(i)
	}
	return newChunk(f.Kind, src.grid, id, src.rows, src.cols, payload[T](d)), nil
}

type SingletFactory[T comparable] struct {
	Kind  Kind[T]
	Value T
}

func (f SingletFactory[T]) Repr() Repr { return Singlet }

func (f SingletFactory[T]) Create(grid string, id ID, rows, cols int) *Chunk[T] {
	return newChunk(f.Kind, grid, id, rows, cols, payload[T](&singletCells[T]{f.Value}))
}

// CreateFrom only succeeds for a uniform src.
func (f SingletFactory[T]) CreateFrom(src *Chunk[T], id ID) (*Chunk[T], error) {
	if src.data == nil {
		return nil, errors.Wrapf(ErrCached, "copy %s", src.id)
	}
	v, ok := src.Uniform()
	if !ok {
		return nil, errors.Wrapf(ErrRepresentationMismatch, "chunk %s is not uniform", src.id)
	}
	return newChunk(f.Kind, src.grid, id, src.rows, src.cols, payload[T](&singletCells[T]{v})), nil
}

type SparseFactory[T comparable] struct {
	Kind    Kind[T]
	Default T
}

func (f SparseFactory[T]) Repr() Repr { return Sparse }

func (f SparseFactory[T]) Create(grid string, id ID, rows, cols int) *Chunk[T] {
	return newChunk(f.Kind, grid, id, rows, cols, payload[T](newSparse(f.Default)))
}

func (f SparseFactory[T]) CreateFrom(src *Chunk[T], id ID) (*Chunk[T], error) {
	if src.data == nil {
		return nil, errors.Wrapf(ErrCached, "copy %s", src.id)
	}
	s := newSparse(f.Default)
	for i := 0; i < src.rows*src.cols; i++ {
		if v := src.data.get(i); v != f.Default {
			s.cells[int32(i)] = v
		}
	}
	return newChunk(f.Kind, src.grid, id, src.rows, src.cols, payload[T](s)), nil
}
