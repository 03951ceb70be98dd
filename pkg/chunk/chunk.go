// pkg/chunk/chunk.go

package chunk

import (
	"fmt"

	"AveGrid/pkg/utils"

	"github.com/pkg/errors"
)

var logger = utils.GetLogger("avegrid")

// State is the residency of a chunk.
type State uint8

const (
	// Cached chunks have been evicted and hold no payload.
	Cached State = iota
	// ResidentClean chunks match their persisted copy.
	ResidentClean
	// ResidentDirty chunks have changes that are not persisted yet.
	ResidentDirty
)

func (s State) String() string {
	switch s {
	case Cached:
		return "cached"
	case ResidentClean:
		return "clean"
	case ResidentDirty:
		return "dirty"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Chunk is a rows x cols block of cells of one grid. Cells are addressed by
// chunk-local (row, col) in row-major order.
//
// A Chunk is not safe for concurrent use.
type Chunk[T comparable] struct {
	grid string
	id   ID
	kind Kind[T]
	rows int
	cols int

	data  payload[T] // nil when cached
	clean bool       // cache up to date: data equals the persisted copy
	loc   Location   // empty until first persisted
	mods  uint64     // cell changes since creation
}

func newChunk[T comparable](kind Kind[T], grid string, id ID, rows, cols int, data payload[T]) *Chunk[T] {
	return &Chunk[T]{grid: grid, id: id, kind: kind, rows: rows, cols: cols, data: data}
}

// NewCached returns a non-resident chunk whose content lives at loc.
func NewCached[T comparable](kind Kind[T], grid string, id ID, rows, cols int, loc Location) *Chunk[T] {
	return &Chunk[T]{grid: grid, id: id, kind: kind, rows: rows, cols: cols, clean: true, loc: loc}
}

func (c *Chunk[T]) ID() ID          { return c.id }
func (c *Chunk[T]) Grid() string    { return c.grid }
func (c *Chunk[T]) Kind() Kind[T]   { return c.kind }
func (c *Chunk[T]) Rows() int       { return c.rows }
func (c *Chunk[T]) Cols() int       { return c.cols }
func (c *Chunk[T]) Resident() bool  { return c.data != nil }
func (c *Chunk[T]) Persisted() bool { return c.loc != "" }

// CacheUpToDate reports whether the persisted copy equals the resident content.
func (c *Chunk[T]) CacheUpToDate() bool { return c.clean }

// Mods counts the cell writes that changed a value since the chunk was created.
func (c *Chunk[T]) Mods() uint64 { return c.mods }

// Location returns where the chunk was last persisted.
func (c *Chunk[T]) Location() Location { return c.loc }

func (c *Chunk[T]) State() State {
	switch {
	case c.data == nil:
		return Cached
	case c.clean:
		return ResidentClean
	}
	return ResidentDirty
}

// Repr returns the representation of the resident payload, 0 for a cached chunk.
func (c *Chunk[T]) Repr() Repr {
	if c.data == nil {
		return 0
	}
	return c.data.repr()
}

// Size estimates the memory held by the payload in bytes.
func (c *Chunk[T]) Size() int64 {
	if c.data == nil {
		return 0
	}
	return c.data.size(c.kind.Width())
}

// PayloadSize is the memory a dense payload of this chunk would take.
func (c *Chunk[T]) PayloadSize() int64 {
	return int64(c.rows*c.cols) * int64(c.kind.Width())
}

func (c *Chunk[T]) index(row, col int) (int, error) {
	if row < 0 || row >= c.rows || col < 0 || col >= c.cols {
		return 0, fmt.Errorf("cell (%d, %d) outside chunk %s of %dx%d", row, col, c.id, c.rows, c.cols)
	}
	return row*c.cols + col, nil
}

// Get returns the cell at chunk-local (row, col).
func (c *Chunk[T]) Get(row, col int) (T, error) {
	var zero T
	if c.data == nil {
		return zero, errors.Wrapf(ErrCached, "get %s", c.id)
	}
	i, err := c.index(row, col)
	if err != nil {
		return zero, err
	}
	return c.data.get(i), nil
}

// Set writes a cell and returns its previous value. Writing an unchanged value does
// not dirty the chunk. A singlet fails with ErrRepresentationMismatch for any
// other value and is left untouched.
func (c *Chunk[T]) Set(row, col int, v T) (T, error) {
	var zero T
	if c.data == nil {
		return zero, errors.Wrapf(ErrCached, "set %s", c.id)
	}
	i, err := c.index(row, col)
	if err != nil {
		return zero, err
	}
	if old := c.data.get(i); Same(old, v) {
		return old, nil
	}
	old, err := c.data.set(i, v)
	if err != nil {
		return old, errors.Wrapf(err, "set %s of %s", c.id, c.data.repr())
	}
	c.clean = false
	c.mods++
	return old, nil
}

// Uniform reports whether all cells hold the same value, and that value.
func (c *Chunk[T]) Uniform() (T, bool) {
	var zero T
	if c.data == nil {
		return zero, false
	}
	switch p := c.data.(type) {
	case *singletCells[T]:
		return p.value, true
	case *sparseCells[T]:
		if len(p.cells) == 0 {
			return p.def, true
		}
		if len(p.cells) < c.rows*c.cols {
			return zero, false
		}
	}
	first := c.data.get(0)
	for i := 1; i < c.rows*c.cols; i++ {
		if !Same(c.data.get(i), first) {
			return zero, false
		}
	}
	return first, true
}

// Load reads a cached chunk back from s. Loading a resident chunk is a no-op.
func (c *Chunk[T]) Load(s Store) error {
	if c.data != nil {
		return nil
	}
	if c.loc == "" {
		return errors.Wrapf(ErrNotFound, "load %s/%s", c.grid, c.id)
	}
	blob, err := s.Get(c.loc)
	if err != nil {
		return errors.Wrapf(err, "load %s/%s", c.grid, c.id)
	}
	data, rows, cols, err := decode(c.kind, blob)
	if err != nil {
		return errors.Wrapf(err, "load %s/%s", c.grid, c.id)
	}
	if rows != c.rows || cols != c.cols {
		return errors.Wrapf(ErrCorrupted, "load %s/%s: size %dx%d, expected %dx%d", c.grid, c.id, rows, cols, c.rows, c.cols)
	}
	c.data = data
	c.clean = true
	logger.Debugf("loaded chunk %s/%s (%s)", c.grid, c.id, data.repr())
	return nil
}

// Flush persists a dirty resident chunk and keeps it resident.
func (c *Chunk[T]) Flush(s Store) error {
	if c.data == nil || c.clean {
		return nil
	}
	loc, err := s.Put(c.grid, c.id, Encode(c))
	if err != nil {
		return errors.Wrapf(err, "flush %s/%s", c.grid, c.id)
	}
	c.loc = loc
	c.clean = true
	return nil
}

// Evict drops the payload, persisting it first when dirty. It returns false for a
// chunk that is already cached.
func (c *Chunk[T]) Evict(s Store) (bool, error) {
	if c.data == nil {
		return false, nil
	}
	if err := c.Flush(s); err != nil {
		return false, err
	}
	logger.Debugf("evicted chunk %s/%s (%s)", c.grid, c.id, c.data.repr())
	c.data = nil
	return true, nil
}

// Copy returns a resident copy of c with the given identity, dirty and never persisted.
func (c *Chunk[T]) Copy(grid string, id ID) (*Chunk[T], error) {
	if c.data == nil {
		return nil, errors.Wrapf(ErrCached, "copy %s", c.id)
	}
	return newChunk(c.kind, grid, id, c.rows, c.cols, c.data.clone()), nil
}
