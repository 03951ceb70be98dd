// pkg/chunk/codec.go

package chunk

import (
	"sort"

	"AveGrid/pkg/utils"

	"github.com/pkg/errors"
)

const (
	codecMagic   = 'G'
	codecVersion = 1
	headerSize   = 1 + 1 + 1 + 1 + 4 + 4
)

// Encode serializes a resident chunk:
//
//	magic | version | cell type | repr | rows u32 | cols u32 | payload
//
// dense: every cell; singlet: one cell; sparse: default cell, count u32, then
// (index u32, cell) pairs in ascending index order.
func Encode[T comparable](c *Chunk[T]) []byte {
	w := c.kind.Width()
	var size int
	switch p := c.data.(type) {
	case *denseCells[T]:
		size = len(p.cells) * w
	case *singletCells[T]:
		size = w
	case *sparseCells[T]:
		size = w + 4 + len(p.cells)*(4+w)
	default:
		panic("encode a cached chunk")
	}
	buf := utils.NewBuffer(uint32(headerSize + size))
	buf.Put8(codecMagic)
	buf.Put8(codecVersion)
	buf.Put8(uint8(c.kind.Type()))
	buf.Put8(uint8(c.data.repr()))
	buf.Put32(uint32(c.rows))
	buf.Put32(uint32(c.cols))
	switch p := c.data.(type) {
	case *denseCells[T]:
		for _, v := range p.cells {
			c.kind.Put(buf.Get(w), v)
		}
	case *singletCells[T]:
		c.kind.Put(buf.Get(w), p.value)
	case *sparseCells[T]:
		c.kind.Put(buf.Get(w), p.def)
		idx := make([]int, 0, len(p.cells))
		for i := range p.cells {
			idx = append(idx, int(i))
		}
		sort.Ints(idx)
		buf.Put32(uint32(len(idx)))
		for _, i := range idx {
			buf.Put32(uint32(i))
			c.kind.Put(buf.Get(w), p.cells[int32(i)])
		}
	}
	return buf.Bytes()
}

func decode[T comparable](kind Kind[T], blob []byte) (payload[T], int, int, error) {
	if len(blob) < headerSize {
		return nil, 0, 0, errors.Wrapf(ErrCorrupted, "%d bytes", len(blob))
	}
	buf := utils.ReadBuffer(blob)
	if m := buf.Get8(); m != codecMagic {
		return nil, 0, 0, errors.Wrapf(ErrCorrupted, "bad magic %x", m)
	}
	if v := buf.Get8(); v != codecVersion {
		return nil, 0, 0, errors.Wrapf(ErrCorrupted, "unsupported version %d", v)
	}
	if t := CellType(buf.Get8()); t != kind.Type() {
		return nil, 0, 0, errors.Wrapf(ErrCorrupted, "cell type %s, expected %s", t, kind.Type())
	}
	repr := Repr(buf.Get8())
	rows, cols := int(buf.Get32()), int(buf.Get32())
	n := rows * cols
	w := kind.Width()
	switch repr {
	case Dense:
		if buf.Left() != n*w {
			return nil, 0, 0, errors.Wrapf(ErrCorrupted, "dense payload of %d bytes for %d cells", buf.Left(), n)
		}
		d := &denseCells[T]{make([]T, n)}
		for i := range d.cells {
			d.cells[i] = kind.Get(buf.Get(w))
		}
		return d, rows, cols, nil
	case Singlet:
		if buf.Left() != w {
			return nil, 0, 0, errors.Wrapf(ErrCorrupted, "singlet payload of %d bytes", buf.Left())
		}
		return &singletCells[T]{kind.Get(buf.Get(w))}, rows, cols, nil
	case Sparse:
		if buf.Left() < w+4 {
			return nil, 0, 0, errors.Wrapf(ErrCorrupted, "sparse payload of %d bytes", buf.Left())
		}
		s := newSparse(kind.Get(buf.Get(w)))
		count := int(buf.Get32())
		if buf.Left() != count*(4+w) {
			return nil, 0, 0, errors.Wrapf(ErrCorrupted, "sparse payload of %d bytes for %d cells", buf.Left(), count)
		}
		for j := 0; j < count; j++ {
			i := buf.Get32()
			if int(i) >= n {
				return nil, 0, 0, errors.Wrapf(ErrCorrupted, "sparse index %d out of %d", i, n)
			}
			s.cells[int32(i)] = kind.Get(buf.Get(w))
		}
		return s, rows, cols, nil
	}
	return nil, 0, 0, errors.Wrapf(ErrCorrupted, "unknown representation %d", repr)
}
