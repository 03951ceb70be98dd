// pkg/grid/grid_test.go

package grid

import (
	"fmt"
	"io"
	"math"
	"testing"

	"AveGrid/pkg/chunk"
	"AveGrid/pkg/compress"
	"AveGrid/pkg/env"
	"AveGrid/pkg/meta"
	"AveGrid/pkg/object"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEnv(t *testing.T, budget env.Size) *env.Environment {
	conf := env.DefaultConfig()
	conf.MemoryBudget = budget
	conf.MinHeadroom = 0
	conf.ReserveSize = 0
	e, err := env.New(conf)
	require.NoError(t, err)
	return e
}

func newBlob(t *testing.T) object.ObjectStorage {
	blob, err := object.CreateStorage("mem", t.Name(), "", "")
	require.NoError(t, err)
	return blob
}

func newStore(t *testing.T) chunk.Store {
	return chunk.NewStore(newBlob(t), compress.NewCompressor("lz4"))
}

func TestCellRoundTrip(t *testing.T) {
	e := newEnv(t, 1<<20)
	g, err := NewInt(e, newStore(t), 10, 9, WithChunkSize(4, 4), WithName("dem"))
	require.NoError(t, err)
	assert.Equal(t, "dem", g.Name())
	assert.Equal(t, int32(math.MinInt32), g.NoData())

	v, err := g.Cell(3, 3)
	require.NoError(t, err)
	assert.Equal(t, g.NoData(), v, "cells start as no-data")
	assert.Empty(t, g.ResidentChunks(), "reading a never written chunk does not create it")

	for r := int64(0); r < 10; r++ {
		for c := int64(0); c < 9; c++ {
			_, err := g.SetCell(r, c, int32(r*100+c))
			require.NoError(t, err)
		}
	}
	assert.Len(t, g.ResidentChunks(), 9)
	old, err := g.SetCell(9, 8, -1)
	require.NoError(t, err)
	assert.Equal(t, int32(908), old)
	_, err = g.SetCell(9, 8, 908)
	require.NoError(t, err)

	for r := int64(0); r < 10; r++ {
		for c := int64(0); c < 9; c++ {
			v, err := g.Cell(r, c)
			require.NoError(t, err)
			assert.Equal(t, int32(r*100+c), v)
		}
	}
}

func TestOutOfRange(t *testing.T) {
	e := newEnv(t, 1<<20)
	g, err := NewDouble(e, newStore(t), 5, 5)
	require.NoError(t, err)
	v, err := g.Cell(-1, 0)
	require.NoError(t, err)
	assert.Equal(t, -math.MaxFloat64, v)
	v, err = g.Cell(0, 5)
	require.NoError(t, err)
	assert.True(t, g.IsNoData(v))

	_, err = g.SetCell(5, 0, 1)
	assert.True(t, errors.Is(err, ErrOutOfRange))
	_, err = g.Chunk(chunk.ID{Row: 1, Col: 0})
	assert.True(t, errors.Is(err, ErrOutOfRange))
}

func TestTransparency(t *testing.T) {
	e := newEnv(t, 1<<20)
	g, err := NewDouble(e, newStore(t), 7, 7, WithChunkSize(3, 3))
	require.NoError(t, err)
	for r := int64(0); r < 7; r++ {
		for c := int64(0); c < 7; c++ {
			if (r+c)%3 == 0 {
				_, err := g.SetCell(r, c, float64(r)-float64(c)/8)
				require.NoError(t, err)
			}
		}
	}
	before := snapshot(t, g)
	n, err := e.CacheChunksExcept(nil)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Empty(t, g.ResidentChunks())
	assert.Zero(t, g.ResidentBytes())
	assert.Equal(t, before, snapshot(t, g))

	// clean chunks evict again without changes
	_, err = e.CacheChunksExcept(nil)
	require.NoError(t, err)
	assert.Equal(t, before, snapshot(t, g))
}

func snapshot[T comparable](t *testing.T, g *Grid[T]) []T {
	var out []T
	for r := int64(0); r < g.NRows(); r++ {
		for c := int64(0); c < g.NCols(); c++ {
			v, err := g.Cell(r, c)
			require.NoError(t, err)
			out = append(out, v)
		}
	}
	return out
}

func TestProtectedChunksStayResident(t *testing.T) {
	e := newEnv(t, 1<<20)
	g, err := NewInt(e, newStore(t), 8, 8, WithChunkSize(4, 4), WithFill(0))
	require.NoError(t, err)
	for _, id := range g.ChunkIDs() {
		_, err := g.Chunk(id)
		require.NoError(t, err)
	}
	hot := chunk.ID{Row: 1, Col: 0}
	e.AddToProtected(g, hot)
	n, err := e.CacheChunksExcept(nil)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, []chunk.ID{hot}, g.ResidentChunks())

	ok, err := g.CacheChunk(hot)
	require.NoError(t, err)
	assert.False(t, ok)
	e.RemoveFromProtected(g, hot)
	ok, err = g.CacheChunk(hot)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSingletUpgrade(t *testing.T) {
	e := newEnv(t, 1<<20)
	g, err := NewInt(e, newStore(t), 4, 4, WithChunkSize(4, 4), WithFill(7),
		WithRepresentation(chunk.Singlet, chunk.Dense))
	require.NoError(t, err)
	id := chunk.ID{}
	c, err := g.Chunk(id)
	require.NoError(t, err)
	assert.Equal(t, chunk.Singlet, c.Repr())
	assert.Equal(t, int64(4), g.ResidentBytes())

	_, err = g.SetCell(1, 1, 7)
	require.NoError(t, err)
	c, _ = g.Chunk(id)
	assert.Equal(t, chunk.Singlet, c.Repr())

	old, err := g.SetCell(1, 1, 8)
	require.NoError(t, err)
	assert.Equal(t, int32(7), old)
	c, _ = g.Chunk(id)
	assert.Equal(t, chunk.Dense, c.Repr())
	assert.Equal(t, int64(64), g.ResidentBytes())
	v, _ := g.Cell(1, 1)
	assert.Equal(t, int32(8), v)
	v, _ = g.Cell(3, 3)
	assert.Equal(t, int32(7), v)

	_, err = NewInt(e, newStore(t), 4, 4, WithRepresentation(chunk.Dense, chunk.Singlet))
	assert.Error(t, err)
}

func TestSparseGrid(t *testing.T) {
	e := newEnv(t, 1<<20)
	g, err := NewBoolean(e, newStore(t), 100, 100, WithChunkSize(50, 50),
		WithRepresentation(chunk.Sparse, chunk.Dense))
	require.NoError(t, err)
	assert.Equal(t, chunk.Null, g.NoData())
	_, err = g.SetCell(10, 10, chunk.True)
	require.NoError(t, err)
	_, err = g.SetCell(60, 60, chunk.False)
	require.NoError(t, err)
	_, err = e.CacheChunksExcept(nil)
	require.NoError(t, err)
	v, _ := g.Cell(10, 10)
	assert.Equal(t, chunk.True, v)
	v, _ = g.Cell(60, 60)
	assert.Equal(t, chunk.False, v)
	v, _ = g.Cell(99, 0)
	assert.Equal(t, chunk.Null, v)

	st, err := g.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.Count)
	assert.Equal(t, 1.0, st.Sum)
}

func TestWriteAndOpen(t *testing.T) {
	e := newEnv(t, 1<<20)
	blob := newBlob(t)
	store := chunk.NewStore(blob, compress.NewCompressor("zstd"))
	m := meta.NewClient(blob)

	g, err := NewDouble(e, store, 6, 10, WithChunkSize(4, 4), WithName("slope"), WithMeta(m), WithNoData(-1), WithFill(0.5))
	require.NoError(t, err)
	_, err = g.SetCell(0, 0, 3.25)
	require.NoError(t, err)
	_, err = g.SetCell(5, 9, -1)
	require.NoError(t, err)
	require.NoError(t, g.Write())
	for _, id := range g.ResidentChunks() {
		c, _ := g.Chunk(id)
		assert.Equal(t, chunk.ResidentClean, c.State())
	}
	id := g.ID()
	g.Close()
	_, err = g.Cell(0, 0)
	assert.True(t, errors.Is(err, ErrClosed))
	assert.Empty(t, e.Grids())

	_, err = OpenInt(e, store, m, "slope")
	assert.True(t, errors.Is(err, ErrCellType))

	g2, err := OpenDouble(e, store, m, "slope")
	require.NoError(t, err)
	assert.Equal(t, id, g2.ID())
	assert.Equal(t, -1.0, g2.NoData())
	assert.Empty(t, g2.ResidentChunks())
	v, err := g2.Cell(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 3.25, v)
	v, _ = g2.Cell(5, 9)
	assert.Equal(t, -1.0, v)
	v, _ = g2.Cell(5, 0)
	assert.Equal(t, 0.5, v, "chunk (1, 0) was never written")
	assert.Len(t, g2.ResidentChunks(), 2)

	st, err := g2.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(59), st.Count)
	assert.Equal(t, 3.25+58*0.5, st.Sum)
	assert.Equal(t, 0.5, st.Min)
	assert.Equal(t, 3.25, st.Max)
}

type brokenStore struct {
	chunk.Store
}

func (brokenStore) Put(grid string, id chunk.ID, data []byte) (chunk.Location, error) {
	return "", &chunk.StoreError{Op: "put", Key: id.String(), Err: io.ErrShortWrite}
}

func TestEvictionStoreError(t *testing.T) {
	e := newEnv(t, 1<<20)
	g, err := NewInt(e, brokenStore{newStore(t)}, 4, 4, WithChunkSize(4, 4))
	require.NoError(t, err)
	_, err = g.SetCell(0, 0, 1)
	require.NoError(t, err)
	_, err = e.CacheChunksExcept(nil)
	assert.True(t, errors.Is(err, chunk.ErrStoreIO))
	assert.Len(t, g.ResidentChunks(), 1)
	v, _ := g.Cell(0, 0)
	assert.Equal(t, int32(1), v)
}

func TestMemoryExhaustion(t *testing.T) {
	// 4x4 int chunks take 64 bytes, a takes 192 of the 200 available
	e := newEnv(t, 200)
	store := newStore(t)
	a, err := NewInt(e, store, 12, 4, WithChunkSize(4, 4), WithFill(1))
	require.NoError(t, err)
	for _, id := range a.ChunkIDs() {
		_, err := a.Chunk(id)
		require.NoError(t, err)
	}
	b, err := NewInt(e, store, 4, 4, WithChunkSize(4, 4))
	require.NoError(t, err)

	_, err = b.SetCell(0, 0, 5)
	assert.True(t, errors.Is(err, env.ErrMemoryExhausted))
	assert.Empty(t, b.ResidentChunks())

	err = e.Do(false, b, func() error {
		_, err := b.SetCell(0, 0, 5)
		return err
	})
	assert.True(t, errors.Is(err, env.ErrMemoryExhausted))
	assert.Len(t, a.ResidentChunks(), 3, "fast fail evicts nothing")

	err = e.Do(true, b, func() error {
		_, err := b.SetCell(0, 0, 5)
		return err
	})
	require.NoError(t, err)
	assert.Empty(t, a.ResidentChunks())
	v, err := a.Cell(11, 3)
	require.NoError(t, err)
	assert.Equal(t, int32(1), v)

	e.AddToProtected(a, a.ResidentChunks()...)
	e.AddToProtected(b, b.ResidentChunks()...)
	c, err := NewInt(e, store, 8, 8, WithChunkSize(8, 8))
	require.NoError(t, err)
	err = e.Do(true, nil, func() error {
		_, err := c.SetCell(0, 0, 1)
		return err
	})
	assert.True(t, errors.Is(err, env.ErrUnrecoverable))
}

// prefix computes running sums along rows and columns, reading cells written
// earlier in the same pass, and evicts everything every k cell accesses.
func prefix(t *testing.T, k int) []float64 {
	e := newEnv(t, 1<<20)
	store := newStore(t)
	in, err := NewDouble(e, store, 13, 11, WithChunkSize(4, 3), WithFill(0))
	require.NoError(t, err)
	out, err := NewDouble(e, store, 13, 11, WithChunkSize(5, 2), WithFill(0))
	require.NoError(t, err)
	accesses := 0
	touch := func() {
		accesses++
		if k > 0 && accesses%k == 0 {
			_, err := e.CacheChunksExcept(nil)
			require.NoError(t, err)
		}
	}
	for r := int64(0); r < 13; r++ {
		for c := int64(0); c < 11; c++ {
			_, err := in.SetCell(r, c, float64((r*7+c*3)%10))
			require.NoError(t, err)
			touch()
		}
	}
	for r := int64(0); r < 13; r++ {
		for c := int64(0); c < 11; c++ {
			v, _ := in.Cell(r, c)
			touch()
			left, _ := out.Cell(r, c-1)
			touch()
			below, _ := out.Cell(r-1, c)
			touch()
			if left == out.NoData() {
				left = 0
			}
			if below == out.NoData() {
				below = 0
			}
			_, err := out.SetCell(r, c, v+left+below)
			require.NoError(t, err)
			touch()
		}
	}
	return snapshot(t, out)
}

func TestDeterminismUnderEviction(t *testing.T) {
	want := prefix(t, 0)
	for _, k := range []int{1, 2, 3, 7, 50} {
		t.Run(fmt.Sprintf("every%d", k), func(t *testing.T) {
			assert.Equal(t, want, prefix(t, k))
		})
	}
}

func TestStatsStaleness(t *testing.T) {
	e := newEnv(t, 1<<20)
	g, err := NewInt(e, newStore(t), 3, 3, WithChunkSize(2, 2))
	require.NoError(t, err)
	st, err := g.Stats()
	require.NoError(t, err)
	assert.Zero(t, st.Count)

	_, _ = g.SetCell(0, 0, 4)
	_, _ = g.SetCell(2, 2, -2)
	st, err = g.Stats()
	require.NoError(t, err)
	assert.Equal(t, meta.Statistics{Min: -2, Max: 4, Sum: 2, Count: 2}, st)
	d := g.Descriptor()
	assert.False(t, d.Statistics.Stale)

	_, _ = g.SetCell(2, 2, -2)
	d = g.Descriptor()
	assert.False(t, d.Statistics.Stale, "unchanged write")
	_, _ = g.SetCell(1, 1, 10)
	d = g.Descriptor()
	assert.True(t, d.Statistics.Stale)
	st, _ = g.Stats()
	assert.Equal(t, 10.0, st.Max)
}

func TestStatsAfterChunkWrite(t *testing.T) {
	e := newEnv(t, 1<<20)
	g, err := NewInt(e, newStore(t), 2, 2, WithChunkSize(2, 2))
	require.NoError(t, err)
	_, err = g.SetCell(0, 0, 1)
	require.NoError(t, err)
	st, err := g.Stats()
	require.NoError(t, err)
	assert.Equal(t, meta.Statistics{Min: 1, Max: 1, Sum: 1, Count: 1}, st)

	c, err := g.Chunk(chunk.ID{})
	require.NoError(t, err)
	_, err = c.Set(1, 1, 100)
	require.NoError(t, err)
	assert.True(t, g.Descriptor().Statistics.Stale)
	st, err = g.Stats()
	require.NoError(t, err)
	assert.Equal(t, meta.Statistics{Min: 1, Max: 100, Sum: 101, Count: 2}, st)
	assert.False(t, g.Descriptor().Statistics.Stale)

	// an unchanged value keeps the statistics
	_, err = c.Set(1, 1, 100)
	require.NoError(t, err)
	assert.False(t, g.Descriptor().Statistics.Stale)
}

func TestBinaryGrid(t *testing.T) {
	e := newEnv(t, 1<<20)
	g, err := NewBinary(e, newStore(t), 5, 5, WithChunkSize(2, 2))
	require.NoError(t, err)
	assert.False(t, g.NoData())
	_, _ = g.SetCell(4, 4, true)
	_, _ = g.SetCell(0, 1, true)
	st, err := g.Stats()
	require.NoError(t, err)
	assert.Equal(t, int64(2), st.Count)
}
