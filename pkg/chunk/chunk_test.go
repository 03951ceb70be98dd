// pkg/chunk/chunk_test.go

package chunk

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSingletWriteRejection(t *testing.T) {
	c := SingletFactory[int32]{Int, 7}.Create("g", ID{0, 0}, 4, 4)
	require.NoError(t, c.Flush(newMemStore(t)))
	require.Equal(t, ResidentClean, c.State())

	old, err := c.Set(1, 2, 7)
	require.NoError(t, err)
	assert.Equal(t, int32(7), old)
	assert.Equal(t, Singlet, c.Repr())
	assert.Equal(t, ResidentClean, c.State(), "writing the same value must not dirty the chunk")

	_, err = c.Set(1, 2, 8)
	assert.True(t, errors.Is(err, ErrRepresentationMismatch))
	v, err := c.Get(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(7), v)
	assert.Equal(t, Singlet, c.Repr())
}

func TestStateTransitions(t *testing.T) {
	s := newMemStore(t)
	c := DenseFactory[float64]{Double, -1}.Create("g", ID{1, 2}, 3, 5)
	assert.Equal(t, ResidentDirty, c.State(), "new chunks start dirty")
	assert.False(t, c.Persisted())

	_, err := c.Set(2, 4, 3.5)
	require.NoError(t, err)

	evicted, err := c.Evict(s)
	require.NoError(t, err)
	assert.True(t, evicted)
	assert.Equal(t, Cached, c.State())
	assert.True(t, c.Persisted())
	assert.Zero(t, c.Size())

	_, err = c.Get(0, 0)
	assert.True(t, errors.Is(err, ErrCached))

	evicted, err = c.Evict(s)
	require.NoError(t, err)
	assert.False(t, evicted, "a cached chunk is not evictable")

	require.NoError(t, c.Load(s))
	assert.Equal(t, ResidentClean, c.State())
	v, err := c.Get(2, 4)
	require.NoError(t, err)
	assert.Equal(t, 3.5, v)
	v, _ = c.Get(0, 0)
	assert.Equal(t, -1.0, v)

	// clean eviction performs no I/O
	s.puts = 0
	evicted, err = c.Evict(s)
	require.NoError(t, err)
	assert.True(t, evicted)
	assert.Equal(t, 0, s.puts)

	require.NoError(t, c.Load(s))
	_, err = c.Set(0, 0, 9)
	require.NoError(t, err)
	assert.Equal(t, ResidentDirty, c.State())
	_, err = c.Evict(s)
	require.NoError(t, err)
	assert.Equal(t, 1, s.puts)
}

func TestLoadNeverPersisted(t *testing.T) {
	c := NewCached[int32](Int, "g", ID{0, 0}, 2, 2, "")
	err := c.Load(newMemStore(t))
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestSetOutsideChunk(t *testing.T) {
	c := DenseFactory[int32]{Int, 0}.Create("g", ID{0, 0}, 2, 2)
	_, err := c.Set(2, 0, 1)
	assert.Error(t, err)
	_, err = c.Get(0, -1)
	assert.Error(t, err)
}

func TestSparseDefaultWrites(t *testing.T) {
	c := SparseFactory[int32]{Int, -9999}.Create("g", ID{0, 0}, 8, 8)
	_, err := c.Set(3, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(4+(4+sparseEntryOverhead)), c.Size())
	old, err := c.Set(3, 3, -9999)
	require.NoError(t, err)
	assert.Equal(t, int32(5), old)
	assert.Equal(t, int64(4), c.Size())
	v, ok := c.Uniform()
	assert.True(t, ok)
	assert.Equal(t, int32(-9999), v)
}

func TestUniform(t *testing.T) {
	c := DenseFactory[bool]{Binary, true}.Create("g", ID{0, 0}, 2, 3)
	v, ok := c.Uniform()
	assert.True(t, ok)
	assert.True(t, v)
	_, _ = c.Set(1, 1, false)
	_, ok = c.Uniform()
	assert.False(t, ok)
}

func TestMods(t *testing.T) {
	c := DenseFactory[int32]{Int, 0}.Create("g", ID{0, 0}, 2, 2)
	assert.Zero(t, c.Mods())
	_, _ = c.Set(0, 1, 3)
	_, _ = c.Set(0, 1, 3)
	assert.Equal(t, uint64(1), c.Mods())
	_, _ = c.Set(0, 1, 0)
	assert.Equal(t, uint64(2), c.Mods())

	s := SingletFactory[int32]{Int, 1}.Create("g", ID{0, 0}, 2, 2)
	_, err := s.Set(0, 0, 2)
	assert.Error(t, err)
	assert.Zero(t, s.Mods(), "rejected writes change nothing")
}

func TestNaNCells(t *testing.T) {
	nan := math.NaN()
	assert.True(t, Same(nan, math.NaN()))
	assert.False(t, Same(nan, 0.0))

	c := DenseFactory[float64]{Double, nan}.Create("g", ID{0, 0}, 2, 2)
	require.NoError(t, c.Flush(newMemStore(t)))
	_, err := c.Set(1, 1, math.NaN())
	require.NoError(t, err)
	assert.Equal(t, ResidentClean, c.State())
	assert.Zero(t, c.Mods())
	v, ok := c.Uniform()
	assert.True(t, ok)
	assert.True(t, math.IsNaN(v))

	sp := SparseFactory[float64]{Double, nan}.Create("g", ID{0, 0}, 4, 4)
	empty := sp.Size()
	_, err = sp.Set(2, 2, 1.5)
	require.NoError(t, err)
	assert.Greater(t, sp.Size(), empty)
	_, err = sp.Set(2, 2, math.NaN())
	require.NoError(t, err)
	assert.Equal(t, empty, sp.Size(), "writing the default drops the entry")
	_, ok = sp.Uniform()
	assert.True(t, ok)

	st := SingletFactory[float64]{Double, nan}.Create("g", ID{0, 0}, 2, 2)
	_, err = st.Set(0, 0, math.NaN())
	assert.NoError(t, err)
}

func TestParseID(t *testing.T) {
	id, err := ParseID("12_7")
	require.NoError(t, err)
	assert.Equal(t, ID{12, 7}, id)
	assert.Equal(t, "12_7", id.String())
	_, err = ParseID("12")
	assert.Error(t, err)
	_, err = ParseID("a_1")
	assert.Error(t, err)
}
