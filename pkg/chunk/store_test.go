// pkg/chunk/store_test.go

package chunk

import (
	"fmt"
	"io"
	"testing"

	"AveGrid/pkg/compress"
	"AveGrid/pkg/object"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingStore struct {
	Store
	puts int
	gets int
}

func (s *countingStore) Put(grid string, id ID, data []byte) (Location, error) {
	s.puts++
	return s.Store.Put(grid, id, data)
}

func (s *countingStore) Get(loc Location) ([]byte, error) {
	s.gets++
	return s.Store.Get(loc)
}

func newMemStore(t *testing.T) *countingStore {
	blob, err := object.CreateStorage("mem", t.Name(), "", "")
	require.NoError(t, err)
	return &countingStore{Store: NewStore(blob, compress.NewCompressor("zstd"))}
}

func TestStoreRoundTrip(t *testing.T) {
	for _, algo := range []string{"none", "lz4", "zstd"} {
		t.Run(algo, func(t *testing.T) {
			blob, _ := object.CreateStorage("mem", algo, "", "")
			s := NewStore(blob, compress.NewCompressor(algo))
			id := ID{3, 4}
			ok, err := s.Exists("grid", id)
			require.NoError(t, err)
			assert.False(t, ok)

			data := make([]byte, 4096)
			for i := range data {
				data[i] = byte(i % 7)
			}
			loc, err := s.Put("grid", id, data)
			require.NoError(t, err)
			assert.Equal(t, s.Location("grid", id), loc)
			assert.Equal(t, Location("grid/chunks/3_4"), loc)

			ok, err = s.Exists("grid", id)
			require.NoError(t, err)
			assert.True(t, ok)

			got, err := s.Get(loc)
			require.NoError(t, err)
			assert.Equal(t, data, got)
		})
	}
}

func TestStoreNotFound(t *testing.T) {
	s := newMemStore(t)
	_, err := s.Get("grid/chunks/0_0")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrStoreIO))
}

type brokenStorage struct {
	object.ObjectStorage
}

func (b brokenStorage) Put(key string, in io.Reader) error {
	return fmt.Errorf("disk full")
}

func (b brokenStorage) Get(key string, off, limit int64) (io.ReadCloser, error) {
	return nil, fmt.Errorf("connection reset")
}

func TestStoreIOError(t *testing.T) {
	blob, _ := object.CreateStorage("mem", t.Name(), "", "")
	s := NewStore(brokenStorage{blob}, nil)

	_, err := s.Put("grid", ID{0, 0}, []byte{1, 2, 3})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrStoreIO))
	var se *StoreError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "put", se.Op)
	assert.Equal(t, "grid/chunks/0_0", se.Key)

	_, err = s.Get("grid/chunks/0_0")
	assert.True(t, errors.Is(err, ErrStoreIO))

	// a failed flush leaves the chunk resident and dirty
	c := DenseFactory[int32]{Int, 0}.Create("grid", ID{0, 0}, 2, 2)
	evicted, err := c.Evict(s)
	assert.False(t, evicted)
	assert.True(t, errors.Is(err, ErrStoreIO))
	assert.Equal(t, ResidentDirty, c.State())
}

func TestStoreCorruptBlob(t *testing.T) {
	blob, _ := object.CreateStorage("mem", t.Name(), "", "")
	s := NewStore(blob, nil)
	loc, err := s.Put("grid", ID{0, 0}, []byte("not a chunk"))
	require.NoError(t, err)
	c := NewCached[int32](Int, "grid", ID{0, 0}, 2, 2, loc)
	err = c.Load(s)
	assert.True(t, errors.Is(err, ErrCorrupted))
	assert.Equal(t, Cached, c.State())
}
