// pkg/chunk/store.go

package chunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"AveGrid/pkg/compress"
	"AveGrid/pkg/object"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOps = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avegrid_chunk_store_ops_total",
		Help: "Chunk store operations by type and result.",
	}, []string{"op", "result"})
	storeBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avegrid_chunk_store_bytes_total",
		Help: "Raw (uncompressed) chunk bytes moved through the chunk store.",
	}, []string{"op"})
)

// Location is the opaque address of a persisted chunk, stable for the lifetime of
// the store.
type Location string

// Store persists serialized chunks keyed by grid identity and chunk id.
type Store interface {
	Put(grid string, id ID, data []byte) (Location, error)
	// Get fails with ErrNotFound if nothing was stored at loc.
	Get(loc Location) ([]byte, error)
	Exists(grid string, id ID) (bool, error)
	Location(grid string, id ID) Location
}

type blobStore struct {
	blob     object.ObjectStorage
	compress compress.Compressor
}

// NewStore keeps chunks in blob under "<grid>/chunks/<row>_<col>", each blob
// framed as a u32 raw length followed by the compressed bytes.
func NewStore(blob object.ObjectStorage, comp compress.Compressor) Store {
	if comp == nil {
		comp = compress.NewCompressor("none")
	}
	return &blobStore{blob, comp}
}

func (s *blobStore) String() string {
	return fmt.Sprintf("%s(%s)", s.blob, s.compress.Name())
}

// ChunkKey is the object key of chunk id of grid.
func ChunkKey(grid string, id ID) string {
	return grid + "/chunks/" + id.String()
}

func (s *blobStore) Location(grid string, id ID) Location {
	return Location(ChunkKey(grid, id))
}

func (s *blobStore) Put(grid string, id ID, data []byte) (Location, error) {
	key := ChunkKey(grid, id)
	out := make([]byte, 4+s.compress.CompressBound(len(data)))
	binary.BigEndian.PutUint32(out, uint32(len(data)))
	n, err := s.compress.Compress(out[4:], data)
	if err != nil {
		storeOps.WithLabelValues("put", "error").Inc()
		return "", &StoreError{"compress", key, err}
	}
	if err = s.blob.Put(key, bytes.NewReader(out[:4+n])); err != nil {
		storeOps.WithLabelValues("put", "error").Inc()
		return "", &StoreError{"put", key, err}
	}
	storeOps.WithLabelValues("put", "ok").Inc()
	storeBytes.WithLabelValues("put").Add(float64(len(data)))
	return Location(key), nil
}

func (s *blobStore) Get(loc Location) ([]byte, error) {
	key := string(loc)
	r, err := s.blob.Get(key, 0, -1)
	if err != nil {
		if errors.Is(err, object.ErrNotFound) {
			storeOps.WithLabelValues("get", "missing").Inc()
			return nil, errors.Wrapf(ErrNotFound, "get %s", key)
		}
		storeOps.WithLabelValues("get", "error").Inc()
		return nil, &StoreError{"get", key, err}
	}
	defer r.Close()
	framed, err := io.ReadAll(r)
	if err != nil {
		storeOps.WithLabelValues("get", "error").Inc()
		return nil, &StoreError{"read", key, err}
	}
	if len(framed) < 4 {
		storeOps.WithLabelValues("get", "error").Inc()
		return nil, &StoreError{"read", key, fmt.Errorf("short blob of %d bytes", len(framed))}
	}
	data := make([]byte, binary.BigEndian.Uint32(framed))
	n, err := s.compress.Decompress(data, framed[4:])
	if err == nil && n != len(data) {
		err = fmt.Errorf("decompressed %d bytes, expected %d", n, len(data))
	}
	if err != nil {
		storeOps.WithLabelValues("get", "error").Inc()
		return nil, &StoreError{"decompress", key, err}
	}
	storeOps.WithLabelValues("get", "ok").Inc()
	storeBytes.WithLabelValues("get").Add(float64(len(data)))
	return data, nil
}

func (s *blobStore) Exists(grid string, id ID) (bool, error) {
	key := ChunkKey(grid, id)
	_, err := s.blob.Head(key)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, object.ErrNotFound) {
		return false, nil
	}
	return false, &StoreError{"head", key, err}
}
