// pkg/chunk/errors.go

package chunk

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrNotFound means a chunk was loaded that has never been persisted.
	ErrNotFound = errors.New("chunk not found in store")
	// ErrStoreIO is matched by every *StoreError.
	ErrStoreIO = errors.New("chunk store I/O error")
	// ErrRepresentationMismatch is returned when a write cannot be expressed by the
	// chunk's representation, e.g. a different value written to a singlet.
	ErrRepresentationMismatch = errors.New("representation mismatch")
	// ErrCached is returned when cells of a non-resident chunk are accessed.
	ErrCached = errors.New("chunk is not resident")
	// ErrCorrupted is returned by Decode for blobs it cannot parse.
	ErrCorrupted = errors.New("corrupted chunk")
)

// StoreError is a persistence failure. It is never retried by this package.
type StoreError struct {
	Op  string
	Key string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStoreIO
}
