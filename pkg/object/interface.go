// pkg/object/interface.go

package object

import (
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Get and Head for a missing key.
var ErrNotFound = errors.New("object not found")

// Object is the metadata of a stored blob.
type Object interface {
	Key() string
	Size() int64
	Mtime() time.Time
}

type obj struct {
	key   string
	size  int64
	mtime time.Time
}

func (o *obj) Key() string      { return o.key }
func (o *obj) Size() int64      { return o.size }
func (o *obj) Mtime() time.Time { return o.mtime }

// ObjectStorage is the interface for a blob store keyed by slash separated paths.
type ObjectStorage interface {
	// Description of the object storage.
	String() string
	// Create the bucket if not existed.
	Create() error
	// Get the data for the given object specified by key.
	Get(key string, off, limit int64) (io.ReadCloser, error)
	// Put data read from a reader to an object specified by key.
	Put(key string, in io.Reader) error
	// Delete a object.
	Delete(key string) error
	// Head returns some information about the object or ErrNotFound.
	Head(key string) (Object, error)
	// List returns every object whose key starts with prefix, sorted by key.
	List(prefix string) ([]Object, error)
}
