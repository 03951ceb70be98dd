// pkg/meta/interface.go

package meta

import "errors"

var (
	ErrNotFormatted = errors.New("grid store is not formatted")
	ErrGridNotFound = errors.New("grid not found")
)

// Meta keeps the store setting and the grid descriptors.
type Meta interface {
	// Name of the backing storage.
	Name() string
	// Init is used to initialize a store with the format. An existing format may only
	// be overwritten with force or changed in its credentials.
	Init(format Format, force bool) error
	// Load loads the existing setting of a formatted store.
	Load() (*Format, error)

	SaveGrid(d *Descriptor) error
	// LoadGrid finds a grid by id, falling back to a unique name.
	LoadGrid(idOrName string) (*Descriptor, error)
	ListGrids() ([]*Descriptor, error)
	// DeleteGrid removes the descriptor and every chunk of grid id.
	DeleteGrid(id string) (int, error)
}
