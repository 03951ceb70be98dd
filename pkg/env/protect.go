// pkg/env/protect.go

package env

import "AveGrid/pkg/chunk"

// AddToProtected shields chunks of g from every eviction routine. The protected
// set is a set: adding a pair twice is the same as adding it once.
func (e *Environment) AddToProtected(g Swappable, ids ...chunk.ID) {
	for _, id := range ids {
		e.protected[chunkKey{g.ID(), id}] = struct{}{}
	}
}

// RemoveFromProtected removes exactly the named pairs.
func (e *Environment) RemoveFromProtected(g Swappable, ids ...chunk.ID) {
	for _, id := range ids {
		delete(e.protected, chunkKey{g.ID(), id})
	}
}

func (e *Environment) IsProtected(grid string, id chunk.ID) bool {
	_, ok := e.protected[chunkKey{grid, id}]
	return ok
}

// Protected returns the number of protected chunks.
func (e *Environment) Protected() int {
	return len(e.protected)
}
