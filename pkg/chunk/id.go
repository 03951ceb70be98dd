// pkg/chunk/id.go

package chunk

import (
	"fmt"
	"strconv"
	"strings"
)

// ID locates a chunk inside its grid: Row counts chunk rows from the south, Col chunk
// columns from the west.
type ID struct {
	Row int32
	Col int32
}

func (id ID) String() string {
	return strconv.Itoa(int(id.Row)) + "_" + strconv.Itoa(int(id.Col))
}

// ParseID is the inverse of ID.String.
func ParseID(s string) (ID, error) {
	ps := strings.SplitN(s, "_", 2)
	if len(ps) != 2 {
		return ID{}, fmt.Errorf("invalid chunk id %q", s)
	}
	r, err := strconv.ParseInt(ps[0], 10, 32)
	if err != nil {
		return ID{}, fmt.Errorf("invalid chunk row in %q: %s", s, err)
	}
	c, err := strconv.ParseInt(ps[1], 10, 32)
	if err != nil {
		return ID{}, fmt.Errorf("invalid chunk col in %q: %s", s, err)
	}
	return ID{int32(r), int32(c)}, nil
}
