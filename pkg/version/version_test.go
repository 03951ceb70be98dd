// pkg/version/version_test.go

package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVersion(t *testing.T) {
	assert.Equal(t, version, Version())

	revision, revisionDate = "1a2b3c4", "2024-05-01"
	defer func() { revision, revisionDate = "unknown", "unknown" }()
	assert.Equal(t, version+" (2024-05-01 1a2b3c4)", Version())
}
