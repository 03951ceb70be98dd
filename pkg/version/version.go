// pkg/version/version.go

package version

import "fmt"

// Set with -ldflags "-X AveGrid/pkg/version.revision=..." at release time.
var (
	version      = "0.1.0-dev"
	revision     = "unknown"
	revisionDate = "unknown"
)

// Version returns `VERSION (REVISIONDATE REVISION)`, or only VERSION when the
// build did not stamp a revision.
func Version() string {
	if revision == "unknown" {
		return version
	}
	return fmt.Sprintf("%v (%v %v)", version, revisionDate, revision)
}
