// pkg/utils/clock_unix.go

package utils

import "time"

func Now() time.Time {
	return time.Now()
}
