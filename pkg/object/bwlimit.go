// pkg/object/bwlimit.go

package object

import (
	"fmt"
	"io"
	"time"

	"github.com/juju/ratelimit"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	throttledBytes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avegrid_object_throttled_bytes_total",
		Help: "Bytes moved through a bandwidth-limited storage, by direction.",
	}, []string{"direction"})
	throttleWait = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "avegrid_object_throttle_wait_seconds_total",
		Help: "Time chunk transfers spent waiting for the bandwidth limit.",
	}, []string{"direction"})
)

// throttledReader charges every read to a token bucket. A nil bucket only counts.
type throttledReader struct {
	io.Reader
	bucket *ratelimit.Bucket
	bytes  prometheus.Counter
	wait   prometheus.Counter
}

func newThrottledReader(r io.Reader, b *ratelimit.Bucket, direction string) *throttledReader {
	return &throttledReader{r, b, throttledBytes.WithLabelValues(direction), throttleWait.WithLabelValues(direction)}
}

func (t *throttledReader) Read(buf []byte) (int, error) {
	n, err := t.Reader.Read(buf)
	if n > 0 {
		t.bytes.Add(float64(n))
		if t.bucket != nil {
			if d := t.bucket.Take(int64(n)); d > 0 {
				t.wait.Add(d.Seconds())
				time.Sleep(d)
			}
		}
	}
	return n, err
}

// Seek calls the Seek in the underlying reader.
func (t *throttledReader) Seek(offset int64, whence int) (int64, error) {
	if s, ok := t.Reader.(io.Seeker); ok {
		return s.Seek(offset, whence)
	}
	return 0, fmt.Errorf("%+v does not support Seek()", t.Reader)
}

func (t *throttledReader) Close() error {
	if rc, ok := t.Reader.(io.Closer); ok {
		return rc.Close()
	}
	return nil
}

type throttled struct {
	ObjectStorage
	up   *ratelimit.Bucket
	down *ratelimit.Bucket
}

// NewLimited throttles chunk swapping to `up` and `down` bytes per second, 0 means unlimited.
func NewLimited(o ObjectStorage, up, down int64) ObjectStorage {
	if up <= 0 && down <= 0 {
		return o
	}
	t := &throttled{ObjectStorage: o}
	if up > 0 {
		// leave some room for the framing of remote backends
		t.up = ratelimit.NewBucketWithRate(float64(up)*0.85, up)
	}
	if down > 0 {
		t.down = ratelimit.NewBucketWithRate(float64(down)*0.85, down)
	}
	logger.Debugf("swapping through %s limited to %d bytes/s up, %d bytes/s down", o, up, down)
	return t
}

func (t *throttled) String() string {
	return fmt.Sprintf("%s(limited)", t.ObjectStorage)
}

func (t *throttled) Get(key string, off, limit int64) (io.ReadCloser, error) {
	r, err := t.ObjectStorage.Get(key, off, limit)
	if err != nil {
		return nil, err
	}
	return newThrottledReader(r, t.down, "down"), nil
}

func (t *throttled) Put(key string, in io.Reader) error {
	return t.ObjectStorage.Put(key, newThrottledReader(in, t.up, "up"))
}
