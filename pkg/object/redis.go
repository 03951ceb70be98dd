// pkg/object/redis.go

package object

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore keeps every object as a plain redis string.
type redisStore struct {
	rdb *redis.Client
	uri string
}

func (r *redisStore) String() string {
	return r.uri + "/"
}

func (r *redisStore) Create() error {
	return r.rdb.Ping(context.Background()).Err()
}

func (r *redisStore) Head(key string) (Object, error) {
	ctx := context.Background()
	n, err := r.rdb.StrLen(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		exists, err := r.rdb.Exists(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		if exists == 0 {
			return nil, ErrNotFound
		}
	}
	return &obj{key, n, time.Time{}}, nil
}

func (r *redisStore) Get(key string, off, limit int64) (io.ReadCloser, error) {
	data, err := r.rdb.Get(context.Background(), key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if off > int64(len(data)) {
		off = int64(len(data))
	}
	data = data[off:]
	if limit >= 0 && limit < int64(len(data)) {
		data = data[:limit]
	}
	return io.NopCloser(bytes.NewBuffer(data)), nil
}

func (r *redisStore) Put(key string, in io.Reader) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	return r.rdb.Set(context.Background(), key, data, 0).Err()
}

func (r *redisStore) Delete(key string) error {
	return r.rdb.Del(context.Background(), key).Err()
}

func (r *redisStore) List(prefix string) ([]Object, error) {
	ctx := context.Background()
	var objs []Object
	var cursor uint64
	for {
		keys, next, err := r.rdb.Scan(ctx, cursor, prefix+"*", 1000).Result()
		if err != nil {
			return nil, err
		}
		for _, k := range keys {
			n, err := r.rdb.StrLen(ctx, k).Result()
			if err != nil {
				return nil, err
			}
			objs = append(objs, &obj{k, n, time.Time{}})
		}
		if next == 0 {
			break
		}
		cursor = next
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Key() < objs[j].Key() })
	return objs, nil
}

func newRedis(url, user, passwd string) (ObjectStorage, error) {
	if !strings.Contains(url, "://") {
		url = "redis://" + url
	}
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %s", url, err)
	}
	if user != "" {
		opt.Username = user
	}
	if passwd != "" {
		opt.Password = passwd
	}
	if opt.Password == "" && os.Getenv("REDIS_PASSWORD") != "" {
		opt.Password = os.Getenv("REDIS_PASSWORD")
	}
	opt.MaxRetries = 3
	opt.MinRetryBackoff = time.Millisecond * 100
	opt.MaxRetryBackoff = time.Second * 10
	opt.ReadTimeout = time.Second * 30
	opt.WriteTimeout = time.Second * 5
	return &redisStore{redis.NewClient(opt), url}, nil
}

func init() {
	Register("redis", newRedis)
}
