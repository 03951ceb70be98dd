// pkg/object/badger.go

package object

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// badgerStore keeps objects in an embedded badger database, useful when the
// chunk count is too large for one file per chunk.
type badgerStore struct {
	db   *badger.DB
	path string
}

type badgerLogger struct{}

func (badgerLogger) Errorf(format string, args ...interface{})   { logger.Errorf(format, args...) }
func (badgerLogger) Warningf(format string, args ...interface{}) { logger.Warnf(format, args...) }
func (badgerLogger) Infof(format string, args ...interface{})    { logger.Debugf(format, args...) }
func (badgerLogger) Debugf(format string, args ...interface{})   { logger.Tracef(format, args...) }

func (b *badgerStore) String() string {
	if b.path == "" {
		return "badger://memory/"
	}
	return "badger://" + b.path + "/"
}

func (b *badgerStore) Create() error {
	return nil
}

func (b *badgerStore) Head(key string) (Object, error) {
	var o *obj
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		o = &obj{key, item.ValueSize(), time.Unix(int64(item.Version()), 0)}
		return nil
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNotFound
	}
	return o, err
}

func (b *badgerStore) Get(key string, off, limit int64) (io.ReadCloser, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
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
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (b *badgerStore) Put(key string, in io.Reader) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), data)
	})
}

func (b *badgerStore) Delete(key string) error {
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
}

func (b *badgerStore) List(prefix string) ([]Object, error) {
	var objs []Object
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = []byte(prefix)
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			objs = append(objs, &obj{string(item.KeyCopy(nil)), item.ValueSize(), time.Time{}})
		}
		return nil
	})
	sort.Slice(objs, func(i, j int) bool { return objs[i].Key() < objs[j].Key() })
	return objs, err
}

// Close releases the database; the store must not be used afterwards.
func (b *badgerStore) Close() error {
	return b.db.Close()
}

// newBadger opens a database in directory `path`, or an in-memory one for "memory".
func newBadger(path, accesskey, secretkey string) (ObjectStorage, error) {
	path = strings.TrimPrefix(path, "badger://")
	path = strings.TrimSuffix(path, "/")
	var opts badger.Options
	if path == "" || path == "memory" {
		path = ""
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %s", path, err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts = opts.WithNumVersionsToKeep(1).WithLogger(badgerLogger{})
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %s", err)
	}
	return &badgerStore{db: db, path: path}, nil
}

func init() {
	Register("badger", newBadger)
}
