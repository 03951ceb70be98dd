// pkg/object/storage.go

package object

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"AveGrid/pkg/utils"
)

var logger = utils.GetLogger("avegrid")

// UserAgent is reported to remote backends that support it.
var UserAgent = "AveGrid"

type Creator func(bucket, accessKey, secretKey string) (ObjectStorage, error)

var storages = make(map[string]Creator)

// Register makes a storage type available to CreateStorage.
func Register(name string, register Creator) {
	storages[name] = register
}

// Storages returns the names of the registered storage types.
func Storages() []string {
	var names []string
	for n := range storages {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// CreateStorage builds an ObjectStorage of the registered type `name`.
func CreateStorage(name, endpoint, accessKey, secretKey string) (ObjectStorage, error) {
	f, ok := storages[strings.ToLower(name)]
	if ok {
		logger.Debugf("Creating %s storage at endpoint %s", name, endpoint)
		return f(endpoint, accessKey, secretKey)
	}
	return nil, fmt.Errorf("invalid storage: %s", name)
}

type withPrefix struct {
	ObjectStorage
	prefix string
}

// WithPrefix return an object storage that add a prefix to keys.
func WithPrefix(os ObjectStorage, prefix string) ObjectStorage {
	return &withPrefix{os, prefix}
}

func (p *withPrefix) String() string {
	return fmt.Sprintf("%s%s", p.ObjectStorage, p.prefix)
}

func (p *withPrefix) Get(key string, off, limit int64) (io.ReadCloser, error) {
	return p.ObjectStorage.Get(p.prefix+key, off, limit)
}

func (p *withPrefix) Put(key string, in io.Reader) error {
	return p.ObjectStorage.Put(p.prefix+key, in)
}

func (p *withPrefix) Delete(key string) error {
	return p.ObjectStorage.Delete(p.prefix + key)
}

func (p *withPrefix) Head(key string) (Object, error) {
	o, err := p.ObjectStorage.Head(p.prefix + key)
	if err != nil {
		return nil, err
	}
	return &obj{strings.TrimPrefix(o.Key(), p.prefix), o.Size(), o.Mtime()}, nil
}

func (p *withPrefix) List(prefix string) ([]Object, error) {
	objs, err := p.ObjectStorage.List(p.prefix + prefix)
	if err != nil {
		return nil, err
	}
	for i, o := range objs {
		objs[i] = &obj{strings.TrimPrefix(o.Key(), p.prefix), o.Size(), o.Mtime()}
	}
	return objs, nil
}

var _ ObjectStorage = &withPrefix{}
