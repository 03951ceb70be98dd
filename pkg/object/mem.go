// pkg/object/mem.go

package object

import (
	"bytes"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

type mobj struct {
	data  []byte
	mtime time.Time
}

type memStore struct {
	sync.Mutex
	name    string
	objects map[string]*mobj
}

func (m *memStore) String() string {
	return "mem://" + m.name + "/"
}

func (m *memStore) Create() error {
	return nil
}

func (m *memStore) Head(key string) (Object, error) {
	m.Lock()
	defer m.Unlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return &obj{key, int64(len(o.data)), o.mtime}, nil
}

func (m *memStore) Get(key string, off, limit int64) (io.ReadCloser, error) {
	m.Lock()
	defer m.Unlock()
	o, ok := m.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	d := o.data
	if off > int64(len(d)) {
		off = int64(len(d))
	}
	d = d[off:]
	if limit >= 0 && limit < int64(len(d)) {
		d = d[:limit]
	}
	return io.NopCloser(bytes.NewReader(d)), nil
}

func (m *memStore) Put(key string, in io.Reader) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return err
	}
	m.Lock()
	defer m.Unlock()
	m.objects[key] = &mobj{data: data, mtime: time.Now()}
	return nil
}

func (m *memStore) Delete(key string) error {
	m.Lock()
	defer m.Unlock()
	delete(m.objects, key)
	return nil
}

func (m *memStore) List(prefix string) ([]Object, error) {
	m.Lock()
	defer m.Unlock()
	var objs []Object
	for k, o := range m.objects {
		if strings.HasPrefix(k, prefix) {
			objs = append(objs, &obj{k, int64(len(o.data)), o.mtime})
		}
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Key() < objs[j].Key() })
	return objs, nil
}

func newMem(endpoint, accesskey, secretkey string) (ObjectStorage, error) {
	return &memStore{name: endpoint, objects: make(map[string]*mobj)}, nil
}

func init() {
	Register("mem", newMem)
}
