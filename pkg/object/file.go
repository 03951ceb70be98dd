// pkg/object/file.go

package object

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
)

const dirSuffix = "/"

type filestore struct {
	root string
}

func (d *filestore) String() string {
	if runtime.GOOS == "windows" {
		return "file:///" + d.root
	}
	return "file://" + d.root
}

func (d *filestore) path(key string) string {
	if strings.HasSuffix(d.root, dirSuffix) {
		return filepath.Join(d.root, key)
	}
	return d.root + key
}

func (d *filestore) Create() error {
	return os.MkdirAll(d.root, 0755)
}

func (d *filestore) Head(key string) (Object, error) {
	fi, err := os.Stat(d.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &obj{key, fi.Size(), fi.ModTime()}, nil
}

func (d *filestore) Get(key string, off, limit int64) (io.ReadCloser, error) {
	p := d.path(key)
	f, err := os.Open(p)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	fi, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	if fi.IsDir() {
		_ = f.Close()
		return nil, ErrNotFound
	}
	if off > 0 {
		if _, err := f.Seek(off, 0); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	if limit >= 0 {
		defer f.Close()
		buf := make([]byte, limit)
		n, err := io.ReadFull(f, buf)
		if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
			return nil, err
		}
		return io.NopCloser(bytes.NewBuffer(buf[:n])), nil
	}
	return f, nil
}

// Put writes to a temporary sibling first so a failed write never leaves a torn object.
func (d *filestore) Put(key string, in io.Reader) error {
	p := d.path(key)
	if strings.HasSuffix(key, dirSuffix) {
		return os.MkdirAll(p, 0755)
	}

	tmp := filepath.Join(filepath.Dir(p), "."+filepath.Base(p)+".tmp"+strconv.Itoa(rand.Int()))
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil && os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			return err
		}
		f, err = os.OpenFile(tmp, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	}
	if err != nil {
		return err
	}
	defer func() { _ = os.Remove(tmp) }()

	if _, err = io.Copy(f, in); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, p)
}

func (d *filestore) Delete(key string) error {
	err := os.Remove(d.path(key))
	if err != nil && os.IsNotExist(err) {
		err = nil
	}
	return err
}

func (d *filestore) List(prefix string) ([]Object, error) {
	var objs []Object
	base := d.path("")
	err := filepath.WalkDir(filepath.Clean(base), func(path string, e fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			return nil
		}
		key := filepath.ToSlash(strings.TrimPrefix(path, filepath.Clean(base)))
		key = strings.TrimPrefix(key, "/")
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		info, err := e.Info()
		if err != nil {
			return err
		}
		objs = append(objs, &obj{key, info.Size(), info.ModTime()})
		return nil
	})
	sort.Slice(objs, func(i, j int) bool { return objs[i].Key() < objs[j].Key() })
	return objs, err
}

func newDisk(root, accesskey, secretkey string) (ObjectStorage, error) {
	if fi, err := os.Stat(root); err == nil && fi.IsDir() && !strings.HasSuffix(root, dirSuffix) {
		root += dirSuffix
	}
	if !strings.HasSuffix(root, dirSuffix) && !strings.HasSuffix(root, string(filepath.Separator)) {
		return nil, fmt.Errorf("file storage root %q should end with %q", root, dirSuffix)
	}
	return &filestore{root: root}, nil
}

func init() {
	Register("file", newDisk)
}
