// pkg/meta/blob.go

package meta

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"AveGrid/pkg/object"
	"AveGrid/pkg/utils"

	"github.com/pkg/errors"
)

var logger = utils.GetLogger("avegrid")

const (
	settingKey = "setting.json"
	gridKey    = "grid.json"
)

type blobMeta struct {
	blob object.ObjectStorage
	fmt  Format
}

// NewClient keeps metadata as JSON documents inside blob, next to the chunks.
func NewClient(blob object.ObjectStorage) Meta {
	return &blobMeta{blob: blob}
}

func (m *blobMeta) Name() string {
	return m.blob.String()
}

func (m *blobMeta) get(key string, v interface{}) error {
	r, err := m.blob.Get(key, 0, -1)
	if err != nil {
		return err
	}
	defer r.Close()
	body, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if err = json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("json %s: %s", key, err)
	}
	return nil
}

func (m *blobMeta) put(key string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Fatalf("json: %s", err)
	}
	return m.blob.Put(key, bytes.NewReader(data))
}

func (m *blobMeta) Init(format Format, force bool) error {
	var old Format
	err := m.get(settingKey, &old)
	if err != nil && !errors.Is(err, object.ErrNotFound) {
		return err
	}
	if err == nil {
		if force {
			old.RemoveSecret()
			logger.Warnf("Existing store will be overwritten: %+v", old)
		} else {
			format.UUID = old.UUID
			old.AccessKey = format.AccessKey
			old.SecretKey = format.SecretKey
			old.UploadLimit = format.UploadLimit
			old.DownloadLimit = format.DownloadLimit
			if format != old {
				old.SecretKey = ""
				format.SecretKey = ""
				old.EncryptKey = ""
				format.EncryptKey = ""
				return fmt.Errorf("cannot update format from %+v to %+v", old, format)
			}
		}
	}
	if err = m.put(settingKey, format); err != nil {
		return err
	}
	m.fmt = format
	return nil
}

func (m *blobMeta) Load() (*Format, error) {
	err := m.get(settingKey, &m.fmt)
	if errors.Is(err, object.ErrNotFound) {
		return nil, ErrNotFormatted
	}
	if err != nil {
		return nil, err
	}
	return &m.fmt, nil
}

func descriptorKey(id string) string {
	return id + "/" + gridKey
}

func (m *blobMeta) SaveGrid(d *Descriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	return m.put(descriptorKey(d.ID), d)
}

func (m *blobMeta) loadGrid(id string) (*Descriptor, error) {
	var d Descriptor
	err := m.get(descriptorKey(id), &d)
	if errors.Is(err, object.ErrNotFound) {
		return nil, errors.Wrapf(ErrGridNotFound, "%s", id)
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (m *blobMeta) LoadGrid(idOrName string) (*Descriptor, error) {
	d, err := m.loadGrid(idOrName)
	if err == nil || !errors.Is(err, ErrGridNotFound) || strings.Contains(idOrName, "/") {
		return d, err
	}
	grids, err := m.ListGrids()
	if err != nil {
		return nil, err
	}
	var found *Descriptor
	for _, g := range grids {
		if g.Name != idOrName {
			continue
		}
		if found != nil {
			return nil, fmt.Errorf("name %s is shared by grids %s and %s", idOrName, found.ID, g.ID)
		}
		found = g
	}
	if found == nil {
		return nil, errors.Wrapf(ErrGridNotFound, "%s", idOrName)
	}
	return found, nil
}

func (m *blobMeta) ListGrids() ([]*Descriptor, error) {
	objs, err := m.blob.List("")
	if err != nil {
		return nil, err
	}
	var grids []*Descriptor
	for _, o := range objs {
		id := strings.TrimSuffix(o.Key(), "/"+gridKey)
		if id == o.Key() || strings.Contains(id, "/") {
			continue
		}
		d, err := m.loadGrid(id)
		if err != nil {
			logger.Warnf("skip grid %s: %s", id, err)
			continue
		}
		grids = append(grids, d)
	}
	return grids, nil
}

func (m *blobMeta) DeleteGrid(id string) (int, error) {
	if _, err := m.loadGrid(id); err != nil {
		return 0, err
	}
	objs, err := m.blob.List(id + "/chunks/")
	if err != nil {
		return 0, err
	}
	var n int
	for _, o := range objs {
		if err = m.blob.Delete(o.Key()); err != nil {
			return n, errors.Wrapf(err, "delete %s", o.Key())
		}
		n++
	}
	return n, m.blob.Delete(descriptorKey(id))
}
