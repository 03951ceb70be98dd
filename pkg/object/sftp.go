// pkg/object/sftp.go

package object

import (
	"bytes"
	"fmt"
	"io"
	"net"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pkg/sftp"
	"golang.org/x/crypto/ssh"
)

// sftpStore keeps objects as files below root on a remote host.
type sftpStore struct {
	sync.Mutex
	host   string
	root   string
	config *ssh.ClientConfig
	client *sftp.Client
}

func (f *sftpStore) String() string {
	return fmt.Sprintf("sftp://%s@%s:%s", f.config.User, f.host, f.root)
}

func (f *sftpStore) getClient() (*sftp.Client, error) {
	f.Lock()
	defer f.Unlock()
	if f.client != nil {
		if _, err := f.client.Getwd(); err == nil {
			return f.client, nil
		}
		_ = f.client.Close()
		f.client = nil
	}
	conn, err := ssh.Dial("tcp", f.host, f.config)
	if err != nil {
		return nil, err
	}
	c, err := sftp.NewClient(conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	f.client = c
	return c, nil
}

func (f *sftpStore) path(key string) string {
	return path.Join(f.root, key)
}

func (f *sftpStore) Create() error {
	c, err := f.getClient()
	if err != nil {
		return err
	}
	return c.MkdirAll(f.root)
}

func (f *sftpStore) Head(key string) (Object, error) {
	c, err := f.getClient()
	if err != nil {
		return nil, err
	}
	fi, err := c.Stat(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &obj{key, fi.Size(), fi.ModTime()}, nil
}

func (f *sftpStore) Get(key string, off, limit int64) (io.ReadCloser, error) {
	c, err := f.getClient()
	if err != nil {
		return nil, err
	}
	ff, err := c.Open(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	defer ff.Close()
	if off > 0 {
		if _, err := ff.Seek(off, io.SeekStart); err != nil {
			return nil, err
		}
	}
	var r io.Reader = ff
	if limit >= 0 {
		r = io.LimitReader(ff, limit)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *sftpStore) Put(key string, in io.Reader) error {
	c, err := f.getClient()
	if err != nil {
		return err
	}
	p := f.path(key)
	if err := c.MkdirAll(path.Dir(p)); err != nil {
		return err
	}
	tmp := path.Join(path.Dir(p), "."+path.Base(p)+".tmp")
	ff, err := c.Create(tmp)
	if err != nil {
		return err
	}
	if _, err = io.Copy(ff, in); err != nil {
		_ = ff.Close()
		_ = c.Remove(tmp)
		return err
	}
	if err = ff.Close(); err != nil {
		_ = c.Remove(tmp)
		return err
	}
	_ = c.Remove(p)
	return c.Rename(tmp, p)
}

func (f *sftpStore) Delete(key string) error {
	c, err := f.getClient()
	if err != nil {
		return err
	}
	err = c.Remove(f.path(key))
	if err != nil && os.IsNotExist(err) {
		err = nil
	}
	return err
}

func (f *sftpStore) List(prefix string) ([]Object, error) {
	c, err := f.getClient()
	if err != nil {
		return nil, err
	}
	var objs []Object
	walker := c.Walk(f.root)
	for walker.Step() {
		if err := walker.Err(); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		fi := walker.Stat()
		if fi.IsDir() || strings.HasPrefix(fi.Name(), ".") {
			continue
		}
		key := strings.TrimPrefix(strings.TrimPrefix(walker.Path(), f.root), "/")
		if strings.HasPrefix(key, prefix) {
			objs = append(objs, &obj{key, fi.Size(), fi.ModTime()})
		}
	}
	sort.Slice(objs, func(i, j int) bool { return objs[i].Key() < objs[j].Key() })
	return objs, nil
}

// newSftp accepts "host:port/path"; the password falls back to SSH_PASSWORD and
// a private key is read from SSH_PRIVATE_KEY_PATH when set.
func newSftp(endpoint, user, pass string) (ObjectStorage, error) {
	endpoint = strings.TrimPrefix(endpoint, "sftp://")
	idx := strings.Index(endpoint, "/")
	if idx < 0 {
		return nil, fmt.Errorf("no root path in %s", endpoint)
	}
	host, root := endpoint[:idx], endpoint[idx:]
	if _, _, err := net.SplitHostPort(host); err != nil {
		host = net.JoinHostPort(host, "22")
	}
	if pass == "" {
		pass = os.Getenv("SSH_PASSWORD")
	}
	var auth []ssh.AuthMethod
	if pass != "" {
		auth = append(auth, ssh.Password(pass))
	}
	if keyPath := os.Getenv("SSH_PRIVATE_KEY_PATH"); keyPath != "" {
		pem, err := os.ReadFile(keyPath)
		if err != nil {
			return nil, fmt.Errorf("read private key %s: %s", keyPath, err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("parse private key %s: %s", keyPath, err)
		}
		auth = append(auth, ssh.PublicKeys(signer))
	}
	config := &ssh.ClientConfig{
		User:            user,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         time.Second * 10,
		ClientVersion:   "SSH-2.0-" + strings.ReplaceAll(UserAgent, " ", "_"),
	}
	return &sftpStore{host: host, root: root, config: config}, nil
}

func init() {
	Register("sftp", newSftp)
}
