// cmd/store.go

package main

import (
	"fmt"
	"os"
	"strings"

	"AveGrid/pkg/chunk"
	"AveGrid/pkg/compress"
	"AveGrid/pkg/meta"
	"AveGrid/pkg/object"
	"AveGrid/pkg/version"

	"github.com/urfave/cli/v2"
)

// parseStore splits a STORE locator like "redis://host:6379/1" or "badger:///var/avegrid"
// into a storage type and its bucket. A bare path is a file store.
func parseStore(locator string) (string, string) {
	p := strings.Index(locator, "://")
	if p < 0 {
		if !strings.HasSuffix(locator, "/") {
			locator += "/"
		}
		return "file", locator
	}
	storage := strings.ToLower(locator[:p])
	switch storage {
	case "redis":
		return storage, locator
	case "file":
		bucket := locator[p+3:]
		if !strings.HasSuffix(bucket, "/") {
			bucket += "/"
		}
		return storage, bucket
	}
	return storage, locator[p+3:]
}

func openRoot(locator string) (object.ObjectStorage, string, string) {
	storage, bucket := parseStore(locator)
	blob, err := object.CreateStorage(storage, bucket, os.Getenv("ACCESS_KEY"), os.Getenv("SECRET_KEY"))
	if err != nil {
		logger.Fatalf("object storage: %s", err)
	}
	return blob, storage, bucket
}

// createStorage wraps the root of a formatted store into the storage its grids live
// in: under the store name, encrypted and throttled as the format says.
func createStorage(root object.ObjectStorage, format *meta.Format) (object.ObjectStorage, error) {
	object.UserAgent = "AveGrid-" + version.Version()
	blob := object.WithPrefix(root, format.Name+"/")

	if format.EncryptKey != "" {
		passphrase := os.Getenv("AVEGRID_RSA_PASSPHRASE")
		privKey, err := object.ParseRsaPrivateKeyFromPem(format.EncryptKey, passphrase)
		if err != nil {
			return nil, fmt.Errorf("load private key: %s", err)
		}
		encryptor := object.NewAESEncryptor(object.NewRSAEncryptor(privKey))
		blob = object.NewEncrypted(blob, encryptor)
	}
	// limits are in Mbps
	blob = object.NewLimited(blob, format.UploadLimit*1e6/8, format.DownloadLimit*1e6/8)
	return blob, nil
}

// gridStore is an opened, formatted store.
type gridStore struct {
	format *meta.Format
	blob   object.ObjectStorage
	meta   meta.Meta
	chunks chunk.Store
}

func openStore(locator string) *gridStore {
	root, _, _ := openRoot(locator)
	format, err := meta.NewClient(root).Load()
	if err != nil {
		logger.Fatalf("load setting of %s: %s", locator, err)
	}
	blob, err := createStorage(root, format)
	if err != nil {
		logger.Fatalf("object storage: %s", err)
	}
	comp := compress.NewCompressor(format.Compression)
	if comp == nil {
		logger.Fatalf("Unsupported compress algorithm: %s", format.Compression)
	}
	logger.Debugf("opened store %s (%s)", format.Name, blob)
	return &gridStore{
		format: format,
		blob:   blob,
		meta:   meta.NewClient(blob),
		chunks: chunk.NewStore(blob, comp),
	}
}

func (s *gridStore) chunkSize(c *cli.Context) (int32, int32) {
	rows, cols := s.format.ChunkSize()
	if c.IsSet("chunk-rows") {
		rows = int32(c.Int("chunk-rows"))
	}
	if c.IsSet("chunk-cols") {
		cols = int32(c.Int("chunk-cols"))
	}
	return rows, cols
}

func chunkSizeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "chunk-rows",
			Usage: "rows of a chunk (default from the store format)",
		},
		&cli.IntFlag{
			Name:  "chunk-cols",
			Usage: "columns of a chunk (default from the store format)",
		},
	}
}

func recoverFlag() cli.Flag {
	return &cli.BoolFlag{
		Name:  "recover",
		Usage: "evict chunks and retry when memory runs out (default from the config file)",
	}
}
