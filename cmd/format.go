// cmd/format.go

package main

import (
	"bytes"
	crand "crypto/rand"
	"fmt"
	"io"
	"math/rand"
	"os"
	"regexp"
	"strings"
	"time"

	"AveGrid/pkg/compress"
	"AveGrid/pkg/meta"
	"AveGrid/pkg/object"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

func randSeq(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letters[rand.Intn(len(letters))]
	}
	return string(b)
}

func doTesting(store object.ObjectStorage, key string, data []byte) error {
	if err := store.Put(key, bytes.NewReader(data)); err != nil {
		if strings.Contains(err.Error(), "Access Denied") {
			return fmt.Errorf("Failed to put: %s", err)
		}
		if err2 := store.Create(); err2 != nil {
			return fmt.Errorf("Failed to create %s: %s,  previous error: %s\nplease create bucket %s manually, then format again",
				store, err2, err, store)
		}
		if err := store.Put(key, bytes.NewReader(data)); err != nil {
			return fmt.Errorf("Failed to put: %s", err)
		}
	}
	p, err := store.Get(key, 0, -1)
	if err != nil {
		return fmt.Errorf("Failed to get: %s", err)
	}
	data2, err := io.ReadAll(p)
	_ = p.Close()
	if err != nil {
		return err
	}
	if !bytes.Equal(data, data2) {
		return fmt.Errorf("Read wrong data")
	}
	err = store.Delete(key)
	if err != nil {
		// it's OK to don't have deletion permission
		fmt.Printf("Failed to delete: %s", err)
	}
	return nil
}

func test(store object.ObjectStorage) error {
	key := "testing/" + randSeq(10)
	data := make([]byte, 100)
	_, _ = crand.Read(data)
	nRetry := 3
	var err error
	for i := 0; i < nRetry; i++ {
		err = doTesting(store, key, data)
		if err == nil {
			return nil
		}
		time.Sleep(time.Second * time.Duration(i*3+1))
	}
	return err
}

func format(c *cli.Context) error {
	setLoggerLevel(c)
	if c.Args().Len() < 1 {
		logger.Fatalf("STORE and name are required")
	}
	root, storage, bucket := openRoot(c.Args().Get(0))
	m := meta.NewClient(root)

	if c.Args().Len() < 2 {
		logger.Fatalf("Please give it a name")
	}
	name := c.Args().Get(1)
	validName := regexp.MustCompile(`^[a-z0-9][a-z0-9\-]{1,61}[a-z0-9]$`)
	if !validName.MatchString(name) {
		logger.Fatalf("invalid name: %s, only alphabet, number and - are allowed, and the length should be 3 to 63 characters.", name)
	}

	compressor := compress.NewCompressor(c.String("compress"))
	if compressor == nil {
		logger.Fatalf("Unsupported compress algorithm: %s", c.String("compress"))
	}
	if c.Bool("no-update") {
		if _, err := m.Load(); err == nil {
			return nil
		}
	}

	format := meta.Format{
		Name:          name,
		UUID:          uuid.New().String(),
		Storage:       storage,
		Bucket:        bucket,
		AccessKey:     c.String("access-key"),
		SecretKey:     c.String("secret-key"),
		Compression:   c.String("compress"),
		UploadLimit:   c.Int64("upload-limit"),
		DownloadLimit: c.Int64("download-limit"),
		ChunkRows:     int32(c.Int("chunk-rows")),
		ChunkCols:     int32(c.Int("chunk-cols")),
	}
	if format.AccessKey == "" && os.Getenv("ACCESS_KEY") != "" {
		format.AccessKey = os.Getenv("ACCESS_KEY")
		os.Unsetenv("ACCESS_KEY")
	}
	if format.SecretKey == "" && os.Getenv("SECRET_KEY") != "" {
		format.SecretKey = os.Getenv("SECRET_KEY")
		os.Unsetenv("SECRET_KEY")
	}
	if format.ChunkRows <= 0 || format.ChunkCols <= 0 {
		logger.Fatalf("chunk size %dx%d should be positive", format.ChunkRows, format.ChunkCols)
	}

	keyPath := c.String("encrypt-rsa-key")
	if keyPath != "" {
		pem, err := os.ReadFile(keyPath)
		if err != nil {
			logger.Fatalf("load RSA key from %s: %s", keyPath, err)
		}
		format.EncryptKey = string(pem)
	}

	blob, err := createStorage(root, &format)
	if err != nil {
		logger.Fatalf("object storage: %s", err)
	}
	logger.Infof("Data uses %s", blob)
	if err := test(blob); err != nil {
		logger.Fatalf("Storage %s is not configured correctly: %s", blob, err)
	}

	err = m.Init(format, c.Bool("force"))
	if err != nil {
		logger.Fatalf("format: %s", err)
	}
	format.RemoveSecret()
	logger.Infof("Store is formatted as %+v", format)
	return nil
}

func formatFlags() *cli.Command {
	return &cli.Command{
		Name:      "format",
		Usage:     "format a grid store",
		ArgsUsage: "STORE NAME",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "compress",
				Value: "none",
				Usage: "compression algorithm of chunks (lz4, zstd, none)",
			},
			&cli.IntFlag{
				Name:  "chunk-rows",
				Value: meta.DefaultChunkSize,
				Usage: "rows of a chunk of new grids",
			},
			&cli.IntFlag{
				Name:  "chunk-cols",
				Value: meta.DefaultChunkSize,
				Usage: "columns of a chunk of new grids",
			},
			&cli.StringFlag{
				Name:  "access-key",
				Usage: "Access key for the storage (env ACCESS_KEY)",
			},
			&cli.StringFlag{
				Name:  "secret-key",
				Usage: "Secret key for the storage (env SECRET_KEY)",
			},
			&cli.StringFlag{
				Name:  "encrypt-rsa-key",
				Usage: "A path to RSA private key (PEM)",
			},
			&cli.Int64Flag{
				Name:  "upload-limit",
				Usage: "bandwidth limit for writing chunks in Mbps",
			},
			&cli.Int64Flag{
				Name:  "download-limit",
				Usage: "bandwidth limit for reading chunks in Mbps",
			},

			&cli.BoolFlag{
				Name:  "force",
				Usage: "overwrite existing format",
			},
			&cli.BoolFlag{
				Name:  "no-update",
				Usage: "don't update existing store",
			},
		},
		Action: format,
	}
}
