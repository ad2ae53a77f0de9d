// Package storage keeps original uploads and rendered thumbnails.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

var ErrObjectNotFound = errors.New("object not found")

type BlobStore interface {
	WriteObject(ctx context.Context, objectKey string, data []byte, contentType string) error
	ReadObject(ctx context.Context, objectKey string) ([]byte, error)
	ObjectExists(ctx context.Context, objectKey string) (bool, error)
}

type Config struct {
	Driver   string
	LocalDir string
	Endpoint string
	Access   string
	Secret   string
	Bucket   string
	UseSSL   bool
}

// Open builds the store named by cfg.Driver and makes sure it is writable.
func Open(ctx context.Context, cfg Config) (BlobStore, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", "local":
		return NewLocalStore(cfg.LocalDir)
	case "minio", "s3":
		client, err := NewMinioClient(cfg)
		if err != nil {
			return nil, err
		}
		if err := client.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

func OriginalKey(memoryID string) string {
	return path.Join("memories", memoryID, "original.jpg")
}

func ThumbnailKey(memoryID string) string {
	return path.Join("memories", memoryID, "thumbnail.jpg")
}
