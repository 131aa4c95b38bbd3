// Package blob stores item images in Azure Blob Storage, S3 or memory.
package blob

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	ProviderAzure  = "azure"
	ProviderS3     = "s3"
	ProviderMemory = "memory"
)

const (
	DefaultImagesContainer = "images"
	DefaultURLExpiry       = time.Hour
)

var ErrNotFound = errors.New("blob not found")

type Config struct {
	Provider    string `mapstructure:"provider"`
	AccountName string `mapstructure:"account_name"`
	AccountKey  string `mapstructure:"account_key"`
	// Endpoint overrides the service URL, e.g. for Azurite or MinIO.
	Endpoint string `mapstructure:"endpoint"`
	Region   string `mapstructure:"region"`

	ImagesContainer string        `mapstructure:"images_container"`
	URLExpiry       time.Duration `mapstructure:"url_expiry"`
	// MaxRetries of 0 keeps the SDK default, -1 disables retries.
	MaxRetries int32 `mapstructure:"max_retries"`
}

// Storage is a blob store organised in containers. S3 buckets act as
// containers.
type Storage interface {
	Exists(ctx context.Context, container, name string) (bool, error)
	// ImageURL returns a short-lived URL the model provider can download
	// the blob from.
	ImageURL(ctx context.Context, container, name string) (string, error)
	// Upload creates or overwrites a blob.
	Upload(ctx context.Context, container, name, contentType string, data []byte) error
	ListContainers(ctx context.Context) ([]string, error)
	ListBlobs(ctx context.Context, container, prefix string) ([]string, error)
	CountBlobs(ctx context.Context, container string) (int, error)
}

func New(ctx context.Context, cfg Config) (Storage, error) {
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = DefaultURLExpiry
	}

	switch cfg.Provider {
	case ProviderAzure, "":
		return NewAzure(cfg)
	case ProviderS3:
		return NewS3(ctx, cfg)
	case ProviderMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown storage provider: %v", cfg.Provider)
	}
}

// ImageName is the blob name of the image of item id.
func ImageName(id int64) string {
	return fmt.Sprintf("%d.jpg", id)
}
