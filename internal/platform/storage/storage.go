// Package storage provides the object store that mirrored logos are written to.
package storage

import (
	"context"
	"fmt"
)

// Store is a key-value blob store. Put overwrites an existing object with the same key
// and returns the object's public URL.
type Store interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (string, error)
	PublicURL(key string) string
}

// Config holds storage configuration.
type Config struct {
	Type  string      `mapstructure:"type"` // "s3" or "local"
	Local LocalConfig `mapstructure:"local"`
	S3    S3Config    `mapstructure:"s3"`
}

// LocalConfig holds local filesystem storage configuration.
type LocalConfig struct {
	BasePath string `mapstructure:"base_path"`
	BaseURL  string `mapstructure:"base_url"`
}

// S3Config holds S3 (or S3-compatible) storage configuration.
type S3Config struct {
	Bucket         string `mapstructure:"bucket"`
	Region         string `mapstructure:"region"`
	Endpoint       string `mapstructure:"endpoint"` // optional, for S3-compatible services
	AccessKey      string `mapstructure:"access_key"`
	SecretKey      string `mapstructure:"secret_key"`
	BaseURL        string `mapstructure:"base_url"` // public URL prefix; derived from bucket/region when empty
	ForcePathStyle bool   `mapstructure:"force_path_style"`
}

// NewStore creates the Store selected by cfg.Type.
func NewStore(cfg Config) (Store, error) {
	switch cfg.Type {
	case "s3":
		return NewS3Store(cfg.S3)
	case "local", "":
		return NewLocalStore(cfg.Local)
	default:
		return nil, fmt.Errorf("unknown storage type %q", cfg.Type)
	}
}
