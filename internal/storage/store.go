// Package storage keeps uploaded policy and claim images.
package storage

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/suteetoe/claimdesk/pkg/config"
)

// ImageStore persists image bytes and returns a reference that is recorded on the owning row.
type ImageStore interface {
	Save(ctx context.Context, namespace, ext string, data []byte) (string, error)
	URL(ref string) string
}

// NewKey returns a fresh object key of the form uploads/<namespace>/<uuid><ext>.
func NewKey(namespace, ext string) string {
	return path.Join("uploads", namespace, uuid.NewString()+ext)
}

// New builds the store selected by cfg.Backend.
func New(ctx context.Context, cfg *config.StorageConfig) (ImageStore, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalStore(cfg.MediaRoot, cfg.MediaURL), nil
	case "s3":
		return NewS3StoreFromConfig(ctx, cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func joinURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(ref, "/")
}
