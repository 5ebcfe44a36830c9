// Package storage persists uploaded resume files and hands back an opaque
// reference that can be used to read them again.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"resume-match/internal/config"

	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound    = errors.New("stored object not found")
	ErrInvalidName = errors.New("invalid storage name")
)

type Storage interface {
	// Put stores r under a name derived from name and returns the reference
	// actually used. Existing objects are never overwritten.
	Put(ctx context.Context, name string, r io.Reader) (string, error)
	Open(ctx context.Context, ref string) (io.ReadCloser, error)
}

// New builds the driver selected by cfg.Driver.
func New(ctx context.Context, cfg config.StorageConfig, logger logrus.FieldLogger) (Storage, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
	case "", config.StorageDriverLocal:
		return NewLocal(cfg.LocalDir)
	case config.StorageDriverS3:
		return NewS3(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// cleanName normalises a slash separated object name and rejects names that
// would escape the storage root.
func cleanName(name string) (string, error) {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return "", ErrInvalidName
	}
	cleaned := path.Clean("/" + name)
	cleaned = strings.TrimPrefix(cleaned, "/")
	if cleaned == "" || cleaned == "." || strings.HasPrefix(cleaned, "../") {
		return "", ErrInvalidName
	}
	return cleaned, nil
}

// variant inserts a numeric suffix before the extension: a/b.pdf -> a/b_2.pdf.
func variant(name string, n int) string {
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s_%d%s", base, n, ext)
}
