package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const maxNameAttempts = 100

type Local struct {
	root string
}

func NewLocal(root string) (*Local, error) {
	root = strings.TrimSpace(root)
	if root == "" {
		return nil, errors.New("local storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &Local{root: abs}, nil
}

func (l *Local) Root() string { return l.root }

func (l *Local) Put(ctx context.Context, name string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name, err := cleanName(name)
	if err != nil {
		return "", err
	}

	for i := 1; i <= maxNameAttempts; i++ {
		ref := name
		if i > 1 {
			ref = variant(name, i)
		}
		full := filepath.Join(l.root, filepath.FromSlash(ref))
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			return "", fmt.Errorf("create storage dir: %w", err)
		}

		f, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create object: %w", err)
		}

		if _, err := io.Copy(f, r); err != nil {
			_ = f.Close()
			_ = os.Remove(full)
			return "", fmt.Errorf("write object: %w", err)
		}
		if err := f.Close(); err != nil {
			_ = os.Remove(full)
			return "", fmt.Errorf("close object: %w", err)
		}
		return ref, nil
	}
	return "", fmt.Errorf("no free name for %q", name)
}

func (l *Local) Open(ctx context.Context, ref string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	ref, err := cleanName(ref)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(l.root, filepath.FromSlash(ref)))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}
