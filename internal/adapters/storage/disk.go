// Package storage implements the blob-store port on the local filesystem.
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

// DiskStore saves file bytes under a single root directory. All paths are
// relative to that root and are rejected if they would escape it.
type DiskStore struct {
	root string
}

func NewDiskStore(root string) (*DiskStore, error) {
	if root == "" {
		return nil, fmt.Errorf("storage root is required")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &DiskStore{root: abs}, nil
}

func (s *DiskStore) resolve(path string) (string, error) {
	cleaned := filepath.Clean("/" + path)
	full := filepath.Join(s.root, cleaned)
	if full != s.root && !strings.HasPrefix(full, s.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", path)
	}
	return full, nil
}

func (s *DiskStore) Save(_ context.Context, path string, content io.Reader) (int64, bool, error) {
	full, err := s.resolve(path)
	if err != nil {
		return 0, false, err
	}
	dirCreated, err := s.ensureDir(filepath.Dir(full))
	if err != nil {
		return 0, false, err
	}
	// Write to a temp name and link into place. The link fails if anything
	// already occupies the destination, so a save can never clobber another
	// blob's bytes, and a crashed upload leaves nothing at the final path.
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return 0, dirCreated, err
	}
	written, err := io.Copy(tmp, content)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return 0, dirCreated, err
	}
	if err := os.Link(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		if errors.Is(err, fs.ErrExist) {
			return 0, dirCreated, fmt.Errorf("blob %q: %w", path, fs.ErrExist)
		}
		return 0, dirCreated, err
	}
	os.Remove(tmp.Name())
	return written, dirCreated, nil
}

// ensureDir creates the blob's parent directory and reports whether this
// call created the leaf. Mkdir on the leaf arbitrates concurrent saves into
// the same fresh directory: exactly one caller sees true.
func (s *DiskStore) ensureDir(dir string) (bool, error) {
	err := os.Mkdir(dir, 0o755)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, fs.ErrExist):
		return false, nil
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
			return false, err
		}
		if err := os.Mkdir(dir, 0o755); err != nil {
			if errors.Is(err, fs.ErrExist) {
				return false, nil
			}
			return false, err
		}
		return true, nil
	default:
		return false, err
	}
}

func (s *DiskStore) Open(_ context.Context, path string) (io.ReadCloser, error) {
	full, err := s.resolve(path)
	if err != nil {
		return nil, err
	}
	return os.Open(full)
}

func (s *DiskStore) Exists(_ context.Context, path string) bool {
	full, err := s.resolve(path)
	if err != nil {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && !info.IsDir()
}

func (s *DiskStore) Delete(_ context.Context, path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (s *DiskStore) DeleteDir(_ context.Context, dir string) error {
	full, err := s.resolve(dir)
	if err != nil {
		return err
	}
	if full == s.root {
		return fmt.Errorf("refusing to delete storage root")
	}
	if err := os.Remove(full); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		// Still holds entries; leave it for whoever owns them.
		if entries, readErr := os.ReadDir(full); readErr == nil && len(entries) > 0 {
			return nil
		}
		return err
	}
	return nil
}
