package blob

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FSStore keeps blobs as files under a single directory, named by their
// content-addressed reference.
type FSStore struct {
	dir string
}

// NewFSStore creates the directory if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir %s: %w", dir, err)
	}
	return &FSStore{dir: dir}, nil
}

func (s *FSStore) Upload(_ context.Context, data []byte, mimeType string) (string, error) {
	ref := refFor(data, mimeType)
	path := filepath.Join(s.dir, ref)
	if _, err := os.Stat(path); err == nil {
		return ref, nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write blob %s: %w", ref, err)
	}
	return ref, nil
}

func (s *FSStore) Fetch(_ context.Context, ref string) ([]byte, error) {
	// References are flat names; reject anything that escapes the directory.
	if filepath.Base(ref) != ref {
		return nil, fmt.Errorf("fetch blob %s: %w", ref, ErrNotFound)
	}
	data, err := os.ReadFile(filepath.Join(s.dir, ref))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("fetch blob %s: %w", ref, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch blob %s: %w", ref, err)
	}
	return data, nil
}
