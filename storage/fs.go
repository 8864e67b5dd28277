package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// FSStore writes objects as files below a root directory.
type FSStore struct {
	root   string
	logger *slog.Logger
}

// NewFSStore returns a store rooted at dir.
func NewFSStore(dir string, logger *slog.Logger) (*FSStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, fmt.Errorf("fs store: directory is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FSStore{root: filepath.Clean(dir), logger: logger}, nil
}

// Put writes body to root/key through a temp file and rename, so readers never
// see a partial object.
func (s *FSStore) Put(ctx context.Context, key string, body []byte, _ string) error {
	if err := ctx.Err(); err != nil {
		return writeFailure(key, err)
	}

	path, err := s.path(key)
	if err != nil {
		return writeFailure(key, err)
	}
	if err := ensureDir(path); err != nil {
		return writeFailure(key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-"+filepath.Base(path)+"-*")
	if err != nil {
		return writeFailure(key, fmt.Errorf("create temp file: %w", err))
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		cleanup()
		return writeFailure(key, fmt.Errorf("write temp file: %w", err))
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return writeFailure(key, fmt.Errorf("close temp file: %w", err))
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return writeFailure(key, fmt.Errorf("rename temp file: %w", err))
	}

	s.logger.Debug("object stored", slog.String("path", path), slog.Int("bytes", len(body)))
	return nil
}

// Ping creates the root directory and checks it is writable.
func (s *FSStore) Ping(context.Context) error {
	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", s.root, err)
	}
	probe, err := os.CreateTemp(s.root, ".ping-*")
	if err != nil {
		return fmt.Errorf("directory %q is not writable: %w", s.root, err)
	}
	name := probe.Name()
	probe.Close()
	return os.Remove(name)
}

func (s *FSStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if clean == "." || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key %q", key)
	}
	return filepath.Join(s.root, clean), nil
}

func ensureDir(filename string) error {
	dir := filepath.Dir(filename)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create directory %q: %w", dir, err)
	}
	return nil
}
