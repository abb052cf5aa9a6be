package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// LocalStore writes containers to the local filesystem.
type LocalStore struct {
	baseDir string
	prefix  string
}

// NewLocalStore creates a new local filesystem store. An empty baseDir
// resolves container names against the current working directory, which is
// the normal single-file CLI case.
func NewLocalStore(baseDir, prefix string) (*LocalStore, error) {
	if baseDir != "" {
		if err := os.MkdirAll(baseDir, 0755); err != nil {
			return nil, fmt.Errorf("create base directory %s: %w", baseDir, err)
		}
	}

	return &LocalStore{
		baseDir: baseDir,
		prefix:  prefix,
	}, nil
}

func (s *LocalStore) path(name string) string {
	return filepath.Join(s.baseDir, s.prefix+name)
}

// WriteContainer streams the container to a temp file and renames it into
// place, so a failed write never leaves a partial container at the final
// path.
func (s *LocalStore) WriteContainer(ctx context.Context, name string, write func(w io.Writer) error) (int64, error) {
	path := s.path(name)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return 0, fmt.Errorf("create directory %s: %w", dir, err)
	}

	tempPath := path + ".tmp"
	f, err := os.Create(tempPath)
	if err != nil {
		return 0, fmt.Errorf("create temp file %s: %w", tempPath, err)
	}

	cw := &countingWriter{w: f}
	if err := write(cw); err != nil {
		f.Close()
		os.Remove(tempPath)
		return 0, err
	}

	if err := f.Close(); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("close temp file %s: %w", tempPath, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return 0, fmt.Errorf("rename %s to %s: %w", tempPath, path, err)
	}

	return cw.n, nil
}

// WriteManifest writes a manifest file next to the container.
func (s *LocalStore) WriteManifest(ctx context.Context, name string, manifest *Manifest) error {
	path := s.path(ManifestName(name))

	data, err := manifest.MarshalJSON()
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}

	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, data, 0644); err != nil {
		return fmt.Errorf("write temp file %s: %w", tempPath, err)
	}

	if err := os.Rename(tempPath, path); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("rename %s to %s: %w", tempPath, path, err)
	}

	return nil
}

// Exists checks if a container already exists.
func (s *LocalStore) Exists(ctx context.Context, name string) (bool, error) {
	_, err := os.Stat(s.path(name))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, err
}

// URI returns the canonical URI for the given name.
func (s *LocalStore) URI(name string) string {
	absPath, err := filepath.Abs(s.path(name))
	if err != nil {
		absPath = s.path(name)
	}
	return "file://" + absPath
}

// Close is a no-op for local storage.
func (s *LocalStore) Close() error {
	return nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (cw *countingWriter) Write(p []byte) (int, error) {
	n, err := cw.w.Write(p)
	cw.n += int64(n)
	return n, err
}
