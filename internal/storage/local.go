// Package storage stages uploaded files on local disk while they are imported.
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
	"time"

	"github.com/google/uuid"
)

// filePrefix marks files owned by a LocalStore so SweepStale never touches anything else.
const filePrefix = "upload-"

// LocalStore keeps uploads in a single directory under random names.
type LocalStore struct {
	dir string
}

// NewLocalStore creates dir if needed. An empty dir means a "biblioteca-uploads"
// directory under the OS temp dir.
func NewLocalStore(dir string) (*LocalStore, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "biblioteca-uploads")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

// Dir returns the staging directory.
func (s *LocalStore) Dir() string {
	return s.dir
}

// Save copies r into a new file. The original name only contributes its extension,
// which the decoder uses to pick a format.
func (s *LocalStore) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(name))
	path := filepath.Join(s.dir, filePrefix+uuid.NewString()+ext)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", err
	}

	_, err = io.Copy(f, &contextReader{ctx: ctx, r: r})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}

// Open opens a staged file for reading.
func (s *LocalStore) Open(path string) (io.ReadCloser, error) {
	if err := s.owns(path); err != nil {
		return nil, err
	}
	return os.Open(path)
}

// Delete removes a staged file. A missing file is not an error.
func (s *LocalStore) Delete(path string) error {
	if err := s.owns(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// SweepStale removes staged files last modified more than maxAge ago.
func (s *LocalStore) SweepStale(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0
	var errs []error
	for _, e := range entries {
		if e.IsDir() || !strings.HasPrefix(e.Name(), filePrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				errs = append(errs, err)
			}
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, e.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}

// owns rejects paths outside the staging directory.
func (s *LocalStore) owns(path string) error {
	if filepath.Dir(filepath.Clean(path)) != filepath.Clean(s.dir) {
		return fmt.Errorf("path %q is outside the upload dir", path)
	}
	return nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c *contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
