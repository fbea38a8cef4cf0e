package storage

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"chat-files-api/internal/faults"
)

// LocalBackend stores objects as plain files under a root directory.
type LocalBackend struct {
	root     string
	filePerm fs.FileMode
	dirPerm  fs.FileMode
}

// NewLocalBackend creates a disk-backed storage rooted at root.
func NewLocalBackend(root string, filePerm, dirPerm fs.FileMode) (*LocalBackend, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving storage root: %w", err)
	}
	if err := os.MkdirAll(abs, dirPerm); err != nil {
		return nil, fmt.Errorf("creating storage root: %w", err)
	}
	return &LocalBackend{root: abs, filePerm: filePerm, dirPerm: dirPerm}, nil
}

func (b *LocalBackend) Kind() string { return "local" }

// resolve joins path under the root and rejects traversal outside it.
func (b *LocalBackend) resolve(path string) (string, error) {
	full := filepath.Join(b.root, filepath.FromSlash(path))
	if full != b.root && !strings.HasPrefix(full, b.root+string(os.PathSeparator)) {
		return "", faults.Backend("resolve", path, fmt.Errorf("path escapes storage root"))
	}
	return full, nil
}

func (b *LocalBackend) Write(ctx context.Context, path string, r io.Reader) (int64, error) {
	full, err := b.resolve(path)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), b.dirPerm); err != nil {
		return 0, faults.Backend("mkdir", path, err)
	}
	dst, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, b.filePerm)
	if err != nil {
		return 0, faults.Backend("create", path, err)
	}
	defer dst.Close()

	written, err := io.Copy(dst, r)
	if err != nil {
		return written, faults.Backend("write", path, err)
	}
	return written, nil
}

func (b *LocalBackend) Read(ctx context.Context, path string) ([]byte, error) {
	full, err := b.resolve(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, faults.ErrNotFound
		}
		return nil, faults.Backend("read", path, err)
	}
	return data, nil
}

// rangeReader closes the underlying file once the range is drained.
type rangeReader struct {
	io.Reader
	f *os.File
}

func (r *rangeReader) Close() error { return r.f.Close() }

func (b *LocalBackend) OpenRange(ctx context.Context, path string, start, end int64) (io.ReadCloser, error) {
	full, err := b.resolve(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, faults.ErrNotFound
		}
		return nil, faults.Backend("open", path, err)
	}
	if _, err := f.Seek(start, io.SeekStart); err != nil {
		f.Close()
		return nil, faults.Backend("seek", path, err)
	}
	return &rangeReader{Reader: io.LimitReader(f, end-start+1), f: f}, nil
}

func (b *LocalBackend) Delete(ctx context.Context, path string) error {
	full, err := b.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return faults.Backend("delete", path, err)
	}
	return nil
}

func (b *LocalBackend) EnsureDir(ctx context.Context, path string) error {
	full, err := b.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, b.dirPerm); err != nil {
		return faults.Backend("mkdir", path, err)
	}
	return nil
}

func (b *LocalBackend) Stat(ctx context.Context, path string) (Info, error) {
	full, err := b.resolve(path)
	if err != nil {
		return Info{}, err
	}
	fi, err := os.Stat(full)
	if err != nil {
		if os.IsNotExist(err) {
			return Info{}, faults.ErrNotFound
		}
		return Info{}, faults.Backend("stat", path, err)
	}
	return Info{Size: fi.Size(), ModTime: fi.ModTime()}, nil
}

// AbsPath returns the absolute filesystem location of a stored object. Used
// by the thumbnail generator, which hands paths to an external process.
func (b *LocalBackend) AbsPath(path string) (string, error) {
	return b.resolve(path)
}
