package store

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// File reads ranges of files below a root directory.
type File struct {
	root string
}

// NewFile returns a File rooted at dir.
func NewFile(dir string) *File {
	return &File{root: dir}
}

// GetRange implements RangeStore. The file is opened per call.
func (s *File) GetRange(ctx context.Context, path string, start, length uint64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.root, filepath.FromSlash(path)))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if length == 0 {
		return []byte{}, nil
	}
	fi, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size := uint64(fi.Size())
	if start > size || length > size-start {
		return nil, fmt.Errorf("%w: %s: %d bytes at offset %d past end (%d bytes)", ErrShortRead, path, length, start, size)
	}
	buf := make([]byte, length)
	n, err := f.ReadAt(buf, int64(start))
	if err == io.EOF && uint64(n) < length {
		return nil, fmt.Errorf("%w: %s: %d of %d bytes at offset %d", ErrShortRead, path, n, length, start)
	}
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf, nil
}
