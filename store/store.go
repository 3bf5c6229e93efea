// Package store provides byte-range backends for pmtiles.Reader.
//
// Every backend returns exactly the requested number of bytes or an error,
// and is safe for concurrent use. None of them retry.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"time"
)

// ErrShortRead is returned when a backend delivers fewer bytes than asked for.
var ErrShortRead = errors.New("store: short read")

// RangeStore is the single capability every backend implements.
type RangeStore interface {
	GetRange(ctx context.Context, path string, start, length uint64) ([]byte, error)
}

// Options configures the backends built by Open.
type Options struct {
	HTTPTimeout time.Duration

	S3Endpoint  string
	S3Region    string
	S3AccessKey string
	S3SecretKey string
	S3UseSSL    bool
}

// Open picks a backend for location and returns it together with the path
// to pass to GetRange. Locations are s3://bucket/key, http(s) URLs, or
// filesystem paths.
func Open(location string, opts Options) (RangeStore, string, error) {
	u, err := url.Parse(location)
	if err == nil {
		switch strings.ToLower(u.Scheme) {
		case "s3":
			key := strings.TrimPrefix(u.Path, "/")
			if u.Host == "" || key == "" {
				return nil, "", fmt.Errorf("store: %q needs a bucket and a key", location)
			}
			s, err := NewS3(u.Host, opts)
			if err != nil {
				return nil, "", err
			}
			return s, key, nil
		case "http", "https":
			return NewHTTP(opts.HTTPTimeout), location, nil
		case "file":
			location = u.Path
		}
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return nil, "", fmt.Errorf("store: %s: %w", location, err)
	}
	return NewFile(filepath.Dir(abs)), filepath.Base(abs), nil
}

// readRange reads exactly length bytes from r. The buffer grows with the data
// received, so a bogus length fails as a short read instead of allocating it.
// length must fit in an int64.
func readRange(r io.Reader, length uint64, name string, start uint64) ([]byte, error) {
	buf, err := io.ReadAll(io.LimitReader(r, int64(length)))
	if err != nil {
		return nil, err
	}
	if uint64(len(buf)) < length {
		return nil, fmt.Errorf("%w: %s: %d of %d bytes at offset %d", ErrShortRead, name, len(buf), length, start)
	}
	return buf, nil
}
