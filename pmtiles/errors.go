package pmtiles

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedVersion is matched by every *VersionError.
	ErrUnsupportedVersion = errors.New("pmtiles: unsupported spec version")
	// ErrUnsupportedCompression is matched by every *CompressionError.
	ErrUnsupportedCompression = errors.New("pmtiles: unsupported compression")
	// ErrMalformedArchive reports header or directory bytes that fail structural decoding.
	ErrMalformedArchive = errors.New("pmtiles: malformed archive")
	// ErrInvalidTile reports a coordinate that has no tile id.
	ErrInvalidTile = errors.New("pmtiles: invalid tile coordinate")
)

// VersionError is returned by Open when the header carries a spec version other than 3.
type VersionError struct {
	Version uint8
}

func (e *VersionError) Error() string {
	return fmt.Sprintf("pmtiles: unsupported spec version %d", e.Version)
}

func (e *VersionError) Is(target error) bool {
	return target == ErrUnsupportedVersion
}

// CompressionError names the compression kind that could not be decoded.
type CompressionError struct {
	Kind Compression
}

func (e *CompressionError) Error() string {
	return fmt.Sprintf("pmtiles: %s compression is not implemented", e.Kind)
}

func (e *CompressionError) Is(target error) bool {
	return target == ErrUnsupportedCompression
}

func malformed(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedArchive, fmt.Sprintf(format, args...))
}
