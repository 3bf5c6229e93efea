package pmtiles

import (
	"bytes"
	"io"

	"github.com/klauspost/compress/gzip"
)

// Compression is the codec applied to directories, metadata or tiles.
type Compression uint8

// Compression values as stored in the header.
const (
	CompressionUnknown Compression = iota
	CompressionNone
	CompressionGzip
	CompressionBrotli
	CompressionZstd
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionGzip:
		return "gzip"
	case CompressionBrotli:
		return "brotli"
	case CompressionZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// TileType is the content type of the tile payloads.
type TileType uint8

// TileType values as stored in the header.
const (
	TileTypeUnknown TileType = iota
	TileTypeMVT
	TileTypePNG
	TileTypeJPEG
	TileTypeWEBP
	TileTypeAVIF
)

func (t TileType) String() string {
	switch t {
	case TileTypeMVT:
		return "mvt"
	case TileTypePNG:
		return "png"
	case TileTypeJPEG:
		return "jpeg"
	case TileTypeWEBP:
		return "webp"
	case TileTypeAVIF:
		return "avif"
	default:
		return "unknown"
	}
}

// decompress undoes the internal compression of a metadata or directory block.
// Brotli and zstd are not implemented and fail with a *CompressionError.
func decompress(kind Compression, data []byte) ([]byte, error) {
	switch kind {
	case CompressionNone:
		return data, nil
	case CompressionGzip:
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, malformed("gzip: %v", err)
		}
		defer zr.Close()
		out, err := io.ReadAll(zr)
		if err != nil {
			return nil, malformed("gzip: %v", err)
		}
		return out, nil
	default:
		return nil, &CompressionError{Kind: kind}
	}
}
