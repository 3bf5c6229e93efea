// Package pmtiles reads PMTiles v3 archives through a byte-range store.
//
// Nothing is cached: every lookup re-reads and re-decodes the directories it
// needs, so a Reader is safe for concurrent use as long as its store is.
package pmtiles

import (
	"context"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// e7 is the fixed-point scale of header coordinates.
const e7 = 10000000

// RangeStore fetches byte ranges of named resources. GetRange must return
// exactly length bytes starting at start, or an error.
type RangeStore interface {
	GetRange(ctx context.Context, path string, start, length uint64) ([]byte, error)
}

// Option configures a Reader.
type Option func(*Reader)

// WithLogger sets the logger used for fetch tracing.
func WithLogger(l logrus.FieldLogger) Option {
	return func(r *Reader) {
		if l != nil {
			r.log = l
		}
	}
}

// Reader is an opened archive. The header is read once by Open and never
// changes afterwards.
type Reader struct {
	path   string
	store  RangeStore
	header Header
	log    logrus.FieldLogger
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// Open reads and validates the header of the archive at path.
// Store errors are returned unchanged.
func Open(ctx context.Context, path string, store RangeStore, opts ...Option) (*Reader, error) {
	r := &Reader{
		path:  path,
		store: store,
		log:   discardLogger(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.WithField("archive", path)

	b, err := store.GetRange(ctx, path, 0, HeaderLength)
	if err != nil {
		return nil, err
	}
	h, err := DecodeHeader(b)
	if err != nil {
		return nil, err
	}
	r.header = h
	r.log.WithFields(logrus.Fields{
		"tileType":    h.TileType,
		"compression": h.TileCompression,
		"minZoom":     h.MinZoom,
		"maxZoom":     h.MaxZoom,
	}).Debug("opened archive")
	return r, nil
}

// Path returns the archive path inside the store.
func (r *Reader) Path() string { return r.path }

// Header returns a copy of the archive header.
func (r *Reader) Header() Header { return r.header }

func (r *Reader) fetch(ctx context.Context, what string, start, length uint64) ([]byte, error) {
	r.log.WithFields(logrus.Fields{
		"offset": start,
		"length": length,
	}).Debugf("fetch %s", what)
	return r.store.GetRange(ctx, r.path, start, length)
}

// Metadata returns the archive's JSON metadata object.
func (r *Reader) Metadata(ctx context.Context) (map[string]interface{}, error) {
	b, err := r.fetch(ctx, "metadata", r.header.MetadataOffset, r.header.MetadataLength)
	if err != nil {
		return nil, err
	}
	b, err = decompress(r.header.InternalCompression, b)
	if err != nil {
		return nil, err
	}
	var m map[string]interface{}
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("%w: metadata: %v", ErrMalformedArchive, err)
	}
	if m == nil {
		return nil, malformed("metadata is not a JSON object")
	}
	return m, nil
}

func (r *Reader) directory(ctx context.Context, offset, length uint64) ([]Entry, error) {
	b, err := r.fetch(ctx, "directory", offset, length)
	if err != nil {
		return nil, err
	}
	b, err = decompress(r.header.InternalCompression, b)
	if err != nil {
		return nil, err
	}
	return DecodeDirectory(b)
}

// GetTile returns the raw tile payload, still compressed with the archive's
// tile compression. A tile that is not in the archive yields nil, nil.
func (r *Reader) GetTile(ctx context.Context, z uint8, x, y uint32) ([]byte, error) {
	id, err := ZxyToID(z, x, y)
	if err != nil {
		// Off the zoom grid, so never indexed.
		return nil, nil
	}
	return r.getTileID(ctx, id)
}

// Tile is GetTile for a maptile.Tile.
func (r *Reader) Tile(ctx context.Context, t maptile.Tile) ([]byte, error) {
	if t.Z > MaxZoom {
		return nil, nil
	}
	return r.GetTile(ctx, uint8(t.Z), t.X, t.Y)
}

func (r *Reader) getTileID(ctx context.Context, id uint64) ([]byte, error) {
	offset, length := r.header.RootOffset, r.header.RootLength
	for depth := 0; depth < MaxDepth; depth++ {
		entries, err := r.directory(ctx, offset, length)
		if err != nil {
			return nil, err
		}
		res := Resolve(entries, id)
		switch res.Outcome {
		case Hit:
			return r.fetch(ctx, "tile", r.header.TileDataOffset+res.Offset, uint64(res.Length))
		case Redirect:
			offset = r.header.LeafDirectoryOffset + res.Offset
			length = uint64(res.Length)
		default:
			return nil, nil
		}
	}
	r.log.WithFields(logrus.Fields{
		"tileID": id,
		"depth":  MaxDepth,
	}).Warn("directory depth limit reached, treating tile as missing")
	return nil, nil
}

// MinZoom is the lowest zoom in the archive.
func (r *Reader) MinZoom() uint8 { return r.header.MinZoom }

// MaxZoom is the highest zoom in the archive.
func (r *Reader) MaxZoom() uint8 { return r.header.MaxZoom }

// Bounds returns the archive extent in degrees.
func (r *Reader) Bounds() orb.Bound {
	h := r.header
	return orb.Bound{
		Min: orb.Point{float64(h.MinLonE7) / e7, float64(h.MinLatE7) / e7},
		Max: orb.Point{float64(h.MaxLonE7) / e7, float64(h.MaxLatE7) / e7},
	}
}

// Center returns the default view point in degrees and its zoom.
func (r *Reader) Center() (orb.Point, uint8) {
	h := r.header
	return orb.Point{float64(h.CenterLonE7) / e7, float64(h.CenterLatE7) / e7}, h.CenterZoom
}

// TileCompression is the compression of the payloads GetTile returns.
func (r *Reader) TileCompression() Compression { return r.header.TileCompression }

// TileType is the content type of the payloads.
func (r *Reader) TileType() TileType { return r.header.TileType }

// IsVector reports whether the archive holds vector (MVT) tiles.
func (r *Reader) IsVector() bool { return r.header.TileType == TileTypeMVT }
