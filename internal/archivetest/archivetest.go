// Package archivetest assembles small PMTiles archives in memory for tests.
package archivetest

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/klauspost/compress/gzip"

	"pmtiler/pmtiles"
)

// Builder collects tiles and lays them out as header, root directory,
// metadata, leaf directories and tile data, in that order.
type Builder struct {
	// Header supplies the descriptive fields; offsets and counts are filled in by Build.
	Header pmtiles.Header
	// Metadata is stored as is, then compressed with Header.InternalCompression.
	Metadata []byte
	// LeafSize splits the entries into leaf directories of at most this many
	// entries when positive.
	LeafSize int

	tiles map[uint64][]byte
}

// NewBuilder returns a Builder for a v3 archive with uncompressed internals.
func NewBuilder() *Builder {
	return &Builder{
		Header: pmtiles.Header{
			SpecVersion:         pmtiles.SpecVersion,
			InternalCompression: pmtiles.CompressionNone,
			TileCompression:     pmtiles.CompressionNone,
			TileType:            pmtiles.TileTypePNG,
		},
		Metadata: []byte("{}"),
		tiles:    make(map[uint64][]byte),
	}
}

// AddTile stores data for z/x/y.
func (b *Builder) AddTile(z uint8, x, y uint32, data []byte) *Builder {
	id, err := pmtiles.ZxyToID(z, x, y)
	if err != nil {
		panic(fmt.Sprintf("archivetest: %d/%d/%d: %v", z, x, y, err))
	}
	b.tiles[id] = data
	return b
}

// Entries returns the data entries Build writes, merging runs of
// consecutive ids that share identical bytes.
func (b *Builder) Entries() ([]pmtiles.Entry, [][]byte) {
	ids := make([]uint64, 0, len(b.tiles))
	for id := range b.tiles {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var (
		entries []pmtiles.Entry
		blobs   [][]byte
		offset  uint64
	)
	for _, id := range ids {
		data := b.tiles[id]
		if n := len(entries); n > 0 {
			last := &entries[n-1]
			if last.TileID+uint64(last.RunLength) == id && bytes.Equal(blobs[n-1], data) {
				last.RunLength++
				continue
			}
		}
		entries = append(entries, pmtiles.Entry{
			TileID:    id,
			RunLength: 1,
			Offset:    offset,
			Length:    uint32(len(data)),
		})
		blobs = append(blobs, data)
		offset += uint64(len(data))
	}
	return entries, blobs
}

// Build returns the archive bytes.
func (b *Builder) Build() []byte {
	h := b.Header
	entries, blobs := b.Entries()

	var tileData bytes.Buffer
	for _, blob := range blobs {
		tileData.Write(blob)
	}

	root := entries
	var leaves bytes.Buffer
	if b.LeafSize > 0 && len(entries) > b.LeafSize {
		root = nil
		for start := 0; start < len(entries); start += b.LeafSize {
			end := start + b.LeafSize
			if end > len(entries) {
				end = len(entries)
			}
			leaf := b.compress(pmtiles.EncodeDirectory(entries[start:end]))
			root = append(root, pmtiles.Entry{
				TileID: entries[start].TileID,
				Offset: uint64(leaves.Len()),
				Length: uint32(len(leaf)),
			})
			leaves.Write(leaf)
		}
	}

	rootBytes := b.compress(pmtiles.EncodeDirectory(root))
	metadata := b.compress(b.Metadata)

	h.RootOffset = pmtiles.HeaderLength
	h.RootLength = uint64(len(rootBytes))
	h.MetadataOffset = h.RootOffset + h.RootLength
	h.MetadataLength = uint64(len(metadata))
	h.LeafDirectoryOffset = h.MetadataOffset + h.MetadataLength
	h.LeafDirectoryLength = uint64(leaves.Len())
	h.TileDataOffset = h.LeafDirectoryOffset + h.LeafDirectoryLength
	h.TileDataLength = uint64(tileData.Len())
	h.AddressedTilesCount = uint64(len(b.tiles))
	h.TileEntriesCount = uint64(len(entries))
	h.TileContentsCount = uint64(len(blobs))
	h.Clustered = true

	header, _ := h.MarshalBinary()
	var out bytes.Buffer
	out.Write(header)
	out.Write(rootBytes)
	out.Write(metadata)
	out.Write(leaves.Bytes())
	out.Write(tileData.Bytes())
	return out.Bytes()
}

func (b *Builder) compress(data []byte) []byte {
	if b.Header.InternalCompression != pmtiles.CompressionGzip {
		return data
	}
	return Gzip(data)
}

// Gzip compresses data.
func Gzip(data []byte) []byte {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(data); err != nil {
		panic(err)
	}
	if err := zw.Close(); err != nil {
		panic(err)
	}
	return buf.Bytes()
}

// Fetch records one GetRange call.
type Fetch struct {
	Path          string
	Start, Length uint64
}

// Store is an in-memory RangeStore that records every fetch.
type Store struct {
	mu      sync.Mutex
	files   map[string][]byte
	fetches []Fetch
	// Err, when set, is returned by every GetRange.
	Err error
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{files: make(map[string][]byte)}
}

// Put registers data under path.
func (s *Store) Put(path string, data []byte) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[path] = data
	return s
}

// GetRange implements pmtiles.RangeStore.
func (s *Store) GetRange(ctx context.Context, path string, start, length uint64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches = append(s.fetches, Fetch{Path: path, Start: start, Length: length})
	if s.Err != nil {
		return nil, s.Err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, ok := s.files[path]
	if !ok {
		return nil, fmt.Errorf("archivetest: %s not found", path)
	}
	if start > uint64(len(data)) || length > uint64(len(data))-start {
		return nil, fmt.Errorf("archivetest: range %d+%d outside %s (%d bytes)", start, length, path, len(data))
	}
	out := make([]byte, length)
	copy(out, data[start:start+length])
	return out, nil
}

// Fetches returns the calls made so far.
func (s *Store) Fetches() []Fetch {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Fetch(nil), s.fetches...)
}

// Reset forgets recorded fetches.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches = nil
}
