package pmtiles

import (
	"encoding/binary"
)

const (
	// HeaderLength is the size of the fixed v3 header.
	HeaderLength = 127
	// SpecVersion is the only archive version this package reads.
	SpecVersion = 3

	headerMagic = "PMTiles"
)

// Header is the decoded fixed-size archive header. Offsets are absolute
// byte positions in the archive unless stated otherwise.
type Header struct {
	SpecVersion         uint8
	RootOffset          uint64
	RootLength          uint64
	MetadataOffset      uint64
	MetadataLength      uint64
	LeafDirectoryOffset uint64
	LeafDirectoryLength uint64
	TileDataOffset      uint64
	TileDataLength      uint64
	AddressedTilesCount uint64
	TileEntriesCount    uint64
	TileContentsCount   uint64
	Clustered           bool
	InternalCompression Compression
	TileCompression     Compression
	TileType            TileType
	MinZoom             uint8
	MaxZoom             uint8
	MinLonE7            int32
	MinLatE7            int32
	MaxLonE7            int32
	MaxLatE7            int32
	CenterZoom          uint8
	CenterLonE7         int32
	CenterLatE7         int32
}

// DecodeHeader parses the first HeaderLength bytes of an archive.
//
// Only the version byte is validated; bad offsets surface later as fetch
// or directory decode failures.
func DecodeHeader(d []byte) (Header, error) {
	var h Header
	if len(d) < HeaderLength {
		return h, malformed("header is %d bytes, want %d", len(d), HeaderLength)
	}
	if d[7] != SpecVersion {
		return h, &VersionError{Version: d[7]}
	}
	le := binary.LittleEndian

	h.SpecVersion = d[7]
	h.RootOffset = le.Uint64(d[8:16])
	h.RootLength = le.Uint64(d[16:24])
	h.MetadataOffset = le.Uint64(d[24:32])
	h.MetadataLength = le.Uint64(d[32:40])
	h.LeafDirectoryOffset = le.Uint64(d[40:48])
	h.LeafDirectoryLength = le.Uint64(d[48:56])
	h.TileDataOffset = le.Uint64(d[56:64])
	h.TileDataLength = le.Uint64(d[64:72])
	h.AddressedTilesCount = le.Uint64(d[72:80])
	h.TileEntriesCount = le.Uint64(d[80:88])
	h.TileContentsCount = le.Uint64(d[88:96])

	h.Clustered = d[96] == 0x1
	h.InternalCompression = Compression(d[97])
	h.TileCompression = Compression(d[98])
	h.TileType = TileType(d[99])

	h.MinZoom = d[100]
	h.MaxZoom = d[101]
	h.MinLonE7 = int32(le.Uint32(d[102:106]))
	h.MinLatE7 = int32(le.Uint32(d[106:110]))
	h.MaxLonE7 = int32(le.Uint32(d[110:114]))
	h.MaxLatE7 = int32(le.Uint32(d[114:118]))

	h.CenterZoom = d[118]
	h.CenterLonE7 = int32(le.Uint32(d[119:123]))
	h.CenterLatE7 = int32(le.Uint32(d[123:127]))

	return h, nil
}

// MarshalBinary encodes h in the v3 layout, magic included.
func (h Header) MarshalBinary() ([]byte, error) {
	d := make([]byte, HeaderLength)
	le := binary.LittleEndian

	copy(d[0:7], headerMagic)
	d[7] = h.SpecVersion
	le.PutUint64(d[8:16], h.RootOffset)
	le.PutUint64(d[16:24], h.RootLength)
	le.PutUint64(d[24:32], h.MetadataOffset)
	le.PutUint64(d[32:40], h.MetadataLength)
	le.PutUint64(d[40:48], h.LeafDirectoryOffset)
	le.PutUint64(d[48:56], h.LeafDirectoryLength)
	le.PutUint64(d[56:64], h.TileDataOffset)
	le.PutUint64(d[64:72], h.TileDataLength)
	le.PutUint64(d[72:80], h.AddressedTilesCount)
	le.PutUint64(d[80:88], h.TileEntriesCount)
	le.PutUint64(d[88:96], h.TileContentsCount)
	if h.Clustered {
		d[96] = 0x1
	}
	d[97] = byte(h.InternalCompression)
	d[98] = byte(h.TileCompression)
	d[99] = byte(h.TileType)
	d[100] = h.MinZoom
	d[101] = h.MaxZoom
	le.PutUint32(d[102:106], uint32(h.MinLonE7))
	le.PutUint32(d[106:110], uint32(h.MinLatE7))
	le.PutUint32(d[110:114], uint32(h.MaxLonE7))
	le.PutUint32(d[114:118], uint32(h.MaxLatE7))
	d[118] = h.CenterZoom
	le.PutUint32(d[119:123], uint32(h.CenterLonE7))
	le.PutUint32(d[123:127], uint32(h.CenterLatE7))
	return d, nil
}
