package pmtiles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{
		SpecVersion:         3,
		RootOffset:          127,
		RootLength:          250,
		MetadataOffset:      377,
		MetadataLength:      1024,
		LeafDirectoryOffset: 1401,
		LeafDirectoryLength: 300,
		TileDataOffset:      1701,
		TileDataLength:      1 << 33,
		AddressedTilesCount: 90,
		TileEntriesCount:    60,
		TileContentsCount:   55,
		Clustered:           true,
		InternalCompression: CompressionGzip,
		TileCompression:     CompressionGzip,
		TileType:            TileTypeMVT,
		MinZoom:             0,
		MaxZoom:             14,
		MinLonE7:            111540260,
		MinLatE7:            437270125,
		MaxLonE7:            113289395,
		MaxLatE7:            438325455,
		CenterZoom:          0,
		CenterLonE7:         -1182606900,
		CenterLatE7:         -365930100,
	}
	b, err := h.MarshalBinary()
	require.NoError(t, err)
	require.Len(t, b, HeaderLength)
	assert.Equal(t, "PMTiles", string(b[:7]))

	got, err := DecodeHeader(b)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestDecodeHeaderVersion(t *testing.T) {
	for _, v := range []uint8{0, 1, 2, 4, 255} {
		b, err := Header{SpecVersion: v}.MarshalBinary()
		require.NoError(t, err)

		_, err = DecodeHeader(b)
		require.ErrorIs(t, err, ErrUnsupportedVersion)
		var verr *VersionError
		require.ErrorAs(t, err, &verr)
		assert.Equal(t, v, verr.Version)
		assert.Contains(t, err.Error(), "unsupported spec version")
	}
}

func TestDecodeHeaderShort(t *testing.T) {
	b, err := Header{SpecVersion: 3}.MarshalBinary()
	require.NoError(t, err)
	_, err = DecodeHeader(b[:HeaderLength-1])
	assert.ErrorIs(t, err, ErrMalformedArchive)
}

func TestDecodeHeaderIgnoresMagic(t *testing.T) {
	b, err := Header{SpecVersion: 3, MaxZoom: 9}.MarshalBinary()
	require.NoError(t, err)
	copy(b, "XXXXXXX")
	h, err := DecodeHeader(b)
	require.NoError(t, err)
	assert.Equal(t, uint8(9), h.MaxZoom)
}
