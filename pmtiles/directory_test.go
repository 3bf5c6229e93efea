package pmtiles

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func uvarints(vs ...uint64) []byte {
	var b []byte
	for _, v := range vs {
		b = binary.AppendUvarint(b, v)
	}
	return b
}

func TestDecodeDirectory(t *testing.T) {
	// 3 entries: ids 5, 6, 300; runs 1, 2, 0; lengths 10, 20, 7;
	// offsets absolute 0, contiguous, absolute 1000.
	b := uvarints(3,
		5, 1, 294,
		1, 2, 0,
		10, 20, 7,
		1, 0, 1001,
	)
	entries, err := DecodeDirectory(b)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{TileID: 5, RunLength: 1, Offset: 0, Length: 10},
		{TileID: 6, RunLength: 2, Offset: 10, Length: 20},
		{TileID: 300, RunLength: 0, Offset: 1000, Length: 7},
	}, entries)
	assert.True(t, entries[2].IsLeaf())

	// Canonical input survives a round trip byte for byte.
	assert.Equal(t, b, EncodeDirectory(entries))
}

func TestDecodeDirectoryEmpty(t *testing.T) {
	entries, err := DecodeDirectory(uvarints(0))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDirectoryRoundTrip(t *testing.T) {
	var entries []Entry
	var id, offset uint64
	for i := 0; i < 500; i++ {
		id += uint64(1 + i%7)
		e := Entry{TileID: id, RunLength: uint32(i % 3), Length: uint32(100 + i)}
		if i%5 == 0 {
			offset += 4096
		}
		e.Offset = offset
		offset += uint64(e.Length)
		entries = append(entries, e)
	}
	b := EncodeDirectory(entries)
	got, err := DecodeDirectory(b)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
	assert.Equal(t, b, EncodeDirectory(got))

	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].TileID, got[i-1].TileID)
	}
}

func TestDecodeDirectoryMalformed(t *testing.T) {
	cases := map[string][]byte{
		"empty":             nil,
		"truncated varint":  {0x80},
		"count too large":   uvarints(100, 1, 1, 1, 1),
		"missing offsets":   uvarints(2, 1, 1, 1, 1, 5, 5),
		"trailing bytes":    append(uvarints(1, 1, 1, 5, 1), 0x00),
		"duplicate tile id": uvarints(2, 4, 0, 1, 1, 5, 5, 1, 0),
		"first offset zero": uvarints(1, 0, 1, 5, 0),
		"run length range":  uvarints(1, 0, 1<<32, 5, 1),
		"length range":      uvarints(1, 0, 1, 1<<32, 1),
	}
	for name, b := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeDirectory(b)
			assert.ErrorIs(t, err, ErrMalformedArchive)
		})
	}
}
