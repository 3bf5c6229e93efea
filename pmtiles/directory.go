package pmtiles

import (
	"encoding/binary"
	"math"
)

// Entry is one directory record. RunLength 0 marks a pointer to a leaf
// directory (Offset relative to the leaf directory region); otherwise the
// entry covers ids [TileID, TileID+RunLength) whose payload sits at Offset
// relative to the tile data region.
type Entry struct {
	TileID    uint64
	RunLength uint32
	Offset    uint64
	Length    uint32
}

// IsLeaf reports whether e points at another directory.
func (e Entry) IsLeaf() bool {
	return e.RunLength == 0
}

type varintReader struct {
	buf []byte
	pos int
}

func (r *varintReader) next(field string, i uint64) (uint64, error) {
	v, n := binary.Uvarint(r.buf[r.pos:])
	if n <= 0 {
		return 0, malformed("directory %s %d: bad varint at byte %d", field, i, r.pos)
	}
	r.pos += n
	return v, nil
}

// DecodeDirectory decodes an uncompressed directory block. The entry count is
// followed by four columns of varints: tile id deltas, run lengths, lengths and
// offsets, where an offset of 0 continues from the previous entry and any other
// value is the offset plus one.
func DecodeDirectory(b []byte) ([]Entry, error) {
	r := &varintReader{buf: b}
	count, err := r.next("count", 0)
	if err != nil {
		return nil, err
	}
	// Each entry takes at least one byte per column.
	if count > uint64(len(b)-r.pos)/4 {
		return nil, malformed("directory declares %d entries in %d bytes", count, len(b))
	}
	entries := make([]Entry, count)

	var lastID uint64
	for i := uint64(0); i < count; i++ {
		delta, err := r.next("tile id", i)
		if err != nil {
			return nil, err
		}
		if i > 0 && delta == 0 {
			return nil, malformed("directory tile id %d repeats %d", i, lastID)
		}
		if lastID > math.MaxUint64-delta {
			return nil, malformed("directory tile id %d overflows", i)
		}
		lastID += delta
		entries[i].TileID = lastID
	}
	for i := uint64(0); i < count; i++ {
		v, err := r.next("run length", i)
		if err != nil {
			return nil, err
		}
		if v > math.MaxUint32 {
			return nil, malformed("directory run length %d out of range", i)
		}
		entries[i].RunLength = uint32(v)
	}
	for i := uint64(0); i < count; i++ {
		v, err := r.next("length", i)
		if err != nil {
			return nil, err
		}
		if v > math.MaxUint32 {
			return nil, malformed("directory length %d out of range", i)
		}
		entries[i].Length = uint32(v)
	}
	for i := uint64(0); i < count; i++ {
		v, err := r.next("offset", i)
		if err != nil {
			return nil, err
		}
		switch {
		case v != 0:
			entries[i].Offset = v - 1
		case i > 0:
			prev := entries[i-1]
			entries[i].Offset = prev.Offset + uint64(prev.Length)
		default:
			return nil, malformed("directory offset 0 has no previous entry")
		}
	}
	if r.pos != len(b) {
		return nil, malformed("directory has %d trailing bytes after %d entries", len(b)-r.pos, count)
	}
	return entries, nil
}

// EncodeDirectory is the inverse of DecodeDirectory. Entries must be sorted
// by strictly increasing TileID.
func EncodeDirectory(entries []Entry) []byte {
	buf := make([]byte, 0, 1+len(entries)*8)
	buf = binary.AppendUvarint(buf, uint64(len(entries)))

	var lastID uint64
	for _, e := range entries {
		buf = binary.AppendUvarint(buf, e.TileID-lastID)
		lastID = e.TileID
	}
	for _, e := range entries {
		buf = binary.AppendUvarint(buf, uint64(e.RunLength))
	}
	for _, e := range entries {
		buf = binary.AppendUvarint(buf, uint64(e.Length))
	}
	for i, e := range entries {
		if i > 0 && e.Offset == entries[i-1].Offset+uint64(entries[i-1].Length) {
			buf = binary.AppendUvarint(buf, 0)
			continue
		}
		buf = binary.AppendUvarint(buf, e.Offset+1)
	}
	return buf
}
