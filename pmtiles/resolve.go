package pmtiles

import (
	"sort"
)

// MaxDepth bounds the number of directories read for one tile lookup.
const MaxDepth = 4

// Outcome is the kind of a Resolution.
type Outcome int

const (
	// Miss means no entry covers the tile id.
	Miss Outcome = iota
	// Hit carries the tile payload range relative to the tile data region.
	Hit
	// Redirect carries the next directory range relative to the leaf directory region.
	Redirect
)

func (o Outcome) String() string {
	switch o {
	case Hit:
		return "hit"
	case Redirect:
		return "redirect"
	default:
		return "miss"
	}
}

// Resolution is the result of looking a tile id up in one directory.
type Resolution struct {
	Outcome Outcome
	Offset  uint64
	Length  uint32
}

// FindTile returns the entry covering id. Entries must be sorted by TileID,
// which DecodeDirectory guarantees.
//
// A data entry covers [TileID, TileID+RunLength). A leaf pointer covers every
// id from its TileID up to the next entry, since leaves are keyed by their
// first tile id.
func FindTile(entries []Entry, id uint64) (Entry, bool) {
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].TileID > id
	}) - 1
	if i < 0 {
		return Entry{}, false
	}
	e := entries[i]
	if e.RunLength == 0 {
		return e, true
	}
	if id-e.TileID < uint64(e.RunLength) {
		return e, true
	}
	return Entry{}, false
}

// Resolve looks id up in a decoded directory.
func Resolve(entries []Entry, id uint64) Resolution {
	e, ok := FindTile(entries, id)
	switch {
	case !ok:
		return Resolution{Outcome: Miss}
	case e.IsLeaf():
		return Resolution{Outcome: Redirect, Offset: e.Offset, Length: e.Length}
	default:
		return Resolution{Outcome: Hit, Offset: e.Offset, Length: e.Length}
	}
}
