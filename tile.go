package main

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"pmtiler/pmtiles"
)

// Tile 自定义瓦片存储
type Tile struct {
	T maptile.Tile
	C []byte
}

// Layer 级别&瓦片数
type Layer struct {
	Zoom       int
	Count      int64
	Collection orb.Collection
}

// Constants representing tile file formats
const (
	PNG  = "png"
	JPG  = "jpg"
	PBF  = "pbf"
	WEBP = "webp"
	AVIF = "avif"
	BIN  = "bin"
)

// formatOf 瓦片类型对应的文件格式
func formatOf(t pmtiles.TileType) string {
	switch t {
	case pmtiles.TileTypeMVT:
		return PBF
	case pmtiles.TileTypePNG:
		return PNG
	case pmtiles.TileTypeJPEG:
		return JPG
	case pmtiles.TileTypeWEBP:
		return WEBP
	case pmtiles.TileTypeAVIF:
		return AVIF
	default:
		return BIN
	}
}
