package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"

	"pmtiler/pmtiles"
	"pmtiler/store"
)

// TileMap 已打开的瓦片归档
type TileMap struct {
	Name    string
	URL     string
	Min     int
	Max     int
	Format  string
	Pattern string
	Reader  *pmtiles.Reader
}

// OpenTileMap 按配置打开归档, 级别范围裁剪到归档内
func OpenTileMap(ctx context.Context) (*TileMap, error) {
	st, path, err := store.Open(conf.Source.URL, conf.StoreOptions())
	if err != nil {
		return nil, err
	}
	reader, err := pmtiles.Open(ctx, path, st, pmtiles.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", conf.Source.URL, err)
	}
	return NewTileMap(conf.Source.Name, conf.Source.URL, reader), nil
}

// NewTileMap 以归档头信息初始化, 配置中的 min/max 为负时取归档的级别
func NewTileMap(name, url string, reader *pmtiles.Reader) *TileMap {
	if name == "" {
		name = strings.TrimSuffix(reader.Path()[strings.LastIndex(reader.Path(), "/")+1:], ".pmtiles")
	}
	m := &TileMap{
		Name:    name,
		URL:     url,
		Min:     int(reader.MinZoom()),
		Max:     int(reader.MaxZoom()),
		Format:  formatOf(reader.TileType()),
		Pattern: conf.Output.Pattern,
		Reader:  reader,
	}
	if conf.Source.Min >= 0 && conf.Source.Min > m.Min {
		m.Min = conf.Source.Min
	}
	if conf.Source.Max >= 0 && conf.Source.Max < m.Max {
		m.Max = conf.Source.Max
	}
	return m
}

// Bound 归档范围
func (m *TileMap) Bound() orb.Bound {
	return m.Reader.Bounds()
}

// TilePath 按模板生成瓦片的相对路径
func (m *TileMap) TilePath(t maptile.Tile) string {
	p := strings.Replace(m.Pattern, "{x}", strconv.Itoa(int(t.X)), -1)
	p = strings.Replace(p, "{y}", strconv.Itoa(int(t.Y)), -1)
	p = strings.Replace(p, "{z}", strconv.Itoa(int(t.Z)), -1)
	p = strings.Replace(p, "{ext}", m.Format, -1)
	return p
}

// ClampZoom 把图层级别裁剪到 [Min, Max]
func (m *TileMap) ClampZoom(lo, hi int) (int, int) {
	if lo < m.Min {
		lo = m.Min
	}
	if hi > m.Max {
		hi = m.Max
	}
	return lo, hi
}
