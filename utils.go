package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// TileSink 瓦片保存目标
type TileSink interface {
	Save(tile Tile) error
	Close() error
}

// NewSink 按 output.format 创建保存目标
func NewSink(tm *TileMap) (TileSink, error) {
	switch conf.Output.Format {
	case "", "files":
		return &fileSink{dir: filepath.Join(conf.Output.Directory, tm.Name), tm: tm}, nil
	case "mbtiles":
		os.MkdirAll(conf.Output.Directory, os.ModePerm)
		return newMBTilesSink(filepath.Join(conf.Output.Directory, tm.Name+".mbtiles"), tm)
	default:
		return nil, fmt.Errorf("unknown output format %q", conf.Output.Format)
	}
}

type fileSink struct {
	dir string
	tm  *TileMap
}

func (s *fileSink) Save(tile Tile) error {
	fileName := filepath.Join(s.dir, filepath.FromSlash(s.tm.TilePath(tile.T)))
	if err := os.MkdirAll(filepath.Dir(fileName), os.ModePerm); err != nil {
		return err
	}
	return os.WriteFile(fileName, tile.C, 0o644)
}

func (s *fileSink) Close() error { return nil }

func loadCollection(path string) (orb.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("unable to read file: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("unable to unmarshal feature: %w", err)
	}

	var collection orb.Collection
	for _, f := range fc.Features {
		collection = append(collection, f.Geometry)
	}

	return collection, nil
}

// boundCollection 以范围作为下载区域
func boundCollection(b orb.Bound) orb.Collection {
	ring := orb.Ring{
		{b.Min[0], b.Min[1]},
		{b.Max[0], b.Min[1]},
		{b.Max[0], b.Max[1]},
		{b.Min[0], b.Max[1]},
		{b.Min[0], b.Min[1]},
	}
	return orb.Collection{orb.Polygon{ring}}
}
