package main

import (
	"context"
	"database/sql"
	"fmt"

	jsoniter "github.com/json-iterator/go"
	_ "github.com/mattn/go-sqlite3"
)

// mbtilesBatch 每个事务写入的瓦片数
const mbtilesBatch = 1000

var mbtilesSchema = []string{
	"CREATE TABLE IF NOT EXISTS metadata (name text, value text)",
	"CREATE UNIQUE INDEX IF NOT EXISTS name ON metadata (name)",
	"CREATE TABLE IF NOT EXISTS tiles (zoom_level integer, tile_column integer, tile_row integer, tile_data blob)",
	"CREATE UNIQUE INDEX IF NOT EXISTS tile_index ON tiles (zoom_level, tile_column, tile_row)",
}

type mbtilesSink struct {
	db    *sql.DB
	tx    *sql.Tx
	stmt  *sql.Stmt
	count int
}

func newMBTilesSink(path string, tm *TileMap) (*mbtilesSink, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	for _, q := range mbtilesSchema {
		if _, err := db.Exec(q); err != nil {
			db.Close()
			return nil, fmt.Errorf("create mbtiles schema: %w", err)
		}
	}
	s := &mbtilesSink{db: db}
	if err := s.writeMetadata(tm); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// writeMetadata 按 MBTiles 1.3 填写 metadata 表
func (s *mbtilesSink) writeMetadata(tm *TileMap) error {
	b := tm.Bound()
	center, zoom := tm.Reader.Center()
	rows := map[string]string{
		"name":    tm.Name,
		"format":  tm.Format,
		"bounds":  fmt.Sprintf("%f,%f,%f,%f", b.Min[0], b.Min[1], b.Max[0], b.Max[1]),
		"center":  fmt.Sprintf("%f,%f,%d", center[0], center[1], zoom),
		"minzoom": fmt.Sprint(tm.Min),
		"maxzoom": fmt.Sprint(tm.Max),
		"type":    "baselayer",
	}

	md, err := tm.Reader.Metadata(context.Background())
	if err != nil {
		log.Warnf("read archive metadata error, details: %s", err)
	}
	for _, k := range []string{"attribution", "description", "type", "version"} {
		if v, ok := md[k].(string); ok {
			rows[k] = v
		}
	}
	if layers, ok := md["vector_layers"]; ok {
		j, err := jsoniter.MarshalToString(map[string]interface{}{"vector_layers": layers})
		if err != nil {
			return err
		}
		rows["json"] = j
	}

	for k, v := range rows {
		if _, err := s.db.Exec("INSERT OR REPLACE INTO metadata (name, value) VALUES (?, ?)", k, v); err != nil {
			return fmt.Errorf("write mbtiles metadata %s: %w", k, err)
		}
	}
	return nil
}

func (s *mbtilesSink) begin() error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare("INSERT OR REPLACE INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	s.tx, s.stmt = tx, stmt
	return nil
}

// commit 提交当前事务, 之后的 Save 会重新开启事务
func (s *mbtilesSink) commit() error {
	if s.tx == nil {
		return nil
	}
	s.stmt.Close()
	err := s.tx.Commit()
	s.tx, s.stmt = nil, nil
	return err
}

// Save MBTiles 使用 TMS 行号, y 需要翻转
func (s *mbtilesSink) Save(tile Tile) error {
	if s.tx == nil {
		if err := s.begin(); err != nil {
			return err
		}
	}
	row := (uint32(1) << uint32(tile.T.Z)) - 1 - tile.T.Y
	if _, err := s.stmt.Exec(int(tile.T.Z), int(tile.T.X), int(row), tile.C); err != nil {
		return err
	}
	s.count++
	if s.count%mbtilesBatch == 0 {
		return s.commit()
	}
	return nil
}

func (s *mbtilesSink) Close() error {
	err := s.commit()
	if cerr := s.db.Close(); err == nil {
		err = cerr
	}
	return err
}
