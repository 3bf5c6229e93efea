package main

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb/maptile"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmtiler/internal/archivetest"
	"pmtiler/pmtiles"
)

type zxy struct {
	z    uint8
	x, y uint32
}

var worldTiles = map[zxy]string{
	{0, 0, 0}: "z0",
	{1, 0, 0}: "z1-nw",
	{1, 1, 1}: "z1-se",
	{2, 3, 3}: "z2-se",
}

func setupConf(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	log = logrus.New()
	log.SetOutput(io.Discard)
	conf = &Conf{}
	conf.Output.Directory = filepath.Join(dir, "output")
	conf.Output.Format = "files"
	conf.Output.Pattern = "{z}/{x}/{y}.{ext}"
	conf.Task.Workers = 4
	conf.Task.Savepipe = 4
	conf.Task.BufSize = 16
	conf.BreakPoint.SaveFilePath = filepath.Join(dir, "breakpoint")
	conf.Source.Min, conf.Source.Max = -1, -1
	return dir
}

func worldArchive() *archivetest.Builder {
	b := archivetest.NewBuilder()
	b.Header.TileType = pmtiles.TileTypePNG
	b.Header.MinZoom, b.Header.MaxZoom = 0, 2
	b.Header.MinLonE7, b.Header.MinLatE7 = -1799000000, -850000000
	b.Header.MaxLonE7, b.Header.MaxLatE7 = 1799000000, 850000000
	b.Header.CenterZoom = 1
	b.Metadata = []byte(`{"attribution":"test data","description":"four tiles"}`)
	for c, data := range worldTiles {
		b.AddTile(c.z, c.x, c.y, []byte(data))
	}
	return b
}

func openTestMap(t *testing.T) *TileMap {
	t.Helper()
	s := archivetest.NewStore().Put("world.pmtiles", worldArchive().Build())
	r, err := pmtiles.Open(context.Background(), "world.pmtiles", s)
	require.NoError(t, err)
	return NewTileMap("", "mem://world.pmtiles", r)
}

func TestNewTileMap(t *testing.T) {
	setupConf(t)
	tm := openTestMap(t)
	assert.Equal(t, "world", tm.Name)
	assert.Equal(t, PNG, tm.Format)
	assert.Equal(t, 0, tm.Min)
	assert.Equal(t, 2, tm.Max)
	assert.Equal(t, "2/3/1.png", tm.TilePath(maptile.New(3, 1, 2)))

	lo, hi := tm.ClampZoom(-3, 10)
	assert.Equal(t, [2]int{0, 2}, [2]int{lo, hi})

	conf.Source.Min, conf.Source.Max = 1, 1
	tm = openTestMap(t)
	assert.Equal(t, 1, tm.Min)
	assert.Equal(t, 1, tm.Max)
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, PBF, formatOf(pmtiles.TileTypeMVT))
	assert.Equal(t, JPG, formatOf(pmtiles.TileTypeJPEG))
	assert.Equal(t, WEBP, formatOf(pmtiles.TileTypeWEBP))
	assert.Equal(t, AVIF, formatOf(pmtiles.TileTypeAVIF))
	assert.Equal(t, BIN, formatOf(pmtiles.TileTypeUnknown))
}

func runTask(t *testing.T, tm *TileMap, sink TileSink, bp *BreakPoint) *Task {
	t.Helper()
	layers, err := BuildLayers(tm)
	require.NoError(t, err)
	require.Len(t, layers, 3)
	task := NewTask(layers, tm, sink, bp)
	require.NotNil(t, task)
	task.Download(context.Background())
	require.NoError(t, sink.Close())
	return task
}

func TestTaskDownloadFiles(t *testing.T) {
	setupConf(t)
	tm := openTestMap(t)
	sink, err := NewSink(tm)
	require.NoError(t, err)

	task := runTask(t, tm, sink, nil)
	assert.Equal(t, int64(len(worldTiles)), task.Current)
	assert.Equal(t, task.Total-int64(len(worldTiles)), task.Missing)
	assert.Zero(t, task.Failed)

	for c, want := range worldTiles {
		p := filepath.Join(conf.Output.Directory, "world", tm.TilePath(maptile.New(c.x, c.y, maptile.Zoom(c.z))))
		got, err := os.ReadFile(p)
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
}

func TestTaskResume(t *testing.T) {
	setupConf(t)
	tm := openTestMap(t)

	bp, err := NewBreakPoint(conf.BreakPoint.SaveFilePath, tm.Name, 4)
	require.NoError(t, err)
	sink, err := NewSink(tm)
	require.NoError(t, err)
	runTask(t, tm, sink, bp)
	bp.BreakPointSafeFun()
	bp.BreakPointSafeFun()

	bp, err = NewBreakPoint(conf.BreakPoint.SaveFilePath, tm.Name, 4)
	require.NoError(t, err)
	defer bp.BreakPointSafeFun()
	assert.Equal(t, len(worldTiles), bp.Done())
	assert.True(t, bp.IsSuccessed(maptile.New(3, 3, 2)))
	assert.False(t, bp.IsSuccessed(maptile.New(0, 0, 2)))

	sink, err = NewSink(tm)
	require.NoError(t, err)
	task := runTask(t, tm, sink, bp)
	assert.Equal(t, int64(len(worldTiles)), task.Skipped)
	assert.Zero(t, task.Current)
}

func TestTaskCanceled(t *testing.T) {
	setupConf(t)
	tm := openTestMap(t)
	sink, err := NewSink(tm)
	require.NoError(t, err)
	layers, err := BuildLayers(tm)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	task := NewTask(layers, tm, sink, nil)
	task.Download(ctx)
	assert.Zero(t, task.Current)
}

func TestMBTilesSink(t *testing.T) {
	setupConf(t)
	conf.Output.Format = "mbtiles"
	tm := openTestMap(t)
	sink, err := NewSink(tm)
	require.NoError(t, err)
	runTask(t, tm, sink, nil)

	db, err := sql.Open("sqlite3", filepath.Join(conf.Output.Directory, "world.mbtiles"))
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM tiles").Scan(&n))
	assert.Equal(t, len(worldTiles), n)

	// XYZ 2/3/3 is TMS row 0.
	var data []byte
	require.NoError(t, db.QueryRow(
		"SELECT tile_data FROM tiles WHERE zoom_level = 2 AND tile_column = 3 AND tile_row = 0").Scan(&data))
	assert.Equal(t, "z2-se", string(data))

	md := map[string]string{}
	rows, err := db.Query("SELECT name, value FROM metadata")
	require.NoError(t, err)
	defer rows.Close()
	for rows.Next() {
		var k, v string
		require.NoError(t, rows.Scan(&k, &v))
		md[k] = v
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, "world", md["name"])
	assert.Equal(t, "png", md["format"])
	assert.Equal(t, "0", md["minzoom"])
	assert.Equal(t, "2", md["maxzoom"])
	assert.Equal(t, "test data", md["attribution"])
	assert.Equal(t, "-179.900000,-85.000000,179.900000,85.000000", md["bounds"])
}

func TestMBTilesSinkReopensTx(t *testing.T) {
	setupConf(t)
	path := filepath.Join(t.TempDir(), "batch.mbtiles")
	s, err := newMBTilesSink(path, openTestMap(t))
	require.NoError(t, err)
	assert.Nil(t, s.tx, "no transaction before the first tile")

	require.NoError(t, s.Save(Tile{T: maptile.New(0, 0, 0), C: []byte("a")}))
	require.NoError(t, s.commit())
	assert.Nil(t, s.tx)
	assert.Nil(t, s.stmt)
	require.NoError(t, s.commit())

	require.NoError(t, s.Save(Tile{T: maptile.New(1, 0, 1), C: []byte("b")}))
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()
	var n int
	require.NoError(t, db.QueryRow("SELECT count(*) FROM tiles").Scan(&n))
	assert.Equal(t, 2, n)
}

func TestMBTilesSinkBeginError(t *testing.T) {
	setupConf(t)
	s, err := newMBTilesSink(filepath.Join(t.TempDir(), "closed.mbtiles"), openTestMap(t))
	require.NoError(t, err)
	require.NoError(t, s.db.Close())

	tile := Tile{T: maptile.New(0, 0, 0), C: []byte("a")}
	assert.Error(t, s.Save(tile))
	assert.Nil(t, s.tx)
	assert.NotPanics(t, func() { _ = s.Save(tile) })
}

func TestUnknownSink(t *testing.T) {
	setupConf(t)
	conf.Output.Format = "tar"
	_, err := NewSink(openTestMap(t))
	assert.Error(t, err)
}

func TestBuildLayersGeojson(t *testing.T) {
	setupConf(t)
	conf.Lrs = append(conf.Lrs, struct {
		Min     int    `toml:"min"`
		Max     int    `toml:"max"`
		Geojson string `toml:"geojson"`
	}{Min: 1, Max: 8, Geojson: "conf/firenze.geojson"})
	tm := openTestMap(t)

	layers, err := BuildLayers(tm)
	require.NoError(t, err)
	require.Len(t, layers, 2)
	assert.Equal(t, 1, layers[0].Zoom)
	assert.Equal(t, 2, layers[1].Zoom)

	conf.Lrs[0].Geojson = "conf/missing.geojson"
	_, err = BuildLayers(tm)
	assert.Error(t, err)
}

func TestPrintInfo(t *testing.T) {
	setupConf(t)
	var buf bytes.Buffer
	require.NoError(t, PrintInfo(context.Background(), openTestMap(t), &buf))
	out := buf.String()
	assert.Contains(t, out, "tile type:            png (vector: false)")
	assert.Contains(t, out, "zoom:                 0-2")
	assert.Contains(t, out, `"attribution": "test data"`)
}

func TestSafeExit(t *testing.T) {
	var order []int
	s := &SafeExit{cancel: func() {}}
	s.Register(func() { order = append(order, 1) })
	s.Register(func() { order = append(order, 2) })
	s.Close()
	s.Close()
	assert.Equal(t, []int{2, 1}, order)
}
