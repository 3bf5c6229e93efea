package main

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/maptile/tilecover"
	"github.com/teris-io/shortid"
	pb "gopkg.in/cheggaaa/pb.v1"
)

func InitTask(ctx context.Context, tm *TileMap) error {
	start := time.Now()

	layers, err := BuildLayers(tm)
	if err != nil {
		return err
	}
	sink, err := NewSink(tm)
	if err != nil {
		return err
	}
	SafeExitInst.Register(func() {
		if err := sink.Close(); err != nil {
			log.Errorf("close output error, details: %s", err)
		}
	})

	task := NewTask(layers, tm, sink, BreakPointInst)
	if task == nil {
		log.Warnf("no layers to extract from %s", tm.URL)
		return nil
	}
	task.ShowBar = conf.Output.OutputTerminal
	log.Infof("task %s: %d tiles in %v", task.ID, task.Total, task.Bound())

	// 开始提取
	task.Download(ctx)

	secs := time.Since(start).Seconds()
	log.Infof("%.3fs finished, saved: %d, missing: %d, failed: %d, skipped: %d",
		secs, task.Current, task.Missing, task.Failed, task.Skipped)
	return ctx.Err()
}

// BuildLayers 按配置的区域生成图层, 未配置时使用归档范围
func BuildLayers(tm *TileMap) ([]Layer, error) {
	var layers []Layer
	if len(conf.Lrs) == 0 {
		c := boundCollection(tm.Bound())
		for z := tm.Min; z <= tm.Max; z++ {
			layers = append(layers, Layer{Zoom: z, Collection: c})
		}
		return layers, nil
	}
	for _, lrs := range conf.Lrs {
		c, err := loadCollection(lrs.Geojson)
		if err != nil {
			return nil, fmt.Errorf("layer %s: %w", lrs.Geojson, err)
		}
		lo, hi := tm.ClampZoom(lrs.Min, lrs.Max)
		for z := lo; z <= hi; z++ {
			layers = append(layers, Layer{Zoom: z, Collection: c})
		}
	}
	return layers, nil
}

// Task 提取任务
type Task struct {
	ID           string
	Name         string
	Min          int
	Max          int
	Layers       []Layer
	TileMap      *TileMap
	Total        int64
	Current      int64
	Missing      int64
	Failed       int64
	Skipped      int64
	ShowBar      bool
	sink         TileSink
	breakPoint   *BreakPoint
	workerCount  int
	savePipeSize int
	timeDelay    int
	bufSize      int
	tileWG       sync.WaitGroup
	saveWG       sync.WaitGroup
	workers      chan struct{}
	savingpipe   chan Tile
}

// NewTask 创建提取任务
func NewTask(layers []Layer, m *TileMap, sink TileSink, bp *BreakPoint) *Task {
	if len(layers) == 0 {
		return nil
	}
	id, _ := shortid.Generate()

	task := Task{
		ID:         id,
		Name:       m.Name,
		Layers:     layers,
		Min:        m.Min,
		Max:        m.Max,
		TileMap:    m,
		sink:       sink,
		breakPoint: bp,
	}

	for i := 0; i < len(layers); i++ {
		layers[i].Count = tilecover.CollectionCount(layers[i].Collection, maptile.Zoom(layers[i].Zoom))
		log.Debugf("zoom: %d, tiles: %d", layers[i].Zoom, layers[i].Count)
		task.Total += layers[i].Count
	}

	task.workerCount = conf.Task.Workers
	if task.workerCount < 1 {
		task.workerCount = 1
	}
	task.savePipeSize = conf.Task.Savepipe
	task.timeDelay = conf.Task.Timedelay
	task.bufSize = conf.Task.BufSize

	task.workers = make(chan struct{}, task.workerCount)

	return &task
}

// Bound 范围
func (task *Task) Bound() orb.Bound {
	bound := orb.Bound{Min: orb.Point{1, 1}, Max: orb.Point{-1, -1}}
	for _, layer := range task.Layers {
		for _, g := range layer.Collection {
			if bound.Min[0] > bound.Max[0] {
				bound = g.Bound()
				continue
			}
			bound = bound.Union(g.Bound())
		}
	}
	return bound
}

// Download 开启提取任务
func (task *Task) Download(ctx context.Context) {
	task.savingpipe = make(chan Tile, task.savePipeSize)
	task.saveWG.Add(1)
	go task.saveTiles()

	for _, layer := range task.Layers {
		if ctx.Err() != nil {
			log.Infof("Task %s got canceled.", task.Name)
			break
		}
		task.downloadLayer(ctx, layer)
	}

	close(task.savingpipe)
	task.saveWG.Wait()
}

// tileFetcher 瓦片加载器
func (task *Task) tileFetcher(ctx context.Context, mt maptile.Tile) {
	start := time.Now()
	//workers完成并清退
	defer func() {
		task.tileWG.Done()
		<-task.workers
	}()

	body, err := task.TileMap.Reader.Tile(ctx, mt)
	if err != nil {
		atomic.AddInt64(&task.Failed, 1)
		log.Errorf("fetch tile(z:%d, x:%d, y:%d) error, details: %s", mt.Z, mt.X, mt.Y, err)
		return
	}
	if body == nil {
		atomic.AddInt64(&task.Missing, 1)
		log.Debugf("missing tile %v ~", mt)
		return
	}

	task.savingpipe <- Tile{T: mt, C: body}

	cost := time.Since(start).Milliseconds()
	log.Debugf("tile(z:%d, x:%d, y:%d), %dms , %.2f kb", mt.Z, mt.X, mt.Y, cost, float32(len(body))/1024.0)
}

// saveTiles 单协程写出, sqlite 不支持并发写
func (task *Task) saveTiles() {
	defer task.saveWG.Done()
	for tile := range task.savingpipe {
		if err := task.sink.Save(tile); err != nil {
			atomic.AddInt64(&task.Failed, 1)
			log.Errorf("save %v tile error ~ %s", tile.T, err)
			continue
		}
		atomic.AddInt64(&task.Current, 1)
		task.breakPoint.SetSuccessed(tile.T)
	}
}

// downloadLayer 提取指定层级
func (task *Task) downloadLayer(ctx context.Context, layer Layer) {
	log.Infof("Task %s layer zoom %d starting, %d tiles", task.ID, layer.Zoom, layer.Count)
	bar := pb.New64(layer.Count).Prefix(fmt.Sprintf("Zoom %d : ", layer.Zoom))
	bar.NotPrint = !task.ShowBar
	bar.SetRefreshRate(time.Second)
	bar.Start()

	var tilelist = make(chan maptile.Tile, task.bufSize)

	go tilecover.CollectionChannel(layer.Collection, maptile.Zoom(layer.Zoom), tilelist)

loop:
	for tile := range tilelist {
		// 如果已经在成功列表里
		if task.breakPoint.IsSuccessed(tile) {
			atomic.AddInt64(&task.Skipped, 1)
			bar.Increment()
			continue
		}
		select {
		case task.workers <- struct{}{}:
			bar.Increment()
			//设置请求发送间隔时间
			time.Sleep(time.Duration(task.timeDelay) * time.Millisecond)
			task.tileWG.Add(1)
			go task.tileFetcher(ctx, tile)
		case <-ctx.Done():
			log.Infof("Task %s got canceled.", task.Name)
			// 放掉剩余瓦片, 让生产协程退出
			go func() {
				for range tilelist {
				}
			}()
			break loop
		}
	}
	//等待该层结束
	task.tileWG.Wait()
	bar.Finish()
	log.Infof("Task %s Zoom %d finished ~", task.ID, layer.Zoom)
}
