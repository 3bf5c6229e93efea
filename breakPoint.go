package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/paulmach/orb/maptile"
)

var BreakPointInst *BreakPoint

// InitBreakPoint 打开断点文件并开始记录
func InitBreakPoint(name string) {
	bp, err := NewBreakPoint(conf.BreakPoint.SaveFilePath, name, conf.Task.Workers)
	if err != nil {
		log.Fatalf("break point file open is error, details: %s", err)
	}
	BreakPointInst = bp
	SafeExitInst.Register(BreakPointInst.BreakPointSafeFun)
}

// NewBreakPoint 断点记录保存在 dir/name.log
func NewBreakPoint(dir, name string, buf int) (*BreakPoint, error) {
	os.MkdirAll(dir, os.ModePerm)
	filePath := filepath.Join(dir, fmt.Sprintf("%s.log", name))
	file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, err
	}

	// 获取断点记录
	successMap, err := getBreakPoint(file)
	if err != nil {
		file.Close()
		return nil, err
	}

	b := &BreakPoint{
		file:       file,
		saveChan:   make(chan maptile.Tile, buf),
		successMap: successMap,
		done:       make(chan struct{}),
	}
	// 开始断点任务
	go b.Start()
	return b, nil
}

// getBreakPoint 读取已完成的瓦片
func getBreakPoint(file *os.File) (map[string]struct{}, error) {
	res := make(map[string]struct{})

	sc := bufio.NewScanner(file)
	for sc.Scan() {
		if line := sc.Text(); line != "" {
			res[line] = struct{}{}
		}
	}
	return res, sc.Err()
}

type BreakPoint struct {
	file       *os.File
	saveChan   chan maptile.Tile
	successMap map[string]struct{}
	done       chan struct{}
	mu         sync.Mutex
	isClose    bool
}

func breakPointKey(tile maptile.Tile) string {
	return fmt.Sprintf("%d-%d-%d", tile.X, tile.Y, tile.Z)
}

// Done 已记录的瓦片数
func (b *BreakPoint) Done() int {
	if b == nil {
		return 0
	}
	return len(b.successMap)
}

func (b *BreakPoint) IsSuccessed(tile maptile.Tile) bool {
	if b == nil {
		return false
	}
	_, ok := b.successMap[breakPointKey(tile)]
	return ok
}

func (b *BreakPoint) SetSuccessed(tile maptile.Tile) {
	if b == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.isClose {
		return
	}
	b.saveChan <- tile
}

func (b *BreakPoint) Start() {
	defer close(b.done)
	for tile := range b.saveChan {
		if _, err := b.file.WriteString(breakPointKey(tile) + "\n"); err != nil {
			log.Errorf("write break point error, details: %s", err)
		}
	}
}

func (b *BreakPoint) BreakPointSafeFun() {
	b.mu.Lock()
	if b.isClose {
		b.mu.Unlock()
		return
	}
	b.isClose = true
	close(b.saveChan)
	b.mu.Unlock()

	<-b.done
	b.file.Close()
	log.Infof("断点记录任务已安全退出")
}
