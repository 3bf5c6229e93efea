package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var SafeExitInst *SafeExit

// InitSafeExit 监听系统信号, 返回的 context 在第一次收到信号时取消
func InitSafeExit() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	SafeExitInst = &SafeExit{cancel: cancel}
	go SafeExitInst.ListenSignal()
	return ctx
}

type SafeExit struct {
	funcs  []func()
	mu     sync.Mutex
	once   sync.Once
	cancel context.CancelFunc
}

// Register 注册退出时执行的清理函数, 按注册的逆序执行
func (s *SafeExit) Register(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.funcs = append(s.funcs, f)
}

// Close 执行清理函数, 只执行一次
func (s *SafeExit) Close() {
	s.once.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()

		for i := len(s.funcs) - 1; i >= 0; i-- {
			s.funcs[i]()
		}
	})
}

func (s *SafeExit) ListenSignal() {
	sigs := make(chan os.Signal, 2)
	signal.Notify(sigs, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	stopping := false
	for sig := range sigs {
		if !stopping {
			stopping = true
			fmt.Fprintf(os.Stderr, "收到系统信号 %s, 正在停止任务, 请稍后\n", sig)
			s.cancel()
			continue
		}
		// 第二次信号强制退出
		s.Close()
		os.Exit(1)
	}
}
