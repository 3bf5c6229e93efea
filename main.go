package main

import (
	"os"
)

func main() {
	// 初始化控制台
	InitFlag()
	// 初始化配置
	InitConf(configPath)
	// 开始安全退出任务
	ctx := InitSafeExit()
	// 初始化日志
	InitLog()
	defer SafeExitInst.Close()

	// 打开归档
	tm, err := OpenTileMap(ctx)
	if err != nil {
		log.Errorf("open archive error, details: %s", err)
		SafeExitInst.Close()
		os.Exit(1)
	}
	if infoOnly {
		if err := PrintInfo(ctx, tm, os.Stdout); err != nil {
			log.Errorf("read archive info error, details: %s", err)
			SafeExitInst.Close()
			os.Exit(1)
		}
		return
	}
	// 初始化断点
	InitBreakPoint(tm.Name)
	// 开始任务
	if err := InitTask(ctx, tm); err != nil {
		log.Errorf("task error, details: %s", err)
		SafeExitInst.Close()
		os.Exit(1)
	}
}
