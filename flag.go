package main

import (
	"flag"
	"fmt"
	"os"
)

var (
	hf         bool
	infoOnly   bool
	configPath string
	logLevel   string
	archiveURL string
)

func InitFlag() {
	flag.BoolVar(&hf, "h", false, "this help")
	flag.BoolVar(&infoOnly, "i", false, "print archive header and metadata, then exit")
	flag.StringVar(&configPath, "c", "./conf/conf.toml", "set config `file`")
	flag.StringVar(&logLevel, "l", "info", "set log level (default: info)")
	flag.StringVar(&archiveURL, "u", "", "archive `location`: path, http(s):// or s3://bucket/key (overrides source.url)")
	flag.Usage = usage
	flag.Parse()

	if hf {
		flag.Usage()
		os.Exit(0)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, `tiler version: tiler/v0.2.0
Usage: tiler [-h] [-i] [-c filename] [-l logLevel] [-u location]
`)
	flag.PrintDefaults()
}
