package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"pmtiler/store"
)

var conf *Conf

type Conf struct {
	App struct {
		Version string `toml:"version"`
		Title   string `toml:"title"`
	} `toml:"app"`
	Output struct {
		Directory      string `toml:"directory"`
		Format         string `toml:"format"`
		Pattern        string `toml:"pattern"`
		LogDir         string `toml:"logDir"`
		OutputTerminal bool   `toml:"outputTerminal"`
	} `toml:"output"`
	Task struct {
		Workers   int `toml:"workers"`
		Savepipe  int `toml:"savepipe"`
		Timedelay int `toml:"timedelay"`
		BufSize   int `toml:"bufSize"`
	} `toml:"task"`
	BreakPoint struct {
		SaveFilePath string `toml:"saveFilePath"`
	} `toml:"breakPoint"`
	Source struct {
		Name string `toml:"name"`
		URL  string `toml:"url"`
		Min  int    `toml:"min"`
		Max  int    `toml:"max"`
	} `toml:"source"`
	S3 struct {
		Endpoint  string `toml:"endpoint"`
		Region    string `toml:"region"`
		AccessKey string `toml:"accessKey"`
		SecretKey string `toml:"secretKey"`
		UseSSL    bool   `toml:"useSSL"`
	} `toml:"s3"`
	HTTP struct {
		Timeout int `toml:"timeout"`
	} `toml:"http"`
	Lrs []struct {
		Min     int    `toml:"min"`
		Max     int    `toml:"max"`
		Geojson string `toml:"geojson"`
	} `toml:"lrs"`
}

// StoreOptions 存储后端配置
func (c *Conf) StoreOptions() store.Options {
	return store.Options{
		HTTPTimeout: time.Duration(c.HTTP.Timeout) * time.Second,
		S3Endpoint:  c.S3.Endpoint,
		S3Region:    c.S3.Region,
		S3AccessKey: c.S3.AccessKey,
		S3SecretKey: c.S3.SecretKey,
		S3UseSSL:    c.S3.UseSSL,
	}
}

// InitConf 初始化配置, 命令行指定了归档地址时配置文件可以缺省
func InitConf(cfgFile string) {
	if cfgFile == "" {
		cfgFile = "conf.toml"
	}
	viper.SetConfigType("toml")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match
	if _, err := os.Stat(cfgFile); os.IsNotExist(err) {
		if archiveURL == "" {
			fmt.Fprintf(os.Stderr, "config file(%s) not exist\n", cfgFile)
			os.Exit(1)
		}
	} else {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "read config file(%s) error, details: %s\n", viper.ConfigFileUsed(), err)
		}
	}
	setDefaults()

	if err := viper.Unmarshal(&conf); err != nil {
		fmt.Fprintf(os.Stderr, "配置文件解析失败: %s\n", err)
		os.Exit(1)
	}
	if archiveURL != "" {
		conf.Source.URL = archiveURL
	}
}

func setDefaults() {
	viper.SetDefault("app.version", "v 0.2.0")
	viper.SetDefault("app.title", "PMTiles Tiler")
	viper.SetDefault("output.format", "files")
	viper.SetDefault("output.directory", "output")
	viper.SetDefault("output.pattern", "{z}/{x}/{y}.{ext}")
	viper.SetDefault("output.outputTerminal", true)
	viper.SetDefault("task.workers", 4)
	viper.SetDefault("task.savepipe", 1)
	viper.SetDefault("task.timedelay", 0)
	viper.SetDefault("task.bufSize", 64)
	viper.SetDefault("breakPoint.saveFilePath", "breakpoint")
	viper.SetDefault("source.min", -1)
	viper.SetDefault("source.max", -1)
	viper.SetDefault("http.timeout", 30)
	viper.SetDefault("s3.useSSL", true)
}
