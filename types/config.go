// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

import (
	"io/ioutil"

	tml "github.com/BurntSushi/toml"
)

// Config 引擎全局配置，feeBps在创建对局时写入对局记录，之后不可变
type Config struct {
	Title  string  `toml:"title,omitempty"`
	Log    *Log    `toml:"log,omitempty"`
	Flip   *Flip   `toml:"flip,omitempty"`
	Store  *Store  `toml:"store,omitempty"`
	Client *Client `toml:"client,omitempty"`
}

// Log 日志配置
type Log struct {
	Loglevel        string `toml:"loglevel,omitempty"`
	LogConsoleLevel string `toml:"logConsoleLevel,omitempty"`
	LogFile         string `toml:"logFile,omitempty"`
	MaxFileSize     uint32 `toml:"maxFileSize,omitempty"`
	MaxBackups      uint32 `toml:"maxBackups,omitempty"`
	MaxAge          uint32 `toml:"maxAge,omitempty"`
	LocalTime       bool   `toml:"localTime,omitempty"`
	Compress        bool   `toml:"compress,omitempty"`
	CallerFile      bool   `toml:"callerFile,omitempty"`
	CallerFunction  bool   `toml:"callerFunction,omitempty"`
}

// Flip 对局规则配置
type Flip struct {
	FeeBps        int32  `toml:"feeBps,omitempty"`
	MinBet        int64  `toml:"minBet,omitempty"`
	MaxBet        int64  `toml:"maxBet,omitempty"`
	HouseAddr     string `toml:"houseAddr,omitempty"`
	JoinTimeout   int64  `toml:"joinTimeout,omitempty"`   //秒，等待对手
	CommitTimeout int64  `toml:"commitTimeout,omitempty"` //秒，等待承诺
	RevealTimeout int64  `toml:"revealTimeout,omitempty"` //秒，等待揭示
}

// Store 存储配置
type Store struct {
	Driver  string `toml:"driver,omitempty"`
	DbPath  string `toml:"dbPath,omitempty"`
	DbCache int32  `toml:"dbCache,omitempty"`
}

// Client 调和层配置
type Client struct {
	CacheSize         int32 `toml:"cacheSize,omitempty"`
	BackgroundWindow  int64 `toml:"backgroundWindow,omitempty"`  //毫秒
	InteractiveWindow int64 `toml:"interactiveWindow,omitempty"` //毫秒
	RetryLimit        int32 `toml:"retryLimit,omitempty"`
	RetryBaseInterval int64 `toml:"retryBaseInterval,omitempty"` //毫秒
	RetryMaxInterval  int64 `toml:"retryMaxInterval,omitempty"`  //毫秒
	SubmitTimeout     int64 `toml:"submitTimeout,omitempty"`     //毫秒
}

// InitCfg 从配置文件初始化
func InitCfg(path string) (*Config, error) {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return nil, ErrInvalidParam
	}
	return InitCfgString(string(data))
}

// InitCfgString 从配置字符串初始化
func InitCfgString(cfgstring string) (*Config, error) {
	var cfg Config
	if _, err := tml.Decode(cfgstring, &cfg); err != nil {
		return nil, ErrInvalidParam
	}
	fillDefaults(&cfg)
	if err := checkConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfig 全部取默认值的配置
func DefaultConfig() *Config {
	cfg := &Config{}
	fillDefaults(cfg)
	return cfg
}

func fillDefaults(cfg *Config) {
	if cfg.Title == "" {
		cfg.Title = "coinflip"
	}
	if cfg.Log == nil {
		cfg.Log = &Log{}
	}
	if cfg.Log.Loglevel == "" {
		cfg.Log.Loglevel = "info"
	}
	if cfg.Log.LogConsoleLevel == "" {
		cfg.Log.LogConsoleLevel = "info"
	}
	if cfg.Flip == nil {
		cfg.Flip = &Flip{}
	}
	if cfg.Flip.FeeBps == 0 {
		cfg.Flip.FeeBps = DefaultFeeBps
	}
	if cfg.Flip.MinBet == 0 {
		cfg.Flip.MinBet = DefaultMinBet
	}
	if cfg.Flip.MaxBet == 0 {
		cfg.Flip.MaxBet = DefaultMaxBet
	}
	if cfg.Flip.HouseAddr == "" {
		cfg.Flip.HouseAddr = "coinflip-house"
	}
	if cfg.Flip.JoinTimeout == 0 {
		cfg.Flip.JoinTimeout = 7200
	}
	if cfg.Flip.CommitTimeout == 0 {
		cfg.Flip.CommitTimeout = 600
	}
	if cfg.Flip.RevealTimeout == 0 {
		cfg.Flip.RevealTimeout = 600
	}
	if cfg.Store == nil {
		cfg.Store = &Store{}
	}
	if cfg.Store.Driver == "" {
		cfg.Store.Driver = "memdb"
	}
	if cfg.Store.DbPath == "" {
		cfg.Store.DbPath = "datadir"
	}
	if cfg.Store.DbCache == 0 {
		cfg.Store.DbCache = 64
	}
	if cfg.Client == nil {
		cfg.Client = &Client{}
	}
	if cfg.Client.CacheSize == 0 {
		cfg.Client.CacheSize = 1024
	}
	if cfg.Client.BackgroundWindow == 0 {
		cfg.Client.BackgroundWindow = 30000
	}
	if cfg.Client.InteractiveWindow == 0 {
		cfg.Client.InteractiveWindow = 2000
	}
	if cfg.Client.RetryLimit == 0 {
		cfg.Client.RetryLimit = 5
	}
	if cfg.Client.RetryBaseInterval == 0 {
		cfg.Client.RetryBaseInterval = 100
	}
	if cfg.Client.RetryMaxInterval == 0 {
		cfg.Client.RetryMaxInterval = 5000
	}
	if cfg.Client.SubmitTimeout == 0 {
		cfg.Client.SubmitTimeout = 15000
	}
}

func checkConfig(cfg *Config) error {
	if cfg.Flip.FeeBps < 0 || cfg.Flip.FeeBps > MaxFeeBps {
		return ErrFeeBpsTooHigh
	}
	if cfg.Flip.MinBet <= 0 || cfg.Flip.MaxBet < cfg.Flip.MinBet {
		return ErrAmount
	}
	return nil
}
