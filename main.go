// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/33cn/coinflip/cli"
	"github.com/33cn/coinflip/client"
	dbm "github.com/33cn/coinflip/common/db"
	clog "github.com/33cn/coinflip/common/log"
	"github.com/33cn/coinflip/engine"
	"github.com/33cn/coinflip/history"
	"github.com/33cn/coinflip/queue"
	"github.com/33cn/coinflip/types"
	log "github.com/inconshreveable/log15"
)

var configPath = flag.String("f", "", "configuration file")

func main() {
	flag.Parse()

	cfg := types.DefaultConfig()
	if *configPath != "" {
		var err error
		cfg, err = types.InitCfg(*configPath)
		if err != nil {
			fmt.Fprintln(os.Stderr, "load config:", err)
			os.Exit(1)
		}
	}
	clog.SetFileLog(cfg.Log)

	storedb := dbm.NewDB("coinflip", cfg.Store.Driver, cfg.Store.DbPath, int(cfg.Store.DbCache))
	defer storedb.Close()

	q := queue.New()
	e := engine.New(cfg.Flip, storedb, q)

	hist := history.New(storedb)
	hist.Start(q.Sub(engine.FlipTopic))
	//退出时先关队列，历史消费完剩余事件后才能退出
	defer hist.Wait()
	defer q.Close()

	c, err := client.New(cfg.Client, client.NewEngineUpstream(e))
	if err != nil {
		fmt.Fprintln(os.Stderr, "init client:", err)
		os.Exit(1)
	}

	log.Info("coinflip start", "title", cfg.Title, "store", cfg.Store.Driver)
	rootCmd := cli.New(&cli.Env{Cfg: cfg, Engine: e, Client: c})
	rootCmd.SetArgs(flag.Args())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
