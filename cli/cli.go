// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cli 命令行入口，所有子命令通过调和层访问引擎
package cli

import (
	"encoding/json"
	"fmt"

	"github.com/33cn/coinflip/client"
	"github.com/33cn/coinflip/engine"
	"github.com/33cn/coinflip/types"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// Env 子命令共享的运行环境
type Env struct {
	Cfg    *types.Config
	Engine *engine.Engine
	Client *client.Client
}

// New 组装命令树
func New(env *Env) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "coinflip-cli",
		Short: "coinflip client tools",
		Args:  cobra.MinimumNArgs(1),
	}
	rootCmd.AddCommand(
		CreateGameCmd(env),
		JoinGameCmd(env),
		CommitCmd(env),
		RevealCmd(env),
		ResolveCmd(env),
		ClaimCmd(env),
		CancelCmd(env),
		QueryCmd(env),
		AccountCmd(env),
	)
	return rootCmd
}

// parseCoinAmount 把"1.5"这样的币数量换算成基础单位，
// 不能整除基础单位的输入直接拒绝
func parseCoinAmount(s string) (int64, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, types.ErrAmount
	}
	v := d.Mul(decimal.New(types.Coin, 0))
	if !v.IsInteger() {
		return 0, types.ErrAmount
	}
	amount := v.IntPart()
	if !types.CheckAmount(amount) {
		return 0, types.ErrAmount
	}
	return amount, nil
}

func formatCoinAmount(amount int64) string {
	return decimal.New(amount, 0).Div(decimal.New(types.Coin, 0)).String()
}

func output(data interface{}) {
	buf, err := json.MarshalIndent(data, "", "    ")
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(string(buf))
}
