// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"github.com/spf13/cobra"
)

// AccountCmd 账户类命令
func AccountCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Account balance operations",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.AddCommand(
		balanceCmd(env),
		depositCmd(env),
	)
	return cmd
}

func balanceCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "balance",
		Short: "Show balance and frozen funds of an address",
		Run: func(cmd *cobra.Command, args []string) {
			addr, _ := cmd.Flags().GetString("addr")
			acc := env.Engine.Account().LoadAccount(addr)
			output(struct {
				Addr    string `json:"addr"`
				Balance string `json:"balance"`
				Frozen  string `json:"frozen"`
			}{addr, formatCoinAmount(acc.GetBalance()), formatCoinAmount(acc.GetFrozen())})
		},
	}
	cmd.Flags().StringP("addr", "a", "", "account address")
	cmd.MarkFlagRequired("addr")
	return cmd
}

func depositCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deposit",
		Short: "Credit coins to an address",
		Run: func(cmd *cobra.Command, args []string) {
			addr, _ := cmd.Flags().GetString("addr")
			amountStr, _ := cmd.Flags().GetString("amount")
			amount, err := parseCoinAmount(amountStr)
			if err != nil {
				fatal(err)
			}
			if err := env.Engine.Account().Deposit(addr, amount); err != nil {
				fatal(err)
			}
			acc := env.Engine.Account().LoadAccount(addr)
			output(struct {
				Addr    string `json:"addr"`
				Balance string `json:"balance"`
			}{addr, formatCoinAmount(acc.GetBalance())})
		},
	}
	cmd.Flags().StringP("addr", "a", "", "account address")
	cmd.MarkFlagRequired("addr")
	cmd.Flags().StringP("amount", "m", "", "amount in coins")
	cmd.MarkFlagRequired("amount")
	return cmd
}
