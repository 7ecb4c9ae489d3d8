// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/33cn/coinflip/common"
	"github.com/33cn/coinflip/flip"
	"github.com/33cn/coinflip/types"
	"github.com/spf13/cobra"
)

func parseChoice(s string) (types.CoinSide, error) {
	switch s {
	case "heads", "h":
		return types.Heads, nil
	case "tails", "t":
		return types.Tails, nil
	}
	return 0, types.ErrInvalidParam
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

// CreateGameCmd 创建对局
func CreateGameCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new game and escrow the stake",
		Run: func(cmd *cobra.Command, args []string) {
			player, _ := cmd.Flags().GetString("player")
			amountStr, _ := cmd.Flags().GetString("amount")
			amount, err := parseCoinAmount(amountStr)
			if err != nil {
				fatal(err)
			}
			g, err := env.Client.CreateGame(context.Background(), player, amount)
			if err != nil {
				fatal(err)
			}
			output(g)
		},
	}
	cmd.Flags().StringP("player", "p", "", "creator address")
	cmd.MarkFlagRequired("player")
	cmd.Flags().StringP("amount", "a", "", "bet amount in coins, e.g. 1.5")
	cmd.MarkFlagRequired("amount")
	return cmd
}

// JoinGameCmd 加入对局
func JoinGameCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Join an open game with a matching stake",
		Run: func(cmd *cobra.Command, args []string) {
			gameID, _ := cmd.Flags().GetString("game_id")
			player, _ := cmd.Flags().GetString("player")
			amountStr, _ := cmd.Flags().GetString("amount")
			amount, err := parseCoinAmount(amountStr)
			if err != nil {
				fatal(err)
			}
			g, err := env.Client.JoinGame(context.Background(), gameID, player, amount)
			if err != nil {
				fatal(err)
			}
			output(g)
		},
	}
	cmd.Flags().StringP("game_id", "g", "", "game id")
	cmd.MarkFlagRequired("game_id")
	cmd.Flags().StringP("player", "p", "", "joiner address")
	cmd.MarkFlagRequired("player")
	cmd.Flags().StringP("amount", "a", "", "bet amount in coins, must match the creator")
	cmd.MarkFlagRequired("amount")
	return cmd
}

// CommitCmd 生成秘密并提交承诺。
// 秘密只打印一次，揭示时需要原样带回
func CommitCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit",
		Short: "Commit to a hidden choice, prints the secret to keep for reveal",
		Run: func(cmd *cobra.Command, args []string) {
			gameID, _ := cmd.Flags().GetString("game_id")
			player, _ := cmd.Flags().GetString("player")
			choiceStr, _ := cmd.Flags().GetString("choice")
			choice, err := parseChoice(choiceStr)
			if err != nil {
				fatal(err)
			}
			secret, err := flip.GenerateSecret()
			if err != nil {
				fatal(err)
			}
			commitment := flip.Commitment(choice, secret)
			g, err := env.Client.MakeCommitment(context.Background(), gameID, player, commitment[:])
			if err != nil {
				fatal(err)
			}
			output(struct {
				Game       *types.Game `json:"game"`
				Commitment string      `json:"commitment"`
				Secret     string      `json:"secret"`
			}{g, common.ToHex(commitment[:]), strconv.FormatUint(secret, 10)})
		},
	}
	cmd.Flags().StringP("game_id", "g", "", "game id")
	cmd.MarkFlagRequired("game_id")
	cmd.Flags().StringP("player", "p", "", "player address")
	cmd.MarkFlagRequired("player")
	cmd.Flags().StringP("choice", "c", "", "heads or tails")
	cmd.MarkFlagRequired("choice")
	return cmd
}

// RevealCmd 揭示承诺
func RevealCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reveal",
		Short: "Reveal a committed choice and secret",
		Run: func(cmd *cobra.Command, args []string) {
			gameID, _ := cmd.Flags().GetString("game_id")
			player, _ := cmd.Flags().GetString("player")
			choiceStr, _ := cmd.Flags().GetString("choice")
			secretStr, _ := cmd.Flags().GetString("secret")
			choice, err := parseChoice(choiceStr)
			if err != nil {
				fatal(err)
			}
			secret, err := strconv.ParseUint(secretStr, 10, 64)
			if err != nil {
				fatal(types.ErrInvalidParam)
			}
			g, err := env.Client.RevealChoice(context.Background(), gameID, player, choice, secret)
			if err != nil {
				fatal(err)
			}
			output(g)
		},
	}
	cmd.Flags().StringP("game_id", "g", "", "game id")
	cmd.MarkFlagRequired("game_id")
	cmd.Flags().StringP("player", "p", "", "player address")
	cmd.MarkFlagRequired("player")
	cmd.Flags().StringP("choice", "c", "", "heads or tails, as committed")
	cmd.MarkFlagRequired("choice")
	cmd.Flags().StringP("secret", "s", "", "secret printed by commit")
	cmd.MarkFlagRequired("secret")
	return cmd
}

// ResolveCmd 确保对局已结算，任何人可触发
func ResolveCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Ensure a fully revealed game is resolved",
		Run: func(cmd *cobra.Command, args []string) {
			gameID, _ := cmd.Flags().GetString("game_id")
			g, err := env.Client.EnsureResolved(context.Background(), gameID)
			if err != nil {
				fatal(err)
			}
			output(g)
		},
	}
	cmd.Flags().StringP("game_id", "g", "", "game id")
	cmd.MarkFlagRequired("game_id")
	return cmd
}

// ClaimCmd 超时认领
func ClaimCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "claim",
		Short: "Claim a game whose deadline has passed",
		Run: func(cmd *cobra.Command, args []string) {
			gameID, _ := cmd.Flags().GetString("game_id")
			g, err := env.Client.ClaimTimeout(context.Background(), gameID)
			if err != nil {
				fatal(err)
			}
			output(g)
		},
	}
	cmd.Flags().StringP("game_id", "g", "", "game id")
	cmd.MarkFlagRequired("game_id")
	return cmd
}

// CancelCmd 创建者撤单
func CancelCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Cancel an unjoined game, creator only",
		Run: func(cmd *cobra.Command, args []string) {
			gameID, _ := cmd.Flags().GetString("game_id")
			player, _ := cmd.Flags().GetString("player")
			g, err := env.Client.CancelGame(context.Background(), gameID, player)
			if err != nil {
				fatal(err)
			}
			output(g)
		},
	}
	cmd.Flags().StringP("game_id", "g", "", "game id")
	cmd.MarkFlagRequired("game_id")
	cmd.Flags().StringP("player", "p", "", "creator address")
	cmd.MarkFlagRequired("player")
	return cmd
}
