// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cli

import (
	"context"

	"github.com/33cn/coinflip/client"
	"github.com/33cn/coinflip/flip"
	"github.com/33cn/coinflip/types"
	"github.com/spf13/cobra"
)

// QueryCmd 查询类命令
func QueryCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "query",
		Short: "Query games and escrow records",
		Args:  cobra.MinimumNArgs(1),
	}
	cmd.AddCommand(
		queryGameCmd(env),
		queryListCmd(env),
		queryEscrowCmd(env),
		auditCmd(env),
	)
	return cmd
}

func parseFreshness(s string) (client.Freshness, error) {
	switch s {
	case "background", "":
		return client.Background, nil
	case "interactive":
		return client.Interactive, nil
	case "authoritative":
		return client.Authoritative, nil
	}
	return 0, types.ErrInvalidParam
}

func queryGameCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Show one game",
		Run: func(cmd *cobra.Command, args []string) {
			gameID, _ := cmd.Flags().GetString("game_id")
			freshStr, _ := cmd.Flags().GetString("freshness")
			fresh, err := parseFreshness(freshStr)
			if err != nil {
				fatal(err)
			}
			g, _, err := env.Client.GetGame(context.Background(), gameID, fresh)
			if err != nil {
				fatal(err)
			}
			output(g)
		},
	}
	cmd.Flags().StringP("game_id", "g", "", "game id")
	cmd.MarkFlagRequired("game_id")
	cmd.Flags().StringP("freshness", "f", "background", "background | interactive | authoritative")
	return cmd
}

func queryListCmd(env *Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all games",
		Run: func(cmd *cobra.Command, args []string) {
			games, err := env.Engine.ListGames()
			if err != nil {
				fatal(err)
			}
			output(games)
		},
	}
}

func queryEscrowCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "escrow",
		Short: "Show the escrow record of a game",
		Run: func(cmd *cobra.Command, args []string) {
			gameID, _ := cmd.Flags().GetString("game_id")
			rec, err := env.Engine.GetEscrow(gameID)
			if err != nil {
				fatal(err)
			}
			output(rec)
		},
	}
	cmd.Flags().StringP("game_id", "g", "", "game id")
	cmd.MarkFlagRequired("game_id")
	return cmd
}

// auditCmd 从记录的秘密和账本值复算结果，第三方审计用
func auditCmd(env *Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Recompute a resolved game's outcome from its recorded inputs",
		Run: func(cmd *cobra.Command, args []string) {
			gameID, _ := cmd.Flags().GetString("game_id")
			g, _, err := env.Client.GetGame(context.Background(), gameID, client.Authoritative)
			if err != nil {
				fatal(err)
			}
			if err := flip.ReplayResolution(g); err != nil {
				fatal(err)
			}
			output(struct {
				GameID  string `json:"gameId"`
				Outcome string `json:"outcome"`
				Winner  string `json:"winner"`
				Audit   string `json:"audit"`
			}{g.GameID, g.Outcome.String(), g.Winner, "ok"})
		},
	}
	cmd.Flags().StringP("game_id", "g", "", "game id")
	cmd.MarkFlagRequired("game_id")
	return cmd
}
