// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package client

import (
	"context"

	"github.com/33cn/coinflip/engine"
	"github.com/33cn/coinflip/types"
)

// Upstream 权威状态机的窄接口。
// 调和层只依赖这份契约，与权威方的部署形态（进程内、rpc）无关
type Upstream interface {
	GetGame(ctx context.Context, gameID string) (*types.Game, error)
	CreateGame(ctx context.Context, player string, betAmount int64) (*types.Game, error)
	JoinGame(ctx context.Context, gameID, player string, betAmount int64) (*types.Game, error)
	MakeCommitment(ctx context.Context, gameID, player string, commitment []byte) (*types.Game, error)
	RevealChoice(ctx context.Context, gameID, player string, choice types.CoinSide, secret uint64) (*types.Game, error)
	ResolveGame(ctx context.Context, gameID string) (*types.Game, error)
	CancelGame(ctx context.Context, gameID, caller string) (*types.Game, error)
	ClaimTimeout(ctx context.Context, gameID string) (*types.Game, error)
}

// engineUpstream 进程内引擎适配
type engineUpstream struct {
	e *engine.Engine
}

// NewEngineUpstream 把进程内引擎包装成Upstream
func NewEngineUpstream(e *engine.Engine) Upstream {
	return &engineUpstream{e: e}
}

func (u *engineUpstream) GetGame(ctx context.Context, gameID string) (*types.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.ErrTimeout
	}
	return u.e.GetGame(gameID)
}

func (u *engineUpstream) CreateGame(ctx context.Context, player string, betAmount int64) (*types.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.ErrTimeout
	}
	return u.e.CreateGame(player, betAmount)
}

func (u *engineUpstream) JoinGame(ctx context.Context, gameID, player string, betAmount int64) (*types.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.ErrTimeout
	}
	return u.e.JoinGame(gameID, player, betAmount)
}

func (u *engineUpstream) MakeCommitment(ctx context.Context, gameID, player string, commitment []byte) (*types.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.ErrTimeout
	}
	return u.e.MakeCommitment(gameID, player, commitment)
}

func (u *engineUpstream) RevealChoice(ctx context.Context, gameID, player string, choice types.CoinSide, secret uint64) (*types.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.ErrTimeout
	}
	return u.e.RevealChoice(gameID, player, choice, secret)
}

func (u *engineUpstream) ResolveGame(ctx context.Context, gameID string) (*types.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.ErrTimeout
	}
	return u.e.ResolveGame(gameID)
}

func (u *engineUpstream) CancelGame(ctx context.Context, gameID, caller string) (*types.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.ErrTimeout
	}
	return u.e.CancelGame(gameID, caller)
}

func (u *engineUpstream) ClaimTimeout(ctx context.Context, gameID string) (*types.Game, error) {
	if err := ctx.Err(); err != nil {
		return nil, types.ErrTimeout
	}
	return u.e.ClaimTimeout(gameID)
}
