// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package client

import (
	"context"
	"sync"

	"github.com/33cn/coinflip/flip"
	"github.com/33cn/coinflip/types"
	"github.com/google/uuid"
)

// Session 一个观察者对一局对局的生命周期句柄。
// 创建或加入时建立，终态或显式放弃时清除；
// 承诺用的秘密只保存在会话里，揭示时取用
type Session struct {
	ID     string
	Player string

	mu        sync.Mutex
	c         *Client
	gameID    string
	choice    types.CoinSide
	secret    uint64
	committed bool
	done      bool
}

func newSession(c *Client, player, gameID string) *Session {
	return &Session{
		ID:     uuid.New().String(),
		Player: player,
		c:      c,
		gameID: gameID,
	}
}

// CreateSession 创建对局并返回创建者会话
func (c *Client) CreateSession(ctx context.Context, player string, betAmount int64) (*Session, error) {
	g, err := c.CreateGame(ctx, player, betAmount)
	if err != nil {
		return nil, err
	}
	return newSession(c, player, g.GameID), nil
}

// JoinSession 加入对局并返回对手会话
func (c *Client) JoinSession(ctx context.Context, gameID, player string, betAmount int64) (*Session, error) {
	if _, err := c.JoinGame(ctx, gameID, player, betAmount); err != nil {
		return nil, err
	}
	return newSession(c, player, gameID), nil
}

// GameID 会话绑定的对局
func (s *Session) GameID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gameID
}

// Active 会话是否仍然活跃
func (s *Session) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.done
}

// Abandon 显式放弃会话并清掉本地秘密
func (s *Session) Abandon() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.done = true
	s.secret = 0
}

func (s *Session) checkActive() error {
	if s.done {
		return types.ErrIsClosed
	}
	return nil
}

// observe 依据最新权威快照推进会话生命周期
func (s *Session) observe(g *types.Game) {
	if g != nil && g.Phase.IsTerminal() {
		s.done = true
	}
}

// Commit 为本方生成秘密、计算承诺并提交。
// 秘密留在会话内存中等待揭示，绝不落盘
func (s *Session) Commit(ctx context.Context, choice types.CoinSide) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkActive(); err != nil {
		return err
	}
	if s.committed {
		return types.ErrAlreadyCommitted
	}

	secret, err := flip.GenerateSecret()
	if err != nil {
		return err
	}
	commitment := flip.Commitment(choice, secret)
	g, err := s.c.MakeCommitment(ctx, s.gameID, s.Player, commitment[:])
	if err != nil {
		s.observeErr(err)
		return err
	}
	s.choice = choice
	s.secret = secret
	s.committed = true
	s.observe(g)
	return nil
}

// Reveal 揭示会话中保存的选择与秘密
func (s *Session) Reveal(ctx context.Context) (*types.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkActive(); err != nil {
		return nil, err
	}
	if !s.committed {
		return nil, types.ErrPhaseConflict
	}

	g, err := s.c.RevealChoice(ctx, s.gameID, s.Player, s.choice, s.secret)
	if err != nil {
		s.observeErr(err)
		return nil, err
	}
	s.observe(g)
	return g, nil
}

// EnsureResolved 确保对局已结算，见Client.EnsureResolved
func (s *Session) EnsureResolved(ctx context.Context) (*types.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, err := s.c.EnsureResolved(ctx, s.gameID)
	if err != nil {
		return nil, err
	}
	s.observe(g)
	return g, nil
}

// ClaimTimeout 超时认领
func (s *Session) ClaimTimeout(ctx context.Context) (*types.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkActive(); err != nil {
		return nil, err
	}

	g, err := s.c.ClaimTimeout(ctx, s.gameID)
	if err != nil {
		s.observeErr(err)
		return nil, err
	}
	s.observe(g)
	return g, nil
}

// Cancel 撤单，仅创建者在无人加入时可用
func (s *Session) Cancel(ctx context.Context) (*types.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkActive(); err != nil {
		return nil, err
	}

	g, err := s.c.CancelGame(ctx, s.gameID, s.Player)
	if err != nil {
		s.observeErr(err)
		return nil, err
	}
	s.observe(g)
	return g, nil
}

// Game 按新鲜度读取会话对局的快照
func (s *Session) Game(ctx context.Context, f Freshness) (*types.Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, _, err := s.c.GetGame(ctx, s.gameID, f)
	if err != nil {
		return nil, err
	}
	s.observe(g)
	return g, nil
}

// observeErr 已推进意味着权威状态超出了本地预期，回读确认终态
func (s *Session) observeErr(err error) {
	if !types.IsStateConflict(err) {
		return
	}
	if value, ok := s.c.cache.Get(s.gameID); ok {
		s.observe(value.(*cacheEntry).game)
	}
}
