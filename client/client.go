// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package client 调和层。
多个并发观察者通过这里读写唯一的权威状态机：
读按声明的新鲜度走缓存或直连，并发相同读合并为一次上游请求；
变更在提交前先做一次权威读校验前置条件，
被并发方抢先推进时归类为已推进并回读对齐，绝不盲目重试
*/
package client

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/33cn/coinflip/types"
	lru "github.com/hashicorp/golang-lru"
	log "github.com/inconshreveable/log15"
	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"
)

var clog = log.New("module", "client")

// Freshness 调用方声明的读新鲜度等级
type Freshness int32

// 新鲜度等级，递增。Authoritative永远绕过缓存
const (
	Background Freshness = iota
	Interactive
	Authoritative
)

// String 等级名
func (f Freshness) String() string {
	switch f {
	case Background:
		return "background"
	case Interactive:
		return "interactive"
	case Authoritative:
		return "authoritative"
	}
	return "unknown"
}

type cacheEntry struct {
	game *types.Game
	asOf time.Time
}

// Client 调和层实例，可被多个goroutine并发使用
type Client struct {
	cfg   *types.Client
	up    Upstream
	cache *lru.Cache
	group singleflight.Group

	mu  sync.Mutex
	rnd *rand.Rand
}

// New 创建调和层。cfg为nil时取默认配置
func New(cfg *types.Client, up Upstream) (*Client, error) {
	if up == nil {
		return nil, types.ErrInvalidParam
	}
	if cfg == nil {
		cfg = types.DefaultConfig().Client
	}
	cache, err := lru.New(int(cfg.CacheSize))
	if err != nil {
		return nil, errors.Wrap(types.ErrInvalidParam, err.Error())
	}
	return &Client{
		cfg:   cfg,
		up:    up,
		cache: cache,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}, nil
}

func (c *Client) window(f Freshness) time.Duration {
	switch f {
	case Background:
		return time.Duration(c.cfg.BackgroundWindow) * time.Millisecond
	case Interactive:
		return time.Duration(c.cfg.InteractiveWindow) * time.Millisecond
	}
	return 0
}

// GetGame 按新鲜度读取对局快照，返回快照与其读取时刻。
// 命中缓存时直接返回，否则与并发的相同读合并为一次上游请求；
// ctx取消会使对应缓存条目失效而不是留下半更新的结果
func (c *Client) GetGame(ctx context.Context, gameID string, f Freshness) (*types.Game, time.Time, error) {
	if gameID == "" {
		return nil, time.Time{}, types.ErrInvalidParam
	}
	if f != Authoritative {
		if value, ok := c.cache.Get(gameID); ok {
			entry := value.(*cacheEntry)
			if time.Since(entry.asOf) <= c.window(f) {
				return entry.game.Clone(), entry.asOf, nil
			}
		}
	}

	ch := c.group.DoChan(gameID, func() (interface{}, error) {
		var g *types.Game
		err := c.withRetry(ctx, func() error {
			var err error
			g, err = c.up.GetGame(ctx, gameID)
			return err
		})
		if err != nil {
			return nil, err
		}
		c.cache.Add(gameID, &cacheEntry{game: g, asOf: time.Now()})
		return g, nil
	})

	select {
	case <-ctx.Done():
		c.Invalidate(gameID)
		c.group.Forget(gameID)
		return nil, time.Time{}, errors.Wrap(types.ErrTimeout, ctx.Err().Error())
	case res := <-ch:
		if res.Err != nil {
			return nil, time.Time{}, res.Err
		}
		return res.Val.(*types.Game).Clone(), time.Now(), nil
	}
}

// Invalidate 丢弃某对局的缓存快照
func (c *Client) Invalidate(gameID string) {
	c.cache.Remove(gameID)
}

// withRetry 有界重试，仅限瞬时基础设施错误，指数退避加抖动。
// 校验错误和状态冲突立即返回，绝不重试
func (c *Client) withRetry(ctx context.Context, op func() error) error {
	interval := time.Duration(c.cfg.RetryBaseInterval) * time.Millisecond
	maxInterval := time.Duration(c.cfg.RetryMaxInterval) * time.Millisecond

	var err error
	for attempt := int32(0); attempt < c.cfg.RetryLimit; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.Wrap(types.ErrTimeout, ctx.Err().Error())
			case <-time.After(interval + c.jitter(interval)):
			}
			interval *= 2
			if interval > maxInterval {
				interval = maxInterval
			}
		}
		err = op()
		if err == nil || !types.IsTransient(err) {
			return err
		}
		clog.Warn("withRetry transient", "attempt", attempt+1, "err", err)
	}
	return errors.Wrap(types.ErrRetryBudget, err.Error())
}

func (c *Client) jitter(interval time.Duration) time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return time.Duration(c.rnd.Int63n(int64(interval)/2 + 1))
}

// submitCtx 给变更提交加上配置的总超时
func (c *Client) submitCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.SubmitTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, time.Duration(c.cfg.SubmitTimeout)*time.Millisecond)
}

// submit 提交一笔变更：成功则刷新缓存；
// 提交时被并发方抢先推进（提交前的权威读已通过前置校验）归类为已推进，
// 回读对齐缓存后把已推进报给调用方
func (c *Client) submit(ctx context.Context, gameID string, op func() (*types.Game, error)) (*types.Game, error) {
	var g *types.Game
	err := c.withRetry(ctx, func() error {
		var err error
		g, err = op()
		return err
	})
	if err != nil {
		if types.IsStateConflict(err) {
			c.reconcile(ctx, gameID)
			return nil, errors.Wrap(types.ErrAlreadyAdvanced, err.Error())
		}
		return nil, err
	}
	c.cache.Add(gameID, &cacheEntry{game: g, asOf: time.Now()})
	return g.Clone(), nil
}

// reconcile 丢弃本地快照并回读最新权威状态
func (c *Client) reconcile(ctx context.Context, gameID string) {
	c.Invalidate(gameID)
	if _, _, err := c.GetGame(ctx, gameID, Authoritative); err != nil {
		clog.Warn("reconcile read", "gameId", gameID, "err", err)
	}
}

// CreateGame 创建对局
func (c *Client) CreateGame(ctx context.Context, player string, betAmount int64) (*types.Game, error) {
	ctx, cancel := c.submitCtx(ctx)
	defer cancel()

	var g *types.Game
	err := c.withRetry(ctx, func() error {
		var err error
		g, err = c.up.CreateGame(ctx, player, betAmount)
		return err
	})
	if err != nil {
		return nil, err
	}
	c.cache.Add(g.GameID, &cacheEntry{game: g, asOf: time.Now()})
	return g.Clone(), nil
}

// JoinGame 加入对局。提交前先做权威读校验阶段和押注
func (c *Client) JoinGame(ctx context.Context, gameID, player string, betAmount int64) (*types.Game, error) {
	ctx, cancel := c.submitCtx(ctx)
	defer cancel()

	g, _, err := c.GetGame(ctx, gameID, Authoritative)
	if err != nil {
		return nil, err
	}
	if g.Phase.IsTerminal() || g.Phase != types.PhaseWaitingForPlayer {
		return nil, errors.Wrap(types.ErrAlreadyAdvanced, g.Phase.String())
	}
	if betAmount != g.BetAmount {
		return nil, types.ErrBetMismatch
	}

	return c.submit(ctx, gameID, func() (*types.Game, error) {
		return c.up.JoinGame(ctx, gameID, player, betAmount)
	})
}

// MakeCommitment 提交承诺
func (c *Client) MakeCommitment(ctx context.Context, gameID, player string, commitment []byte) (*types.Game, error) {
	ctx, cancel := c.submitCtx(ctx)
	defer cancel()

	g, _, err := c.GetGame(ctx, gameID, Authoritative)
	if err != nil {
		return nil, err
	}
	if g.Phase.IsTerminal() || g.Phase > types.PhasePlayersReady {
		return nil, errors.Wrap(types.ErrAlreadyAdvanced, g.Phase.String())
	}
	//对局还没到承诺阶段属于普通的阶段冲突，不是被人抢先
	if g.Phase != types.PhasePlayersReady {
		return nil, errors.Wrap(types.ErrPhaseConflict, g.Phase.String())
	}
	if !g.IsPlayer(player) {
		return nil, types.ErrNotAPlayer
	}
	if len(g.CommitmentOf(player)) != 0 {
		return nil, errors.Wrap(types.ErrAlreadyAdvanced, "commitment exists")
	}

	return c.submit(ctx, gameID, func() (*types.Game, error) {
		return c.up.MakeCommitment(ctx, gameID, player, commitment)
	})
}

// RevealChoice 揭示选择与秘密。本地先验证承诺匹配再提交
func (c *Client) RevealChoice(ctx context.Context, gameID, player string, choice types.CoinSide, secret uint64) (*types.Game, error) {
	ctx, cancel := c.submitCtx(ctx)
	defer cancel()

	g, _, err := c.GetGame(ctx, gameID, Authoritative)
	if err != nil {
		return nil, err
	}
	if g.Phase.IsTerminal() {
		return nil, errors.Wrap(types.ErrAlreadyAdvanced, g.Phase.String())
	}
	if g.Phase < types.PhaseCommitmentsReady {
		return nil, errors.Wrap(types.ErrPhaseConflict, g.Phase.String())
	}
	if !g.IsPlayer(player) {
		return nil, types.ErrNotAPlayer
	}

	return c.submit(ctx, gameID, func() (*types.Game, error) {
		return c.up.RevealChoice(ctx, gameID, player, choice, secret)
	})
}

// EnsureResolved 确保对局已结算，效果上恰好一次。
// 结算可能由任何一方的揭示或中立方触发，
// 只要对局已经是Resolved就返回成功，无论是谁促成的
func (c *Client) EnsureResolved(ctx context.Context, gameID string) (*types.Game, error) {
	ctx, cancel := c.submitCtx(ctx)
	defer cancel()

	g, _, err := c.GetGame(ctx, gameID, Authoritative)
	if err != nil {
		return nil, err
	}
	if g.Phase == types.PhaseResolved {
		return g, nil
	}
	if g.Phase.IsTerminal() {
		return nil, types.ErrGameTerminal
	}
	if g.RevealCount() != 2 {
		return nil, types.ErrNotReadyForResolve
	}

	out, err := c.submit(ctx, gameID, func() (*types.Game, error) {
		return c.up.ResolveGame(ctx, gameID)
	})
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, types.ErrAlreadyAdvanced) {
		return nil, err
	}

	//并发方抢先结算也算成功，回读确认
	g, _, rerr := c.GetGame(ctx, gameID, Authoritative)
	if rerr != nil {
		return nil, rerr
	}
	if g.Phase == types.PhaseResolved {
		return g, nil
	}
	return nil, err
}

// CancelGame 创建者撤单
func (c *Client) CancelGame(ctx context.Context, gameID, caller string) (*types.Game, error) {
	ctx, cancel := c.submitCtx(ctx)
	defer cancel()

	g, _, err := c.GetGame(ctx, gameID, Authoritative)
	if err != nil {
		return nil, err
	}
	if g.Phase.IsTerminal() || g.Phase != types.PhaseWaitingForPlayer {
		return nil, errors.Wrap(types.ErrAlreadyAdvanced, g.Phase.String())
	}

	return c.submit(ctx, gameID, func() (*types.Game, error) {
		return c.up.CancelGame(ctx, gameID, caller)
	})
}

// ClaimTimeout 超时认领
func (c *Client) ClaimTimeout(ctx context.Context, gameID string) (*types.Game, error) {
	ctx, cancel := c.submitCtx(ctx)
	defer cancel()

	g, _, err := c.GetGame(ctx, gameID, Authoritative)
	if err != nil {
		return nil, err
	}
	if g.Phase.IsTerminal() {
		return nil, errors.Wrap(types.ErrAlreadyAdvanced, g.Phase.String())
	}

	return c.submit(ctx, gameID, func() (*types.Game, error) {
		return c.up.ClaimTimeout(ctx, gameID)
	})
}
