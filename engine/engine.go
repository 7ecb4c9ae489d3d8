// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package engine 实现对局的权威状态机。
同一对局的变更由引擎内部串行化，同一时刻只有一笔成功；
终态吸收，之后的任何操作都显式失败而不是静默成功。
*/
package engine

import (
	"sync"
	"time"

	"github.com/33cn/coinflip/account"
	dbm "github.com/33cn/coinflip/common/db"
	"github.com/33cn/coinflip/queue"
	"github.com/33cn/coinflip/types"
	log "github.com/inconshreveable/log15"
)

var elog = log.New("module", "engine")

// FlipTopic 引擎事件发布的topic
const FlipTopic = "flip"

var (
	gameKeyPrefix   = []byte("flip-game-")
	escrowKeyPrefix = []byte("flip-escrow-")
	heightKey       = []byte("flip-height")
)

// Engine 权威状态机
type Engine struct {
	mu  sync.Mutex
	cfg *types.Flip
	db  dbm.DB
	acc *account.DB
	q   *queue.Queue
	now func() int64
}

// New 创建引擎。q可以为nil，此时不发布事件
func New(cfg *types.Flip, db dbm.DB, q *queue.Queue) *Engine {
	if cfg == nil {
		cfg = types.DefaultConfig().Flip
	}
	return &Engine{
		cfg: cfg,
		db:  db,
		acc: account.NewAccountDB(db),
		q:   q,
		now: func() int64 { return time.Now().Unix() },
	}
}

// SetTimeProvider 注入时间源，测试超时路径使用
func (e *Engine) SetTimeProvider(now func() int64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = now
}

// Account 引擎使用的托管账本
func (e *Engine) Account() *account.DB {
	return e.acc
}

func gameKey(gameID string) []byte {
	return append(append([]byte{}, gameKeyPrefix...), []byte(gameID)...)
}

func escrowKey(gameID string) []byte {
	return append(append([]byte{}, escrowKeyPrefix...), []byte(gameID)...)
}

// loadGame 读取对局，持锁调用
func (e *Engine) loadGame(gameID string) (*types.Game, error) {
	value := e.db.Get(gameKey(gameID))
	if value == nil {
		return nil, types.ErrGameNotFound
	}
	var g types.Game
	if err := types.Decode(value, &g); err != nil {
		elog.Error("loadGame decode", "gameId", gameID, "err", err)
		return nil, types.ErrCorruptGame
	}
	return &g, nil
}

func (e *Engine) loadEscrow(gameID string) (*types.EscrowRecord, error) {
	value := e.db.Get(escrowKey(gameID))
	if value == nil {
		return nil, types.ErrCorruptGame
	}
	var rec types.EscrowRecord
	if err := types.Decode(value, &rec); err != nil {
		elog.Error("loadEscrow decode", "gameId", gameID, "err", err)
		return nil, types.ErrCorruptGame
	}
	return &rec, nil
}

// Height 账本当前高度，每笔成功变更单调递增。
// 结算时刻的高度在承诺时不可知，作为结算的不可预测输入
func (e *Engine) Height() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.height()
}

func (e *Engine) height() uint64 {
	value := e.db.Get(heightKey)
	if value == nil {
		return 0
	}
	var h uint64
	if err := types.Decode(value, &h); err != nil {
		panic(err) //数据库已经损坏
	}
	return h
}

// stagedDB 把一次状态迁移内的资金写暂存在内存中：
// 读优先命中暂存值，最后与对局记录合并进同一个batch落盘，
// 资金变更和阶段迁移要么同时生效要么都不生效
type stagedDB struct {
	dbm.DB
	staged map[string][]byte
	order  []string
}

func newStagedDB(db dbm.DB) *stagedDB {
	return &stagedDB{DB: db, staged: make(map[string][]byte)}
}

// Get 读暂存值，未命中再读底层
func (s *stagedDB) Get(key []byte) []byte {
	if value, ok := s.staged[string(key)]; ok {
		return value
	}
	return s.DB.Get(key)
}

// Set 只写暂存，不触碰底层
func (s *stagedDB) Set(key []byte, value []byte) {
	if _, ok := s.staged[string(key)]; !ok {
		s.order = append(s.order, string(key))
	}
	s.staged[string(key)] = value
}

func (s *stagedDB) flush(batch dbm.Batch) {
	for _, key := range s.order {
		batch.Set([]byte(key), s.staged[key])
	}
}

// stagedAccount 一次迁移专用的暂存账本，随commit一起落盘
func (e *Engine) stagedAccount() (*stagedDB, *account.DB) {
	sdb := newStagedDB(e.db)
	return sdb, account.NewAccountDB(sdb)
}

// commit 把一笔变更连同暂存的资金写和高度递增一起落盘，持锁调用
func (e *Engine) commit(g *types.Game, rec *types.EscrowRecord, sdb *stagedDB) error {
	batch := e.db.NewBatch(true)

	data, err := types.Encode(g)
	if err != nil {
		return err
	}
	batch.Set(gameKey(g.GameID), data)

	if rec != nil {
		recData, err := types.Encode(rec)
		if err != nil {
			return err
		}
		batch.Set(escrowKey(g.GameID), recData)
	}

	hData, err := types.Encode(e.height() + 1)
	if err != nil {
		return err
	}
	batch.Set(heightKey, hData)

	if sdb != nil {
		sdb.flush(batch)
	}
	batch.Write()
	return nil
}

// publish 发布事件，消费方缺席不影响引擎
func (e *Engine) publish(ty int64, data interface{}) {
	if e.q == nil {
		return
	}
	e.q.Publish(e.q.NewMessage(FlipTopic, ty, data))
}

// GetGame 权威读
func (e *Engine) GetGame(gameID string) (*types.Game, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	g, err := e.loadGame(gameID)
	if err != nil {
		return nil, err
	}
	return g, nil
}

// ListGames 列出全部对局，查询接口
func (e *Engine) ListGames() ([]*types.Game, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	values := e.db.List(gameKeyPrefix)
	games := make([]*types.Game, 0, len(values))
	for _, value := range values {
		var g types.Game
		if err := types.Decode(value, &g); err != nil {
			return nil, types.ErrCorruptGame
		}
		games = append(games, &g)
	}
	return games, nil
}

// GetEscrow 查询托管记录
func (e *Engine) GetEscrow(gameID string) (*types.EscrowRecord, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loadEscrow(gameID)
}
