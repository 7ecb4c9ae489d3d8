// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package history 终态事件的离线历史。
// 作为queue的只读消费者记录resolved/timedOut/cancelled回执，
// 仅供查询，不是正确性依赖：漏记事件不影响引擎
package history

import (
	"encoding/json"
	"sync"

	dbm "github.com/33cn/coinflip/common/db"
	"github.com/33cn/coinflip/queue"
	"github.com/33cn/coinflip/types"
	log "github.com/inconshreveable/log15"
)

var hlog = log.New("module", "history")

var recordKeyPrefix = []byte("hist-")

// Record 一条终态历史
type Record struct {
	GameID string          `json:"gameId"`
	Event  int64           `json:"event"`
	Name   string          `json:"name"`
	Detail json.RawMessage `json:"detail"`
}

// Store 历史存储
type Store struct {
	db dbm.DB
	wg sync.WaitGroup
}

// New 创建历史存储
func New(db dbm.DB) *Store {
	return &Store{db: db}
}

// Start 开始消费事件通道，通道关闭后退出
func (s *Store) Start(ch <-chan queue.Message) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for msg := range ch {
			s.record(msg)
		}
	}()
}

// Wait 等待消费goroutine退出
func (s *Store) Wait() {
	s.wg.Wait()
}

func recordKey(gameID string) []byte {
	return append(append([]byte{}, recordKeyPrefix...), []byte(gameID)...)
}

func gameIDOf(msg queue.Message) string {
	switch data := msg.Data.(type) {
	case *types.ReceiptGameResolved:
		return data.GameID
	case *types.ReceiptGameTimedOut:
		return data.GameID
	case *types.ReceiptGameCancelled:
		return data.GameID
	}
	return ""
}

func (s *Store) record(msg queue.Message) {
	gameID := gameIDOf(msg)
	if gameID == "" {
		//非终态事件不入历史
		return
	}
	detail, err := types.Encode(msg.Data)
	if err != nil {
		hlog.Error("record encode", "gameId", gameID, "err", err)
		return
	}
	rec := &Record{
		GameID: gameID,
		Event:  msg.Ty,
		Name:   types.EventName(msg.Ty),
		Detail: detail,
	}
	data, err := types.Encode(rec)
	if err != nil {
		hlog.Error("record encode", "gameId", gameID, "err", err)
		return
	}
	s.db.Set(recordKey(gameID), data)
	hlog.Debug("record", "gameId", gameID, "event", rec.Name)
}

// Get 查询某对局的终态历史
func (s *Store) Get(gameID string) (*Record, error) {
	value := s.db.Get(recordKey(gameID))
	if value == nil {
		return nil, types.ErrGameNotFound
	}
	var rec Record
	if err := types.Decode(value, &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// List 列出全部终态历史
func (s *Store) List() ([]*Record, error) {
	values := s.db.List(recordKeyPrefix)
	records := make([]*Record, 0, len(values))
	for _, value := range values {
		var rec Record
		if err := types.Decode(value, &rec); err != nil {
			return nil, err
		}
		records = append(records, &rec)
	}
	return records, nil
}
