// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package types 定义对局数据结构、错误、事件以及配置
package types

import (
	"bytes"
	"encoding/json"
)

// coin conversation
const (
	Coin          int64 = 1e8
	MaxCoin       int64 = 1e17
	DefaultFeeBps int32 = 300  //3%
	MaxFeeBps     int32 = 1000 //费率上限10%
	DefaultMinBet int64 = 1e6  //0.01 coin
	DefaultMaxBet int64 = 1e12 //10000 coin
)

// CommitmentSize 承诺摘要的字节长度
const CommitmentSize = 32

// CoinSide 硬币的两面
type CoinSide int32

const (
	// Heads 正面
	Heads CoinSide = 0
	// Tails 反面
	Tails CoinSide = 1
)

func (c CoinSide) String() string {
	if c == Heads {
		return "heads"
	}
	return "tails"
}

// Phase 对局阶段，只能沿状态图向前推进
type Phase int32

const (
	// PhaseWaitingForPlayer 创建完成，等待对手加入
	PhaseWaitingForPlayer Phase = 0
	// PhasePlayersReady 双方已入场，等待承诺
	PhasePlayersReady Phase = 1
	// PhaseCommitmentsReady 双方承诺已存储
	PhaseCommitmentsReady Phase = 2
	// PhaseRevealing 至少一方已揭示
	PhaseRevealing Phase = 3
	// PhaseResolved 已结算（终态）
	PhaseResolved Phase = 4
	// PhaseCancelled 创建者撤单（终态）
	PhaseCancelled Phase = 5
	// PhaseTimedOut 超时认领（终态）
	PhaseTimedOut Phase = 6
)

var phaseNames = map[Phase]string{
	PhaseWaitingForPlayer: "WaitingForPlayer",
	PhasePlayersReady:     "PlayersReady",
	PhaseCommitmentsReady: "CommitmentsReady",
	PhaseRevealing:        "RevealingPhase",
	PhaseResolved:         "Resolved",
	PhaseCancelled:        "Cancelled",
	PhaseTimedOut:         "TimedOut",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "Unknown"
}

// IsTerminal 终态吸收，之后任何操作都必须显式失败
func (p Phase) IsTerminal() bool {
	return p == PhaseResolved || p == PhaseCancelled || p == PhaseTimedOut
}

// Reveal 一次揭示：选择和秘密，校验承诺之后才会写入
type Reveal struct {
	Choice CoinSide `json:"choice"`
	Secret uint64   `json:"secret"`
}

// Game 对局的权威记录。终态之后不再变更
type Game struct {
	GameID      string    `json:"gameId"`
	PlayerA     string    `json:"playerA"`
	PlayerB     string    `json:"playerB,omitempty"`
	BetAmount   int64     `json:"betAmount"`
	FeeBps      int32     `json:"feeBps"`
	CommitmentA []byte    `json:"commitmentA,omitempty"`
	CommitmentB []byte    `json:"commitmentB,omitempty"`
	RevealA     *Reveal   `json:"revealA,omitempty"`
	RevealB     *Reveal   `json:"revealB,omitempty"`
	Phase       Phase     `json:"phase"`
	Outcome     *CoinSide `json:"outcome,omitempty"`
	Winner      string    `json:"winner,omitempty"`
	HouseFee    int64     `json:"houseFee"`
	LedgerValue uint64    `json:"ledgerValue,omitempty"`
	CreatedAt   int64     `json:"createdAt"`
	Deadline    int64     `json:"deadline"`
	ResolvedAt  int64     `json:"resolvedAt,omitempty"`
}

// IsPlayer 判断地址是否为对局参与者
func (g *Game) IsPlayer(addr string) bool {
	return addr != "" && (addr == g.PlayerA || addr == g.PlayerB)
}

// CommitmentOf 返回指定玩家已存储的承诺，非玩家返回nil
func (g *Game) CommitmentOf(addr string) []byte {
	switch addr {
	case g.PlayerA:
		return g.CommitmentA
	case g.PlayerB:
		return g.CommitmentB
	}
	return nil
}

// RevealCount 已揭示的数量
func (g *Game) RevealCount() int {
	n := 0
	if g.RevealA != nil {
		n++
	}
	if g.RevealB != nil {
		n++
	}
	return n
}

// Clone 深拷贝，缓存快照需要
func (g *Game) Clone() *Game {
	data, err := Encode(g)
	if err != nil {
		panic(err)
	}
	var out Game
	if err := Decode(data, &out); err != nil {
		panic(err)
	}
	return &out
}

// EscrowRecord 每局托管资金记录，终态时恰好释放一次
type EscrowRecord struct {
	GameID   string `json:"gameId"`
	StakeA   int64  `json:"stakeA"`
	StakeB   int64  `json:"stakeB"`
	Released bool   `json:"released"`
}

// Total 当前托管总额
func (e *EscrowRecord) Total() int64 {
	return e.StakeA + e.StakeB
}

// Encode 统一的落盘编码，所有组件共用，禁止各自实现
func Encode(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, ErrEncode
	}
	return data, nil
}

// Decode 严格解码：未知字段视为数据损坏而不是兼容问题
func Decode(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return ErrDecode
	}
	return nil
}

// CheckAmount 金额合法性
func CheckAmount(amount int64) bool {
	return amount > 0 && amount < MaxCoin
}
