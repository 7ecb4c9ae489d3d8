// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

// event
const (
	EventGameCreated    = 1
	EventPlayerJoined   = 2
	EventCommitmentMade = 3
	EventChoiceRevealed = 4
	EventGameResolved   = 5
	EventGameTimedOut   = 6
	EventGameCancelled  = 7
)

// EventName 事件编号转名称，便于日志与消费方订阅
func EventName(ty int64) string {
	switch ty {
	case EventGameCreated:
		return "gameCreated"
	case EventPlayerJoined:
		return "playerJoined"
	case EventCommitmentMade:
		return "commitmentMade"
	case EventChoiceRevealed:
		return "revealed"
	case EventGameResolved:
		return "resolved"
	case EventGameTimedOut:
		return "timedOut"
	case EventGameCancelled:
		return "cancelled"
	}
	return "unknown"
}

// ReceiptGameCreated 创建对局事件
type ReceiptGameCreated struct {
	GameID    string `json:"gameId"`
	PlayerA   string `json:"playerA"`
	BetAmount int64  `json:"betAmount"`
	FeeBps    int32  `json:"feeBps"`
}

// ReceiptPlayerJoined 对手加入事件
type ReceiptPlayerJoined struct {
	GameID  string `json:"gameId"`
	PlayerB string `json:"playerB"`
}

// ReceiptCommitmentMade 承诺提交事件，摘要公开但不可逆
type ReceiptCommitmentMade struct {
	GameID     string `json:"gameId"`
	Player     string `json:"player"`
	Commitment []byte `json:"commitment"`
}

// ReceiptChoiceRevealed 揭示事件，此时选择与秘密都已公开
type ReceiptChoiceRevealed struct {
	GameID string   `json:"gameId"`
	Player string   `json:"player"`
	Choice CoinSide `json:"choice"`
	Secret uint64   `json:"secret"`
}

// ReceiptGameResolved 结算事件，第三方可据此复算结果
type ReceiptGameResolved struct {
	GameID       string   `json:"gameId"`
	Winner       string   `json:"winner"`
	Outcome      CoinSide `json:"outcome"`
	WinnerPayout int64    `json:"winnerPayout"`
	HouseFee     int64    `json:"houseFee"`
	LedgerValue  uint64   `json:"ledgerValue"`
	ResolvedAt   int64    `json:"resolvedAt"`
}

// ReceiptGameTimedOut 超时认领事件
type ReceiptGameTimedOut struct {
	GameID     string `json:"gameId"`
	Winner     string `json:"winner,omitempty"`
	RefundA    int64  `json:"refundA"`
	RefundB    int64  `json:"refundB"`
	TimedOutAt int64  `json:"timedOutAt"`
}

// ReceiptGameCancelled 撤单事件
type ReceiptGameCancelled struct {
	GameID      string `json:"gameId"`
	Refund      int64  `json:"refund"`
	CancelledAt int64  `json:"cancelledAt"`
}
