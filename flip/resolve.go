// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flip

import (
	"encoding/binary"

	"github.com/33cn/coinflip/common"
	"github.com/33cn/coinflip/types"
)

// 玩家下标
const (
	// PlayerA 先手（创建者）
	PlayerA = 0
	// PlayerB 后手
	PlayerB = 1
)

// ResolveOutcome 由双方秘密、账本不可预测值和结算时间戳计算硬币结果。
// XOR组合与顺序无关，账本值和时间戳在承诺时不可知，任何一方都无法偏置结果。
// 纯函数，第三方可以用记录下来的输入复算审计
func ResolveOutcome(secretA, secretB, ledgerValue uint64, timestamp int64) types.CoinSide {
	combined := secretA ^ secretB ^ ledgerValue ^ uint64(timestamp)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], combined)
	digest := common.Sha256(buf[:])
	if digest[0]%2 == 0 {
		return types.Heads
	}
	return types.Tails
}

// DetermineWinner 恰好一方猜中则该方直接获胜；
// 双方都猜中或都未猜中时用确定性的平局裁决，永远产生唯一赢家
func DetermineWinner(choiceA, choiceB, outcome types.CoinSide, secretA, secretB, ledgerValue uint64) int {
	aCorrect := choiceA == outcome
	bCorrect := choiceB == outcome
	if aCorrect && !bCorrect {
		return PlayerA
	}
	if bCorrect && !aCorrect {
		return PlayerB
	}
	if (secretA^secretB^ledgerValue)%2 == 0 {
		return PlayerA
	}
	return PlayerB
}

// Resolution 一次结算的完整产物
type Resolution struct {
	Outcome      types.CoinSide
	WinnerIndex  int
	TotalPot     int64
	HouseFee     int64
	WinnerPayout int64
}

// Resolve 对一局已双揭示的对局执行结算计算，不触碰任何存储
func Resolve(g *types.Game, ledgerValue uint64, timestamp int64) (*Resolution, error) {
	if g.RevealA == nil || g.RevealB == nil {
		return nil, types.ErrNotReadyForResolve
	}
	outcome := ResolveOutcome(g.RevealA.Secret, g.RevealB.Secret, ledgerValue, timestamp)
	winner := DetermineWinner(g.RevealA.Choice, g.RevealB.Choice, outcome,
		g.RevealA.Secret, g.RevealB.Secret, ledgerValue)
	pot, fee, payout := Payout(g.BetAmount, g.BetAmount, g.FeeBps)
	if err := CheckPayout(pot, fee, payout); err != nil {
		return nil, err
	}
	return &Resolution{
		Outcome:      outcome,
		WinnerIndex:  winner,
		TotalPot:     pot,
		HouseFee:     fee,
		WinnerPayout: payout,
	}, nil
}

// ReplayResolution 审计：用对局记录中的公开输入复算，
// 与已记录的结果比对，不一致说明读到的数据或引擎有缺陷
func ReplayResolution(g *types.Game) error {
	if g.Phase != types.PhaseResolved || g.Outcome == nil {
		return types.ErrNotReadyForResolve
	}
	res, err := Resolve(g, g.LedgerValue, g.ResolvedAt)
	if err != nil {
		return err
	}
	if res.Outcome != *g.Outcome || res.HouseFee != g.HouseFee {
		return types.ErrOutcomeMismatch
	}
	want := g.PlayerA
	if res.WinnerIndex == PlayerB {
		want = g.PlayerB
	}
	if g.Winner != want {
		return types.ErrOutcomeMismatch
	}
	return nil
}
