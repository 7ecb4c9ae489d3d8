// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"github.com/33cn/coinflip/flip"
	"github.com/33cn/coinflip/types"
)

// resolveLocked 在持锁状态下对双揭示的对局执行结算：
// 计算结果、支付赔付与手续费、释放托管、落盘终态，整个过程不可分割。
// 结算输入中的账本高度取本笔变更落盘时的高度，承诺时刻无法预知
func (e *Engine) resolveLocked(g *types.Game) error {
	rec, err := e.loadEscrow(g.GameID)
	if err != nil {
		return err
	}
	if rec.Released {
		return types.ErrEscrowReleased
	}

	ledgerValue := e.height() + 1
	now := e.now()
	res, err := flip.Resolve(g, ledgerValue, now)
	if err != nil {
		return err
	}

	winner, loser := g.PlayerA, g.PlayerB
	if res.WinnerIndex == flip.PlayerB {
		winner, loser = g.PlayerB, g.PlayerA
	}

	//先解冻赢家自己的押注，再把输家的押注划给赢家，最后收取手续费。
	//资金写全部暂存，与终态迁移同一个batch落盘
	sdb, acc := e.stagedAccount()
	if _, err := acc.Active(winner, g.BetAmount); err != nil {
		return err
	}
	if _, err := acc.TransferFrozen(loser, winner, g.BetAmount); err != nil {
		return err
	}
	if res.HouseFee > 0 {
		if _, err := acc.Transfer(winner, e.cfg.HouseAddr, res.HouseFee); err != nil {
			return err
		}
	}

	g.Phase = types.PhaseResolved
	g.Outcome = &res.Outcome
	g.Winner = winner
	g.HouseFee = res.HouseFee
	g.LedgerValue = ledgerValue
	g.ResolvedAt = now
	rec.Released = true
	if err := e.commit(g, rec, sdb); err != nil {
		return err
	}

	elog.Info("resolve", "gameId", g.GameID, "outcome", res.Outcome.String(),
		"winner", winner, "payout", res.WinnerPayout, "fee", res.HouseFee, "height", ledgerValue)
	e.publish(types.EventGameResolved, &types.ReceiptGameResolved{
		GameID:       g.GameID,
		Winner:       winner,
		Outcome:      res.Outcome,
		WinnerPayout: res.WinnerPayout,
		HouseFee:     res.HouseFee,
		LedgerValue:  ledgerValue,
		ResolvedAt:   now,
	})
	return nil
}

// ResolveGame 中立方手动结算。
// 正常路径下第二个揭示已经自动触发结算，这里覆盖的是揭示完成
// 但结算未生效的场景；对已结算对局显式返回已推进
func (e *Engine) ResolveGame(gameID string) (*types.Game, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, err := e.loadGame(gameID)
	if err != nil {
		return nil, err
	}
	if g.Phase == types.PhaseResolved {
		return nil, types.ErrAlreadyAdvanced
	}
	if g.Phase.IsTerminal() {
		return nil, types.ErrGameTerminal
	}
	if g.RevealCount() != 2 {
		return nil, types.ErrNotReadyForResolve
	}
	if err := e.resolveLocked(g); err != nil {
		return nil, err
	}
	return g, nil
}

// CancelGame 创建者撤单，仅限无人加入时，原额退款零手续费
func (e *Engine) CancelGame(gameID, caller string) (*types.Game, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, err := e.loadGame(gameID)
	if err != nil {
		return nil, err
	}
	if g.Phase.IsTerminal() {
		return nil, types.ErrGameTerminal
	}
	if g.Phase != types.PhaseWaitingForPlayer {
		return nil, types.ErrPhaseConflict
	}
	if caller != g.PlayerA {
		return nil, types.ErrNotAPlayer
	}

	rec, err := e.loadEscrow(gameID)
	if err != nil {
		return nil, err
	}
	if rec.Released {
		return nil, types.ErrEscrowReleased
	}
	sdb, acc := e.stagedAccount()
	if _, err := acc.Active(g.PlayerA, g.BetAmount); err != nil {
		return nil, err
	}

	now := e.now()
	g.Phase = types.PhaseCancelled
	g.ResolvedAt = now
	rec.Released = true
	if err := e.commit(g, rec, sdb); err != nil {
		return nil, err
	}

	elog.Info("CancelGame", "gameId", gameID)
	e.publish(types.EventGameCancelled, &types.ReceiptGameCancelled{
		GameID:      gameID,
		Refund:      g.BetAmount,
		CancelledAt: now,
	})
	return g, nil
}

// ClaimTimeout 超时认领，任何人都可以触发。
// 揭示阶段只有一方揭示时该方独得全部奖池且零手续费：
// 履约方不应为对手的失约付费；其余情况各自原额退款
func (e *Engine) ClaimTimeout(gameID string) (*types.Game, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, err := e.loadGame(gameID)
	if err != nil {
		return nil, err
	}
	if g.Phase.IsTerminal() {
		return nil, types.ErrGameTerminal
	}
	now := e.now()
	if now <= g.Deadline {
		return nil, types.ErrDeadlineNotPassed
	}

	rec, err := e.loadEscrow(gameID)
	if err != nil {
		return nil, err
	}
	if rec.Released {
		return nil, types.ErrEscrowReleased
	}

	sdb, acc := e.stagedAccount()
	receipt := &types.ReceiptGameTimedOut{GameID: gameID, TimedOutAt: now}
	switch g.Phase {
	case types.PhaseWaitingForPlayer:
		//无人加入，退还创建者
		if _, err := acc.Active(g.PlayerA, g.BetAmount); err != nil {
			return nil, err
		}
		receipt.RefundA = g.BetAmount
	case types.PhasePlayersReady, types.PhaseCommitmentsReady:
		//承诺不足或无人揭示，双方原额退款
		if _, err := acc.Active(g.PlayerA, g.BetAmount); err != nil {
			return nil, err
		}
		if _, err := acc.Active(g.PlayerB, g.BetAmount); err != nil {
			return nil, err
		}
		receipt.RefundA = g.BetAmount
		receipt.RefundB = g.BetAmount
	case types.PhaseRevealing:
		//恰好一方已揭示（两方揭示会立即自动结算）
		revealer, other := g.PlayerA, g.PlayerB
		if g.RevealA == nil {
			revealer, other = g.PlayerB, g.PlayerA
		}
		if _, err := acc.Active(revealer, g.BetAmount); err != nil {
			return nil, err
		}
		if _, err := acc.TransferFrozen(other, revealer, g.BetAmount); err != nil {
			return nil, err
		}
		g.Winner = revealer
		receipt.Winner = revealer
	default:
		return nil, types.ErrPhaseConflict
	}

	g.Phase = types.PhaseTimedOut
	g.ResolvedAt = now
	rec.Released = true
	if err := e.commit(g, rec, sdb); err != nil {
		return nil, err
	}

	elog.Info("ClaimTimeout", "gameId", gameID, "winner", g.Winner)
	e.publish(types.EventGameTimedOut, receipt)
	return g, nil
}
