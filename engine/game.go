// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"github.com/33cn/coinflip/flip"
	"github.com/33cn/coinflip/types"
	"github.com/google/uuid"
)

// CreateGame 创建对局并托管创建者押注。
// feeBps在此刻写入对局记录，之后不可变
func (e *Engine) CreateGame(playerA string, betAmount int64) (*types.Game, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if playerA == "" {
		return nil, types.ErrInvalidAddress
	}
	if !types.CheckAmount(betAmount) {
		return nil, types.ErrAmount
	}
	if betAmount < e.cfg.MinBet {
		return nil, types.ErrBetTooLow
	}
	if betAmount > e.cfg.MaxBet {
		return nil, types.ErrBetTooHigh
	}

	sdb, acc := e.stagedAccount()
	if _, err := acc.Frozen(playerA, betAmount); err != nil {
		return nil, err
	}

	now := e.now()
	g := &types.Game{
		GameID:    uuid.New().String(),
		PlayerA:   playerA,
		BetAmount: betAmount,
		FeeBps:    e.cfg.FeeBps,
		Phase:     types.PhaseWaitingForPlayer,
		CreatedAt: now,
		Deadline:  now + e.cfg.JoinTimeout,
	}
	rec := &types.EscrowRecord{GameID: g.GameID, StakeA: betAmount}
	if err := e.commit(g, rec, sdb); err != nil {
		return nil, err
	}

	elog.Info("CreateGame", "gameId", g.GameID, "playerA", playerA, "bet", betAmount)
	e.publish(types.EventGameCreated, &types.ReceiptGameCreated{
		GameID:    g.GameID,
		PlayerA:   playerA,
		BetAmount: betAmount,
		FeeBps:    g.FeeBps,
	})
	return g, nil
}

// JoinGame 对手入场，押注必须与创建者一致
func (e *Engine) JoinGame(gameID, playerB string, betAmount int64) (*types.Game, error) {
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
	if playerB == "" {
		return nil, types.ErrInvalidAddress
	}
	if playerB == g.PlayerA {
		return nil, types.ErrSelfPlay
	}
	if betAmount != g.BetAmount {
		return nil, types.ErrBetMismatch
	}

	rec, err := e.loadEscrow(gameID)
	if err != nil {
		return nil, err
	}
	sdb, acc := e.stagedAccount()
	if _, err := acc.Frozen(playerB, betAmount); err != nil {
		return nil, err
	}

	g.PlayerB = playerB
	g.Phase = types.PhasePlayersReady
	g.Deadline = e.now() + e.cfg.CommitTimeout
	rec.StakeB = betAmount
	if err := e.commit(g, rec, sdb); err != nil {
		return nil, err
	}

	elog.Info("JoinGame", "gameId", gameID, "playerB", playerB)
	e.publish(types.EventPlayerJoined, &types.ReceiptPlayerJoined{
		GameID:  gameID,
		PlayerB: playerB,
	})
	return g, nil
}

// MakeCommitment 存储一方的承诺。双方都提交后进入CommitmentsReady
func (e *Engine) MakeCommitment(gameID, player string, commitment []byte) (*types.Game, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, err := e.loadGame(gameID)
	if err != nil {
		return nil, err
	}
	if g.Phase.IsTerminal() {
		return nil, types.ErrGameTerminal
	}
	if g.Phase != types.PhasePlayersReady {
		return nil, types.ErrPhaseConflict
	}
	if !g.IsPlayer(player) {
		return nil, types.ErrNotAPlayer
	}
	if err := flip.CheckCommitment(commitment); err != nil {
		return nil, err
	}

	if player == g.PlayerA {
		if len(g.CommitmentA) != 0 {
			return nil, types.ErrAlreadyCommitted
		}
		g.CommitmentA = commitment
	} else {
		if len(g.CommitmentB) != 0 {
			return nil, types.ErrAlreadyCommitted
		}
		g.CommitmentB = commitment
	}

	if len(g.CommitmentA) != 0 && len(g.CommitmentB) != 0 {
		g.Phase = types.PhaseCommitmentsReady
		g.Deadline = e.now() + e.cfg.RevealTimeout
	}
	if err := e.commit(g, nil, nil); err != nil {
		return nil, err
	}

	elog.Info("MakeCommitment", "gameId", gameID, "player", player, "phase", g.Phase)
	e.publish(types.EventCommitmentMade, &types.ReceiptCommitmentMade{
		GameID:     gameID,
		Player:     player,
		Commitment: commitment,
	})
	return g, nil
}

// RevealChoice 校验并存储一方的揭示。
// 第二个有效揭示触发结算，结算与本次迁移在同一把锁内原子完成
func (e *Engine) RevealChoice(gameID, player string, choice types.CoinSide, secret uint64) (*types.Game, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	g, err := e.loadGame(gameID)
	if err != nil {
		return nil, err
	}
	if g.Phase.IsTerminal() {
		return nil, types.ErrGameTerminal
	}
	if g.Phase != types.PhaseCommitmentsReady && g.Phase != types.PhaseRevealing {
		return nil, types.ErrPhaseConflict
	}
	if !g.IsPlayer(player) {
		return nil, types.ErrNotAPlayer
	}
	if choice != types.Heads && choice != types.Tails {
		return nil, types.ErrInvalidParam
	}
	if err := flip.ValidateSecret(secret); err != nil {
		return nil, err
	}
	if err := flip.VerifyCommitment(choice, secret, g.CommitmentOf(player)); err != nil {
		return nil, err
	}

	if player == g.PlayerA {
		if g.RevealA != nil {
			return nil, types.ErrAlreadyRevealed
		}
		g.RevealA = &types.Reveal{Choice: choice, Secret: secret}
	} else {
		if g.RevealB != nil {
			return nil, types.ErrAlreadyRevealed
		}
		g.RevealB = &types.Reveal{Choice: choice, Secret: secret}
	}
	g.Phase = types.PhaseRevealing

	elog.Info("RevealChoice", "gameId", gameID, "player", player, "choice", choice.String())

	if g.RevealCount() == 2 {
		if err := e.resolveLocked(g); err != nil {
			return nil, err
		}
	} else {
		if err := e.commit(g, nil, nil); err != nil {
			return nil, err
		}
	}

	e.publish(types.EventChoiceRevealed, &types.ReceiptChoiceRevealed{
		GameID: gameID,
		Player: player,
		Choice: choice,
		Secret: secret,
	})
	return g, nil
}
