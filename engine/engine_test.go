// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package engine

import (
	"sync/atomic"
	"testing"

	"github.com/33cn/coinflip/common/db"
	"github.com/33cn/coinflip/flip"
	"github.com/33cn/coinflip/queue"
	"github.com/33cn/coinflip/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	addrA = "1A5Tv2wHG3uPHnA5cBJmNxAxxvbzS7Z5mE"
	addrB = "1B6Tv2wHG3uPHnA5cBJmNxAxxvbzS7Z5mE"
	addrC = "1C7Tv2wHG3uPHnA5cBJmNxAxxvbzS7Z5mE"
)

type testEnv struct {
	e   *Engine
	q   *queue.Queue
	cfg *types.Flip
	now int64
}

func newTestEnv(t *testing.T) *testEnv {
	storedb, err := db.NewGoMemDB("gomemdb", "", 128)
	require.NoError(t, err)
	cfg := types.DefaultConfig().Flip
	q := queue.New()
	e := New(cfg, storedb, q)

	env := &testEnv{e: e, q: q, cfg: cfg, now: 1700000000}
	e.SetTimeProvider(func() int64 { return env.now })

	require.NoError(t, e.Account().Deposit(addrA, 100*types.Coin))
	require.NoError(t, e.Account().Deposit(addrB, 100*types.Coin))
	return env
}

// totalValue 全体账户可用+冻结的总量，用于守恒断言
func (env *testEnv) totalValue() int64 {
	sum := int64(0)
	for _, addr := range []string{addrA, addrB, addrC, env.cfg.HouseAddr} {
		acc := env.e.Account().LoadAccount(addr)
		sum += acc.GetBalance() + acc.GetFrozen()
	}
	return sum
}

func (env *testEnv) createJoined(t *testing.T, bet int64) *types.Game {
	g, err := env.e.CreateGame(addrA, bet)
	require.NoError(t, err)
	g, err = env.e.JoinGame(g.GameID, addrB, bet)
	require.NoError(t, err)
	return g
}

func (env *testEnv) commitBoth(t *testing.T, g *types.Game, choiceA, choiceB types.CoinSide, secretA, secretB uint64) *types.Game {
	ca := flip.Commitment(choiceA, secretA)
	cb := flip.Commitment(choiceB, secretB)
	_, err := env.e.MakeCommitment(g.GameID, addrA, ca[:])
	require.NoError(t, err)
	out, err := env.e.MakeCommitment(g.GameID, addrB, cb[:])
	require.NoError(t, err)
	return out
}

func TestCreateGame(t *testing.T) {
	env := newTestEnv(t)

	g, err := env.e.CreateGame(addrA, types.Coin)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseWaitingForPlayer, g.Phase)
	assert.Equal(t, env.now+env.cfg.JoinTimeout, g.Deadline)
	assert.Equal(t, env.cfg.FeeBps, g.FeeBps)

	//押注已冻结
	acc := env.e.Account().LoadAccount(addrA)
	assert.Equal(t, types.Coin, acc.GetFrozen())
	assert.Equal(t, 99*types.Coin, acc.GetBalance())

	rec, err := env.e.GetEscrow(g.GameID)
	require.NoError(t, err)
	assert.Equal(t, types.Coin, rec.StakeA)
	assert.False(t, rec.Released)
}

func TestCreateGameValidation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.e.CreateGame("", types.Coin)
	assert.Equal(t, types.ErrInvalidAddress, err)

	_, err = env.e.CreateGame(addrA, env.cfg.MinBet-1)
	assert.Equal(t, types.ErrBetTooLow, err)

	_, err = env.e.CreateGame(addrA, env.cfg.MaxBet+1)
	assert.Equal(t, types.ErrBetTooHigh, err)

	//余额不足
	_, err = env.e.CreateGame(addrC, types.Coin)
	assert.Equal(t, types.ErrNoBalance, err)
}

func TestJoinGame(t *testing.T) {
	env := newTestEnv(t)
	g, err := env.e.CreateGame(addrA, types.Coin)
	require.NoError(t, err)

	//押注不等
	_, err = env.e.JoinGame(g.GameID, addrB, 2*types.Coin)
	assert.Equal(t, types.ErrBetMismatch, err)

	//不能和自己对局
	_, err = env.e.JoinGame(g.GameID, addrA, types.Coin)
	assert.Equal(t, types.ErrSelfPlay, err)

	g, err = env.e.JoinGame(g.GameID, addrB, types.Coin)
	require.NoError(t, err)
	assert.Equal(t, types.PhasePlayersReady, g.Phase)
	assert.Equal(t, env.now+env.cfg.CommitTimeout, g.Deadline)

	//再次加入属于状态冲突
	_, err = env.e.JoinGame(g.GameID, addrC, types.Coin)
	assert.Equal(t, types.ErrPhaseConflict, err)
	assert.True(t, types.IsStateConflict(err))
}

func TestMakeCommitment(t *testing.T) {
	env := newTestEnv(t)
	g := env.createJoined(t, types.Coin)

	ca := flip.Commitment(types.Heads, 1001)
	g2, err := env.e.MakeCommitment(g.GameID, addrA, ca[:])
	require.NoError(t, err)
	assert.Equal(t, types.PhasePlayersReady, g2.Phase)

	//重复承诺
	_, err = env.e.MakeCommitment(g.GameID, addrA, ca[:])
	assert.Equal(t, types.ErrAlreadyCommitted, err)

	//非玩家
	_, err = env.e.MakeCommitment(g.GameID, addrC, ca[:])
	assert.Equal(t, types.ErrNotAPlayer, err)

	//全零承诺
	_, err = env.e.MakeCommitment(g.GameID, addrB, make([]byte, 32))
	assert.Equal(t, types.ErrInvalidCommit, err)

	cb := flip.Commitment(types.Tails, 2002)
	g3, err := env.e.MakeCommitment(g.GameID, addrB, cb[:])
	require.NoError(t, err)
	assert.Equal(t, types.PhaseCommitmentsReady, g3.Phase)
	assert.Equal(t, env.now+env.cfg.RevealTimeout, g3.Deadline)
}

func TestCommitBeforeJoin(t *testing.T) {
	env := newTestEnv(t)
	g, err := env.e.CreateGame(addrA, types.Coin)
	require.NoError(t, err)

	ca := flip.Commitment(types.Heads, 1001)
	_, err = env.e.MakeCommitment(g.GameID, addrA, ca[:])
	assert.Equal(t, types.ErrPhaseConflict, err)

	//存储状态不变
	g2, err := env.e.GetGame(g.GameID)
	require.NoError(t, err)
	assert.Equal(t, g, g2)
}

func TestRevealAndResolve(t *testing.T) {
	env := newTestEnv(t)
	before := env.totalValue()

	resolvedCh := env.q.Sub(FlipTopic)

	g := env.createJoined(t, types.Coin)
	g = env.commitBoth(t, g, types.Heads, types.Tails, 1001, 2002)

	g, err := env.e.RevealChoice(g.GameID, addrA, types.Heads, 1001)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseRevealing, g.Phase)

	g, err = env.e.RevealChoice(g.GameID, addrB, types.Tails, 2002)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseResolved, g.Phase)
	require.NotNil(t, g.Outcome)
	assert.Contains(t, []string{addrA, addrB}, g.Winner)

	//赔付算术：正反对赌恰好一方猜中
	pot := 2 * types.Coin
	wantFee := pot * int64(env.cfg.FeeBps) / 10000
	assert.Equal(t, wantFee, g.HouseFee)
	assert.Equal(t, wantFee, env.e.Account().LoadAccount(env.cfg.HouseAddr).GetBalance())

	winner := env.e.Account().LoadAccount(g.Winner)
	assert.Equal(t, 100*types.Coin+types.Coin-wantFee, winner.GetBalance())
	assert.EqualValues(t, 0, winner.GetFrozen())

	//价值守恒
	assert.Equal(t, before, env.totalValue())

	//第三方可以复算审计
	assert.NoError(t, flip.ReplayResolution(g))

	//恰好一个resolved事件
	resolved := 0
	for len(resolvedCh) > 0 {
		msg := <-resolvedCh
		if msg.Ty == types.EventGameResolved {
			resolved++
			receipt := msg.Data.(*types.ReceiptGameResolved)
			assert.Equal(t, g.Winner, receipt.Winner)
			assert.Equal(t, pot-wantFee, receipt.WinnerPayout)
		}
	}
	assert.Equal(t, 1, resolved)

	//托管恰好释放一次
	rec, err := env.e.GetEscrow(g.GameID)
	require.NoError(t, err)
	assert.True(t, rec.Released)
}

func TestRevealBadCommitment(t *testing.T) {
	env := newTestEnv(t)
	g := env.createJoined(t, types.Coin)
	g = env.commitBoth(t, g, types.Heads, types.Tails, 1001, 2002)
	before := env.totalValue()

	//错误秘密
	_, err := env.e.RevealChoice(g.GameID, addrA, types.Heads, 1002)
	assert.Equal(t, types.ErrCommitMismatch, err)
	assert.True(t, types.IsValidation(err))

	//错误选择
	_, err = env.e.RevealChoice(g.GameID, addrA, types.Tails, 1001)
	assert.Equal(t, types.ErrCommitMismatch, err)

	//退化秘密
	_, err = env.e.RevealChoice(g.GameID, addrA, types.Heads, 0)
	assert.Equal(t, types.ErrWeakSecret, err)

	//阶段与资金不变
	g2, err := env.e.GetGame(g.GameID)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseCommitmentsReady, g2.Phase)
	assert.Equal(t, before, env.totalValue())
	assert.Equal(t, types.Coin, env.e.Account().LoadAccount(addrA).GetFrozen())
}

func TestTieEngagesTiebreak(t *testing.T) {
	env := newTestEnv(t)

	//双方都选正面，无论结果如何都会进入平局裁决或单边命中，
	//两种路径都必须产生唯一赢家
	g := env.createJoined(t, types.Coin)
	g = env.commitBoth(t, g, types.Heads, types.Heads, 1001, 2002)

	_, err := env.e.RevealChoice(g.GameID, addrA, types.Heads, 1001)
	require.NoError(t, err)
	g, err = env.e.RevealChoice(g.GameID, addrB, types.Heads, 2002)
	require.NoError(t, err)

	assert.Equal(t, types.PhaseResolved, g.Phase)
	assert.Contains(t, []string{addrA, addrB}, g.Winner)

	//反复查询不会触发二次结算
	first := g.Clone()
	for i := 0; i < 5; i++ {
		g2, err := env.e.GetGame(g.GameID)
		require.NoError(t, err)
		assert.Equal(t, first, g2)
	}
}

func TestResolveIdempotentAtEngine(t *testing.T) {
	env := newTestEnv(t)
	g := env.createJoined(t, types.Coin)
	g = env.commitBoth(t, g, types.Heads, types.Tails, 1001, 2002)
	_, err := env.e.RevealChoice(g.GameID, addrA, types.Heads, 1001)
	require.NoError(t, err)
	g, err = env.e.RevealChoice(g.GameID, addrB, types.Tails, 2002)
	require.NoError(t, err)

	winnerBalance := env.e.Account().LoadAccount(g.Winner).GetBalance()

	//引擎层面对已结算对局显式报已推进，绝不二次赔付
	_, err = env.e.ResolveGame(g.GameID)
	assert.Equal(t, types.ErrAlreadyAdvanced, err)
	assert.True(t, types.IsStateConflict(err))
	assert.Equal(t, winnerBalance, env.e.Account().LoadAccount(g.Winner).GetBalance())

	//记录的结果不变
	g2, err := env.e.GetGame(g.GameID)
	require.NoError(t, err)
	assert.Equal(t, g, g2)
}

func TestCancelGame(t *testing.T) {
	env := newTestEnv(t)
	g, err := env.e.CreateGame(addrA, types.Coin)
	require.NoError(t, err)

	//非创建者不能撤单
	_, err = env.e.CancelGame(g.GameID, addrB)
	assert.Equal(t, types.ErrNotAPlayer, err)

	g, err = env.e.CancelGame(g.GameID, addrA)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseCancelled, g.Phase)

	//原额退款零手续费
	acc := env.e.Account().LoadAccount(addrA)
	assert.Equal(t, 100*types.Coin, acc.GetBalance())
	assert.EqualValues(t, 0, acc.GetFrozen())
	assert.EqualValues(t, 0, env.e.Account().LoadAccount(env.cfg.HouseAddr).GetBalance())

	//终态吸收
	_, err = env.e.CancelGame(g.GameID, addrA)
	assert.Equal(t, types.ErrGameTerminal, err)
}

func TestCancelAfterJoin(t *testing.T) {
	env := newTestEnv(t)
	g := env.createJoined(t, types.Coin)

	_, err := env.e.CancelGame(g.GameID, addrA)
	assert.Equal(t, types.ErrPhaseConflict, err)
}

func TestClaimTimeoutCommitPhase(t *testing.T) {
	env := newTestEnv(t)
	g := env.createJoined(t, types.Coin)

	//A承诺，B一直不承诺
	ca := flip.Commitment(types.Heads, 1001)
	_, err := env.e.MakeCommitment(g.GameID, addrA, ca[:])
	require.NoError(t, err)

	//期限未到不可认领
	_, err = env.e.ClaimTimeout(g.GameID)
	assert.Equal(t, types.ErrDeadlineNotPassed, err)

	env.now += env.cfg.CommitTimeout + 1
	g, err = env.e.ClaimTimeout(g.GameID)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseTimedOut, g.Phase)
	assert.Empty(t, g.Winner)

	//双方各自拿回1.0押注，零手续费
	assert.Equal(t, 100*types.Coin, env.e.Account().LoadAccount(addrA).GetBalance())
	assert.Equal(t, 100*types.Coin, env.e.Account().LoadAccount(addrB).GetBalance())
	assert.EqualValues(t, 0, g.HouseFee)
	assert.EqualValues(t, 0, env.e.Account().LoadAccount(env.cfg.HouseAddr).GetBalance())
}

func TestClaimTimeoutOneReveal(t *testing.T) {
	env := newTestEnv(t)
	g := env.createJoined(t, types.Coin)
	g = env.commitBoth(t, g, types.Heads, types.Tails, 1001, 2002)

	_, err := env.e.RevealChoice(g.GameID, addrB, types.Tails, 2002)
	require.NoError(t, err)

	env.now += env.cfg.RevealTimeout + 1
	g, err = env.e.ClaimTimeout(g.GameID)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseTimedOut, g.Phase)

	//履约的揭示方独得全部奖池，零手续费
	assert.Equal(t, addrB, g.Winner)
	assert.Equal(t, 101*types.Coin, env.e.Account().LoadAccount(addrB).GetBalance())
	assert.Equal(t, 99*types.Coin, env.e.Account().LoadAccount(addrA).GetBalance())
	assert.EqualValues(t, 0, env.e.Account().LoadAccount(env.cfg.HouseAddr).GetBalance())
}

func TestClaimTimeoutUnjoined(t *testing.T) {
	env := newTestEnv(t)
	g, err := env.e.CreateGame(addrA, types.Coin)
	require.NoError(t, err)

	env.now += env.cfg.JoinTimeout + 1
	g, err = env.e.ClaimTimeout(g.GameID)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseTimedOut, g.Phase)
	assert.Equal(t, 100*types.Coin, env.e.Account().LoadAccount(addrA).GetBalance())
}

func TestTerminalAbsorbing(t *testing.T) {
	env := newTestEnv(t)
	g, err := env.e.CreateGame(addrA, types.Coin)
	require.NoError(t, err)
	g, err = env.e.CancelGame(g.GameID, addrA)
	require.NoError(t, err)

	ca := flip.Commitment(types.Heads, 1001)
	cases := []error{}
	_, err = env.e.JoinGame(g.GameID, addrB, types.Coin)
	cases = append(cases, err)
	_, err = env.e.MakeCommitment(g.GameID, addrA, ca[:])
	cases = append(cases, err)
	_, err = env.e.RevealChoice(g.GameID, addrA, types.Heads, 1001)
	cases = append(cases, err)
	_, err = env.e.ResolveGame(g.GameID)
	cases = append(cases, err)
	_, err = env.e.ClaimTimeout(g.GameID)
	cases = append(cases, err)

	for _, err := range cases {
		assert.Equal(t, types.ErrGameTerminal, err)
		assert.True(t, types.IsStateConflict(err))
	}
}

// spyDB 统计绕过batch的直接写
type spyDB struct {
	db.DB
	directSets int32
}

func (s *spyDB) Set(key []byte, value []byte) {
	atomic.AddInt32(&s.directSets, 1)
	s.DB.Set(key, value)
}

func (s *spyDB) SetSync(key []byte, value []byte) {
	atomic.AddInt32(&s.directSets, 1)
	s.DB.SetSync(key, value)
}

// 资金变更必须与阶段迁移落在同一个batch里，
// 任何迁移路径都不允许对底层存储的散写
func TestTransitionsWriteSingleBatch(t *testing.T) {
	memdb, err := db.NewGoMemDB("gomemdb", "", 128)
	require.NoError(t, err)
	spy := &spyDB{DB: memdb}
	cfg := types.DefaultConfig().Flip
	e := New(cfg, spy, nil)

	env := &testEnv{e: e, cfg: cfg, now: 1700000000}
	e.SetTimeProvider(func() int64 { return env.now })

	require.NoError(t, e.Account().Deposit(addrA, 100*types.Coin))
	require.NoError(t, e.Account().Deposit(addrB, 100*types.Coin))
	baseline := atomic.LoadInt32(&spy.directSets)

	//完整对局：创建、加入、双承诺、双揭示自动结算
	g, err := e.CreateGame(addrA, types.Coin)
	require.NoError(t, err)
	g, err = e.JoinGame(g.GameID, addrB, types.Coin)
	require.NoError(t, err)
	ca := flip.Commitment(types.Heads, 1001)
	cb := flip.Commitment(types.Tails, 2002)
	_, err = e.MakeCommitment(g.GameID, addrA, ca[:])
	require.NoError(t, err)
	_, err = e.MakeCommitment(g.GameID, addrB, cb[:])
	require.NoError(t, err)
	_, err = e.RevealChoice(g.GameID, addrA, types.Heads, 1001)
	require.NoError(t, err)
	g, err = e.RevealChoice(g.GameID, addrB, types.Tails, 2002)
	require.NoError(t, err)
	assert.Equal(t, types.PhaseResolved, g.Phase)

	//撤单路径
	g2, err := e.CreateGame(addrA, types.Coin)
	require.NoError(t, err)
	_, err = e.CancelGame(g2.GameID, addrA)
	require.NoError(t, err)

	//超时退款路径
	g3, err := e.CreateGame(addrA, types.Coin)
	require.NoError(t, err)
	_, err = e.JoinGame(g3.GameID, addrB, types.Coin)
	require.NoError(t, err)
	env.now += cfg.CommitTimeout + 1
	_, err = e.ClaimTimeout(g3.GameID)
	require.NoError(t, err)

	assert.Equal(t, baseline, atomic.LoadInt32(&spy.directSets))
}

func TestGameNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.e.GetGame("missing")
	assert.Equal(t, types.ErrGameNotFound, err)
}

func TestHeightMonotonic(t *testing.T) {
	env := newTestEnv(t)
	h0 := env.e.Height()
	g, err := env.e.CreateGame(addrA, types.Coin)
	require.NoError(t, err)
	h1 := env.e.Height()
	assert.Equal(t, h0+1, h1)

	_, err = env.e.JoinGame(g.GameID, addrB, types.Coin)
	require.NoError(t, err)
	assert.Equal(t, h1+1, env.e.Height())
}

func TestListGames(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.e.CreateGame(addrA, types.Coin)
	require.NoError(t, err)
	_, err = env.e.CreateGame(addrB, types.Coin)
	require.NoError(t, err)

	games, err := env.e.ListGames()
	require.NoError(t, err)
	assert.Len(t, games, 2)
}
