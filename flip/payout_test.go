// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flip

import (
	"testing"

	"github.com/33cn/coinflip/types"
	"github.com/stretchr/testify/assert"
)

func TestPayout(t *testing.T) {
	pot, fee, payout := Payout(types.Coin, types.Coin, 700)
	assert.EqualValues(t, 2*types.Coin, pot)
	assert.EqualValues(t, 2*types.Coin*700/10000, fee)
	assert.EqualValues(t, pot-fee, payout)
	assert.NoError(t, CheckPayout(pot, fee, payout))
}

func TestPayoutConservation(t *testing.T) {
	//各种费率和金额下余数都归手续费，总量守恒
	for _, bet := range []int64{1, 3, 999, types.Coin, types.Coin + 1} {
		for _, bps := range []int32{0, 1, 299, 300, 999, 1000} {
			pot, fee, payout := Payout(bet, bet, bps)
			assert.Equal(t, 2*bet, payout+fee)
			assert.NoError(t, CheckPayout(pot, fee, payout))
		}
	}
}

func TestPayoutZeroFee(t *testing.T) {
	pot, fee, payout := Payout(types.Coin, types.Coin, 0)
	assert.EqualValues(t, 0, fee)
	assert.Equal(t, pot, payout)
}

func TestCheckPayoutImbalance(t *testing.T) {
	err := CheckPayout(200, 6, 193)
	assert.Equal(t, types.ErrPayoutImbalance, err)
	assert.True(t, types.IsIntegrity(err))

	assert.Equal(t, types.ErrPayoutImbalance, CheckPayout(-1, 0, -1))
}
