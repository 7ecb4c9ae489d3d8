// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flip

import "github.com/33cn/coinflip/types"

// Payout 赔付算术：fee向下取整，舍入余数归入手续费而不是赔付，
// 保证 winnerPayout + houseFee == totalPot 精确成立
func Payout(betA, betB int64, feeBps int32) (totalPot, houseFee, winnerPayout int64) {
	totalPot = betA + betB
	houseFee = totalPot * int64(feeBps) / 10000
	winnerPayout = totalPot - houseFee
	return
}

// CheckPayout 价值守恒校验，失败属于完整性错误
func CheckPayout(totalPot, houseFee, winnerPayout int64) error {
	if totalPot < 0 || houseFee < 0 || winnerPayout < 0 {
		return types.ErrPayoutImbalance
	}
	if winnerPayout+houseFee != totalPot {
		return types.ErrPayoutImbalance
	}
	return nil
}
