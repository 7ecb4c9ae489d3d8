// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package types

// Account 账户：可用余额与冻结余额（托管中的押注）
type Account struct {
	Addr    string `json:"addr"`
	Balance int64  `json:"balance"`
	Frozen  int64  `json:"frozen"`
}

// GetBalance 可用余额
func (acc *Account) GetBalance() int64 {
	if acc == nil {
		return 0
	}
	return acc.Balance
}

// GetFrozen 冻结余额
func (acc *Account) GetFrozen() int64 {
	if acc == nil {
		return 0
	}
	return acc.Frozen
}

// ReceiptAccountTransfer 账户变更回执，保留变更前后的完整状态
type ReceiptAccountTransfer struct {
	Prev    *Account `json:"prev"`
	Current *Account `json:"current"`
}
