// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

/*
Package account 实现押注资金的托管账本。
押注在创建/加入时冻结，终态迁移时恰好释放一次。
*/
package account

import (
	dbm "github.com/33cn/coinflip/common/db"
	"github.com/33cn/coinflip/types"
	log "github.com/inconshreveable/log15"
)

var alog = log.New("module", "account")

// DB for account
type DB struct {
	db               dbm.DB
	accountKeyPrefix []byte
}

// NewAccountDB 创建账本
func NewAccountDB(db dbm.DB) *DB {
	acc := &DB{accountKeyPrefix: []byte("acc-coins-")}
	acc.db = db
	return acc
}

// AccountKey 账户的存储key
func (acc *DB) AccountKey(address string) (key []byte) {
	key = append(key, acc.accountKeyPrefix...)
	key = append(key, []byte(address)...)
	return key
}

// LoadAccount 读取账户，不存在视为零余额账户
func (acc *DB) LoadAccount(addr string) *types.Account {
	value := acc.db.Get(acc.AccountKey(addr))
	if value == nil {
		return &types.Account{Addr: addr}
	}
	var acc1 types.Account
	err := types.Decode(value, &acc1)
	if err != nil {
		panic(err) //数据库已经损坏
	}
	return &acc1
}

// SaveAccount 落盘账户
func (acc *DB) SaveAccount(acc1 *types.Account) {
	value, err := types.Encode(acc1)
	if err != nil {
		panic(err)
	}
	acc.db.Set(acc.AccountKey(acc1.Addr), value)
}

// Deposit 入金，测试与初始化使用
func (acc *DB) Deposit(addr string, amount int64) error {
	if !types.CheckAmount(amount) {
		return types.ErrAmount
	}
	acc1 := acc.LoadAccount(addr)
	acc1.Balance += amount
	acc.SaveAccount(acc1)
	return nil
}

// CheckTransfer 校验转账可行性
func (acc *DB) CheckTransfer(from, to string, amount int64) error {
	if !types.CheckAmount(amount) {
		return types.ErrAmount
	}
	accFrom := acc.LoadAccount(from)
	if accFrom.GetBalance()-amount < 0 {
		return types.ErrNoBalance
	}
	return nil
}

// Transfer 可用余额间转账
func (acc *DB) Transfer(from, to string, amount int64) (*types.ReceiptAccountTransfer, error) {
	if !types.CheckAmount(amount) {
		return nil, types.ErrAmount
	}
	accFrom := acc.LoadAccount(from)
	accTo := acc.LoadAccount(to)
	if accFrom.Addr == accTo.Addr {
		return nil, types.ErrInvalidParam
	}
	if accFrom.GetBalance()-amount < 0 {
		alog.Error("Transfer", "balance", accFrom.GetBalance(), "amount", amount)
		return nil, types.ErrNoBalance
	}
	copyfrom := *accFrom
	accFrom.Balance -= amount
	accTo.Balance += amount
	acc.SaveAccount(accFrom)
	acc.SaveAccount(accTo)
	return &types.ReceiptAccountTransfer{Prev: &copyfrom, Current: accFrom}, nil
}

// Frozen 冻结押注金额
func (acc *DB) Frozen(addr string, amount int64) (*types.ReceiptAccountTransfer, error) {
	if !types.CheckAmount(amount) {
		return nil, types.ErrAmount
	}
	acc1 := acc.LoadAccount(addr)
	if acc1.Balance-amount < 0 {
		alog.Error("Frozen", "balance", acc1.Balance, "amount", amount)
		return nil, types.ErrNoBalance
	}
	copyacc := *acc1
	acc1.Balance -= amount
	acc1.Frozen += amount
	acc.SaveAccount(acc1)
	return &types.ReceiptAccountTransfer{Prev: &copyacc, Current: acc1}, nil
}

// Active 解冻（退款路径），原路返还到同一账户的可用余额
func (acc *DB) Active(addr string, amount int64) (*types.ReceiptAccountTransfer, error) {
	if !types.CheckAmount(amount) {
		return nil, types.ErrAmount
	}
	acc1 := acc.LoadAccount(addr)
	if acc1.Frozen-amount < 0 {
		alog.Error("Active", "frozen", acc1.Frozen, "amount", amount)
		return nil, types.ErrFrozen
	}
	copyacc := *acc1
	acc1.Balance += amount
	acc1.Frozen -= amount
	acc.SaveAccount(acc1)
	return &types.ReceiptAccountTransfer{Prev: &copyacc, Current: acc1}, nil
}

// TransferFrozen 从冻结余额直接支付给他人（赔付与手续费路径）
func (acc *DB) TransferFrozen(from, to string, amount int64) (*types.ReceiptAccountTransfer, error) {
	if !types.CheckAmount(amount) {
		return nil, types.ErrAmount
	}
	accFrom := acc.LoadAccount(from)
	if accFrom.Frozen-amount < 0 {
		alog.Error("TransferFrozen", "frozen", accFrom.Frozen, "amount", amount)
		return nil, types.ErrFrozen
	}
	copyfrom := *accFrom
	accFrom.Frozen -= amount
	acc.SaveAccount(accFrom)

	accTo := acc.LoadAccount(to)
	accTo.Balance += amount
	acc.SaveAccount(accTo)
	return &types.ReceiptAccountTransfer{Prev: &copyfrom, Current: accFrom}, nil
}
