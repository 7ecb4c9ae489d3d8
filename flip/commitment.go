// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package flip 公平抛币协议的纯函数核心：承诺编码、秘密生成、
// 结果判定与赔付算术。引擎和客户端共用同一份实现，禁止各自另写一份
package flip

import (
	"bytes"
	"encoding/binary"

	"github.com/33cn/coinflip/common"
	"github.com/33cn/coinflip/types"
)

// 承诺原文固定16字节：1字节选择 + 7字节补零 + 8字节小端秘密
const commitBufSize = 16

// Commitment 计算绑定(choice, secret)的承诺摘要
// 双重哈希：单层哈希下对手拿到摘要后可以对1比特的choice穷举
func Commitment(choice types.CoinSide, secret uint64) [32]byte {
	var buf [commitBufSize]byte
	buf[0] = byte(choice)
	binary.LittleEndian.PutUint64(buf[8:], secret)
	return common.Sha2Sum(buf[:])
}

// VerifyCommitment 重算并严格比对承诺，任何不一致都是校验错误而不是软失败
func VerifyCommitment(choice types.CoinSide, secret uint64, digest []byte) error {
	if len(digest) != types.CommitmentSize {
		return types.ErrInvalidCommit
	}
	expect := Commitment(choice, secret)
	if !bytes.Equal(expect[:], digest) {
		return types.ErrCommitMismatch
	}
	return nil
}

// CheckCommitment 承诺本身的结构校验：长度32字节且非全零
func CheckCommitment(digest []byte) error {
	if len(digest) != types.CommitmentSize {
		return types.ErrInvalidCommit
	}
	allZero := true
	for _, b := range digest {
		if b != 0 {
			allZero = false
			break
		}
	}
	if allZero {
		return types.ErrInvalidCommit
	}
	return nil
}
