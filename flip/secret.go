// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flip

import (
	crand "crypto/rand"
	"encoding/binary"
	"math"

	"github.com/33cn/coinflip/types"
)

// ValidateSecret 秘密域校验：0、1和最大值属于退化值，
// 会让承诺更容易被穷举或者泄露意图
func ValidateSecret(secret uint64) error {
	if secret <= 1 || secret == math.MaxUint64 {
		return types.ErrWeakSecret
	}
	return nil
}

// GenerateSecret 生成密码学安全的均匀64位秘密，退化值重采样
func GenerateSecret() (uint64, error) {
	var buf [8]byte
	for {
		if _, err := crand.Read(buf[:]); err != nil {
			return 0, err
		}
		secret := binary.LittleEndian.Uint64(buf[:])
		if ValidateSecret(secret) == nil {
			return secret, nil
		}
	}
}
