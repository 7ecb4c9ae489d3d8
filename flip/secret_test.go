// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flip

import (
	"math"
	"testing"

	"github.com/33cn/coinflip/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateSecret(t *testing.T) {
	assert.Equal(t, types.ErrWeakSecret, ValidateSecret(0))
	assert.Equal(t, types.ErrWeakSecret, ValidateSecret(1))
	assert.Equal(t, types.ErrWeakSecret, ValidateSecret(math.MaxUint64))
	assert.NoError(t, ValidateSecret(2))
	assert.NoError(t, ValidateSecret(math.MaxUint64-1))
}

func TestGenerateSecret(t *testing.T) {
	seen := make(map[uint64]bool)
	for i := 0; i < 10000; i++ {
		secret, err := GenerateSecret()
		require.NoError(t, err)
		require.NoError(t, ValidateSecret(secret))
		seen[secret] = true
	}
	//碰撞在64位空间内不应出现
	assert.Len(t, seen, 10000)
}
