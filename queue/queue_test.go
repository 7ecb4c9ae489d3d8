// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPubSub(t *testing.T) {
	q := New()
	defer q.Close()

	ch1 := q.Sub("flip")
	ch2 := q.Sub("flip")

	q.Publish(q.NewMessage("flip", 1, "hello"))

	msg := <-ch1
	assert.EqualValues(t, 1, msg.Ty)
	assert.Equal(t, "hello", msg.Data)

	msg = <-ch2
	assert.Equal(t, "hello", msg.Data)
}

func TestPublishNoSubscriber(t *testing.T) {
	q := New()
	defer q.Close()

	//没有订阅方时发布直接丢弃，不会panic也不会阻塞
	q.Publish(q.NewMessage("nobody", 1, nil))
}

func TestPublishFullChannel(t *testing.T) {
	q := New()
	defer q.Close()

	ch := q.Sub("flip")
	//灌满缓冲之后继续发布必须立即返回
	for i := 0; i < DefaultChanBuffer+10; i++ {
		q.Publish(q.NewMessage("flip", int64(i), nil))
	}
	assert.Len(t, ch, DefaultChanBuffer)
}

func TestClose(t *testing.T) {
	q := New()
	ch := q.Sub("flip")
	q.Close()

	_, ok := <-ch
	assert.False(t, ok)

	//关闭后的操作全部为no-op
	q.Publish(q.NewMessage("flip", 1, nil))
	ch2 := q.Sub("flip")
	_, ok = <-ch2
	require.False(t, ok)
}
