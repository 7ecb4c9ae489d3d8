// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package history

import (
	"testing"
	"time"

	"github.com/33cn/coinflip/common/db"
	"github.com/33cn/coinflip/queue"
	"github.com/33cn/coinflip/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *queue.Queue) {
	memdb, err := db.NewGoMemDB("gomemdb", "", 128)
	require.NoError(t, err)
	q := queue.New()
	s := New(memdb)
	s.Start(q.Sub("flip"))
	return s, q
}

// 消费goroutine只有在队列关闭后才退出：
// 关停顺序必须是先Close队列再Wait，反过来会永久阻塞
func TestWaitReturnsAfterQueueClose(t *testing.T) {
	s, q := newTestStore(t)

	done := make(chan struct{})
	go func() {
		s.Wait()
		close(done)
	}()

	select {
	case <-done:
		t.Fatal("Wait returned while the queue is still open")
	case <-time.After(50 * time.Millisecond):
	}

	q.Close()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after queue close")
	}
}

func TestRecordTerminalEvents(t *testing.T) {
	s, q := newTestStore(t)

	q.Publish(q.NewMessage("flip", types.EventGameResolved, &types.ReceiptGameResolved{
		GameID:       "g1",
		Winner:       "addr1",
		Outcome:      types.Heads,
		WinnerPayout: 194000000,
		HouseFee:     6000000,
	}))
	q.Publish(q.NewMessage("flip", types.EventGameCancelled, &types.ReceiptGameCancelled{
		GameID: "g2",
		Refund: types.Coin,
	}))
	//非终态事件不入历史
	q.Publish(q.NewMessage("flip", types.EventPlayerJoined, &types.ReceiptPlayerJoined{
		GameID:  "g3",
		PlayerB: "addr2",
	}))
	q.Close()
	s.Wait()

	rec, err := s.Get("g1")
	require.NoError(t, err)
	assert.Equal(t, "resolved", rec.Name)
	assert.EqualValues(t, types.EventGameResolved, rec.Event)

	var detail types.ReceiptGameResolved
	require.NoError(t, types.Decode(rec.Detail, &detail))
	assert.Equal(t, "addr1", detail.Winner)
	assert.EqualValues(t, 194000000, detail.WinnerPayout)

	_, err = s.Get("g3")
	assert.Equal(t, types.ErrGameNotFound, err)

	records, err := s.List()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}
