// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package queue 模块间的事件通道。
// 引擎在每次状态迁移时发布事件，通知、历史等消费方只读订阅。
// 发布是fire-and-forget的：消费方缺席或积压永远不会阻塞引擎
package queue

import (
	"sync"

	log "github.com/inconshreveable/log15"
)

var qlog = log.New("module", "queue")

// DefaultChanBuffer 每个订阅通道的缓冲大小
const DefaultChanBuffer = 1024

// Message 事件消息
type Message struct {
	Topic string
	Ty    int64
	Data  interface{}
}

// Queue 多对多事件队列
type Queue struct {
	mu       sync.RWMutex
	subs     map[string][]chan Message
	isClosed bool
}

// New 创建事件队列
func New() *Queue {
	return &Queue{subs: make(map[string][]chan Message)}
}

// NewMessage 构造消息
func (q *Queue) NewMessage(topic string, ty int64, data interface{}) Message {
	return Message{Topic: topic, Ty: ty, Data: data}
}

// Sub 订阅指定topic，返回只读通道
func (q *Queue) Sub(topic string) <-chan Message {
	q.mu.Lock()
	defer q.mu.Unlock()

	ch := make(chan Message, DefaultChanBuffer)
	if q.isClosed {
		close(ch)
		return ch
	}
	q.subs[topic] = append(q.subs[topic], ch)
	return ch
}

// Publish 发布消息，订阅方通道满时丢弃并告警，绝不阻塞发布方
func (q *Queue) Publish(msg Message) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.isClosed {
		return
	}
	for _, ch := range q.subs[msg.Topic] {
		select {
		case ch <- msg:
		default:
			qlog.Warn("Publish drop", "topic", msg.Topic, "ty", msg.Ty)
		}
	}
}

// Close 关闭队列并通知所有订阅方
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.isClosed {
		return
	}
	q.isClosed = true
	for _, chs := range q.subs {
		for _, ch := range chs {
			close(ch)
		}
	}
	q.subs = make(map[string][]chan Message)
	qlog.Info("queue closed")
}
