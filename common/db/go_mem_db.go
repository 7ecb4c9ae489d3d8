// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package db

import (
	"sort"
	"strings"
	"sync"

	log "github.com/inconshreveable/log15"
)

var mlog = log.New("module", "db.memdb")

// memdb 无需区分同步与异步操作

func init() {
	dbCreator := func(name string, dir string, cache int) (DB, error) {
		return NewGoMemDB(name, dir, cache)
	}
	registerDBCreator(MemDBBackendStr, dbCreator, false)
}

// GoMemDB 内存KV，测试和单进程模式使用
type GoMemDB struct {
	db   map[string][]byte
	lock sync.RWMutex
}

// NewGoMemDB 创建内存KV
func NewGoMemDB(name string, dir string, cache int) (*GoMemDB, error) {
	return &GoMemDB{
		db: make(map[string][]byte),
	}, nil
}

func copyBytes(b []byte) (copiedBytes []byte) {
	if b == nil {
		return nil
	}
	copiedBytes = make([]byte, len(b))
	copy(copiedBytes, b)
	return copiedBytes
}

// Get 读取，不存在返回nil
func (db *GoMemDB) Get(key []byte) []byte {
	db.lock.RLock()
	defer db.lock.RUnlock()

	if entry, ok := db.db[string(key)]; ok {
		return copyBytes(entry)
	}
	return nil
}

// Set 写入
func (db *GoMemDB) Set(key []byte, value []byte) {
	db.lock.Lock()
	defer db.lock.Unlock()

	db.db[string(key)] = copyBytes(value)
}

// SetSync 写入
func (db *GoMemDB) SetSync(key []byte, value []byte) {
	db.Set(key, value)
}

// Delete 删除
func (db *GoMemDB) Delete(key []byte) {
	db.lock.Lock()
	defer db.lock.Unlock()

	delete(db.db, string(key))
}

// Close 关闭
func (db *GoMemDB) Close() {
	db.lock.Lock()
	defer db.lock.Unlock()

	db.db = make(map[string][]byte)
}

// List 按前缀列出value，key有序
func (db *GoMemDB) List(prefix []byte) [][]byte {
	db.lock.RLock()
	defer db.lock.RUnlock()

	var keys []string
	for k := range db.db {
		if strings.HasPrefix(k, string(prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	values := make([][]byte, 0, len(keys))
	for _, k := range keys {
		values = append(values, copyBytes(db.db[k]))
	}
	return values
}

// NewBatch 创建批量写
func (db *GoMemDB) NewBatch(sync bool) Batch {
	return &memBatch{db: db}
}

type memBatch struct {
	db     *GoMemDB
	writes []kvPair
}

type kvPair struct {
	key    []byte
	value  []byte
	delete bool
}

func (b *memBatch) Set(key, value []byte) {
	b.writes = append(b.writes, kvPair{copyBytes(key), copyBytes(value), false})
}

func (b *memBatch) Delete(key []byte) {
	b.writes = append(b.writes, kvPair{copyBytes(key), nil, true})
}

func (b *memBatch) Write() {
	b.db.lock.Lock()
	defer b.db.lock.Unlock()

	for _, w := range b.writes {
		if w.delete {
			delete(b.db.db, string(w.key))
		} else {
			b.db.db[string(w.key)] = w.value
		}
	}
	b.writes = nil
}
