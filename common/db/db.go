// Copyright Fuzamei Corp. 2018 All Rights Reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package db 提供统一的KV存储接口，权威对局记录和托管账本都落在这里
package db

import (
	"fmt"
)

// DB 存储接口
type DB interface {
	Get(key []byte) []byte
	Set(key []byte, value []byte)
	SetSync(key []byte, value []byte)
	Delete(key []byte)
	Close()
	NewBatch(sync bool) Batch
	// List 返回指定前缀下的所有value
	List(prefix []byte) [][]byte
}

// Batch 批量写，终态结算的落盘必须走批量写保证原子性
type Batch interface {
	Set(key, value []byte)
	Delete(key []byte)
	Write()
}

const (
	// GoLevelDBBackendStr goleveldb后端
	GoLevelDBBackendStr = "leveldb"
	// MemDBBackendStr 内存后端，测试用
	MemDBBackendStr = "memdb"
)

type dbCreator func(name string, dir string, cache int) (DB, error)

var backends = map[string]dbCreator{}

func registerDBCreator(backend string, creator dbCreator, force bool) {
	_, ok := backends[backend]
	if !force && ok {
		return
	}
	backends[backend] = creator
}

// NewDB 创建指定后端的存储
func NewDB(name string, backend string, dir string, cache int) DB {
	dbCreator, ok := backends[backend]
	if !ok {
		fmt.Printf("Error initializing DB: %v\n", backend)
		panic("initializing DB error")
	}
	db, err := dbCreator(name, dir, cache)
	if err != nil {
		fmt.Printf("Error initializing DB: %v\n", err)
		panic("initializing DB error")
	}
	return db
}
