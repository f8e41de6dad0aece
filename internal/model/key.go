package model

import (
	"strconv"
	"sync/atomic"
)

// Key identifies a node. Keys are unique within the process.
type Key string

// RootKey is the key of the single root node of every state.
const RootKey Key = "root"

var keyCounter atomic.Uint64

// NewKey returns a fresh process-unique key.
func NewKey() Key {
	return Key(strconv.FormatUint(keyCounter.Add(1), 10))
}

// reserveKey advances the key counter past k when k is numeric, so that
// keys kept from a parsed state never collide with generated ones.
func reserveKey(k Key) {
	n, err := strconv.ParseUint(string(k), 10, 64)
	if err != nil {
		return
	}
	for {
		cur := keyCounter.Load()
		if cur >= n || keyCounter.CompareAndSwap(cur, n) {
			return
		}
	}
}
