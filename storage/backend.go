// Copyright (c) 2016 Uber Technologies, Inc.
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

// Package storage implements the acknowledgment and heartbeat tables of an
// aquarium on top of an ordered key value backend.
package storage

import (
	"bytes"
	"sync"
)

// An Entry is one raw key value pair of a backend.
type Entry struct {
	Key   []byte
	Value []byte
}

// MergeFunc combines the stored value of a key with an incoming one. existing
// is nil when the key is absent.
type MergeFunc func(existing, incoming []byte) []byte

// A Backend is an ordered key value store.
type Backend interface {
	// Get returns the value stored under key.
	Get(key []byte) ([]byte, bool, error)
	// Scan visits the keys in [from, to) in ascending order until visit
	// returns false. A nil to scans to the end of the keyspace.
	Scan(from, to []byte, visit func(key, value []byte) bool) error
	// Merge stores every entry merged with its stored value and returns
	// how many stored values changed. Either all entries are merged or none
	// is.
	Merge(entries []Entry, merge MergeFunc) (int, error)
	// Delete removes the keys in [from, to) and returns how many it removed.
	Delete(from, to []byte) (int, error)
}

// MemoryBackend is a Backend held in memory by a red black tree.
type MemoryBackend struct {
	sync.RWMutex
	tree redBlackTree
}

// NewMemoryBackend creates an empty in memory backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Get returns the value stored under key.
func (b *MemoryBackend) Get(key []byte) ([]byte, bool, error) {
	b.RLock()
	value, ok := b.tree.Get(key)
	b.RUnlock()
	return value, ok, nil
}

// Scan visits a snapshot of the keys in [from, to). The backend is not
// locked while visit runs, so visit may read or write the backend.
func (b *MemoryBackend) Scan(from, to []byte, visit func(key, value []byte) bool) error {
	var entries []Entry
	b.RLock()
	b.tree.Walk(from, to, func(key, value []byte) bool {
		entries = append(entries, Entry{Key: key, Value: value})
		return true
	})
	b.RUnlock()

	for _, e := range entries {
		if !visit(e.Key, e.Value) {
			break
		}
	}
	return nil
}

// Merge stores the entries under one lock.
func (b *MemoryBackend) Merge(entries []Entry, merge MergeFunc) (int, error) {
	b.Lock()
	defer b.Unlock()

	changed := 0
	for _, e := range entries {
		existing, ok := b.tree.Get(e.Key)
		merged := merge(existing, e.Value)
		if ok && bytes.Equal(merged, existing) {
			continue
		}
		b.tree.Put(append([]byte(nil), e.Key...), merged)
		changed++
	}
	return changed, nil
}

// Delete removes the keys in [from, to).
func (b *MemoryBackend) Delete(from, to []byte) (int, error) {
	b.Lock()
	defer b.Unlock()

	var keys [][]byte
	b.tree.Walk(from, to, func(key, value []byte) bool {
		keys = append(keys, key)
		return true
	})
	for _, key := range keys {
		b.tree.Delete(key)
	}
	return len(keys), nil
}

// Len returns the number of keys stored.
func (b *MemoryBackend) Len() int {
	b.RLock()
	defer b.RUnlock()
	return b.tree.Size()
}
