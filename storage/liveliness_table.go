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

package storage

import (
	"github.com/uber-common/bark"
	"github.com/uber/aquarium-go/logging"
	"github.com/uber/aquarium-go/tank"
)

// A LivelinessTable is the heartbeat table stored in a backend.
type LivelinessTable struct {
	backend Backend
	ids     tank.OrderIDProvider
	logger  bark.Logger
}

// NewLivelinessTable creates the heartbeat table in backend.
func NewLivelinessTable(backend Backend, ids tank.OrderIDProvider) *LivelinessTable {
	return &LivelinessTable{
		backend: backend,
		ids:     ids,
		logger:  logging.Logger("storage").WithField("context", ContextLiveliness),
	}
}

// Scan visits the heartbeat rows of root, or of every root when root is the
// zero Member. A non zero acker restricts the scan to that acker.
func (t *LivelinessTable) Scan(root, acker tank.Member, visit func(row tank.LivelinessRow) bool) (bool, error) {
	from, to := []byte{ContextLiveliness}, []byte{ContextLiveliness + 1}
	if root != "" {
		from = rootPrefix(ContextLiveliness, root)
		to = prefixEnd(from)
	}

	completed := true
	var decodeErr error
	err := t.backend.Scan(from, to, func(key, value []byte) bool {
		r, a, err := DecodeLivelinessKey(key)
		if err != nil {
			decodeErr = err
			return false
		}
		if acker != "" && a != acker {
			return true
		}
		stamp, err := DecodeLivelinessValue(value)
		if err != nil {
			decodeErr = err
			return false
		}
		completed = visit(tank.LivelinessRow{
			Root:      r,
			Acker:     a,
			Timestamp: stamp.Timestamp,
			Version:   stamp.Version,
		})
		return completed
	})
	if err == nil {
		err = decodeErr
	}
	if err != nil {
		t.logger.WithError(err).Warn("scan of liveliness table failed")
		return false, err
	}
	return completed, nil
}

// Update stages the heartbeats set by updates and merges them into the
// backend in one batch. It returns false when every staged heartbeat lost to
// a fresher stored one.
func (t *LivelinessTable) Update(updates func(set tank.SetLiveliness) (bool, error)) (bool, error) {
	var entries []Entry
	ok, err := updates(func(root, acker tank.Member, timestamp int64) {
		entries = append(entries, Entry{
			Key:   LivelinessKey(root, acker),
			Value: LivelinessValue(Stamp{Timestamp: timestamp, Version: t.ids.NextID()}),
		})
	})
	if err != nil || !ok {
		return false, err
	}
	if len(entries) == 0 {
		return true, nil
	}
	changed, err := t.backend.Merge(entries, MaxStamp)
	if err != nil {
		t.logger.WithError(err).Warn("update of liveliness table failed")
		return false, err
	}
	return changed > 0, nil
}

// Get returns the timestamp acker stored for root, or -1.
func (t *LivelinessTable) Get(root, acker tank.Member) (int64, error) {
	value, ok, err := t.backend.Get(LivelinessKey(root, acker))
	if err != nil || !ok {
		return -1, err
	}
	stamp, err := DecodeLivelinessValue(value)
	if err != nil {
		return -1, err
	}
	return stamp.Timestamp, nil
}

// Clear removes every heartbeat whose root is m.
func (t *LivelinessTable) Clear(m tank.Member) error {
	prefix := rootPrefix(ContextLiveliness, m)
	_, err := t.backend.Delete(prefix, prefixEnd(prefix))
	return err
}
