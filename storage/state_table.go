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

// A StateTable is the acknowledgment table of one context stored in a
// backend. Versions of the rows it writes come from its id provider.
type StateTable struct {
	backend Backend
	context byte
	ids     tank.OrderIDProvider
	logger  bark.Logger
}

// NewStateTable creates the table of context in backend.
func NewStateTable(backend Backend, context byte, ids tank.OrderIDProvider) *StateTable {
	return &StateTable{
		backend: backend,
		context: context,
		ids:     ids,
		logger:  logging.Logger("storage").WithField("context", context),
	}
}

func (t *StateTable) bounds(filter tank.StateFilter) (from, to []byte) {
	if filter.Root == "" {
		return []byte{t.context}, []byte{t.context + 1}
	}
	prefix := rootPrefix(t.context, filter.Root)
	if filter.MatchLifecycle {
		prefix = appendLifecycle(prefix, filter.Lifecycle)
	}
	return prefix, prefixEnd(prefix)
}

// Scan visits the rows matching filter in key order.
func (t *StateTable) Scan(filter tank.StateFilter, visit func(row tank.StateRow) bool) (bool, error) {
	from, to := t.bounds(filter)

	completed := true
	var decodeErr error
	err := t.backend.Scan(from, to, func(key, value []byte) bool {
		_, root, lifecycle, acker, err := DecodeStateKey(key)
		if err != nil {
			decodeErr = err
			return false
		}
		if filter.Acker != "" && acker != filter.Acker {
			return true
		}
		if filter.MatchLifecycle && lifecycle != filter.Lifecycle {
			return true
		}
		state, stamp, err := DecodeStateValue(value)
		if err != nil {
			decodeErr = err
			return false
		}

		completed = visit(tank.StateRow{
			Root:      root,
			Acker:     acker,
			Lifecycle: lifecycle,
			State:     state,
			Timestamp: stamp.Timestamp,
			Version:   stamp.Version,
		})
		return completed
	})
	if err == nil {
		err = decodeErr
	}
	if err != nil {
		t.logger.WithError(err).Warn("scan of state table failed")
		return false, err
	}
	return completed, nil
}

// Update stages the rows set by updates and merges them into the backend in
// one batch. It returns false when every staged row lost to a fresher stored
// row.
func (t *StateTable) Update(updates func(set tank.SetState) (bool, error)) (bool, error) {
	var entries []Entry
	ok, err := updates(func(root, acker tank.Member, lifecycle tank.Lifecycle, state tank.State, timestamp int64) {
		entries = append(entries, Entry{
			Key:   StateKey(t.context, root, lifecycle, acker),
			Value: StateValue(state, Stamp{Timestamp: timestamp, Version: t.ids.NextID()}),
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
		t.logger.WithError(err).Warn("update of state table failed")
		return false, err
	}
	return changed > 0, nil
}

// Clear removes every row whose root is m.
func (t *StateTable) Clear(m tank.Member) error {
	prefix := rootPrefix(t.context, m)
	n, err := t.backend.Delete(prefix, prefixEnd(prefix))
	if err != nil {
		return err
	}
	t.logger.WithFields(bark.Fields{
		"member": string(m),
		"rows":   n,
	}).Debug("cleared member")
	return nil
}
