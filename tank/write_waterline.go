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

package tank

// WriteWaterline writes the claims of members into the acknowledgment table
// of one context.
type WriteWaterline struct {
	storage   StateStorage
	lifecycle MemberLifecycle
}

// NewWriteWaterline creates the write path of storage.
func NewWriteWaterline(storage StateStorage, lifecycle MemberLifecycle) *WriteWaterline {
	return &WriteWaterline{
		storage:   storage,
		lifecycle: lifecycle,
	}
}

// Put claims state at timestamp for m in the current lifecycle of m and
// returns whether the claim was stored. Nothing is written when m has no
// lifecycle, and a claim older than the stored one is discarded.
func (w *WriteWaterline) Put(m Member, state State, timestamp int64) (bool, error) {
	lifecycle, ok, err := w.lifecycle.Lifecycle(m)
	if err != nil || !ok {
		return false, err
	}
	return w.storage.Update(func(set SetState) (bool, error) {
		set(m, m, lifecycle, state, timestamp)
		return true, nil
	})
}
