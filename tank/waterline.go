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

import (
	"fmt"
	"math"
)

// Forever is the alive-until timestamp of a member that never expires.
const Forever int64 = math.MaxInt64

// A Waterline is an immutable snapshot of the state a member claims, when it
// claimed it and whether a quorum acknowledged the claim.
//
// Waterlines cannot be compared with ==. Use CheckEquals or Compare, which
// make explicit that the version is ignored or used as a tie breaker.
type Waterline struct {
	_ [0]func()

	member     Member
	state      State
	timestamp  int64
	version    int64
	atQuorum   bool
	aliveUntil int64
}

// NewWaterline creates a waterline that never expires.
func NewWaterline(member Member, state State, timestamp, version int64, atQuorum bool) *Waterline {
	return NewWaterlineAliveUntil(member, state, timestamp, version, atQuorum, Forever)
}

// NewWaterlineAliveUntil creates a waterline that is alive until the given
// unix time in milliseconds.
func NewWaterlineAliveUntil(member Member, state State, timestamp, version int64, atQuorum bool, aliveUntil int64) *Waterline {
	return &Waterline{
		member:     member,
		state:      state,
		timestamp:  timestamp,
		version:    version,
		atQuorum:   atQuorum,
		aliveUntil: aliveUntil,
	}
}

// Member returns the member the waterline belongs to.
func (w *Waterline) Member() Member { return w.member }

// State returns the claimed state.
func (w *Waterline) State() State { return w.state }

// Timestamp returns the proposal time of the claim.
func (w *Waterline) Timestamp() int64 { return w.timestamp }

// Version returns the unique version the claim was written with.
func (w *Waterline) Version() int64 { return w.version }

// AtQuorum returns whether a quorum acknowledged the claim.
func (w *Waterline) AtQuorum() bool { return w.atQuorum }

// AliveUntil returns the unix time in milliseconds the claim expires at.
func (w *Waterline) AliveUntil() int64 { return w.aliveUntil }

// IsAlive returns whether the claim has not expired at nowMS.
func (w *Waterline) IsAlive(nowMS int64) bool {
	return nowMS <= w.aliveUntil
}

func (w *Waterline) String() string {
	if w == nil {
		return "Waterline{nil}"
	}
	return fmt.Sprintf("Waterline{member=%q, state=%v, timestamp=%d, version=%d, atQuorum=%t}",
		string(w.member), w.state, w.timestamp, w.version, w.atQuorum)
}

// CheckEquals returns whether a and b claim the same state for the same
// member at the same timestamp with the same quorum. Versions are unique per
// write and are not compared.
func CheckEquals(a, b *Waterline) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	return a.timestamp == b.timestamp &&
		a.atQuorum == b.atQuorum &&
		a.member == b.member &&
		a.state == b.state
}

// Compare orders waterlines by priority: a negative result means a wins over
// b. Fresher timestamps win, then higher versions, then claims at quorum,
// then the lower state and finally the lower member.
func Compare(a, b *Waterline) int {
	if c := -compareInt64(a.timestamp, b.timestamp); c != 0 {
		return c
	}
	if c := -compareInt64(a.version, b.version); c != 0 {
		return c
	}
	if a.atQuorum != b.atQuorum {
		if a.atQuorum {
			return -1
		}
		return 1
	}
	if a.state != b.state {
		if a.state < b.state {
			return -1
		}
		return 1
	}
	return CompareMembers(a.member, b.member)
}

func compareInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
