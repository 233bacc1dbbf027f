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

// LivelyEndState judges whether a member settled as leader or follower. It is
// a snapshot and never changes once created.
type LivelyEndState struct {
	_ [0]func()

	oracle  LivenessOracle
	current *Waterline
	desired *Waterline
	leader  *Waterline
}

// AlwaysOnline is an end state that is always online.
var AlwaysOnline = NewLivelyEndState(nil, NewWaterline("", Follower, 0, 0, true), NewWaterline("", Follower, 0, 0, true), nil)

// NewLivelyEndState creates the judgement of the given waterlines. Without an
// oracle the state is online as soon as current is at quorum.
func NewLivelyEndState(oracle LivenessOracle, current, desired, leader *Waterline) *LivelyEndState {
	return &LivelyEndState{
		oracle:  oracle,
		current: current,
		desired: desired,
		leader:  leader,
	}
}

// IsOnline returns whether the member is alive and settled at quorum as
// leader or follower, with its current state equal to its desired state.
func (l *LivelyEndState) IsOnline() bool {
	if l.current == nil {
		return false
	}
	if l.oracle == nil {
		return l.current.AtQuorum()
	}
	state := l.current.State()
	return l.current.AtQuorum() &&
		(state == Follower || state == Leader) &&
		l.oracle.IsAlive(l.current.Member()) &&
		CheckEquals(l.current, l.desired)
}

// CurrentState returns the current state, or zero when there is none.
func (l *LivelyEndState) CurrentState() State {
	if l.current == nil {
		return 0
	}
	return l.current.State()
}

// CurrentWaterline returns the certified current waterline or nil.
func (l *LivelyEndState) CurrentWaterline() *Waterline { return l.current }

// DesiredWaterline returns the certified desired waterline or nil.
func (l *LivelyEndState) DesiredWaterline() *Waterline { return l.desired }

// LeaderWaterline returns the desired waterline of the leader or nil.
func (l *LivelyEndState) LeaderWaterline() *Waterline { return l.leader }

func (l *LivelyEndState) String() string {
	return "LivelyEndState{current=" + l.current.String() +
		", desired=" + l.desired.String() +
		", leader=" + l.leader.String() + "}"
}
