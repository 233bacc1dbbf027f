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
	"errors"
	"fmt"
)

// State is the position of a member in the election.
type State uint8

const (
	// Bootstrap is the state of a member that has not written any state yet.
	Bootstrap State = iota + 1
	// Inactive members take part in the election but hold no role.
	Inactive
	// Nominated members won the election and wait for a quorum to see it.
	Nominated
	// Leader is held by at most one member that is at quorum.
	Leader
	// Follower members agree on who the leader is.
	Follower
	// Demoted members lost leadership and wait for a new leader.
	Demoted
	// Expunged members have been removed from the election.
	Expunged
)

// ErrUnknownState is returned when a byte or name does not name a State.
var ErrUnknownState = errors.New("unknown state")

var stateNames = [...]string{
	Bootstrap: "bootstrap",
	Inactive:  "inactive",
	Nominated: "nominated",
	Leader:    "leader",
	Follower:  "follower",
	Demoted:   "demoted",
	Expunged:  "expunged",
}

// States lists every state in serialization order.
var States = []State{Bootstrap, Inactive, Nominated, Leader, Follower, Demoted, Expunged}

// Valid returns whether s is one of the seven states.
func (s State) Valid() bool {
	return s >= Bootstrap && s <= Expunged
}

func (s State) String() string {
	if !s.Valid() {
		return fmt.Sprintf("State(%d)", uint8(s))
	}
	return stateNames[s]
}

// Byte returns the one byte serialized form of the state.
func (s State) Byte() byte {
	return byte(s)
}

// StateFromByte parses the serialized form of a state.
func StateFromByte(b byte) (State, error) {
	s := State(b)
	if !s.Valid() {
		return 0, ErrUnknownState
	}
	return s, nil
}

// ParseState parses the name of a state, for example "leader".
func ParseState(name string) (State, error) {
	for _, s := range States {
		if stateNames[s] == name {
			return s, nil
		}
	}
	return 0, ErrUnknownState
}
