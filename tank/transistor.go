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

import "github.com/uber/aquarium-go/util"

// A Glass is everything a transistor looks at to advance one member: its
// current and desired waterlines, the liveness of the cluster, both tables
// and the gates guarding writes to them.
type Glass struct {
	Liveliness        LivenessOracle
	Current           *Waterline
	Desired           *Waterline
	Ports             Ports
	TransitionCurrent TransitionQuorum
	TransitionDesired TransitionQuorum
}

// A Transistor decides and attempts the next step of a member in one state.
// It returns true when a write advanced the member.
type Transistor func(g *Glass) (bool, error)

var transistors = [...]Transistor{
	Bootstrap: bootstrap,
	Inactive:  inactive,
	Nominated: nominated,
	Leader:    leader,
	Follower:  follower,
	Demoted:   demoted,
	Expunged:  expunged,
}

// TransistorOf returns the transistor of state s.
func TransistorOf(s State) (Transistor, error) {
	if !s.Valid() {
		return nil, ErrUnknownState
	}
	return transistors[s], nil
}

// Advance runs the transistor of the current state of g. g.Current must not
// be nil.
func Advance(g *Glass) (bool, error) {
	t, err := TransistorOf(g.Current.State())
	if err != nil {
		return false, err
	}
	return t(g)
}

func (g *Glass) me() Member {
	return g.Current.Member()
}

func (g *Glass) toCurrent(timestamp int64, state State) (bool, error) {
	return g.TransitionCurrent.Transition(g.Current, timestamp, state, g.Ports)
}

func (g *Glass) toDesired(existing *Waterline, timestamp int64, state State) (bool, error) {
	return g.TransitionDesired.Transition(existing, timestamp, state, g.Ports)
}

func (g *Glass) currentLeader() (*Waterline, error) {
	return Highest(g.me(), Leader, g.Ports.ReadCurrent, g.Current)
}

func (g *Glass) desiredLeader() (*Waterline, error) {
	return Highest(g.me(), Leader, g.Ports.ReadDesired, g.Desired)
}

// Highest returns the waterline in state that wins by Compare among me and
// the waterlines of every other member read by read, or nil.
func Highest(asMember Member, state State, read *ReadWaterline, me *Waterline) (*Waterline, error) {
	var best *Waterline
	consider := func(w *Waterline) bool {
		if w.State() == state && (best == nil || Compare(w, best) < 0) {
			best = w
		}
		return true
	}
	if me != nil {
		consider(me)
	}
	if err := read.GetOthers(asMember, consider); err != nil {
		return nil, err
	}
	return best, nil
}

// atDesiredState returns whether other reached the desired waterline, which
// is in state and at quorum.
func atDesiredState(state State, other, desired *Waterline) bool {
	return desired.State() == state && desired.AtQuorum() && CheckEquals(desired, other)
}

// recoverOrAwaitQuorum is run by every transistor before its own rule and
// returns true when the member must not advance this time. Besides waiting
// for quorum it repairs a missing desired state and proposes the member as
// leader when no live leader is desired.
func (g *Glass) recoverOrAwaitQuorum() (bool, error) {
	me := g.me()
	if !g.Liveliness.IsAlive(me) {
		return true, nil
	}

	desiredLeader, err := g.desiredLeader()
	if err != nil {
		return true, err
	}
	leaderIsLively := desiredLeader != nil && g.Liveliness.IsAlive(desiredLeader.Member())

	if g.Desired == nil {
		if desiredLeader != nil && desiredLeader.Member() == me {
			return true, nil
		}
		forged := NewWaterline(me, Bootstrap, g.Current.Timestamp(), g.Current.Version(), false)
		state, timestamp := Leader, g.Current.Timestamp()
		if leaderIsLively {
			state = Follower
		} else if desiredLeader != nil {
			timestamp = desiredLeader.Timestamp() + 1
		}
		_, err := g.toDesired(forged, timestamp, state)
		return true, err
	}

	if !leaderIsLively && g.Desired.State() != Leader && g.Desired.State() != Expunged {
		timestamp := g.Desired.Timestamp()
		if desiredLeader != nil {
			timestamp = util.MaxInt64(timestamp, desiredLeader.Timestamp())
		}
		_, err := g.toDesired(g.Desired, timestamp+1, Leader)
		return true, err
	}

	// A stored current claim fresher than the desired one was forced out of
	// band. Current writes at the desired timestamp would be discarded, so
	// the desired claim catches up first. Placeholders have version -1.
	if g.Current.Version() >= 0 && g.Current.Timestamp() > g.Desired.Timestamp() {
		_, err := g.toDesired(g.Desired, g.Current.Timestamp(), g.Desired.State())
		return true, err
	}

	return !g.Current.AtQuorum() || !g.Desired.AtQuorum(), nil
}

func bootstrap(g *Glass) (bool, error) {
	if blocked, err := g.recoverOrAwaitQuorum(); blocked || err != nil {
		return false, err
	}
	return g.toCurrent(g.Desired.Timestamp(), Inactive)
}

func inactive(g *Glass) (bool, error) {
	if blocked, err := g.recoverOrAwaitQuorum(); blocked || err != nil {
		return false, err
	}

	if g.Desired.State() == Expunged {
		return g.toCurrent(g.Desired.Timestamp(), Expunged)
	}

	desiredLeader, err := g.desiredLeader()
	if err != nil || desiredLeader == nil || !desiredLeader.AtQuorum() {
		return false, err
	}

	hasLeader, hasNominated := false, false
	err = g.Ports.ReadCurrent.GetOthers(g.me(), func(other *Waterline) bool {
		alive := g.Liveliness.IsAlive(other.Member())
		if alive && atDesiredState(Leader, other, desiredLeader) {
			hasLeader = true
		}
		if alive && other.State() == Nominated && other.AtQuorum() && other.Member() == desiredLeader.Member() {
			hasNominated = true
		}
		return !hasLeader && !hasNominated
	})
	if err != nil {
		return false, err
	}

	if desiredLeader.Member() != g.me() {
		if g.Desired.State() != Follower {
			_, err := g.toDesired(g.Desired, g.Desired.Timestamp(), Follower)
			return false, err
		}
		if g.Desired.AtQuorum() && hasLeader {
			return g.toCurrent(g.Desired.Timestamp(), Follower)
		}
		return false, nil
	}
	if hasNominated || g.Desired.State() != Leader {
		return false, nil
	}
	return g.toCurrent(g.Desired.Timestamp(), Nominated)
}

func nominated(g *Glass) (bool, error) {
	if blocked, err := g.recoverOrAwaitQuorum(); blocked || err != nil {
		return false, err
	}

	desiredLeader, err := g.desiredLeader()
	if err != nil {
		return false, err
	}
	if desiredLeader == nil || desiredLeader.Member() != g.Desired.Member() {
		return g.toCurrent(g.Desired.Timestamp(), Inactive)
	}
	if g.Desired.Timestamp() < desiredLeader.Timestamp() {
		return false, nil
	}
	if g.Desired.State() != Leader {
		return g.toCurrent(g.Desired.Timestamp(), Inactive)
	}
	return g.toCurrent(desiredLeader.Timestamp(), Leader)
}

func follower(g *Glass) (bool, error) {
	if blocked, err := g.recoverOrAwaitQuorum(); blocked || err != nil {
		return false, err
	}

	currentLeader, err := g.currentLeader()
	if err != nil {
		return false, err
	}
	desiredLeader, err := g.desiredLeader()
	if err != nil {
		return false, err
	}
	if currentLeader == nil ||
		desiredLeader == nil ||
		!currentLeader.AtQuorum() ||
		!CheckEquals(currentLeader, desiredLeader) ||
		!CheckEquals(g.Current, g.Desired) {
		return g.toCurrent(g.Desired.Timestamp(), Inactive)
	}
	return false, nil
}

func leader(g *Glass) (bool, error) {
	// A leader that lost its quorum of heartbeats first gives up the desired
	// leadership at a fresher timestamp. It is demoted by the rule below
	// once it is alive again or another member took over.
	if !g.Liveliness.IsAlive(g.me()) && g.Desired != nil && g.Desired.State() == Leader {
		_, err := g.toDesired(g.Desired, g.Desired.Timestamp()+1, Follower)
		return false, err
	}
	if blocked, err := g.recoverOrAwaitQuorum(); blocked || err != nil {
		return false, err
	}

	currentLeader, err := g.currentLeader()
	if err != nil {
		return false, err
	}
	desiredLeader, err := g.desiredLeader()
	if err != nil {
		return false, err
	}

	resign := currentLeader == nil || desiredLeader == nil || desiredLeader.Member() != g.me()
	if resign && g.Desired.State() == Leader {
		if _, err := g.toDesired(g.Desired, g.Desired.Timestamp(), Follower); err != nil {
			return false, err
		}
	}
	if resign || !desiredLeader.AtQuorum() || !CheckEquals(currentLeader, desiredLeader) {
		return g.toCurrent(g.Desired.Timestamp(), Demoted)
	}
	return false, nil
}

func demoted(g *Glass) (bool, error) {
	if blocked, err := g.recoverOrAwaitQuorum(); blocked || err != nil {
		return false, err
	}

	desiredLeader, err := g.desiredLeader()
	if err != nil || desiredLeader == nil || !desiredLeader.AtQuorum() {
		return false, err
	}
	currentLeader, err := g.currentLeader()
	if err != nil {
		return false, err
	}
	if CheckEquals(desiredLeader, currentLeader) ||
		(desiredLeader.Member() == g.me() && desiredLeader.Timestamp() >= g.Current.Timestamp()) {
		return g.toCurrent(g.Desired.Timestamp(), Inactive)
	}
	return false, nil
}

func expunged(g *Glass) (bool, error) {
	if blocked, err := g.recoverOrAwaitQuorum(); blocked || err != nil {
		return false, err
	}
	if g.Desired.State() != Expunged {
		return g.toCurrent(g.Desired.Timestamp(), Bootstrap)
	}
	return false, nil
}
