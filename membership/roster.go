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

// Package membership keeps the agreed set of current members of an
// aquarium together with the lifecycle of every member.
package membership

import (
	"sync"

	"github.com/uber-common/bark"
	"github.com/uber/aquarium-go/events"
	"github.com/uber/aquarium-go/logging"
	"github.com/uber/aquarium-go/tank"
)

// A Roster is the set of current members. Adding a member that was a member
// before, or is one still, gives it a new lifecycle so that everything it
// claimed in earlier lifecycles is ignored.
type Roster struct {
	events.SyncEventEmitter

	sync.RWMutex
	members map[tank.Member]tank.Lifecycle
	// last lifecycle handed out per member, kept after removal
	generations map[tank.Member]tank.Lifecycle

	logger bark.Logger
}

// NewRoster creates a roster holding members, each in its first lifecycle.
func NewRoster(members ...tank.Member) *Roster {
	r := &Roster{
		members:     make(map[tank.Member]tank.Lifecycle),
		generations: make(map[tank.Member]tank.Lifecycle),
		logger:      logging.Logger("membership"),
	}
	r.add(members)
	return r
}

// Add adds members, giving each a new lifecycle.
func (r *Roster) Add(members ...tank.Member) {
	changes := r.add(members)
	r.emit(changes)
}

func (r *Roster) add(members []tank.Member) []MemberChange {
	r.Lock()
	defer r.Unlock()

	changes := make([]MemberChange, 0, len(members))
	for _, m := range members {
		var before *Member
		if lifecycle, ok := r.members[m]; ok {
			before = &Member{ID: m, Lifecycle: lifecycle}
		}

		lifecycle, seen := r.generations[m]
		if seen {
			lifecycle++
		}
		r.generations[m] = lifecycle
		r.members[m] = lifecycle

		changes = append(changes, MemberChange{
			Before: before,
			After:  &Member{ID: m, Lifecycle: lifecycle},
		})
	}
	return changes
}

// Remove removes members. Members that are not current are ignored.
func (r *Roster) Remove(members ...tank.Member) {
	r.Lock()
	changes := make([]MemberChange, 0, len(members))
	for _, m := range members {
		lifecycle, ok := r.members[m]
		if !ok {
			continue
		}
		delete(r.members, m)
		changes = append(changes, MemberChange{
			Before: &Member{ID: m, Lifecycle: lifecycle},
		})
	}
	r.Unlock()

	r.emit(changes)
}

func (r *Roster) emit(changes []MemberChange) {
	if len(changes) == 0 {
		return
	}
	r.logger.WithField("changes", len(changes)).Debug("roster changed")
	r.EmitEvent(ChangeEvent{Changes: changes})
}

// Current returns a copy of the set of current members.
func (r *Roster) Current() (tank.MemberSet, error) {
	r.RLock()
	defer r.RUnlock()

	set := make(tank.MemberSet, len(r.members))
	for m := range r.members {
		set[m] = struct{}{}
	}
	return set, nil
}

// Lifecycle returns the lifecycle of m if m is a current member.
func (r *Roster) Lifecycle(m tank.Member) (tank.Lifecycle, bool, error) {
	r.RLock()
	lifecycle, ok := r.members[m]
	r.RUnlock()
	return lifecycle, ok, nil
}

// Contains returns whether m is a current member.
func (r *Roster) Contains(m tank.Member) bool {
	r.RLock()
	_, ok := r.members[m]
	r.RUnlock()
	return ok
}

// Size returns the number of current members.
func (r *Roster) Size() int {
	r.RLock()
	defer r.RUnlock()
	return len(r.members)
}

// Majority returns the quorum predicate of the roster: more than half of
// the current members.
func (r *Roster) Majority() tank.AtQuorum {
	return tank.Majority(r.Size)
}
