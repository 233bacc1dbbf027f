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
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/uber-common/bark"
	"github.com/uber/aquarium-go/logging"
	"github.com/uber/aquarium-go/util"
)

// A LivenessOracle tells whether a member is alive.
type LivenessOracle interface {
	IsAlive(m Member) bool
}

// Liveliness tracks heartbeats through the heartbeat table. A member only
// ever compares timestamps stamped by its own clock: its own heartbeats, and
// the copies of its heartbeats other members acknowledged. Clock drift
// between members therefore never makes a member look dead.
type Liveliness struct {
	clock     clock.Clock
	storage   LivelinessStorage
	member    Member
	members   CurrentMembers
	atQuorum  AtQuorum
	deadAfter int64
	stats     *Stats
	logger    bark.Logger

	// first heartbeat written, -1 until then
	first        int64
	myAliveUntil int64

	mu     sync.RWMutex
	others map[Member]int64
}

// NewLiveliness creates the heartbeat tracker of member. Only acknowledgments
// of current members keep it alive; a nil members counts every acker. A
// deadAfter of zero or less keeps every member alive forever.
func NewLiveliness(clock clock.Clock, storage LivelinessStorage, member Member, members CurrentMembers, atQuorum AtQuorum, deadAfter time.Duration, stats *Stats) *Liveliness {
	if stats == nil {
		stats = NewStats()
	}
	return &Liveliness{
		clock:        clock,
		storage:      storage,
		member:       member,
		members:      members,
		atQuorum:     atQuorum,
		deadAfter:    util.MS(deadAfter),
		stats:        stats,
		logger:       logging.Logger("liveliness").WithField("local", string(member)),
		first:        -1,
		myAliveUntil: -1,
		others:       make(map[Member]int64),
	}
}

// FeedTheFish writes a heartbeat for the local member and acknowledges the
// latest heartbeat of every other member.
func (l *Liveliness) FeedTheFish() error {
	l.stats.FeedTheFish.Inc(1)

	now := util.NowMS(l.clock)
	_, err := l.storage.Update(func(set SetLiveliness) (bool, error) {
		set(l.member, l.member, now)
		return true, nil
	})
	if err != nil {
		return err
	}
	atomic.CompareAndSwapInt64(&l.first, -1, now)

	return l.acknowledgeOthers()
}

// heartbeats folds the rows of the local member into the acknowledgments
// that keep it alive.
type heartbeats struct {
	current   MemberSet
	deadAfter int64
	latest    int64
	acks      []int64
	others    map[Member]int64
}

func (h *heartbeats) add(row LivelinessRow) {
	if row.IsSelf() {
		h.latest = row.Timestamp
		h.acks = append(h.acks, row.Timestamp)
		return
	}
	if h.current != nil && !h.current.Contains(row.Acker) {
		return
	}

	if h.deadAfter > 0 {
		h.others[row.Acker] = row.Timestamp + h.deadAfter
	} else {
		h.others[row.Acker] = Forever
	}
	if h.latest >= 0 && (h.deadAfter <= 0 || row.Timestamp >= h.latest-h.deadAfter) {
		h.acks = append(h.acks, row.Timestamp)
	}
}

// aliveUntil returns the time a quorum of the collected acknowledgments
// keeps the local member alive until, or -1.
func (h *heartbeats) aliveUntil(atQuorum AtQuorum) int64 {
	if h.latest < 0 {
		return -1
	}
	sort.Slice(h.acks, func(i, j int) bool {
		return h.acks[i] > h.acks[j]
	})
	for count := 1; count <= len(h.acks); count++ {
		if atQuorum(count) {
			return h.acks[count-1] + h.deadAfter
		}
	}
	return -1
}

// pendingAck is the heartbeat of another root the local member has not
// acknowledged yet.
type pendingAck struct {
	root      Member
	timestamp int64
	acked     bool
}

func (l *Liveliness) acknowledgeOthers() error {
	var current MemberSet
	if l.members != nil {
		var err error
		if current, err = l.members.Current(); err != nil {
			return err
		}
	}
	mine := &heartbeats{
		current:   current,
		deadAfter: l.deadAfter,
		latest:    -1,
		others:    make(map[Member]int64),
	}

	_, err := l.storage.Update(func(set SetLiveliness) (bool, error) {
		var pending *pendingAck
		flush := func() {
			if pending != nil && !pending.acked {
				set(pending.root, l.member, pending.timestamp)
			}
			pending = nil
		}

		_, err := l.storage.Scan("", "", func(row LivelinessRow) bool {
			if pending != nil && pending.root != row.Root {
				flush()
			}
			if pending == nil && row.IsSelf() && row.Root != l.member {
				pending = &pendingAck{root: row.Root, timestamp: row.Timestamp}
			}
			if pending != nil && row.Acker == l.member {
				pending.acked = true
				if row.Timestamp != pending.timestamp {
					set(pending.root, l.member, pending.timestamp)
				}
			}
			if row.Root == l.member {
				mine.add(row)
			}
			return true
		})
		if err != nil {
			return false, err
		}
		flush()
		return true, nil
	})
	if err != nil {
		return err
	}

	aliveUntil := mine.aliveUntil(l.atQuorum)
	if old := atomic.SwapInt64(&l.myAliveUntil, aliveUntil); (old < 0) != (aliveUntil < 0) {
		l.logger.WithFields(bark.Fields{
			"aliveUntil": aliveUntil,
			"acks":       len(mine.acks),
		}).Debug("local liveliness changed")
	}

	l.mu.Lock()
	l.others = mine.others
	l.mu.Unlock()
	return nil
}

// AliveUntil returns the unix time in milliseconds m is alive until, or -1
// when the local member lacks a quorum of fresh acknowledgments.
func (l *Liveliness) AliveUntil(m Member) int64 {
	if l.deadAfter <= 0 {
		return Forever
	}
	if m == l.member {
		return atomic.LoadInt64(&l.myAliveUntil)
	}

	first := atomic.LoadInt64(&l.first)
	if first < 0 {
		return Forever
	}

	l.mu.RLock()
	aliveUntil, ok := l.others[m]
	l.mu.RUnlock()
	if !ok {
		return first + l.deadAfter
	}
	return aliveUntil
}

// IsAlive returns whether m is alive by the local clock.
func (l *Liveliness) IsAlive(m Member) bool {
	return util.NowMS(l.clock) <= l.AliveUntil(m)
}

// Reset forgets every heartbeat seen, as if the local member just started.
func (l *Liveliness) Reset() {
	atomic.StoreInt64(&l.first, -1)
	atomic.StoreInt64(&l.myAliveUntil, -1)
	l.mu.Lock()
	l.others = make(map[Member]int64)
	l.mu.Unlock()
}
