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

package aquarium

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"github.com/uber/aquarium-go/events"
	"github.com/uber/aquarium-go/membership"
	"github.com/uber/aquarium-go/orderid"
	"github.com/uber/aquarium-go/storage"
	"github.com/uber/aquarium-go/tank"
)

// period is the time between two rounds of a test cluster.
const period = 50 * time.Millisecond

// driftClock is a view of a shared mock clock shifted by offset.
type driftClock struct {
	*clock.Mock
	offset time.Duration
}

func (c *driftClock) Now() time.Time {
	return c.Mock.Now().Add(c.offset)
}

// recorder keeps every event it receives.
type recorder struct {
	sync.Mutex
	events []events.Event
}

func (r *recorder) HandleEvent(event events.Event) {
	r.Lock()
	r.events = append(r.events, event)
	r.Unlock()
}

func (r *recorder) all() []events.Event {
	r.Lock()
	defer r.Unlock()
	return append([]events.Event(nil), r.events...)
}

// transitions returns the states m entered in context c, in order.
func (r *recorder) transitions(m tank.Member, c tank.Context) []tank.State {
	var states []tank.State
	for _, event := range r.all() {
		if t, ok := event.(events.TransitionEvent); ok && t.Member == m && t.Context == c {
			states = append(states, t.To)
		}
	}
	return states
}

func (r *recorder) taps() []events.TapTheGlassEvent {
	var taps []events.TapTheGlassEvent
	for _, event := range r.all() {
		if t, ok := event.(events.TapTheGlassEvent); ok {
			taps = append(taps, t)
		}
	}
	return taps
}

type testNode struct {
	aquarium *Aquarium
	clock    *driftClock
	driven   bool
}

// testCluster drives the aquariums of a set of members round robin over one
// shared backend and one mock clock.
type testCluster struct {
	t        *testing.T
	clock    *clock.Mock
	backend  *storage.MemoryBackend
	roster   *membership.Roster
	recorder *recorder
	members  []tank.Member
	nodes    map[tank.Member]*testNode
}

func newTestCluster(t *testing.T, members ...tank.Member) *testCluster {
	mockClock := clock.NewMock()
	// keep timestamps well clear of zero, drifted clocks included
	mockClock.Add(time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC).Sub(time.Unix(0, 0)))

	c := &testCluster{
		t:        t,
		clock:    mockClock,
		backend:  storage.NewMemoryBackend(),
		roster:   membership.NewRoster(members...),
		recorder: &recorder{},
		members:  members,
		nodes:    make(map[tank.Member]*testNode),
	}

	for i, m := range members {
		nodeClock := &driftClock{Mock: mockClock}
		ids, err := orderid.NewProvider(i, nodeClock)
		require.NoError(t, err)

		a, err := New(m,
			Backend(c.backend),
			Members(c.roster),
			Clock(nodeClock),
			DeadAfter(time.Second),
			OrderIDs(ids),
			Listener(c.recorder),
		)
		require.NoError(t, err)

		c.nodes[m] = &testNode{aquarium: a, clock: nodeClock, driven: true}
	}
	return c
}

func (c *testCluster) aquarium(m tank.Member) *Aquarium {
	return c.nodes[m].aquarium
}

// round feeds, acknowledges and taps every driven member once, then moves
// the clock on by one period.
func (c *testCluster) round() {
	for _, m := range c.members {
		n := c.nodes[m]
		if !n.driven {
			continue
		}
		require.NoError(c.t, n.aquarium.FeedTheFish(), "feed %s", m)
		require.NoError(c.t, n.aquarium.AcknowledgeOther(), "acknowledge %s", m)
		require.NoError(c.t, n.aquarium.TapTheGlass(), "tap %s", m)
	}
	c.clock.Add(period)
	c.requireMutualExclusion()
}

func (c *testCluster) rounds(n int) {
	for i := 0; i < n; i++ {
		c.round()
	}
}

// runUntil runs rounds until done holds and returns whether it did within
// maxRounds.
func (c *testCluster) runUntil(maxRounds int, done func() bool) bool {
	for i := 0; i < maxRounds; i++ {
		if done() {
			return true
		}
		c.round()
	}
	return done()
}

// requireMutualExclusion fails when more than one driven member claims to
// be leader at quorum.
func (c *testCluster) requireMutualExclusion() {
	var leaders []tank.Member
	for _, m := range c.members {
		n := c.nodes[m]
		if !n.driven {
			continue
		}
		w, err := n.aquarium.GetState(m)
		require.NoError(c.t, err)
		if w.State() == tank.Leader && w.AtQuorum() {
			leaders = append(leaders, m)
		}
	}
	require.True(c.t, len(leaders) <= 1, "more than one leader: %v", leaders)
}

// leader returns the leader when every driven member is online, exactly one
// as leader and all others as followers.
func (c *testCluster) leader() (tank.Member, bool) {
	var leader tank.Member
	leaders := 0
	for _, m := range c.members {
		n := c.nodes[m]
		if !n.driven {
			continue
		}
		endState, err := n.aquarium.LivelyEndState()
		require.NoError(c.t, err)
		if !endState.IsOnline() {
			return "", false
		}
		switch endState.CurrentState() {
		case tank.Leader:
			leader = m
			leaders++
		case tank.Follower:
		default:
			return "", false
		}
	}
	return leader, leaders == 1
}

func (c *testCluster) converged() bool {
	_, ok := c.leader()
	return ok
}

// converge runs rounds until the cluster converged and returns the leader.
func (c *testCluster) converge() tank.Member {
	require.True(c.t, c.runUntil(300, c.converged), "cluster did not converge")
	leader, _ := c.leader()
	return leader
}

func (c *testCluster) stop(m tank.Member) {
	c.nodes[m].driven = false
}

func (c *testCluster) resume(m tank.Member) {
	c.nodes[m].driven = true
}

// clear removes every row whose root is m from the shared backend.
func (c *testCluster) clear(m tank.Member) {
	ids, err := orderid.NewProvider(orderid.MaxWriterID, c.clock)
	require.NoError(c.t, err)
	require.NoError(c.t, storage.NewStateTable(c.backend, storage.ContextCurrent, ids).Clear(m))
	require.NoError(c.t, storage.NewStateTable(c.backend, storage.ContextDesired, ids).Clear(m))
	require.NoError(c.t, storage.NewLivelinessTable(c.backend, ids).Clear(m))
}

// desired returns the certified desired waterline of m.
func (c *testCluster) desired(m tank.Member) *tank.Waterline {
	w, err := c.aquarium(m).ports.ReadDesired.Get(m)
	require.NoError(c.t, err)
	require.NotNil(c.t, w, "%s has no desired state", m)
	return w
}

// force writes the current claim of m behind its state machine, lets every
// other driven member acknowledge it and has m react to it before the next
// round.
func (c *testCluster) force(m tank.Member, state tank.State, timestamp int64) {
	a := c.aquarium(m)
	require.NoError(c.t, a.Tx(func(ports tank.Ports) error {
		_, err := ports.WriteCurrent.Put(m, state, timestamp)
		return err
	}))
	for _, other := range c.members {
		if other != m && c.nodes[other].driven {
			require.NoError(c.t, c.aquarium(other).AcknowledgeOther())
		}
	}
	require.NoError(c.t, a.TapTheGlass())
	c.requireMutualExclusion()
}

// leadersAtQuorum returns the members claiming leader at quorum in a single
// scan of the current table.
func (c *testCluster) leadersAtQuorum() []tank.Member {
	var leaders []tank.Member
	err := c.aquarium(c.members[0]).ports.ReadCurrent.GetOthers("", func(w *tank.Waterline) bool {
		if w.State() == tank.Leader && w.AtQuorum() {
			leaders = append(leaders, w.Member())
		}
		return true
	})
	require.NoError(c.t, err)
	return leaders
}

func (c *testCluster) advanceLimits() int {
	limits := 0
	for _, event := range c.recorder.all() {
		if _, ok := event.(events.AdvanceLimitEvent); ok {
			limits++
		}
	}
	return limits
}
