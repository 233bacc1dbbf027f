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

// Package aquarium elects a leader among a set of cooperating members
// without a central coordinator.
//
// Every member claims a current state, the state it operates in, and a
// desired state, the state it steers towards. Claims are rows in shared
// acknowledgment tables: each member copies the claims of the others as its
// acknowledgment, and a claim only counts once a quorum of the current
// members acknowledged it. Liveness is tracked the same way through
// heartbeats, comparing only timestamps stamped by the member's own clock.
//
// A driver calls FeedTheFish, AcknowledgeOther and TapTheGlass on every
// member periodically. TapTheGlass advances the state machine of the local
// member until it settles. Eventually exactly one member is online as leader
// and all others are online as followers.
package aquarium

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/uber-common/bark"
	"github.com/uber/aquarium-go/events"
	"github.com/uber/aquarium-go/logging"
	"github.com/uber/aquarium-go/orderid"
	"github.com/uber/aquarium-go/storage"
	"github.com/uber/aquarium-go/tank"
)

// An Aquarium runs the state machine of one member.
type Aquarium struct {
	events.SyncEventEmitter

	member tank.Member

	clock       clock.Clock
	ids         tank.OrderIDProvider
	deadAfter   time.Duration
	maxAdvances int
	awaiter     Awaiter
	statter     bark.StatsReporter

	backend           storage.Backend
	currentStorage    tank.StateStorage
	desiredStorage    tank.StateStorage
	livelinessStorage tank.LivelinessStorage

	lifecycle tank.MemberLifecycle
	members   tank.CurrentMembers
	atQuorum  tank.AtQuorum

	transitionCurrent tank.TransitionQuorum
	transitionDesired tank.TransitionQuorum

	stats      *tank.Stats
	liveliness *tank.Liveliness
	ports      tank.Ports

	// serializes TapTheGlass and Tx
	tap struct {
		sync.Mutex
		online bool
	}

	state struct {
		sync.RWMutex
		destroyed bool
	}

	logger bark.Logger
}

// New creates the aquarium of member. Storage, membership and a quorum are
// required, see Option.
func New(member tank.Member, opts ...Option) (*Aquarium, error) {
	a := &Aquarium{member: member}

	if err := applyOptions(a, defaultOptions); err != nil {
		panic(fmt.Errorf("Error applying default Aquarium options: %v", err))
	}
	if err := applyOptions(a, opts); err != nil {
		return nil, err
	}
	if errs := checkOptions(a); len(errs) != 0 {
		return nil, fmt.Errorf("%v", errs)
	}

	if a.ids == nil {
		ids, err := orderid.NewProvider(orderid.WriterID(string(member)), a.clock)
		if err != nil {
			return nil, err
		}
		a.ids = ids
	}
	if a.awaiter == nil {
		a.awaiter = NewAwaiter(a.clock)
	}
	if a.backend != nil {
		a.currentStorage = storage.NewStateTable(a.backend, storage.ContextCurrent, a.ids)
		a.desiredStorage = storage.NewStateTable(a.backend, storage.ContextDesired, a.ids)
		a.livelinessStorage = storage.NewLivelinessTable(a.backend, a.ids)
	}

	a.logger = logging.Logger("aquarium").WithField("local", string(member))
	a.stats = tank.NewStats()
	a.liveliness = tank.NewLiveliness(a.clock, a.livelinessStorage, member, a.members, a.atQuorum, a.deadAfter, a.stats)
	a.ports = tank.Ports{
		ReadCurrent:  tank.NewReadWaterline(a.currentStorage, a.lifecycle, a.members, a.atQuorum, a.stats.Current),
		ReadDesired:  tank.NewReadWaterline(a.desiredStorage, a.lifecycle, a.members, a.atQuorum, a.stats.Desired),
		WriteCurrent: tank.NewWriteWaterline(a.currentStorage, a.lifecycle),
		WriteDesired: tank.NewWriteWaterline(a.desiredStorage, a.lifecycle),
	}
	a.transitionCurrent = a.observe(tank.CurrentContext, a.transitionCurrent)
	a.transitionDesired = a.observe(tank.DesiredContext, a.transitionDesired)

	a.AddListener(newStatter(string(member), a.statter))

	return a, nil
}

func (a *Aquarium) observe(c tank.Context, gate tank.TransitionQuorum) tank.TransitionQuorum {
	return &observedTransition{
		context: c,
		local:   a.member,
		gate:    gate,
		emitter: a,
		logger:  logging.Logger("transistor").WithField("local", string(a.member)),
	}
}

// Member returns the local member.
func (a *Aquarium) Member() tank.Member {
	return a.member
}

// Liveliness returns the heartbeat tracker of the local member.
func (a *Aquarium) Liveliness() *tank.Liveliness {
	return a.liveliness
}

// Stats returns the operation counters of the local member by name.
func (a *Aquarium) Stats() map[string]int64 {
	return a.stats.Snapshot()
}

// Destroy stops the aquarium. Every later command returns ErrStopped.
func (a *Aquarium) Destroy() {
	a.state.Lock()
	a.state.destroyed = true
	a.state.Unlock()

	a.logger.Info("aquarium destroyed")
}

// Destroyed returns whether Destroy was called.
func (a *Aquarium) Destroyed() bool {
	a.state.RLock()
	defer a.state.RUnlock()
	return a.state.destroyed
}

// FeedTheFish writes a heartbeat for the local member and acknowledges the
// heartbeats of the others.
func (a *Aquarium) FeedTheFish() error {
	if a.Destroyed() {
		return ErrStopped
	}
	start := a.clock.Now()
	if err := a.liveliness.FeedTheFish(); err != nil {
		return err
	}
	a.EmitEvent(events.FeedTheFishEvent{
		Local:    a.member,
		Alive:    a.liveliness.IsAlive(a.member),
		Duration: a.clock.Now().Sub(start),
	})
	return nil
}

// AcknowledgeOther acknowledges the claims of every other member in the
// current and the desired table.
func (a *Aquarium) AcknowledgeOther() error {
	if a.Destroyed() {
		return ErrStopped
	}
	a.stats.AcknowledgeOther.Inc(1)
	start := a.clock.Now()
	if err := a.ports.ReadCurrent.AcknowledgeOther(a.member); err != nil {
		return err
	}
	if err := a.ports.ReadDesired.AcknowledgeOther(a.member); err != nil {
		return err
	}
	a.EmitEvent(events.AcknowledgeEvent{
		Local:    a.member,
		Duration: a.clock.Now().Sub(start),
	})
	return nil
}

// TapTheGlass advances the state machine of the local member until it
// settles, then wakes the waiters of AwaitOnline when the member is online
// or just went offline.
func (a *Aquarium) TapTheGlass() error {
	if a.Destroyed() {
		return ErrStopped
	}
	a.stats.TapTheGlass.Inc(1)
	start := a.clock.Now()

	a.tap.Lock()
	defer a.tap.Unlock()

	advances := 0
	online := false
	err := a.awaiter.NotifyChange(func() (bool, error) {
		for {
			advanced, err := a.advance(advances)
			if err != nil {
				return false, err
			}
			if !advanced {
				break
			}
			advances++
		}

		endState, err := a.captureEndState(a.member)
		if err != nil {
			return false, err
		}
		online = endState.IsOnline()
		changed := online != a.tap.online
		a.tap.online = online
		if changed {
			a.logger.WithFields(bark.Fields{
				"online": online,
				"state":  endState.CurrentState().String(),
			}).Info("lively end state changed")
			a.EmitEvent(events.OnlineChangedEvent{
				Local:  a.member,
				Online: online,
				State:  endState.CurrentState(),
			})
		}
		if online || changed {
			a.stats.TapTheGlassNotified.Inc(1)
			return true, nil
		}
		return false, nil
	})
	if err != nil {
		return err
	}

	a.EmitEvent(events.TapTheGlassEvent{
		Local:    a.member,
		Advances: advances,
		Online:   online,
		Duration: a.clock.Now().Sub(start),
	})
	return nil
}

// advance runs the transistor of the current state once.
func (a *Aquarium) advance(advances int) (bool, error) {
	current, err := a.ports.ReadCurrent.Get(a.member)
	if err != nil {
		return false, err
	}
	if current == nil {
		current = tank.NewWaterline(a.member, tank.Bootstrap, a.ids.NextID(), -1, true)
	}
	desired, err := a.ports.ReadDesired.Get(a.member)
	if err != nil {
		return false, err
	}

	if advances >= a.maxAdvances {
		a.logger.WithFields(bark.Fields{
			"limit":   a.maxAdvances,
			"current": current.String(),
			"desired": desired.String(),
		}).Error("state machine did not settle")
		a.EmitEvent(events.AdvanceLimitEvent{
			Local: a.member,
			Limit: a.maxAdvances,
			State: current.State(),
		})
		return false, ErrAdvanceLimit
	}

	return tank.Advance(&tank.Glass{
		Liveliness:        a.liveliness,
		Current:           current,
		Desired:           desired,
		Ports:             a.ports,
		TransitionCurrent: a.transitionCurrent,
		TransitionDesired: a.transitionDesired,
	})
}

// captureEndState judges member against the leader of the desired table.
func (a *Aquarium) captureEndState(m tank.Member) (*tank.LivelyEndState, error) {
	a.stats.CaptureEndState.Inc(1)
	current, err := a.ports.ReadCurrent.Get(m)
	if err != nil {
		return nil, err
	}
	desired, err := a.ports.ReadDesired.Get(m)
	if err != nil {
		return nil, err
	}
	leader, err := tank.Highest(m, tank.Leader, a.ports.ReadDesired, desired)
	if err != nil {
		return nil, err
	}
	return tank.NewLivelyEndState(a.liveliness, current, desired, leader), nil
}

// LivelyEndState returns the judgement of the local member.
func (a *Aquarium) LivelyEndState() (*tank.LivelyEndState, error) {
	a.stats.GetLivelyEndState.Inc(1)
	return a.captureEndState(a.member)
}

// GetLeader returns the desired waterline of the leader, or nil when no
// member is desired as leader.
func (a *Aquarium) GetLeader() (*tank.Waterline, error) {
	a.stats.GetLeader.Inc(1)
	desired, err := a.ports.ReadDesired.Get(a.member)
	if err != nil {
		return nil, err
	}
	return tank.Highest(a.member, tank.Leader, a.ports.ReadDesired, desired)
}

// GetState returns the certified current waterline of m. A member without
// one is reported in bootstrap with timestamp and version -1.
func (a *Aquarium) GetState(m tank.Member) (*tank.Waterline, error) {
	a.stats.GetStateForMember.Inc(1)
	current, err := a.ports.ReadCurrent.Get(m)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return tank.NewWaterlineAliveUntil(m, tank.Bootstrap, -1, -1, false, -1), nil
	}
	return current, nil
}

// IsLivelyState returns whether m is alive and certified in state.
func (a *Aquarium) IsLivelyState(m tank.Member, state tank.State) (bool, error) {
	a.stats.IsLivelyStateForMember.Inc(1)
	current, err := a.GetState(m)
	if err != nil {
		return false, err
	}
	return current.State() == state && current.AtQuorum() && a.liveliness.IsAlive(m), nil
}

// IsLivelyEndState returns whether m is online as leader or follower.
func (a *Aquarium) IsLivelyEndState(m tank.Member) (bool, error) {
	a.stats.IsLivelyEndStateForMember.Inc(1)
	current, err := a.ports.ReadCurrent.Get(m)
	if err != nil {
		return false, err
	}
	desired, err := a.ports.ReadDesired.Get(m)
	if err != nil {
		return false, err
	}
	return tank.NewLivelyEndState(a.liveliness, current, desired, nil).IsOnline(), nil
}

// SuggestState proposes state as the desired state of the local member at a
// fresh timestamp. It returns whether the desired gate committed it.
func (a *Aquarium) SuggestState(state tank.State) (bool, error) {
	if a.Destroyed() {
		return false, ErrStopped
	}
	if !state.Valid() {
		return false, ErrInvalidState
	}
	a.stats.SuggestState.Inc(1)
	return a.proposeDesired(a.member, state)
}

func (a *Aquarium) proposeDesired(m tank.Member, state tank.State) (bool, error) {
	existing, err := a.ports.ReadDesired.Get(m)
	if err != nil {
		return false, err
	}
	if existing == nil {
		existing = tank.NewWaterline(m, tank.Bootstrap, -1, -1, false)
	}
	return a.transitionDesired.Transition(existing, a.ids.NextID(), state, a.ports)
}

// Expunge proposes expunged as the desired state of m and taps the glass.
func (a *Aquarium) Expunge(m tank.Member) error {
	if a.Destroyed() {
		return ErrStopped
	}
	current, err := a.members.Current()
	if err != nil {
		return err
	}
	if !current.Contains(m) {
		return ErrNotMember
	}

	committed, err := a.proposeDesired(m, tank.Expunged)
	if err != nil {
		return err
	}
	a.logger.WithFields(bark.Fields{
		"member":    string(m),
		"committed": committed,
	}).Info("expunge proposed")
	return a.TapTheGlass()
}

// AwaitOnline blocks until the local member is online or timeout elapsed and
// returns the end state that was online.
func (a *Aquarium) AwaitOnline(timeout time.Duration) (*tank.LivelyEndState, error) {
	a.stats.AwaitOnline.Inc(1)

	var endState *tank.LivelyEndState
	err := a.awaiter.AwaitChange(func() (bool, error) {
		var err error
		endState, err = a.LivelyEndState()
		if err != nil {
			return false, err
		}
		return endState.IsOnline(), nil
	}, timeout)

	if err == ErrAwaitTimeout {
		a.stats.AwaitTimedOut.Inc(1)
		a.EmitEvent(events.AwaitTimeoutEvent{
			Local:   a.member,
			Timeout: timeout,
		})
	}
	if err != nil {
		return nil, err
	}
	return endState, nil
}

// AwaitLeader waits for the local member to come online and returns the
// leader.
func (a *Aquarium) AwaitLeader(timeout time.Duration) (*tank.Waterline, error) {
	if _, err := a.AwaitOnline(timeout); err != nil {
		return nil, err
	}
	return a.GetLeader()
}

// Tx runs fn with the read and write paths of both tables while the state
// machine is held still. The ports bypass every gate, so fn can inspect and
// force states.
func (a *Aquarium) Tx(fn func(ports tank.Ports) error) error {
	if fn == nil {
		return errors.New("tx func is nil")
	}
	a.tap.Lock()
	defer a.tap.Unlock()
	return fn(a.ports)
}
