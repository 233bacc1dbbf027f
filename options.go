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
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/uber-common/bark"
	"github.com/uber/aquarium-go/events"
	"github.com/uber/aquarium-go/logging"
	"github.com/uber/aquarium-go/membership"
	"github.com/uber/aquarium-go/storage"
	"github.com/uber/aquarium-go/tank"
)

// "Options" are modifier functions that configure an Aquarium.
//
// There are two kinds: value options take user arguments and return a
// function that modifies the aquarium, defaults are such functions already.
type Option func(*Aquarium) error

// applyOptions applies runtime configuration options to the specified
// Aquarium instance.
func applyOptions(a *Aquarium, opts []Option) error {
	for _, option := range opts {
		err := option(a)
		if err != nil {
			return err
		}
	}
	return nil
}

// checkOptions checks that the Aquarium instance has been properly
// configured with all the required options.
func checkOptions(a *Aquarium) []error {
	errs := []error{}
	if a.member == "" {
		errs = append(errs, errors.New("Member is required"))
	}
	if a.backend == nil && (a.currentStorage == nil || a.desiredStorage == nil) {
		errs = append(errs, errors.New("State storage is required"))
	}
	if a.backend == nil && a.livelinessStorage == nil {
		errs = append(errs, errors.New("Liveliness storage is required"))
	}
	if a.lifecycle == nil || a.members == nil {
		errs = append(errs, errors.New("Membership is required"))
	}
	if a.atQuorum == nil {
		errs = append(errs, errors.New("Quorum is required"))
	}
	if a.maxAdvances <= 0 {
		errs = append(errs, errors.New("MaxAdvances must be positive"))
	}
	return errs
}

// Runtime options

// Storage sets the tables of current states, desired states and heartbeats.
func Storage(current, desired tank.StateStorage, liveliness tank.LivelinessStorage) Option {
	return func(a *Aquarium) error {
		a.currentStorage = current
		a.desiredStorage = desired
		a.livelinessStorage = liveliness
		return nil
	}
}

// Backend keeps all three tables in b. The tables stamp their writes with
// the ids of the aquarium.
func Backend(b storage.Backend) Option {
	return func(a *Aquarium) error {
		a.backend = b
		return nil
	}
}

// Membership sets where the lifecycles and the set of current members are
// read from.
func Membership(lifecycle tank.MemberLifecycle, members tank.CurrentMembers) Option {
	return func(a *Aquarium) error {
		a.lifecycle = lifecycle
		a.members = members
		return nil
	}
}

// Quorum sets the predicate deciding whether a number of acknowledgments is
// a quorum.
func Quorum(atQuorum tank.AtQuorum) Option {
	return func(a *Aquarium) error {
		a.atQuorum = atQuorum
		return nil
	}
}

// Members takes membership and a majority quorum from r.
func Members(r *membership.Roster) Option {
	return func(a *Aquarium) error {
		if r == nil {
			return errors.New("roster is nil")
		}
		a.lifecycle = r
		a.members = r
		a.atQuorum = r.Majority()
		return nil
	}
}

// Clock sets the clock heartbeats, ids and timeouts are based on.
func Clock(c clock.Clock) Option {
	return func(a *Aquarium) error {
		if c == nil {
			return errors.New("clock is nil")
		}
		a.clock = c
		return nil
	}
}

// Logger makes every component log to l.
func Logger(l bark.Logger) Option {
	return func(a *Aquarium) error {
		logging.SetLogger(l)
		return nil
	}
}

// Statter sets the reporter transition and timing stats are sent to.
func Statter(s bark.StatsReporter) Option {
	return func(a *Aquarium) error {
		a.statter = s
		return nil
	}
}

// DeadAfter sets how long a heartbeat keeps a member alive. Zero or less
// keeps every member alive forever.
func DeadAfter(d time.Duration) Option {
	return func(a *Aquarium) error {
		a.deadAfter = d
		return nil
	}
}

// MaxAdvances caps the steps one TapTheGlass may take.
func MaxAdvances(n int) Option {
	return func(a *Aquarium) error {
		a.maxAdvances = n
		return nil
	}
}

// OrderIDs sets the provider of proposal timestamps and write versions.
func OrderIDs(ids tank.OrderIDProvider) Option {
	return func(a *Aquarium) error {
		a.ids = ids
		return nil
	}
}

// CurrentTransition replaces the gate of the current table.
func CurrentTransition(t tank.TransitionQuorum) Option {
	return func(a *Aquarium) error {
		a.transitionCurrent = t
		return nil
	}
}

// DesiredTransition replaces the gate of the desired table.
func DesiredTransition(t tank.TransitionQuorum) Option {
	return func(a *Aquarium) error {
		a.transitionDesired = t
		return nil
	}
}

// AwaitWith sets how waiters for a lively end state are suspended and woken.
func AwaitWith(w Awaiter) Option {
	return func(a *Aquarium) error {
		a.awaiter = w
		return nil
	}
}

// Listener adds l to the listeners of the aquarium events.
func Listener(l events.EventListener) Option {
	return func(a *Aquarium) error {
		a.AddListener(l)
		return nil
	}
}

// Default options

func defaultClock(a *Aquarium) error {
	return Clock(clock.New())(a)
}

func defaultStatter(a *Aquarium) error {
	return Statter(noopStatsReporter{})(a)
}

func defaultDeadAfter(a *Aquarium) error {
	return DeadAfter(defaultDeadAfterDuration)(a)
}

func defaultMaxAdvances(a *Aquarium) error {
	return MaxAdvances(100)(a)
}

func defaultTransitions(a *Aquarium) error {
	a.transitionCurrent = tank.QuorumGate{Context: tank.CurrentContext}
	a.transitionDesired = tank.QuorumGate{Context: tank.DesiredContext}
	return nil
}

// defaultOptions are the default options/values when an Aquarium is
// created. They can be overridden at runtime. The order id provider and the
// awaiter depend on the final clock and are created after all options ran.
var defaultOptions = []Option{
	defaultClock,
	defaultStatter,
	defaultDeadAfter,
	defaultMaxAdvances,
	defaultTransitions,
}

const defaultDeadAfterDuration = 5 * time.Second
