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

// Package events delivers what happens inside an aquarium to the listeners
// that registered for it, for example to count transitions.
package events

import (
	"sync"
	"time"

	"github.com/uber/aquarium-go/tank"
)

// Event is an empty interface that is type switched when handled.
type Event interface{}

// An EventListener handles events. HandleEvent must be safe for concurrent
// use.
type EventListener interface {
	HandleEvent(event Event)
}

// The EventListenerFunc type is an adapter to allow the use of ordinary
// functions as EventListeners. Emitters compare listeners, so add a pointer
// to the func rather than the func itself.
type EventListenerFunc func(event Event)

// HandleEvent calls f(event).
func (f EventListenerFunc) HandleEvent(event Event) {
	f(event)
}

// EventEmitter sends events to the listeners added to it.
type EventEmitter interface {
	AddListener(EventListener) bool
	RemoveListener(EventListener) bool
	EmitEvent(Event)
}

type listenerList struct {
	lock      sync.RWMutex
	listeners []EventListener
}

// AddListener adds l unless it is nil or already added. Returns whether l
// was added.
func (a *listenerList) AddListener(l EventListener) bool {
	if l == nil {
		return false
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	for _, listener := range a.listeners {
		if listener == l {
			return false
		}
	}

	// the backing array is never modified once published, so emitters may
	// iterate a copy of the slice without holding the lock
	listenersCopy := make([]EventListener, 0, len(a.listeners)+1)
	listenersCopy = append(listenersCopy, a.listeners...)
	a.listeners = append(listenersCopy, l)
	return true
}

// RemoveListener removes l. Returns whether l was added before.
func (a *listenerList) RemoveListener(l EventListener) bool {
	a.lock.Lock()
	defer a.lock.Unlock()

	for i := range a.listeners {
		if a.listeners[i] == l {
			cpy := append([]EventListener(nil), a.listeners[:i]...)
			a.listeners = append(cpy, a.listeners[i+1:]...)
			return true
		}
	}
	return false
}

func (a *listenerList) snapshot() []EventListener {
	a.lock.RLock()
	defer a.lock.RUnlock()
	return a.listeners
}

// AsyncEventEmitter calls every listener in its own goroutine.
type AsyncEventEmitter struct {
	listenerList
}

// EmitEvent sends event to all listeners.
func (a *AsyncEventEmitter) EmitEvent(event Event) {
	for _, listener := range a.snapshot() {
		go listener.HandleEvent(event)
	}
}

// SyncEventEmitter calls the listeners one after another in the goroutine
// emitting the event.
type SyncEventEmitter struct {
	listenerList
}

// EmitEvent sends event to all listeners.
func (a *SyncEventEmitter) EmitEvent(event Event) {
	for _, listener := range a.snapshot() {
		listener.HandleEvent(event)
	}
}

// A TransitionEvent is sent when a gate committed a new state for a member.
type TransitionEvent struct {
	Local     tank.Member
	Member    tank.Member
	Context   tank.Context
	From      tank.State
	To        tank.State
	Timestamp int64
}

// A TapTheGlassEvent is sent after the state machine of the local member
// reached a fixed point.
type TapTheGlassEvent struct {
	Local    tank.Member
	Advances int
	Online   bool
	Duration time.Duration
}

// A FeedTheFishEvent is sent after the local member wrote a heartbeat.
type FeedTheFishEvent struct {
	Local    tank.Member
	Alive    bool
	Duration time.Duration
}

// An AcknowledgeEvent is sent after the local member acknowledged the claims
// of the other members in both tables.
type AcknowledgeEvent struct {
	Local    tank.Member
	Duration time.Duration
}

// An AwaitTimeoutEvent is sent when waiting for the local member to come
// online timed out.
type AwaitTimeoutEvent struct {
	Local   tank.Member
	Timeout time.Duration
}

// An AdvanceLimitEvent is sent when the state machine kept advancing past the
// configured number of steps in one tap.
type AdvanceLimitEvent struct {
	Local tank.Member
	Limit int
	State tank.State
}

// An OnlineChangedEvent is sent when the local member came online or went
// offline.
type OnlineChangedEvent struct {
	Local  tank.Member
	Online bool
	State  tank.State
}
