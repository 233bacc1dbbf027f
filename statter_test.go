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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/uber/aquarium-go/events"
	"github.com/uber/aquarium-go/tank"
	"github.com/uber/aquarium-go/test/mocks"
)

func TestStatsPrefix(t *testing.T) {
	assert.Equal(t, "aquarium.192_168_0_12_3000.", toStatsPrefix("192.168.0.12:3000"))
	assert.Equal(t, "aquarium.a.", toStatsPrefix("a"))
}

func TestStatterTransitions(t *testing.T) {
	reporter := &mocks.StatsReporter{}
	reporter.On("IncCounter", "aquarium.a.current.leader", mock.Anything, int64(1)).Once()
	reporter.On("IncCounter", "aquarium.a.current.nominated", mock.Anything, int64(-1)).Once()

	s := newStatter("a", reporter)
	s.HandleEvent(events.TransitionEvent{
		Local:   "a",
		Member:  "a",
		Context: tank.CurrentContext,
		From:    tank.Nominated,
		To:      tank.Leader,
	})
	reporter.AssertExpectations(t)
}

func TestStatterTimings(t *testing.T) {
	reporter := &mocks.StatsReporter{}
	reporter.On("IncCounter", "aquarium.a.tap-the-glass", mock.Anything, int64(1)).Once()
	reporter.On("IncCounter", "aquarium.a.tap-the-glass.advances", mock.Anything, int64(3)).Once()
	reporter.On("RecordTimer", "aquarium.a.tap-the-glass", mock.Anything, time.Millisecond).Once()
	reporter.On("IncCounter", "aquarium.a.feed-the-fish", mock.Anything, int64(1)).Once()
	reporter.On("RecordTimer", "aquarium.a.feed-the-fish", mock.Anything, 2*time.Millisecond).Once()
	reporter.On("UpdateGauge", "aquarium.a.alive", mock.Anything, int64(1)).Once()
	reporter.On("RecordTimer", "aquarium.a.acknowledge-other", mock.Anything, 3*time.Millisecond).Once()
	reporter.On("IncCounter", "aquarium.a.await-online.timed-out", mock.Anything, int64(1)).Once()
	reporter.On("IncCounter", "aquarium.a.advance-limit", mock.Anything, int64(1)).Once()
	reporter.On("UpdateGauge", "aquarium.a.online", mock.Anything, int64(0)).Once()

	s := newStatter("a", reporter)
	s.HandleEvent(events.TapTheGlassEvent{Local: "a", Advances: 3, Duration: time.Millisecond})
	s.HandleEvent(events.FeedTheFishEvent{Local: "a", Alive: true, Duration: 2 * time.Millisecond})
	s.HandleEvent(events.AcknowledgeEvent{Local: "a", Duration: 3 * time.Millisecond})
	s.HandleEvent(events.AwaitTimeoutEvent{Local: "a", Timeout: time.Second})
	s.HandleEvent(events.AdvanceLimitEvent{Local: "a", Limit: 100})
	s.HandleEvent(events.OnlineChangedEvent{Local: "a", Online: false})
	// ignored
	s.HandleEvent("something else")

	reporter.AssertExpectations(t)
}

func TestStatterKeysAreCached(t *testing.T) {
	s := newStatter("a", noopStatsReporter{})
	assert.Equal(t, "aquarium.a.online", s.key("online"))
	assert.Equal(t, "aquarium.a.online", s.key("online"))
	assert.Len(t, s.keys, 1)
}

func TestStatterReceivesClusterEvents(t *testing.T) {
	reporter := &mocks.StatsReporter{}
	reporter.On("IncCounter", mock.Anything, mock.Anything, mock.Anything)
	reporter.On("UpdateGauge", mock.Anything, mock.Anything, mock.Anything)
	reporter.On("RecordTimer", mock.Anything, mock.Anything, mock.Anything)

	c := newTestCluster(t, "a")
	c.aquarium("a").AddListener(newStatter("a", reporter))
	c.rounds(2)

	reporter.AssertCalled(t, "IncCounter", "aquarium.a.current.leader", mock.Anything, int64(1))
	reporter.AssertCalled(t, "UpdateGauge", "aquarium.a.online", mock.Anything, int64(1))
}
