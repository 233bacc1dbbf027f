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
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/uber-common/bark"
	"github.com/uber/aquarium-go/events"
)

// statter turns aquarium events into stats.
type statter struct {
	reporter bark.StatsReporter
	prefix   string
	keys     map[string]string
	mutex    sync.RWMutex
}

func newStatter(local string, reporter bark.StatsReporter) *statter {
	return &statter{
		reporter: reporter,
		prefix:   toStatsPrefix(local),
		keys:     make(map[string]string),
	}
}

func (s *statter) HandleEvent(event events.Event) {
	switch event := event.(type) {
	case events.TransitionEvent:
		// one counter per table and state, up when entered and down when left
		context := event.Context.String()
		s.reporter.IncCounter(s.key(context+"."+event.To.String()), nil, 1)
		if event.From.Valid() {
			s.reporter.IncCounter(s.key(context+"."+event.From.String()), nil, -1)
		}

	case events.TapTheGlassEvent:
		s.reporter.IncCounter(s.key("tap-the-glass"), nil, 1)
		s.reporter.IncCounter(s.key("tap-the-glass.advances"), nil, int64(event.Advances))
		s.reporter.RecordTimer(s.key("tap-the-glass"), nil, event.Duration)

	case events.FeedTheFishEvent:
		s.reporter.IncCounter(s.key("feed-the-fish"), nil, 1)
		s.reporter.RecordTimer(s.key("feed-the-fish"), nil, event.Duration)
		s.reporter.UpdateGauge(s.key("alive"), nil, boolGauge(event.Alive))

	case events.AcknowledgeEvent:
		s.reporter.RecordTimer(s.key("acknowledge-other"), nil, event.Duration)

	case events.AwaitTimeoutEvent:
		s.reporter.IncCounter(s.key("await-online.timed-out"), nil, 1)

	case events.AdvanceLimitEvent:
		s.reporter.IncCounter(s.key("advance-limit"), nil, 1)

	case events.OnlineChangedEvent:
		s.reporter.UpdateGauge(s.key("online"), nil, boolGauge(event.Online))
	}
}

func (s *statter) key(suffix string) string {
	s.mutex.RLock()
	key, ok := s.keys[suffix]
	s.mutex.RUnlock()

	if !ok {
		// Upgrade to RW, double-check.
		s.mutex.Lock()
		key, ok = s.keys[suffix]
		if !ok {
			key = s.prefix + suffix
			s.keys[suffix] = key
		}
		s.mutex.Unlock()
	}

	return key
}

func boolGauge(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

// toStatsPrefix transforms a member into a stats compatible prefix, for
// example 192.168.0.12:3000 into aquarium.192_168_0_12_3000.
func toStatsPrefix(local string) string {
	prefix := strings.Replace(local, ".", "_", -1)
	prefix = strings.Replace(prefix, ":", "_", -1)
	return fmt.Sprintf("aquarium.%s.", prefix)
}

type noopStatsReporter struct{}

func (noopStatsReporter) IncCounter(name string, tags bark.Tags, value int64)      {}
func (noopStatsReporter) UpdateGauge(name string, tags bark.Tags, value int64)     {}
func (noopStatsReporter) RecordTimer(name string, tags bark.Tags, d time.Duration) {}
