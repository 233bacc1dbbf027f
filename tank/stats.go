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

import "github.com/rcrowley/go-metrics"

// Stats counts the operations performed by the components of one member.
type Stats struct {
	FeedTheFish         metrics.Counter
	AcknowledgeOther    metrics.Counter
	TapTheGlass         metrics.Counter
	TapTheGlassNotified metrics.Counter
	CaptureEndState     metrics.Counter

	GetLivelyEndState metrics.Counter
	SuggestState      metrics.Counter
	GetLeader         metrics.Counter

	GetStateForMember         metrics.Counter
	IsLivelyStateForMember    metrics.Counter
	IsLivelyEndStateForMember metrics.Counter

	AwaitOnline   metrics.Counter
	AwaitTimedOut metrics.Counter

	Current WaterlineStats
	Desired WaterlineStats
}

// WaterlineStats counts the reads of one acknowledgment table.
type WaterlineStats struct {
	GetMine          metrics.Counter
	GetOthers        metrics.Counter
	AcknowledgeOther metrics.Counter
}

// NewStats creates zeroed stats.
func NewStats() *Stats {
	return &Stats{
		FeedTheFish:         metrics.NewCounter(),
		AcknowledgeOther:    metrics.NewCounter(),
		TapTheGlass:         metrics.NewCounter(),
		TapTheGlassNotified: metrics.NewCounter(),
		CaptureEndState:     metrics.NewCounter(),

		GetLivelyEndState: metrics.NewCounter(),
		SuggestState:      metrics.NewCounter(),
		GetLeader:         metrics.NewCounter(),

		GetStateForMember:         metrics.NewCounter(),
		IsLivelyStateForMember:    metrics.NewCounter(),
		IsLivelyEndStateForMember: metrics.NewCounter(),

		AwaitOnline:   metrics.NewCounter(),
		AwaitTimedOut: metrics.NewCounter(),

		Current: newWaterlineStats(),
		Desired: newWaterlineStats(),
	}
}

func newWaterlineStats() WaterlineStats {
	return WaterlineStats{
		GetMine:          metrics.NewCounter(),
		GetOthers:        metrics.NewCounter(),
		AcknowledgeOther: metrics.NewCounter(),
	}
}

// Snapshot returns the current value of every counter keyed by a dotted name.
func (s *Stats) Snapshot() map[string]int64 {
	return map[string]int64{
		"feed-the-fish":             s.FeedTheFish.Count(),
		"acknowledge-other":         s.AcknowledgeOther.Count(),
		"tap-the-glass":             s.TapTheGlass.Count(),
		"tap-the-glass.notified":    s.TapTheGlassNotified.Count(),
		"capture-end-state":         s.CaptureEndState.Count(),
		"get-lively-end-state":      s.GetLivelyEndState.Count(),
		"suggest-state":             s.SuggestState.Count(),
		"get-leader":                s.GetLeader.Count(),
		"get-state":                 s.GetStateForMember.Count(),
		"is-lively-state":           s.IsLivelyStateForMember.Count(),
		"is-lively-end-state":       s.IsLivelyEndStateForMember.Count(),
		"await-online":              s.AwaitOnline.Count(),
		"await-online.timed-out":    s.AwaitTimedOut.Count(),
		"current.get-mine":          s.Current.GetMine.Count(),
		"current.get-others":        s.Current.GetOthers.Count(),
		"current.acknowledge-other": s.Current.AcknowledgeOther.Count(),
		"desired.get-mine":          s.Desired.GetMine.Count(),
		"desired.get-others":        s.Desired.GetOthers.Count(),
		"desired.acknowledge-other": s.Desired.AcknowledgeOther.Count(),
	}
}
