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

package tank_test

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"
	"github.com/uber/aquarium-go/membership"
	"github.com/uber/aquarium-go/orderid"
	"github.com/uber/aquarium-go/storage"
	"github.com/uber/aquarium-go/tank"
)

// tables wires the three tables of a shared in memory backend to the read
// and write paths of a roster.
type tables struct {
	backend    *storage.MemoryBackend
	roster     *membership.Roster
	clock      *clock.Mock
	current    *storage.StateTable
	desired    *storage.StateTable
	liveliness *storage.LivelinessTable
	stats      *tank.Stats
}

func newTables(t *testing.T, members ...tank.Member) *tables {
	c := clock.NewMock()
	c.Add(time.Second)

	ids, err := orderid.NewProvider(1, c)
	require.NoError(t, err)

	backend := storage.NewMemoryBackend()
	return &tables{
		backend:    backend,
		roster:     membership.NewRoster(members...),
		clock:      c,
		current:    storage.NewStateTable(backend, storage.ContextCurrent, ids),
		desired:    storage.NewStateTable(backend, storage.ContextDesired, ids),
		liveliness: storage.NewLivelinessTable(backend, ids),
		stats:      tank.NewStats(),
	}
}

func (tb *tables) ports() tank.Ports {
	return tank.Ports{
		ReadCurrent:  tank.NewReadWaterline(tb.current, tb.roster, tb.roster, tb.roster.Majority(), tb.stats.Current),
		ReadDesired:  tank.NewReadWaterline(tb.desired, tb.roster, tb.roster, tb.roster.Majority(), tb.stats.Desired),
		WriteCurrent: tank.NewWriteWaterline(tb.current, tb.roster),
		WriteDesired: tank.NewWriteWaterline(tb.desired, tb.roster),
	}
}

func (tb *tables) livelinessOf(m tank.Member, c clock.Clock, deadAfter time.Duration) *tank.Liveliness {
	return tank.NewLiveliness(c, tb.liveliness, m, tb.roster, tb.roster.Majority(), deadAfter, tb.stats)
}

// others collects the waterlines GetOthers visits.
func others(t *testing.T, read *tank.ReadWaterline, asMember tank.Member) []*tank.Waterline {
	var visited []*tank.Waterline
	err := read.GetOthers(asMember, func(w *tank.Waterline) bool {
		visited = append(visited, w)
		return true
	})
	require.NoError(t, err)
	return visited
}
