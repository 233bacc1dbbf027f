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

package orderid

import (
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockClock() *clock.Mock {
	c := clock.NewMock()
	c.Add(Epoch.Sub(time.Unix(0, 0)) + time.Hour)
	return c
}

func TestNewProviderValidatesWriter(t *testing.T) {
	_, err := NewProvider(-1, nil)
	assert.Equal(t, ErrWriterID, err)
	_, err = NewProvider(MaxWriterID+1, nil)
	assert.Equal(t, ErrWriterID, err)

	p, err := NewProvider(MaxWriterID, nil)
	require.NoError(t, err)
	assert.Equal(t, MaxWriterID, Writer(p.NextID()))
}

func TestIDsEncodeTimeAndWriter(t *testing.T) {
	c := newMockClock()
	p, err := NewProvider(7, c)
	require.NoError(t, err)

	id := p.NextID()
	assert.Equal(t, 7, Writer(id))
	assert.True(t, Time(id).Equal(c.Now()), "expected %v to equal %v", Time(id), c.Now())
}

func TestIDsIncrease(t *testing.T) {
	c := newMockClock()
	p, err := NewProvider(1, c)
	require.NoError(t, err)

	last := p.NextID()
	for i := 0; i < 10000; i++ {
		if i%1000 == 0 {
			c.Add(time.Millisecond)
		}
		id := p.NextID()
		require.True(t, id > last, "expected %d to be greater than %d", id, last)
		last = id
	}
}

func TestIDsIncreaseWhenClockGoesBack(t *testing.T) {
	c := newMockClock()
	p, err := NewProvider(1, c)
	require.NoError(t, err)

	before := p.NextID()
	c.Add(-time.Minute)
	after := p.NextID()

	assert.True(t, after > before)
	assert.Equal(t, Time(before), Time(after), "expected time to hold until the clock catches up")
}

func TestSequenceOverflowMovesOn(t *testing.T) {
	c := newMockClock()
	p, err := NewProvider(1, c)
	require.NoError(t, err)

	first := p.NextID()
	var last int64
	for i := 0; i < maxSequence+1; i++ {
		last = p.NextID()
	}
	assert.True(t, Time(first).Add(time.Millisecond).Equal(Time(last)), "expected the next millisecond")
}

func TestWritersNeverCollide(t *testing.T) {
	c := newMockClock()
	a, err := NewProvider(1, c)
	require.NoError(t, err)
	b, err := NewProvider(2, c)
	require.NoError(t, err)

	seen := make(map[int64]bool)
	for i := 0; i < 100; i++ {
		for _, id := range []int64{a.NextID(), b.NextID()} {
			assert.False(t, seen[id], "expected id %d to be unique", id)
			seen[id] = true
		}
	}
}

func TestConcurrentIDsAreUnique(t *testing.T) {
	p, err := NewProvider(3, newMockClock())
	require.NoError(t, err)

	var wg sync.WaitGroup
	ids := make(chan int64, 8*500)
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				ids <- p.NextID()
			}
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Len(t, seen, 8*500)
}

func TestWriterID(t *testing.T) {
	id := WriterID("127.0.0.1:3000")
	assert.True(t, id >= 0 && id <= MaxWriterID)
	assert.Equal(t, id, WriterID("127.0.0.1:3000"), "expected writer id to be stable")
}
