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

// Package orderid mints unique, increasing 64 bit ids. An id packs the
// milliseconds since Epoch, the id of the writer and a sequence number, so
// ids of different writers never collide and ids order roughly by time.
package orderid

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/dgryski/go-farm"
	"github.com/uber/aquarium-go/util"
)

const (
	writerBits   = 10
	sequenceBits = 12

	// MaxWriterID is the largest writer id a Provider accepts.
	MaxWriterID = 1<<writerBits - 1
	maxSequence = 1<<sequenceBits - 1

	timestampShift = writerBits + sequenceBits
)

// Epoch is the time ids count milliseconds from.
var Epoch = time.Date(2015, time.January, 1, 0, 0, 0, 0, time.UTC)

// ErrWriterID is returned for writer ids outside [0, MaxWriterID].
var ErrWriterID = errors.New("orderid: writer id out of range")

// A Provider mints ids for one writer.
type Provider struct {
	clock  clock.Clock
	writer int64
	epoch  int64

	mu        sync.Mutex
	timestamp int64
	sequence  int64
}

// NewProvider creates a provider for writer reading time from c.
func NewProvider(writer int, c clock.Clock) (*Provider, error) {
	if writer < 0 || writer > MaxWriterID {
		return nil, ErrWriterID
	}
	if c == nil {
		c = clock.New()
	}
	return &Provider{
		clock:     c,
		writer:    int64(writer),
		epoch:     util.UnixMS(Epoch),
		timestamp: -1,
	}, nil
}

// WriterID derives a writer id from an identity such as a host:port.
func WriterID(identity string) int {
	return int(farm.Fingerprint32([]byte(identity)) % (MaxWriterID + 1))
}

// NextID returns an id greater than every id returned before. When the
// sequence of the current millisecond runs out the provider moves on to the
// next millisecond instead of waiting for the clock.
func (p *Provider) NextID() int64 {
	now := util.NowMS(p.clock) - p.epoch
	if now < 0 {
		now = 0
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	switch {
	case now > p.timestamp:
		p.timestamp = now
		p.sequence = 0
	case p.sequence < maxSequence:
		p.sequence++
	default:
		p.timestamp++
		p.sequence = 0
	}
	return p.timestamp<<timestampShift | p.writer<<sequenceBits | p.sequence
}

// Time returns the time encoded in an id.
func Time(id int64) time.Time {
	ms := id>>timestampShift + util.UnixMS(Epoch)
	return time.Unix(0, ms*int64(time.Millisecond))
}

// Writer returns the writer encoded in an id.
func Writer(id int64) int {
	return int(id >> sequenceBits & MaxWriterID)
}
