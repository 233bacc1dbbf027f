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

// Package gossip replicates the tables of an aquarium between members that
// each keep their own in memory backend. Every period a member pushes its
// rows to every other member over TChannel and merges the rows it gets back.
// Rows merge by keeping the greater (timestamp, version), so members that
// sync often enough converge on the same tables.
package gossip

import (
	"errors"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rcrowley/go-metrics"
	"github.com/uber-common/bark"
	"github.com/uber/aquarium-go/events"
	"github.com/uber/aquarium-go/logging"
	"github.com/uber/aquarium-go/storage"
	"github.com/uber/aquarium-go/tank"
	"github.com/uber/aquarium-go/util"
	"github.com/uber/tchannel-go/json"
)

// ErrTimeout is returned when a peer did not answer a sync in time.
var ErrTimeout = errors.New("sync timed out")

// Options configure a Replicator.
type Options struct {
	// Period is the time between two rounds of syncs.
	Period time.Duration
	// Timeout bounds a sync with one peer.
	Timeout time.Duration
	Clock   clock.Clock
}

var defaultOptions = Options{
	Period:  200 * time.Millisecond,
	Timeout: time.Second,
}

func mergeDefaultOptions(opts *Options) *Options {
	if opts == nil {
		opts = &Options{}
	}

	c := opts.Clock
	if c == nil {
		c = clock.New()
	}

	return &Options{
		Period:  util.SelectDuration(opts.Period, defaultOptions.Period),
		Timeout: util.SelectDuration(opts.Timeout, defaultOptions.Timeout),
		Clock:   c,
	}
}

// A Replicator exchanges the rows of a backend with the current members.
// Members are addressed by their identity, which must be their TChannel
// host:port.
type Replicator struct {
	events.SyncEventEmitter

	local   string
	channel SubChannel
	backend storage.Backend
	members tank.CurrentMembers
	options *Options

	state struct {
		sync.Mutex
		running bool
		stop    chan bool
		stopped <-chan bool
	}

	timing metrics.Histogram
	logger bark.Logger
}

// NewReplicator creates a replicator for the member listening on local and
// registers its endpoint on channel.
func NewReplicator(local string, channel SubChannel, backend storage.Backend, members tank.CurrentMembers, opts *Options) (*Replicator, error) {
	r := &Replicator{
		local:   local,
		channel: channel,
		backend: backend,
		members: members,
		options: mergeDefaultOptions(opts),
		timing:  metrics.NewHistogram(metrics.NewUniformSample(100)),
		logger:  logging.Logger("gossip").WithField("local", local),
	}

	if err := r.registerHandlers(); err != nil {
		return nil, err
	}
	return r, nil
}

// Sync pushes the local rows to target and merges the rows it answers with.
func (r *Replicator) Sync(target string) error {
	entries, err := storage.Export(r.backend)
	if err != nil {
		return err
	}
	req := &syncRequest{
		Source:   r.local,
		Checksum: storage.Checksum(entries),
		Rows:     toRows(entries),
	}

	ctx, cancel := newTChannelContext(r.options.Timeout)
	defer cancel()

	peer := r.channel.Peers().GetOrAdd(target)
	startTime := time.Now()

	errC := make(chan error, 1)
	res := &syncResponse{}
	go func() {
		errC <- json.CallPeer(ctx, peer, r.channel.ServiceName(), SyncEndpoint, req, res)
	}()

	select {
	case err = <-errC:
	case <-ctx.Done():
		err = ErrTimeout
	}
	if err != nil {
		r.logger.WithFields(bark.Fields{
			"remote": target,
			"error":  err,
		}).Debug("sync failed")
		r.EmitEvent(SyncFailedEvent{Local: r.local, Remote: target, Error: err})
		return err
	}

	dropped := 0
	if !res.InSync {
		dropped, err = storage.Import(r.backend, toEntries(res.Rows))
		if err != nil {
			return err
		}
	}

	duration := time.Now().Sub(startTime)
	r.timing.Update(int64(duration))
	r.EmitEvent(SyncEvent{
		Local:    r.local,
		Remote:   target,
		InSync:   res.InSync,
		Rows:     len(res.Rows),
		Dropped:  dropped,
		Duration: duration,
	})
	return nil
}

// SyncAll syncs with every current member in turn and returns how many
// syncs succeeded.
func (r *Replicator) SyncAll() (int, error) {
	current, err := r.members.Current()
	if err != nil {
		return 0, err
	}

	synced := 0
	for _, m := range current.Sorted() {
		if string(m) == r.local {
			continue
		}
		if r.Sync(string(m)) == nil {
			synced++
		}
	}
	return synced, nil
}

// Start syncs with every member once per period in the background.
func (r *Replicator) Start() {
	r.state.Lock()
	defer r.state.Unlock()

	if r.state.running {
		r.logger.Warn("replicator already started")
		return
	}
	r.state.running = true

	r.state.stop, r.state.stopped = schedule(func() {
		if _, err := r.SyncAll(); err != nil {
			r.logger.WithField("error", err).Warn("sync round failed")
		}
	}, r.options.Period, r.options.Clock)

	r.logger.Debug("started replicator")
}

// Stop stops the background syncs and waits for the running round.
func (r *Replicator) Stop() {
	r.state.Lock()
	defer r.state.Unlock()

	if !r.state.running {
		r.logger.Warn("replicator already stopped")
		return
	}
	r.state.running = false

	close(r.state.stop)
	<-r.state.stopped

	r.logger.Debug("stopped replicator")
}

// Stopped returns whether the replicator is not syncing in the background.
func (r *Replicator) Stopped() bool {
	r.state.Lock()
	defer r.state.Unlock()
	return !r.state.running
}

// Timing returns the durations of the successful syncs.
func (r *Replicator) Timing() metrics.Histogram {
	return r.timing
}

func schedule(what func(), period time.Duration, clock clock.Clock) (chan bool, <-chan bool) {
	stop := make(chan bool)
	stopped := make(chan bool)

	go func() {
		defer close(stopped)
		for {
			what()
			select {
			case <-clock.After(period):
			case <-stop:
				return
			}
		}
	}()

	return stop, stopped
}
