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
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rcrowley/go-metrics"
	"github.com/uber-common/bark"
	"github.com/uber/aquarium-go/logging"
	"github.com/uber/aquarium-go/util"
)

// DriverOptions configure a Driver.
type DriverOptions struct {
	// Period is the time between the start of two ticks.
	Period time.Duration

	Clock clock.Clock
}

func defaultDriverOptions() *DriverOptions {
	return &DriverOptions{
		Period: 100 * time.Millisecond,
		Clock:  clock.New(),
	}
}

func mergeDriverOptions(opts *DriverOptions) *DriverOptions {
	def := defaultDriverOptions()
	if opts == nil {
		return def
	}

	opts.Period = util.SelectDuration(opts.Period, def.Period)
	if opts.Clock == nil {
		opts.Clock = def.Clock
	}
	return opts
}

// A Driver ticks an aquarium periodically: it feeds the fish, acknowledges
// the others and taps the glass. Failed ticks are logged and retried on the
// next tick.
type Driver struct {
	aquarium *Aquarium
	options  *DriverOptions

	state struct {
		sync.Mutex
		running bool
		stop    chan bool
		stopped <-chan bool
	}

	ticks  metrics.Meter
	errors metrics.Counter
	timing metrics.Histogram

	logger bark.Logger
}

// NewDriver creates a stopped driver of a.
func NewDriver(a *Aquarium, opts *DriverOptions) *Driver {
	d := &Driver{
		aquarium: a,
		options:  mergeDriverOptions(opts),
		ticks:    metrics.NewMeter(),
		errors:   metrics.NewCounter(),
		timing:   metrics.NewHistogram(metrics.NewUniformSample(100)),
		logger:   logging.Logger("driver").WithField("local", string(a.Member())),
	}
	return d
}

// Tick runs feed, acknowledge and tap once, stopping at the first error.
func (d *Driver) Tick() error {
	start := d.options.Clock.Now()
	defer func() {
		d.ticks.Mark(1)
		d.timing.Update(int64(d.options.Clock.Now().Sub(start)))
	}()

	if err := d.aquarium.FeedTheFish(); err != nil {
		return err
	}
	if err := d.aquarium.AcknowledgeOther(); err != nil {
		return err
	}
	return d.aquarium.TapTheGlass()
}

func (d *Driver) tick() bool {
	err := d.Tick()
	if err == ErrStopped {
		d.logger.Info("aquarium destroyed, driver exits")
		return false
	}
	if err != nil {
		d.errors.Inc(1)
		d.logger.WithField("error", err.Error()).Warn("tick failed")
	}
	return true
}

// Start ticks the aquarium every period in the background.
func (d *Driver) Start() {
	d.state.Lock()
	defer d.state.Unlock()

	if d.state.running {
		d.logger.Warn("driver already started")
		return
	}
	d.state.running = true
	d.state.stop, d.state.stopped = schedule(d.tick, d.options.Period, d.options.Clock)

	d.logger.Debug("started driver")
}

// Stop stops ticking and waits for a running tick to finish.
func (d *Driver) Stop() {
	d.state.Lock()
	defer d.state.Unlock()

	if !d.state.running {
		d.logger.Warn("driver already stopped")
		return
	}
	d.state.running = false

	close(d.state.stop)
	<-d.state.stopped

	d.logger.Debug("stopped driver")
}

// Stopped returns whether the driver is not ticking, either because it was
// stopped or because its aquarium was destroyed.
func (d *Driver) Stopped() bool {
	d.state.Lock()
	defer d.state.Unlock()
	if !d.state.running {
		return true
	}
	select {
	case <-d.state.stopped:
		return true
	default:
		return false
	}
}

// Ticks returns the rate of ticks.
func (d *Driver) Ticks() metrics.Meter {
	return d.ticks
}

// Errors counts the failed ticks.
func (d *Driver) Errors() metrics.Counter {
	return d.errors
}

// Timing returns the durations of ticks in nanoseconds.
func (d *Driver) Timing() metrics.Histogram {
	return d.timing
}

// schedule runs what every period until stop is closed or what returns
// false. stopped is closed once the loop exited.
func schedule(what func() bool, period time.Duration, clock clock.Clock) (stop chan bool, stopped <-chan bool) {
	stop = make(chan bool)
	done := make(chan bool)

	go func() {
		defer close(done)
		for {
			if !what() {
				return
			}
			select {
			case <-clock.After(period):
			case <-stop:
				return
			}
		}
	}()

	return stop, done
}
