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

// Package metrics exposes the events of aquariums and their replicators as
// Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/uber/aquarium-go/events"
	"github.com/uber/aquarium-go/gossip"
)

// A Collector is an events.EventListener that keeps Prometheus metrics of
// the events it handles. Add it as listener to every aquarium and replicator
// of the process and register it once.
type Collector struct {
	states        *prometheus.GaugeVec
	transitions   *prometheus.CounterVec
	taps          *prometheus.HistogramVec
	advances      *prometheus.CounterVec
	heartbeats    *prometheus.CounterVec
	alive         *prometheus.GaugeVec
	online        *prometheus.GaugeVec
	awaitTimeouts *prometheus.CounterVec
	advanceLimits *prometheus.CounterVec
	syncs         *prometheus.CounterVec
	syncDuration  *prometheus.HistogramVec
}

// NewCollector creates a collector whose metrics are named
// <namespace>_<name>.
func NewCollector(namespace string) *Collector {
	return &Collector{
		states: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "state",
				Help:      "Code of the last state the local member committed for a member, by table.",
			},
			[]string{"local", "member", "context"},
		),
		transitions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "transitions_total",
				Help:      "Committed transitions by table and states.",
			},
			[]string{"local", "context", "from", "to"},
		),
		taps: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "tap_the_glass_seconds",
				Help:      "Time to advance the state machine to a fixed point.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 14),
			},
			[]string{"local"},
		),
		advances: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "advances_total",
				Help:      "Steps the state machine advanced.",
			},
			[]string{"local"},
		),
		heartbeats: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "heartbeats_total",
				Help:      "Heartbeats written.",
			},
			[]string{"local"},
		),
		alive: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "alive",
				Help:      "1 while a quorum acknowledges the heartbeats of the member.",
			},
			[]string{"local"},
		),
		online: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "online",
				Help:      "1 while the member is settled as leader or follower.",
			},
			[]string{"local", "state"},
		),
		awaitTimeouts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "await_online_timeouts_total",
				Help:      "Waits for the member to come online that timed out.",
			},
			[]string{"local"},
		),
		advanceLimits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "advance_limit_total",
				Help:      "Taps that stopped at the advance limit.",
			},
			[]string{"local", "state"},
		),
		syncs: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "syncs_total",
				Help:      "Syncs with peers by result.",
			},
			[]string{"local", "result"},
		),
		syncDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "sync_seconds",
				Help:      "Latency of successful syncs with peers.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 13),
			},
			[]string{"local"},
		),
	}
}

func (c *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		c.states, c.transitions, c.taps, c.advances, c.heartbeats, c.alive,
		c.online, c.awaitTimeouts, c.advanceLimits, c.syncs, c.syncDuration,
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, collector := range c.collectors() {
		collector.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, collector := range c.collectors() {
		collector.Collect(ch)
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// HandleEvent implements events.EventListener.
func (c *Collector) HandleEvent(event events.Event) {
	switch event := event.(type) {
	case events.TransitionEvent:
		local, context := string(event.Local), event.Context.String()
		from := "none"
		if event.From.Valid() {
			from = event.From.String()
		}
		c.states.WithLabelValues(local, string(event.Member), context).Set(float64(event.To.Byte()))
		c.transitions.WithLabelValues(local, context, from, event.To.String()).Inc()

	case events.TapTheGlassEvent:
		local := string(event.Local)
		c.taps.WithLabelValues(local).Observe(event.Duration.Seconds())
		c.advances.WithLabelValues(local).Add(float64(event.Advances))

	case events.FeedTheFishEvent:
		local := string(event.Local)
		c.heartbeats.WithLabelValues(local).Inc()
		c.alive.WithLabelValues(local).Set(boolValue(event.Alive))

	case events.OnlineChangedEvent:
		c.online.WithLabelValues(string(event.Local), event.State.String()).Set(boolValue(event.Online))

	case events.AwaitTimeoutEvent:
		c.awaitTimeouts.WithLabelValues(string(event.Local)).Inc()

	case events.AdvanceLimitEvent:
		c.advanceLimits.WithLabelValues(string(event.Local), event.State.String()).Inc()

	case gossip.SyncEvent:
		result := "merged"
		if event.InSync {
			result = "in-sync"
		}
		c.syncs.WithLabelValues(event.Local, result).Inc()
		c.syncDuration.WithLabelValues(event.Local).Observe(event.Duration.Seconds())

	case gossip.SyncFailedEvent:
		c.syncs.WithLabelValues(event.Local, "failed").Inc()
	}
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
