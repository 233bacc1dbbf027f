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

// Package etcd stores the aquarium tables in etcd so that members on
// different hosts share one acknowledgment table.
package etcd

import (
	"bytes"
	"errors"
	"time"

	"github.com/uber-common/bark"
	"github.com/uber/aquarium-go/logging"
	"github.com/uber/aquarium-go/storage"
	"github.com/uber/aquarium-go/util"
	clientv3 "go.etcd.io/etcd/client/v3"
	"golang.org/x/net/context"
)

// ErrConflict is returned when a merge kept losing against concurrent
// writers until it ran out of retries.
var ErrConflict = errors.New("etcd: too many conflicting merges")

// Options configure a Backend.
type Options struct {
	// Prefix is prepended to every key.
	Prefix string
	// Timeout bounds every request.
	Timeout time.Duration
	// Retries bounds how often a conflicting merge is retried.
	Retries int
}

var defaultOptions = Options{
	Prefix:  "/aquarium/",
	Timeout: 5 * time.Second,
	Retries: 8,
}

func mergeDefaultOptions(opts *Options) *Options {
	if opts == nil {
		return &defaultOptions
	}

	return &Options{
		Prefix:  util.SelectString(opts.Prefix, defaultOptions.Prefix),
		Timeout: util.SelectDuration(opts.Timeout, defaultOptions.Timeout),
		Retries: util.SelectInt(opts.Retries, defaultOptions.Retries),
	}
}

// Backend is a storage.Backend kept in etcd. Merges run as transactions
// that only commit when none of the merged keys changed since they were read.
type Backend struct {
	kv      clientv3.KV
	options *Options
	logger  bark.Logger
}

// New creates a backend on kv, usually a *clientv3.Client.
func New(kv clientv3.KV, opts *Options) *Backend {
	options := mergeDefaultOptions(opts)
	return &Backend{
		kv:      kv,
		options: options,
		logger:  logging.Logger("storage").WithField("prefix", options.Prefix),
	}
}

// Dial connects to the etcd cluster at endpoints.
func Dial(endpoints []string, dialTimeout time.Duration) (*clientv3.Client, error) {
	return clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: dialTimeout,
	})
}

func (b *Backend) key(k []byte) string {
	return b.options.Prefix + string(k)
}

func (b *Backend) rangeEnd(to []byte) string {
	if to == nil {
		return clientv3.GetPrefixRangeEnd(b.options.Prefix)
	}
	return b.key(to)
}

func (b *Backend) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), b.options.Timeout)
}

// Get returns the value stored under key.
func (b *Backend) Get(key []byte) ([]byte, bool, error) {
	ctx, cancel := b.ctx()
	defer cancel()

	resp, err := b.kv.Get(ctx, b.key(key))
	if err != nil {
		return nil, false, err
	}
	if len(resp.Kvs) == 0 {
		return nil, false, nil
	}
	return resp.Kvs[0].Value, true, nil
}

// Scan reads the range [from, to) in one request and visits it in order.
func (b *Backend) Scan(from, to []byte, visit func(key, value []byte) bool) error {
	ctx, cancel := b.ctx()
	defer cancel()

	resp, err := b.kv.Get(ctx, b.key(from),
		clientv3.WithRange(b.rangeEnd(to)),
		clientv3.WithSort(clientv3.SortByKey, clientv3.SortAscend))
	if err != nil {
		return err
	}

	for _, kv := range resp.Kvs {
		if !visit(kv.Key[len(b.options.Prefix):], kv.Value) {
			break
		}
	}
	return nil
}

// Merge reads the entries, merges them and writes the changed ones back in a
// transaction guarded by the mod revision of every key read.
func (b *Backend) Merge(entries []storage.Entry, merge storage.MergeFunc) (int, error) {
	for attempt := 0; attempt <= b.options.Retries; attempt++ {
		committed, changed, err := b.tryMerge(entries, merge)
		if err != nil {
			return 0, err
		}
		if committed {
			return changed, nil
		}
		b.logger.WithField("attempt", attempt).Debug("merge conflicted, retrying")
	}
	return 0, ErrConflict
}

func (b *Backend) tryMerge(entries []storage.Entry, merge storage.MergeFunc) (bool, int, error) {
	ctx, cancel := b.ctx()
	defer cancel()

	reads := make([]clientv3.Op, 0, len(entries))
	for _, e := range entries {
		reads = append(reads, clientv3.OpGet(b.key(e.Key)))
	}
	read, err := b.kv.Txn(ctx).Then(reads...).Commit()
	if err != nil {
		return false, 0, err
	}

	cmps := make([]clientv3.Cmp, 0, len(entries))
	puts := make([]clientv3.Op, 0, len(entries))
	for i, e := range entries {
		key := b.key(e.Key)
		var existing []byte
		rng := read.Responses[i].GetResponseRange()
		if rng != nil && len(rng.Kvs) > 0 {
			existing = rng.Kvs[0].Value
			cmps = append(cmps, clientv3.Compare(clientv3.ModRevision(key), "=", rng.Kvs[0].ModRevision))
		} else {
			cmps = append(cmps, clientv3.Compare(clientv3.CreateRevision(key), "=", 0))
		}
		merged := merge(existing, e.Value)
		if existing != nil && bytes.Equal(merged, existing) {
			continue
		}
		puts = append(puts, clientv3.OpPut(key, string(merged)))
	}
	if len(puts) == 0 {
		return true, 0, nil
	}

	resp, err := b.kv.Txn(ctx).If(cmps...).Then(puts...).Commit()
	if err != nil {
		return false, 0, err
	}
	return resp.Succeeded, len(puts), nil
}

// Delete removes the keys in [from, to).
func (b *Backend) Delete(from, to []byte) (int, error) {
	ctx, cancel := b.ctx()
	defer cancel()

	resp, err := b.kv.Delete(ctx, b.key(from), clientv3.WithRange(b.rangeEnd(to)))
	if err != nil {
		return 0, err
	}
	return int(resp.Deleted), nil
}
