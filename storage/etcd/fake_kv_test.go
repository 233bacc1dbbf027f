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

package etcd

import (
	"sort"
	"sync"

	pb "go.etcd.io/etcd/api/v3/etcdserverpb"
	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"
	"golang.org/x/net/context"
)

// fakeKV is an in memory clientv3.KV that keeps revisions the way etcd does.
type fakeKV struct {
	sync.Mutex
	revision int64
	data     map[string]*mvccpb.KeyValue

	// conflicts is the number of guarded transactions that fail as if a
	// concurrent writer won
	conflicts int
	err       error
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: make(map[string]*mvccpb.KeyValue)}
}

func (f *fakeKV) rangeOf(op clientv3.Op) []*mvccpb.KeyValue {
	key, end := string(op.KeyBytes()), string(op.RangeBytes())
	if end == "" {
		if kv, ok := f.data[key]; ok {
			return []*mvccpb.KeyValue{kv}
		}
		return nil
	}

	var kvs []*mvccpb.KeyValue
	for k, kv := range f.data {
		if k >= key && k < end {
			kvs = append(kvs, kv)
		}
	}
	sort.Slice(kvs, func(i, j int) bool {
		return string(kvs[i].Key) < string(kvs[j].Key)
	})
	return kvs
}

func (f *fakeKV) put(key string, value []byte) {
	kv, ok := f.data[key]
	if !ok {
		kv = &mvccpb.KeyValue{Key: []byte(key), CreateRevision: f.revision}
		f.data[key] = kv
	}
	kv.Value = value
	kv.ModRevision = f.revision
	kv.Version++
}

func (f *fakeKV) Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error) {
	f.Lock()
	defer f.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	f.revision++
	f.put(key, []byte(val))
	return &clientv3.PutResponse{}, nil
}

func (f *fakeKV) Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error) {
	f.Lock()
	defer f.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	kvs := f.rangeOf(clientv3.OpGet(key, opts...))
	return &clientv3.GetResponse{Kvs: kvs, Count: int64(len(kvs))}, nil
}

func (f *fakeKV) Delete(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.DeleteResponse, error) {
	f.Lock()
	defer f.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	kvs := f.rangeOf(clientv3.OpDelete(key, opts...))
	for _, kv := range kvs {
		delete(f.data, string(kv.Key))
	}
	f.revision++
	return &clientv3.DeleteResponse{Deleted: int64(len(kvs))}, nil
}

func (f *fakeKV) Compact(ctx context.Context, rev int64, opts ...clientv3.CompactOption) (*clientv3.CompactResponse, error) {
	return &clientv3.CompactResponse{}, nil
}

func (f *fakeKV) Do(ctx context.Context, op clientv3.Op) (clientv3.OpResponse, error) {
	panic("not used by the backend")
}

func (f *fakeKV) Txn(ctx context.Context) clientv3.Txn {
	return &fakeTxn{kv: f}
}

type fakeTxn struct {
	kv    *fakeKV
	cmps  []clientv3.Cmp
	thens []clientv3.Op
	elses []clientv3.Op
}

func (t *fakeTxn) If(cs ...clientv3.Cmp) clientv3.Txn {
	t.cmps = append(t.cmps, cs...)
	return t
}

func (t *fakeTxn) Then(ops ...clientv3.Op) clientv3.Txn {
	t.thens = append(t.thens, ops...)
	return t
}

func (t *fakeTxn) Else(ops ...clientv3.Op) clientv3.Txn {
	t.elses = append(t.elses, ops...)
	return t
}

// holds evaluates the equality compares on revisions the backend issues.
func (t *fakeTxn) holds(cmp clientv3.Cmp) bool {
	c := (*pb.Compare)(&cmp)
	var actual int64
	kv, ok := t.kv.data[string(c.Key)]
	switch c.Target {
	case pb.Compare_MOD:
		if ok {
			actual = kv.ModRevision
		}
		return c.Result == pb.Compare_EQUAL && actual == c.GetModRevision()
	case pb.Compare_CREATE:
		if ok {
			actual = kv.CreateRevision
		}
		return c.Result == pb.Compare_EQUAL && actual == c.GetCreateRevision()
	}
	return false
}

func (t *fakeTxn) Commit() (*clientv3.TxnResponse, error) {
	f := t.kv
	f.Lock()
	defer f.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	succeeded := true
	if len(t.cmps) > 0 && f.conflicts > 0 {
		f.conflicts--
		succeeded = false
	}
	for _, cmp := range t.cmps {
		succeeded = succeeded && t.holds(cmp)
	}

	ops := t.thens
	if !succeeded {
		ops = t.elses
	}

	resp := &clientv3.TxnResponse{Succeeded: succeeded}
	wrote := false
	for _, op := range ops {
		switch {
		case op.IsGet():
			resp.Responses = append(resp.Responses, &pb.ResponseOp{
				Response: &pb.ResponseOp_ResponseRange{
					ResponseRange: &pb.RangeResponse{Kvs: f.rangeOf(op)},
				},
			})
		case op.IsPut():
			if !wrote {
				f.revision++
				wrote = true
			}
			f.put(string(op.KeyBytes()), op.ValueBytes())
			resp.Responses = append(resp.Responses, &pb.ResponseOp{
				Response: &pb.ResponseOp_ResponsePut{ResponsePut: &pb.PutResponse{}},
			})
		}
	}
	return resp, nil
}
