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

package gossip

import (
	"github.com/uber-common/bark"
	"github.com/uber/aquarium-go/storage"
	"github.com/uber/tchannel-go/json"
	"golang.org/x/net/context"
)

// SyncEndpoint is the TChannel endpoint rows are exchanged on.
const SyncEndpoint = "/aquarium/sync"

// A row is a raw key value pair of the backend.
type row struct {
	Key   []byte `json:"k"`
	Value []byte `json:"v"`
}

type syncRequest struct {
	Source   string `json:"source"`
	Checksum uint32 `json:"checksum"`
	Rows     []row  `json:"rows"`
}

type syncResponse struct {
	Checksum uint32 `json:"checksum"`
	InSync   bool   `json:"inSync"`
	Rows     []row  `json:"rows,omitempty"`
}

func toRows(entries []storage.Entry) []row {
	rows := make([]row, len(entries))
	for i, e := range entries {
		rows[i] = row{Key: e.Key, Value: e.Value}
	}
	return rows
}

func toEntries(rows []row) []storage.Entry {
	entries := make([]storage.Entry, len(rows))
	for i, r := range rows {
		entries[i] = storage.Entry{Key: r.Key, Value: r.Value}
	}
	return entries
}

func (r *Replicator) registerHandlers() error {
	handlers := map[string]interface{}{
		SyncEndpoint: r.syncHandler,
	}

	return json.Register(r.channel, handlers, func(ctx context.Context, err error) {
		r.logger.WithField("error", err).Info("error occurred")
	})
}

func (r *Replicator) syncHandler(ctx json.Context, req *syncRequest) (*syncResponse, error) {
	return r.handleSync(req)
}

// handleSync merges the rows of the peer unless both sides already hold the
// same rows, and answers with every row held locally.
func (r *Replicator) handleSync(req *syncRequest) (*syncResponse, error) {
	local, err := storage.Export(r.backend)
	if err != nil {
		return nil, err
	}
	if storage.Checksum(local) == req.Checksum {
		r.EmitEvent(SyncReceiveEvent{Local: r.local, Remote: req.Source, InSync: true})
		return &syncResponse{Checksum: req.Checksum, InSync: true}, nil
	}

	dropped, err := storage.Import(r.backend, toEntries(req.Rows))
	if err != nil {
		return nil, err
	}
	if dropped > 0 {
		r.logger.WithFields(bark.Fields{
			"remote":  req.Source,
			"dropped": dropped,
		}).Warn("dropped malformed rows")
	}

	local, err = storage.Export(r.backend)
	if err != nil {
		return nil, err
	}

	r.EmitEvent(SyncReceiveEvent{Local: r.local, Remote: req.Source, Rows: len(req.Rows)})
	return &syncResponse{
		Checksum: storage.Checksum(local),
		Rows:     toRows(local),
	}, nil
}
