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

import "time"

// A SyncEvent is sent after the local member exchanged rows with a peer.
type SyncEvent struct {
	Local  string
	Remote string
	// InSync is set when the checksums matched and no rows were exchanged.
	InSync bool
	// Rows is the number of rows received from the peer.
	Rows     int
	Dropped  int
	Duration time.Duration
}

// A SyncFailedEvent is sent when a sync with a peer failed.
type SyncFailedEvent struct {
	Local  string
	Remote string
	Error  error
}

// A SyncReceiveEvent is sent after the local member answered the sync of a
// peer.
type SyncReceiveEvent struct {
	Local  string
	Remote string
	InSync bool
	// Rows is the number of rows received from the peer.
	Rows int
}
