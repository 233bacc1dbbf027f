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
)

// An Awaiter suspends callers until a condition they check holds.
type Awaiter interface {
	// NotifyChange runs change and wakes all waiters when it returns true.
	NotifyChange(change func() (bool, error)) error

	// AwaitChange blocks until check returns true, check fails or timeout
	// elapsed, in which case ErrAwaitTimeout is returned. check runs once
	// immediately and again after every notification.
	AwaitChange(check func() (bool, error), timeout time.Duration) error
}

// broadcaster wakes waiters by closing a channel and replacing it with a
// fresh one.
type broadcaster struct {
	clock clock.Clock

	mu      sync.Mutex
	changed chan struct{}
}

// NewAwaiter creates an Awaiter whose timeouts run on c.
func NewAwaiter(c clock.Clock) Awaiter {
	return &broadcaster{
		clock:   c,
		changed: make(chan struct{}),
	}
}

func (b *broadcaster) wait() <-chan struct{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.changed
}

func (b *broadcaster) broadcast() {
	b.mu.Lock()
	close(b.changed)
	b.changed = make(chan struct{})
	b.mu.Unlock()
}

func (b *broadcaster) NotifyChange(change func() (bool, error)) error {
	ok, err := change()
	if err != nil {
		return err
	}
	if ok {
		b.broadcast()
	}
	return nil
}

func (b *broadcaster) AwaitChange(check func() (bool, error), timeout time.Duration) error {
	expired := b.clock.After(timeout)
	for {
		// taken before checking so a notification in between is not lost
		changed := b.wait()

		ok, err := check()
		if err != nil || ok {
			return err
		}

		select {
		case <-changed:
		case <-expired:
			return ErrAwaitTimeout
		}
	}
}
