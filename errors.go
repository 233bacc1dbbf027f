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

import "errors"

var (
	// ErrAwaitTimeout is returned when the local member did not come online
	// before the timeout elapsed.
	ErrAwaitTimeout = errors.New("timed out waiting for a lively end state")

	// ErrAdvanceLimit is returned by TapTheGlass when the state machine kept
	// advancing for more steps than allowed.
	ErrAdvanceLimit = errors.New("state machine did not settle")

	// ErrNotMember is returned for members that are not current.
	ErrNotMember = errors.New("not a current member")

	// ErrInvalidState is returned when an unknown state is suggested.
	ErrInvalidState = errors.New("invalid state")

	// ErrStopped is returned by operations on a destroyed aquarium.
	ErrStopped = errors.New("aquarium is destroyed")
)
