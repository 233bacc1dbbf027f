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

package membership

import "github.com/uber/aquarium-go/tank"

// A Member is one entry of the roster: the identity of a member and the
// lifecycle it was added with.
type Member struct {
	ID        tank.Member
	Lifecycle tank.Lifecycle
}

// MemberChange describes how one member changed.
type MemberChange struct {
	// Before is the member before the change, nil for members that were
	// added.
	Before *Member
	// After is the member after the change, nil for members that were
	// removed.
	After *Member
}

// ChangeEvent is emitted every time the roster changes.
type ChangeEvent struct {
	// Changes holds one change per member affected.
	Changes []MemberChange
}
