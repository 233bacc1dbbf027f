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

package tank

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompareMembers(t *testing.T) {
	assert.Equal(t, -1, CompareMembers("a", "b"))
	assert.Equal(t, 1, CompareMembers("b", "a"))
	assert.Equal(t, 0, CompareMembers("a", "a"))
	assert.Equal(t, -1, CompareMembers("a", "aa"), "expected prefix to sort first")
	assert.Equal(t, -1, CompareMembers(NewMember([]byte{0x7f}), NewMember([]byte{0x80})), "expected unsigned order")
}

func TestMemberBytesAreCopied(t *testing.T) {
	m := NewMember([]byte("node"))
	b := m.Bytes()
	b[0] = 'x'
	assert.Equal(t, Member("node"), m)
}

func TestMemberSet(t *testing.T) {
	set := NewMemberSet("c", "a", "b", "a")

	assert.Len(t, set, 3)
	assert.True(t, set.Contains("b"))
	assert.False(t, set.Contains("d"))
	assert.Equal(t, []Member{"a", "b", "c"}, set.Sorted())
}

func TestMajority(t *testing.T) {
	size := 5
	atQuorum := Majority(func() int { return size })

	assert.False(t, atQuorum(2))
	assert.True(t, atQuorum(3))

	size = 4
	assert.False(t, atQuorum(2), "expected half not to be a majority")
	assert.True(t, atQuorum(3))
}
