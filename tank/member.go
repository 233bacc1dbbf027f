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

// Package tank holds the quorum gated state machine that elects a leader
// among a set of members. Every member records its own state in an
// acknowledgment table, every other member acknowledges what it reads there
// and a state only counts once a quorum of members acknowledged it.
package tank

import (
	"sort"
	"strings"
)

// A Member is the opaque identity of a participant. Members order by
// unsigned lexicographic comparison of their bytes.
type Member string

// NewMember creates a member from its binary identity.
func NewMember(b []byte) Member {
	return Member(b)
}

// Bytes returns a copy of the binary identity of the member.
func (m Member) Bytes() []byte {
	return []byte(m)
}

// CompareMembers returns -1, 0 or 1 when a sorts before, equal to or after b.
func CompareMembers(a, b Member) int {
	return strings.Compare(string(a), string(b))
}

// A MemberSet is the set of members that are currently part of the cluster.
type MemberSet map[Member]struct{}

// NewMemberSet creates a set holding the given members.
func NewMemberSet(members ...Member) MemberSet {
	set := make(MemberSet, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	return set
}

// Contains returns whether m is in the set.
func (s MemberSet) Contains(m Member) bool {
	_, ok := s[m]
	return ok
}

// Sorted returns the members of the set in ascending order.
func (s MemberSet) Sorted() []Member {
	members := make([]Member, 0, len(s))
	for m := range s {
		members = append(members, m)
	}
	sort.Slice(members, func(i, j int) bool {
		return members[i] < members[j]
	})
	return members
}
