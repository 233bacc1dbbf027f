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

//go:generate mockery -name=StateStorage -output=../test/mocks
//go:generate mockery -name=LivelinessStorage -output=../test/mocks

// Lifecycle is the generation of a member. A member that is removed and
// added again gets a new lifecycle and rows of other generations are ignored.
type Lifecycle int64

// A StateRow is one acknowledgment: acker read that root claimed state at
// timestamp. The row where acker equals root is the claim itself.
type StateRow struct {
	Root      Member
	Acker     Member
	Lifecycle Lifecycle
	State     State
	Timestamp int64
	Version   int64
}

// IsSelf returns whether the row is the claim of the root itself.
func (r StateRow) IsSelf() bool {
	return r.Root == r.Acker
}

// A StateFilter narrows a scan. The zero Member matches every member and
// Lifecycle is only matched when MatchLifecycle is set.
type StateFilter struct {
	Root           Member
	Acker          Member
	Lifecycle      Lifecycle
	MatchLifecycle bool
}

// SetState stages the upsert of one acknowledgment row.
type SetState func(root, acker Member, lifecycle Lifecycle, state State, timestamp int64)

// StateStorage is the acknowledgment table of one context. Scans visit rows
// ordered by root ascending, lifecycle descending, the self row first and
// then ackers ascending. All rows staged in one Update commit together and
// each row keeps whichever of the stored and staged values has the greater
// (timestamp, version).
type StateStorage interface {
	// Scan visits the rows matching filter until visit returns false. It
	// returns false when the scan was stopped early.
	Scan(filter StateFilter, visit func(row StateRow) bool) (bool, error)
	// Update commits the rows staged by updates unless it returns false or
	// an error. It returns true when nothing was staged or at least one
	// staged row replaced the stored one.
	Update(updates func(set SetState) (bool, error)) (bool, error)
}

// A LivelinessRow records that acker saw the heartbeat of root stamped at
// timestamp by the clock of root.
type LivelinessRow struct {
	Root      Member
	Acker     Member
	Timestamp int64
	Version   int64
}

// IsSelf returns whether the row is the heartbeat of the root itself.
func (r LivelinessRow) IsSelf() bool {
	return r.Root == r.Acker
}

// SetLiveliness stages the upsert of one heartbeat row.
type SetLiveliness func(root, acker Member, timestamp int64)

// LivelinessStorage is the heartbeat table. It orders and merges rows the
// same way StateStorage does.
type LivelinessStorage interface {
	Scan(root, acker Member, visit func(row LivelinessRow) bool) (bool, error)
	Update(updates func(set SetLiveliness) (bool, error)) (bool, error)
	// Get returns the timestamp stored for (root, acker) or -1.
	Get(root, acker Member) (int64, error)
}

// MemberLifecycle reports the lifecycle of current members.
type MemberLifecycle interface {
	Lifecycle(m Member) (Lifecycle, bool, error)
}

// MemberLifecycleFunc adapts a function to MemberLifecycle.
type MemberLifecycleFunc func(m Member) (Lifecycle, bool, error)

// Lifecycle calls f(m).
func (f MemberLifecycleFunc) Lifecycle(m Member) (Lifecycle, bool, error) {
	return f(m)
}

// CurrentMembers reports the agreed set of current members.
type CurrentMembers interface {
	Current() (MemberSet, error)
}

// CurrentMembersFunc adapts a function to CurrentMembers.
type CurrentMembersFunc func() (MemberSet, error)

// Current calls f().
func (f CurrentMembersFunc) Current() (MemberSet, error) {
	return f()
}

// AtQuorum returns whether count acknowledgments form a quorum.
type AtQuorum func(count int) bool

// Majority returns an AtQuorum that requires more than half of size().
func Majority(size func() int) AtQuorum {
	return func(count int) bool {
		return count > size()/2
	}
}

// OrderIDProvider mints unique, increasing ids used as proposal timestamps
// and row versions.
type OrderIDProvider interface {
	NextID() int64
}
