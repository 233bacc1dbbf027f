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

// certifier folds the rows of one root into its certified waterline.
type certifier struct {
	self  StateRow
	acked map[Member]struct{}
}

func newCertifier(self StateRow) *certifier {
	return &certifier{
		self:  self,
		acked: make(map[Member]struct{}),
	}
}

// add counts the acker of row when it acknowledged the claim of the root.
func (c *certifier) add(row StateRow) {
	if row.Lifecycle == c.self.Lifecycle && row.State == c.self.State && row.Timestamp == c.self.Timestamp {
		c.acked[row.Acker] = struct{}{}
	}
}

func (c *certifier) waterline(atQuorum AtQuorum) *Waterline {
	return NewWaterline(c.self.Root, c.self.State, c.self.Timestamp, c.self.Version, atQuorum(len(c.acked)))
}

type knownLifecycle struct {
	lifecycle Lifecycle
	found     bool
}

// lifecycles caches lifecycle lookups for the duration of one scan.
type lifecycles struct {
	source MemberLifecycle
	cache  map[Member]knownLifecycle
	err    error
}

func (l *lifecycles) matches(root Member, lifecycle Lifecycle) bool {
	if l.cache == nil {
		l.cache = make(map[Member]knownLifecycle)
	}
	known, ok := l.cache[root]
	if !ok {
		current, found, err := l.source.Lifecycle(root)
		if err != nil {
			l.err = err
			return false
		}
		known = knownLifecycle{lifecycle: current, found: found}
		l.cache[root] = known
	}
	return known.found && known.lifecycle == lifecycle
}

// ReadWaterline derives quorum certified waterlines from the acknowledgment
// table of one context.
type ReadWaterline struct {
	storage   StateStorage
	lifecycle MemberLifecycle
	members   CurrentMembers
	atQuorum  AtQuorum
	stats     WaterlineStats
}

// NewReadWaterline creates the read view of storage.
func NewReadWaterline(storage StateStorage, lifecycle MemberLifecycle, members CurrentMembers, atQuorum AtQuorum, stats WaterlineStats) *ReadWaterline {
	return &ReadWaterline{
		storage:   storage,
		lifecycle: lifecycle,
		members:   members,
		atQuorum:  atQuorum,
		stats:     stats,
	}
}

func countedAcker(current MemberSet, row StateRow) bool {
	return current.Contains(row.Root) && (row.IsSelf() || current.Contains(row.Acker))
}

// Get returns the certified waterline of m, or nil when m is not a current
// member, has no lifecycle or has not claimed any state in its lifecycle.
func (r *ReadWaterline) Get(m Member) (*Waterline, error) {
	r.stats.GetMine.Inc(1)

	current, err := r.members.Current()
	if err != nil {
		return nil, err
	}
	if !current.Contains(m) {
		return nil, nil
	}
	lifecycle, ok, err := r.lifecycle.Lifecycle(m)
	if err != nil || !ok {
		return nil, err
	}

	var c *certifier
	filter := StateFilter{Root: m, Lifecycle: lifecycle, MatchLifecycle: true}
	_, err = r.storage.Scan(filter, func(row StateRow) bool {
		if c == nil && row.IsSelf() {
			c = newCertifier(row)
		}
		if c != nil && countedAcker(current, row) {
			c.add(row)
		}
		return true
	})
	if err != nil || c == nil {
		return nil, err
	}
	return c.waterline(r.atQuorum), nil
}

// GetOthers visits the certified waterline of every current member other
// than asMember in member order until visit returns false.
func (r *ReadWaterline) GetOthers(asMember Member, visit func(w *Waterline) bool) error {
	r.stats.GetOthers.Inc(1)

	current, err := r.members.Current()
	if err != nil {
		return err
	}

	lc := &lifecycles{source: r.lifecycle}
	var c *certifier
	stopped := false
	_, err = r.storage.Scan(StateFilter{}, func(row StateRow) bool {
		if !countedAcker(current, row) {
			return true
		}
		if c != nil && c.self.Root != row.Root {
			w := c.waterline(r.atQuorum)
			c = nil
			if !visit(w) {
				stopped = true
				return false
			}
		}
		if c == nil && row.IsSelf() && row.Root != asMember && lc.matches(row.Root, row.Lifecycle) {
			c = newCertifier(row)
		}
		if lc.err != nil {
			return false
		}
		if c != nil {
			c.add(row)
		}
		return true
	})
	if err == nil {
		err = lc.err
	}
	if err != nil {
		return err
	}
	if c != nil && !stopped {
		visit(c.waterline(r.atQuorum))
	}
	return nil
}

// AcknowledgeOther acknowledges, as self, the claim of every other current
// member in its current lifecycle that self has not acknowledged yet.
func (r *ReadWaterline) AcknowledgeOther(self Member) error {
	r.stats.AcknowledgeOther.Inc(1)

	current, err := r.members.Current()
	if err != nil {
		return err
	}

	lc := &lifecycles{source: r.lifecycle}
	_, err = r.storage.Update(func(set SetState) (bool, error) {
		var pending *StateRow
		acked := false
		flush := func() {
			if pending != nil && !acked {
				set(pending.Root, self, pending.Lifecycle, pending.State, pending.Timestamp)
			}
			pending = nil
			acked = false
		}

		_, err := r.storage.Scan(StateFilter{}, func(row StateRow) bool {
			if !countedAcker(current, row) {
				return true
			}
			if pending != nil && (pending.Root != row.Root || pending.Lifecycle != row.Lifecycle) {
				flush()
			}
			if pending == nil && row.IsSelf() && row.Root != self && lc.matches(row.Root, row.Lifecycle) {
				claim := row
				pending = &claim
			}
			if lc.err != nil {
				return false
			}
			if pending != nil && row.Acker == self {
				acked = true
				if row.State != pending.State || row.Timestamp != pending.Timestamp {
					set(pending.Root, self, pending.Lifecycle, pending.State, pending.Timestamp)
				}
			}
			return true
		})
		if err == nil {
			err = lc.err
		}
		if err != nil {
			return false, err
		}
		flush()
		return true, nil
	})
	return err
}
