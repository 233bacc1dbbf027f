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

// Context names one of the two acknowledgment tables of an aquarium.
type Context uint8

const (
	// CurrentContext holds the states members operate in.
	CurrentContext Context = iota
	// DesiredContext holds the states members steer towards.
	DesiredContext
)

func (c Context) String() string {
	if c == DesiredContext {
		return "desired"
	}
	return "current"
}

// Ports are the read and write paths of both tables.
type Ports struct {
	ReadCurrent  *ReadWaterline
	ReadDesired  *ReadWaterline
	WriteCurrent *WriteWaterline
	WriteDesired *WriteWaterline
}

// Read returns the read path of context c.
func (p Ports) Read(c Context) *ReadWaterline {
	if c == DesiredContext {
		return p.ReadDesired
	}
	return p.ReadCurrent
}

// Write returns the write path of context c.
func (p Ports) Write(c Context) *WriteWaterline {
	if c == DesiredContext {
		return p.WriteDesired
	}
	return p.WriteCurrent
}

// TransitionQuorum decides whether the member of existing may move to
// nextState at nextTimestamp and performs the write when it may. A refusal
// is reported as false with a nil error. existing must not be nil.
type TransitionQuorum interface {
	Transition(existing *Waterline, nextTimestamp int64, nextState State, ports Ports) (bool, error)
}

// TransitionQuorumFunc adapts a function to TransitionQuorum.
type TransitionQuorumFunc func(existing *Waterline, nextTimestamp int64, nextState State, ports Ports) (bool, error)

// Transition calls f.
func (f TransitionQuorumFunc) Transition(existing *Waterline, nextTimestamp int64, nextState State, ports Ports) (bool, error) {
	return f(existing, nextTimestamp, nextState, ports)
}

// QuorumGate is the default TransitionQuorum of a context. It re-reads the
// claim of the member and only writes when there is no claim yet, or the
// claim is still the one the decision was based on and a quorum
// acknowledged it.
type QuorumGate struct {
	Context Context
}

// Transition implements TransitionQuorum.
func (g QuorumGate) Transition(existing *Waterline, nextTimestamp int64, nextState State, ports Ports) (bool, error) {
	stored, err := ports.Read(g.Context).Get(existing.Member())
	if err != nil {
		return false, err
	}
	if stored != nil {
		if stored.State() != existing.State() || stored.Timestamp() != existing.Timestamp() || !stored.AtQuorum() {
			return false, nil
		}
	}
	return ports.Write(g.Context).Put(existing.Member(), nextState, nextTimestamp)
}

// AlwaysTransition writes to context c without any check.
func AlwaysTransition(c Context) TransitionQuorum {
	return TransitionQuorumFunc(func(existing *Waterline, nextTimestamp int64, nextState State, ports Ports) (bool, error) {
		return ports.Write(c).Put(existing.Member(), nextState, nextTimestamp)
	})
}
