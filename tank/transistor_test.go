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

package tank_test

import (
	"testing"

	"github.com/stretchr/testify/suite"
	"github.com/uber/aquarium-go/tank"
)

type oracle map[tank.Member]bool

func (o oracle) IsAlive(m tank.Member) bool {
	return o[m]
}

type TransistorTestSuite struct {
	suite.Suite
	tables *tables
	ports  tank.Ports
	alive  oracle
}

func (s *TransistorTestSuite) SetupTest() {
	s.tables = newTables(s.T(), "a")
	s.ports = s.tables.ports()
	s.alive = oracle{"a": true}
}

func (s *TransistorTestSuite) read(ctx tank.Context) *tank.Waterline {
	w, err := s.ports.Read(ctx).Get("a")
	s.Require().NoError(err)
	return w
}

// step advances a once and returns whether it moved.
func (s *TransistorTestSuite) step() bool {
	current := s.read(tank.CurrentContext)
	if current == nil {
		current = tank.NewWaterline("a", tank.Bootstrap, 100, -1, true)
	}
	advanced, err := tank.Advance(&tank.Glass{
		Liveliness:        s.alive,
		Current:           current,
		Desired:           s.read(tank.DesiredContext),
		Ports:             s.ports,
		TransitionCurrent: tank.QuorumGate{Context: tank.CurrentContext},
		TransitionDesired: tank.QuorumGate{Context: tank.DesiredContext},
	})
	s.Require().NoError(err)
	return advanced
}

// settle steps until a stops moving and returns the states it went through.
func (s *TransistorTestSuite) settle() []tank.State {
	var states []tank.State
	for i := 0; i < 20 && s.step(); i++ {
		states = append(states, s.read(tank.CurrentContext).State())
	}
	return states
}

func (s *TransistorTestSuite) TestDeadMemberIsFrozen() {
	s.alive["a"] = false

	s.False(s.step())
	s.Nil(s.read(tank.DesiredContext), "expected no desired state to be forged")
	s.Nil(s.read(tank.CurrentContext))
}

func (s *TransistorTestSuite) TestMissingDesiredIsForged() {
	s.False(s.step(), "expected forging to block the step")

	desired := s.read(tank.DesiredContext)
	s.Require().NotNil(desired)
	s.Equal(tank.Leader, desired.State())
	s.Equal(int64(100), desired.Timestamp())
	s.True(desired.AtQuorum())
}

func (s *TransistorTestSuite) TestSingleMemberBecomesLeader() {
	s.step()

	s.Equal([]tank.State{tank.Inactive, tank.Nominated, tank.Leader}, s.settle())
	s.False(s.step(), "expected leader to stay put")

	current := s.read(tank.CurrentContext)
	s.Equal(int64(100), current.Timestamp())
	s.True(tank.NewLivelyEndState(s.alive, current, s.read(tank.DesiredContext), nil).IsOnline())
}

func (s *TransistorTestSuite) TestUnlivelyLeaderResigns() {
	s.step()
	s.settle()

	s.alive["a"] = false
	s.False(s.step())
	desired := s.read(tank.DesiredContext)
	s.Equal(tank.Follower, desired.State())
	s.Equal(int64(101), desired.Timestamp(), "expected resignation at a fresher timestamp")
	s.Equal(tank.Leader, s.read(tank.CurrentContext).State())

	s.alive["a"] = true
	s.False(s.step(), "expected leadership to be proposed again")
	s.Equal(tank.Leader, s.read(tank.DesiredContext).State())
	s.Equal(int64(102), s.read(tank.DesiredContext).Timestamp())

	s.Equal([]tank.State{tank.Demoted, tank.Inactive, tank.Nominated, tank.Leader}, s.settle())
	s.Equal(int64(102), s.read(tank.CurrentContext).Timestamp())
}

func (s *TransistorTestSuite) TestFollowerRejoinsElection() {
	s.step()
	s.settle()

	_, err := s.ports.WriteDesired.Put("a", tank.Follower, 200)
	s.Require().NoError(err)
	_, err = s.ports.WriteCurrent.Put("a", tank.Follower, 200)
	s.Require().NoError(err)

	// without any leader the follower proposes itself and re-syncs
	s.False(s.step())
	desired := s.read(tank.DesiredContext)
	s.Equal(tank.Leader, desired.State())
	s.Equal(int64(201), desired.Timestamp())
	s.Equal([]tank.State{tank.Inactive, tank.Nominated, tank.Leader}, s.settle())
}

func (s *TransistorTestSuite) TestExpungedReturnsToBootstrap() {
	_, err := s.ports.WriteCurrent.Put("a", tank.Expunged, 100)
	s.Require().NoError(err)
	_, err = s.ports.WriteDesired.Put("a", tank.Expunged, 100)
	s.Require().NoError(err)

	s.False(s.step(), "expected expunged member to stay expunged")

	_, err = s.ports.WriteDesired.Put("a", tank.Leader, 101)
	s.Require().NoError(err)
	s.Equal([]tank.State{tank.Bootstrap, tank.Inactive, tank.Nominated, tank.Leader}, s.settle())
}

func (s *TransistorTestSuite) TestInactiveExpunges() {
	s.step()
	s.step()
	s.Equal(tank.Inactive, s.read(tank.CurrentContext).State())

	_, err := s.ports.WriteDesired.Put("a", tank.Expunged, 150)
	s.Require().NoError(err)
	s.Equal([]tank.State{tank.Expunged}, s.settle())
}

func (s *TransistorTestSuite) TestFresherCurrentPullsDesiredAlong() {
	s.step()
	s.settle()

	ok, err := s.ports.WriteCurrent.Put("a", tank.Leader, 300)
	s.Require().NoError(err)
	s.Require().True(ok)

	s.False(s.step(), "expected the desired claim to catch up first")
	desired := s.read(tank.DesiredContext)
	s.Equal(tank.Leader, desired.State())
	s.Equal(int64(300), desired.Timestamp())

	s.Empty(s.settle(), "expected the leader to stay put")
	current := s.read(tank.CurrentContext)
	s.Equal(tank.Leader, current.State())
	s.Equal(int64(300), current.Timestamp())
	s.True(tank.NewLivelyEndState(s.alive, current, s.read(tank.DesiredContext), nil).IsOnline())
}

func (s *TransistorTestSuite) TestForcedFollowerRejoinsAtForcedTimestamp() {
	s.step()
	s.settle()

	_, err := s.ports.WriteDesired.Put("a", tank.Follower, 300)
	s.Require().NoError(err)
	_, err = s.ports.WriteCurrent.Put("a", tank.Follower, 400)
	s.Require().NoError(err)

	// without any leader the follower proposes itself first
	s.False(s.step())
	s.Equal(tank.Leader, s.read(tank.DesiredContext).State())
	s.Equal(int64(301), s.read(tank.DesiredContext).Timestamp())

	s.False(s.step(), "expected the desired claim to catch up with the current one")
	s.Equal(tank.Leader, s.read(tank.DesiredContext).State())
	s.Equal(int64(400), s.read(tank.DesiredContext).Timestamp())

	s.Equal([]tank.State{tank.Inactive, tank.Nominated, tank.Leader}, s.settle())
	s.Equal(int64(400), s.read(tank.CurrentContext).Timestamp())
}

func TestTransistorTestSuite(t *testing.T) {
	suite.Run(t, new(TransistorTestSuite))
}

type HighestTestSuite struct {
	suite.Suite
	tables *tables
	ports  tank.Ports
}

func (s *HighestTestSuite) SetupTest() {
	s.tables = newTables(s.T(), "a", "b", "c")
	s.ports = s.tables.ports()
}

func (s *HighestTestSuite) put(m tank.Member, state tank.State, timestamp int64) {
	_, err := s.ports.WriteDesired.Put(m, state, timestamp)
	s.Require().NoError(err)
}

func (s *HighestTestSuite) highest(me *tank.Waterline) *tank.Waterline {
	w, err := tank.Highest("a", tank.Leader, s.ports.ReadDesired, me)
	s.Require().NoError(err)
	return w
}

func (s *HighestTestSuite) TestNone() {
	s.put("b", tank.Follower, 10)
	s.Nil(s.highest(nil))
}

func (s *HighestTestSuite) TestFreshestWins() {
	s.put("b", tank.Leader, 20)
	s.put("c", tank.Leader, 15)

	s.Equal(tank.Member("b"), s.highest(tank.NewWaterline("a", tank.Leader, 10, 1, true)).Member())
	s.Equal(tank.Member("a"), s.highest(tank.NewWaterline("a", tank.Leader, 30, 1, false)).Member())
}

func (s *HighestTestSuite) TestLaterVersionWinsTie() {
	s.put("b", tank.Leader, 20)
	s.put("c", tank.Leader, 20)

	s.Equal(tank.Member("c"), s.highest(nil).Member())
}

func (s *HighestTestSuite) TestOtherStatesAreIgnored() {
	s.put("b", tank.Leader, 20)
	s.put("c", tank.Follower, 50)

	s.Equal(tank.Member("b"), s.highest(tank.NewWaterline("a", tank.Follower, 60, 1, true)).Member())
}

func TestHighestTestSuite(t *testing.T) {
	suite.Run(t, new(HighestTestSuite))
}
