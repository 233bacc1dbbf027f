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
	"github.com/uber-common/bark"
	"github.com/uber/aquarium-go/events"
	"github.com/uber/aquarium-go/tank"
)

// observedTransition reports every transition committed by the gate it
// wraps.
type observedTransition struct {
	context tank.Context
	local   tank.Member
	gate    tank.TransitionQuorum
	emitter events.EventEmitter
	logger  bark.Logger
}

func (o *observedTransition) Transition(existing *tank.Waterline, nextTimestamp int64, nextState tank.State, ports tank.Ports) (bool, error) {
	committed, err := o.gate.Transition(existing, nextTimestamp, nextState, ports)
	if err != nil || !committed {
		return committed, err
	}

	o.logger.WithFields(bark.Fields{
		"member":    string(existing.Member()),
		"context":   o.context.String(),
		"from":      existing.State().String(),
		"to":        nextState.String(),
		"timestamp": nextTimestamp,
	}).Debug("transition committed")

	o.emitter.EmitEvent(events.TransitionEvent{
		Local:     o.local,
		Member:    existing.Member(),
		Context:   o.context,
		From:      existing.State(),
		To:        nextState,
		Timestamp: nextTimestamp,
	})
	return true, nil
}
