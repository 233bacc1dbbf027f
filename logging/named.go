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

package logging

import (
	"github.com/uber-common/bark"
)

type logReceiver interface {
	Log(logName string, wantLevel Level, fields bark.Fields, msg []interface{})
	Logf(logName string, wantLevel Level, fields bark.Fields, format string, msg []interface{})
}

// namedLogger carries a name and a set of fields; the receiver decides
// whether a message is emitted.
type namedLogger struct {
	name      string
	forwardTo logReceiver
	fields    bark.Fields
}

func (l *namedLogger) Debug(args ...interface{}) { l.forwardTo.Log(l.name, Debug, l.fields, args) }
func (l *namedLogger) Info(args ...interface{})  { l.forwardTo.Log(l.name, Info, l.fields, args) }
func (l *namedLogger) Warn(args ...interface{})  { l.forwardTo.Log(l.name, Warn, l.fields, args) }
func (l *namedLogger) Error(args ...interface{}) { l.forwardTo.Log(l.name, Error, l.fields, args) }
func (l *namedLogger) Fatal(args ...interface{}) { l.forwardTo.Log(l.name, Fatal, l.fields, args) }
func (l *namedLogger) Panic(args ...interface{}) { l.forwardTo.Log(l.name, Panic, l.fields, args) }

func (l *namedLogger) Debugf(format string, args ...interface{}) {
	l.forwardTo.Logf(l.name, Debug, l.fields, format, args)
}
func (l *namedLogger) Infof(format string, args ...interface{}) {
	l.forwardTo.Logf(l.name, Info, l.fields, format, args)
}
func (l *namedLogger) Warnf(format string, args ...interface{}) {
	l.forwardTo.Logf(l.name, Warn, l.fields, format, args)
}
func (l *namedLogger) Errorf(format string, args ...interface{}) {
	l.forwardTo.Logf(l.name, Error, l.fields, format, args)
}
func (l *namedLogger) Fatalf(format string, args ...interface{}) {
	l.forwardTo.Logf(l.name, Fatal, l.fields, format, args)
}
func (l *namedLogger) Panicf(format string, args ...interface{}) {
	l.forwardTo.Logf(l.name, Panic, l.fields, format, args)
}

// with returns a copy of the logger with extra merged over the current fields.
func (l *namedLogger) with(extra bark.Fields) *namedLogger {
	merged := make(bark.Fields, len(l.fields)+len(extra))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range extra {
		merged[k] = v
	}
	return &namedLogger{
		name:      l.name,
		forwardTo: l.forwardTo,
		fields:    merged,
	}
}

func (l *namedLogger) WithField(key string, value interface{}) bark.Logger {
	return l.with(bark.Fields{key: value})
}

func (l *namedLogger) WithFields(fields bark.LogFields) bark.Logger {
	return l.with(fields.Fields())
}

func (l *namedLogger) WithError(err error) bark.Logger {
	return l.with(bark.Fields{"error": err})
}

func (l *namedLogger) Fields() bark.Fields {
	return l.fields
}
