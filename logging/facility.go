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

// Package logging routes the log output of every aquarium component through
// a single bark.Logger while letting the level be tuned per component name
// (for example "liveliness" or "transistor").
package logging

import (
	"fmt"
	"io/ioutil"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/uber-common/bark"
)

// A Facility forwards messages of named loggers to one underlying logger,
// dropping messages that are more verbose than the level set for the name.
type Facility struct {
	mu     sync.RWMutex
	logger bark.Logger
	levels map[string]Level
}

// NewFacility creates a facility that logs to log. A nil log discards all
// output.
func NewFacility(log bark.Logger) *Facility {
	if log == nil {
		log = discard()
	}
	return &Facility{
		logger: log,
		levels: make(map[string]Level),
	}
}

func discard() bark.Logger {
	return bark.NewLoggerFromLogrus(&logrus.Logger{
		Out:       ioutil.Discard,
		Formatter: new(logrus.TextFormatter),
		Hooks:     make(logrus.LevelHooks),
		Level:     logrus.PanicLevel,
	})
}

// SetLogger replaces the logger messages are forwarded to. A nil log
// discards all output.
func (f *Facility) SetLogger(log bark.Logger) {
	if log == nil {
		log = discard()
	}
	f.mu.Lock()
	f.logger = log
	f.mu.Unlock()
}

// SetLevel sets the most verbose level logName still emits. Levels more
// severe than Fatal cannot be silenced.
func (f *Facility) SetLevel(logName string, level Level) error {
	return f.SetLevels(map[string]Level{logName: level})
}

// SetLevels sets the levels of several names at once. Nothing is changed when
// one of the levels is invalid.
func (f *Facility) SetLevels(levels map[string]Level) error {
	for logName, level := range levels {
		if level < Fatal {
			return fmt.Errorf("cannot set a level above %s for %s", Fatal, logName)
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for logName, level := range levels {
		f.levels[logName] = level
	}
	return nil
}

// Logger returns a logger whose messages are filtered by the level of logName.
func (f *Facility) Logger(logName string) bark.Logger {
	return &namedLogger{
		name:      logName,
		forwardTo: f,
	}
}

func (f *Facility) target(logName string, wantLevel Level, fields bark.Fields) (bark.Logger, bool) {
	if setLevel, ok := f.levels[logName]; ok && setLevel < wantLevel {
		return nil, false
	}
	if len(fields) > 0 {
		return f.logger.WithFields(fields), true
	}
	return f.logger, true
}

// Log emits msg at wantLevel on behalf of logName.
func (f *Facility) Log(logName string, wantLevel Level, fields bark.Fields, msg []interface{}) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	logger, ok := f.target(logName, wantLevel, fields)
	if !ok {
		return
	}
	switch wantLevel {
	case Debug:
		logger.Debug(msg...)
	case Info:
		logger.Info(msg...)
	case Warn:
		logger.Warn(msg...)
	case Error:
		logger.Error(msg...)
	case Fatal:
		logger.Fatal(msg...)
	case Panic:
		logger.Panic(msg...)
	}
}

// Logf emits a formatted message at wantLevel on behalf of logName.
func (f *Facility) Logf(logName string, wantLevel Level, fields bark.Fields, format string, msg []interface{}) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	logger, ok := f.target(logName, wantLevel, fields)
	if !ok {
		return
	}
	switch wantLevel {
	case Debug:
		logger.Debugf(format, msg...)
	case Info:
		logger.Infof(format, msg...)
	case Warn:
		logger.Warnf(format, msg...)
	case Error:
		logger.Errorf(format, msg...)
	case Fatal:
		logger.Fatalf(format, msg...)
	case Panic:
		logger.Panicf(format, msg...)
	}
}

var defaultFacility = NewFacility(nil)

// SetLogger sets the logger of the process wide facility.
func SetLogger(log bark.Logger) { defaultFacility.SetLogger(log) }

// SetLevel sets a level on the process wide facility.
func SetLevel(logName string, level Level) error { return defaultFacility.SetLevel(logName, level) }

// SetLevels sets levels on the process wide facility.
func SetLevels(levels map[string]Level) error { return defaultFacility.SetLevels(levels) }

// Logger returns a named logger of the process wide facility.
func Logger(logName string) bark.Logger { return defaultFacility.Logger(logName) }
