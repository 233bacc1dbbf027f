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
	"fmt"
	"strconv"
)

// Level is the severity of a log message. Lower values are more severe.
type Level uint8

const (
	// Panic logs and panics.
	Panic Level = iota
	// Fatal logs and exits.
	Fatal
	// Error level.
	Error
	// Warn level.
	Warn
	// Info level.
	Info
	// Debug level.
	Debug
)

var levelNames = []string{"panic", "fatal", "error", "warn", "info", "debug"}

func (lvl Level) String() string {
	if int(lvl) < len(levelNames) {
		return levelNames[lvl]
	}
	return strconv.Itoa(int(lvl))
}

// Parse converts a level name, or a number for levels beyond Debug, to a Level.
func Parse(lvl string) (Level, error) {
	for i, name := range levelNames {
		if name == lvl {
			return Level(i), nil
		}
	}
	level, err := strconv.ParseUint(lvl, 10, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid level value: %q", lvl)
	}
	return Level(level), nil
}
