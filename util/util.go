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

// Package util holds small helpers shared by the aquarium packages for
// merging option defaults and converting between clock time and the
// millisecond timestamps stored in the acknowledgment tables.
package util

import (
	"time"

	"github.com/benbjohnson/clock"
)

// MS returns the number of whole milliseconds in d.
func MS(d time.Duration) int64 {
	return d.Nanoseconds() / int64(time.Millisecond)
}

// UnixMS returns t as milliseconds since the unix epoch.
func UnixMS(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

// NowMS reads c and returns the current time in milliseconds.
func NowMS(c clock.Clock) int64 {
	return UnixMS(c.Now())
}

// SelectInt returns opt unless it is the zero value, in which case def is returned.
func SelectInt(opt, def int) int {
	if opt == 0 {
		return def
	}
	return opt
}

// SelectDuration returns opt unless it is the zero value, in which case def is returned.
func SelectDuration(opt, def time.Duration) time.Duration {
	if opt == time.Duration(0) {
		return def
	}
	return opt
}

// MaxInt64 returns the largest of its arguments.
func MaxInt64(first int64, rest ...int64) int64 {
	m := first
	for _, value := range rest {
		if value > m {
			m = value
		}
	}
	return m
}

// SelectString returns opt unless it is empty, in which case def is returned.
func SelectString(opt, def string) string {
	if opt == "" {
		return def
	}
	return opt
}
