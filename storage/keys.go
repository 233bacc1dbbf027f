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

package storage

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/uber/aquarium-go/tank"
)

// Contexts partition the keyspace of a backend. Each context orders its rows
// by root, lifecycle descending, the self row first and then by acker.
const (
	ContextCurrent    byte = 0
	ContextDesired    byte = 1
	ContextLiveliness byte = 2
)

// ErrMalformed is returned when a key or value cannot be decoded.
var ErrMalformed = errors.New("malformed row")

const (
	escape     byte = 0x00
	escapedNul byte = 0xff
	terminator byte = 0x01

	selfFlag  byte = 0x00
	otherFlag byte = 0x01
)

// appendMember escapes every 0x00 of m and terminates it with 0x00 0x01 so
// that encoded members sort exactly like the raw bytes.
func appendMember(dst []byte, m tank.Member) []byte {
	for i := 0; i < len(m); i++ {
		if m[i] == escape {
			dst = append(dst, escape, escapedNul)
		} else {
			dst = append(dst, m[i])
		}
	}
	return append(dst, escape, terminator)
}

func readMember(src []byte) (tank.Member, []byte, error) {
	var buf bytes.Buffer
	for i := 0; i < len(src); i++ {
		if src[i] != escape {
			buf.WriteByte(src[i])
			continue
		}
		if i+1 >= len(src) {
			return "", nil, ErrMalformed
		}
		switch src[i+1] {
		case escapedNul:
			buf.WriteByte(escape)
			i++
		case terminator:
			return tank.Member(buf.String()), src[i+2:], nil
		default:
			return "", nil, ErrMalformed
		}
	}
	return "", nil, ErrMalformed
}

// appendLifecycle encodes lifecycles so that greater lifecycles sort first.
func appendLifecycle(dst []byte, lifecycle tank.Lifecycle) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], ^(uint64(lifecycle) ^ 1<<63))
	return append(dst, b[:]...)
}

func readLifecycle(src []byte) (tank.Lifecycle, []byte, error) {
	if len(src) < 8 {
		return 0, nil, ErrMalformed
	}
	u := ^binary.BigEndian.Uint64(src) ^ 1<<63
	return tank.Lifecycle(u), src[8:], nil
}

func appendAcker(dst []byte, root, acker tank.Member) []byte {
	if root == acker {
		return append(dst, selfFlag)
	}
	dst = append(dst, otherFlag)
	return append(dst, acker...)
}

func readAcker(root tank.Member, src []byte) (tank.Member, error) {
	if len(src) < 1 {
		return "", ErrMalformed
	}
	if src[0] == selfFlag {
		return root, nil
	}
	return tank.Member(src[1:]), nil
}

// StateKey encodes the key of an acknowledgment row.
func StateKey(context byte, root tank.Member, lifecycle tank.Lifecycle, acker tank.Member) []byte {
	key := make([]byte, 0, 1+len(root)+2+8+1+len(acker))
	key = append(key, context)
	key = appendMember(key, root)
	key = appendLifecycle(key, lifecycle)
	return appendAcker(key, root, acker)
}

// DecodeStateKey decodes a key created by StateKey.
func DecodeStateKey(key []byte) (context byte, root tank.Member, lifecycle tank.Lifecycle, acker tank.Member, err error) {
	if len(key) < 1 {
		return 0, "", 0, "", ErrMalformed
	}
	context = key[0]
	root, rest, err := readMember(key[1:])
	if err != nil {
		return 0, "", 0, "", err
	}
	lifecycle, rest, err = readLifecycle(rest)
	if err != nil {
		return 0, "", 0, "", err
	}
	acker, err = readAcker(root, rest)
	return context, root, lifecycle, acker, err
}

// LivelinessKey encodes the key of a heartbeat row.
func LivelinessKey(root, acker tank.Member) []byte {
	key := make([]byte, 0, 1+len(root)+2+1+len(acker))
	key = append(key, ContextLiveliness)
	key = appendMember(key, root)
	return appendAcker(key, root, acker)
}

// DecodeLivelinessKey decodes a key created by LivelinessKey.
func DecodeLivelinessKey(key []byte) (root, acker tank.Member, err error) {
	if len(key) < 1 || key[0] != ContextLiveliness {
		return "", "", ErrMalformed
	}
	root, rest, err := readMember(key[1:])
	if err != nil {
		return "", "", err
	}
	acker, err = readAcker(root, rest)
	return root, acker, err
}

// rootPrefix returns the prefix shared by every row of root in context.
func rootPrefix(context byte, root tank.Member) []byte {
	return appendMember([]byte{context}, root)
}

// prefixEnd returns the smallest key greater than every key with prefix, or
// nil when no such key exists.
func prefixEnd(prefix []byte) []byte {
	end := append([]byte(nil), prefix...)
	for i := len(end) - 1; i >= 0; i-- {
		if end[i] < 0xff {
			end[i]++
			return end[:i+1]
		}
	}
	return nil
}

// A Stamp is the timestamp and version of a row. Rows merge by keeping the
// greater stamp.
type Stamp struct {
	Timestamp int64
	Version   int64
}

// Less returns whether s loses against o.
func (s Stamp) Less(o Stamp) bool {
	if s.Timestamp != o.Timestamp {
		return s.Timestamp < o.Timestamp
	}
	return s.Version < o.Version
}

// StateValue encodes the value of an acknowledgment row.
func StateValue(state tank.State, stamp Stamp) []byte {
	value := make([]byte, 17)
	value[0] = state.Byte()
	binary.BigEndian.PutUint64(value[1:], uint64(stamp.Timestamp))
	binary.BigEndian.PutUint64(value[9:], uint64(stamp.Version))
	return value
}

// DecodeStateValue decodes a value created by StateValue.
func DecodeStateValue(value []byte) (tank.State, Stamp, error) {
	if len(value) != 17 {
		return 0, Stamp{}, ErrMalformed
	}
	state, err := tank.StateFromByte(value[0])
	if err != nil {
		return 0, Stamp{}, err
	}
	return state, decodeStamp(value[1:]), nil
}

// LivelinessValue encodes the value of a heartbeat row.
func LivelinessValue(stamp Stamp) []byte {
	value := make([]byte, 16)
	binary.BigEndian.PutUint64(value, uint64(stamp.Timestamp))
	binary.BigEndian.PutUint64(value[8:], uint64(stamp.Version))
	return value
}

// DecodeLivelinessValue decodes a value created by LivelinessValue.
func DecodeLivelinessValue(value []byte) (Stamp, error) {
	if len(value) != 16 {
		return Stamp{}, ErrMalformed
	}
	return decodeStamp(value), nil
}

func decodeStamp(b []byte) Stamp {
	return Stamp{
		Timestamp: int64(binary.BigEndian.Uint64(b)),
		Version:   int64(binary.BigEndian.Uint64(b[8:])),
	}
}

// stampOf returns the stamp of an encoded state or liveliness value.
func stampOf(value []byte) (Stamp, error) {
	switch len(value) {
	case 17:
		return decodeStamp(value[1:]), nil
	case 16:
		return decodeStamp(value), nil
	}
	return Stamp{}, ErrMalformed
}

// MaxStamp merges two encoded values of the same row by keeping the one with
// the greater stamp. existing is nil when the row is new.
func MaxStamp(existing, incoming []byte) []byte {
	if existing == nil {
		return incoming
	}
	a, errA := stampOf(existing)
	b, errB := stampOf(incoming)
	if errB != nil {
		return existing
	}
	if errA != nil || a.Less(b) {
		return incoming
	}
	return existing
}
