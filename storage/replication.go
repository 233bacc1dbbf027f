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

	"github.com/dgryski/go-farm"
)

// Export returns every row of the state and liveliness contexts in key
// order.
func Export(backend Backend) ([]Entry, error) {
	var entries []Entry
	err := backend.Scan([]byte{ContextCurrent}, []byte{ContextLiveliness + 1}, func(key, value []byte) bool {
		entries = append(entries, Entry{Key: key, Value: value})
		return true
	})
	return entries, err
}

// Import merges rows exported by another backend. Rows that do not decode
// are dropped and counted in the result. Rows removed locally with Clear come
// back when a peer still holds them.
func Import(backend Backend, entries []Entry) (dropped int, err error) {
	valid := entries[:0:0]
	for _, e := range entries {
		if !validEntry(e) {
			dropped++
			continue
		}
		valid = append(valid, e)
	}
	if len(valid) == 0 {
		return dropped, nil
	}
	_, err = backend.Merge(valid, MaxStamp)
	return dropped, err
}

func validEntry(e Entry) bool {
	if len(e.Key) == 0 {
		return false
	}
	switch e.Key[0] {
	case ContextCurrent, ContextDesired:
		if _, _, _, _, err := DecodeStateKey(e.Key); err != nil {
			return false
		}
		_, _, err := DecodeStateValue(e.Value)
		return err == nil
	case ContextLiveliness:
		if _, _, err := DecodeLivelinessKey(e.Key); err != nil {
			return false
		}
		_, err := DecodeLivelinessValue(e.Value)
		return err == nil
	}
	return false
}

// Checksum fingerprints rows so that two backends holding the same rows
// agree on it.
func Checksum(entries []Entry) uint32 {
	buffer := bytes.Buffer{}
	for _, e := range entries {
		buffer.Write(e.Key)
		buffer.WriteByte(';')
		buffer.Write(e.Value)
		buffer.WriteByte(';')
	}
	return farm.Fingerprint32(buffer.Bytes())
}
