// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package ident turns paths into short base-36 identifiers.
package ident

import (
	"crypto/rand"

	"gitlab.com/tozd/go/errors"
	"lukechampine.com/blake3"
)

// 🔤 Alphabet is the symbol set used for every identifier
const Alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

const base = uint16(len(Alphabet))

// maxEncodedLen is ceil(log36(2^256)).
const maxEncodedLen = 50

// 🔢 Encode renders a 256-bit big-endian number in base 36.
// The output length varies with the value; zero encodes as "a".
func Encode(hash [32]byte) string {
	num := hash // work on a copy, the divisions are destructive
	out := make([]byte, 0, maxEncodedLen)

	for !isZero(num[:]) {
		var rem uint16
		for i, b := range num {
			acc := rem<<8 | uint16(b)
			num[i] = byte(acc / base)
			rem = acc % base
		}
		out = append(out, Alphabet[rem])
	}

	if len(out) == 0 {
		return Alphabet[:1]
	}

	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}

	return string(out)
}

func isZero(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// 🏷️ Hash derives the full identifier of a path from its string form.
// File contents are never read.
func Hash(path string) string {
	return Encode(blake3.Sum256([]byte(path)))
}

// 🎲 RandomID returns n random symbols from Alphabet
func RandomID(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Errorf("reading random bytes: %w", err)
	}
	for i, b := range buf {
		buf[i] = Alphabet[int(b)%len(Alphabet)]
	}
	return string(buf), nil
}
