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

package buffer

import (
	"os"
	"slices"
	"sort"
	"strings"

	"gitlab.com/tozd/go/errors"
)

var (
	// ErrUnknownIndex is returned when no existing entry owns an index
	ErrUnknownIndex = errors.New("unknown index")
	// ErrAmbiguousIndex is returned when an index matches several existing entries
	ErrAmbiguousIndex = errors.New("ambiguous index")
)

// 🏷️ Kind identifies an operation variant
type Kind int

const (
	KindExisting Kind = iota
	KindAdd
	KindCopy
	KindDelete
	KindMove
	KindOpen
)

// String returns the canonical verb; existing entries have none
func (k Kind) String() string {
	switch k {
	case KindAdd:
		return "ADD"
	case KindCopy:
		return "COPY"
	case KindDelete:
		return "DELETE"
	case KindMove:
		return "MOVE"
	case KindOpen:
		return "OPEN"
	default:
		return ""
	}
}

// 🔀 Operation is the closed set of things a recipe line can ask for.
// The concrete types are Existing, Add, Copy, Delete, Move and Open.
type Operation interface {
	Kind() Kind
	operation()
}

// Existing declares that a path currently carries Index and stays untouched.
type Existing struct{ Index string }

// Add creates an empty file, or a directory when the path ends in a separator.
type Add struct{}

// Copy duplicates the existing entry owning Index.
type Copy struct{ Index string }

// Delete removes the existing entry owning Index.
type Delete struct{ Index string }

// Move relocates the existing entry owning Index.
type Move struct{ Index string }

// Open records the path for the chooser file; the filesystem is not touched.
type Open struct{ Index string }

func (Existing) Kind() Kind { return KindExisting }
func (Add) Kind() Kind      { return KindAdd }
func (Copy) Kind() Kind     { return KindCopy }
func (Delete) Kind() Kind   { return KindDelete }
func (Move) Kind() Kind     { return KindMove }
func (Open) Kind() Kind     { return KindOpen }

func (Existing) operation() {}
func (Add) operation()      {}
func (Copy) operation()     {}
func (Delete) operation()   {}
func (Move) operation()     {}
func (Open) operation()     {}

// 🔢 IndexOf returns the index operand of op, if it carries one
func IndexOf(op Operation) (string, bool) {
	switch o := op.(type) {
	case Existing:
		return o.Index, true
	case Copy:
		return o.Index, true
	case Delete:
		return o.Index, true
	case Move:
		return o.Index, true
	case Open:
		return o.Index, true
	default:
		return "", false
	}
}

// 📄 Entry is one recipe line. Path is where the operation's result ends up,
// except for Delete where it is the location known at listing time.
type Entry struct {
	Path      string
	Operation Operation
}

// IsDir reports whether the path is spelled as a directory (trailing separator).
func (e Entry) IsDir() bool {
	return IsDirPath(e.Path)
}

// IsDirPath reports whether path ends in a path separator.
func IsDirPath(path string) bool {
	return strings.HasSuffix(path, "/") || strings.HasSuffix(path, string(os.PathSeparator))
}

// 📚 Buffer is an ordered recipe
type Buffer struct {
	entries []Entry

	// index -> position of the existing entry, -1 when claimed twice
	existing map[string]int
	keys     []string
}

// 🏭 New builds a buffer and its index table
func New(entries ...Entry) *Buffer {
	b := &Buffer{
		entries:  slices.Clone(entries),
		existing: make(map[string]int),
	}

	for i, e := range b.entries {
		ex, ok := e.Operation.(Existing)
		if !ok {
			continue
		}
		if prev, dup := b.existing[ex.Index]; dup {
			if prev >= 0 && b.entries[prev].Path != e.Path {
				b.existing[ex.Index] = -1
			}
			continue
		}
		b.existing[ex.Index] = i
		b.keys = append(b.keys, ex.Index)
	}
	sort.Strings(b.keys)

	return b
}

// Entries returns the entries in recipe order.
func (b *Buffer) Entries() []Entry {
	return b.entries
}

// Len returns the number of entries.
func (b *Buffer) Len() int {
	return len(b.entries)
}

// 🔍 Resolve finds the existing entry owning index, by exact match first and
// then by unambiguous prefix.
func (b *Buffer) Resolve(index string) (Entry, error) {
	if pos, ok := b.existing[index]; ok {
		if pos < 0 {
			return Entry{}, errors.Errorf("%q: %w", index, ErrAmbiguousIndex)
		}
		return b.entries[pos], nil
	}

	if index == "" {
		return Entry{}, errors.Errorf("%q: %w", index, ErrUnknownIndex)
	}

	start := sort.SearchStrings(b.keys, index)
	end := start
	for end < len(b.keys) && strings.HasPrefix(b.keys[end], index) {
		end++
	}

	switch end - start {
	case 0:
		return Entry{}, errors.Errorf("%q: %w", index, ErrUnknownIndex)
	case 1:
		pos := b.existing[b.keys[start]]
		if pos < 0 {
			return Entry{}, errors.Errorf("%q: %w", index, ErrAmbiguousIndex)
		}
		return b.entries[pos], nil
	default:
		return Entry{}, errors.Errorf("%q matches %d entries: %w", index, end-start, ErrAmbiguousIndex)
	}
}

// String renders the buffer with Format.
func (b *Buffer) String() string {
	return Format(b)
}
