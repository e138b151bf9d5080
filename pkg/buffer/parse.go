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
	"fmt"
	"strings"
	"unicode"

	"gitlab.com/tozd/go/errors"
)

// Separator divides the operation columns from the path.
const Separator = " : "

var (
	// ErrUnsupportedOperation is returned for unknown verbs or verbs missing their operand
	ErrUnsupportedOperation = errors.New("unsupported operation")
	// ErrEmptyEntry is returned when a line has nothing left of the separator
	ErrEmptyEntry = errors.New("empty entry")
)

// ❌ ParseError points at the recipe line that could not be understood
type ParseError struct {
	Line    int    // 1-based line number
	Content string // the offending line, trimmed
	Token   string // the offending token, if any
	Err     error
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("line %d: %v: %q (in %q)", e.Line, e.Err, e.Token, e.Content)
	}
	return fmt.Sprintf("line %d: %v (in %q)", e.Line, e.Err, e.Content)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// 📖 Parse turns recipe text into a Buffer
func Parse(text string) (*Buffer, error) {
	var entries []Entry

	for n, raw := range strings.Split(text, "\n") {
		// leading blanks stay so that " : /x" still has a separator
		line := strings.TrimRight(raw, " \t\r")

		pos := strings.LastIndex(line, Separator)
		if pos < 0 {
			continue
		}

		left := strings.TrimSpace(line[:pos])
		path := strings.TrimSpace(line[pos+len(Separator):])

		op, token, err := parseOperation(left)
		if err != nil {
			return nil, &ParseError{Line: n + 1, Content: strings.TrimSpace(line), Token: token, Err: err}
		}

		entries = append(entries, Entry{Path: path, Operation: op})
	}

	return New(entries...), nil
}

// parseOperation classifies the left side of a line. On failure it also
// returns the token at fault.
func parseOperation(left string) (Operation, string, error) {
	tokens := tokenize(left)
	if len(tokens) == 0 {
		return nil, "", ErrEmptyEntry
	}

	first, last := tokens[0], tokens[len(tokens)-1]
	single := first == last

	if single && !hasUpper(first) {
		return Existing{Index: first}, "", nil
	}

	switch first {
	case "A", "ADD":
		if single {
			return Add{}, "", nil
		}
	case "C", "COPY":
		if !single {
			return Copy{Index: last}, "", nil
		}
	case "D", "DEL", "DELETE":
		if !single {
			return Delete{Index: last}, "", nil
		}
	case "M", "MV", "MOVE", "RENAME":
		if !single {
			return Move{Index: last}, "", nil
		}
	case "O", "OPEN":
		if !single {
			return Open{Index: last}, "", nil
		}
	}

	return nil, first, ErrUnsupportedOperation
}

// tokenize splits on ASCII spaces, dropping the empty runs between them
func tokenize(s string) []string {
	var tokens []string
	for _, t := range strings.Split(s, " ") {
		if t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

func hasUpper(s string) bool {
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
}
