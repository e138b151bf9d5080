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

package apply

import (
	"fmt"
	"strings"

	"github.com/walteh/noil/pkg/buffer"
	"gitlab.com/tozd/go/errors"
)

var (
	// ErrSourceMissing is returned when a copy source is gone from disk
	ErrSourceMissing = errors.New("source does not exist")
	// ErrTargetExists is returned when a move would overwrite its target
	ErrTargetExists = errors.New("target already exists")
	// ErrNeitherExists is returned when neither side of a move is on disk
	ErrNeitherExists = errors.New("neither source nor target exists")
)

// 🧭 ResolutionError means the recipe is inconsistent with itself or with the
// disk. The batch stops at the entry; fix the recipe and run it again.
type ResolutionError struct {
	Kind   buffer.Kind
	Index  string
	Path   string
	Source string
	Err    error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("%s: %v", describe(e.Kind, e.Index, e.Source, e.Path), e.Err)
}

func (e *ResolutionError) Unwrap() error {
	return e.Err
}

// 💥 OpError wraps a filesystem failure with the entry that caused it.
// Entries before it stay applied.
type OpError struct {
	Kind   buffer.Kind
	Index  string
	Source string
	Target string
	Err    error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %v", describe(e.Kind, e.Index, e.Source, e.Target), e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

func describe(kind buffer.Kind, index, source, target string) string {
	var b strings.Builder
	b.WriteString(kind.String())
	if index != "" {
		b.WriteString(" ")
		b.WriteString(index)
	}
	switch {
	case source != "" && source != target:
		fmt.Fprintf(&b, " (%s -> %s)", source, target)
	case target != "":
		fmt.Fprintf(&b, " (%s)", target)
	}
	return b.String()
}
