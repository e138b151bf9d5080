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
	"strings"

	"github.com/mattn/go-runewidth"
)

// columnGap separates the verb, index and divider columns.
const columnGap = "   "

// 🎨 Format renders a buffer as aligned columns: verb, index, ":", path.
// A column that is empty for every entry is left out entirely.
func Format(b *Buffer) string {
	var opWidth, indexWidth int
	for _, e := range b.entries {
		opWidth = max(opWidth, runewidth.StringWidth(e.Operation.Kind().String()))
		if index, ok := IndexOf(e.Operation); ok {
			indexWidth = max(indexWidth, runewidth.StringWidth(index))
		}
	}

	lines := make([]string, 0, len(b.entries))
	for _, e := range b.entries {
		var line strings.Builder

		if opWidth > 0 {
			line.WriteString(pad(e.Operation.Kind().String(), opWidth))
			line.WriteString(columnGap)
		}

		if indexWidth > 0 {
			index, _ := IndexOf(e.Operation)
			line.WriteString(pad(index, indexWidth))
			line.WriteString(columnGap)
		}

		line.WriteString(":")
		line.WriteString(columnGap)
		line.WriteString(e.Path)

		lines = append(lines, line.String())
	}

	return strings.Join(lines, "\n")
}

func pad(s string, width int) string {
	return s + strings.Repeat(" ", width-runewidth.StringWidth(s))
}
