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

package listing

import (
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
)

// 🎨 RenderOptions controls listing output
type RenderOptions struct {
	NoColor bool
}

var faint = color.New(color.Faint)

// 🖨️ Render prints one line per entry: the index column, three spaces, a
// colon, three spaces, then the path.
//
// Without color the full global prefix is printed. With color the individual
// prefix stays normal and the rest of the global prefix is dimmed; the text
// is the same either way, so both forms parse to the same indexes.
func Render(entries []Entry, opts RenderOptions) string {
	width := 0
	for _, e := range entries {
		width = max(width, runewidth.StringWidth(e.Global))
	}

	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		var b strings.Builder

		if !opts.NoColor && strings.HasPrefix(e.Global, e.Individual) {
			b.WriteString(e.Individual)
			if rest := e.Global[len(e.Individual):]; rest != "" {
				b.WriteString(faint.Sprint(rest))
			}
		} else {
			b.WriteString(e.Global)
		}

		b.WriteString(strings.Repeat(" ", width-runewidth.StringWidth(e.Global)))
		b.WriteString("   :   ")
		b.WriteString(e.Display())

		lines = append(lines, b.String())
	}

	return strings.Join(lines, "\n")
}
