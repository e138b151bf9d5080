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

// Package report shows a parsed recipe to the user and asks what to do next.
package report

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/walteh/noil/pkg/buffer"
	"gitlab.com/tozd/go/errors"
)

// 🎬 Action is the user's answer to the apply prompt
type Action int

const (
	ActionQuit Action = iota
	ActionApply
	ActionEdit
)

func (a Action) String() string {
	switch a {
	case ActionApply:
		return "apply"
	case ActionEdit:
		return "edit"
	default:
		return "quit"
	}
}

var (
	addStyle    = pterm.NewStyle(pterm.FgGreen, pterm.Bold)
	copyStyle   = pterm.NewStyle(pterm.FgBlue, pterm.Bold)
	deleteStyle = pterm.NewStyle(pterm.FgRed, pterm.Bold)
	openStyle   = pterm.NewStyle(pterm.FgMagenta, pterm.Bold)
	moveColor   = pterm.NewRGB(224, 145, 64)
)

func verb(kind buffer.Kind) string {
	switch kind {
	case buffer.KindAdd:
		return addStyle.Sprint(kind.String())
	case buffer.KindCopy:
		return copyStyle.Sprint(kind.String())
	case buffer.KindDelete:
		return deleteStyle.Sprint(kind.String())
	case buffer.KindMove:
		return moveColor.Sprint(kind.String())
	case buffer.KindOpen:
		return openStyle.Sprint(kind.String())
	default:
		return kind.String()
	}
}

// 📢 Reporter talks to the user over a pair of streams
type Reporter struct {
	in     *bufio.Reader
	out    io.Writer
	logger zerolog.Logger
}

// 🏭 New creates a reporter reading answers from in and writing to out
func New(ctx context.Context, in io.Reader, out io.Writer) *Reporter {
	return &Reporter{
		in:     bufio.NewReader(in),
		out:    out,
		logger: *zerolog.Ctx(ctx),
	}
}

// 📝 PrintChanges lists every non-existing entry of the recipe and returns
// how many there were.
func (r *Reporter) PrintChanges(buf *buffer.Buffer) int {
	fmt.Fprint(r.out, "Changes:\n\n")

	count := 0
	for _, e := range buf.Entries() {
		kind := e.Operation.Kind()
		if kind == buffer.KindExisting {
			continue
		}
		count++

		if index, ok := buffer.IndexOf(e.Operation); ok {
			fmt.Fprintf(r.out, "  - %s (%s) - %s\n", verb(kind), index, e.Path)
		} else {
			fmt.Fprintf(r.out, "  - %s - %s\n", verb(kind), e.Path)
		}
	}

	if count == 0 {
		fmt.Fprintln(r.out, "  (none)")
	}

	r.logger.Debug().Int("changes", count).Int("entries", buf.Len()).Msg("printed changes")
	return count
}

func (r *Reporter) readLine() (string, error) {
	line, err := r.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	return strings.ToLower(strings.TrimSpace(line)), nil
}

// ❓ Prompt asks whether to apply, abort or go back to the editor.
// An empty answer means edit. A closed input means quit.
func (r *Reporter) Prompt() (Action, error) {
	fmt.Fprint(r.out, "\nApply changes? (y (yes) / n (abort) / E (edit)): ")

	answer, err := r.readLine()
	if err != nil {
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out, "\nAborted.")
			return ActionQuit, nil
		}
		return ActionQuit, errors.Errorf("reading answer: %w", err)
	}

	switch answer {
	case "y", "yes":
		fmt.Fprintln(r.out, "Confirmed.")
		return ActionApply, nil
	case "n", "no":
		fmt.Fprintln(r.out, "Aborted.")
		return ActionQuit, nil
	case "e", "edit", "":
		fmt.Fprintln(r.out, "Edit")
		return ActionEdit, nil
	}

	fmt.Fprintf(r.out, "Invalid input: %s\n", pterm.Red(answer))
	if err := r.Pause("press enter to edit: "); err != nil {
		return ActionQuit, err
	}
	return ActionEdit, nil
}

// ⚠️ InvalidRecipe shows why the recipe was rejected and waits for enter
// before the caller reopens the editor.
func (r *Reporter) InvalidRecipe(cause error) error {
	fmt.Fprintf(r.out, "Invalid operation\n%s\n\n", pterm.Red(cause.Error()))
	return r.Pause("reverting to edit on any key press: ")
}

// Pause prints msg and waits for one line of input.
func (r *Reporter) Pause(msg string) error {
	fmt.Fprint(r.out, msg)
	if _, err := r.readLine(); err != nil && !errors.Is(err, io.EOF) {
		return errors.Errorf("waiting for input: %w", err)
	}
	return nil
}
