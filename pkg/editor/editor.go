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

// Package editor hands a recipe to the user's text editor and reads it back.
package editor

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/noil/pkg/fsys"
	"github.com/walteh/noil/pkg/ident"
	"gitlab.com/tozd/go/errors"
)

// 📄 BufferName is the file name of the recipe inside a session directory
const BufferName = "buf.noil"

// ErrNoEditor is returned when no editor command is configured
var ErrNoEditor = errors.New("no editor configured, set $EDITOR")

// 📝 Session owns one temporary recipe file
type Session struct {
	dir  string
	path string
	fs   fsys.FileSystem
}

// 🏭 NewSession reserves <base>/noil/<random id>/buf.noil. An empty base
// means the system temp directory.
func NewSession(ctx context.Context, fs fsys.FileSystem, base string) (*Session, error) {
	if base == "" {
		base = os.TempDir()
	}

	id, err := ident.RandomID(8)
	if err != nil {
		return nil, errors.Errorf("creating session id: %w", err)
	}

	dir := filepath.Join(base, "noil", id)
	if err := fs.MkdirAll(ctx, dir); err != nil {
		return nil, errors.Errorf("creating session dir: %w", err)
	}

	zerolog.Ctx(ctx).Debug().Str("dir", dir).Msg("created edit session")

	return &Session{
		dir:  dir,
		path: filepath.Join(dir, BufferName),
		fs:   fs,
	}, nil
}

// Path returns the recipe file.
func (s *Session) Path() string {
	return s.path
}

// Write replaces the recipe file.
func (s *Session) Write(ctx context.Context, content string) error {
	if err := s.fs.WriteFileAtomic(ctx, s.path, []byte(content)); err != nil {
		return errors.Errorf("writing recipe: %w", err)
	}
	return nil
}

// Read returns the current recipe file.
func (s *Session) Read(ctx context.Context) (string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return "", errors.Errorf("reading recipe: %w", err)
	}
	return string(data), nil
}

// Close removes the session directory.
func (s *Session) Close(ctx context.Context) error {
	if err := s.fs.RemoveAll(ctx, s.dir); err != nil {
		return errors.Errorf("removing session dir: %w", err)
	}
	return nil
}

// ✏️ Editor runs an editor command on a file
type Editor struct {
	// Command is split on whitespace, so "code --wait" works.
	Command string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// 🏭 New creates an editor attached to the terminal
func New(command string) *Editor {
	return &Editor{
		Command: command,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// 🚀 Edit blocks until the editor exits. A non-zero exit is an error.
func (e *Editor) Edit(ctx context.Context, path string) error {
	fields := strings.Fields(e.Command)
	if len(fields) == 0 {
		return ErrNoEditor
	}

	args := append(fields[1:], path)
	cmd := exec.CommandContext(ctx, fields[0], args...)
	cmd.Stdin = e.Stdin
	cmd.Stdout = e.Stdout
	cmd.Stderr = e.Stderr

	zerolog.Ctx(ctx).Debug().Str("editor", fields[0]).Strs("args", args).Msg("opening editor")

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return errors.Errorf("editor exited: %d", exitErr.ExitCode())
		}
		return errors.Errorf("running editor %s: %w", fields[0], err)
	}
	return nil
}
