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
	"context"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/noil/pkg/buffer"
	"github.com/walteh/noil/pkg/fsys"
	"github.com/walteh/noil/pkg/log"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Options configures one apply run
type Options struct {
	// ChooserFile receives the paths of Open entries, one per line.
	ChooserFile string
	// Origin is consulted for indexes the recipe itself no longer declares,
	// typically the listing the recipe was edited from.
	Origin *buffer.Buffer
	// FS defaults to the real disk.
	FS fsys.FileSystem
	// Console defaults to the logger on the context, see log.FromContext.
	Console *log.Logger
}

// 📊 Status of one entry after the run
type Status int

const (
	StatusNoop    Status = iota // existing entries
	StatusApplied               // the filesystem was changed, or the path was queued
	StatusSkipped               // already satisfied, see Reason
)

func (s Status) String() string {
	switch s {
	case StatusApplied:
		return log.StatusApplied
	case StatusSkipped:
		return log.StatusSkipped
	default:
		return "noop"
	}
}

// 📄 Result records what happened to one entry
type Result struct {
	Entry  buffer.Entry
	Source string
	Status Status
	Reason string
}

// 📦 Outcome of a run, in recipe order
type Outcome struct {
	Results []Result
	Opened  []string
}

// Count returns how many results have the given status.
func (o *Outcome) Count(s Status) int {
	n := 0
	for _, r := range o.Results {
		if r.Status == s {
			n++
		}
	}
	return n
}

type engine struct {
	buf     *buffer.Buffer
	opts    Options
	fs      fsys.FileSystem
	console *log.Logger
	opened  []string
}

// 🏃 Apply executes the recipe against the filesystem, one entry at a time in
// recipe order.
//
// Apply never overwrites: adding, copying or moving onto an occupied target
// is refused, and sources that are already gone count as done. Re-running a
// recipe that was interrupted or already applied therefore converges without
// errors. Resolution and I/O errors stop the batch at the failing entry; the
// returned Outcome covers the entries before it.
func Apply(ctx context.Context, buf *buffer.Buffer, opts Options) (*Outcome, error) {
	logger := zerolog.Ctx(ctx)

	e := &engine{
		buf:     buf,
		opts:    opts,
		fs:      opts.FS,
		console: opts.Console,
	}
	if e.fs == nil {
		e.fs = fsys.NewOS()
	}
	if e.console == nil {
		e.console = log.FromContext(ctx)
	}

	outcome := &Outcome{}

	for _, entry := range buf.Entries() {
		if err := ctx.Err(); err != nil {
			return outcome, errors.Errorf("apply cancelled: %w", err)
		}

		logger.Debug().
			Str("verb", entry.Operation.Kind().String()).
			Str("path", entry.Path).
			Msg("applying entry")

		res, err := e.applyEntry(ctx, entry)
		if err != nil {
			index, _ := buffer.IndexOf(entry.Operation)
			e.console.LogEntry(ctx, log.EntryOperation{
				Verb:   entry.Operation.Kind().String(),
				Index:  index,
				Source: res.Source,
				Target: entry.Path,
				Status: log.StatusFailed,
				Reason: err.Error(),
			})
			return outcome, err
		}

		outcome.Results = append(outcome.Results, res)

		if res.Status != StatusNoop {
			index, _ := buffer.IndexOf(entry.Operation)
			e.console.LogEntry(ctx, log.EntryOperation{
				Verb:   entry.Operation.Kind().String(),
				Index:  index,
				Source: res.Source,
				Target: entry.Path,
				Status: res.Status.String(),
				Reason: res.Reason,
			})
		}
	}

	outcome.Opened = e.opened

	if opts.ChooserFile != "" {
		content := strings.Join(e.opened, "\n")
		if err := e.fs.WriteFileAtomic(ctx, opts.ChooserFile, []byte(content)); err != nil {
			return outcome, errors.Errorf("writing chooser file %s: %w", opts.ChooserFile, err)
		}
		logger.Debug().Str("path", opts.ChooserFile).Int("paths", len(e.opened)).Msg("wrote chooser file")
	}

	return outcome, nil
}

func (e *engine) applyEntry(ctx context.Context, entry buffer.Entry) (Result, error) {
	switch op := entry.Operation.(type) {
	case buffer.Existing:
		return Result{Entry: entry, Status: StatusNoop}, nil
	case buffer.Open:
		return e.open(entry, op)
	case buffer.Add:
		return e.add(ctx, entry)
	case buffer.Copy:
		return e.copy(ctx, entry, op)
	case buffer.Delete:
		return e.delete(ctx, entry, op)
	case buffer.Move:
		return e.move(ctx, entry, op)
	default:
		return Result{Entry: entry}, errors.Errorf("unknown operation %T", op)
	}
}

// resolve maps an index to the path of its existing entry, looking in the
// recipe first and then in the origin. found is false when neither knows it.
func (e *engine) resolve(kind buffer.Kind, entry buffer.Entry, index string) (string, bool, error) {
	owner, err := e.buf.Resolve(index)
	if err == nil {
		return owner.Path, true, nil
	}
	if !errors.Is(err, buffer.ErrUnknownIndex) {
		return "", false, &ResolutionError{Kind: kind, Index: index, Path: entry.Path, Err: err}
	}

	if e.opts.Origin != nil {
		owner, err = e.opts.Origin.Resolve(index)
		if err == nil {
			return owner.Path, true, nil
		}
		if !errors.Is(err, buffer.ErrUnknownIndex) {
			return "", false, &ResolutionError{Kind: kind, Index: index, Path: entry.Path, Err: err}
		}
	}

	return "", false, nil
}

func (e *engine) exists(ctx context.Context, kind buffer.Kind, index, path string) (bool, error) {
	ok, err := e.fs.Exists(ctx, clean(path))
	if err != nil {
		return false, &OpError{Kind: kind, Index: index, Target: path, Err: err}
	}
	return ok, nil
}

// open queues the entry's own path; the index only has to name a known entry
func (e *engine) open(entry buffer.Entry, op buffer.Open) (Result, error) {
	res := Result{Entry: entry}

	source, found, err := e.resolve(buffer.KindOpen, entry, op.Index)
	if err != nil {
		return res, err
	}
	if !found {
		return res, &ResolutionError{Kind: buffer.KindOpen, Index: op.Index, Path: entry.Path, Err: buffer.ErrUnknownIndex}
	}
	res.Source = source

	if entry.IsDir() {
		res.Status, res.Reason = StatusSkipped, "directories are not opened"
		return res, nil
	}
	e.opened = append(e.opened, entry.Path)
	res.Status = StatusApplied
	return res, nil
}

func (e *engine) add(ctx context.Context, entry buffer.Entry) (Result, error) {
	res := Result{Entry: entry}
	target := clean(entry.Path)

	exists, err := e.exists(ctx, buffer.KindAdd, "", entry.Path)
	if err != nil {
		return res, err
	}
	if exists {
		res.Status, res.Reason = StatusSkipped, "path already exists"
		return res, nil
	}

	fail := func(err error) (Result, error) {
		return res, &OpError{Kind: buffer.KindAdd, Target: entry.Path, Err: err}
	}

	if entry.IsDir() {
		if err := e.fs.MkdirAll(ctx, target); err != nil {
			return fail(err)
		}
		res.Status = StatusApplied
		return res, nil
	}

	if err := e.fs.MkdirAll(ctx, filepath.Dir(target)); err != nil {
		return fail(errors.Errorf("creating parent: %w", err))
	}
	if err := e.fs.CreateFile(ctx, target); err != nil {
		return fail(err)
	}

	res.Status = StatusApplied
	return res, nil
}

func (e *engine) copy(ctx context.Context, entry buffer.Entry, op buffer.Copy) (Result, error) {
	res := Result{Entry: entry}

	source, found, err := e.resolve(buffer.KindCopy, entry, op.Index)
	if err != nil {
		return res, err
	}
	if !found {
		return res, &ResolutionError{Kind: buffer.KindCopy, Index: op.Index, Path: entry.Path, Err: buffer.ErrUnknownIndex}
	}
	res.Source = source

	srcExists, err := e.exists(ctx, buffer.KindCopy, op.Index, source)
	if err != nil {
		return res, err
	}
	if !srcExists {
		return res, &ResolutionError{Kind: buffer.KindCopy, Index: op.Index, Path: entry.Path, Source: source, Err: ErrSourceMissing}
	}

	tgtExists, err := e.exists(ctx, buffer.KindCopy, op.Index, entry.Path)
	if err != nil {
		return res, err
	}
	if tgtExists {
		res.Status, res.Reason = StatusSkipped, "target already exists"
		return res, nil
	}

	fail := func(err error) (Result, error) {
		return res, &OpError{Kind: buffer.KindCopy, Index: op.Index, Source: source, Target: entry.Path, Err: err}
	}

	target := clean(entry.Path)
	if err := e.fs.MkdirAll(ctx, filepath.Dir(target)); err != nil {
		return fail(errors.Errorf("creating parent: %w", err))
	}

	isDir, err := e.fs.IsDir(ctx, clean(source))
	if err != nil {
		return fail(err)
	}

	if isDir {
		err = e.fs.CopyTree(ctx, clean(source), target)
	} else {
		err = e.fs.CopyFile(ctx, clean(source), target)
	}
	if err != nil {
		return fail(err)
	}

	res.Status = StatusApplied
	return res, nil
}

func (e *engine) delete(ctx context.Context, entry buffer.Entry, op buffer.Delete) (Result, error) {
	res := Result{Entry: entry}

	source, found, err := e.resolve(buffer.KindDelete, entry, op.Index)
	if err != nil {
		return res, err
	}
	if !found {
		// the entry's own path is where the index pointed at listing time
		source = entry.Path
	}
	res.Source = source

	exists, err := e.exists(ctx, buffer.KindDelete, op.Index, source)
	if err != nil {
		return res, err
	}
	if !exists {
		res.Status, res.Reason = StatusSkipped, "already deleted"
		return res, nil
	}

	isDir, err := e.fs.IsDir(ctx, clean(source))
	if err == nil {
		if isDir {
			err = e.fs.RemoveAll(ctx, clean(source))
		} else {
			err = e.fs.Remove(ctx, clean(source))
		}
	}
	if err != nil {
		return res, &OpError{Kind: buffer.KindDelete, Index: op.Index, Source: source, Target: entry.Path, Err: err}
	}

	res.Status = StatusApplied
	return res, nil
}

func (e *engine) move(ctx context.Context, entry buffer.Entry, op buffer.Move) (Result, error) {
	res := Result{Entry: entry}

	source, found, err := e.resolve(buffer.KindMove, entry, op.Index)
	if err != nil {
		return res, err
	}
	res.Source = source

	srcExists := false
	if found {
		if srcExists, err = e.exists(ctx, buffer.KindMove, op.Index, source); err != nil {
			return res, err
		}
	}

	tgtExists, err := e.exists(ctx, buffer.KindMove, op.Index, entry.Path)
	if err != nil {
		return res, err
	}

	if !srcExists {
		if tgtExists {
			res.Status, res.Reason = StatusSkipped, "target exists and source is gone, already moved"
			return res, nil
		}
		return res, &ResolutionError{Kind: buffer.KindMove, Index: op.Index, Path: entry.Path, Source: source, Err: ErrNeitherExists}
	}

	if clean(source) == clean(entry.Path) {
		res.Status, res.Reason = StatusSkipped, "source and target are the same"
		return res, nil
	}

	if tgtExists {
		return res, &ResolutionError{Kind: buffer.KindMove, Index: op.Index, Path: entry.Path, Source: source, Err: ErrTargetExists}
	}

	target := clean(entry.Path)
	if err := e.fs.MkdirAll(ctx, filepath.Dir(target)); err != nil {
		return res, &OpError{Kind: buffer.KindMove, Index: op.Index, Source: source, Target: entry.Path, Err: errors.Errorf("creating parent: %w", err)}
	}
	if err := e.fs.Rename(ctx, clean(source), target); err != nil {
		return res, &OpError{Kind: buffer.KindMove, Index: op.Index, Source: source, Target: entry.Path, Err: err}
	}

	res.Status = StatusApplied
	return res, nil
}

// clean drops the trailing separator, which only carries intent
func clean(path string) string {
	return filepath.Clean(path)
}
