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

// Package fsys is the filesystem layer the apply engine mutates the tree
// through.
package fsys

import (
	"bytes"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"

	"github.com/natefinch/atomic"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

// 💾 FileSystem holds every primitive the apply engine needs. All of them
// are fallible.
type FileSystem interface {
	// Existence checks
	Exists(ctx context.Context, path string) (bool, error)
	IsDir(ctx context.Context, path string) (bool, error)

	// Creation
	MkdirAll(ctx context.Context, path string) error
	CreateFile(ctx context.Context, path string) error
	WriteFileAtomic(ctx context.Context, path string, content []byte) error

	// Copy, move, remove
	CopyFile(ctx context.Context, src, dst string) error
	CopyTree(ctx context.Context, src, dst string) error
	Rename(ctx context.Context, src, dst string) error
	Remove(ctx context.Context, path string) error
	RemoveAll(ctx context.Context, path string) error
}

// 🖥️ OS implements FileSystem on the real disk
type OS struct{}

var _ FileSystem = (*OS)(nil)

// 🏭 NewOS returns the disk-backed filesystem
func NewOS() *OS {
	return &OS{}
}

// notFound treats "a/b" where a is a regular file the same as a missing path
func notFound(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}

// Exists does not follow symlinks, so a dangling link still exists.
func (o *OS) Exists(ctx context.Context, path string) (bool, error) {
	if _, err := os.Lstat(path); err != nil {
		if notFound(err) {
			return false, nil
		}
		return false, errors.Errorf("checking %s: %w", path, err)
	}
	return true, nil
}

// IsDir does not follow symlinks either; a link to a directory is not one.
func (o *OS) IsDir(ctx context.Context, path string) (bool, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if notFound(err) {
			return false, nil
		}
		return false, errors.Errorf("checking %s: %w", path, err)
	}
	return info.IsDir(), nil
}

func (o *OS) MkdirAll(ctx context.Context, path string) error {
	if err := os.MkdirAll(path, dirMode); err != nil {
		return errors.Errorf("creating directory: %w", err)
	}
	return nil
}

// CreateFile creates an empty file and refuses to truncate an existing one.
func (o *OS) CreateFile(ctx context.Context, path string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, fileMode)
	if err != nil {
		return errors.Errorf("creating file: %w", err)
	}
	if err := f.Close(); err != nil {
		return errors.Errorf("closing file: %w", err)
	}
	return nil
}

// WriteFileAtomic replaces path through a temp file and rename.
func (o *OS) WriteFileAtomic(ctx context.Context, path string, content []byte) error {
	if err := o.MkdirAll(ctx, filepath.Dir(path)); err != nil {
		return err
	}
	if err := atomic.WriteFile(path, bytes.NewReader(content)); err != nil {
		return errors.Errorf("writing file atomically: %w", err)
	}
	return nil
}

// CopyFile copies bytes and permission bits. dst must not exist, and is
// removed again when the copy fails part way.
func (o *OS) CopyFile(ctx context.Context, src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Errorf("opening source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return errors.Errorf("stat source: %w", err)
	}
	if !info.Mode().IsRegular() {
		return errors.Errorf("copying %s: not a regular file (%s)", src, info.Mode().Type())
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return errors.Errorf("creating destination: %w", err)
	}

	_, err = io.Copy(out, in)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		if rerr := os.Remove(dst); rerr != nil && !notFound(rerr) {
			zerolog.Ctx(ctx).Warn().Err(rerr).Str("path", dst).Msg("removing partial copy")
		}
		return errors.Errorf("copying %s to %s: %w", src, dst, err)
	}
	return nil
}

type treeItem struct {
	rel string
	d   fs.DirEntry
}

// CopyTree recreates the directory at src under dst: directories are created,
// regular files copied byte for byte and symlinks recreated. Other file types
// are skipped. The source is read completely before anything is written, so
// dst may lie inside src. dst must not exist; on failure everything created
// below it is removed.
func (o *OS) CopyTree(ctx context.Context, src, dst string) (err error) {
	logger := zerolog.Ctx(ctx)

	var items []treeItem
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return errors.Errorf("walking %s: %w", path, err)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Errorf("relative path: %w", err)
		}
		items = append(items, treeItem{rel: rel, d: d})
		return nil
	})
	if err != nil {
		return err
	}

	exists, err := o.Exists(ctx, dst)
	if err != nil {
		return err
	}
	if exists {
		return errors.Errorf("copying tree to %s: %w", dst, fs.ErrExist)
	}

	defer func() {
		if err == nil {
			return
		}
		if rerr := os.RemoveAll(dst); rerr != nil {
			logger.Warn().Err(rerr).Str("path", dst).Msg("removing partial tree")
		}
	}()

	for _, it := range items {
		if err := ctx.Err(); err != nil {
			return errors.Errorf("copy cancelled: %w", err)
		}

		path := filepath.Join(src, it.rel)
		target := filepath.Join(dst, it.rel)

		switch {
		case it.d.IsDir():
			if err := o.MkdirAll(ctx, target); err != nil {
				return errors.Errorf("copying directory %s: %w", it.rel, err)
			}
		case it.d.Type()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return errors.Errorf("reading link %s: %w", it.rel, err)
			}
			if err := os.Symlink(link, target); err != nil {
				return errors.Errorf("creating link %s: %w", it.rel, err)
			}
		case it.d.Type().IsRegular():
			if err := o.CopyFile(ctx, path, target); err != nil {
				return errors.Errorf("copying file %s: %w", it.rel, err)
			}
		default:
			logger.Debug().Str("path", path).Msg("skipping special file")
		}
	}

	return nil
}

func (o *OS) Rename(ctx context.Context, src, dst string) error {
	if err := os.Rename(src, dst); err != nil {
		return errors.Errorf("renaming: %w", err)
	}
	return nil
}

func (o *OS) Remove(ctx context.Context, path string) error {
	if err := os.Remove(path); err != nil {
		return errors.Errorf("removing: %w", err)
	}
	return nil
}

func (o *OS) RemoveAll(ctx context.Context, path string) error {
	if err := os.RemoveAll(path); err != nil {
		return errors.Errorf("removing recursively: %w", err)
	}
	return nil
}
