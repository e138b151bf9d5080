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

// Package listing walks directory trees and binds every visited path to a
// short identifier that a recipe can refer to.
package listing

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog"
	"github.com/walteh/noil/pkg/buffer"
	"github.com/walteh/noil/pkg/ident"
	"github.com/walteh/noil/pkg/ignore"
	"github.com/walteh/noil/pkg/prefix"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

// 📄 Entry is one listed path
type Entry struct {
	Path       string // as produced by the walk, no trailing separator
	IsDir      bool
	Code       string // full base-36 identifier
	Global     string // prefix unique across the whole listing
	Individual string // prefix unique among sorted neighbours, display only
}

// Display returns the path as it appears in a listing line.
func (e Entry) Display() string {
	if e.IsDir && !buffer.IsDirPath(e.Path) {
		return e.Path + string(os.PathSeparator)
	}
	return e.Path
}

// 🔧 Options controls the walk
type Options struct {
	Ignore ignore.Options
}

type walked struct {
	path  string
	isDir bool
}

// 🌳 List walks every root and returns its entries sorted by path.
//
// Roots are walked concurrently. A path reached from more than one root is
// listed once. The roots themselves are part of the listing.
func List(ctx context.Context, opts Options, roots ...string) ([]Entry, error) {
	if len(roots) == 0 {
		roots = []string{"."}
	}

	logger := zerolog.Ctx(ctx)
	found := make([][]walked, len(roots))

	g, gctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		i, root := i, root
		g.Go(func() error {
			paths, err := walk(gctx, root, opts)
			if err != nil {
				return errors.Errorf("walking %s: %w", root, err)
			}
			found[i] = paths
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var entries []Entry
	for _, paths := range found {
		for _, w := range paths {
			if seen[w.path] {
				continue
			}
			seen[w.path] = true
			entries = append(entries, Entry{
				Path:  w.path,
				IsDir: w.isDir,
				Code:  ident.Hash(w.path),
			})
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Code < entries[j].Code
	})

	codes := make([]string, len(entries))
	for i, e := range entries {
		codes[i] = e.Code
	}
	_, global, individual := prefix.ShortestUniquePrefixes(codes)
	for i := range entries {
		entries[i].Global = global[i]
		entries[i].Individual = individual[i]
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return comparePaths(entries[i].Path, entries[j].Path) < 0
	})

	logger.Debug().Int("entries", len(entries)).Strs("roots", roots).Msg("listed tree")

	return entries, nil
}

func walk(ctx context.Context, root string, opts Options) ([]walked, error) {
	matcher, err := ignore.New(ctx, root, opts.Ignore)
	if err != nil {
		return nil, err
	}

	var out []walked
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		ignored, err := matcher.Ignored(path, d.IsDir())
		if err != nil {
			return err
		}
		if ignored {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		out = append(out, walked{path: path, isDir: d.IsDir()})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// comparePaths orders paths component by component so a directory's
// contents follow it directly.
func comparePaths(a, b string) int {
	ac := strings.Split(filepath.ToSlash(a), "/")
	bc := strings.Split(filepath.ToSlash(b), "/")
	for i := 0; i < len(ac) && i < len(bc); i++ {
		if c := strings.Compare(ac[i], bc[i]); c != 0 {
			return c
		}
	}
	return len(ac) - len(bc)
}

// 🗺️ Origin builds a buffer of existing entries keyed by full code, used to
// resolve indexes that an edited recipe no longer declares.
func Origin(entries []Entry) *buffer.Buffer {
	out := make([]buffer.Entry, 0, len(entries))
	for _, e := range entries {
		out = append(out, buffer.Entry{
			Path:      e.Display(),
			Operation: buffer.Existing{Index: e.Code},
		})
	}
	return buffer.New(out...)
}
