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

// Package ignore decides which entries of a directory tree are hidden from a
// listing. It follows the usual VCS conventions: dot-entries are hidden, and
// .gitignore / .ignore files apply to their directory and everything below,
// with the nearest file taking precedence.
package ignore

import (
	"bufio"
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📄 Files lists the ignore files read in every directory, lowest precedence first
var Files = []string{".gitignore", ".ignore"}

// 🔧 Options controls what the matcher hides
type Options struct {
	ShowHidden    bool     // list dot-entries too
	NoIgnoreFiles bool     // do not read .gitignore / .ignore
	Exclude       []string // extra doublestar patterns relative to the root
}

// rule is one parsed line of an ignore file
type rule struct {
	pattern string
	negate  bool
	dirOnly bool
}

// 🎯 Matcher answers ignore queries for paths below one root
type Matcher struct {
	root   string
	opts   Options
	logger zerolog.Logger
	rules  map[string][]rule // directory -> rules, loaded lazily
}

// 🏭 New creates a matcher for the tree at root
func New(ctx context.Context, root string, opts Options) (*Matcher, error) {
	for _, p := range opts.Exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Errorf("invalid exclude pattern %q", p)
		}
	}
	return &Matcher{
		root:   filepath.Clean(root),
		opts:   opts,
		logger: *zerolog.Ctx(ctx),
		rules:  make(map[string][]rule),
	}, nil
}

// 🔍 Ignored reports whether path should be left out of the listing.
// Parents are expected to have been checked already; a walker skips the
// contents of ignored directories.
func (m *Matcher) Ignored(path string, isDir bool) (bool, error) {
	path = filepath.Clean(path)
	if path == m.root {
		return false, nil
	}

	if !m.opts.ShowHidden && strings.HasPrefix(filepath.Base(path), ".") {
		return true, nil
	}

	rel, err := filepath.Rel(m.root, path)
	if err != nil {
		return false, errors.Errorf("relative path of %s: %w", path, err)
	}
	rel = filepath.ToSlash(rel)

	for _, p := range m.opts.Exclude {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true, nil
		}
	}

	if m.opts.NoIgnoreFiles {
		return false, nil
	}

	// nearest directory first; the first file with an opinion decides
	for dir := filepath.Dir(path); ; dir = filepath.Dir(dir) {
		rules, err := m.load(dir)
		if err != nil {
			return false, err
		}

		if ignored, matched := decide(rules, dir, path, isDir); matched {
			return ignored, nil
		}

		if dir == m.root || dir == filepath.Dir(dir) {
			break
		}
	}

	return false, nil
}

func decide(rules []rule, dir, path string, isDir bool) (ignored bool, matched bool) {
	if len(rules) == 0 {
		return false, false
	}

	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false, false
	}
	rel = filepath.ToSlash(rel)

	// last matching rule wins within one file
	for i := len(rules) - 1; i >= 0; i-- {
		r := rules[i]
		if r.dirOnly && !isDir {
			continue
		}
		if ok, _ := doublestar.Match(r.pattern, rel); ok {
			return !r.negate, true
		}
	}
	return false, false
}

func (m *Matcher) load(dir string) ([]rule, error) {
	if rules, ok := m.rules[dir]; ok {
		return rules, nil
	}

	var rules []rule
	for _, name := range Files {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, errors.Errorf("opening ignore file: %w", err)
		}
		parsed, err := parseRules(f)
		f.Close()
		if err != nil {
			return nil, errors.Errorf("reading %s: %w", filepath.Join(dir, name), err)
		}
		m.logger.Debug().Str("dir", dir).Str("file", name).Int("rules", len(parsed)).Msg("loaded ignore file")
		rules = append(rules, parsed...)
	}

	m.rules[dir] = rules
	return rules, nil
}

func parseRules(r io.Reader) ([]rule, error) {
	var rules []rule

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var rl rule
		if strings.HasPrefix(line, "!") {
			rl.negate = true
			line = line[1:]
		} else if strings.HasPrefix(line, `\`) {
			line = line[1:] // escaped "#" or "!"
		}

		if strings.HasSuffix(line, "/") {
			rl.dirOnly = true
			line = strings.TrimRight(line, "/")
		}
		if line == "" {
			continue
		}

		if strings.Contains(line, "/") {
			rl.pattern = strings.TrimPrefix(line, "/")
		} else {
			rl.pattern = "**/" + line
		}

		if !doublestar.ValidatePattern(rl.pattern) {
			continue
		}
		rules = append(rules, rl)
	}

	if err := scanner.Err(); err != nil {
		return nil, errors.Errorf("scanning rules: %w", err)
	}
	return rules, nil
}
