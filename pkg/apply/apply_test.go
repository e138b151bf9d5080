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

package apply_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/noil/pkg/apply"
	"github.com/walteh/noil/pkg/buffer"
	"github.com/walteh/noil/pkg/fsys"
	"github.com/walteh/noil/pkg/listing"
	"github.com/walteh/noil/pkg/log"
	"gitlab.com/tozd/go/errors"
)

func setup(t *testing.T, files map[string]string) (context.Context, string) {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		if strings.HasSuffix(name, "/") {
			require.NoError(t, os.MkdirAll(path, 0o755))
			continue
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background()), dir
}

// recipe parses lines, replacing {} with dir
func recipe(t *testing.T, dir string, lines ...string) *buffer.Buffer {
	t.Helper()
	text := strings.ReplaceAll(strings.Join(lines, "\n"), "{}", dir)
	buf, err := buffer.Parse(text)
	require.NoError(t, err)
	return buf
}

func read(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(content)
}

func statuses(outcome *apply.Outcome) []apply.Status {
	out := make([]apply.Status, 0, len(outcome.Results))
	for _, r := range outcome.Results {
		out = append(out, r.Status)
	}
	return out
}

func TestApplyAdd(t *testing.T) {
	ctx, dir := setup(t, map[string]string{"exists.txt": "keep"})

	buf := recipe(t, dir,
		"A : {}/new/deep/file.txt",
		"A : {}/newdir/",
		"A : {}/exists.txt",
	)

	outcome, err := apply.Apply(ctx, buf, apply.Options{})
	require.NoError(t, err)
	assert.Equal(t, []apply.Status{apply.StatusApplied, apply.StatusApplied, apply.StatusSkipped}, statuses(outcome))

	assert.Equal(t, "", read(t, filepath.Join(dir, "new", "deep", "file.txt")))

	info, err := os.Stat(filepath.Join(dir, "newdir"))
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "trailing separator creates a directory")

	assert.Equal(t, "keep", read(t, filepath.Join(dir, "exists.txt")), "add never truncates")
}

func TestApplyCopy(t *testing.T) {
	ctx, dir := setup(t, map[string]string{
		"src.txt":      "source",
		"tree/x.txt":   "x",
		"tree/y/z.txt": "z",
		"taken.txt":    "taken",
	})

	buf := recipe(t, dir,
		"aa : {}/src.txt",
		"bb : {}/tree/",
		"C aa : {}/out/copy.txt",
		"C bb : {}/tree2/",
		"C aa : {}/taken.txt",
	)

	outcome, err := apply.Apply(ctx, buf, apply.Options{})
	require.NoError(t, err)
	assert.Equal(t, []apply.Status{
		apply.StatusNoop, apply.StatusNoop,
		apply.StatusApplied, apply.StatusApplied, apply.StatusSkipped,
	}, statuses(outcome))

	assert.Equal(t, "source", read(t, filepath.Join(dir, "out", "copy.txt")))
	assert.Equal(t, "source", read(t, filepath.Join(dir, "src.txt")), "copy keeps the source")
	assert.Equal(t, "x", read(t, filepath.Join(dir, "tree2", "x.txt")))
	assert.Equal(t, "z", read(t, filepath.Join(dir, "tree2", "y", "z.txt")))
	assert.Equal(t, "taken", read(t, filepath.Join(dir, "taken.txt")), "copy never overwrites")
	assert.Equal(t, filepath.Join(dir, "src.txt"), outcome.Results[2].Source)
}

func TestApplyResolutionErrors(t *testing.T) {
	tests := []struct {
		name    string
		lines   []string
		wantErr error
		applied int
	}{
		{
			name:    "copy_unknown_index",
			lines:   []string{"C zz : {}/out.txt"},
			wantErr: buffer.ErrUnknownIndex,
		},
		{
			name:    "copy_missing_source",
			lines:   []string{"aa : {}/gone.txt", "C aa : {}/out.txt"},
			wantErr: apply.ErrSourceMissing,
		},
		{
			name:    "ambiguous_prefix",
			lines:   []string{"abc : {}/a.txt", "abd : {}/b.txt", "C ab : {}/out.txt"},
			wantErr: buffer.ErrAmbiguousIndex,
		},
		{
			name:    "move_neither_exists",
			lines:   []string{"aa : {}/gone.txt", "M aa : {}/also-gone.txt"},
			wantErr: apply.ErrNeitherExists,
		},
		{
			name:    "move_target_exists",
			lines:   []string{"aa : {}/a.txt", "M aa : {}/b.txt"},
			wantErr: apply.ErrTargetExists,
		},
		{
			name:    "open_unknown_index",
			lines:   []string{"aa : {}/a.txt", "O zz : {}/a.txt"},
			wantErr: buffer.ErrUnknownIndex,
		},
		{
			name:    "stops_at_failing_entry",
			lines:   []string{"A : {}/first.txt", "C zz : {}/out.txt", "A : {}/never.txt"},
			wantErr: buffer.ErrUnknownIndex,
			applied: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, dir := setup(t, map[string]string{"a.txt": "a", "b.txt": "b"})

			outcome, err := apply.Apply(ctx, recipe(t, dir, tt.lines...), apply.Options{})
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var resErr *apply.ResolutionError
			require.True(t, errors.As(err, &resErr), "got %T", err)

			assert.Equal(t, tt.applied, outcome.Count(apply.StatusApplied))
			assert.NoFileExists(t, filepath.Join(dir, "never.txt"))
			assert.Equal(t, "b", read(t, filepath.Join(dir, "b.txt")), "nothing is overwritten")
		})
	}
}

func TestApplyDelete(t *testing.T) {
	ctx, dir := setup(t, map[string]string{
		"file.txt":     "f",
		"tree/a.txt":   "a",
		"tree/b/c.txt": "c",
		"orphan.txt":   "o",
	})

	buf := recipe(t, dir,
		"aa : {}/file.txt",
		"bb : {}/tree/",
		"D aa : {}/file.txt",
		"D bb : {}/tree/",
		"D cc : {}/orphan.txt",
		"D dd : {}/never-existed.txt",
	)

	outcome, err := apply.Apply(ctx, buf, apply.Options{})
	require.NoError(t, err)
	assert.Equal(t, []apply.Status{
		apply.StatusNoop, apply.StatusNoop,
		apply.StatusApplied, apply.StatusApplied, apply.StatusApplied, apply.StatusSkipped,
	}, statuses(outcome))

	assert.NoFileExists(t, filepath.Join(dir, "file.txt"))
	assert.NoDirExists(t, filepath.Join(dir, "tree"))
	assert.NoFileExists(t, filepath.Join(dir, "orphan.txt"), "unresolved delete falls back to its own path")
}

func TestApplyMove(t *testing.T) {
	ctx, dir := setup(t, map[string]string{
		"a.txt":      "a",
		"tree/x.txt": "x",
		"done.txt":   "done",
	})

	buf := recipe(t, dir,
		"aa : {}/a.txt",
		"bb : {}/tree/",
		"cc : {}/moved-away.txt",
		"M aa : {}/dst/a.txt",
		"M bb : {}/renamed/",
		"M cc : {}/done.txt",
	)

	outcome, err := apply.Apply(ctx, buf, apply.Options{})
	require.NoError(t, err)
	assert.Equal(t, []apply.Status{
		apply.StatusNoop, apply.StatusNoop, apply.StatusNoop,
		apply.StatusApplied, apply.StatusApplied, apply.StatusSkipped,
	}, statuses(outcome))

	assert.NoFileExists(t, filepath.Join(dir, "a.txt"))
	assert.Equal(t, "a", read(t, filepath.Join(dir, "dst", "a.txt")), "missing parents are created")
	assert.NoDirExists(t, filepath.Join(dir, "tree"))
	assert.Equal(t, "x", read(t, filepath.Join(dir, "renamed", "x.txt")))
	assert.Equal(t, "done", read(t, filepath.Join(dir, "done.txt")))
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx, dir := setup(t, map[string]string{
		"keep.txt":   "keep",
		"mv.txt":     "mv",
		"rm.txt":     "rm",
		"tree/a.txt": "a",
	})

	buf := recipe(t, dir,
		"aa : {}/keep.txt",
		"bb : {}/mv.txt",
		"cc : {}/rm.txt",
		"dd : {}/tree/",
		"A : {}/added/",
		"A : {}/added/file.txt",
		"C aa : {}/copies/keep.txt",
		"C dd : {}/copies/tree/",
		"M bb : {}/moved/mv.txt",
		"D cc : {}/rm.txt",
	)

	first, err := apply.Apply(ctx, buf, apply.Options{})
	require.NoError(t, err)
	assert.Equal(t, 6, first.Count(apply.StatusApplied))

	second, err := apply.Apply(ctx, buf, apply.Options{})
	require.NoError(t, err)
	assert.Zero(t, second.Count(apply.StatusApplied), "second run changes nothing")
	assert.Equal(t, 6, second.Count(apply.StatusSkipped))

	for _, r := range second.Results {
		if r.Status == apply.StatusSkipped {
			assert.NotEmpty(t, r.Reason, "skipped %s has a reason", r.Entry.Path)
		}
	}

	assert.Equal(t, "keep", read(t, filepath.Join(dir, "copies", "keep.txt")))
	assert.Equal(t, "a", read(t, filepath.Join(dir, "copies", "tree", "a.txt")))
	assert.Equal(t, "mv", read(t, filepath.Join(dir, "moved", "mv.txt")))
	assert.NoFileExists(t, filepath.Join(dir, "rm.txt"))
}

func TestApplyEditedListing(t *testing.T) {
	ctx, dir := setup(t, map[string]string{"a.txt": "a", "b/": ""})

	entries, err := listing.List(ctx, listing.Options{}, dir)
	require.NoError(t, err)

	var moved listing.Entry
	for _, e := range entries {
		if e.Path == filepath.Join(dir, "a.txt") {
			moved = e
		}
	}
	require.NotEmpty(t, moved.Global)

	dst := filepath.Join(dir, "dst", "a.txt")
	lines := strings.Split(listing.Render(entries, listing.RenderOptions{NoColor: true}), "\n")
	for i, line := range lines {
		if strings.HasSuffix(line, moved.Display()) {
			lines[i] = fmt.Sprintf("M %s : %s", moved.Global, dst)
		}
	}

	buf, err := buffer.Parse(strings.Join(lines, "\n"))
	require.NoError(t, err)

	_, err = apply.Apply(ctx, buf, apply.Options{})
	require.ErrorIs(t, err, apply.ErrNeitherExists, "without the listing the edited line has no owner")

	outcome, err := apply.Apply(ctx, buf, apply.Options{Origin: listing.Origin(entries)})
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Count(apply.StatusApplied))

	assert.NoFileExists(t, filepath.Join(dir, "a.txt"))
	assert.Equal(t, "a", read(t, dst))
	assert.DirExists(t, filepath.Join(dir, "b"))
}

func TestApplyChooserFile(t *testing.T) {
	ctx, dir := setup(t, map[string]string{"a.txt": "a", "b.txt": "b", "sub/": ""})
	chooser := filepath.Join(dir, "state", "chooser")

	buf := recipe(t, dir,
		"aa : {}/a.txt",
		"bb : {}/sub/",
		"O aa : {}/a.txt",
		"O bb : {}/sub/",
		"O cc : {}/b.txt",
	)

	outcome, err := apply.Apply(ctx, buf, apply.Options{
		ChooserFile: chooser,
		Origin:      recipe(t, dir, "cc : {}/b.txt"),
	})
	require.NoError(t, err)

	want := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}
	assert.Equal(t, want, outcome.Opened)
	assert.Equal(t, strings.Join(want, "\n"), read(t, chooser))
	assert.Equal(t, apply.StatusSkipped, outcome.Results[3].Status, "directories are not opened")
	assert.Equal(t, filepath.Join(dir, "b.txt"), outcome.Results[4].Source, "resolved through the origin")
}

func TestApplyCopyIntoOwnSubtree(t *testing.T) {
	ctx, dir := setup(t, map[string]string{
		"tree/a.txt":   "a",
		"tree/b/c.txt": "c",
	})

	buf := recipe(t, dir,
		"aa : {}/tree/",
		"C aa : {}/tree/b/snapshot/",
	)

	outcome, err := apply.Apply(ctx, buf, apply.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, outcome.Count(apply.StatusApplied))

	snapshot := filepath.Join(dir, "tree", "b", "snapshot")
	assert.Equal(t, "a", read(t, filepath.Join(snapshot, "a.txt")))
	assert.Equal(t, "c", read(t, filepath.Join(snapshot, "b", "c.txt")))
	assert.NoDirExists(t, filepath.Join(snapshot, "b", "snapshot"), "the copy holds the tree as it was before")

	again, err := apply.Apply(ctx, buf, apply.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, again.Count(apply.StatusSkipped))
}

func TestApplyFailedCopyLeavesNoTarget(t *testing.T) {
	ctx, dir := setup(t, map[string]string{"real/x.txt": "x"})
	require.NoError(t, os.Symlink(filepath.Join(dir, "real"), filepath.Join(dir, "link")))

	buf := recipe(t, dir,
		"aa : {}/link",
		"C aa : {}/out.txt",
	)

	for n := 0; n < 2; n++ {
		_, err := apply.Apply(ctx, buf, apply.Options{})
		require.Error(t, err)

		var opErr *apply.OpError
		require.True(t, errors.As(err, &opErr), "got %T", err)
		assert.Equal(t, buffer.KindCopy, opErr.Kind)

		_, err = os.Lstat(filepath.Join(dir, "out.txt"))
		assert.True(t, os.IsNotExist(err), "a failed copy must not leave a target that looks done")
	}
}

type failingFS struct {
	*fsys.OS
	err error
}

func (f *failingFS) Rename(ctx context.Context, src, dst string) error {
	return f.err
}

func TestApplyIOFailure(t *testing.T) {
	ctx, dir := setup(t, map[string]string{"a.txt": "a"})
	boom := errors.New("disk on fire")

	var console bytes.Buffer
	buf := recipe(t, dir,
		"aa : {}/a.txt",
		"A : {}/before.txt",
		"M aa : {}/b.txt",
		"A : {}/after.txt",
	)

	outcome, err := apply.Apply(ctx, buf, apply.Options{
		FS:      &failingFS{OS: fsys.NewOS(), err: boom},
		Console: log.New(&console, zerolog.Nop()),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var opErr *apply.OpError
	require.True(t, errors.As(err, &opErr))
	assert.Equal(t, buffer.KindMove, opErr.Kind)
	assert.Equal(t, filepath.Join(dir, "a.txt"), opErr.Source)

	assert.Equal(t, 1, outcome.Count(apply.StatusApplied), "entries before the failure stay applied")
	assert.FileExists(t, filepath.Join(dir, "before.txt"))
	assert.NoFileExists(t, filepath.Join(dir, "after.txt"))
	assert.Contains(t, console.String(), "failed")
}

func TestApplyCancelled(t *testing.T) {
	ctx, dir := setup(t, nil)
	ctx, cancel := context.WithCancel(ctx)
	cancel()

	_, err := apply.Apply(ctx, recipe(t, dir, "A : {}/x.txt"), apply.Options{})
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, filepath.Join(dir, "x.txt"))
}
