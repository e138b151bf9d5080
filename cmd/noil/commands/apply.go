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

package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"
	"github.com/walteh/noil/cmd/noil/opts"
	"github.com/walteh/noil/pkg/apply"
	"github.com/walteh/noil/pkg/buffer"
	"github.com/walteh/noil/pkg/listing"
	"github.com/walteh/noil/pkg/log"
	"github.com/walteh/noil/pkg/report"
	"gitlab.com/tozd/go/errors"
)

func NewApplyCmd(o *opts.RootOpts) *cobra.Command {
	var (
		commit      bool
		chooserFile string
		roots       []string
	)

	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a recipe read from stdin",
		Long: `Apply reads a recipe on stdin and carries it out against the filesystem.

Without --commit the changes are only printed. Applying is idempotent: a
recipe can be run again after an interruption and finishes what is left.

Pass --root with the directories the recipe was listed from when lines were
edited in place, so their indexes can still be found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if !cmd.Flags().Changed("commit") {
				commit = o.Config.Commit
			}
			if !cmd.Flags().Changed("chooser-file") {
				chooserFile = o.Config.ChooserFile
			}

			input, err := io.ReadAll(o.Stdin)
			if err != nil {
				return errors.Errorf("reading stdin: %w", err)
			}

			buf, err := buffer.Parse(string(input))
			if err != nil {
				return err
			}

			if !commit {
				console := log.FromContext(ctx)
				n := report.New(ctx, o.Stdin, o.Stderr).PrintChanges(buf)
				console.LogNewline()
				if n == 0 {
					console.Info("nothing to do")
					return nil
				}
				console.Infof("%d changes in preview mode: add (--commit) to perform actions", n)
				return nil
			}

			var origin *buffer.Buffer
			if len(roots) > 0 {
				entries, err := listing.List(ctx, listing.Options{Ignore: o.Config.IgnoreOptions()}, roots...)
				if err != nil {
					return err
				}
				origin = listing.Origin(entries)
			}

			return runApply(ctx, o, buf, origin, chooserFile)
		},
	}

	cmd.Flags().BoolVar(&commit, "commit", false, "perform the changes instead of printing them")
	cmd.Flags().StringVar(&chooserFile, "chooser-file", "", "write the paths of OPEN entries to this file (env NOIL_CHOOSER_FILE)")
	cmd.Flags().StringSliceVar(&roots, "root", nil, "directory the recipe was listed from, for resolving edited lines")

	return cmd
}

func runApply(ctx context.Context, o *opts.RootOpts, buf *buffer.Buffer, origin *buffer.Buffer, chooserFile string) error {
	console := log.FromContext(ctx)
	console.Header("applying changes")

	outcome, err := apply.Apply(ctx, buf, apply.Options{
		ChooserFile: chooserFile,
		Origin:      origin,
		Console:     console,
	})
	console.LogNewline()
	if err != nil {
		console.Errorf("stopped after %d applied; entries before the failure stay applied", outcome.Count(apply.StatusApplied))
		return err
	}

	if skipped := outcome.Count(apply.StatusSkipped); skipped > 0 {
		console.Warningf("%d applied, %d skipped", outcome.Count(apply.StatusApplied), skipped)
	} else {
		console.Successf("%d applied", outcome.Count(apply.StatusApplied))
	}
	return nil
}
