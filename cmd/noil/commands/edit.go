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

	"github.com/spf13/cobra"
	"github.com/walteh/noil/cmd/noil/opts"
	"github.com/walteh/noil/pkg/buffer"
	"github.com/walteh/noil/pkg/editor"
	"github.com/walteh/noil/pkg/fsys"
	"github.com/walteh/noil/pkg/listing"
	"github.com/walteh/noil/pkg/log"
	"github.com/walteh/noil/pkg/report"
	"gitlab.com/tozd/go/errors"
)

// EditOptions are the knobs of one edit session
type EditOptions struct {
	Roots       []string
	ChooserFile string
	// TempDir holds the session directory; empty means the system default.
	TempDir string
}

func NewEditCmd(o *opts.RootOpts) *cobra.Command {
	var eo EditOptions

	cmd := &cobra.Command{
		Use:   "edit [PATH...]",
		Short: "Edit a listing in $EDITOR and apply the result",
		Long: `Edit lists the given directories, opens the listing in $EDITOR and,
once the editor exits, shows the resulting changes and asks whether to apply
them, abort, or go back to editing.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eo.Roots = args
			if !cmd.Flags().Changed("chooser-file") {
				eo.ChooserFile = o.Config.ChooserFile
			}
			return RunEdit(cmd.Context(), o, editor.New(o.Config.Editor), eo)
		},
	}

	cmd.Flags().StringVar(&eo.ChooserFile, "chooser-file", "", "write the paths of OPEN entries to this file (env NOIL_CHOOSER_FILE)")

	return cmd
}

// ✏️ RunEdit drives the list, edit, confirm, apply loop
func RunEdit(ctx context.Context, o *opts.RootOpts, ed *editor.Editor, eo EditOptions) error {
	if ed.Command == "" {
		return editor.ErrNoEditor
	}

	entries, err := listing.List(ctx, listing.Options{Ignore: o.Config.IgnoreOptions()}, eo.Roots...)
	if err != nil {
		return err
	}
	origin := listing.Origin(entries)

	fs := fsys.NewOS()
	session, err := editor.NewSession(ctx, fs, eo.TempDir)
	if err != nil {
		return err
	}

	if err := session.Write(ctx, listing.Render(entries, listing.RenderOptions{NoColor: true})); err != nil {
		return err
	}

	reporter := report.New(ctx, o.Stdin, o.Stderr)

	for {
		if err := ed.Edit(ctx, session.Path()); err != nil {
			return errors.Errorf("editing %s: %w", session.Path(), err)
		}

		content, err := session.Read(ctx)
		if err != nil {
			return err
		}

		buf, err := buffer.Parse(content)
		if err != nil {
			if err := reporter.InvalidRecipe(err); err != nil {
				return err
			}
			continue
		}

		reporter.PrintChanges(buf)

		action, err := reporter.Prompt()
		if err != nil {
			return err
		}

		switch action {
		case report.ActionEdit:
			continue
		case report.ActionQuit:
			return session.Close(ctx)
		case report.ActionApply:
			if err := runApply(ctx, o, buf, origin, eo.ChooserFile); err != nil {
				log.FromContext(ctx).Warningf("recipe kept at %s", session.Path())
				return err
			}
			return session.Close(ctx)
		}
	}
}
