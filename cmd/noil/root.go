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

package main

import (
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/walteh/noil/cmd/noil/commands"
	"github.com/walteh/noil/cmd/noil/opts"
	"github.com/walteh/noil/pkg/config"
	"github.com/walteh/noil/pkg/log"
	"gitlab.com/tozd/go/errors"
)

type rootFlags struct {
	configFile string
	debug      bool
	noColor    bool
}

func newRootCmd(stdin io.Reader, stdout, stderr io.Writer) *cobra.Command {
	var flags rootFlags

	o := &opts.RootOpts{
		Stdin:  stdin,
		Stdout: stdout,
		Stderr: stderr,
	}

	rootCmd := &cobra.Command{
		Use:   "noil [PATH...]",
		Short: "Bulk-edit a directory tree as plain text",
		Long: `noil lists a directory tree with a short index in front of every path.
Edit the listing to add, copy, delete, move or open entries, then apply it.

  noil .                 print the listing
  noil edit .            edit the listing in $EDITOR and apply it
  noil . | ... | noil apply --commit --root .`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := setupLogging(stderr, flags.debug)
			ctx := logger.WithContext(cmd.Context())

			cfg, err := config.Resolve(ctx, flags.configFile)
			if err != nil {
				return errors.Errorf("loading config: %w", err)
			}
			if cmd.Flags().Changed("no-color") {
				cfg.NoColor = flags.noColor
			}
			if cfg.NoColor {
				color.NoColor = true
				pterm.DisableColor()
			}

			o.Config = cfg

			cmd.SetContext(log.NewContext(ctx, log.New(stderr, logger)))
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return commands.RunList(cmd.Context(), o, args)
		},
	}

	rootCmd.SetIn(stdin)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	rootCmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "", "config file path (default $NOIL_CONFIG or $XDG_CONFIG_HOME/noil/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&flags.debug, "debug", "d", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "print full indexes without color")

	rootCmd.AddCommand(
		commands.NewEditCmd(o),
		commands.NewApplyCmd(o),
		commands.NewFmtCmd(o),
		newVersionCmd(),
	)

	return rootCmd
}

func setupLogging(w io.Writer, debug bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if debug {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}).
		Level(level).
		With().
		Timestamp().
		Logger()
}
