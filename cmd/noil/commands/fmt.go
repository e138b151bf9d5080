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
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/walteh/noil/cmd/noil/opts"
	"github.com/walteh/noil/pkg/buffer"
	"gitlab.com/tozd/go/errors"
)

func NewFmtCmd(o *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fmt",
		Short: "Align the columns of a recipe read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := io.ReadAll(o.Stdin)
			if err != nil {
				return errors.Errorf("reading stdin: %w", err)
			}

			buf, err := buffer.Parse(string(input))
			if err != nil {
				return err
			}

			out := buffer.Format(buf)
			if out == "" {
				return nil
			}
			_, err = fmt.Fprintln(o.Stdout, out)
			return err
		},
	}

	return cmd
}
