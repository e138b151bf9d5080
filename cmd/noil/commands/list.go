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
	"fmt"

	"github.com/walteh/noil/cmd/noil/opts"
	"github.com/walteh/noil/pkg/listing"
)

// 🌳 RunList prints the listing of roots, or of the working directory
func RunList(ctx context.Context, o *opts.RootOpts, roots []string) error {
	entries, err := listing.List(ctx, listing.Options{Ignore: o.Config.IgnoreOptions()}, roots...)
	if err != nil {
		return err
	}

	if len(entries) == 0 {
		return nil
	}

	_, err = fmt.Fprintln(o.Stdout, listing.Render(entries, listing.RenderOptions{NoColor: o.Config.NoColor}))
	return err
}
