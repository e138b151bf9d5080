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

// Package config loads user settings for noil from a JSON, YAML or HCL file
// and the environment.
package config

import (
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/walteh/noil/pkg/ignore"
	"gitlab.com/tozd/go/errors"
)

// 🚶 Walk controls which entries a listing shows
type Walk struct {
	ShowHidden bool     `json:"show_hidden,omitempty" yaml:"show_hidden,omitempty" hcl:"show_hidden,optional"`
	GitIgnore  *bool    `json:"git_ignore,omitempty" yaml:"git_ignore,omitempty" hcl:"git_ignore,optional"` // defaults to true
	Exclude    []string `json:"exclude,omitempty" yaml:"exclude,omitempty" hcl:"exclude,optional"`
}

// 📚 Config represents the complete configuration
type Config struct {
	Editor      string `json:"editor,omitempty" yaml:"editor,omitempty" hcl:"editor,optional"`
	ChooserFile string `json:"chooser_file,omitempty" yaml:"chooser_file,omitempty" hcl:"chooser_file,optional"`
	NoColor     bool   `json:"no_color,omitempty" yaml:"no_color,omitempty" hcl:"no_color,optional"`
	Commit      bool   `json:"commit,omitempty" yaml:"commit,omitempty" hcl:"commit,optional"`
	Walk        *Walk  `json:"walk,omitempty" yaml:"walk,omitempty" hcl:"walk,block"`

	location string
}

// 🏭 Default returns the configuration used when no file is found
func Default() *Config {
	return &Config{}
}

// Location returns the file the config was loaded from, if any.
func (c *Config) Location() string {
	return c.location
}

// 🔍 Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Walk == nil {
		return nil
	}
	for _, p := range c.Walk.Exclude {
		if !doublestar.ValidatePattern(p) {
			return errors.Errorf("walk.exclude: invalid pattern %q", p)
		}
	}
	return nil
}

// 🙈 IgnoreOptions converts the walk settings for the listing
func (c *Config) IgnoreOptions() ignore.Options {
	if c.Walk == nil {
		return ignore.Options{}
	}
	return ignore.Options{
		ShowHidden:    c.Walk.ShowHidden,
		NoIgnoreFiles: c.Walk.GitIgnore != nil && !*c.Walk.GitIgnore,
		Exclude:       c.Walk.Exclude,
	}
}

// 🌍 ApplyEnv overrides settings from environment variables: EDITOR,
// NOIL_CHOOSER_FILE and NO_COLOR.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup("EDITOR"); ok && strings.TrimSpace(v) != "" {
		c.Editor = strings.TrimSpace(v)
	}
	if v, ok := lookup("NOIL_CHOOSER_FILE"); ok && v != "" {
		c.ChooserFile = v
	}
	if v, ok := lookup("NO_COLOR"); ok && v != "" {
		c.NoColor = true
	}
}
