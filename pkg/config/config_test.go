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

package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/walteh/noil/pkg/config"
	"github.com/walteh/noil/pkg/ignore"
)

func testContext(t *testing.T) context.Context {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	return logger.WithContext(context.Background())
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	full := func(t *testing.T, cfg *config.Config) {
		assert.Equal(t, "nvim", cfg.Editor)
		assert.Equal(t, "/tmp/chooser", cfg.ChooserFile)
		assert.True(t, cfg.NoColor)
		require.NotNil(t, cfg.Walk)
		assert.Equal(t, ignore.Options{
			ShowHidden:    true,
			NoIgnoreFiles: true,
			Exclude:       []string{"target/**"},
		}, cfg.IgnoreOptions())
	}

	tests := []struct {
		name        string
		file        string
		content     string
		errContains string
		check       func(t *testing.T, cfg *config.Config)
	}{
		{
			name: "yaml",
			file: "config.yaml",
			content: `
editor: nvim
chooser_file: /tmp/chooser
no_color: true
walk:
  show_hidden: true
  git_ignore: false
  exclude:
    - "target/**"
`,
			check: full,
		},
		{
			name: "json",
			file: "config.json",
			content: `{
  "editor": "nvim",
  "chooser_file": "/tmp/chooser",
  "no_color": true,
  "walk": {"show_hidden": true, "git_ignore": false, "exclude": ["target/**"]}
}`,
			check: full,
		},
		{
			name: "hcl",
			file: "config.hcl",
			content: `
editor       = "nvim"
chooser_file = "/tmp/chooser"
no_color     = true

walk {
  show_hidden = true
  git_ignore  = false
  exclude     = ["target/**"]
}
`,
			check: full,
		},
		{
			name:    "yml_minimal",
			file:    "config.yml",
			content: "commit: true\n",
			check: func(t *testing.T, cfg *config.Config) {
				assert.True(t, cfg.Commit)
				assert.Nil(t, cfg.Walk)
				assert.Equal(t, ignore.Options{}, cfg.IgnoreOptions(), "ignore files are read by default")
			},
		},
		{
			name:    "empty_yaml",
			file:    "config.yaml",
			content: "",
			check: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, "", cfg.Editor)
			},
		},
		{
			name:        "yaml_unknown_field",
			file:        "config.yaml",
			content:     "editr: vim\n",
			errContains: "parsing YAML",
		},
		{
			name:        "json_unknown_field",
			file:        "config.json",
			content:     `{"editr": "vim"}`,
			errContains: "parsing JSON",
		},
		{
			name:        "hcl_unknown_attribute",
			file:        "config.hcl",
			content:     `editr = "vim"`,
			errContains: "decoding HCL",
		},
		{
			name:        "bad_exclude",
			file:        "config.yaml",
			content:     "walk:\n  exclude: [\"[oops\"]\n",
			errContains: "walk.exclude",
		},
		{
			name:        "unsupported_extension",
			file:        "config.toml",
			content:     "editor = 'vim'",
			errContains: "unsupported file extension",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := write(t, t.TempDir(), tt.file, tt.content)

			cfg, err := config.Load(testContext(t), path)
			if tt.errContains != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, path, cfg.Location())
			tt.check(t, cfg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(testContext(t), filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"EDITOR":            "  hx ",
		"NOIL_CHOOSER_FILE": "/tmp/pick",
		"NO_COLOR":          "1",
	}
	lookup := func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}

	cfg := &config.Config{Editor: "vim", ChooserFile: "/etc/x"}
	cfg.ApplyEnv(lookup)

	assert.Equal(t, "hx", cfg.Editor)
	assert.Equal(t, "/tmp/pick", cfg.ChooserFile)
	assert.True(t, cfg.NoColor)

	untouched := &config.Config{Editor: "vim"}
	untouched.ApplyEnv(func(string) (string, bool) { return "", false })
	assert.Equal(t, "vim", untouched.Editor)
	assert.False(t, untouched.NoColor)
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	xdg := filepath.Join(dir, "xdg")
	home := filepath.Join(dir, "home")

	hclPath := write(t, xdg, filepath.Join("noil", "config.hcl"), "")
	yamlPath := write(t, xdg, filepath.Join("noil", "config.yaml"), "")
	homePath := write(t, home, filepath.Join(".config", "noil", "config.json"), "{}")

	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{name: "explicit", env: map[string]string{"NOIL_CONFIG": "/x/y.hcl", "XDG_CONFIG_HOME": xdg}, want: "/x/y.hcl"},
		{name: "xdg_prefers_yaml", env: map[string]string{"XDG_CONFIG_HOME": xdg}, want: yamlPath},
		{name: "home_fallback", env: map[string]string{"HOME": home}, want: homePath},
		{name: "nothing", env: map[string]string{"HOME": filepath.Join(dir, "empty")}, want: ""},
		{name: "no_home", env: map[string]string{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := config.Find(func(key string) string { return tt.env[key] })
			assert.Equal(t, tt.want, got)
		})
	}

	assert.FileExists(t, hclPath)
}

func TestResolve(t *testing.T) {
	path := write(t, t.TempDir(), "noil.yaml", "editor: nano\n")
	t.Setenv("EDITOR", "")
	t.Setenv("NO_COLOR", "")

	cfg, err := config.Resolve(testContext(t), path)
	require.NoError(t, err)
	assert.Equal(t, "nano", cfg.Editor)

	t.Setenv("EDITOR", "emacs")
	cfg, err = config.Resolve(testContext(t), path)
	require.NoError(t, err)
	assert.Equal(t, "emacs", cfg.Editor, "environment wins over the file")
}
