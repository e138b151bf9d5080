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

package config

import (
	"context"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"gitlab.com/tozd/go/errors"
)

// 📄 Names are the file names looked up in the noil config directory, in order
var Names = []string{"config.yaml", "config.yml", "config.hcl", "config.json"}

// 🎯 Load loads the configuration from a file. The format is picked by
// extension: .json, .yaml / .yml or .hcl.
func Load(ctx context.Context, path string) (*Config, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading configuration")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Errorf("reading config file: %w", err)
	}

	p := GetParser(path)
	if p == nil {
		return nil, errors.Errorf("unsupported file extension %q", filepath.Ext(path))
	}

	cfg, err := p.Parse(ctx, data, path)
	if err != nil {
		return nil, errors.Errorf("parsing config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, errors.Errorf("validating config: %w", err)
	}

	cfg.location = path
	return cfg, nil
}

// 🔍 Find returns the config file to use, or "" when there is none.
// $NOIL_CONFIG wins; otherwise the noil directory under $XDG_CONFIG_HOME
// (default ~/.config) is searched.
func Find(getenv func(string) string) string {
	if p := getenv("NOIL_CONFIG"); p != "" {
		return p
	}

	dir := getenv("XDG_CONFIG_HOME")
	if dir == "" {
		home := getenv("HOME")
		if home == "" {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}

	for _, name := range Names {
		candidate := filepath.Join(dir, "noil", name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

// 🧭 Resolve loads the file at path, or the one Find locates when path is
// empty, and then applies the environment. Without any file the defaults are
// used.
func Resolve(ctx context.Context, path string) (*Config, error) {
	if path == "" {
		path = Find(os.Getenv)
	}

	cfg := Default()
	if path != "" {
		loaded, err := Load(ctx, path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		zerolog.Ctx(ctx).Debug().Msg("no config file found, using defaults")
	}

	cfg.ApplyEnv(os.LookupEnv)
	return cfg, nil
}
