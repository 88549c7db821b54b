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

// Package settings loads the optional syncfiles settings file.
//
// The format follows the file extension:
// - .json for JSON
// - .yaml or .yml for YAML
// - .hcl for HCL, with environment variables available as env.NAME
package settings

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/zclconf/go-cty/cty"
	"gitlab.com/tozd/go/errors"
	"gopkg.in/yaml.v3"
)

// ⚙️ Settings are defaults for a run; command-line flags take precedence
type Settings struct {
	// History is the history store path
	History string `json:"history,omitempty" yaml:"history,omitempty" hcl:"history,optional"`
	// Jobs bounds concurrent copies
	Jobs int `json:"jobs,omitempty" yaml:"jobs,omitempty" hcl:"jobs,optional"`
	// Exclude lists doublestar patterns to leave out of expansion
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty" hcl:"exclude,optional"`
	// Force copies regardless of history
	Force bool `json:"force,omitempty" yaml:"force,omitempty" hcl:"force,optional"`
	// Debug enables debug logging
	Debug bool `json:"debug,omitempty" yaml:"debug,omitempty" hcl:"debug,optional"`
}

// 🎯 Load reads the settings file at path
func Load(ctx context.Context, fsys afero.Fs, path string) (*Settings, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading settings")

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		return nil, errors.Errorf("reading settings file: %w", err)
	}

	var s *Settings
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		s, err = loadJSON(data)
	case ".yaml", ".yml":
		s, err = loadYAML(data)
	case ".hcl":
		s, err = loadHCL(data, path)
	default:
		return nil, errors.Errorf("unsupported settings extension %q", ext)
	}
	if err != nil {
		return nil, err
	}

	if err := s.Validate(); err != nil {
		return nil, errors.Errorf("validating settings: %w", err)
	}
	return s, nil
}

// 🔍 Validate checks value ranges and patterns
func (s *Settings) Validate() error {
	if s.Jobs < 0 {
		return errors.Errorf("jobs must not be negative, got %d", s.Jobs)
	}
	for _, p := range s.Exclude {
		if !doublestar.ValidatePattern(p) {
			return errors.Errorf("invalid exclude pattern %q", p)
		}
	}
	if s.History != "" {
		s.History = filepath.Clean(s.History)
	}
	return nil
}

func loadJSON(data []byte) (*Settings, error) {
	var s Settings
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&s); err != nil {
		return nil, errors.Errorf("parsing JSON: %w", err)
	}
	return &s, nil
}

func loadYAML(data []byte) (*Settings, error) {
	var s Settings
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&s); err != nil {
		return nil, errors.Errorf("parsing YAML: %w", err)
	}
	return &s, nil
}

func loadHCL(data []byte, filename string) (*Settings, error) {
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCL(data, filename)
	if diags.HasErrors() {
		return nil, errors.Errorf("parsing HCL: %s", diags.Error())
	}

	ctx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"env": environment(),
		},
	}

	var s Settings
	diags = gohcl.DecodeBody(hclFile.Body, ctx, &s)
	if diags.HasErrors() {
		return nil, errors.Errorf("decoding HCL: %s", diags.Error())
	}
	return &s, nil
}

func environment() cty.Value {
	vars := map[string]cty.Value{}
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !hclIdentifier(name) {
			continue
		}
		vars[name] = cty.StringVal(value)
	}
	if len(vars) == 0 {
		return cty.EmptyObjectVal
	}
	return cty.ObjectVal(vars)
}

// hclIdentifier reports whether name can be used as env.NAME
func hclIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '-'):
		default:
			return false
		}
	}
	return true
}
