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

package settings

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	want := &Settings{
		History: "/var/lib/syncfiles/history.db",
		Jobs:    4,
		Exclude: []string{"*.tmp", "**/.git"},
		Force:   true,
	}

	tests := []struct {
		name        string
		file        string
		content     string
		want        *Settings
		wantErr     bool
		errContains string
	}{
		{
			name: "yaml",
			file: "/etc/syncfiles.yaml",
			content: `
history: /var/lib/syncfiles/history.db
jobs: 4
exclude:
  - "*.tmp"
  - "**/.git"
force: true
`,
			want: want,
		},
		{
			name:    "json",
			file:    "/etc/syncfiles.json",
			content: `{"history": "/var/lib/syncfiles/history.db", "jobs": 4, "exclude": ["*.tmp", "**/.git"], "force": true}`,
			want:    want,
		},
		{
			name: "hcl",
			file: "/etc/syncfiles.hcl",
			content: `
history = "/var/lib/syncfiles/history.db"
jobs    = 4
exclude = ["*.tmp", "**/.git"]
force   = true
`,
			want: want,
		},
		{
			name:    "empty_yaml_uses_defaults",
			file:    "/etc/syncfiles.yml",
			content: "debug: true\n",
			want:    &Settings{Debug: true},
		},
		{
			name:        "yaml_unknown_field",
			file:        "/etc/syncfiles.yaml",
			content:     "jobz: 3\n",
			wantErr:     true,
			errContains: "parsing YAML",
		},
		{
			name:        "json_unknown_field",
			file:        "/etc/syncfiles.json",
			content:     `{"jobz": 3}`,
			wantErr:     true,
			errContains: "parsing JSON",
		},
		{
			name:        "hcl_unknown_field",
			file:        "/etc/syncfiles.hcl",
			content:     "jobz = 3\n",
			wantErr:     true,
			errContains: "decoding HCL",
		},
		{
			name:        "negative_jobs",
			file:        "/etc/syncfiles.yaml",
			content:     "jobs: -1\n",
			wantErr:     true,
			errContains: "jobs must not be negative",
		},
		{
			name:        "bad_pattern",
			file:        "/etc/syncfiles.yaml",
			content:     "exclude: ['[oops']\n",
			wantErr:     true,
			errContains: "invalid exclude pattern",
		},
		{
			name:        "unsupported_extension",
			file:        "/etc/syncfiles.ini",
			content:     "jobs=1\n",
			wantErr:     true,
			errContains: "unsupported settings extension",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := zerolog.New(zerolog.NewTestWriter(t))
			ctx := logger.WithContext(context.Background())

			fsys := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fsys, tt.file, []byte(tt.content), 0o644))

			got, err := Load(ctx, fsys, tt.file)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadHCLEnvironment(t *testing.T) {
	t.Setenv("SYNCFILES_STATE", "/srv/state")

	logger := zerolog.New(zerolog.NewTestWriter(t))
	ctx := logger.WithContext(context.Background())

	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/s.hcl", []byte(`history = "${env.SYNCFILES_STATE}/history.db"`), 0o644))

	got, err := Load(ctx, fsys, "/s.hcl")
	require.NoError(t, err)
	assert.Equal(t, "/srv/state/history.db", got.History)
}

func TestLoadMissing(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	ctx := logger.WithContext(context.Background())

	_, err := Load(ctx, afero.NewMemMapFs(), "/nope.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading settings file")
}
