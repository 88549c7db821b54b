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
	"context"
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/walteh/syncfiles/pkg/engine"
	"github.com/walteh/syncfiles/pkg/log"
	"github.com/walteh/syncfiles/pkg/mapping"
	"github.com/walteh/syncfiles/pkg/settings"
)

// rootOpts holds the parsed command line
type rootOpts struct {
	src          string
	dst          string
	file         string
	groups       string
	force        bool
	jobs         int
	exclude      []string
	historyPath  string
	settingsPath string
	debug        bool
}

func newRootCmd(stderr io.Writer) *cobra.Command {
	o := &rootOpts{}

	cmd := &cobra.Command{
		Use:   "syncfiles",
		Short: "Sync files from src to dst by modified time",
		Long: `syncfiles copies files one way, skipping those whose destination is already
up to date. A file is copied when its destination is missing or older by more
than a second, unless its modified time has not changed since the last sync.

Usage:
  syncfiles --src <file,dir,...> --dst <file|dir>
  syncfiles --file <mapping file> [--group g1,g2]`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, stderr)
		},
	}

	f := cmd.Flags()
	f.StringVar(&o.src, "src", "", "files or directories, separated by ','")
	f.StringVar(&o.dst, "dst", "", "destination file or directory")
	f.StringVar(&o.file, "file", "", "mapping file; each entry is src:::dst or a $FROM-relative path")
	f.StringVar(&o.groups, "group", "", "mapping groups to include besides global, separated by ','")
	f.BoolVar(&o.force, "force", false, "copy every file regardless of modified times")
	f.IntVarP(&o.jobs, "jobs", "j", 1, "number of concurrent copies")
	f.StringSliceVar(&o.exclude, "exclude", nil, "glob patterns to leave out (repeatable)")
	f.StringVar(&o.historyPath, "history", "", "history store path (default: beside the executable)")
	f.StringVar(&o.settingsPath, "settings", "", "settings file (.yaml, .hcl or .json)")
	f.BoolVarP(&o.debug, "debug", "d", false, "enable debug logging")

	cmd.AddCommand(newVersionCmd())
	return cmd
}

func (o *rootOpts) run(cmd *cobra.Command, stderr io.Writer) error {
	fsys := afero.NewOsFs()

	ctx := log.NewContext(cmd.Context(), stderr, o.level(false))
	if o.settingsPath != "" {
		s, err := settings.Load(ctx, fsys, o.settingsPath)
		if err != nil {
			zerolog.Ctx(ctx).Error().Err(err).Msg("loading settings")
			return err
		}
		o.apply(cmd, s)
		ctx = log.NewContext(cmd.Context(), stderr, o.level(s.Debug))
	}

	return o.sync(ctx, fsys)
}

func (o *rootOpts) level(settingsDebug bool) zerolog.Level {
	if o.debug || settingsDebug {
		return zerolog.DebugLevel
	}
	return zerolog.InfoLevel
}

// apply fills in values the command line left unset
func (o *rootOpts) apply(cmd *cobra.Command, s *settings.Settings) {
	flags := cmd.Flags()
	if !flags.Changed("jobs") && s.Jobs > 0 {
		o.jobs = s.Jobs
	}
	if !flags.Changed("history") && s.History != "" {
		o.historyPath = s.History
	}
	if !flags.Changed("force") {
		o.force = s.Force
	}
	o.exclude = append(append([]string{}, s.Exclude...), o.exclude...)
}

func (o *rootOpts) sync(ctx context.Context, fsys afero.Fs) error {
	logger := zerolog.Ctx(ctx)

	e, err := engine.New(ctx, engine.Options{
		Source:      o.src,
		Destination: o.dst,
		ConfigFile:  o.file,
		Groups:      mapping.ParseGroups(o.groups),
		Force:       o.force,
		Jobs:        o.jobs,
		Excludes:    o.exclude,
		Fs:          fsys,
		HistoryPath: o.historyPath,
	})
	if err != nil {
		logger.Error().Msg(err.Error())
		return err
	}
	defer func() {
		if err := e.Close(); err != nil {
			logger.Debug().Err(err).Msg("closing history store")
		}
	}()

	// Sync logs its own failure ahead of the summary line
	_, err = e.Sync(ctx)
	return err
}
