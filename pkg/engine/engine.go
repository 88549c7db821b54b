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

package engine

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/syncfiles/pkg/expand"
	"github.com/walteh/syncfiles/pkg/history"
	"github.com/walteh/syncfiles/pkg/mapping"
	"github.com/walteh/syncfiles/pkg/pair"
	"gitlab.com/tozd/go/errors"
	"golang.org/x/sync/errgroup"
)

var (
	ErrExclusiveOptions = errors.Base("--src, --dst can't be used with --file")
	ErrNoInput          = errors.Base("either --src and --dst or --file is required")
	ErrInvalidPattern   = errors.Base("invalid exclude pattern")
)

// 🔧 Options configures a sync run
type Options struct {
	// Source is a comma-separated list of files and directories (direct mode)
	Source string
	// Destination is a file or directory (direct mode)
	Destination string
	// ConfigFile is a mapping file (config mode)
	ConfigFile string
	// Groups selects mapping groups in addition to global
	Groups []string
	// Force copies every pair regardless of history and mtimes
	Force bool
	// Jobs bounds concurrent copies; values below 1 mean 1
	Jobs int
	// Excludes are doublestar patterns dropped during expansion
	Excludes []string

	// Fs is the filesystem to sync on; defaults to the OS filesystem
	Fs afero.Fs
	// History is the store to use; when nil one is opened at HistoryPath
	History history.Store
	// HistoryPath overrides the default history location
	HistoryPath string
}

// 📊 Stats are the counters of one run
type Stats struct {
	Synced  int
	Skipped int
	Failed  int
}

type counters struct {
	synced  atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Synced:  int(c.synced.Load()),
		Skipped: int(c.skipped.Load()),
		Failed:  int(c.failed.Load()),
	}
}

// 🎮 Engine runs synchronizations
type Engine struct {
	opts        Options
	fs          afero.Fs
	history     history.Store
	ownsHistory bool
	counts      counters
}

// 🏭 New validates opts and opens the history store
func New(ctx context.Context, opts Options) (*Engine, error) {
	if (opts.Source != "" || opts.Destination != "") && opts.ConfigFile != "" {
		return nil, ErrExclusiveOptions
	}
	if opts.ConfigFile == "" && (opts.Source == "" || opts.Destination == "") {
		return nil, ErrNoInput
	}
	for _, p := range opts.Excludes {
		if !doublestar.ValidatePattern(p) {
			return nil, errors.Errorf("%w: %q", ErrInvalidPattern, p)
		}
	}
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}

	e := &Engine{opts: opts, fs: opts.Fs, history: opts.History}
	if e.fs == nil {
		e.fs = afero.NewOsFs()
	}

	if e.history == nil {
		path := opts.HistoryPath
		if path == "" {
			p, err := history.DefaultPath()
			if err != nil {
				return nil, errors.Errorf("locating history store: %w", err)
			}
			path = p
		}
		store, err := history.Open(ctx, path)
		if err != nil {
			return nil, errors.Errorf("opening history store: %w", err)
		}
		e.history = store
		e.ownsHistory = true
	}

	return e, nil
}

// Close releases a history store opened by New
func (e *Engine) Close() error {
	if !e.ownsHistory {
		return nil
	}
	return e.history.Close()
}

// 🏃 Sync runs the configured synchronization.
//
// The summary line is logged once when Sync returns and is always the last
// line of the run; a fatal error is logged just before it.
func (e *Engine) Sync(ctx context.Context) (stats Stats, err error) {
	logger := zerolog.Ctx(ctx)

	defer func() {
		if err != nil {
			logger.Error().Msg(err.Error())
		}
		stats = e.counts.snapshot()
		logger.Info().Msgf("synced %d file(s), skipped %d, failed %d", stats.Synced, stats.Skipped, stats.Failed)
	}()

	pairs, err := e.resolve(ctx)
	if err != nil {
		return stats, err
	}

	return stats, e.run(ctx, pairs)
}

// resolve builds the concrete per-file pairs for this run
func (e *Engine) resolve(ctx context.Context) (*pair.Set, error) {
	opts := []expand.Option{expand.WithExcludes(e.opts.Excludes...)}

	if e.opts.ConfigFile == "" {
		return expand.Expand(ctx, e.fs, e.opts.Source, e.opts.Destination, opts...)
	}

	doc, err := mapping.Load(ctx, e.fs, e.opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	mapped, err := doc.Pairs(e.opts.Groups)
	if err != nil {
		return nil, errors.Errorf("expanding %s: %w", e.opts.ConfigFile, err)
	}

	out := pair.NewSet()
	for _, m := range mapped.Pairs() {
		resolved, err := expand.Expand(ctx, e.fs, m.Source, m.Destination, opts...)
		if err != nil {
			return nil, err
		}
		out.Merge(resolved)
	}
	return out, nil
}

// run synchronizes every pair with at most Jobs copies in flight.
//
// Pairs sharing a destination run one after another in set order, so the
// last of them decides the destination's content.
func (e *Engine) run(ctx context.Context, pairs *pair.Set) error {
	g := new(errgroup.Group)
	g.SetLimit(e.opts.Jobs)

	for _, batch := range byDestination(pairs) {
		if ctx.Err() != nil {
			break
		}
		batch := batch
		g.Go(func() error {
			for _, p := range batch {
				if ctx.Err() != nil {
					return nil
				}
				e.syncOne(ctx, p)
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return errors.Errorf("sync interrupted: %w", err)
	}
	return nil
}

// byDestination groups pairs by cleaned destination, ordered by first
// appearance
func byDestination(pairs *pair.Set) [][]pair.Pair {
	index := make(map[string]int)
	var batches [][]pair.Pair
	for _, p := range pairs.Pairs() {
		key := filepath.Clean(p.Destination)
		i, ok := index[key]
		if !ok {
			i = len(batches)
			index[key] = i
			batches = append(batches, nil)
		}
		batches[i] = append(batches[i], p)
	}
	return batches
}
