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

// Package expand turns source and destination specifiers into concrete
// per-file pairs.
package expand

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/syncfiles/pkg/pair"
	"gitlab.com/tozd/go/errors"
)

// 🔧 Option configures an expansion
type Option func(*options)

type options struct {
	excludes []string
}

// WithExcludes drops entries whose basename or absolute path matches one of
// the doublestar patterns
func WithExcludes(patterns ...string) Option {
	return func(o *options) {
		o.excludes = append(o.excludes, patterns...)
	}
}

// 🎯 Expand resolves a comma-separated source list against destination.
//
// A file maps to destination when destination is an existing regular file,
// otherwise to destination/<basename>. A directory contributes its direct
// children by the same rule; nested directories are not descended into and
// appear as ordinary entries. Entries that do not exist, and directories that
// cannot be listed, are warned about and skipped. Later duplicates overwrite
// earlier ones.
func Expand(ctx context.Context, fsys afero.Fs, sources, destination string, opts ...Option) (*pair.Set, error) {
	logger := zerolog.Ctx(ctx)

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	dst, err := filepath.Abs(strings.TrimSpace(destination))
	if err != nil {
		return nil, errors.Errorf("resolving destination %q: %w", destination, err)
	}
	dstIsFile := isRegular(fsys, dst)

	target := func(name string) string {
		if dstIsFile {
			return dst
		}
		return filepath.Join(dst, name)
	}

	out := pair.NewSet()
	for _, entry := range strings.Split(sources, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		src, err := filepath.Abs(entry)
		if err != nil {
			return nil, errors.Errorf("resolving source %q: %w", entry, err)
		}

		info, err := fsys.Stat(src)
		switch {
		case err != nil:
			logger.Warn().Msgf("not exist: %s", src)
			continue
		case info.Mode().IsRegular():
			if o.excluded(ctx, src) {
				continue
			}
			out.Put(src, target(filepath.Base(src)))
		case info.IsDir():
			children, err := afero.ReadDir(fsys, src)
			if err != nil {
				logger.Warn().Err(err).Msgf("cannot read: %s", src)
				continue
			}
			for _, child := range children {
				childPath := filepath.Join(src, child.Name())
				if o.excluded(ctx, childPath) {
					continue
				}
				out.Put(childPath, target(child.Name()))
			}
		default:
			logger.Warn().Str("mode", info.Mode().String()).Msgf("not exist: %s", src)
		}
	}

	logger.Debug().Int("pairs", out.Len()).Str("destination", dst).Msg("expanded sources")
	return out, nil
}

func (o *options) excluded(ctx context.Context, path string) bool {
	for _, pattern := range o.excludes {
		if matched, _ := doublestar.Match(pattern, filepath.Base(path)); matched {
			zerolog.Ctx(ctx).Debug().Str("file", path).Str("pattern", pattern).Msg("excluded by pattern")
			return true
		}
		if matched, _ := doublestar.Match(pattern, filepath.ToSlash(path)); matched {
			zerolog.Ctx(ctx).Debug().Str("file", path).Str("pattern", pattern).Msg("excluded by pattern")
			return true
		}
	}
	return false
}

func isRegular(fsys afero.Fs, path string) bool {
	info, err := fsys.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}
