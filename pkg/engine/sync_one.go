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
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/walteh/syncfiles/pkg/log"
	"github.com/walteh/syncfiles/pkg/pair"
	"gitlab.com/tozd/go/errors"
)

// MtimeTolerance is the largest source-over-destination mtime lead that is
// still treated as the same file
const MtimeTolerance = time.Second

const (
	reasonUnchanged = "mtime not changed since last sync"
	reasonUpToDate  = "destination mtime is the same"
)

var ErrSameFile = errors.Base("source and destination are the same file")

// 🔍 DestinationStale reports whether a destination last modified at dst
// should be replaced by a source modified at src.
//
// The lead is compared in whole seconds, so anything at or below
// MtimeTolerance (including a destination newer than the source) is the same.
func DestinationStale(src, dst time.Time) bool {
	return src.Sub(dst).Truncate(time.Second) > MtimeTolerance
}

// syncOne decides and performs the copy for one pair, logging one line
func (e *Engine) syncOne(ctx context.Context, p pair.Pair) {
	info, err := e.fs.Stat(p.Source)
	if err != nil {
		e.counts.failed.Add(1)
		log.LogFileOperation(ctx, log.FileOperation{Source: p.Source, Outcome: log.OutcomeMissing, Err: err})
		return
	}
	mtime := info.ModTime().UnixNano()

	if !e.opts.Force {
		needed, reason, err := e.needsCopy(ctx, p, info)
		if err != nil {
			e.fail(ctx, p, "reading history", err)
			return
		}
		if !needed {
			e.counts.skipped.Add(1)
			log.LogFileOperation(ctx, log.FileOperation{Source: p.Source, Destination: p.Destination, Outcome: log.OutcomeSkipped, Reason: reason})
			return
		}
	}

	if err := copyFile(ctx, e.fs, p.Source, p.Destination, info); err != nil {
		e.fail(ctx, p, "copy", err)
		return
	}
	if err := e.history.Set(ctx, p.Source, mtime); err != nil {
		e.fail(ctx, p, "recording history", err)
		return
	}

	e.counts.synced.Add(1)
	log.LogFileOperation(ctx, log.FileOperation{
		Source:      p.Source,
		Destination: p.Destination,
		Outcome:     log.OutcomeSynced,
		Size:        humanize.Bytes(uint64(info.Size())),
	})
}

func (e *Engine) fail(ctx context.Context, p pair.Pair, reason string, err error) {
	e.counts.failed.Add(1)
	log.LogFileOperation(ctx, log.FileOperation{
		Source:      p.Source,
		Destination: p.Destination,
		Outcome:     log.OutcomeFailed,
		Reason:      reason,
		Err:         err,
	})
}

// needsCopy compares the source against its history record and the
// destination
func (e *Engine) needsCopy(ctx context.Context, p pair.Pair, src os.FileInfo) (bool, string, error) {
	logger := zerolog.Ctx(ctx)

	last, ok, err := e.history.Get(ctx, p.Source)
	if err != nil {
		return false, "", err
	}
	if ok && last == src.ModTime().UnixNano() {
		logger.Debug().Str("file", p.Source).Msg("mtime not change, skipped")
		return false, reasonUnchanged, nil
	}

	dst, err := e.fs.Stat(p.Destination)
	if err != nil {
		// missing or unreadable; the copy reports anything worse than missing
		return true, "", nil
	}
	if !DestinationStale(src.ModTime(), dst.ModTime()) {
		logger.Debug().Str("file", p.Source).Time("src_mtime", src.ModTime()).Time("dst_mtime", dst.ModTime()).Msg("dst,src mtime same, skipped")
		return false, reasonUpToDate, nil
	}
	return true, "", nil
}

// sameFile reports whether dst already names src, by path or (on the OS
// filesystem) through a link
func sameFile(fsys afero.Fs, src, dst string, info os.FileInfo) bool {
	if filepath.Clean(src) == filepath.Clean(dst) {
		return true
	}
	existing, err := fsys.Stat(dst)
	if err != nil {
		return false
	}
	return os.SameFile(info, existing)
}

// 📋 copyFile copies content, permission bits and mtime from src to dst.
//
// The destination's directory must already exist and dst must not be src
// itself. Mode and times are applied
// best-effort after the content is in place.
func copyFile(ctx context.Context, fsys afero.Fs, src, dst string, info os.FileInfo) error {
	logger := zerolog.Ctx(ctx)

	if info.IsDir() {
		return errors.Errorf("%s is a directory", src)
	}
	if parent, err := fsys.Stat(filepath.Dir(dst)); err != nil || !parent.IsDir() {
		return errors.Errorf("destination directory %s does not exist", filepath.Dir(dst))
	}
	if sameFile(fsys, src, dst, info) {
		return errors.Errorf("%w: %s", ErrSameFile, dst)
	}

	in, err := fsys.Open(src)
	if err != nil {
		return errors.Errorf("opening source: %w", err)
	}
	defer in.Close()

	out, err := fsys.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return errors.Errorf("creating destination: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return errors.Errorf("copying content: %w", err)
	}
	if err := out.Close(); err != nil {
		return errors.Errorf("closing destination: %w", err)
	}

	if err := fsys.Chmod(dst, info.Mode().Perm()); err != nil {
		logger.Debug().Err(err).Str("file", dst).Msg("preserving mode")
	}
	// afero exposes no access time; the source mtime stands in for both
	if err := fsys.Chtimes(dst, info.ModTime(), info.ModTime()); err != nil {
		logger.Debug().Err(err).Str("file", dst).Msg("preserving times")
	}
	return nil
}
