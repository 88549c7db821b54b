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

// Package log renders syncfiles' console output.
//
// Every line is "[LEVEL] message key=value..." so both humans and scripts can
// read a run. Loggers travel on the context.Context the way zerolog intends;
// callers retrieve them with zerolog.Ctx.
package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// 🎨 level labels and the color each one is printed with
var levelLabels = map[string]struct {
	label string
	attr  color.Attribute
}{
	zerolog.LevelTraceValue: {"TRACE", color.FgHiBlack},
	zerolog.LevelDebugValue: {"DEBUG", color.FgHiBlack},
	zerolog.LevelInfoValue:  {"INFO", color.FgCyan},
	zerolog.LevelWarnValue:  {"WARNING", color.FgYellow},
	zerolog.LevelErrorValue: {"ERROR", color.FgRed},
	zerolog.LevelFatalValue: {"FATAL", color.FgRed},
	zerolog.LevelPanicValue: {"PANIC", color.FgRed},
}

// 🖨️ ConsoleWriter returns a zerolog console writer producing "[LEVEL] message" lines.
//
// Labels are colored only when w is a terminal and NO_COLOR is unset.
func ConsoleWriter(w io.Writer) zerolog.ConsoleWriter {
	colored := isTerminal(w)
	return zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    true,
		PartsOrder: []string{zerolog.LevelFieldName, zerolog.MessageFieldName},
		FormatLevel: func(i interface{}) string {
			return formatLevel(i, colored)
		},
	}
}

func isTerminal(w io.Writer) bool {
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	f, ok := w.(interface{ Fd() uintptr })
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func formatLevel(i interface{}, colored bool) string {
	lvl, _ := i.(string)
	l, ok := levelLabels[lvl]
	if !ok {
		return "[" + strings.ToUpper(fmt.Sprint(i)) + "]"
	}
	c := color.New(l.attr)
	if colored {
		c.EnableColor()
	} else {
		c.DisableColor()
	}
	return c.Sprint("[" + l.label + "]")
}

// 🏭 New creates a console logger writing to w at the given level
func New(w io.Writer, level zerolog.Level) zerolog.Logger {
	return zerolog.New(ConsoleWriter(w)).Level(level)
}

// 🎯 NewContext attaches a console logger to ctx
func NewContext(ctx context.Context, w io.Writer, level zerolog.Level) context.Context {
	logger := New(w, level)
	return logger.WithContext(ctx)
}

// 🎯 Outcome is what happened to one source file during a run
type Outcome int

const (
	OutcomeSynced Outcome = iota
	OutcomeSkipped
	OutcomeMissing
	OutcomeFailed
)

// 📝 FileOperation describes a file outcome for logging
type FileOperation struct {
	Source      string  // absolute source path
	Destination string  // destination path
	Outcome     Outcome // what happened
	Reason      string  // why it was skipped or failed
	Size        string  // humanized size, set for copies
	Err         error   // copy or stat error
}

// 📝 LogFileOperation writes exactly one line describing op
func LogFileOperation(ctx context.Context, op FileOperation) {
	logger := zerolog.Ctx(ctx)

	switch op.Outcome {
	case OutcomeSynced:
		ev := logger.Info().Str("dst", op.Destination)
		if op.Size != "" {
			ev = ev.Str("size", op.Size)
		}
		ev.Msgf("synced %s", op.Source)
	case OutcomeSkipped:
		logger.Info().Msgf("skipped %s: %s", op.Source, op.Reason)
	case OutcomeMissing:
		logger.Warn().Err(op.Err).Msgf("not exist: %s", op.Source)
	case OutcomeFailed:
		logger.Error().Err(op.Err).Str("dst", op.Destination).Msgf("failed %s: %s", op.Source, op.Reason)
	}
}
