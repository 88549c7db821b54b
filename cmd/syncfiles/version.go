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
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
	"github.com/walteh/syncfiles/pkg/history"
)

// buildInfo is what the version command reports
type buildInfo struct {
	Version  string
	Revision string
	Go       string
	Platform string
	History  string
}

func readBuildInfo(historyPath string) buildInfo {
	b := buildInfo{
		Version:  "dev",
		Revision: "unknown",
		Go:       runtime.Version(),
		Platform: runtime.GOOS + "/" + runtime.GOARCH,
		History:  historyPath,
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return b
	}
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		b.Version = v
	}
	dirty := false
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			b.Revision = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if dirty {
		b.Revision += "-dirty"
	}
	return b
}

func (b buildInfo) write(w io.Writer) error {
	var sb strings.Builder
	sb.WriteString("syncfiles version info:\n")
	for _, row := range [][2]string{
		{"Version", b.Version},
		{"Revision", b.Revision},
		{"Go", b.Go},
		{"Platform", b.Platform},
		{"History", b.History},
	} {
		fmt.Fprintf(&sb, "  %-9s %s\n", row[0]+":", row[1])
	}
	_, err := io.WriteString(w, sb.String())
	return err
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information and the default history location",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := history.DefaultPath()
			if err != nil {
				path = "unavailable: " + err.Error()
			}
			return readBuildInfo(path).write(cmd.OutOrStdout())
		},
	}
}
