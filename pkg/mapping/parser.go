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

package mapping

import (
	"bufio"
	"context"
	"io"
	"os"
	"regexp"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"gitlab.com/tozd/go/errors"
)

// GlobalGroup is the implicit group that is always selected
const GlobalGroup = "global"

const (
	commentPrefix = "//"
	pairSeparator = ":::"
	assignment    = "="
)

var (
	ErrConfigNotFound    = errors.Base("mapping file does not exist")
	ErrMalformedLine     = errors.Base("malformed mapping line")
	ErrUndefinedVariable = errors.Base("undefined variable")
	ErrMissingFromPrefix = errors.Base("shorthand line does not start with $FROM")
	ErrSubstitutionCycle = errors.Base("variable substitution does not terminate")
)

var groupHeader = regexp.MustCompile(`(?i)^group:(.*)$`)

// 📝 Line is a stored mapping line with its 1-based position in the file
type Line struct {
	Number int
	Text   string
}

// 📦 Group is a named run of mapping lines
type Group struct {
	Name  string
	Lines []Line
}

// 📚 Document is a parsed mapping file
type Document struct {
	groups []*Group
	index  map[string]*Group
	vars   Variables
}

// 🎯 Load reads and parses the mapping file at path
func Load(ctx context.Context, fsys afero.Fs, path string) (*Document, error) {
	logger := zerolog.Ctx(ctx)
	logger.Debug().Str("path", path).Msg("loading mapping file")

	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Errorf("%w: %s", ErrConfigNotFound, path)
		}
		return nil, errors.Errorf("opening mapping file: %w", err)
	}
	defer f.Close()

	doc, err := Parse(f)
	if err != nil {
		return nil, errors.Errorf("parsing %s: %w", path, err)
	}

	logger.Debug().
		Strs("groups", doc.GroupNames()).
		Int("variables", len(doc.vars)).
		Msg("mapping file loaded")

	return doc, nil
}

// 📝 Parse reads a mapping document.
//
// Groups and the variable table are both built here.
func Parse(r io.Reader) (*Document, error) {
	doc := &Document{
		index: map[string]*Group{},
		vars:  Variables{},
	}
	current := doc.group(GlobalGroup)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	n := 0
	for scanner.Scan() {
		n++
		text := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))
		if text == "" || strings.HasPrefix(text, commentPrefix) {
			continue
		}

		if m := groupHeader.FindStringSubmatch(text); m != nil {
			name := strings.TrimSpace(m[1])
			if name == "" {
				return nil, errors.Errorf("line %d: %w: empty group name", n, ErrMalformedLine)
			}
			current = doc.group(name)
			continue
		}

		if name, value, ok := parseAssignment(text); ok {
			doc.vars[name] = value
		}

		current.Lines = append(current.Lines, Line{Number: n, Text: text})
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Errorf("reading mapping file: %w", err)
	}

	return doc, nil
}

func (d *Document) group(name string) *Group {
	if g, ok := d.index[name]; ok {
		return g
	}
	g := &Group{Name: name}
	d.groups = append(d.groups, g)
	d.index[name] = g
	return g
}

// parseAssignment splits NAME=VALUE; lines with any other number of "=" are
// not assignments
func parseAssignment(text string) (string, string, bool) {
	if strings.Count(text, assignment) != 1 {
		return "", "", false
	}
	name, value, _ := strings.Cut(text, assignment)
	name = strings.TrimSpace(name)
	if name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(value), true
}

// GroupNames returns group names in order of first appearance
func (d *Document) GroupNames() []string {
	names := make([]string, 0, len(d.groups))
	for _, g := range d.groups {
		names = append(names, g.Name)
	}
	return names
}

// Group returns the named group
func (d *Document) Group(name string) (*Group, bool) {
	g, ok := d.index[name]
	return g, ok
}

// Variables returns a copy of the variable table
func (d *Document) Variables() Variables {
	out := make(Variables, len(d.vars))
	for k, v := range d.vars {
		out[k] = v
	}
	return out
}

// ParseGroups splits a comma-separated group allow-list
func ParseGroups(csv string) []string {
	var out []string
	for _, g := range strings.Split(csv, ",") {
		if g = strings.TrimSpace(g); g != "" {
			out = append(out, g)
		}
	}
	return out
}
