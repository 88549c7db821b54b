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
	"strings"

	"github.com/walteh/syncfiles/pkg/pair"
	"gitlab.com/tozd/go/errors"
)

// shorthandSeparator joins $TO and the remainder of a shorthand line
const shorthandSeparator = `\`

// 🎯 Pairs expands the mapping lines of every allowed group.
//
// The global group is always included; other groups only when named in
// allow. An empty allow-list selects global alone. Duplicate sources across
// lines and groups keep the last destination.
func (d *Document) Pairs(allow []string) (*pair.Set, error) {
	allowed := map[string]bool{GlobalGroup: true}
	for _, name := range allow {
		if name = strings.TrimSpace(name); name != "" {
			allowed[name] = true
		}
	}

	out := pair.NewSet()
	for _, g := range d.groups {
		if !allowed[g.Name] {
			continue
		}
		for _, line := range g.Lines {
			src, dst, ok, err := d.expandLine(line.Text)
			if err != nil {
				return nil, errors.Errorf("line %d (group %s): %w", line.Number, g.Name, err)
			}
			if ok {
				out.Put(src, dst)
			}
		}
	}
	return out, nil
}

// expandLine turns one stored line into a pair; ok is false for lines that
// carry no mapping
func (d *Document) expandLine(text string) (src, dst string, ok bool, err error) {
	if strings.Contains(text, assignment) || strings.HasPrefix(text, commentPrefix) {
		return "", "", false, nil
	}

	if strings.Contains(text, pairSeparator) {
		src, dst, err = d.explicitPair(text)
		return src, dst, err == nil, err
	}

	src, dst, err = d.shorthandPair(text)
	return src, dst, err == nil, err
}

func (d *Document) explicitPair(text string) (string, string, error) {
	expanded, err := d.Substitute(text)
	if err != nil {
		return "", "", err
	}

	fields := strings.Split(expanded, pairSeparator)
	if len(fields) != 2 {
		return "", "", errors.Errorf("%w: want exactly one %q in %q", ErrMalformedLine, pairSeparator, expanded)
	}

	src, dst := strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1])
	if src == "" || dst == "" {
		return "", "", errors.Errorf("%w: empty source or destination in %q", ErrMalformedLine, expanded)
	}
	return src, dst, nil
}

func (d *Document) shorthandPair(text string) (string, string, error) {
	from, err := d.Lookup(VarFrom)
	if err != nil {
		return "", "", err
	}
	to, err := d.Lookup(VarTo)
	if err != nil {
		return "", "", err
	}

	if len(text) < len(from) || !strings.EqualFold(text[:len(from)], from) {
		return "", "", errors.Errorf("%w: %q does not start with %q", ErrMissingFromPrefix, text, from)
	}

	rest := strings.TrimLeft(text[len(from):], `/\`)
	return text, to + shorthandSeparator + rest, nil
}
