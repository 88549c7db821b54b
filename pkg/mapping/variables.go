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
	"regexp"

	"gitlab.com/tozd/go/errors"
)

// Reserved variable names used by shorthand lines
const (
	VarFrom = "FROM"
	VarTo   = "TO"
)

// MaxSubstitutionDepth bounds repeated $NAME expansion
const MaxSubstitutionDepth = 32

var varToken = regexp.MustCompile(`\$([A-Za-z_]+)`)

// 🔑 Variables maps variable names to their values
type Variables map[string]string

// Lookup returns the value of name
func (v Variables) Lookup(name string) (string, error) {
	value, ok := v[name]
	if !ok {
		return "", errors.Errorf("%w: %s", ErrUndefinedVariable, name)
	}
	return value, nil
}

// 🔄 Substitute replaces $NAME tokens until none remain.
//
// Values may reference other variables. A chain that is still producing
// tokens after MaxSubstitutionDepth passes is reported as a cycle.
func (v Variables) Substitute(text string) (string, error) {
	for pass := 0; varToken.MatchString(text); pass++ {
		if pass >= MaxSubstitutionDepth {
			return "", errors.Errorf("%w: %q", ErrSubstitutionCycle, text)
		}

		var lookupErr error
		text = varToken.ReplaceAllStringFunc(text, func(tok string) string {
			value, err := v.Lookup(tok[1:])
			if err != nil && lookupErr == nil {
				lookupErr = err
			}
			return value
		})
		if lookupErr != nil {
			return "", lookupErr
		}
	}
	return text, nil
}

// Lookup returns the value of a variable defined anywhere in the document
func (d *Document) Lookup(name string) (string, error) {
	return d.vars.Lookup(name)
}

// Substitute expands $NAME tokens using the document's variables
func (d *Document) Substitute(text string) (string, error) {
	return d.vars.Substitute(text)
}
