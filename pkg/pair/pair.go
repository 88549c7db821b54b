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

// Package pair holds the (source, destination) pairs the engine evaluates.
package pair

// 📦 Pair is a resolved source file and the destination it is copied to
type Pair struct {
	Source      string
	Destination string
}

// 📚 Set is an ordered mapping from source path to destination path.
//
// Putting a source that is already present replaces its destination but keeps
// its original position, so the last write wins and iteration stays in
// first-insertion order.
type Set struct {
	order []string
	dest  map[string]string
}

// 🏭 NewSet creates an empty set
func NewSet() *Set {
	return &Set{dest: map[string]string{}}
}

// Put records source -> destination, overwriting an earlier destination
func (s *Set) Put(source, destination string) {
	if _, ok := s.dest[source]; !ok {
		s.order = append(s.order, source)
	}
	s.dest[source] = destination
}

// Get returns the destination recorded for source
func (s *Set) Get(source string) (string, bool) {
	d, ok := s.dest[source]
	return d, ok
}

// Len returns the number of distinct sources
func (s *Set) Len() int {
	return len(s.order)
}

// Merge puts every pair of other into s, in other's order
func (s *Set) Merge(other *Set) {
	for _, p := range other.Pairs() {
		s.Put(p.Source, p.Destination)
	}
}

// Pairs returns the pairs in first-insertion order
func (s *Set) Pairs() []Pair {
	out := make([]Pair, 0, len(s.order))
	for _, src := range s.order {
		out = append(out, Pair{Source: src, Destination: s.dest[src]})
	}
	return out
}
