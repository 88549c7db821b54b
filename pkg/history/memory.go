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

package history

import (
	"context"
	"sync"
)

// MemoryStore is a Store that lives only as long as the process
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]int64
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string]int64{}}
}

func (m *MemoryStore) Get(_ context.Context, source string) (int64, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mtime, ok := m.records[source]
	return mtime, ok, nil
}

func (m *MemoryStore) Set(_ context.Context, source string, mtime int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[source] = mtime
	return nil
}

func (m *MemoryStore) Len(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records), nil
}

func (m *MemoryStore) Close() error { return nil }
