// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cor (Chain of Responsibility) provides the fundamental building
// blocks for composing pipelines. This file defines BaseContext, the default
// Context implementation that carries state through a single pipeline run.
package cor

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

// BaseContext is the default implementation of the Context interface. It acts
// as the state carrier for one pipeline run: a property bag for inter-command
// data, an error collector, and the registry of temporary artifacts the run
// creates on disk. It is safe for concurrent use.
type BaseContext struct {
	mu        sync.RWMutex
	ctx       context.Context        // The standard Go context for cancellation and tracing.
	data      map[string]interface{} // Key-value store for inter-command data.
	errors    map[string]error       // Errors recorded by commands, keyed by command name.
	tempFiles []string               // Files and directories to delete when the run ends.
}

// NewBaseContext creates a new, initialized BaseContext.
func NewBaseContext() *BaseContext {
	return &BaseContext{
		data:      make(map[string]interface{}),
		errors:    make(map[string]error),
		tempFiles: make([]string, 0),
	}
}

// SetContext sets the standard Go context.Context for the run.
func (b *BaseContext) SetContext(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ctx = ctx
}

// GetContext retrieves the standard Go context.Context.
func (b *BaseContext) GetContext() context.Context {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.ctx
}

// Add stores a key-value pair and returns the context for chaining.
func (b *BaseContext) Add(key string, value interface{}) Context {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.data[key] = value
	return b
}

// AddError records an error produced by a command.
func (b *BaseContext) AddError(key string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.errors[key] = err
}

// GetErrors returns a copy of every error collected during the run.
func (b *BaseContext) GetErrors() map[string]error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]error, len(b.errors))
	for k, v := range b.errors {
		out[k] = v
	}
	return out
}

// Get retrieves a value by key, or nil when absent.
func (b *BaseContext) Get(key string) interface{} {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.data[key]
}

// Remove deletes a key-value pair.
func (b *BaseContext) Remove(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.data, key)
}

// HasErrors reports whether any command has recorded an error.
func (b *BaseContext) HasErrors() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.errors) > 0
}

// AddTempFile registers a file or directory for deletion at the end of the
// run. Callers register paths immediately on creation, before any operation
// that could fail, so that partially written artifacts are still reclaimed.
func (b *BaseContext) AddTempFile(file string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tempFiles = append(b.tempFiles, file)
}

// GetTempFiles returns a copy of the registered artifact paths.
func (b *BaseContext) GetTempFiles() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]string, len(b.tempFiles))
	copy(out, b.tempFiles)
	return out
}

// Close deletes every registered artifact. Removal is best-effort per path:
// a path that is already gone counts as success, a path that cannot be
// removed is logged and skipped without stopping the sweep. The registry is
// drained on the first call, so calling Close again is a no-op.
func (b *BaseContext) Close() {
	b.mu.Lock()
	files := b.tempFiles
	b.tempFiles = nil
	b.mu.Unlock()

	for _, file := range files {
		// RemoveAll handles files and directories alike and returns nil
		// when the path does not exist.
		if err := os.RemoveAll(file); err != nil {
			slog.Warn("failed to remove temp artifact", "path", file, "error", err)
		}
	}
}
