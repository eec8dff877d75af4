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

package cor_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-media-describe/internal/core/cor"
)

func TestBaseContextDataAndErrors(t *testing.T) {
	ctx := cor.NewBaseContext()

	ctx.Add("key", "value")
	assert.Equal(t, "value", ctx.Get("key"))
	assert.Nil(t, ctx.Get("absent"))

	ctx.Remove("key")
	assert.Nil(t, ctx.Get("key"))

	assert.False(t, ctx.HasErrors())
	ctx.AddError("some-command", errors.New("boom"))
	assert.True(t, ctx.HasErrors())
	assert.Len(t, ctx.GetErrors(), 1)
}

func TestCloseRemovesFilesAndDirectories(t *testing.T) {
	ctx := cor.NewBaseContext()

	file, err := os.CreateTemp(t.TempDir(), "artifact-*")
	require.NoError(t, err)
	_ = file.Close()

	dir, err := os.MkdirTemp(t.TempDir(), "frames-")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "frame_0001.jpg"), []byte("x"), 0o600))

	ctx.AddTempFile(file.Name())
	ctx.AddTempFile(dir)
	assert.Len(t, ctx.GetTempFiles(), 2)

	ctx.Close()

	_, err = os.Stat(file.Name())
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestCloseToleratesMissingPaths(t *testing.T) {
	ctx := cor.NewBaseContext()
	ctx.AddTempFile(filepath.Join(t.TempDir(), "never-created"))

	// Must not panic or error on paths that are already gone.
	ctx.Close()
	assert.Empty(t, ctx.GetTempFiles())
}

func TestCloseIsIdempotent(t *testing.T) {
	ctx := cor.NewBaseContext()

	file, err := os.CreateTemp(t.TempDir(), "artifact-*")
	require.NoError(t, err)
	_ = file.Close()
	ctx.AddTempFile(file.Name())

	ctx.Close()
	// Second close sweeps an already drained registry.
	ctx.Close()
	assert.Empty(t, ctx.GetTempFiles())
}
