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

package commands_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-media-describe/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/model"
)

func newClassifierContext(t *testing.T, content []byte, declaredType string) cor.Context {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.bin")
	require.NoError(t, os.WriteFile(path, content, 0o600))

	corCtx := cor.NewBaseContext()
	corCtx.SetContext(context.Background())
	corCtx.Add(commands.GetSourcePathParamName(), path)
	corCtx.Add(commands.GetDeclaredTypeParamName(), declaredType)
	return corCtx
}

func TestClassifierTrustsDeclaredType(t *testing.T) {
	classifier := commands.NewMediaClassifier("classify-media")

	corCtx := newClassifierContext(t, []byte("not sniffable"), "video/mp4")
	classifier.Execute(corCtx)
	assert.False(t, corCtx.HasErrors())
	assert.Equal(t, model.MediaKindVideo, corCtx.Get(commands.GetMediaKindParamName()))

	corCtx = newClassifierContext(t, []byte("not sniffable"), "audio/mpeg")
	classifier.Execute(corCtx)
	assert.False(t, corCtx.HasErrors())
	assert.Equal(t, model.MediaKindAudio, corCtx.Get(commands.GetMediaKindParamName()))
}

func TestClassifierSniffsWhenDeclaredTypeUnhelpful(t *testing.T) {
	classifier := commands.NewMediaClassifier("classify-media")

	// An ID3v2 header marks the content as MP3 regardless of the generic
	// declared type.
	id3 := append([]byte("ID3"), 0x03, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)
	corCtx := newClassifierContext(t, id3, "application/octet-stream")
	classifier.Execute(corCtx)

	assert.False(t, corCtx.HasErrors())
	assert.Equal(t, model.MediaKindAudio, corCtx.Get(commands.GetMediaKindParamName()))
}

func TestClassifierRejectsUnsupportedContent(t *testing.T) {
	classifier := commands.NewMediaClassifier("classify-media")

	corCtx := newClassifierContext(t, []byte("%PDF-1.4 not media"), "application/pdf")
	classifier.Execute(corCtx)

	require.True(t, corCtx.HasErrors())
	for _, err := range corCtx.GetErrors() {
		pe, ok := model.AsPipelineError(err)
		require.True(t, ok)
		assert.Equal(t, model.StageUnsupportedMediaType, pe.Stage)
	}
	assert.Nil(t, corCtx.Get(commands.GetMediaKindParamName()))
}
