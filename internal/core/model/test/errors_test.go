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

package model_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-media-describe/internal/core/model"
)

func TestPipelineErrorFormatting(t *testing.T) {
	cause := errors.New("exit status 1")
	err := model.NewPipelineError(model.StageExtractionFailed, "failed to extract audio track", cause)

	assert.Equal(t, "extraction_failed: failed to extract audio track: exit status 1", err.Error())
	assert.Equal(t, cause, errors.Unwrap(err))

	bare := model.NewPipelineError(model.StageEmptyTranscript, "transcription produced no text", nil)
	assert.Equal(t, "empty_transcript: transcription produced no text", bare.Error())
	assert.Nil(t, errors.Unwrap(bare))
}

func TestAsPipelineErrorUnwrapsChains(t *testing.T) {
	inner := model.NewPipelineError(model.StageTranscriptionFailed, "transcription failed", errors.New("deadline"))
	wrapped := fmt.Errorf("run failed: %w", inner)

	pe, ok := model.AsPipelineError(wrapped)
	require.True(t, ok)
	assert.Equal(t, model.StageTranscriptionFailed, pe.Stage)

	_, ok = model.AsPipelineError(errors.New("plain"))
	assert.False(t, ok)
}
