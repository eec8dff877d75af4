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

package model

import (
	"errors"
	"fmt"
)

// Stage identifies which pipeline stage produced a fatal error. The HTTP
// layer maps stages to response codes, so the set is part of the API surface.
type Stage string

const (
	// StageUnsupportedMediaType: the upload is neither audio nor video.
	StageUnsupportedMediaType Stage = "unsupported_media_type"
	// StageExtractionFailed: ffprobe/ffmpeg could not produce required output.
	// Only audio extraction failures are fatal; frame extraction degrades.
	StageExtractionFailed Stage = "extraction_failed"
	// StageTranscriptionFailed: the transcription call itself failed.
	StageTranscriptionFailed Stage = "transcription_failed"
	// StageEmptyTranscript: transcription succeeded but produced no text,
	// leaving nothing to describe.
	StageEmptyTranscript Stage = "empty_transcript"
	// StageSynthesisFailed: the final description call failed or came back
	// empty after all fallbacks.
	StageSynthesisFailed Stage = "synthesis_failed"
)

// PipelineError is the single fatal error type the pipeline surfaces. Exactly
// one reaches the caller per failed run; batch-level failures never become
// PipelineErrors.
type PipelineError struct {
	Stage   Stage
	Message string
	Err     error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewPipelineError builds a PipelineError. cause may be nil.
func NewPipelineError(stage Stage, message string, cause error) *PipelineError {
	return &PipelineError{Stage: stage, Message: message, Err: cause}
}

// AsPipelineError unwraps err into a *PipelineError when one is present in
// its chain.
func AsPipelineError(err error) (*PipelineError, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}
