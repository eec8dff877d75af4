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

// Package commands provides the concrete implementations of the Chain of
// Responsibility pattern's Command interface for the media description
// pipeline. This file defines the canonical names of the context parameters
// commands use to exchange data beyond the default CtxIn/CtxOut piping.
// Commands always address shared state through these functions, never
// through string literals.
package commands

// GetRunIdParamName returns the context parameter holding the run's unique
// identifier.
func GetRunIdParamName() string {
	return "__RUN_ID__"
}

// GetSourcePathParamName returns the context parameter holding the local
// path of the uploaded media file.
func GetSourcePathParamName() string {
	return "__SOURCE_PATH__"
}

// GetDeclaredTypeParamName returns the context parameter holding the MIME
// type the uploader declared, possibly empty.
func GetDeclaredTypeParamName() string {
	return "__DECLARED_TYPE__"
}

// GetMediaKindParamName returns the context parameter holding the resolved
// model.MediaKind.
func GetMediaKindParamName() string {
	return "__MEDIA_KIND__"
}

// GetSamplingPolicyParamName returns the context parameter holding the
// sampling.Policy in effect for this run.
func GetSamplingPolicyParamName() string {
	return "__SAMPLING_POLICY__"
}

// GetFramesParamName returns the context parameter holding the extracted
// []model.Frame. Present but possibly empty on degraded video runs.
func GetFramesParamName() string {
	return "__FRAMES__"
}

// GetAudioPathParamName returns the context parameter holding the path of
// the audio track to transcribe.
func GetAudioPathParamName() string {
	return "__AUDIO_PATH__"
}

// GetTranscriptParamName returns the context parameter holding the
// transcript text.
func GetTranscriptParamName() string {
	return "__TRANSCRIPT__"
}

// GetBatchOutcomesParamName returns the context parameter holding the
// []model.BatchOutcome produced by batch analysis.
func GetBatchOutcomesParamName() string {
	return "__BATCH_OUTCOMES__"
}

// GetDescribeResultParamName returns the context parameter holding the final
// *model.DescribeResult.
func GetDescribeResultParamName() string {
	return "__DESCRIBE_RESULT__"
}
