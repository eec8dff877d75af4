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

// Package model defines the transient data structures that flow through the
// media description pipeline. Nothing in this package is persisted; every
// value lives for the duration of a single run.
package model

// MediaKind classifies an upload for routing inside the pipeline. Video runs
// get the visual analysis stages; audio runs skip straight to transcription.
type MediaKind string

const (
	MediaKindVideo MediaKind = "video"
	MediaKindAudio MediaKind = "audio"
)

// Frame is one extracted still image. Index is 1-based and assigned in
// timestamp order, so batch boundaries can be reported as frame ranges.
type Frame struct {
	Index     int     `json:"index"`
	Timestamp float64 `json:"timestamp"`
	Image     []byte  `json:"-"`
}

// BatchState is the terminal state of one vision-model batch call.
type BatchState string

const (
	// BatchSuccess means the model returned non-empty text for the batch.
	BatchSuccess BatchState = "success"
	// BatchEmpty means the call succeeded but produced no usable text.
	BatchEmpty BatchState = "empty"
	// BatchError means the call failed or timed out.
	BatchError BatchState = "error"
)

// BatchOutcome records the result of analyzing one batch of frames. Outcomes
// are immutable once created: a failed batch is a data point for synthesis,
// never an error that aborts the run.
type BatchOutcome struct {
	StartIndex int        `json:"start_index"`
	EndIndex   int        `json:"end_index"`
	State      BatchState `json:"state"`
	Text       string     `json:"text,omitempty"`
	Err        string     `json:"error,omitempty"`
}

// DescribeResult is the final output of a successful pipeline run.
// TranscriptOnly is true when the description was produced without any
// visual input, either because the upload was audio or because every
// visual stage degraded.
type DescribeResult struct {
	Description   string `json:"description"`
	Model         string `json:"model"`
	RunId         string `json:"run_id"`
	FrameCount    int    `json:"frame_count"`
	BatchCount    int    `json:"batch_count"`
	BatchFailures int    `json:"batch_failures"`
	TranscriptOnly bool  `json:"transcript_only"`
}
