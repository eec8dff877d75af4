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

package workflow_test

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jaycherian/gcp-go-media-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/sampling"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/workflow"
)

func newWorkflow(extractor *fakeExtractor, transcriber *fakeTranscriber, vision *fakeModel, synthesis *fakeModel) *workflow.MediaDescribeWorkflow {
	return workflow.NewMediaDescribeWorkflow(newTestConfig(), workflow.Dependencies{
		Extractor:          extractor,
		Transcriber:        transcriber,
		VisionModel:        vision,
		SynthesisModel:     synthesis,
		SynthesisModelName: "fake-synthesis-model",
	})
}

func TestDescribeVideoEndToEnd(t *testing.T) {
	extractor := &fakeExtractor{duration: 180}
	transcriber := &fakeTranscriber{transcript: "the spoken words"}
	vision := &fakeModel{respond: func(prompt string, imageCount int) (string, error) {
		return "visual description of " + prompt[:strings.Index(prompt, "|")], nil
	}}
	synthesis := &fakeModel{respond: func(string, int) (string, error) {
		return "# The Description", nil
	}}

	wf := newWorkflow(extractor, transcriber, vision, synthesis)
	result, err := wf.Run(ctx, writeTempMedia(t), "video/mp4", sampling.Policy{IntervalSeconds: 10, MaxFrames: 30})
	require.NoError(t, err)

	// 180s at 10s intervals yields 18 frames split into batches of 5.
	assert.Equal(t, 18, result.FrameCount)
	assert.Equal(t, 4, result.BatchCount)
	assert.Equal(t, 0, result.BatchFailures)
	assert.False(t, result.TranscriptOnly)
	assert.Equal(t, "# The Description", result.Description)
	assert.Equal(t, "fake-synthesis-model", result.Model)
	assert.NotEmpty(t, result.RunId)

	assert.Equal(t, 18, extractor.frameCalls)
	assert.Equal(t, 1, transcriber.calls)

	// One vision call per batch, with the documented frame ranges and sizes.
	require.Len(t, vision.prompts, 4)
	assert.Equal(t, []int{5, 5, 5, 3}, vision.images)
	assert.True(t, strings.HasPrefix(vision.prompts[0], "B1-5|"))
	assert.True(t, strings.HasPrefix(vision.prompts[1], "B6-10|"))
	assert.True(t, strings.HasPrefix(vision.prompts[2], "B11-15|"))
	assert.True(t, strings.HasPrefix(vision.prompts[3], "B16-18|"))
	assert.Contains(t, vision.prompts[0], "the spoken words")

	// One synthesis call carrying every batch description in order.
	require.Len(t, synthesis.prompts, 1)
	finalPrompt := synthesis.prompts[0]
	assert.True(t, strings.HasPrefix(finalPrompt, "FINAL|the spoken words|"))
	assert.Contains(t, finalPrompt, "[frames 1-5]")
	assert.Contains(t, finalPrompt, "[frames 16-18]")
	assert.Contains(t, finalPrompt, "visual description of B6-10")
}

func TestDescribeAudioOnlySkipsVisualStages(t *testing.T) {
	extractor := &fakeExtractor{duration: 300}
	transcriber := &fakeTranscriber{transcript: "a podcast episode"}
	vision := &fakeModel{respond: func(string, int) (string, error) {
		t.Fatal("vision model must not be called for audio uploads")
		return "", nil
	}}
	synthesis := &fakeModel{respond: func(string, int) (string, error) {
		return "audio description", nil
	}}

	sourcePath := writeTempMedia(t)
	wf := newWorkflow(extractor, transcriber, vision, synthesis)
	result, err := wf.Run(ctx, sourcePath, "audio/mpeg", sampling.Policy{IntervalSeconds: 10, MaxFrames: 30})
	require.NoError(t, err)

	assert.True(t, result.TranscriptOnly)
	assert.Equal(t, 0, result.FrameCount)
	assert.Equal(t, 0, result.BatchCount)

	// The upload itself is the audio track: no probing, no extraction.
	assert.Equal(t, 0, extractor.probeCalls)
	assert.Equal(t, 0, extractor.audioCalls)
	assert.Equal(t, sourcePath, transcriber.lastPath)

	require.Len(t, synthesis.prompts, 1)
	assert.Equal(t, "TRANSCRIPT_ONLY|a podcast episode", synthesis.prompts[0])
}

func TestAllBatchFailuresFallBackToTranscriptOnly(t *testing.T) {
	extractor := &fakeExtractor{duration: 30}
	transcriber := &fakeTranscriber{transcript: "still worth describing"}
	vision := &fakeModel{respond: func(string, int) (string, error) {
		return "", errAlways
	}}
	synthesis := &fakeModel{respond: func(string, int) (string, error) {
		return "degraded description", nil
	}}

	wf := newWorkflow(extractor, transcriber, vision, synthesis)
	result, err := wf.Run(ctx, writeTempMedia(t), "video/mp4", sampling.Policy{IntervalSeconds: 10, MaxFrames: 30})
	require.NoError(t, err)

	assert.Equal(t, 3, result.FrameCount)
	assert.Equal(t, 1, result.BatchCount)
	assert.Equal(t, 1, result.BatchFailures)
	assert.True(t, result.TranscriptOnly)
	assert.Equal(t, "degraded description", result.Description)

	require.Len(t, synthesis.prompts, 1)
	assert.Equal(t, "TRANSCRIPT_ONLY|still worth describing", synthesis.prompts[0])
}

func TestPartialBatchSuccessKeepsOnlySuccessfulText(t *testing.T) {
	extractor := &fakeExtractor{duration: 150}
	transcriber := &fakeTranscriber{transcript: "narration"}
	vision := &fakeModel{respond: func(prompt string, _ int) (string, error) {
		// Only the middle batch succeeds.
		if strings.HasPrefix(prompt, "B6-10|") {
			return "middle batch description", nil
		}
		return "", errAlways
	}}
	synthesis := &fakeModel{respond: func(string, int) (string, error) {
		return "partial description", nil
	}}

	wf := newWorkflow(extractor, transcriber, vision, synthesis)
	result, err := wf.Run(ctx, writeTempMedia(t), "video/mp4", sampling.Policy{IntervalSeconds: 10, MaxFrames: 30})
	require.NoError(t, err)

	assert.Equal(t, 15, result.FrameCount)
	assert.Equal(t, 3, result.BatchCount)
	assert.Equal(t, 2, result.BatchFailures)
	assert.False(t, result.TranscriptOnly)

	require.Len(t, synthesis.prompts, 1)
	finalPrompt := synthesis.prompts[0]
	assert.Contains(t, finalPrompt, "[frames 6-10]")
	assert.Contains(t, finalPrompt, "middle batch description")
	assert.NotContains(t, finalPrompt, "[frames 1-5]")
	assert.NotContains(t, finalPrompt, "[frames 11-15]")
}

func TestFrameExtractionFailureDegradesToTranscriptOnly(t *testing.T) {
	extractor := &fakeExtractor{probeErr: errAlways}
	transcriber := &fakeTranscriber{transcript: "audio survives"}
	vision := &fakeModel{respond: func(string, int) (string, error) {
		t.Fatal("vision model must not be called when no frames exist")
		return "", nil
	}}
	synthesis := &fakeModel{respond: func(string, int) (string, error) {
		return "transcript-only description", nil
	}}

	wf := newWorkflow(extractor, transcriber, vision, synthesis)
	result, err := wf.Run(ctx, writeTempMedia(t), "video/mp4", sampling.Policy{IntervalSeconds: 10, MaxFrames: 30})
	require.NoError(t, err)

	assert.True(t, result.TranscriptOnly)
	assert.Equal(t, 0, result.FrameCount)
	assert.Equal(t, 0, result.BatchCount)
	// Audio extraction still ran and succeeded.
	assert.Equal(t, 1, extractor.audioCalls)
}

func TestAudioExtractionFailureIsFatal(t *testing.T) {
	extractor := &fakeExtractor{duration: 60, audioErr: errAlways}
	transcriber := &fakeTranscriber{transcript: "unreachable"}
	vision := &fakeModel{respond: func(string, int) (string, error) { return "v", nil }}
	synthesis := &fakeModel{respond: func(string, int) (string, error) { return "s", nil }}

	wf := newWorkflow(extractor, transcriber, vision, synthesis)
	result, err := wf.Run(ctx, writeTempMedia(t), "video/mp4", sampling.Policy{IntervalSeconds: 10, MaxFrames: 30})
	require.Error(t, err)
	assert.Nil(t, result)

	pe, ok := model.AsPipelineError(err)
	require.True(t, ok)
	assert.Equal(t, model.StageExtractionFailed, pe.Stage)
	assert.Equal(t, 0, transcriber.calls)
}

func TestEmptyTranscriptIsFatal(t *testing.T) {
	extractor := &fakeExtractor{duration: 60}
	transcriber := &fakeTranscriber{transcript: "   \n\t"}
	vision := &fakeModel{respond: func(string, int) (string, error) { return "v", nil }}
	synthesis := &fakeModel{respond: func(string, int) (string, error) { return "s", nil }}

	wf := newWorkflow(extractor, transcriber, vision, synthesis)
	result, err := wf.Run(ctx, writeTempMedia(t), "video/mp4", sampling.Policy{IntervalSeconds: 10, MaxFrames: 30})
	require.Error(t, err)
	assert.Nil(t, result)

	pe, ok := model.AsPipelineError(err)
	require.True(t, ok)
	assert.Equal(t, model.StageEmptyTranscript, pe.Stage)
}

func TestUnsupportedMediaTypeRejected(t *testing.T) {
	extractor := &fakeExtractor{duration: 60}
	transcriber := &fakeTranscriber{transcript: "unreachable"}
	vision := &fakeModel{respond: func(string, int) (string, error) { return "v", nil }}
	synthesis := &fakeModel{respond: func(string, int) (string, error) { return "s", nil }}

	wf := newWorkflow(extractor, transcriber, vision, synthesis)
	result, err := wf.Run(ctx, writeTempMedia(t), "application/pdf", sampling.Policy{IntervalSeconds: 10, MaxFrames: 30})
	require.Error(t, err)
	assert.Nil(t, result)

	pe, ok := model.AsPipelineError(err)
	require.True(t, ok)
	assert.Equal(t, model.StageUnsupportedMediaType, pe.Stage)
	assert.Equal(t, 0, extractor.probeCalls)
	assert.Equal(t, 0, transcriber.calls)
}

func TestRunCleansUpExtractedAudio(t *testing.T) {
	extractor := &fakeExtractor{duration: 60}
	transcriber := &fakeTranscriber{transcript: "words"}
	vision := &fakeModel{respond: func(string, int) (string, error) { return "v", nil }}
	synthesis := &fakeModel{respond: func(string, int) (string, error) { return "final", nil }}

	wf := newWorkflow(extractor, transcriber, vision, synthesis)
	_, err := wf.Run(ctx, writeTempMedia(t), "video/mp4", sampling.Policy{IntervalSeconds: 10, MaxFrames: 30})
	require.NoError(t, err)

	// The extracted audio temp file must be gone after the run.
	require.NotEmpty(t, extractor.lastAudioPath)
	_, statErr := os.Stat(extractor.lastAudioPath)
	assert.True(t, os.IsNotExist(statErr), "audio temp file should have been removed")
}
