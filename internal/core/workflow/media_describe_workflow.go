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

// Package workflow defines the high-level business logic orchestrations,
// combining commands into coherent pipelines. This file implements the media
// describe workflow: one uploaded file in, one description out.
package workflow

import (
	"context"
	"log/slog"
	"text/template"
	"time"

	"github.com/google/uuid"

	"github.com/jaycherian/gcp-go-media-describe/internal/cloud"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/sampling"
)

// Dependencies carries the external collaborators the workflow needs. Tests
// substitute fakes for all three.
type Dependencies struct {
	Extractor      commands.Extractor
	Transcriber    cloud.Transcriber
	VisionModel    cloud.GenerativeModel
	SynthesisModel cloud.GenerativeModel
	// SynthesisModelName is reported in results; it is metadata only.
	SynthesisModelName string
}

// MediaDescribeWorkflow orchestrates one full description run. It is
// structured as a Chain of Responsibility executing classification, frame
// extraction, audio resolution, transcription, batch analysis, and
// synthesis in order.
type MediaDescribeWorkflow struct {
	cor.BaseCommand
	config *cloud.Config
	deps   Dependencies
	chain  cor.Chain
}

// Execute runs the underlying chain. Most callers should use Run, which also
// handles context setup, cleanup, and error mapping.
func (m *MediaDescribeWorkflow) Execute(context cor.Context) {
	m.chain.Execute(context)
}

// initializeChain builds the command sequence. The chain stops at the first
// recorded error; stages that tolerate failure absorb it instead of
// recording it.
func (m *MediaDescribeWorkflow) initializeChain() {
	out := cor.NewBaseChain(m.GetName())

	// Step 1: resolve whether the upload is audio or video. Anything else is
	// rejected here, before any tool runs.
	out.AddCommand(commands.NewMediaClassifier("classify-media"))

	// Step 2 (video only): plan sample points and extract still frames.
	// Failures degrade the run to transcript-only instead of stopping it.
	out.AddCommand(commands.NewFrameExtraction("extract-frames", m.deps.Extractor))

	// Step 3: resolve the audio track, extracting it for video uploads. The
	// transcript is mandatory, so failure here is fatal.
	out.AddCommand(commands.NewAudioExtraction("extract-audio", m.deps.Extractor))

	// Step 4: transcribe. An empty transcript ends the run.
	out.AddCommand(commands.NewTranscription("transcribe-audio", m.deps.Transcriber,
		time.Duration(m.config.Timeouts.TranscribeSeconds)*time.Second))

	// Step 5: describe the frames batch by batch. Batch failures are
	// recorded as outcomes and never abort the loop.
	out.AddCommand(commands.NewBatchAnalysis("analyze-frame-batches", m.deps.VisionModel,
		mustParse("frame-batch-template", m.config.PromptTemplates.FrameBatch),
		time.Duration(m.config.Timeouts.BatchSeconds)*time.Second))

	// Step 6: synthesize the final description, falling back to the
	// transcript alone when no batch succeeded.
	out.AddCommand(commands.NewSynthesis("synthesize-description", m.deps.SynthesisModel,
		m.deps.SynthesisModelName,
		mustParse("synthesis-template", m.config.PromptTemplates.Synthesis),
		mustParse("transcript-only-template", m.config.PromptTemplates.TranscriptOnly),
		time.Duration(m.config.Timeouts.SynthesisSeconds)*time.Second))

	m.chain = out
}

// mustParse compiles a prompt template, panicking on malformed configuration
// since the application cannot run without valid templates.
func mustParse(name string, text string) *template.Template {
	return template.Must(template.New(name).Parse(text))
}

// Run executes the pipeline for one uploaded file and returns either a
// result or exactly one *model.PipelineError. Temporary artifacts created
// during the run are removed on every exit path, including panics.
func (m *MediaDescribeWorkflow) Run(ctx context.Context, sourcePath string, declaredMediaType string, policy sampling.Policy) (*model.DescribeResult, error) {
	runId := uuid.New().String()
	slog.Info("starting describe run", "run_id", runId, "declared_type", declaredMediaType)

	chainCtx := cor.NewBaseContext()
	chainCtx.SetContext(ctx)
	chainCtx.Add(commands.GetRunIdParamName(), runId)
	chainCtx.Add(commands.GetSourcePathParamName(), sourcePath)
	chainCtx.Add(commands.GetDeclaredTypeParamName(), declaredMediaType)
	chainCtx.Add(commands.GetSamplingPolicyParamName(), policy)
	chainCtx.Add(cor.CtxIn, sourcePath)
	defer chainCtx.Close()

	m.Execute(chainCtx)

	if chainCtx.HasErrors() {
		return nil, firstPipelineError(runId, chainCtx.GetErrors())
	}

	result, ok := chainCtx.Get(commands.GetDescribeResultParamName()).(*model.DescribeResult)
	if !ok {
		return nil, model.NewPipelineError(model.StageSynthesisFailed,
			"pipeline completed without producing a result", nil)
	}

	slog.Info("describe run complete", "run_id", runId,
		"frames", result.FrameCount, "batches", result.BatchCount,
		"batch_failures", result.BatchFailures, "transcript_only", result.TranscriptOnly)
	return result, nil
}

// firstPipelineError maps the chain's collected errors to the single typed
// error the caller sees. The chain stops at the first failure, so in
// practice there is exactly one.
func firstPipelineError(runId string, errs map[string]error) error {
	for name, err := range errs {
		slog.Error("describe run failed", "run_id", runId, "command", name, "error", err)
		if pe, ok := model.AsPipelineError(err); ok {
			return pe
		}
		return model.NewPipelineError(model.StageSynthesisFailed, "pipeline failed", err)
	}
	return model.NewPipelineError(model.StageSynthesisFailed, "pipeline failed with no recorded error", nil)
}

// NewMediaDescribeWorkflow builds the workflow from explicit dependencies.
func NewMediaDescribeWorkflow(config *cloud.Config, deps Dependencies) *MediaDescribeWorkflow {
	pipeline := &MediaDescribeWorkflow{
		BaseCommand: *cor.NewBaseCommand("media-describe-pipeline"),
		config:      config,
		deps:        deps,
	}
	pipeline.initializeChain()
	return pipeline
}

// NewMediaDescribeWorkflowFromClients wires the workflow from the shared
// service clients and configuration, selecting the agent models by role.
func NewMediaDescribeWorkflowFromClients(config *cloud.Config, serviceClients *cloud.ServiceClients) *MediaDescribeWorkflow {
	synthesisModel := serviceClients.AgentModels[cloud.ModelKeySynthesis]
	transcriptionModel := serviceClients.AgentModels[cloud.ModelKeyTranscription]

	deps := Dependencies{
		Extractor:          commands.NewFFMpegExtractor(config.FFmpeg.FFmpegPath, config.FFmpeg.FFprobePath),
		Transcriber:        cloud.NewGenAITranscriber(transcriptionModel, config.PromptTemplates.Transcribe),
		VisionModel:        serviceClients.AgentModels[cloud.ModelKeyVision],
		SynthesisModel:     synthesisModel,
		SynthesisModelName: synthesisModel.ModelName,
	}
	return NewMediaDescribeWorkflow(config, deps)
}
