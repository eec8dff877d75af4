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
// Responsibility pattern's Command interface. This file defines the final
// synthesis command, which folds the transcript and the successful batch
// descriptions into one document. Degradation is graceful: when no batch
// succeeded (or there were never any frames), the description is produced
// from the transcript alone rather than failing the run. Only a failure of
// this final call itself is fatal.
package commands

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"text/template"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/jaycherian/gcp-go-media-describe/internal/cloud"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/model"
)

// Synthesis produces the final description from the transcript and batch
// outcomes.
type Synthesis struct {
	cor.BaseCommand
	generativeAIModel        cloud.GenerativeModel
	modelName                string             // Reported in the result for caller visibility.
	combinedTemplate         *template.Template // Template with TRANSCRIPT and BATCH_SECTIONS params.
	transcriptOnlyTemplate   *template.Template // Template with a TRANSCRIPT param.
	timeout                  time.Duration
	geminiInputTokenCounter  metric.Int64Counter
	geminiOutputTokenCounter metric.Int64Counter
	geminiRetryCounter       metric.Int64Counter
}

// NewSynthesis is the constructor for the Synthesis command.
func NewSynthesis(
	name string,
	generativeAIModel cloud.GenerativeModel,
	modelName string,
	combinedTemplate *template.Template,
	transcriptOnlyTemplate *template.Template,
	timeout time.Duration) *Synthesis {

	out := &Synthesis{
		BaseCommand:            *cor.NewBaseCommand(name),
		generativeAIModel:      generativeAIModel,
		modelName:              modelName,
		combinedTemplate:       combinedTemplate,
		transcriptOnlyTemplate: transcriptOnlyTemplate,
		timeout:                timeout,
	}
	out.InputParamName = GetTranscriptParamName()

	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	out.geminiRetryCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.retry", out.GetName()))

	return out
}

// buildPrompt renders the synthesis prompt. Successful batch texts are
// tagged with their frame ranges so the model can keep the visual narrative
// in order; with no successes the transcript-only template is used instead.
func (c *Synthesis) buildPrompt(transcript string, successes []model.BatchOutcome) (string, bool, error) {
	var buffer bytes.Buffer

	if len(successes) == 0 {
		err := c.transcriptOnlyTemplate.Execute(&buffer, map[string]interface{}{
			"TRANSCRIPT": transcript,
		})
		return buffer.String(), true, err
	}

	var sections strings.Builder
	for _, outcome := range successes {
		sections.WriteString(fmt.Sprintf("[frames %d-%d]\n%s\n\n", outcome.StartIndex, outcome.EndIndex, outcome.Text))
	}

	err := c.combinedTemplate.Execute(&buffer, map[string]interface{}{
		"TRANSCRIPT":     transcript,
		"BATCH_SECTIONS": sections.String(),
	})
	return buffer.String(), false, err
}

// Execute runs the final model call and emits the DescribeResult.
func (c *Synthesis) Execute(corCtx cor.Context) {
	transcript := corCtx.Get(c.GetInputParam()).(string)
	outcomes, _ := corCtx.Get(GetBatchOutcomesParamName()).([]model.BatchOutcome)
	frames, _ := corCtx.Get(GetFramesParamName()).([]model.Frame)
	runId, _ := corCtx.Get(GetRunIdParamName()).(string)

	successes := make([]model.BatchOutcome, 0, len(outcomes))
	failures := 0
	for _, outcome := range outcomes {
		if outcome.State == model.BatchSuccess {
			successes = append(successes, outcome)
		} else {
			failures++
		}
	}

	prompt, transcriptOnly, err := c.buildPrompt(transcript, successes)
	if err != nil {
		c.GetErrorCounter().Add(corCtx.GetContext(), 1)
		corCtx.AddError(c.GetName(), model.NewPipelineError(
			model.StageSynthesisFailed, "failed to execute synthesis template", err))
		return
	}
	if transcriptOnly && len(outcomes) > 0 {
		slog.Warn("all vision batches failed, falling back to transcript-only synthesis",
			"run_id", runId, "batches", len(outcomes))
	}

	goCtx := corCtx.GetContext()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		goCtx, cancel = context.WithTimeout(goCtx, c.timeout)
		defer cancel()
	}

	description, err := cloud.GenerateMultiModalResponse(goCtx,
		c.geminiInputTokenCounter, c.geminiOutputTokenCounter, c.geminiRetryCounter,
		0, c.generativeAIModel, cloud.NewTextContent(prompt))
	if err != nil {
		c.GetErrorCounter().Add(corCtx.GetContext(), 1)
		corCtx.AddError(c.GetName(), model.NewPipelineError(
			model.StageSynthesisFailed, "synthesis call failed", err))
		return
	}
	if strings.TrimSpace(description) == "" {
		c.GetErrorCounter().Add(corCtx.GetContext(), 1)
		corCtx.AddError(c.GetName(), model.NewPipelineError(
			model.StageSynthesisFailed, "synthesis produced no text", nil))
		return
	}

	result := &model.DescribeResult{
		Description:    description,
		Model:          c.modelName,
		RunId:          runId,
		FrameCount:     len(frames),
		BatchCount:     len(outcomes),
		BatchFailures:  failures,
		TranscriptOnly: transcriptOnly,
	}

	c.GetSuccessCounter().Add(corCtx.GetContext(), 1)
	corCtx.Add(GetDescribeResultParamName(), result)
	corCtx.Add(c.GetOutputParam(), result)
}
