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
// Responsibility pattern's Command interface. This file defines the chunked
// vision analysis command: extracted frames are sent to the vision model in
// batches, each batch call bounded by its own timeout and recorded as an
// outcome value. A failed batch is data for the synthesis stage, never an
// error on the chain — the loop always runs to completion.
package commands

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"text/template"
	"time"

	"go.opentelemetry.io/otel/metric"

	"github.com/jaycherian/gcp-go-media-describe/internal/cloud"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/model"
	"google.golang.org/genai"
)

// MaxImagesPerBatch is the hard ceiling on images per vision call. It bounds
// the payload of a single request and is not configurable.
const MaxImagesPerBatch = 5

// BatchAnalysis describes the extracted frames batch by batch.
type BatchAnalysis struct {
	cor.BaseCommand
	generativeAIModel        cloud.GenerativeModel
	template                 *template.Template  // Prompt template with TRANSCRIPT, BATCH_START, BATCH_END params.
	batchTimeout             time.Duration       // Deadline for one batch call; zero disables it.
	geminiInputTokenCounter  metric.Int64Counter // OTel counter for input tokens.
	geminiOutputTokenCounter metric.Int64Counter // OTel counter for output tokens.
	geminiRetryCounter       metric.Int64Counter // OTel counter for retries.
}

// NewBatchAnalysis is the constructor for the BatchAnalysis command.
func NewBatchAnalysis(
	name string,
	generativeAIModel cloud.GenerativeModel,
	promptTemplate *template.Template,
	batchTimeout time.Duration) *BatchAnalysis {

	out := &BatchAnalysis{
		BaseCommand:       *cor.NewBaseCommand(name),
		generativeAIModel: generativeAIModel,
		template:          promptTemplate,
		batchTimeout:      batchTimeout,
	}
	out.InputParamName = GetFramesParamName()

	out.geminiInputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.input", out.GetName()))
	out.geminiOutputTokenCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.output", out.GetName()))
	out.geminiRetryCounter, _ = out.GetMeter().Int64Counter(fmt.Sprintf("%s.gemini.token.retry", out.GetName()))

	return out
}

// IsExecutable requires a frame slice in the context. Audio runs never set
// one, so they skip this command entirely.
func (c *BatchAnalysis) IsExecutable(context cor.Context) bool {
	if context == nil || context.GetContext() == nil {
		return false
	}
	_, ok := context.Get(GetFramesParamName()).([]model.Frame)
	return ok
}

// analyzeBatch executes one vision call for frames[start:end] and returns
// its outcome. start and end are slice offsets; outcomes report 1-based
// frame indexes.
func (c *BatchAnalysis) analyzeBatch(corCtx cor.Context, frames []model.Frame, transcript string) model.BatchOutcome {
	outcome := model.BatchOutcome{
		StartIndex: frames[0].Index,
		EndIndex:   frames[len(frames)-1].Index,
	}

	var buffer bytes.Buffer
	err := c.template.Execute(&buffer, map[string]interface{}{
		"TRANSCRIPT":  transcript,
		"BATCH_START": outcome.StartIndex,
		"BATCH_END":   outcome.EndIndex,
	})
	if err != nil {
		outcome.State = model.BatchError
		outcome.Err = fmt.Sprintf("failed to execute prompt template: %v", err)
		return outcome
	}

	parts := []*genai.Part{{Text: buffer.String()}}
	for _, frame := range frames {
		parts = append(parts, cloud.NewInlineData(frame.Image, "image/jpeg"))
	}
	contents := []*genai.Content{{Parts: parts, Role: "user"}}

	goCtx := corCtx.GetContext()
	if c.batchTimeout > 0 {
		var cancel context.CancelFunc
		goCtx, cancel = context.WithTimeout(goCtx, c.batchTimeout)
		defer cancel()
	}

	text, err := cloud.GenerateMultiModalResponse(goCtx,
		c.geminiInputTokenCounter, c.geminiOutputTokenCounter, c.geminiRetryCounter,
		0, c.generativeAIModel, contents)
	if err != nil {
		outcome.State = model.BatchError
		outcome.Err = err.Error()
		return outcome
	}
	if strings.TrimSpace(text) == "" {
		outcome.State = model.BatchEmpty
		return outcome
	}

	outcome.State = model.BatchSuccess
	outcome.Text = text
	return outcome
}

// Execute walks the frame slice in batches and records one outcome per
// batch.
func (c *BatchAnalysis) Execute(corCtx cor.Context) {
	frames := corCtx.Get(GetFramesParamName()).([]model.Frame)
	transcript, _ := corCtx.Get(GetTranscriptParamName()).(string)

	outcomes := make([]model.BatchOutcome, 0, (len(frames)+MaxImagesPerBatch-1)/MaxImagesPerBatch)
	for start := 0; start < len(frames); start += MaxImagesPerBatch {
		end := start + MaxImagesPerBatch
		if end > len(frames) {
			end = len(frames)
		}
		outcome := c.analyzeBatch(corCtx, frames[start:end], transcript)
		if outcome.State == model.BatchSuccess {
			c.GetSuccessCounter().Add(corCtx.GetContext(), 1)
		} else {
			c.GetErrorCounter().Add(corCtx.GetContext(), 1)
		}
		outcomes = append(outcomes, outcome)
	}

	corCtx.Add(GetBatchOutcomesParamName(), outcomes)
	corCtx.Add(c.GetOutputParam(), outcomes)
}
