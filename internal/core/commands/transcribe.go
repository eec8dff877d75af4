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
// Responsibility pattern's Command interface. This file defines the
// transcription command. An empty transcript is fatal by policy: with no
// speech and, possibly, no frames, there is nothing to describe and the
// caller should hear that rather than receive a hallucinated summary.
package commands

import (
	"context"
	"strings"
	"time"

	"github.com/jaycherian/gcp-go-media-describe/internal/cloud"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/model"
)

// Transcription converts the resolved audio track into text.
type Transcription struct {
	cor.BaseCommand
	transcriber cloud.Transcriber
	timeout     time.Duration
}

// NewTranscription is the constructor for the Transcription command. A
// non-positive timeout disables the per-call deadline.
func NewTranscription(name string, transcriber cloud.Transcriber, timeout time.Duration) *Transcription {
	out := &Transcription{
		BaseCommand: *cor.NewBaseCommand(name),
		transcriber: transcriber,
		timeout:     timeout,
	}
	out.InputParamName = GetAudioPathParamName()
	return out
}

// Execute transcribes the audio track and stores the transcript.
func (c *Transcription) Execute(corCtx cor.Context) {
	audioPath := corCtx.Get(c.GetInputParam()).(string)

	goCtx := corCtx.GetContext()
	if c.timeout > 0 {
		var cancel context.CancelFunc
		goCtx, cancel = context.WithTimeout(goCtx, c.timeout)
		defer cancel()
	}

	transcript, err := c.transcriber.Transcribe(goCtx, audioPath)
	if err != nil {
		c.GetErrorCounter().Add(corCtx.GetContext(), 1)
		corCtx.AddError(c.GetName(), model.NewPipelineError(
			model.StageTranscriptionFailed, "transcription failed", err))
		return
	}

	if strings.TrimSpace(transcript) == "" {
		c.GetErrorCounter().Add(corCtx.GetContext(), 1)
		corCtx.AddError(c.GetName(), model.NewPipelineError(
			model.StageEmptyTranscript, "transcription produced no text", nil))
		return
	}

	c.GetSuccessCounter().Add(corCtx.GetContext(), 1)
	corCtx.Add(GetTranscriptParamName(), transcript)
	corCtx.Add(c.GetOutputParam(), transcript)
}
