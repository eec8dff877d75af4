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
// Responsibility pattern's Command interface. This file defines audio
// resolution: audio uploads pass through as-is, video uploads get their
// audio track extracted to a temp file. Unlike frame extraction, a failure
// here is fatal — without audio there is no transcript, and the transcript
// is the backbone of every description.
package commands

import (
	"os"

	"github.com/jaycherian/gcp-go-media-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/model"
)

// AudioExtraction resolves the path of the audio track to transcribe.
type AudioExtraction struct {
	cor.BaseCommand
	extractor Extractor
}

// NewAudioExtraction is the constructor for the AudioExtraction command.
func NewAudioExtraction(name string, extractor Extractor) *AudioExtraction {
	out := &AudioExtraction{
		BaseCommand: *cor.NewBaseCommand(name),
		extractor:   extractor,
	}
	out.InputParamName = GetSourcePathParamName()
	return out
}

// Execute resolves or extracts the audio track and stores its path.
func (c *AudioExtraction) Execute(context cor.Context) {
	sourcePath := context.Get(c.GetInputParam()).(string)
	kind, _ := context.Get(GetMediaKindParamName()).(model.MediaKind)

	if kind == model.MediaKindAudio {
		// The upload is the audio track.
		c.GetSuccessCounter().Add(context.GetContext(), 1)
		context.Add(GetAudioPathParamName(), sourcePath)
		context.Add(c.GetOutputParam(), sourcePath)
		return
	}

	audioFile, err := os.CreateTemp("", "audio-*.mp3")
	if err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), model.NewPipelineError(
			model.StageExtractionFailed, "failed to create audio temp file", err))
		return
	}
	audioPath := audioFile.Name()
	_ = audioFile.Close()
	// Registered before extraction so a failed run still removes it.
	context.AddTempFile(audioPath)

	if err := c.extractor.ExtractAudio(context.GetContext(), sourcePath, audioPath); err != nil {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), model.NewPipelineError(
			model.StageExtractionFailed, "failed to extract audio track", err))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetAudioPathParamName(), audioPath)
	context.Add(c.GetOutputParam(), audioPath)
}
