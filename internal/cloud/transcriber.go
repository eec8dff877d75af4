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

// Package cloud provides components for interacting with Google Cloud
// services. This file adapts the generative model into a speech transcriber:
// the audio track is sent as inline bytes with a transcription instruction,
// which keeps the stack on a single model family instead of adding a
// dedicated ASR service.
package cloud

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"google.golang.org/genai"
)

// Transcriber converts an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) (string, error)
}

// GenAITranscriber transcribes audio through a multi-modal generative model.
type GenAITranscriber struct {
	Model  GenerativeModel
	Prompt string // The transcription instruction sent alongside the audio bytes.
}

// NewGenAITranscriber builds a transcriber over the given model and prompt
// template.
func NewGenAITranscriber(model GenerativeModel, prompt string) *GenAITranscriber {
	return &GenAITranscriber{Model: model, Prompt: prompt}
}

// audioMIMEType maps a file extension to the MIME type the model expects.
func audioMIMEType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".wav":
		return "audio/wav"
	case ".flac":
		return "audio/flac"
	case ".ogg":
		return "audio/ogg"
	case ".aac":
		return "audio/aac"
	case ".m4a":
		return "audio/mp4"
	default:
		return "audio/mpeg"
	}
}

// Transcribe reads the audio file and asks the model for a verbatim
// transcript. The raw model text is returned untrimmed; the caller decides
// what an empty transcript means.
func (t *GenAITranscriber) Transcribe(ctx context.Context, audioPath string) (string, error) {
	data, err := os.ReadFile(audioPath)
	if err != nil {
		return "", fmt.Errorf("failed to read audio file %s: %w", audioPath, err)
	}

	content := []*genai.Content{{
		Role: "user",
		Parts: []*genai.Part{
			{Text: t.Prompt},
			NewInlineData(data, audioMIMEType(audioPath)),
		},
	}}

	resp, err := t.Model.GenerateContent(ctx, content)
	if err != nil {
		return "", fmt.Errorf("transcription call failed: %w", err)
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				sb.WriteString(part.Text)
			}
		}
	}
	return sb.String(), nil
}
