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

// Package cloud defines the data structures for application configuration,
// loaded from TOML files, plus the clients that talk to Google Cloud. This
// file centralizes the configuration structs: application identity, ffmpeg
// binary locations, the frame sampling policy, prompt templates, per-stage
// timeouts, and the Vertex AI model definitions.
package cloud

import (
	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-media-describe/internal/core/sampling"
)

// DefaultSafetySettings defines the default content safety thresholds for
// GenAI models. They are non-restrictive: uploads are operator-supplied, and
// a blocked response would surface as a confusing empty description.
var DefaultSafetySettings = []*genai.SafetySetting{
	{
		Category:  genai.HarmCategoryDangerousContent,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHarassment,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategoryHateSpeech,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
	{
		Category:  genai.HarmCategorySexuallyExplicit,
		Threshold: genai.HarmBlockThresholdBlockNone,
	},
}

// FFmpeg holds the locations of the media tool binaries. Paths may be bare
// command names when the binaries are on PATH.
type FFmpeg struct {
	FFmpegPath  string `toml:"ffmpeg_path"`
	FFprobePath string `toml:"ffprobe_path"`
}

// PromptTemplates holds the text templates for prompts sent to the GenAI
// models. Templates are Go text/template sources; the workflow parses them
// once at construction time.
type PromptTemplates struct {
	// Transcribe instructs the model to produce a verbatim transcript of
	// inline audio. No parameters.
	Transcribe string `toml:"transcribe"`
	// FrameBatch describes one batch of frames in the context of the
	// transcript. Params: {{.TRANSCRIPT}}, {{.BATCH_START}}, {{.BATCH_END}}.
	FrameBatch string `toml:"frame_batch"`
	// Synthesis combines the transcript and batch descriptions into the final
	// document. Params: {{.TRANSCRIPT}}, {{.BATCH_SECTIONS}}.
	Synthesis string `toml:"synthesis"`
	// TranscriptOnly produces the final document from the transcript alone,
	// used for audio uploads and fully degraded video runs. Params:
	// {{.TRANSCRIPT}}.
	TranscriptOnly string `toml:"transcript_only"`
}

// Timeouts holds per-stage deadlines in seconds.
type Timeouts struct {
	// BatchSeconds bounds a single vision batch call. A timeout fails that
	// batch only, never the run.
	BatchSeconds int `toml:"batch_seconds"`
	// TranscribeSeconds bounds the transcription call.
	TranscribeSeconds int `toml:"transcribe_seconds"`
	// SynthesisSeconds bounds the final synthesis call.
	SynthesisSeconds int `toml:"synthesis_seconds"`
}

// VertexAiLLMModel represents the configuration for a Vertex AI large
// language model (LLM).
type VertexAiLLMModel struct {
	Model              string  `toml:"model"`               // The name of the Vertex AI LLM.
	SystemInstructions string  `toml:"system_instructions"` // The system instructions for the LLM.
	Temperature        float32 `toml:"temperature"`         // The temperature parameter for the LLM.
	TopP               float32 `toml:"top_p"`               // The top_p parameter for the LLM.
	TopK               float32 `toml:"top_k"`               // The top_k parameter for the LLM.
	MaxTokens          int32   `toml:"max_tokens"`          // The maximum number of tokens for the LLM output.
	OutputFormat       string  `toml:"output_format"`       // The desired output MIME type for the LLM.
	RateLimit          int     `toml:"rate_limit"`          // The rate limit for the LLM in requests per second.
}

// Config is the root container for application configuration, loaded from
// TOML files.
type Config struct {
	Application struct {
		Name            string `toml:"name"`              // The name of the application.
		GoogleProjectId string `toml:"google_project_id"` // The Google Cloud project ID.
		GoogleLocation  string `toml:"location"`          // The Google Cloud location.
	} `toml:"application"`
	FFmpeg          FFmpeg                      `toml:"ffmpeg"`           // Media tool binary locations.
	Sampling        sampling.Policy             `toml:"sampling"`         // Default frame sampling policy.
	PromptTemplates PromptTemplates             `toml:"prompt_templates"` // Prompt templates configuration.
	Timeouts        Timeouts                    `toml:"timeouts"`         // Per-stage deadlines.
	AgentModels     map[string]VertexAiLLMModel `toml:"agent_models"`     // Vertex AI LLM models, keyed by role ("vision", "synthesis", "transcription").
}

// NewConfig creates a new, initialized Config. The map field must be
// initialized before the TOML loader populates it.
func NewConfig() *Config {
	return &Config{
		AgentModels: make(map[string]VertexAiLLMModel),
	}
}
