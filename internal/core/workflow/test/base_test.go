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

// Package workflow_test exercises the media describe pipeline end to end
// with fake extractor, transcriber, and model implementations. This file
// provides the suite bootstrap and the shared fakes.
package workflow_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"google.golang.org/genai"

	"github.com/jaycherian/gcp-go-media-describe/internal/cloud"
	"github.com/jaycherian/gcp-go-media-describe/internal/telemetry"
)

var ctx context.Context

func TestMain(m *testing.M) {
	var cancel context.CancelFunc
	ctx, cancel = context.WithCancel(context.Background())
	defer cancel()

	telemetry.SetupLogging()

	os.Exit(m.Run())
}

// newTestConfig builds a config with deterministic prompt templates so tests
// can assert on exactly what reached the models.
func newTestConfig() *cloud.Config {
	config := cloud.NewConfig()
	config.Application.Name = "media-describe-test"
	config.PromptTemplates = cloud.PromptTemplates{
		Transcribe:     "transcribe",
		FrameBatch:     "B{{.BATCH_START}}-{{.BATCH_END}}|{{.TRANSCRIPT}}",
		Synthesis:      "FINAL|{{.TRANSCRIPT}}|{{.BATCH_SECTIONS}}",
		TranscriptOnly: "TRANSCRIPT_ONLY|{{.TRANSCRIPT}}",
	}
	return config
}

// fakeExtractor is an in-memory Extractor. It writes tiny placeholder files
// where real frames and audio tracks would go and records every call.
type fakeExtractor struct {
	mu sync.Mutex

	duration      float64
	probeErr      error
	audioErr      error
	frameErr      error
	probeCalls    int
	audioCalls    int
	frameCalls    int
	lastAudioPath string
}

func (f *fakeExtractor) ProbeDuration(_ context.Context, _ string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.probeCalls++
	if f.probeErr != nil {
		return 0, f.probeErr
	}
	return f.duration, nil
}

func (f *fakeExtractor) ExtractAudio(_ context.Context, _ string, dst string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audioCalls++
	if f.audioErr != nil {
		return f.audioErr
	}
	f.lastAudioPath = dst
	return os.WriteFile(dst, []byte("fake-audio"), 0o600)
}

func (f *fakeExtractor) ExtractFrame(_ context.Context, _ string, _ float64, dst string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.frameCalls++
	if f.frameErr != nil {
		return f.frameErr
	}
	return os.WriteFile(dst, []byte("fake-jpeg"), 0o600)
}

// fakeTranscriber returns a canned transcript or error.
type fakeTranscriber struct {
	transcript string
	err        error
	calls      int
	lastPath   string
}

func (f *fakeTranscriber) Transcribe(_ context.Context, audioPath string) (string, error) {
	f.calls++
	f.lastPath = audioPath
	if f.err != nil {
		return "", f.err
	}
	return f.transcript, nil
}

// fakeModel implements cloud.GenerativeModel. The respond function sees the
// prompt text and the number of image parts and decides the outcome.
type fakeModel struct {
	mu      sync.Mutex
	prompts []string
	images  []int
	respond func(prompt string, imageCount int) (string, error)
}

func (f *fakeModel) GenerateContent(_ context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error) {
	prompt := ""
	imageCount := 0
	for _, c := range content {
		for _, part := range c.Parts {
			if part.Text != "" {
				prompt += part.Text
			}
			if part.InlineData != nil {
				imageCount++
			}
		}
	}

	f.mu.Lock()
	f.prompts = append(f.prompts, prompt)
	f.images = append(f.images, imageCount)
	f.mu.Unlock()

	text, err := f.respond(prompt, imageCount)
	if err != nil {
		return nil, err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: text}}}},
		},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{
			PromptTokenCount:     1,
			CandidatesTokenCount: 1,
		},
	}, nil
}

// errAlways is a reusable failure for fakes.
var errAlways = errors.New("induced failure")

// writeTempMedia creates a placeholder upload file and returns its path. The
// content carries no recognizable magic bytes.
func writeTempMedia(t *testing.T) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "upload-*.bin")
	if err != nil {
		t.Fatalf("failed to create temp media: %v", err)
	}
	if _, err := f.WriteString("placeholder media content"); err != nil {
		t.Fatalf("failed to write temp media: %v", err)
	}
	_ = f.Close()
	return f.Name()
}
