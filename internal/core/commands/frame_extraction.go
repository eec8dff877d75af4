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
// Responsibility pattern's Command interface. This file defines frame
// extraction for video uploads: probe the duration, compute the sampling
// plan, and pull one still per planned timestamp into a temp directory
// registered for cleanup.
//
// This stage is deliberately degraded-tolerant. A video whose frames cannot
// be extracted still has an audio track worth describing, so failures here
// are logged and absorbed — the command always leaves a frame slice in the
// context, possibly empty, and never records an error.
package commands

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jaycherian/gcp-go-media-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/sampling"
)

// FrameExtraction samples still frames from a video upload according to the
// run's sampling policy.
type FrameExtraction struct {
	cor.BaseCommand
	extractor Extractor
}

// NewFrameExtraction is the constructor for the FrameExtraction command.
func NewFrameExtraction(name string, extractor Extractor) *FrameExtraction {
	out := &FrameExtraction{
		BaseCommand: *cor.NewBaseCommand(name),
		extractor:   extractor,
	}
	out.InputParamName = GetSourcePathParamName()
	return out
}

// IsExecutable limits this command to video runs. Audio runs skip it.
func (c *FrameExtraction) IsExecutable(context cor.Context) bool {
	if !c.BaseCommand.IsExecutable(context) {
		return false
	}
	kind, _ := context.Get(GetMediaKindParamName()).(model.MediaKind)
	return kind == model.MediaKindVideo
}

// degrade logs the failure, stores an empty frame slice, and counts the run
// as degraded rather than failed.
func (c *FrameExtraction) degrade(context cor.Context, reason string, err error) {
	slog.Warn("frame extraction degraded, continuing without visual input",
		"reason", reason, "error", err)
	c.GetErrorCounter().Add(context.GetContext(), 1)
	context.Add(GetFramesParamName(), []model.Frame{})
	context.Add(c.GetOutputParam(), []model.Frame{})
}

// Execute probes the media, plans the sample points, and extracts frames.
func (c *FrameExtraction) Execute(context cor.Context) {
	sourcePath := context.Get(c.GetInputParam()).(string)
	policy := context.Get(GetSamplingPolicyParamName()).(sampling.Policy)
	goCtx := context.GetContext()

	duration, err := c.extractor.ProbeDuration(goCtx, sourcePath)
	if err != nil {
		c.degrade(context, "probe failed", err)
		return
	}

	plan := sampling.NewPlan(duration, policy)
	if plan.Kind == sampling.PlanEmpty {
		slog.Info("sampling plan is empty, skipping frame extraction", "duration", duration)
		context.Add(GetFramesParamName(), []model.Frame{})
		context.Add(c.GetOutputParam(), []model.Frame{})
		return
	}

	// Register the directory before writing anything into it, so a partial
	// extraction is still reclaimed at the end of the run.
	frameDir, err := os.MkdirTemp("", "frames-")
	if err != nil {
		c.degrade(context, "temp directory creation failed", err)
		return
	}
	context.AddTempFile(frameDir)

	frames := make([]model.Frame, 0, len(plan.Timestamps))
	for i, ts := range plan.Timestamps {
		framePath := filepath.Join(frameDir, fmt.Sprintf("frame_%04d.jpg", i+1))
		if err := c.extractor.ExtractFrame(goCtx, sourcePath, ts, framePath); err != nil {
			slog.Warn("failed to extract frame, skipping", "timestamp", ts, "error", err)
			continue
		}
		image, err := os.ReadFile(framePath)
		if err != nil {
			slog.Warn("failed to read extracted frame, skipping", "path", framePath, "error", err)
			continue
		}
		frames = append(frames, model.Frame{
			Index:     len(frames) + 1,
			Timestamp: ts,
			Image:     image,
		})
	}

	if len(frames) == 0 {
		c.degrade(context, "no frames extracted", nil)
		return
	}

	slog.Info("extracted frames", "planned", len(plan.Timestamps), "extracted", len(frames), "kind", string(plan.Kind))
	c.GetSuccessCounter().Add(goCtx, 1)
	context.Add(GetFramesParamName(), frames)
	context.Add(c.GetOutputParam(), frames)
}
