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

// Package services contains the application-facing service layer sitting
// between the HTTP handlers and the pipeline workflow. This file implements
// the describe service: per-request policy resolution and run execution.
package services

import (
	"context"

	"github.com/jaycherian/gcp-go-media-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/sampling"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/workflow"
)

// Bounds for per-request sampling policy overrides. Values outside these
// ranges are clamped, keeping the planner's arithmetic meaningful while
// still honoring the caller's intent.
const (
	MinIntervalSeconds = 0.5
	MaxIntervalSeconds = 3600
	MinMaxFrames       = 1
	MaxMaxFrames       = 120
)

// DescribeService runs description pipelines with per-request policy
// overrides applied over the configured defaults.
type DescribeService struct {
	Workflow      *workflow.MediaDescribeWorkflow
	DefaultPolicy sampling.Policy
}

// ResolvePolicy applies optional per-request overrides to the default
// sampling policy. Nil pointers leave the corresponding default untouched;
// supplied values are clamped to the service bounds.
func (s *DescribeService) ResolvePolicy(intervalSeconds *float64, maxFrames *int) sampling.Policy {
	policy := s.DefaultPolicy

	if intervalSeconds != nil {
		v := *intervalSeconds
		if v < MinIntervalSeconds {
			v = MinIntervalSeconds
		}
		if v > MaxIntervalSeconds {
			v = MaxIntervalSeconds
		}
		policy.IntervalSeconds = v
	}

	if maxFrames != nil {
		v := *maxFrames
		if v < MinMaxFrames {
			v = MinMaxFrames
		}
		if v > MaxMaxFrames {
			v = MaxMaxFrames
		}
		policy.MaxFrames = v
	}

	return policy
}

// Describe runs one pipeline over the uploaded file and returns its result
// or a *model.PipelineError.
func (s *DescribeService) Describe(ctx context.Context, sourcePath string, declaredMediaType string, policy sampling.Policy) (*model.DescribeResult, error) {
	return s.Workflow.Run(ctx, sourcePath, declaredMediaType, policy)
}
