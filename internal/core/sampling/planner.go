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

// Package sampling decides which moments of a video get a still frame
// extracted. The planner is pure: it maps a media duration and a policy to a
// list of timestamps, with no I/O, so the rest of the pipeline can treat
// frame selection as data.
package sampling

import "math"

// Policy is the operator-tunable sampling configuration.
type Policy struct {
	// IntervalSeconds is the spacing between sampled frames.
	IntervalSeconds float64 `toml:"interval_seconds" json:"interval_seconds"`
	// MaxFrames caps the number of frames per run regardless of duration.
	MaxFrames int `toml:"max_frames" json:"max_frames"`
}

// PlanKind tells the extractor how the timestamps were chosen.
type PlanKind string

const (
	// PlanEmpty means no frames should be extracted.
	PlanEmpty PlanKind = "empty"
	// PlanSingleMidpoint means the media was shorter than one interval and a
	// single representative frame was chosen near its middle.
	PlanSingleMidpoint PlanKind = "single_midpoint"
	// PlanRegular means frames were placed at regular interval multiples.
	PlanRegular PlanKind = "regular"
)

// Plan is the output of the planner: an ordered list of timestamps, each
// within the media's duration.
type Plan struct {
	Kind       PlanKind
	Timestamps []float64
}

// NewPlan computes the frame sampling plan for a media file.
//
// Frames are placed at successive multiples of the interval, capped by
// MaxFrames. Candidates that overshoot the reported duration by more than
// half a second are dropped (container metadata routinely over- or
// under-reports duration slightly); candidates inside that tolerance are
// clamped to the duration. Media shorter than one interval still yields one
// frame near its midpoint, so every playable video contributes at least some
// visual signal.
func NewPlan(durationSeconds float64, policy Policy) Plan {
	if durationSeconds <= 0 || policy.IntervalSeconds <= 0 || policy.MaxFrames <= 0 {
		return Plan{Kind: PlanEmpty, Timestamps: nil}
	}

	rawCount := int(math.Floor(durationSeconds / policy.IntervalSeconds))
	if rawCount == 0 && durationSeconds > 0.1 {
		rawCount = 1
	}
	if rawCount == 0 {
		return Plan{Kind: PlanEmpty, Timestamps: nil}
	}

	cappedCount := rawCount
	if cappedCount > policy.MaxFrames {
		cappedCount = policy.MaxFrames
	}

	timestamps := make([]float64, 0, cappedCount)
	for i := 1; i <= cappedCount; i++ {
		ts := float64(i) * policy.IntervalSeconds
		if ts > durationSeconds+0.5 {
			continue
		}
		if ts > durationSeconds {
			ts = durationSeconds
		}
		timestamps = append(timestamps, ts)
	}

	if len(timestamps) == 0 {
		midpoint := durationSeconds / 2
		if midpoint < 0.1 {
			midpoint = 0.1
		}
		return Plan{Kind: PlanSingleMidpoint, Timestamps: []float64{midpoint}}
	}

	return Plan{Kind: PlanRegular, Timestamps: timestamps}
}
