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

package services_test

import (
	"testing"

	"github.com/zeebo/assert"

	"github.com/jaycherian/gcp-go-media-describe/internal/core/sampling"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/services"
)

func newService() *services.DescribeService {
	return &services.DescribeService{
		DefaultPolicy: sampling.Policy{IntervalSeconds: 10, MaxFrames: 30},
	}
}

func TestResolvePolicyDefaults(t *testing.T) {
	svc := newService()
	policy := svc.ResolvePolicy(nil, nil)
	assert.Equal(t, 10.0, policy.IntervalSeconds)
	assert.Equal(t, 30, policy.MaxFrames)
}

func TestResolvePolicyAppliesOverrides(t *testing.T) {
	svc := newService()
	interval := 2.5
	maxFrames := 12
	policy := svc.ResolvePolicy(&interval, &maxFrames)
	assert.Equal(t, 2.5, policy.IntervalSeconds)
	assert.Equal(t, 12, policy.MaxFrames)
}

func TestResolvePolicyClampsOutOfRangeValues(t *testing.T) {
	svc := newService()

	lowInterval := 0.01
	highFrames := 10000
	policy := svc.ResolvePolicy(&lowInterval, &highFrames)
	assert.Equal(t, services.MinIntervalSeconds, policy.IntervalSeconds)
	assert.Equal(t, services.MaxMaxFrames, policy.MaxFrames)

	highInterval := 1e9
	lowFrames := -4
	policy = svc.ResolvePolicy(&highInterval, &lowFrames)
	assert.Equal(t, float64(services.MaxIntervalSeconds), policy.IntervalSeconds)
	assert.Equal(t, services.MinMaxFrames, policy.MaxFrames)
}
