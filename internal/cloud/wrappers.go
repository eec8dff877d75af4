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
// services. This file wraps the Generative AI client with a Decorator that
// adds rate limiting and a retry pass, so pipeline commands never talk to
// Vertex AI quota-blind. Vertex AI enforces per-minute request quotas, and
// transient network failures are routine; centralizing both concerns here
// keeps the pipeline commands free of backoff logic.
package cloud

import (
	"context"
	"errors"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// GenerativeModel is the call surface the pipeline depends on. Commands
// accept this interface rather than the concrete quota-aware wrapper so that
// tests can substitute fakes.
type GenerativeModel interface {
	GenerateContent(ctx context.Context, content []*genai.Content) (*genai.GenerateContentResponse, error)
}

// QuotaAwareGenerativeAIModel decorates the genai model handle with a rate
// limiter and a bounded retry. It carries the per-model generation config
// (temperature, system instructions, safety settings) so every call through
// it is uniformly configured.
type QuotaAwareGenerativeAIModel struct {
	GenerativeContentConfig *genai.GenerateContentConfig
	ModelName               string
	ModelHandle             *genai.Models
	RateLimit               rate.Limiter
}

// NewQuotaAwareModel wraps a model configuration and handle with a limiter
// allowing `requestsPerSecond` calls per second with an equal burst.
func NewQuotaAwareModel(config *genai.GenerateContentConfig, name string, handle *genai.Models, requestsPerSecond int) *QuotaAwareGenerativeAIModel {
	return &QuotaAwareGenerativeAIModel{
		GenerativeContentConfig: config,
		ModelName:               name,
		ModelHandle:             handle,
		RateLimit:               *rate.NewLimiter(rate.Every(time.Second/1), requestsPerSecond),
	}
}

// GenerateContent executes one generation call under the rate limiter. When
// the limiter has no token available it blocks until one is; when the call
// fails it retries up to three times with a pause between attempts, then
// gives up with an error.
func (q *QuotaAwareGenerativeAIModel) GenerateContent(ctx context.Context, content []*genai.Content) (resp *genai.GenerateContentResponse, err error) {
	if err := q.RateLimit.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err = q.ModelHandle.GenerateContent(ctx, q.ModelName, content, q.GenerativeContentConfig)
	if err == nil {
		return resp, nil
	}

	retryCount, ok := ctx.Value(retryKey{}).(int)
	if !ok {
		retryCount = 0
	}
	if retryCount >= MaxRetries {
		return nil, errors.New("failed generation on max retries")
	}
	errCtx := context.WithValue(ctx, retryKey{}, retryCount+1)

	// Give the service time to recover before the next attempt, but respect
	// cancellation: a per-batch deadline must not be stretched by the pause.
	select {
	case <-time.After(retryPause):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return q.GenerateContent(errCtx, content)
}

// retryKey is the context key tracking attempt counts across the recursive
// retry calls.
type retryKey struct{}

// retryPause is the delay between retry attempts.
const retryPause = 5 * time.Second
