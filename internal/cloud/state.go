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
// services. This file initializes and holds the client objects the
// application shares: one genai client and the configured, quota-aware agent
// models keyed by role. It acts as a small dependency injection container
// created once at startup and threaded through the workflows.
package cloud

import (
	"context"
	"log/slog"

	"google.golang.org/genai"
)

// Model role keys into ServiceClients.AgentModels. The configuration must
// define an agent model for each.
const (
	ModelKeyVision        = "vision"
	ModelKeySynthesis     = "synthesis"
	ModelKeyTranscription = "transcription"
)

// ServiceClients is the container for all external service handles. Sharing
// one struct keeps connection management in one place and makes the set of
// external dependencies explicit.
type ServiceClients struct {
	GenAIClient *genai.Client                           // Client for Google's Generative AI services (Vertex AI).
	AgentModels map[string]*QuotaAwareGenerativeAIModel // Configured GenAI models, keyed by role.
}

// NewCloudServiceClients initializes the genai client and builds a
// quota-aware model for every agent model in the configuration.
func NewCloudServiceClients(ctx context.Context, config *Config) (*ServiceClients, error) {
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		Project:  config.Application.GoogleProjectId,
		Location: config.Application.GoogleLocation,
		Backend:  genai.BackendVertexAI,
	})
	if err != nil {
		slog.Error("failed to create genai client", "error", err)
		return nil, err
	}

	agentModels := make(map[string]*QuotaAwareGenerativeAIModel)
	for amKey, values := range config.AgentModels {
		generationConfig := &genai.GenerateContentConfig{
			Temperature:       genai.Ptr[float32](values.Temperature),
			TopP:              genai.Ptr[float32](values.TopP),
			TopK:              genai.Ptr[float32](values.TopK),
			MaxOutputTokens:   values.MaxTokens,
			SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: values.SystemInstructions}}},
			SafetySettings:    DefaultSafetySettings,
			ResponseMIMEType:  values.OutputFormat,
			Tools:             []*genai.Tool{},
		}
		agentModels[amKey] = NewQuotaAwareModel(generationConfig, values.Model, gc.Models, values.RateLimit)
		slog.Debug("configured agent model", "key", amKey, "model", values.Model)
	}

	return &ServiceClients{
		GenAIClient: gc,
		AgentModels: agentModels,
	}, nil
}
