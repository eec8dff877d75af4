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

package main

import (
	"context"
	"log"
	"os"

	"github.com/jaycherian/gcp-go-media-describe/internal/cloud"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/services"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/workflow"
)

// StateManager holds the shared components for the application.
type StateManager struct {
	config          *cloud.Config
	cloud           *cloud.ServiceClients
	describeService *services.DescribeService
}

var state = &StateManager{}

func SetupOS() (err error) {
	err = os.Setenv(cloud.EnvConfigFilePrefix, "configs")
	if err != nil {
		return err
	}
	err = os.Setenv(cloud.EnvConfigRuntime, "local")
	return err
}

func GetConfig() *cloud.Config {
	if state.config == nil {
		err := SetupOS()
		if err != nil {
			log.Fatalf("failed to setup os: %v\n", err)
		}
		config := cloud.NewConfig()
		cloud.LoadConfig(&config)
		state.config = config
	}
	return state.config
}

// InitState wires the service clients, the workflow, and the describe
// service the HTTP handlers use.
func InitState(ctx context.Context) {
	config := GetConfig()

	cloudClients, err := cloud.NewCloudServiceClients(ctx, config)
	if err != nil {
		panic(err)
	}
	state.cloud = cloudClients

	describeWorkflow := workflow.NewMediaDescribeWorkflowFromClients(config, cloudClients)
	state.describeService = &services.DescribeService{
		Workflow:      describeWorkflow,
		DefaultPolicy: config.Sampling,
	}
}
