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
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/jaycherian/gcp-go-media-describe/internal/core/commands"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/model"
	"github.com/jaycherian/gcp-go-media-describe/internal/telemetry"
)

func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()

	shutdownTelemetry, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()
	r.Use(otelgin.Middleware("media-describe-server"))
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		DescribeRouter(apiV1)
	}

	srv := &http.Server{
		Addr:    ":8080",
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		slog.Error("Telemetry Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// statusForStage maps pipeline failure stages to HTTP response codes.
// Caller mistakes are 4xx; upstream model trouble is a bad gateway.
func statusForStage(stage model.Stage) int {
	switch stage {
	case model.StageUnsupportedMediaType, model.StageEmptyTranscript:
		return http.StatusBadRequest
	case model.StageExtractionFailed, model.StageTranscriptionFailed:
		return http.StatusUnprocessableEntity
	case model.StageSynthesisFailed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// DescribeRouter sets up the describe endpoints: one to run the pipeline on
// an upload and one to inspect the active sampling policy.
func DescribeRouter(r *gin.RouterGroup) {
	describe := r.Group("/describe")
	{
		describe.POST("", func(c *gin.Context) {
			fileHeader, err := c.FormFile("file")
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "multipart field 'file' is required"})
				return
			}

			// Optional per-request sampling overrides.
			var intervalOverride *float64
			if raw := c.PostForm("interval_seconds"); raw != "" {
				v, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "interval_seconds must be a number"})
					return
				}
				intervalOverride = &v
			}
			var maxFramesOverride *int
			if raw := c.PostForm("max_frames"); raw != "" {
				v, err := strconv.Atoi(raw)
				if err != nil {
					c.JSON(http.StatusBadRequest, gin.H{"error": "max_frames must be an integer"})
					return
				}
				maxFramesOverride = &v
			}

			localPath := filepath.Join(os.TempDir(), uuid.New().String()+filepath.Ext(fileHeader.Filename))
			if err := c.SaveUploadedFile(fileHeader, localPath); err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
				return
			}
			defer func() {
				if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
					log.Printf("failed to remove upload %s: %v\n", localPath, err)
				}
			}()

			policy := state.describeService.ResolvePolicy(intervalOverride, maxFramesOverride)
			declaredType := fileHeader.Header.Get("Content-Type")

			result, err := state.describeService.Describe(c.Request.Context(), localPath, declaredType, policy)
			if err != nil {
				if pe, ok := model.AsPipelineError(err); ok {
					c.JSON(statusForStage(pe.Stage), gin.H{"error": pe.Message, "stage": string(pe.Stage)})
					return
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusOK, result)
		})

		describe.GET("/policy", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"sampling":             state.describeService.DefaultPolicy,
				"max_images_per_batch": commands.MaxImagesPerBatch,
			})
		})
	}
}
