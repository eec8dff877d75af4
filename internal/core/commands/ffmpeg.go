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
// Responsibility pattern's Command interface. This file defines the media
// extraction adapter: the single place that shells out to ffprobe and
// ffmpeg. Pipeline commands depend on the Extractor interface so tests can
// run the pipeline without the binaries installed.
package commands

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
)

// ErrUnknownDuration is returned by ProbeDuration when ffprobe ran but its
// output could not be parsed as a duration.
var ErrUnknownDuration = errors.New("media duration could not be determined")

// Extractor is the media tool surface the pipeline depends on.
type Extractor interface {
	// ProbeDuration returns the media duration in seconds.
	ProbeDuration(ctx context.Context, path string) (float64, error)
	// ExtractAudio writes the media's audio track to dst.
	ExtractAudio(ctx context.Context, src string, dst string) error
	// ExtractFrame writes a single still frame at the given timestamp to dst.
	ExtractFrame(ctx context.Context, src string, timestampSeconds float64, dst string) error
}

// FFMpegExtractor implements Extractor by executing the ffprobe and ffmpeg
// binaries.
type FFMpegExtractor struct {
	FFmpegPath  string
	FFprobePath string
}

// NewFFMpegExtractor builds an extractor over the given binary paths. Paths
// may be bare command names resolved through PATH.
func NewFFMpegExtractor(ffmpegPath string, ffprobePath string) *FFMpegExtractor {
	return &FFMpegExtractor{FFmpegPath: ffmpegPath, FFprobePath: ffprobePath}
}

// ProbeDuration runs ffprobe and parses the container duration.
func (f *FFMpegExtractor) ProbeDuration(ctx context.Context, path string) (float64, error) {
	cmd := exec.CommandContext(ctx, f.FFprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return 0, fmt.Errorf("ffprobe failed for %s: %w (%s)", path, err, strings.TrimSpace(stderr.String()))
	}

	raw := strings.TrimSpace(stdout.String())
	duration, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		// Streams without container metadata print "N/A".
		return 0, ErrUnknownDuration
	}
	return duration, nil
}

// ExtractAudio strips the video stream and writes the audio track to dst.
// The destination's extension selects the output codec.
func (f *FFMpegExtractor) ExtractAudio(ctx context.Context, src string, dst string) error {
	cmd := exec.CommandContext(ctx, f.FFmpegPath,
		"-y", "-hide_banner",
		"-i", src,
		"-vn",
		"-acodec", "libmp3lame",
		"-q:a", "2",
		dst)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg audio extraction failed for %s: %w (%s)", src, err, strings.TrimSpace(stderr.String()))
	}
	if info, err := os.Stat(dst); err != nil || info.Size() == 0 {
		return fmt.Errorf("ffmpeg produced no audio output for %s", src)
	}
	return nil
}

// ExtractFrame writes one still image at the given timestamp. Seeking with
// -ss before -i is fast (keyframe seek) and accurate enough for sampling.
func (f *FFMpegExtractor) ExtractFrame(ctx context.Context, src string, timestampSeconds float64, dst string) error {
	cmd := exec.CommandContext(ctx, f.FFmpegPath,
		"-y", "-hide_banner",
		"-ss", fmt.Sprintf("%.3f", timestampSeconds),
		"-i", src,
		"-frames:v", "1",
		"-q:v", "2",
		dst)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg frame extraction failed for %s at %.3fs: %w (%s)", src, timestampSeconds, err, strings.TrimSpace(stderr.String()))
	}
	if info, err := os.Stat(dst); err != nil || info.Size() == 0 {
		return fmt.Errorf("ffmpeg produced no frame for %s at %.3fs", src, timestampSeconds)
	}
	return nil
}
