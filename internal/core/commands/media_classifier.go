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
// Responsibility pattern's Command interface. This file defines the first
// command in the describe pipeline: deciding whether the upload is audio or
// video. The declared Content-Type is trusted when it is unambiguous;
// otherwise the file's magic bytes are sniffed. Anything that is neither
// audio nor video is a fatal, user-facing rejection.
package commands

import (
	"fmt"
	"strings"

	"github.com/h2non/filetype"

	"github.com/jaycherian/gcp-go-media-describe/internal/core/cor"
	"github.com/jaycherian/gcp-go-media-describe/internal/core/model"
)

// MediaClassifier resolves the upload's MediaKind from its declared MIME
// type or, failing that, its content.
type MediaClassifier struct {
	cor.BaseCommand
}

// NewMediaClassifier is the constructor for the MediaClassifier command.
func NewMediaClassifier(name string) *MediaClassifier {
	out := &MediaClassifier{BaseCommand: *cor.NewBaseCommand(name)}
	out.InputParamName = GetSourcePathParamName()
	return out
}

// kindFromMIME maps a MIME type string to a MediaKind, or "" when the type
// is neither audio nor video.
func kindFromMIME(mimeType string) model.MediaKind {
	switch {
	case strings.HasPrefix(mimeType, "video/"):
		return model.MediaKindVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return model.MediaKindAudio
	default:
		return ""
	}
}

// Execute resolves the media kind and stores it in the context.
func (c *MediaClassifier) Execute(context cor.Context) {
	sourcePath := context.Get(c.GetInputParam()).(string)

	declared, _ := context.Get(GetDeclaredTypeParamName()).(string)
	kind := kindFromMIME(declared)

	if kind == "" {
		// Declared type absent or unhelpful: sniff the magic bytes.
		match, err := filetype.MatchFile(sourcePath)
		if err == nil {
			kind = kindFromMIME(match.MIME.Value)
		}
	}

	if kind == "" {
		c.GetErrorCounter().Add(context.GetContext(), 1)
		context.AddError(c.GetName(), model.NewPipelineError(
			model.StageUnsupportedMediaType,
			fmt.Sprintf("upload is neither audio nor video (declared %q)", declared),
			nil))
		return
	}

	c.GetSuccessCounter().Add(context.GetContext(), 1)
	context.Add(GetMediaKindParamName(), kind)
	context.Add(c.GetOutputParam(), kind)
}
