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

// Package cor (Chain of Responsibility) provides the fundamental building blocks
// for composing the media description pipeline out of small, individually
// testable commands. This file defines the interfaces that govern the behavior
// of every component in the pattern: the shared Context carried through a run,
// the atomic Command, and the Chain that sequences commands.
package cor

import (
	"context"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// CtxIn and CtxOut are the keys used to pipe the primary data flow between
// consecutive commands in a BaseChain.
const (
	// CtxIn is the default key for a command's primary input. The BaseChain
	// populates it with the previous command's CtxOut value.
	CtxIn = "__IN__"
	// CtxOut is the default key where a command places its primary output.
	CtxOut = "__OUT__"
)

// Context is the shared state object passed through a chain for the duration
// of one pipeline run. It acts as a property bag for inter-command data, an
// error collector, and — critically for this application — the registry of
// every temporary artifact (upload copy, extracted audio, frame directory)
// the run creates. The registry is drained by Close, which the orchestrator
// defers on every exit path.
type Context interface {
	// SetContext sets the standard Go context.Context, carrying cancellation
	// and OpenTelemetry trace information into the commands.
	SetContext(context context.Context)

	// GetContext retrieves the standard Go context.Context.
	GetContext() context.Context

	// Add stores a key-value pair, returning the Context for chaining.
	Add(key string, value interface{}) Context

	// AddError records an error produced by a command, keyed by command name.
	AddError(key string, err error)

	// GetErrors returns every error collected during the run.
	GetErrors() map[string]error

	// Get retrieves a value by key, or nil when absent.
	Get(key string) interface{}

	// Remove deletes a key-value pair.
	Remove(key string)

	// HasErrors reports whether any command has recorded an error.
	HasErrors() bool

	// AddTempFile registers a file or directory created during the run so it
	// can be deleted when the run ends. Paths must be registered immediately
	// on creation, before any operation that could fail.
	AddTempFile(file string)

	// GetTempFiles returns the registered artifact paths.
	GetTempFiles() []string

	// Close deletes every registered artifact. It is best-effort per path,
	// tolerates already-removed paths, and is safe to call more than once.
	Close()
}

// Executable is any object with a core execution step.
type Executable interface {
	// Execute runs the object's business logic, reading inputs from and
	// writing outputs to the given Context.
	Execute(context Context)
}

// Command represents an atomic, testable unit of work in the pipeline.
type Command interface {
	Executable

	// GetName returns the command's unique name for logging and telemetry.
	GetName() string

	// GetInputParam returns the context key for the command's primary input.
	GetInputParam() string

	// GetOutputParam returns the context key for the command's primary output.
	GetOutputParam() string

	// IsExecutable is a precondition check: commands that do not apply to the
	// current run (for example video-only steps on an audio upload) return
	// false and are skipped without error.
	IsExecutable(context Context) bool

	// GetTracer returns the OpenTelemetry tracer for this command.
	GetTracer() trace.Tracer

	// GetMeter returns the OpenTelemetry meter for creating metrics.
	GetMeter() metric.Meter

	// GetSuccessCounter returns a metric counter for successful executions.
	GetSuccessCounter() metric.Int64Counter

	// GetErrorCounter returns a metric counter for failed executions.
	GetErrorCounter() metric.Int64Counter
}

// Chain is a sequence of commands. A Chain is itself a Command, so chains can
// be nested (Composite pattern).
type Chain interface {
	Command

	// ContinueOnFailure configures whether the chain keeps executing after a
	// command records an error. The describe pipeline leaves this false: a
	// stage that tolerates failure absorbs it instead of recording it.
	ContinueOnFailure(bool) Chain

	// AddCommand appends a command to the execution sequence.
	AddCommand(command Command) Chain
}
