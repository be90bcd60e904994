// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package nickname

import (
	"context"
	"errors"
)

var (
	// ErrEmptyMemory is returned when Generate is called with blank text.
	ErrEmptyMemory = errors.New("memory text is empty")

	// ErrInFlight is returned when a generation is already outstanding.
	ErrInFlight = errors.New("generation already in flight")

	// ErrMissingCredential indicates that no LLM API key is configured.
	ErrMissingCredential = errors.New("llm credential not configured")

	// ErrInvalidResponse indicates the LLM reply could not be parsed into labels.
	ErrInvalidResponse = errors.New("invalid llm response")

	// ErrEmptyResponse indicates the LLM returned no text block.
	ErrEmptyResponse = errors.New("llm returned no text")
)

// Completer sends one prompt to an LLM endpoint and returns its text reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// CompleterFunc adapts a function to the Completer interface.
type CompleterFunc func(ctx context.Context, prompt string) (string, error)

// Complete calls f.
func (f CompleterFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}

// Unconfigured is the completer used when no credential is available.
// Every call fails with ErrMissingCredential so generation falls back.
type Unconfigured struct{}

// Complete always returns ErrMissingCredential.
func (Unconfigured) Complete(context.Context, string) (string, error) {
	return "", ErrMissingCredential
}
