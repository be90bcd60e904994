// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package capability describes the device features a workspace may lean on:
// speech recognition, audio unlock, clipboard and user alerts. Server-side
// workspaces have none of them and use the Unsupported implementations.
package capability

import (
	"context"
	"errors"
)

// ErrUnsupported is returned by capabilities the host cannot provide.
var ErrUnsupported = errors.New("capability not supported")

// RecognizerHandlers are the callbacks a Recognizer reports through.
// Any of them may be nil.
type RecognizerHandlers struct {
	// OnStart acknowledges that audio capture has begun.
	OnStart func()
	// OnTranscript carries the full transcript so far.
	OnTranscript func(text string)
	OnError      func(err error)
	OnEnd        func()
}

// Recognizer turns microphone audio into incremental text.
type Recognizer interface {
	Supported() bool
	Start(ctx context.Context, h RecognizerHandlers) error
	// Stop ends capture. It is safe to call when not started.
	Stop()
}

// AudioUnlocker primes audio playback after a user gesture. Best-effort.
type AudioUnlocker interface {
	Unlock(ctx context.Context) error
}

// Clipboard writes text to the system clipboard.
type Clipboard interface {
	WriteText(ctx context.Context, text string) error
}

// Notifier shows a blocking alert to the user.
type Notifier interface {
	Alert(message string)
}

// Set bundles the capabilities handed to a workspace. Nil fields are
// replaced with the Unsupported implementations by Normalize.
type Set struct {
	Recognizer Recognizer
	Audio      AudioUnlocker
	Clipboard  Clipboard
	Notifier   Notifier
}

// Normalize fills nil members with their unsupported counterparts.
func (s Set) Normalize() Set {
	if s.Recognizer == nil {
		s.Recognizer = UnsupportedRecognizer{}
	}
	if s.Audio == nil {
		s.Audio = UnsupportedAudio{}
	}
	if s.Clipboard == nil {
		s.Clipboard = UnsupportedClipboard{}
	}
	if s.Notifier == nil {
		s.Notifier = DiscardNotifier{}
	}
	return s
}

// UnsupportedRecognizer reports no speech support.
type UnsupportedRecognizer struct{}

func (UnsupportedRecognizer) Supported() bool { return false }

func (UnsupportedRecognizer) Start(context.Context, RecognizerHandlers) error {
	return ErrUnsupported
}

func (UnsupportedRecognizer) Stop() {}

// UnsupportedAudio has nothing to unlock.
type UnsupportedAudio struct{}

func (UnsupportedAudio) Unlock(context.Context) error { return ErrUnsupported }

// UnsupportedClipboard rejects every write.
type UnsupportedClipboard struct{}

func (UnsupportedClipboard) WriteText(context.Context, string) error { return ErrUnsupported }

// DiscardNotifier drops alerts.
type DiscardNotifier struct{}

func (DiscardNotifier) Alert(string) {}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(message string)

// Alert calls f.
func (f NotifierFunc) Alert(message string) { f(message) }
