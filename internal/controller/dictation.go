// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package controller

import (
	"context"

	"github.com/tejzpr/sweety-vault/internal/capability"
	"go.uber.org/zap"
)

// InputMode is how the memory text is being entered.
type InputMode int

const (
	ModeTyped InputMode = iota
	ModeDictated
)

func (m InputMode) String() string {
	if m == ModeDictated {
		return "dictated"
	}
	return "typed"
}

// MarshalText renders the mode by name.
func (m InputMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// DictationTimeoutMessage is shown when the recognizer never acknowledges a start.
const DictationTimeoutMessage = "Dictation could not start. Check your microphone and try again."

// SetMode switches input mode. Leaving dictation stops listening.
func (c *Controller) SetMode(mode InputMode) error {
	if mode == ModeDictated && !c.caps.Recognizer.Supported() {
		return capability.ErrUnsupported
	}
	c.mu.Lock()
	c.mode = mode
	c.mu.Unlock()

	if mode == ModeTyped {
		c.StopDictation()
		return nil
	}
	c.publishState()
	return nil
}

// StartDictation clears the text and starts listening. If the recognizer does
// not acknowledge within the dictation timeout, listening is reset and the
// user is alerted.
func (c *Controller) StartDictation(ctx context.Context) error {
	if !c.caps.Recognizer.Supported() {
		return capability.ErrUnsupported
	}

	c.mu.Lock()
	if c.listening {
		c.mu.Unlock()
		return nil
	}
	c.mode = ModeDictated
	c.text = ""
	c.listening = true
	c.dictationSeq++
	seq := c.dictationSeq
	c.cancelDictationTimerLocked()
	c.dictationTimer = c.clock.AfterFunc(c.cfg.DictationTimeout, func() {
		c.dictationTimedOut(seq)
	})
	c.mu.Unlock()
	c.publishState()

	if err := c.caps.Audio.Unlock(ctx); err != nil {
		c.logger.Debug("audio unlock skipped", zap.Error(err))
	}

	err := c.caps.Recognizer.Start(ctx, capability.RecognizerHandlers{
		OnStart:      func() { c.dictationAcknowledged(seq) },
		OnTranscript: func(text string) { c.dictationTranscript(seq, text) },
		OnError:      func(err error) { c.dictationEnded(seq, err) },
		OnEnd:        func() { c.dictationEnded(seq, nil) },
	})
	if err != nil {
		c.logger.Warn("speech recognizer failed to start", zap.Error(err))
		c.dictationEnded(seq, nil)
		return err
	}
	return nil
}

// StopDictation stops listening and keeps the transcript captured so far.
func (c *Controller) StopDictation() {
	c.mu.Lock()
	c.dictationSeq++
	c.cancelDictationTimerLocked()
	wasListening := c.listening
	c.listening = false
	c.mu.Unlock()

	if wasListening {
		c.caps.Recognizer.Stop()
	}
	c.publishState()
}

// Listening reports whether dictation is active.
func (c *Controller) Listening() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.listening
}

func (c *Controller) dictationAcknowledged(seq uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if seq == c.dictationSeq {
		c.cancelDictationTimerLocked()
	}
}

func (c *Controller) dictationTranscript(seq uint64, text string) {
	c.mu.Lock()
	if seq != c.dictationSeq || !c.listening {
		c.mu.Unlock()
		return
	}
	c.text = text
	c.mu.Unlock()
	c.publishState()
}

func (c *Controller) dictationEnded(seq uint64, err error) {
	c.mu.Lock()
	if seq != c.dictationSeq {
		c.mu.Unlock()
		return
	}
	c.cancelDictationTimerLocked()
	c.listening = false
	c.mu.Unlock()

	if err != nil {
		c.logger.Warn("speech recognition error", zap.Error(err))
	}
	c.publishState()
}

func (c *Controller) dictationTimedOut(seq uint64) {
	c.mu.Lock()
	if seq != c.dictationSeq || c.dictationTimer == nil {
		c.mu.Unlock()
		return
	}
	c.dictationTimer = nil
	c.dictationSeq++
	c.listening = false
	c.mu.Unlock()

	c.logger.Warn("speech recognizer did not acknowledge start", zap.Duration("timeout", c.cfg.DictationTimeout))
	c.caps.Recognizer.Stop()
	c.caps.Notifier.Alert(DictationTimeoutMessage)
	c.events.publish(Event{Type: EventAlert, Message: DictationTimeoutMessage})
	c.publishState()
}

func (c *Controller) cancelDictationTimerLocked() {
	if c.dictationTimer != nil {
		c.dictationTimer.Stop()
		c.dictationTimer = nil
	}
}
