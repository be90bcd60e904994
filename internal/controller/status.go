// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package controller

var statusPhrases = []string{
	"Reading your memory...",
	"Sprinkling some sweetness...",
	"Consulting the cupid council...",
	"Warming up the love letters...",
	"Polishing the nicknames...",
}

// StatusPhrases returns the rotating generation status phrases.
func StatusPhrases() []string {
	return append([]string(nil), statusPhrases...)
}

// startStatusLocked shows the first phrase and starts rotating.
func (c *Controller) startStatusLocked() {
	c.stopStatusLocked()

	c.statusIndex = 0
	c.status = statusPhrases[0]

	ticker := c.clock.NewTicker(c.cfg.StatusInterval)
	done := make(chan struct{})
	c.statusTicker = ticker
	c.statusDone = done

	go func() {
		for {
			select {
			case <-done:
				return
			case <-ticker.Chan():
				if !c.advanceStatus(done) {
					return
				}
			}
		}
	}()
}

func (c *Controller) advanceStatus(done chan struct{}) bool {
	c.mu.Lock()
	if c.statusDone != done || c.phase != PhaseGenerating {
		c.mu.Unlock()
		return false
	}
	c.statusIndex = (c.statusIndex + 1) % len(statusPhrases)
	c.status = statusPhrases[c.statusIndex]
	c.mu.Unlock()
	c.publishState()
	return true
}

func (c *Controller) stopStatusLocked() {
	if c.statusTicker != nil {
		c.statusTicker.Stop()
		close(c.statusDone)
		c.statusTicker = nil
		c.statusDone = nil
	}
	c.status = ""
}

// Status returns the current generation status phrase, empty when idle.
func (c *Controller) Status() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}
