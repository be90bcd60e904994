// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package scheduler runs housekeeping tasks on a fixed interval.
package scheduler

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/tejzpr/sweety-vault/internal/auth"
	"go.uber.org/zap"
)

// Task is one named unit of periodic work.
type Task struct {
	Name string
	Run  func() error
}

// Scheduler handles periodic maintenance operations
type Scheduler struct {
	interval time.Duration
	tasks    []Task
	clock    clockwork.Clock
	logger   *zap.Logger

	stopOnce sync.Once
	stopChan chan struct{}
	done     chan struct{}
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithClock sets the clock driving the ticker.
func WithClock(c clockwork.Clock) Option {
	return func(s *Scheduler) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewScheduler creates a new scheduler
func NewScheduler(interval time.Duration, tasks []Task, opts ...Option) *Scheduler {
	s := &Scheduler{
		interval: interval,
		tasks:    tasks,
		clock:    clockwork.NewRealClock(),
		logger:   zap.NewNop(),
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start begins the scheduler
func (s *Scheduler) Start() {
	ticker := s.clock.NewTicker(s.interval)
	go func() {
		defer close(s.done)
		for {
			select {
			case <-ticker.Chan():
				s.RunOnce()
			case <-s.stopChan:
				ticker.Stop()
				return
			}
		}
	}()
}

// Stop stops the scheduler and waits for a running pass to finish.
// It must only be called after Start.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	<-s.done
}

// RunOnce runs every task in order. A failing task does not stop the rest.
func (s *Scheduler) RunOnce() {
	for _, task := range s.tasks {
		if err := task.Run(); err != nil {
			s.logger.Warn("scheduled task failed", zap.String("task", task.Name), zap.Error(err))
		}
	}
}

// TokenCleanup removes expired local access tokens.
func TokenCleanup(tm *auth.TokenManager, logger *zap.Logger) Task {
	if logger == nil {
		logger = zap.NewNop()
	}
	return Task{
		Name: "token-cleanup",
		Run: func() error {
			n, err := tm.CleanExpiredTokens()
			if err != nil {
				return err
			}
			if n > 0 {
				logger.Info("expired tokens removed", zap.Int64("count", n))
			}
			return nil
		},
	}
}
