// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package scheduler

import (
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tejzpr/sweety-vault/internal/auth"
	"github.com/tejzpr/sweety-vault/internal/database"
	"gorm.io/gorm/logger"
)

func TestScheduler_RunsTasksOnEachTick(t *testing.T) {
	clock := clockwork.NewFakeClock()
	var runs int32
	s := NewScheduler(time.Minute, []Task{{
		Name: "count",
		Run: func() error {
			atomic.AddInt32(&runs, 1)
			return nil
		},
	}}, WithClock(clock))

	s.Start()
	defer s.Stop()

	clock.BlockUntil(1)
	clock.Advance(time.Minute)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 1 }, time.Second, 5*time.Millisecond)

	clock.Advance(time.Minute)
	assert.Eventually(t, func() bool { return atomic.LoadInt32(&runs) == 2 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_FailingTaskDoesNotStopOthers(t *testing.T) {
	var ran bool
	s := NewScheduler(time.Minute, []Task{
		{Name: "broken", Run: func() error { return errors.New("boom") }},
		{Name: "fine", Run: func() error { ran = true; return nil }},
	})

	s.RunOnce()
	assert.True(t, ran)
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := NewScheduler(time.Minute, nil, WithClock(clockwork.NewFakeClock()))
	s.Start()
	s.Stop()
	s.Stop()
}

func TestTokenCleanup(t *testing.T) {
	db, err := database.Open(&database.Config{
		Type:       database.TypeSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "sched.db"),
		LogLevel:   logger.Silent,
	})
	require.NoError(t, err)
	defer database.Close(db)

	require.NoError(t, db.Create(&database.SweetyUser{ID: "u-1", Email: "a@example.com"}).Error)
	require.NoError(t, db.Create(&database.SweetyAuthToken{
		UserID: "u-1", AccessToken: "old", RefreshToken: "old-r", ExpiresAt: time.Now().Add(-time.Hour),
	}).Error)

	tm := auth.NewTokenManager(db, 24)
	fresh, err := tm.GenerateToken("u-1")
	require.NoError(t, err)

	task := TokenCleanup(tm, nil)
	assert.Equal(t, "token-cleanup", task.Name)
	require.NoError(t, task.Run())

	var count int64
	require.NoError(t, db.Model(&database.SweetyAuthToken{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	_, err = tm.ValidateToken(fresh.AccessToken)
	assert.NoError(t, err)
}
