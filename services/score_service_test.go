package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipitupAPI/internal/activity"
	"ipitupAPI/store"
)

func streakFixture(t *testing.T, lastActivity time.Time, storedStreak int) (*ScoreService, *store.MemoryStore) {
	t.Helper()

	st := store.NewMemoryStore()
	u := newTestUser(1)
	u.DailyStreak = storedStreak
	st.PutUser(u)

	if !lastActivity.IsZero() {
		err := st.AddActivity(context.Background(), &activity.Activity{
			UserID:   1,
			Score:    10,
			Duration: 30,
			Date:     lastActivity,
		})
		require.NoError(t, err)
	}

	svc := NewScoreService(st)
	svc.now = func() time.Time {
		return time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)
	}
	return svc, st
}

func TestRecomputeDailyStreakYesterdayExtends(t *testing.T) {
	svc, st := streakFixture(t, time.Date(2026, 8, 30, 23, 45, 0, 0, time.UTC), 4)

	streak, err := svc.RecomputeDailyStreak(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 5, streak)

	stored, err := st.DailyStreak(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 5, stored)
}

func TestRecomputeDailyStreakRepeatSameDay(t *testing.T) {
	svc, st := streakFixture(t, time.Date(2026, 8, 30, 23, 45, 0, 0, time.UTC), 4)
	ctx := context.Background()

	streak, err := svc.RecomputeDailyStreak(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, streak)

	// A second run on the same day, say a second login before the day's
	// first activity, must not extend the streak again.
	streak, err = svc.RecomputeDailyStreak(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, streak)

	stored, err := st.DailyStreak(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, stored)
}

func TestRecomputeDailyStreakTodayKeepsStored(t *testing.T) {
	svc, st := streakFixture(t, time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC), 4)

	streak, err := svc.RecomputeDailyStreak(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, streak)

	stored, err := st.DailyStreak(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 4, stored)
}

func TestRecomputeDailyStreakGapResetsToOne(t *testing.T) {
	svc, _ := streakFixture(t, time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC), 9)

	streak, err := svc.RecomputeDailyStreak(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1, streak)
}

func TestRecomputeDailyStreakNoActivityResetsToZero(t *testing.T) {
	svc, st := streakFixture(t, time.Time{}, 7)

	streak, err := svc.RecomputeDailyStreak(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, streak)

	stored, err := st.DailyStreak(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 0, stored)
}

func TestRecomputeDailyStreakMidnightBoundary(t *testing.T) {
	// 23:59 yesterday and 00:01 today are adjacent calendar days even
	// though only minutes apart.
	svc, _ := streakFixture(t, time.Date(2026, 8, 30, 23, 59, 0, 0, time.UTC), 2)
	svc.now = func() time.Time {
		return time.Date(2026, 8, 31, 0, 1, 0, 0, time.UTC)
	}

	streak, err := svc.RecomputeDailyStreak(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 3, streak)
}

func TestIncrementTotalScoreValidation(t *testing.T) {
	st := store.NewMemoryStore()
	st.PutUser(newTestUser(1))
	svc := NewScoreService(st)
	ctx := context.Background()

	var validationErr *ValidationError
	require.ErrorAs(t, svc.IncrementTotalScore(ctx, 0, 10), &validationErr)
	require.ErrorAs(t, svc.IncrementTotalScore(ctx, 1, -1), &validationErr)

	require.NoError(t, svc.IncrementTotalScore(ctx, 1, 0))
	require.NoError(t, svc.IncrementTotalScore(ctx, 1, 40))

	total, err := st.TotalScore(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 40, total)
}

func TestIncrementTotalScoreUnknownUser(t *testing.T) {
	svc := NewScoreService(store.NewMemoryStore())

	err := svc.IncrementTotalScore(context.Background(), 42, 10)
	var persistenceErr *PersistenceError
	require.ErrorAs(t, err, &persistenceErr)
	assert.ErrorIs(t, err, store.ErrNotFound)
}
