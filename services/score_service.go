package services

import (
	"context"
	"errors"
	"time"

	"ipitupAPI/store"
)

// ScoreService is the score ledger: the cumulative total lives behind the
// store's atomic increment, and the daily streak is recomputed here from the
// activity history.
type ScoreService struct {
	store store.Store
	now   func() time.Time
}

func NewScoreService(st store.Store) *ScoreService {
	return &ScoreService{store: st, now: time.Now}
}

func (s *ScoreService) IncrementTotalScore(ctx context.Context, userID, delta int) error {
	if userID <= 0 {
		return &ValidationError{Reason: "userId must be positive"}
	}
	if delta < 0 {
		return &ValidationError{Reason: "delta must not be negative"}
	}

	if err := s.store.IncrementTotalScore(ctx, userID, delta); err != nil {
		return &PersistenceError{Op: "increment total score", Err: err}
	}
	return nil
}

// RecomputeDailyStreak derives the streak from the date (not time of day) of
// the user's most recent activity:
//
//   - most recent activity is today:     streak unchanged
//   - most recent activity is yesterday: streak + 1, once per day
//   - older than yesterday:              reset to 1
//   - no activity at all:                reset to 0
//
// The recomputation is idempotent within a day: the store remembers which day
// the streak was last computed for, and the increment is skipped when that
// day is today. It is not called by the recording pipeline; callers trigger
// it (on login or on a schedule) and decide whether it runs before or after
// the day's first activity.
func (s *ScoreService) RecomputeDailyStreak(ctx context.Context, userID int) (int, error) {
	if userID <= 0 {
		return 0, &ValidationError{Reason: "userId must be positive"}
	}

	latest, hasActivity, err := s.store.LatestActivityDate(ctx, userID)
	if err != nil {
		return 0, &PersistenceError{Op: "latest activity date", Err: err}
	}

	today := dateOnly(s.now())

	if !hasActivity {
		if err := s.store.SetDailyStreak(ctx, userID, 0, today); err != nil {
			return 0, &PersistenceError{Op: "set daily streak", Err: err}
		}
		return 0, nil
	}

	lastDay := dateOnly(latest)

	switch {
	case lastDay.Equal(today):
		// An activity already exists today: keep whatever is stored.
		streak, err := s.store.DailyStreak(ctx, userID)
		if err != nil {
			return 0, &PersistenceError{Op: "get daily streak", Err: err}
		}
		return streak, nil

	case lastDay.Equal(today.AddDate(0, 0, -1)):
		streak, err := s.store.DailyStreak(ctx, userID)
		if err != nil {
			return 0, &PersistenceError{Op: "get daily streak", Err: err}
		}

		computedOn, err := s.store.StreakComputedOn(ctx, userID)
		if err != nil {
			return 0, &PersistenceError{Op: "get streak computation day", Err: err}
		}
		if dateOnly(computedOn).Equal(today) {
			// Already extended today; a repeat run keeps the value.
			return streak, nil
		}

		streak++
		if err := s.store.SetDailyStreak(ctx, userID, streak, today); err != nil {
			return 0, &PersistenceError{Op: "set daily streak", Err: err}
		}
		return streak, nil

	default:
		if err := s.store.SetDailyStreak(ctx, userID, 1, today); err != nil {
			return 0, &PersistenceError{Op: "set daily streak", Err: err}
		}
		return 1, nil
	}
}

func (s *ScoreService) GetDailyStreak(ctx context.Context, userID int) (int, error) {
	if userID <= 0 {
		return 0, &ValidationError{Reason: "userId must be positive"}
	}

	streak, err := s.store.DailyStreak(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, err
		}
		return 0, &PersistenceError{Op: "get daily streak", Err: err}
	}
	return streak, nil
}

// dateOnly truncates a timestamp to its calendar date in the server's local
// reference, matching how activity timestamps are compared.
func dateOnly(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
