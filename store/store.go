package store

import (
	"context"
	"errors"
	"time"

	"ipitupAPI/internal/activity"
	"ipitupAPI/internal/badge"
	"ipitupAPI/internal/leaderboard"
	"ipitupAPI/internal/user"
)

// ErrNotFound is returned when a looked-up row does not exist.
var ErrNotFound = errors.New("not found")

// ActivityStore is the append-only record of workout events. AddActivity
// fills in the generated ID.
type ActivityStore interface {
	AddActivity(ctx context.Context, a *activity.Activity) error
	ActivitiesByUser(ctx context.Context, userID, limit int) ([]activity.Activity, error)
	// LatestActivityDate reports the timestamp of the user's most recent
	// activity; the bool is false when the user has no activities.
	LatestActivityDate(ctx context.Context, userID int) (time.Time, bool, error)
}

// ScoreStore owns the per-user cumulative total and daily streak.
// IncrementTotalScore must be atomic at the store level, never
// read-modify-write.
type ScoreStore interface {
	IncrementTotalScore(ctx context.Context, userID, delta int) error
	TotalScore(ctx context.Context, userID int) (int, error)
	DailyStreak(ctx context.Context, userID int) (int, error)
	// SetDailyStreak stores the streak together with the day it was
	// computed for, so recomputation can tell whether it already ran.
	SetDailyStreak(ctx context.Context, userID, streak int, computedOn time.Time) error
	// StreakComputedOn reports the day the stored streak was last
	// computed for; the zero time means it never was.
	StreakComputedOn(ctx context.Context, userID int) (time.Time, error)
}

// LeaderboardStore owns per-(user, location) aggregate scores.
// UpsertLeaderboardScore must insert-or-increment in a single atomic
// operation.
type LeaderboardStore interface {
	UpsertLeaderboardScore(ctx context.Context, userID, locationID, delta int) error
	// LocationScores sums each user's scores across the given location set.
	LocationScores(ctx context.Context, locationIDs []int) (map[int]int, error)
	EntriesByLocation(ctx context.Context, locationID int) ([]leaderboard.Entry, error)
}

// BadgeStore holds the read-only badge catalog and the user-badge joins.
// AwardBadge reports false when the user already held the badge.
type BadgeStore interface {
	BadgesByCategory(ctx context.Context, category string) ([]badge.Badge, error)
	AwardBadge(ctx context.Context, badgeID, userID int) (bool, error)
	BadgesByUser(ctx context.Context, userID int) ([]badge.Badge, error)
}

type UserStore interface {
	UserByID(ctx context.Context, userID int) (*user.User, error)
	ListScoreboardUsers(ctx context.Context) ([]user.User, error)
	ExerciseCategory(ctx context.Context, exerciseID int) (string, error)
}

// FollowStore is read-only follow-graph access for the "following" scope.
type FollowStore interface {
	AcceptedFollowingIDs(ctx context.Context, viewerID int) ([]int, error)
}

type Store interface {
	ActivityStore
	ScoreStore
	LeaderboardStore
	BadgeStore
	UserStore
	FollowStore
}
