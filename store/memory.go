package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"ipitupAPI/internal/activity"
	"ipitupAPI/internal/badge"
	"ipitupAPI/internal/leaderboard"
	"ipitupAPI/internal/user"
)

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*MemoryStore)(nil)
)

type entryKey struct {
	userID     int
	locationID int
}

type awardKey struct {
	badgeID int
	userID  int
}

// MemoryStore is a mutex-guarded Store used by the tests and for local runs
// without a database. All increments happen under the lock, so it keeps the
// same no-lost-update guarantee the SQL store gets from atomic statements.
type MemoryStore struct {
	mu               sync.Mutex
	nextID           int
	activities       []activity.Activity
	users            map[int]*user.User
	entries          map[entryKey]*leaderboard.Entry
	badges           []badge.Badge
	awards           map[awardKey]bool
	exercises        map[int]string
	follows          []user.FollowEdge
	streakComputedOn map[int]time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:            map[int]*user.User{},
		entries:          map[entryKey]*leaderboard.Entry{},
		awards:           map[awardKey]bool{},
		exercises:        map[int]string{},
		streakComputedOn: map[int]time.Time{},
	}
}

// Seed helpers, not part of the Store interface.

func (s *MemoryStore) PutUser(u user.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := u
	s.users[u.ID] = &copied
}

func (s *MemoryStore) PutBadge(b badge.Badge) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.badges = append(s.badges, b)
}

func (s *MemoryStore) PutExercise(exerciseID int, category string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exercises[exerciseID] = category
}

func (s *MemoryStore) PutFollow(followerID, followingID int, status user.FollowStatus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.follows = append(s.follows, user.FollowEdge{
		FollowerID:  followerID,
		FollowingID: followingID,
		Status:      status,
	})
}

func (s *MemoryStore) AddActivity(ctx context.Context, a *activity.Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	a.ID = s.nextID
	s.activities = append(s.activities, *a)
	return nil
}

func (s *MemoryStore) ActivitiesByUser(ctx context.Context, userID, limit int) ([]activity.Activity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := []activity.Activity{}
	for _, a := range s.activities {
		if a.UserID == userID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Date.After(result[j].Date) })
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) LatestActivityDate(ctx context.Context, userID int) (time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest time.Time
	found := false
	for _, a := range s.activities {
		if a.UserID == userID && a.Date.After(latest) {
			latest = a.Date
			found = true
		}
	}
	return latest, found, nil
}

func (s *MemoryStore) IncrementTotalScore(ctx context.Context, userID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	u.TotalScore += delta
	return nil
}

func (s *MemoryStore) TotalScore(ctx context.Context, userID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return 0, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return u.TotalScore, nil
}

func (s *MemoryStore) DailyStreak(ctx context.Context, userID int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return 0, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return u.DailyStreak, nil
}

func (s *MemoryStore) SetDailyStreak(ctx context.Context, userID, streak int, computedOn time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	u.DailyStreak = streak
	s.streakComputedOn[userID] = computedOn
	return nil
}

func (s *MemoryStore) StreakComputedOn(ctx context.Context, userID int) (time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return time.Time{}, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	return s.streakComputedOn[userID], nil
}

func (s *MemoryStore) UpsertLeaderboardScore(ctx context.Context, userID, locationID, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entryKey{userID, locationID}
	if e, ok := s.entries[key]; ok {
		e.Score += delta
		return nil
	}
	loc := locationID
	s.entries[key] = &leaderboard.Entry{
		ID:         len(s.entries) + 1,
		UserID:     userID,
		LocationID: &loc,
		Score:      delta,
	}
	return nil
}

func (s *MemoryStore) LocationScores(ctx context.Context, locationIDs []int) (map[int]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	wanted := map[int]bool{}
	for _, id := range locationIDs {
		wanted[id] = true
	}

	scores := make(map[int]int)
	for key, e := range s.entries {
		if wanted[key.locationID] {
			scores[key.userID] += e.Score
		}
	}
	return scores, nil
}

func (s *MemoryStore) EntriesByLocation(ctx context.Context, locationID int) ([]leaderboard.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := []leaderboard.Entry{}
	for key, e := range s.entries {
		if key.locationID == locationID {
			result = append(result, *e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Score > result[j].Score })
	return result, nil
}

func (s *MemoryStore) BadgesByCategory(ctx context.Context, category string) ([]badge.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := []badge.Badge{}
	for _, b := range s.badges {
		if b.Category == category {
			result = append(result, b)
		}
	}
	return result, nil
}

func (s *MemoryStore) AwardBadge(ctx context.Context, badgeID, userID int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := awardKey{badgeID, userID}
	if s.awards[key] {
		return false, nil
	}
	s.awards[key] = true
	return true, nil
}

func (s *MemoryStore) BadgesByUser(ctx context.Context, userID int) ([]badge.Badge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := []badge.Badge{}
	for _, b := range s.badges {
		if s.awards[awardKey{b.ID, userID}] {
			result = append(result, b)
		}
	}
	return result, nil
}

func (s *MemoryStore) UserByID(ctx context.Context, userID int) (*user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, fmt.Errorf("user %d: %w", userID, ErrNotFound)
	}
	copied := *u
	return &copied, nil
}

func (s *MemoryStore) ListScoreboardUsers(ctx context.Context) ([]user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		users = append(users, *u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
	return users, nil
}

func (s *MemoryStore) ExerciseCategory(ctx context.Context, exerciseID int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	category, ok := s.exercises[exerciseID]
	if !ok {
		return "", fmt.Errorf("exercise %d: %w", exerciseID, ErrNotFound)
	}
	return category, nil
}

func (s *MemoryStore) AcceptedFollowingIDs(ctx context.Context, viewerID int) ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []int
	for _, f := range s.follows {
		if f.FollowerID == viewerID && f.Status == user.FollowAccepted {
			ids = append(ids, f.FollowingID)
		}
	}
	return ids, nil
}
