package services

import (
	"context"
	"sort"
	"time"

	"ipitupAPI/internal/leaderboard"
	"ipitupAPI/store"
)

// DefaultLeaderboardLimit caps query results for predictable latency.
const DefaultLeaderboardLimit = 10

// LeaderboardService answers ranked, filtered leaderboard queries. It only
// reads: the score ledger and location aggregates via the store, the follow
// graph for "following" scope.
type LeaderboardService struct {
	store       store.Store
	homeCountry string
	limit       int
	now         func() time.Time
}

// NewLeaderboardService builds the query engine. homeCountry is the
// reference value for "local" scope; limit caps results and falls back to
// DefaultLeaderboardLimit when non-positive.
func NewLeaderboardService(st store.Store, homeCountry string, limit int) *LeaderboardService {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	return &LeaderboardService{
		store:       st,
		homeCountry: homeCountry,
		limit:       limit,
		now:         time.Now,
	}
}

// Query ranks users by their global total score, or by the sum of their
// per-location scores across the filter's location set when one is given.
// An empty result is not an error; malformed filters are.
func (s *LeaderboardService) Query(ctx context.Context, f leaderboard.Filter) ([]leaderboard.Row, error) {
	if err := s.validateFilter(f); err != nil {
		return nil, err
	}
	if f.Scope == "" {
		f.Scope = leaderboard.ScopeGlobal
	}
	leaderboardQueries.WithLabelValues(string(f.Scope)).Inc()

	users, err := s.store.ListScoreboardUsers(ctx)
	if err != nil {
		return nil, &PersistenceError{Op: "list users", Err: err}
	}

	// Location-filtered queries rank only users with at least one entry in
	// the requested set; their score is the sum over that set.
	var locationScores map[int]int
	if len(f.LocationIDs) > 0 {
		locationScores, err = s.store.LocationScores(ctx, f.LocationIDs)
		if err != nil {
			return nil, &PersistenceError{Op: "sum location scores", Err: err}
		}
	}

	var followed map[int]bool
	if f.Scope == leaderboard.ScopeFollowing {
		ids, err := s.store.AcceptedFollowingIDs(ctx, *f.ViewerUserID)
		if err != nil {
			return nil, &PersistenceError{Op: "fetch following", Err: err}
		}
		followed = make(map[int]bool, len(ids))
		for _, id := range ids {
			followed[id] = true
		}
	}

	now := s.now()
	rows := []leaderboard.Row{}
	for _, u := range users {
		score := u.TotalScore
		if locationScores != nil {
			sum, present := locationScores[u.ID]
			if !present {
				continue
			}
			score = sum
		}

		age := u.Age(now)
		if f.MinAge != nil && age < *f.MinAge {
			continue
		}
		if f.MaxAge != nil && age > *f.MaxAge {
			continue
		}

		switch f.Scope {
		case leaderboard.ScopeLocal:
			if u.Country != s.homeCountry {
				continue
			}
		case leaderboard.ScopeFollowing:
			if !followed[u.ID] {
				continue
			}
		}

		userAge := age
		rows = append(rows, leaderboard.Row{
			UserID:    u.ID,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Avatar:    u.Avatar,
			Score:     score,
			Age:       &userAge,
		})
	}

	// Descending score; equal scores order by ascending user ID so output
	// is deterministic.
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].UserID < rows[j].UserID
	})

	limit := f.Limit
	if limit <= 0 || limit > s.limit {
		limit = s.limit
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}

	return rows, nil
}

func (s *LeaderboardService) GetEntriesByLocation(ctx context.Context, locationID int) ([]leaderboard.Entry, error) {
	if locationID <= 0 {
		return nil, &ValidationError{Reason: "locationId must be positive"}
	}

	entries, err := s.store.EntriesByLocation(ctx, locationID)
	if err != nil {
		return nil, &PersistenceError{Op: "fetch leaderboard entries", Err: err}
	}
	return entries, nil
}

func (s *LeaderboardService) validateFilter(f leaderboard.Filter) error {
	switch f.Scope {
	case leaderboard.ScopeGlobal, leaderboard.ScopeLocal, leaderboard.ScopeFollowing:
	case "":
		// Absent scope means global.
	default:
		return &ValidationError{Reason: "unknown scope: " + string(f.Scope)}
	}

	if f.Scope == leaderboard.ScopeFollowing && f.ViewerUserID == nil {
		return &ValidationError{Reason: "viewer user id is required for following scope"}
	}

	for _, id := range f.LocationIDs {
		if id <= 0 {
			return &ValidationError{Reason: "location ids must be positive"}
		}
	}

	if f.MinAge != nil && *f.MinAge < 0 {
		return &ValidationError{Reason: "minAge must not be negative"}
	}
	if f.MaxAge != nil && *f.MaxAge < 0 {
		return &ValidationError{Reason: "maxAge must not be negative"}
	}
	if f.MinAge != nil && f.MaxAge != nil && *f.MinAge > *f.MaxAge {
		return &ValidationError{Reason: "minAge must not exceed maxAge"}
	}

	return nil
}
