package services

import (
	"context"
	"errors"

	"ipitupAPI/internal/badge"
	"ipitupAPI/store"
)

// BadgeService evaluates the threshold-based badge catalog. The catalog is
// externally managed and read-only here.
type BadgeService struct {
	store store.Store
}

func NewBadgeService(st store.Store) *BadgeService {
	return &BadgeService{store: st}
}

// EvaluateAndAward awards every badge in the given category whose unlock
// threshold the achieved score strictly exceeds, and returns the IDs of the
// badges that are new to the user. Re-running with the same inputs never
// duplicates an award: the store insert is conflict-free and reports whether
// a row was actually created.
func (s *BadgeService) EvaluateAndAward(ctx context.Context, userID int, category string, achievedScore int) ([]int, error) {
	if userID <= 0 {
		return nil, &ValidationError{Reason: "userId must be positive"}
	}
	if category == "" {
		return nil, &ValidationError{Reason: "category is required"}
	}

	catalog, err := s.store.BadgesByCategory(ctx, category)
	if err != nil {
		return nil, &PersistenceError{Op: "fetch badge catalog", Err: err}
	}

	awarded := []int{}
	for _, b := range catalog {
		if achievedScore <= b.UnlockThreshold {
			continue
		}
		isNew, err := s.store.AwardBadge(ctx, b.ID, userID)
		if err != nil {
			return awarded, &PersistenceError{Op: "award badge", Err: err}
		}
		if isNew {
			badgesAwarded.Inc()
			awarded = append(awarded, b.ID)
		}
	}

	return awarded, nil
}

func (s *BadgeService) GetBadgesByUser(ctx context.Context, userID int) ([]badge.Badge, error) {
	if userID <= 0 {
		return nil, &ValidationError{Reason: "userId must be positive"}
	}

	badges, err := s.store.BadgesByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, &PersistenceError{Op: "fetch user badges", Err: err}
	}
	return badges, nil
}
