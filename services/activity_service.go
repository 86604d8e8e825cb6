package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/go-playground/validator/v10"

	"ipitupAPI/internal/activity"
	"ipitupAPI/store"
)

// ActivityService runs the activity recording pipeline: validate, persist,
// fan out to the score ledger and the location leaderboard, then evaluate
// badges best-effort.
type ActivityService struct {
	store    store.Store
	badges   *BadgeService
	validate *validator.Validate
	now      func() time.Time
}

func NewActivityService(st store.Store, badges *BadgeService) *ActivityService {
	return &ActivityService{
		store:    st,
		badges:   badges,
		validate: validator.New(),
		now:      time.Now,
	}
}

// RecordActivity records one submitted activity. The steps run in order and
// each depends on the previous one:
//
//  1. validate (nothing persisted on failure, ValidationError)
//  2. append the activity (PersistenceError, pipeline stops)
//  3. atomic total-score increment (PartialError: activity is durable)
//  4. atomic leaderboard upsert, only when a location was given (PartialError)
//  5. badge evaluation, logged and swallowed, never fails the submission
//
// The returned activity is non-nil whenever it was durably recorded, even on
// PartialError, so callers always learn the durable outcome.
func (s *ActivityService) RecordActivity(ctx context.Context, req *activity.RecordActivityRequest) (*activity.Activity, error) {
	if err := s.validate.Struct(req); err != nil {
		recordingFailures.WithLabelValues("validation").Inc()
		return nil, &ValidationError{Reason: err.Error()}
	}

	act := &activity.Activity{
		UserID:     req.UserID,
		Score:      req.Score,
		Duration:   req.Duration,
		Date:       s.now().UTC(),
		LocationID: req.LocationID,
		ExerciseID: req.ExerciseID,
	}

	if err := s.store.AddActivity(ctx, act); err != nil {
		log.Printf("RecordActivity: failed to persist activity for user %d: %v", req.UserID, err)
		recordingFailures.WithLabelValues("persist").Inc()
		return nil, &PersistenceError{Op: "persist activity", Err: err}
	}
	activitiesRecorded.Inc()

	if err := s.store.IncrementTotalScore(ctx, act.UserID, act.Score); err != nil {
		log.Printf("RecordActivity: activity %d recorded but total score update failed: %v", act.ID, err)
		recordingFailures.WithLabelValues("total_score").Inc()
		return act, &PartialError{Stage: "total score", Err: err}
	}

	if act.LocationID != nil {
		if err := s.store.UpsertLeaderboardScore(ctx, act.UserID, *act.LocationID, act.Score); err != nil {
			log.Printf("RecordActivity: activity %d recorded but leaderboard update failed: %v", act.ID, err)
			recordingFailures.WithLabelValues("leaderboard").Inc()
			return act, &PartialError{Stage: "leaderboard", Err: err}
		}
	}

	s.evaluateBadges(ctx, act)

	return act, nil
}

// evaluateBadges is a best-effort enrichment. Any failure is logged and
// swallowed; a recorded activity is never invalidated by it.
func (s *ActivityService) evaluateBadges(ctx context.Context, act *activity.Activity) {
	if act.ExerciseID == nil {
		return
	}

	category, err := s.store.ExerciseCategory(ctx, *act.ExerciseID)
	if err != nil {
		log.Printf("RecordActivity: badge evaluation skipped, exercise %d lookup failed: %v", *act.ExerciseID, err)
		return
	}

	total, err := s.store.TotalScore(ctx, act.UserID)
	if err != nil {
		log.Printf("RecordActivity: badge evaluation skipped, total score lookup failed: %v", err)
		return
	}

	awarded, err := s.badges.EvaluateAndAward(ctx, act.UserID, category, total)
	if err != nil {
		log.Printf("RecordActivity: badge evaluation failed for user %d: %v", act.UserID, err)
		return
	}
	if len(awarded) > 0 {
		log.Printf("RecordActivity: user %d unlocked badges %v", act.UserID, awarded)
	}
}

func (s *ActivityService) GetActivitiesByUser(ctx context.Context, userID, limit int) ([]activity.Activity, error) {
	if userID <= 0 {
		return nil, &ValidationError{Reason: "userId must be positive"}
	}
	if limit <= 0 {
		limit = 5
	}

	activities, err := s.store.ActivitiesByUser(ctx, userID, limit)
	if err != nil {
		return nil, &PersistenceError{Op: "fetch activities", Err: err}
	}
	return activities, nil
}

func (s *ActivityService) GetUserTotalScore(ctx context.Context, userID int) (int, error) {
	if userID <= 0 {
		return 0, &ValidationError{Reason: "userId must be positive"}
	}

	total, err := s.store.TotalScore(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return 0, err
		}
		return 0, &PersistenceError{Op: "fetch total score", Err: err}
	}
	return total, nil
}
