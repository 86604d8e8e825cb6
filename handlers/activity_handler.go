package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"ipitupAPI/internal/activity"
	"ipitupAPI/services"
)

type ActivityHandler struct {
	activityService *services.ActivityService
	scoreService    *services.ScoreService
	badgeService    *services.BadgeService
}

func NewActivityHandler(activityService *services.ActivityService, scoreService *services.ScoreService, badgeService *services.BadgeService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		scoreService:    scoreService,
		badgeService:    badgeService,
	}
}

// RecordActivity runs the whole recording pipeline. A fully recorded
// activity returns 201. When the activity row landed but a downstream
// score update failed, the activity is returned with 202 so the client
// knows the record exists and which update is still owed.
func (h *ActivityHandler) RecordActivity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var req activity.RecordActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	act, err := h.activityService.RecordActivity(ctx, &req)
	if err != nil {
		var partialErr *services.PartialError
		if errors.As(err, &partialErr) {
			log.Printf("Partial activity record for user %d: %v", req.UserID, err)
			respondWithJSON(w, http.StatusAccepted, map[string]interface{}{
				"activity": act,
				"warning":  partialErr.Error(),
			})
			return
		}
		log.Printf("Error recording activity for user %d: %v", req.UserID, err)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, act)
}

func (h *ActivityHandler) GetActivitiesByUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, err := strconv.Atoi(mux.Vars(r)["userId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
	}

	activities, err := h.activityService.GetActivitiesByUser(ctx, userID, limit)
	if err != nil {
		log.Printf("Error fetching activities for user %d: %v", userID, err)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, activities)
}

func (h *ActivityHandler) GetUserTotalScore(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, err := strconv.Atoi(mux.Vars(r)["userId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	total, err := h.activityService.GetUserTotalScore(ctx, userID)
	if err != nil {
		log.Printf("Error fetching total score for user %d: %v", userID, err)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"totalScore": total})
}

func (h *ActivityHandler) GetDailyStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, err := strconv.Atoi(mux.Vars(r)["userId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	streak, err := h.scoreService.GetDailyStreak(ctx, userID)
	if err != nil {
		log.Printf("Error fetching streak for user %d: %v", userID, err)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"dailyStreak": streak})
}

func (h *ActivityHandler) RecomputeDailyStreak(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, err := strconv.Atoi(mux.Vars(r)["userId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	streak, err := h.scoreService.RecomputeDailyStreak(ctx, userID)
	if err != nil {
		log.Printf("Error recomputing streak for user %d: %v", userID, err)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]int{"dailyStreak": streak})
}

func (h *ActivityHandler) GetBadgesByUser(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	userID, err := strconv.Atoi(mux.Vars(r)["userId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid user ID")
		return
	}

	badges, err := h.badgeService.GetBadgesByUser(ctx, userID)
	if err != nil {
		log.Printf("Error fetching badges for user %d: %v", userID, err)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, badges)
}
