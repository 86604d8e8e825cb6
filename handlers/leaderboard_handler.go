package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"ipitupAPI/internal/leaderboard"
	"ipitupAPI/middleware"
	"ipitupAPI/services"
)

type LeaderboardHandler struct {
	leaderboardService *services.LeaderboardService
}

func NewLeaderboardHandler(leaderboardService *services.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboardService: leaderboardService}
}

// Query serves the filtered leaderboard. Supported query parameters:
// locationIds (comma separated), minAge, maxAge, scope
// (global|local|following) and limit. The following scope needs an
// authenticated viewer, so this route sits behind optional auth and
// the service rejects the combination when no viewer is present.
func (h *LeaderboardHandler) Query(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var filter leaderboard.Filter

	q := r.URL.Query()
	if raw := q.Get("locationIds"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil {
				respondWithError(w, http.StatusBadRequest, "Invalid location ID")
				return
			}
			filter.LocationIDs = append(filter.LocationIDs, id)
		}
	}
	if raw := q.Get("minAge"); raw != "" {
		minAge, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid minAge")
			return
		}
		filter.MinAge = &minAge
	}
	if raw := q.Get("maxAge"); raw != "" {
		maxAge, err := strconv.Atoi(raw)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid maxAge")
			return
		}
		filter.MaxAge = &maxAge
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			respondWithError(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		filter.Limit = limit
	}
	filter.Scope = leaderboard.Scope(q.Get("scope"))

	if viewerID, ok := middleware.GetUserID(r.Context()); ok {
		filter.ViewerUserID = &viewerID
	}

	rows, err := h.leaderboardService.Query(ctx, filter)
	if err != nil {
		log.Printf("Error querying leaderboard: %v", err)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, rows)
}

func (h *LeaderboardHandler) GetEntriesByLocation(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	locationID, err := strconv.Atoi(mux.Vars(r)["locationId"])
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid location ID")
		return
	}

	entries, err := h.leaderboardService.GetEntriesByLocation(ctx, locationID)
	if err != nil {
		log.Printf("Error fetching leaderboard for location %d: %v", locationID, err)
		respondWithServiceError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, entries)
}
