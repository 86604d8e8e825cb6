package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipitupAPI/internal/leaderboard"
	"ipitupAPI/middleware"
	"ipitupAPI/services"
	"ipitupAPI/store"
)

func testLeaderboardHandler(st *store.MemoryStore) *LeaderboardHandler {
	return NewLeaderboardHandler(services.NewLeaderboardService(st, "Belgium", 0))
}

func TestLeaderboardQueryHandler(t *testing.T) {
	st := store.NewMemoryStore()
	seedUser(st, 1)
	seedUser(st, 2)
	require.NoError(t, st.IncrementTotalScore(context.Background(), 1, 30))
	require.NoError(t, st.IncrementTotalScore(context.Background(), 2, 70))
	h := testLeaderboardHandler(st)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard/filter", nil)
	rec := httptest.NewRecorder()

	h.Query(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []leaderboard.Row
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, 2, rows[0].UserID)
	assert.Equal(t, 70, rows[0].Score)
}

func TestLeaderboardQueryHandlerParsesParams(t *testing.T) {
	st := store.NewMemoryStore()
	seedUser(st, 1)
	require.NoError(t, st.UpsertLeaderboardScore(context.Background(), 1, 3, 40))
	require.NoError(t, st.UpsertLeaderboardScore(context.Background(), 1, 4, 10))
	h := testLeaderboardHandler(st)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard/filter?locationIds=3,4&minAge=18&maxAge=60&limit=5", nil)
	rec := httptest.NewRecorder()

	h.Query(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var rows []leaderboard.Row
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rows))
	require.Len(t, rows, 1)
	assert.Equal(t, 50, rows[0].Score)
}

func TestLeaderboardQueryHandlerBadParams(t *testing.T) {
	h := testLeaderboardHandler(store.NewMemoryStore())

	for _, target := range []string{
		"/api/v1/leaderboard/filter?locationIds=3,x",
		"/api/v1/leaderboard/filter?minAge=old",
		"/api/v1/leaderboard/filter?limit=-1",
		"/api/v1/leaderboard/filter?scope=galactic",
	} {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		rec := httptest.NewRecorder()

		h.Query(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
	}
}

func TestLeaderboardQueryHandlerFollowingNeedsAuth(t *testing.T) {
	st := store.NewMemoryStore()
	seedUser(st, 1)
	h := testLeaderboardHandler(st)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard/filter?scope=following", nil)
	rec := httptest.NewRecorder()

	h.Query(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// With an authenticated viewer in the request context the same query
	// succeeds.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/leaderboard/filter?scope=following", nil)
	req = req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, 1))
	rec = httptest.NewRecorder()

	h.Query(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
