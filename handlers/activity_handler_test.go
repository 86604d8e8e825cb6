package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ipitupAPI/internal/activity"
	"ipitupAPI/internal/user"
	"ipitupAPI/services"
	"ipitupAPI/store"
)

func testActivityHandler(st store.Store) *ActivityHandler {
	badgeService := services.NewBadgeService(st)
	return NewActivityHandler(
		services.NewActivityService(st, badgeService),
		services.NewScoreService(st),
		badgeService,
	)
}

func seedUser(st *store.MemoryStore, id int) {
	st.PutUser(user.User{
		ID:        id,
		FirstName: "Test",
		LastName:  "User",
		BirthDate: time.Date(1995, 6, 15, 0, 0, 0, 0, time.UTC),
		Country:   "Belgium",
	})
}

func TestRecordActivityHandlerCreated(t *testing.T) {
	st := store.NewMemoryStore()
	seedUser(st, 7)
	h := testActivityHandler(st)

	body := `{"userId": 7, "activityScore": 50, "activityDuration": 120, "locationId": 3}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/activities", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.RecordActivity(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.EqualValues(t, 7, resp["userId"])
	assert.EqualValues(t, 50, resp["activityScore"])
}

func TestRecordActivityHandlerValidation(t *testing.T) {
	st := store.NewMemoryStore()
	seedUser(st, 7)
	h := testActivityHandler(st)

	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"userId": `},
		{"missing user", `{"activityScore": 50, "activityDuration": 120}`},
		{"negative score", `{"userId": 7, "activityScore": -1, "activityDuration": 120}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/activities", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			h.RecordActivity(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

type brokenScoreStore struct {
	store.Store
}

func (b *brokenScoreStore) IncrementTotalScore(ctx context.Context, userID, delta int) error {
	return errors.New("connection reset")
}

func TestRecordActivityHandlerPartialAccepted(t *testing.T) {
	mem := store.NewMemoryStore()
	seedUser(mem, 7)
	h := testActivityHandler(&brokenScoreStore{Store: mem})

	body := `{"userId": 7, "activityScore": 50, "activityDuration": 120}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/activities", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.RecordActivity(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["warning"], "total score")
	assert.NotNil(t, resp["activity"])
}

type failingAddStore struct {
	store.Store
}

func (b *failingAddStore) AddActivity(ctx context.Context, a *activity.Activity) error {
	return errors.New("connection reset")
}

func TestRecordActivityHandlerStorageDown(t *testing.T) {
	mem := store.NewMemoryStore()
	seedUser(mem, 7)
	h := testActivityHandler(&failingAddStore{Store: mem})

	body := `{"userId": 7, "activityScore": 50, "activityDuration": 120}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/activities", strings.NewReader(body))
	rec := httptest.NewRecorder()

	h.RecordActivity(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetUserTotalScoreHandler(t *testing.T) {
	st := store.NewMemoryStore()
	seedUser(st, 7)
	require.NoError(t, st.IncrementTotalScore(context.Background(), 7, 80))
	h := testActivityHandler(st)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activities/user/7/score", nil)
	req = mux.SetURLVars(req, map[string]string{"userId": "7"})
	rec := httptest.NewRecorder()

	h.GetUserTotalScore(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalScore": 80}`, rec.Body.String())
}

func TestGetUserTotalScoreHandlerNotFound(t *testing.T) {
	h := testActivityHandler(store.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/activities/user/42/score", nil)
	req = mux.SetURLVars(req, map[string]string{"userId": "42"})
	rec := httptest.NewRecorder()

	h.GetUserTotalScore(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetDailyStreakHandlerBadID(t *testing.T) {
	h := testActivityHandler(store.NewMemoryStore())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users/abc/streak", nil)
	req = mux.SetURLVars(req, map[string]string{"userId": "abc"})
	rec := httptest.NewRecorder()

	h.GetDailyStreak(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
