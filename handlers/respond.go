package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"ipitupAPI/services"
	"ipitupAPI/store"
)

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error": "Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps the service error taxonomy onto HTTP statuses:
// bad input 400, missing rows 404, store trouble 503.
func respondWithServiceError(w http.ResponseWriter, err error) {
	var validationErr *services.ValidationError
	if errors.As(err, &validationErr) {
		respondWithError(w, http.StatusBadRequest, validationErr.Reason)
		return
	}
	if errors.Is(err, store.ErrNotFound) {
		respondWithError(w, http.StatusNotFound, "Not found")
		return
	}
	var persistenceErr *services.PersistenceError
	if errors.As(err, &persistenceErr) {
		respondWithError(w, http.StatusServiceUnavailable, "Storage unavailable, try again later")
		return
	}
	respondWithError(w, http.StatusInternalServerError, "Internal server error")
}
