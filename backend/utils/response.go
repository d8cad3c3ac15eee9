package utils

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/gilchrisn/signed-louvain/backend/models"
)

// WriteSuccessResponse writes a successful JSON response
func WriteSuccessResponse(w http.ResponseWriter, message string, data interface{}) {
	WriteStatusResponse(w, http.StatusOK, message, data)
}

// WriteStatusResponse writes a successful JSON response with a custom status code
func WriteStatusResponse(w http.ResponseWriter, statusCode int, message string, data interface{}) {
	response := models.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}

	writeJSONResponse(w, statusCode, response)
}

// WriteErrorResponse writes an error JSON response
func WriteErrorResponse(w http.ResponseWriter, statusCode int, message string, err error) {
	response := models.APIResponse{
		Success: false,
		Message: message,
	}

	if err != nil {
		response.Error = err.Error()
	}

	writeJSONResponse(w, statusCode, response)
}

// writeJSONResponse is a helper function to write JSON responses
func writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().
			Err(err).
			Int("status_code", statusCode).
			Msg("Failed to encode JSON response")
	}
}

// IntQuery reads an integer query parameter, returning def when it is absent
func IntQuery(r *http.Request, key string, def int) (int, error) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return def, nil
	}
	return strconv.Atoi(value)
}
