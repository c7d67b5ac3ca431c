package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"

	"github.com/banshee-data/tunable-laser/internal/laser"
	"github.com/banshee-data/tunable-laser/internal/monitoring"
)

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		monitoring.Logger().Error("failed to encode json response", "error", err)
	}
}

// writeJSONError writes a JSON error response with the given status code and message.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSONError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// writeSessionError maps a session failure onto an HTTP status.
func writeSessionError(w http.ResponseWriter, err error) {
	writeJSONError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	if errors.Is(err, laser.ErrClosed) {
		return http.StatusServiceUnavailable
	}
	switch laser.KindOf(err) {
	case laser.KindInvalidArgumentType, laser.KindInvalidArgumentValue:
		return http.StatusBadRequest
	case laser.KindCommunication, laser.KindBadResponse:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// finite returns nil for values JSON cannot carry (infinities, NaN).
func finite(v float64) *float64 {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return nil
	}
	return &v
}
