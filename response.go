package trainlocator

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nyct-labs/train-locator/gtfsrt"
	"github.com/nyct-labs/train-locator/matcher"
	"github.com/nyct-labs/train-locator/trips"
	"github.com/nyct-labs/train-locator/utils"
)

type errorBody struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusForError(err), errorBody{
		Error:     err.Error(),
		Timestamp: utils.Iso8601Now(),
	})
}

// statusForError maps the error taxonomy onto HTTP status codes. The
// order matters: wrapped chains are unwrapped by errors.As, and the
// first matching class decides.
func statusForError(err error) int {
	var ire *matcher.InvalidRequestError
	if errors.As(err, &ire) {
		return http.StatusBadRequest
	}
	var nde *gtfsrt.NoDataError
	if errors.Is(err, trips.ErrNotFound) || errors.As(err, &nde) {
		return http.StatusNotFound
	}
	var fte *gtfsrt.FeedTimeoutError
	if errors.As(err, &fte) {
		return http.StatusRequestTimeout
	}
	var ule *gtfsrt.UnknownLineError
	var fue *gtfsrt.FeedUnavailableError
	if errors.As(err, &ule) || errors.As(err, &fue) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}
