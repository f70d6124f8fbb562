package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"tracker/internal/chart"
	"tracker/internal/storage"
	"tracker/internal/tracker"
)

var errBadID = errors.New("invalid book id")

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes. Unknown errors are logged
// and reported without detail.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case errors.Is(err, tracker.ErrInvalidInput),
		errors.Is(err, chart.ErrUnknownColormap),
		errors.Is(err, errBadID):
		status, message = http.StatusBadRequest, err.Error()
	case errors.Is(err, storage.ErrBookNotFound):
		status, message = http.StatusNotFound, err.Error()
	case errors.Is(err, chart.ErrNoData):
		status, message = http.StatusNotFound, "no data"
	case errors.Is(err, storage.ErrUnknownBook):
		status, message = http.StatusConflict, storage.ErrUnknownBook.Error()
	default:
		s.logger.Error("Request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
	}

	writeJSON(w, status, ErrorResponse{Error: message})
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Join(tracker.ErrInvalidInput, err)
	}
	return nil
}

func bookID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}
