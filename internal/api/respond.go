package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"evsched/internal/schedule"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write JSON response", "err", err)
	}
}

// errorBody is the payload of every non-2xx JSON response.
type errorBody struct {
	Error       string    `json:"error"`
	Message     string    `json:"message"`
	Field       string    `json:"field,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
	Status      int       `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// conflictBody always carries a suggestions array, possibly empty.
type conflictBody struct {
	Error       string    `json:"error"`
	Message     string    `json:"message"`
	Suggestions []string  `json:"suggestions"`
	Status      int       `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
}

// writeError maps service errors onto status codes.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		ce *schedule.ConflictError
		ve *schedule.ValidationError
		be *badRequestError
	)
	switch {
	case errors.As(err, &ce):
		s.logger.Warn("event conflict", "message", ce.Message, "suggestions", len(ce.Suggestions), "request_id", requestID(r.Context()))
		suggestions := ce.Suggestions
		if suggestions == nil {
			suggestions = []string{}
		}
		s.writeJSON(w, http.StatusConflict, conflictBody{
			Error:       "Event Conflict",
			Message:     ce.Message,
			Suggestions: suggestions,
			Status:      http.StatusConflict,
			Timestamp:   s.now(),
		})
	case errors.Is(err, schedule.ErrNotFound):
		s.writeBody(w, http.StatusNotFound, errorBody{Error: "Not Found", Message: err.Error()})
	case errors.As(err, &ve):
		s.writeBody(w, http.StatusBadRequest, errorBody{Error: "Validation Failed", Message: ve.Error(), Field: ve.Field})
	case errors.As(err, &be):
		s.writeBody(w, http.StatusBadRequest, errorBody{Error: "Bad Request", Message: be.Error()})
	default:
		s.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err, "request_id", requestID(r.Context()))
		s.writeBody(w, http.StatusInternalServerError, errorBody{Error: "Internal Server Error", Message: "internal error"})
	}
}

func (s *Server) writeBody(w http.ResponseWriter, status int, body errorBody) {
	body.Status = status
	body.Timestamp = s.now()
	s.writeJSON(w, status, body)
}

type badRequestError struct {
	msg string
}

func (e *badRequestError) Error() string { return e.msg }

func badRequest(msg string) error { return &badRequestError{msg: msg} }
