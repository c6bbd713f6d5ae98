package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"evsched/internal/model"
	"evsched/internal/schedule"
)

func pathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest(fmt.Sprintf("invalid %s %q", name, r.PathValue(name)))
	}
	return id, nil
}

func decode(w http.ResponseWriter, r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(v); err != nil {
		return badRequest("invalid request body: " + err.Error())
	}
	return nil
}

func parseDate(name, s string) (model.Date, error) {
	d, err := model.ParseDate(s)
	if err != nil {
		return model.Date{}, badRequest(fmt.Sprintf("invalid %s %q, want YYYY-MM-DD", name, s))
	}
	return d, nil
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.Events.List(r.Context())
	s.respond(w, r, http.StatusOK, events, err)
}

func (s *Server) createEvent(w http.ResponseWriter, r *http.Request) {
	var in schedule.EventInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.Events.Create(r.Context(), in)
	s.respond(w, r, http.StatusCreated, e, err)
}

func (s *Server) getEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.Events.Get(r.Context(), id)
	s.respond(w, r, http.StatusOK, e, err)
}

func (s *Server) updateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in schedule.EventInput
	if err := decode(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	e, err := s.svc.Events.Update(r.Context(), id, in)
	s.respond(w, r, http.StatusOK, e, err)
}

func (s *Server) deleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := s.svc.Events.Delete(r.Context(), id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) eventsByStatus(w http.ResponseWriter, r *http.Request) {
	status, err := model.ParseEventStatus(r.PathValue("status"))
	if err != nil {
		s.writeError(w, r, badRequest(err.Error()))
		return
	}
	events, err := s.svc.Events.ByStatus(r.Context(), status)
	s.respond(w, r, http.StatusOK, events, err)
}

func (s *Server) upcomingEvents(w http.ResponseWriter, r *http.Request) {
	events, err := s.svc.Events.Upcoming(r.Context())
	s.respond(w, r, http.StatusOK, events, err)
}

func (s *Server) eventsByDate(w http.ResponseWriter, r *http.Request) {
	d, err := parseDate("date", r.PathValue("date"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	events, err := s.svc.Events.ByDate(r.Context(), d)
	s.respond(w, r, http.StatusOK, events, err)
}

func (s *Server) eventsBetween(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, err := parseDate("from", q.Get("from"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	to, err := parseDate("to", q.Get("to"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	events, err := s.svc.Events.Between(r.Context(), from, to)
	s.respond(w, r, http.StatusOK, events, err)
}

// searchEvents matches on title, or on location when only that is given.
func (s *Server) searchEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var (
		events []model.Event
		err    error
	)
	if loc := q.Get("location"); loc != "" && q.Get("title") == "" {
		events, err = s.svc.Events.SearchLocation(r.Context(), loc)
	} else {
		events, err = s.svc.Events.SearchTitle(r.Context(), q.Get("title"))
	}
	s.respond(w, r, http.StatusOK, events, err)
}

type slotCheckRequest struct {
	Date      *model.Date      `json:"date"`
	Time      *model.TimeOfDay `json:"time"`
	Location  *string          `json:"location"`
	ExcludeID int64            `json:"excludeId"`
}

type slotCheckResponse struct {
	Conflict    bool     `json:"conflict"`
	Message     string   `json:"message,omitempty"`
	Suggestions []string `json:"suggestions"`
}

func (s *Server) checkSlot(w http.ResponseWriter, r *http.Request) {
	var req slotCheckRequest
	if err := decode(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	slot := model.Slot{Date: req.Date, Time: req.Time, Location: req.Location}
	report, err := s.svc.Events.CheckSlot(r.Context(), slot, req.ExcludeID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	resp := slotCheckResponse{Suggestions: []string{}}
	if report != nil {
		resp.Conflict = true
		resp.Message = report.Message
		resp.Suggestions = report.Suggestions
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) calendarFeed(w http.ResponseWriter, r *http.Request) {
	body, err := s.svc.Feed.ICS(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `inline; filename="evsched.ics"`)
	_, _ = w.Write(body)
}

// respond writes v with status, or the mapped error.
func (s *Server) respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, status, v)
}
